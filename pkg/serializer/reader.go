// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/NVIDIA/compat-matrix/pkg/defaults"
	"github.com/NVIDIA/compat-matrix/pkg/k8s/client"
	"github.com/NVIDIA/compat-matrix/pkg/oci"
)

// ConfigMapDataKey is the base name of the ConfigMap data key holding a
// serialized document, e.g. "matrix.yaml".
const ConfigMapDataKey = "matrix"

// FormatFromPath determines the serialization format based on file extension.
// Supported extensions:
//   - .json → FormatJSON
//   - .yaml, .yml → FormatYAML
//   - .table, .txt → FormatTable
//
// Unknown extensions default to YAML, which also accepts JSON documents.
// Extension matching is case-insensitive.
func FormatFromPath(filePath string) Format {
	lowerPath := strings.ToLower(filePath)
	if i := strings.IndexAny(lowerPath, "?#"); i >= 0 && isURL(lowerPath) {
		lowerPath = lowerPath[:i]
	}
	switch {
	case strings.HasSuffix(lowerPath, ".json"):
		return FormatJSON
	case strings.HasSuffix(lowerPath, ".yaml"), strings.HasSuffix(lowerPath, ".yml"):
		return FormatYAML
	case strings.HasSuffix(lowerPath, ".table"), strings.HasSuffix(lowerPath, ".txt"):
		return FormatTable
	default:
		slog.Debug("unknown file extension, defaulting to YAML", "filePath", filePath)
		return FormatYAML
	}
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// Reader handles deserialization of JSON or YAML documents from any io.Reader.
// Close must be called to release file handles when using NewFileReader.
type Reader struct {
	format Format
	input  io.Reader
	closer io.Closer
}

// NewReader creates a Reader for the given format. If input implements
// io.Closer it is closed by Reader.Close.
//
// Example:
//
//	reader, err := NewReader(FormatJSON, strings.NewReader(`{"1.0.3": "1.6.x"}`))
//	if err != nil { return err }
//	var m matrix.Mapping
//	err = reader.Deserialize(&m)
func NewReader(format Format, input io.Reader) (*Reader, error) {
	if format.IsUnknown() {
		return nil, fmt.Errorf("unknown format: %s", format)
	}
	if format == FormatTable {
		return nil, fmt.Errorf("table format does not support deserialization")
	}

	r := &Reader{
		format: format,
		input:  input,
	}
	if closer, ok := input.(io.Closer); ok {
		r.closer = closer
	}
	return r, nil
}

// NewFileReader creates a Reader for a local file path or an HTTP(S) URL.
// Remote documents are fetched in full with HTTPReader before decoding.
func NewFileReader(ctx context.Context, format Format, filePath string) (*Reader, error) {
	if isURL(filePath) {
		data, err := NewHTTPReader().Read(ctx, filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to download remote file: %w", err)
		}
		return NewReader(format, bytes.NewReader(data))
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	r, err := NewReader(format, file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

// Deserialize decodes the input into v, which must be a pointer.
// Errors returned by custom unmarshalers are wrapped, not replaced.
func (r *Reader) Deserialize(v any) error {
	if r == nil {
		return fmt.Errorf("reader is nil")
	}
	if r.input == nil {
		return fmt.Errorf("input source is nil")
	}

	switch r.format {
	case FormatJSON:
		if err := json.NewDecoder(r.input).Decode(v); err != nil {
			return fmt.Errorf("failed to decode JSON: %w", err)
		}
		return nil
	case FormatYAML:
		if err := yaml.NewDecoder(r.input).Decode(v); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to decode YAML: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format for deserialization: %s", r.format)
	}
}

// Close releases the underlying input if it is closeable. It is safe to call
// more than once and on a nil Reader.
func (r *Reader) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// FromFile reads and deserializes a document from a file path, HTTP(S) URL,
// ConfigMap URI (cm://namespace/name) or registry artifact
// (oci://registry/repository:tag) into T.
//
// Example:
//
//	m, err := FromFile[matrix.Mapping](ctx, "cm://compat/matrix")
func FromFile[T any](ctx context.Context, path string) (*T, error) {
	return FromFileWithKubeconfig[T](ctx, path, "")
}

// FromFileWithKubeconfig is FromFile with an explicit kubeconfig path, used
// only for ConfigMap URIs. An empty kubeconfig uses default discovery.
func FromFileWithKubeconfig[T any](ctx context.Context, path, kubeconfig string) (*T, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("source path is empty")
	}

	if strings.HasPrefix(path, ConfigMapURIScheme) {
		namespace, name, err := parseConfigMapURI(path)
		if err != nil {
			return nil, fmt.Errorf("invalid ConfigMap URI: %w", err)
		}
		k8sClient, err := kubeClient(kubeconfig)
		if err != nil {
			return nil, err
		}
		return FromConfigMap[T](ctx, k8sClient, namespace, name)
	}

	if oci.IsURI(path) {
		return FromOCI[T](ctx, path)
	}

	format := FormatFromPath(path)
	slog.Debug("determined file format", "path", path, "format", format)

	reader, err := NewFileReader(ctx, format, path)
	if err != nil {
		return nil, fmt.Errorf("failed to create reader for %q: %w", path, err)
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil {
			slog.Warn("failed to close reader", "error", closeErr)
		}
	}()

	var result T
	if err := reader.Deserialize(&result); err != nil {
		return nil, fmt.Errorf("failed to deserialize object from %q: %w", path, err)
	}

	slog.Debug("successfully loaded object", "path", path)
	return &result, nil
}

// FromConfigMap reads a document stored by ConfigMapWriter. The data key is
// matrix.<format>, where format comes from the ConfigMap's "format" key and
// defaults to yaml. If that key is absent, matrix.yaml then matrix.json are tried.
func FromConfigMap[T any](ctx context.Context, k8sClient client.Interface, namespace, name string) (*T, error) {
	readCtx, cancel := context.WithTimeout(ctx, defaults.ConfigMapReadTimeout)
	defer cancel()

	cm, err := k8sClient.CoreV1().ConfigMaps(namespace).Get(readCtx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get ConfigMap %s/%s: %w", namespace, name, err)
	}

	format := FormatYAML
	if f, ok := cm.Data["format"]; ok && !Format(f).IsUnknown() && Format(f) != FormatTable {
		format = Format(f)
	}

	content, ok := cm.Data[dataKey(format)]
	if !ok {
		found := false
		for _, f := range []Format{FormatYAML, FormatJSON} {
			if content, found = cm.Data[dataKey(f)]; found {
				format = f
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("ConfigMap %s/%s has no %s data", namespace, name, ConfigMapDataKey)
		}
	}

	slog.Debug("reading from ConfigMap",
		"namespace", namespace,
		"name", name,
		"format", format,
		"size", len(content))

	reader, err := NewReader(format, strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to create reader for ConfigMap data: %w", err)
	}

	var result T
	if err := reader.Deserialize(&result); err != nil {
		return nil, fmt.Errorf("failed to deserialize ConfigMap %s/%s: %w", namespace, name, err)
	}
	return &result, nil
}

// FromOCI reads a document published as a registry artifact by OCIWriter.
// The format follows the layer media type.
func FromOCI[T any](ctx context.Context, uri string) (*T, error) {
	ref, err := oci.ParseReference(uri)
	if err != nil {
		return nil, err
	}

	art, err := oci.Pull(ctx, ref, oci.Options{})
	if err != nil {
		return nil, err
	}

	format := FormatYAML
	if art.MediaType == oci.MediaTypeJSON {
		format = FormatJSON
	}

	reader, err := NewReader(format, bytes.NewReader(art.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to create reader for artifact data: %w", err)
	}

	var result T
	if err := reader.Deserialize(&result); err != nil {
		return nil, fmt.Errorf("failed to deserialize artifact %s: %w", ref.String(), err)
	}
	return &result, nil
}

func dataKey(format Format) string {
	ext := string(format)
	if format == FormatTable {
		ext = "txt"
	}
	return ConfigMapDataKey + "." + ext
}

func kubeClient(kubeconfig string) (client.Interface, error) {
	var k8sClient client.Interface
	var err error
	if kubeconfig != "" {
		k8sClient, _, err = client.GetKubeClientWithConfig(kubeconfig)
	} else {
		k8sClient, _, err = client.GetKubeClient()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kubernetes client: %w", err)
	}
	return k8sClient, nil
}
