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
	"context"
	"fmt"
	"log/slog"
	"time"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/NVIDIA/compat-matrix/pkg/header"
	"github.com/NVIDIA/compat-matrix/pkg/oci"
)

// OCIWriter publishes serialized data as a single-file registry artifact.
type OCIWriter struct {
	ref    *oci.Reference
	format Format
	opts   oci.Options
	push   func(ctx context.Context, ref *oci.Reference, filename string, data []byte, opts oci.Options) (*oci.PushResult, error)
}

// NewOCIWriter creates an OCIWriter for ref. Table output is not supported
// and falls back to YAML.
func NewOCIWriter(ref *oci.Reference, format Format, opts oci.Options) *OCIWriter {
	format = normalizeFormat(format)
	if format == FormatTable {
		format = FormatYAML
	}
	return &OCIWriter{
		ref:    ref,
		format: format,
		opts:   opts,
		push:   oci.Push,
	}
}

// Serialize encodes data and pushes it as <matrix>.<format>. Documents with a
// header get their kind and version recorded as manifest annotations.
func (w *OCIWriter) Serialize(ctx context.Context, data any) error {
	content, err := encode(w.format, data)
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}

	annotations := make(map[string]string, len(w.opts.Annotations)+2)
	for k, v := range w.opts.Annotations {
		annotations[k] = v
	}
	if d, ok := data.(header.Described); ok {
		if k := d.GetKind(); k != "" {
			annotations[ociv1.AnnotationTitle] = k.String()
		}
		if v, exists := header.Version(d); exists {
			annotations[ociv1.AnnotationVersion] = v
		}
		if ts, exists := header.Timestamp(d); exists {
			annotations[ociv1.AnnotationCreated] = ts.Format(time.RFC3339)
		}
	}

	opts := w.opts
	opts.Annotations = annotations

	res, err := w.push(ctx, w.ref, ConfigMapDataKey+"."+string(w.format), content, opts)
	if err != nil {
		return err
	}
	slog.Info("published artifact", "reference", res.Reference, "digest", res.Digest)
	return nil
}

// Close is a no-op for OCIWriter.
func (w *OCIWriter) Close() error {
	return nil
}
