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
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	accorev1 "k8s.io/client-go/applyconfigurations/core/v1"

	"github.com/NVIDIA/compat-matrix/pkg/defaults"
	"github.com/NVIDIA/compat-matrix/pkg/header"
	"github.com/NVIDIA/compat-matrix/pkg/k8s/client"
)

const (
	// ConfigMapURIScheme is the URI prefix addressing a ConfigMap as cm://namespace/name.
	ConfigMapURIScheme = "cm://"

	configMapFieldManager = "compatctl"
)

// ConfigMapWriter writes serialized data to a Kubernetes ConfigMap using
// server-side apply, creating it if needed.
type ConfigMapWriter struct {
	namespace string
	name      string
	format    Format
	client    client.Interface
}

// NewConfigMapWriter creates a ConfigMapWriter that uses the default
// Kubernetes client discovery.
func NewConfigMapWriter(namespace, name string, format Format) *ConfigMapWriter {
	return NewConfigMapWriterWithClient(nil, namespace, name, format)
}

// NewConfigMapWriterWithClient creates a ConfigMapWriter bound to the given
// client. A nil client falls back to default discovery on first write.
func NewConfigMapWriterWithClient(c client.Interface, namespace, name string, format Format) *ConfigMapWriter {
	return &ConfigMapWriter{
		namespace: namespace,
		name:      name,
		format:    normalizeFormat(format),
		client:    c,
	}
}

// Serialize writes data to the ConfigMap. The ConfigMap will have:
//   - data.matrix.{yaml|json|txt}: the serialized content
//   - data.format: the format used
//   - data.timestamp: RFC 3339 timestamp taken from the document header when present
func (w *ConfigMapWriter) Serialize(ctx context.Context, data any) error {
	writeCtx, cancel := context.WithTimeout(ctx, defaults.ConfigMapWriteTimeout)
	defer cancel()

	k8sClient := w.client
	if k8sClient == nil {
		c, cfg, err := client.GetKubeClient()
		if err != nil {
			return fmt.Errorf("failed to get kubernetes client: %w", err)
		}
		k8sClient = c
		slog.Info("configmap operation",
			"namespace", w.namespace,
			"name", w.name,
			"auth_method", authMethod(cfg.AuthProvider != nil, cfg.ExecProvider != nil, cfg.BearerToken != "", cfg.CertData != nil),
			"format", w.format)
	}

	content, err := encode(w.format, data)
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}

	kind, docVersion, timestamp := "document", "unknown", time.Now().UTC().Format(time.RFC3339)
	if d, ok := data.(header.Described); ok {
		if k := d.GetKind(); k != "" {
			kind = k.String()
		}
		if v, exists := header.Version(d); exists {
			docVersion = v
		}
		if ts, exists := header.Timestamp(d); exists {
			timestamp = ts.Format(time.RFC3339)
		}
	}

	configMap := accorev1.ConfigMap(w.name, w.namespace).
		WithLabels(map[string]string{
			"app.kubernetes.io/name":      "compat-matrix",
			"app.kubernetes.io/component": strings.ToLower(kind),
			"app.kubernetes.io/version":   labelValue(docVersion),
		}).
		WithData(map[string]string{
			dataKey(w.format): string(content),
			"format":          string(w.format),
			"timestamp":       timestamp,
		})

	slog.Debug("applying ConfigMap", "namespace", w.namespace, "name", w.name, "format", w.format)

	_, err = k8sClient.CoreV1().ConfigMaps(w.namespace).Apply(
		writeCtx,
		configMap,
		metav1.ApplyOptions{
			FieldManager: configMapFieldManager,
			Force:        true,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to apply ConfigMap %s/%s: %w", w.namespace, w.name, err)
	}
	return nil
}

// Close is a no-op for ConfigMapWriter.
func (w *ConfigMapWriter) Close() error {
	return nil
}

func authMethod(authProvider, exec, bearer, cert bool) string {
	switch {
	case authProvider:
		return "auth-provider"
	case exec:
		return "exec"
	case bearer:
		return "bearer-token"
	case cert:
		return "cert"
	default:
		return "default"
	}
}

// labelValue makes s usable as a Kubernetes label value.
func labelValue(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
	if len(s) > 63 {
		s = s[:63]
	}
	return strings.Trim(s, "-_.")
}

// parseConfigMapURI parses a ConfigMap URI in the format cm://namespace/name.
func parseConfigMapURI(uri string) (namespace, name string, err error) {
	if !strings.HasPrefix(uri, ConfigMapURIScheme) {
		return "", "", fmt.Errorf("invalid ConfigMap URI: must start with %s", ConfigMapURIScheme)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, ConfigMapURIScheme), "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid ConfigMap URI format: expected %snamespace/name, got %s", ConfigMapURIScheme, uri)
	}

	namespace = strings.TrimSpace(parts[0])
	name = strings.TrimSpace(parts[1])

	if namespace == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: namespace cannot be empty")
	}
	if name == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: name cannot be empty")
	}
	return namespace, name, nil
}
