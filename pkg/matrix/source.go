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

package matrix

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/NVIDIA/compat-matrix/pkg/defaults"
	cmerrors "github.com/NVIDIA/compat-matrix/pkg/errors"
	"github.com/NVIDIA/compat-matrix/pkg/oci"
	"github.com/NVIDIA/compat-matrix/pkg/serializer"
)

// Load reads a raw mapping from a local file, an HTTP(S) URL, a ConfigMap
// URI (cm://namespace/name) or a registry artifact (oci://registry/repo:tag).
// The document may be a bare mapping or a CompatibilityMatrix document.
// Entries are not validated.
func Load(ctx context.Context, source, kubeconfig string) (Mapping, error) {
	if strings.TrimSpace(source) == "" {
		return nil, cmerrors.New(cmerrors.ErrCodeMissingParameter, "matrix source is required")
	}

	loadCtx, cancel := context.WithTimeout(ctx, defaults.MatrixLoadTimeout)
	defer cancel()

	m, err := serializer.FromFileWithKubeconfig[Mapping](loadCtx, source, kubeconfig)
	if err != nil {
		if cmerrors.CodeOf(err) != "" {
			return nil, err
		}
		var code cmerrors.ErrorCode
		switch {
		case errors.Is(err, fs.ErrNotExist):
			code = cmerrors.ErrCodeNotFound
		case IsLocalSource(source):
			code = cmerrors.ErrCodeInvalidRequest
		default:
			code = cmerrors.ErrCodeUnavailable
		}
		return nil, cmerrors.WrapWithContext(code, "failed to load matrix", err,
			map[string]any{"source": source})
	}
	if m == nil || *m == nil {
		return nil, missingMatrix()
	}

	slog.Debug("matrix loaded", "source", source, "entries", len(*m))
	return *m, nil
}

// LoadMatrix loads source and builds a validated CompatibilityMatrix from it.
func LoadMatrix(ctx context.Context, source, kubeconfig string) (*CompatibilityMatrix, error) {
	raw, err := Load(ctx, source, kubeconfig)
	if err != nil {
		return nil, err
	}
	return New(raw)
}

// IsLocalSource reports whether source names a file on the local filesystem
// rather than a URL, ConfigMap or registry artifact.
func IsLocalSource(source string) bool {
	s := strings.TrimSpace(source)
	return s != "" &&
		!strings.HasPrefix(s, "http://") &&
		!strings.HasPrefix(s, "https://") &&
		!strings.HasPrefix(s, serializer.ConfigMapURIScheme) &&
		!oci.IsURI(s)
}
