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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmerrors "github.com/NVIDIA/compat-matrix/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		want    []string
	}{
		{"json", "m.json", `{"1.0.1":"1.5.x","1.0.0":"1.4.x"}`, []string{"1.0.1", "1.0.0"}},
		{"yaml", "m.yaml", "1.0.1: 1.5.x\n1.0.0: 1.4.x\n", []string{"1.0.1", "1.0.0"}},
		{"unknown extension reads yaml", "matrix", "1.0.1: 1.5.x\n", []string{"1.0.1"}},
		{"document", "doc.yaml", "kind: CompatibilityMatrix\napiVersion: compat.nvidia.com/v1alpha1\nmatrix:\n  2.0.0: 2.x\n", []string{"2.0.0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			m, err := Load(context.Background(), path, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Keys())
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		source string
		code   cmerrors.ErrorCode
	}{
		{"empty source", "  ", cmerrors.ErrCodeMissingParameter},
		{"missing file", filepath.Join(dir, "absent.yaml"), cmerrors.ErrCodeNotFound},
		{"empty file", writeFile(t, dir, "empty.yaml", ""), cmerrors.ErrCodeMissingParameter},
		{"not a mapping", writeFile(t, dir, "list.yaml", "- 1.0.0\n"), cmerrors.ErrCodeInvalidMatrixType},
		{"malformed json", writeFile(t, dir, "bad.json", "{"), cmerrors.ErrCodeInvalidRequest},
		{"bad configmap uri", "cm://only-namespace", cmerrors.ErrCodeUnavailable},
		{"bad oci reference", "oci://ghcr.io/UPPER/case", cmerrors.ErrCodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), tt.source, "")
			require.Error(t, err)
			assert.Equal(t, tt.code, cmerrors.CodeOf(err), err.Error())
		})
	}
}

func TestLoadURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/matrix.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"1.0.3":">=1.6.0-0 <1.7.0-0"}`))
	}))
	t.Cleanup(ts.Close)

	m, err := LoadMatrix(context.Background(), ts.URL+"/matrix.json", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.3"}, m.CompatibleWith("1.6.4"))

	_, err = Load(context.Background(), ts.URL+"/missing.json", "")
	require.Error(t, err)
	assert.Equal(t, cmerrors.ErrCodeNotFound, cmerrors.CodeOf(err))
}

func TestLoadMatrixValidates(t *testing.T) {
	path := writeFile(t, t.TempDir(), "m.yaml", "1.0: 1.x\n")
	_, err := LoadMatrix(context.Background(), path, "")
	require.Error(t, err)
	assert.True(t, cmerrors.IsCode(err, cmerrors.ErrCodeInvalidVersion))
}

func TestIsLocalSource(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"matrix.yaml", true},
		{"/etc/compat/matrix.json", true},
		{"http://example.com/m.yaml", false},
		{"https://example.com/m.yaml", false},
		{"cm://compat/matrix", false},
		{"oci://ghcr.io/nvidia/matrix:v1", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLocalSource(tt.source))
		})
	}
}
