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

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/compat-matrix/pkg/defaults"
	"github.com/NVIDIA/compat-matrix/pkg/matrix"
)

const testMatrix = `1.0.1: 1.5.2-R0.1
1.0.2-beta: ">1.5.2-R0.2 <1.6.5"
1.0.3: ">=1.6.0-0 <1.7.0-0"
1.0.4: 1.7.x
`

func writeMatrix(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matrix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testMatrix), 0o600))
	return path
}

func TestConstants(t *testing.T) {
	assert.Equal(t, "compatd", name)
	assert.Equal(t, "dev", versionDefault)
	assert.NotEmpty(t, version)
	assert.NotEmpty(t, commit)
	assert.NotEmpty(t, date)
}

func TestConfigFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    *Config
		wantErr string
	}{
		{
			name: "defaults",
			env:  map[string]string{EnvMatrixSource: "matrix.yaml"},
			want: &Config{Source: "matrix.yaml", CacheTTL: defaults.MatrixCacheTTL},
		},
		{
			name: "all set",
			env: map[string]string{
				EnvMatrixSource:   " /etc/compat/matrix.yaml ",
				EnvMatrixWatch:    "true",
				EnvMatrixReadOnly: "1",
				EnvMatrixCacheTTL: "2m",
				EnvKubeconfig:     "/root/.kube/config",
			},
			want: &Config{
				Source:     "/etc/compat/matrix.yaml",
				Kubeconfig: "/root/.kube/config",
				Watch:      true,
				ReadOnly:   true,
				CacheTTL:   2 * time.Minute,
			},
		},
		{
			name: "cache disabled",
			env:  map[string]string{EnvMatrixSource: "matrix.yaml", EnvMatrixCacheTTL: "0s"},
			want: &Config{Source: "matrix.yaml"},
		},
		{
			name:    "invalid cache ttl",
			env:     map[string]string{EnvMatrixSource: "matrix.yaml", EnvMatrixCacheTTL: "soon"},
			wantErr: EnvMatrixCacheTTL,
		},
		{
			name:    "negative cache ttl",
			env:     map[string]string{EnvMatrixSource: "matrix.yaml", EnvMatrixCacheTTL: "-1s"},
			wantErr: EnvMatrixCacheTTL,
		},
		{
			name:    "missing source",
			env:     map[string]string{},
			wantErr: EnvMatrixSource,
		},
		{
			name:    "invalid watch",
			env:     map[string]string{EnvMatrixSource: "matrix.yaml", EnvMatrixWatch: "sometimes"},
			wantErr: EnvMatrixWatch,
		},
		{
			name:    "watch remote source",
			env:     map[string]string{EnvMatrixSource: "cm://compat/matrix", EnvMatrixWatch: "true"},
			wantErr: "requires a local file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{EnvMatrixSource, EnvMatrixWatch, EnvMatrixReadOnly, EnvMatrixCacheTTL, EnvKubeconfig} {
				t.Setenv(key, tt.env[key])
			}

			cfg, err := ConfigFromEnv()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestNewServer(t *testing.T) {
	s, background, err := newServer(context.Background(), &Config{Source: writeMatrix(t)})
	require.NoError(t, err)
	assert.Empty(t, background)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + matrix.RouteCompatible + "?version=1.6.4")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc matrix.CompatibilityResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, []string{"1.0.3", "1.0.2-beta"}, doc.Compatible)
	assert.Equal(t, version, doc.Metadata["version"])

	health, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestNewServerCacheTTL(t *testing.T) {
	s, _, err := newServer(context.Background(), &Config{Source: writeMatrix(t), CacheTTL: 2 * time.Minute})
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + matrix.RouteVersions)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "public, max-age=120", resp.Header.Get("Cache-Control"))
}

func TestNewServerReadOnly(t *testing.T) {
	s, _, err := newServer(context.Background(), &Config{Source: writeMatrix(t), ReadOnly: true})
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	req, err := http.NewRequest(http.MethodPut, ts.URL+matrix.RouteMatrix, strings.NewReader(`{"2.0.0":"2.x"}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestNewServerWatch(t *testing.T) {
	_, background, err := newServer(context.Background(), &Config{Source: writeMatrix(t), Watch: true})
	require.NoError(t, err)
	assert.Len(t, background, 1)
}

func TestNewServerLoadError(t *testing.T) {
	_, _, err := newServer(context.Background(), &Config{Source: filepath.Join(t.TempDir(), "absent.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load matrix")
}
