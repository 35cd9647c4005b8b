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
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmerrors "github.com/NVIDIA/compat-matrix/pkg/errors"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name   string
		status int
		data   any
		want   string
	}{
		{"object", http.StatusOK, map[string]any{"compatible": []string{"1.0.3"}}, `{"compatible":["1.0.3"]}`},
		{"null recommendation", http.StatusOK, map[string]any{"recommended": nil}, `{"recommended":null}`},
		{"range not html escaped", http.StatusBadRequest, map[string]string{"range": ">=1.6.0 <1.7.0"}, `{"range":">=1.6.0 <1.7.0"}`},
		{"empty", http.StatusCreated, struct{}{}, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RespondJSON(w, tt.status, tt.data)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, tt.want, strings.TrimSpace(w.Body.String()))
		})
	}
}

func TestRespondJSON_EncodingError(t *testing.T) {
	w := httptest.NewRecorder()
	RespondJSON(w, http.StatusOK, make(chan int))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Body.String())
}

func TestNewHTTPReader(t *testing.T) {
	r := NewHTTPReader()
	assert.Equal(t, HTTPReaderUserAgent, r.userAgent)
	assert.Equal(t, HTTPReaderMaxBodyBytes, r.maxBodyBytes)
	require.NotNil(t, r.client)
	assert.NotZero(t, r.client.Timeout)

	tr, ok := r.client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, uint16(tls.VersionTLS12), tr.TLSClientConfig.MinVersion)
	assert.False(t, tr.TLSClientConfig.InsecureSkipVerify)
}

func TestNewHTTPReader_Options(t *testing.T) {
	r := NewHTTPReader(
		WithUserAgent("compatctl/test"),
		WithTimeout(3*time.Second),
		WithMaxBodyBytes(10),
		WithInsecureSkipVerify(true),
	)
	assert.Equal(t, "compatctl/test", r.userAgent)
	assert.Equal(t, 3*time.Second, r.client.Timeout)
	assert.Equal(t, int64(10), r.maxBodyBytes)
	assert.True(t, r.client.Transport.(*http.Transport).TLSClientConfig.InsecureSkipVerify)

	// zero values keep the defaults
	r = NewHTTPReader(WithUserAgent(""), WithTimeout(0), WithMaxBodyBytes(0), WithClient(nil))
	assert.Equal(t, HTTPReaderUserAgent, r.userAgent)
	assert.Equal(t, HTTPReaderMaxBodyBytes, r.maxBodyBytes)
	assert.NotNil(t, r.client)
}

func TestNewHTTPReader_WithClient(t *testing.T) {
	custom := &http.Client{Timeout: time.Second}
	r := NewHTTPReader(WithClient(custom), WithInsecureSkipVerify(true))
	assert.Same(t, custom, r.client)
	assert.Nil(t, custom.Transport)
}

func TestHTTPReader_Read(t *testing.T) {
	const body = `{"1.0.3":">=1.6.0-0 <1.7.0-0"}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/matrix.json":
			assert.Equal(t, HTTPReaderUserAgent, r.UserAgent())
			assert.Contains(t, r.Header.Get("Accept"), "application/json")
			_, _ = w.Write([]byte(body))
		case "/private":
			w.WriteHeader(http.StatusForbidden)
		case "/limited":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/broken":
			w.WriteHeader(http.StatusBadGateway)
		case "/large":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)

	tests := []struct {
		name     string
		url      string
		opts     []HTTPReaderOption
		want     string
		wantCode cmerrors.ErrorCode
	}{
		{name: "ok", url: ts.URL + "/matrix.json", want: body},
		{name: "empty url", url: "", wantCode: cmerrors.ErrCodeMissingParameter},
		{name: "invalid url", url: "http://[::1", wantCode: cmerrors.ErrCodeInvalidRequest},
		{name: "not found", url: ts.URL + "/missing", wantCode: cmerrors.ErrCodeNotFound},
		{name: "forbidden", url: ts.URL + "/private", wantCode: cmerrors.ErrCodeUnauthorized},
		{name: "rate limited", url: ts.URL + "/limited", wantCode: cmerrors.ErrCodeRateLimitExceeded},
		{name: "server error", url: ts.URL + "/broken", wantCode: cmerrors.ErrCodeUnavailable},
		{name: "oversized", url: ts.URL + "/large", opts: []HTTPReaderOption{WithMaxBodyBytes(16)}, wantCode: cmerrors.ErrCodeInvalidRequest},
		{name: "connection refused", url: "http://127.0.0.1:1/matrix.json", wantCode: cmerrors.ErrCodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := NewHTTPReader(tt.opts...).Read(context.Background(), tt.url)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, cmerrors.CodeOf(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))

			var m map[string]string
			require.NoError(t, json.Unmarshal(data, &m))
		})
	}
}

func TestHTTPReader_Read_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		ts.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPReader().Read(ctx, ts.URL)
	require.Error(t, err)
	assert.Equal(t, cmerrors.ErrCodeTimeout, cmerrors.CodeOf(err))
}

func TestHTTPReader_Read_Canceled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}))
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPReader().Read(ctx, ts.URL)
	require.Error(t, err)
	assert.Equal(t, cmerrors.ErrCodeUnavailable, cmerrors.CodeOf(err))
}
