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
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/NVIDIA/compat-matrix/pkg/defaults"
	cmerrors "github.com/NVIDIA/compat-matrix/pkg/errors"
)

// RespondJSON writes data as a JSON response with the given status code.
// The body is encoded before any header is written so an encoding failure
// yields a clean 500 instead of a truncated response.
func RespondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")

	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		slog.Error("json encoding failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(statusCode)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// connection is gone
		slog.Warn("response write failed", "error", err)
	}
}

const (
	// HTTPReaderUserAgent is sent with every remote matrix request.
	HTTPReaderUserAgent = "compat-matrix"

	// HTTPReaderMaxBodyBytes caps the size of a remote matrix document.
	HTTPReaderMaxBodyBytes int64 = 8 * defaults.MatrixMaxBodyBytes

	httpReaderAccept = "application/json, application/yaml;q=0.9, text/yaml;q=0.9, */*;q=0.1"
)

// HTTPReaderOption configures an HTTPReader.
type HTTPReaderOption func(*HTTPReader)

// HTTPReader fetches matrix documents over HTTP(S).
type HTTPReader struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) HTTPReaderOption {
	return func(r *HTTPReader) {
		if userAgent != "" {
			r.userAgent = userAgent
		}
	}
}

// WithTimeout sets the total time allowed for a request including the body.
func WithTimeout(timeout time.Duration) HTTPReaderOption {
	return func(r *HTTPReader) {
		if timeout > 0 {
			r.client.Timeout = timeout
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification. It has no
// effect when a client supplied through WithClient does not use an
// *http.Transport.
func WithInsecureSkipVerify(skip bool) HTTPReaderOption {
	return func(r *HTTPReader) {
		tr, ok := r.client.Transport.(*http.Transport)
		if !ok {
			return
		}
		if tr.TLSClientConfig == nil {
			tr.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		tr.TLSClientConfig.InsecureSkipVerify = skip //nolint:gosec // opt-in for private mirrors
	}
}

// WithMaxBodyBytes overrides the response size limit.
func WithMaxBodyBytes(n int64) HTTPReaderOption {
	return func(r *HTTPReader) {
		if n > 0 {
			r.maxBodyBytes = n
		}
	}
}

// WithClient replaces the HTTP client. Options applied after it modify the
// supplied client.
func WithClient(client *http.Client) HTTPReaderOption {
	return func(r *HTTPReader) {
		if client != nil {
			r.client = client
		}
	}
}

// NewHTTPReader returns a reader using a pooled transport with the default
// timeouts.
func NewHTTPReader(opts ...HTTPReaderOption) *HTTPReader {
	r := &HTTPReader{
		client: &http.Client{
			Timeout:   defaults.HTTPClientTimeout,
			Transport: newHTTPTransport(),
		},
		userAgent:    HTTPReaderUserAgent,
		maxBodyBytes: HTTPReaderMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		DialContext: (&net.Dialer{
			Timeout:   defaults.HTTPConnectTimeout,
			KeepAlive: defaults.HTTPKeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   defaults.HTTPTLSHandshakeTimeout,
		ResponseHeaderTimeout: defaults.HTTPResponseHeaderTimeout,
		ExpectContinueTimeout: defaults.HTTPExpectContinueTimeout,
		IdleConnTimeout:       defaults.HTTPIdleConnTimeout,
		ForceAttemptHTTP2:     true,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// Read fetches url and returns the response body. Failures are structured
// errors: NOT_FOUND for 404, UNAUTHORIZED for 401 and 403, TIMEOUT when the
// deadline passes, INVALID_REQUEST for an oversized body and
// SERVICE_UNAVAILABLE otherwise.
func (r *HTTPReader) Read(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, cmerrors.New(cmerrors.ErrCodeMissingParameter, "url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, cmerrors.WrapWithContext(cmerrors.ErrCodeInvalidRequest,
			"invalid matrix url", err, map[string]any{"url": url})
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", httpReaderAccept)

	resp, err := r.client.Do(req)
	if err != nil {
		code := cmerrors.ErrCodeUnavailable
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			code = cmerrors.ErrCodeTimeout
		}
		return nil, cmerrors.WrapWithContext(code, "matrix request failed", err, map[string]any{"url": url})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, cmerrors.NewWithContext(statusCode(resp.StatusCode),
			"unexpected response status", map[string]any{"url": url, "status": resp.StatusCode})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBodyBytes+1))
	if err != nil {
		return nil, cmerrors.WrapWithContext(cmerrors.ErrCodeUnavailable,
			"failed to read response body", err, map[string]any{"url": url})
	}
	if int64(len(data)) > r.maxBodyBytes {
		return nil, cmerrors.NewWithContext(cmerrors.ErrCodeInvalidRequest,
			"response body too large", map[string]any{"url": url, "limit": r.maxBodyBytes})
	}

	return data, nil
}

func statusCode(status int) cmerrors.ErrorCode {
	switch status {
	case http.StatusNotFound, http.StatusGone:
		return cmerrors.ErrCodeNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return cmerrors.ErrCodeUnauthorized
	case http.StatusTooManyRequests:
		return cmerrors.ErrCodeRateLimitExceeded
	default:
		return cmerrors.ErrCodeUnavailable
	}
}
