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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/NVIDIA/compat-matrix/pkg/defaults"
	cmerrors "github.com/NVIDIA/compat-matrix/pkg/errors"
	"github.com/NVIDIA/compat-matrix/pkg/serializer"
	"github.com/NVIDIA/compat-matrix/pkg/server"
)

// API routes served by Handler.
const (
	RouteVersions    = "/v1/versions"
	RouteCompatible  = "/v1/compatible"
	RouteRecommended = "/v1/recommended"
	RouteMatrix      = "/v1/matrix"

	// QueryVersion is the query parameter carrying the secondary version.
	QueryVersion = "version"
)

// Handler serves matrix queries over HTTP.
type Handler struct {
	matrix   *CompatibilityMatrix
	version  string
	readOnly bool
	cacheTTL time.Duration
	timeout  time.Duration
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerVersion sets the tool version stamped into response metadata.
func WithHandlerVersion(v string) HandlerOption {
	return func(h *Handler) {
		h.version = v
	}
}

// WithReadOnly rejects PUT /v1/matrix.
func WithReadOnly(readOnly bool) HandlerOption {
	return func(h *Handler) {
		h.readOnly = readOnly
	}
}

// WithCacheTTL sets the max-age advertised on query responses.
func WithCacheTTL(ttl time.Duration) HandlerOption {
	return func(h *Handler) {
		h.cacheTTL = ttl
	}
}

// NewHandler returns a Handler serving m.
func NewHandler(m *CompatibilityMatrix, opts ...HandlerOption) *Handler {
	h := &Handler{
		matrix:   m,
		cacheTTL: defaults.MatrixCacheTTL,
		timeout:  defaults.MatrixHandlerTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the handlers keyed by route, each bounded by the handler
// timeout.
func (h *Handler) Routes() map[string]http.HandlerFunc {
	routes := map[string]http.HandlerFunc{
		RouteVersions:    h.HandleVersions,
		RouteCompatible:  h.HandleCompatible,
		RouteRecommended: h.HandleRecommended,
		RouteMatrix:      h.HandleMatrix,
	}
	for route, fn := range routes {
		routes[route] = http.TimeoutHandler(fn, h.timeout, "request timed out").ServeHTTP
	}
	return routes
}

// HandleVersions serves GET /v1/versions.
func (h *Handler) HandleVersions(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	h.respond(w, NewVersionList(h.matrix.All(), h.version))
}

// HandleCompatible serves GET /v1/compatible?version=X.
func (h *Handler) HandleCompatible(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	secondary, ok := requireVersion(w, r)
	if !ok {
		return
	}
	h.respond(w, NewCompatibilityResult(secondary, h.matrix.CompatibleWith(secondary), h.version))
}

// HandleRecommended serves GET /v1/recommended?version=X. The recommended
// field is null when no primary version is compatible.
func (h *Handler) HandleRecommended(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	secondary, ok := requireVersion(w, r)
	if !ok {
		return
	}
	recommended, found := h.matrix.RecommendedFor(secondary)
	h.respond(w, NewRecommendation(secondary, recommended, found, h.version))
}

// HandleMatrix serves GET /v1/matrix and, unless read-only, PUT /v1/matrix
// with a JSON or YAML mapping body.
func (h *Handler) HandleMatrix(w http.ResponseWriter, r *http.Request) {
	methods := []string{http.MethodGet}
	if !h.readOnly {
		methods = append(methods, http.MethodPut)
	}
	if !allowMethods(w, r, methods...) {
		return
	}

	if r.Method == http.MethodGet {
		h.respond(w, NewMatrixDocument(h.matrix.Entries(), h.version))
		return
	}

	body := http.MaxBytesReader(w, r.Body, defaults.MatrixMaxBodyBytes)
	defer body.Close()

	raw, err := Decode(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			server.WriteError(w, r, http.StatusRequestEntityTooLarge, cmerrors.ErrCodeInvalidRequest,
				"Matrix body too large", false, map[string]any{"limit": tooLarge.Limit})
			return
		}
		server.WriteErrorFromErr(w, r, err, "Failed to decode matrix", nil)
		return
	}

	published, err := h.matrix.replace(raw)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to replace matrix", nil)
		return
	}

	slog.Info("matrix replaced over http",
		"entries", len(published),
		"requestID", server.RequestIDFromContext(r.Context()))

	w.Header().Set("Cache-Control", "no-store")
	serializer.RespondJSON(w, http.StatusOK, NewMatrixDocument(published, h.version))
}

func (h *Handler) respond(w http.ResponseWriter, doc any) {
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.cacheTTL.Seconds())))
	serializer.RespondJSON(w, http.StatusOK, doc)
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	server.WriteError(w, r, http.StatusMethodNotAllowed, cmerrors.ErrCodeMethodNotAllowed,
		"Method not allowed", false, map[string]any{
			"method":  r.Method,
			"allowed": methods,
		})
	return false
}

func requireVersion(w http.ResponseWriter, r *http.Request) (string, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(QueryVersion))
	if v == "" {
		server.WriteError(w, r, http.StatusBadRequest, cmerrors.ErrCodeMissingParameter,
			"Query parameter 'version' is required", false, map[string]any{"parameter": QueryVersion})
		return "", false
	}
	return v, true
}
