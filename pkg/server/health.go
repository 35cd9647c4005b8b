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
package server

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"time"

	cmerrors "github.com/NVIDIA/compat-matrix/pkg/errors"
	"github.com/NVIDIA/compat-matrix/pkg/serializer"
)

const (
	statusHealthy  = "healthy"
	statusReady    = "ready"
	statusNotReady = "not_ready"
	checkOK        = "ok"
)

// readinessCheckTimeout bounds a single readiness probe.
const readinessCheckTimeout = 2 * time.Second

// ReadinessCheck reports whether a dependency of the server can serve
// traffic. A nil error means ready.
type ReadinessCheck func(ctx context.Context) error

// HealthResponse is the body of /health and /ready.
type HealthResponse struct {
	Status    string            `json:"status" yaml:"status"`
	Timestamp time.Time         `json:"timestamp" yaml:"timestamp"`
	Reason    string            `json:"reason,omitempty" yaml:"reason,omitempty"`
	Checks    map[string]string `json:"checks,omitempty" yaml:"checks,omitempty"`
}

// WithReadinessCheck registers a named check consulted by /ready.
func WithReadinessCheck(name string, check ReadinessCheck) Option {
	return func(s *Server) {
		if check == nil {
			return
		}
		if s.checks == nil {
			s.checks = make(map[string]ReadinessCheck)
		}
		s.checks[name] = check
	}
}

// handleHealth reports liveness. It does not consult readiness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowProbe(w, r) {
		return
	}
	serializer.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:    statusHealthy,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !allowProbe(w, r) {
		return
	}

	if !s.isReady() {
		serializer.RespondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    statusNotReady,
			Timestamp: time.Now().UTC(),
			Reason:    "service is initializing",
		})
		return
	}

	results, failed := s.runChecks(r.Context())
	if failed != "" {
		serializer.RespondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    statusNotReady,
			Timestamp: time.Now().UTC(),
			Reason:    failed + " check failed",
			Checks:    results,
		})
		return
	}

	serializer.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:    statusReady,
		Timestamp: time.Now().UTC(),
		Checks:    results,
	})
}

// runChecks runs every readiness check in name order and returns the result
// per check together with the name of the first failing one.
func (s *Server) runChecks(ctx context.Context) (map[string]string, string) {
	if len(s.checks) == 0 {
		return nil, ""
	}

	ctx, cancel := context.WithTimeout(ctx, readinessCheckTimeout)
	defer cancel()

	results := make(map[string]string, len(s.checks))
	var failed string
	for _, name := range slices.Sorted(maps.Keys(s.checks)) {
		if err := s.checks[name](ctx); err != nil {
			readinessCheckFailures.WithLabelValues(name).Inc()
			slog.Warn("readiness check failed", "check", name, "error", err)
			results[name] = err.Error()
			if failed == "" {
				failed = name
			}
			continue
		}
		results[name] = checkOK
	}
	return results, failed
}

func allowProbe(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	WriteError(w, r, http.StatusMethodNotAllowed, cmerrors.ErrCodeMethodNotAllowed,
		"Method not allowed", false, map[string]any{"method": r.Method})
	return false
}
