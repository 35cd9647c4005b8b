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

// Package server provides the HTTP server shared by the compat-matrix API.
//
// It owns the listener, the middleware chain, health probes and Prometheus
// metrics. Domain handlers are supplied by the caller:
//
//	s := server.New(
//	    server.WithName("compatd"),
//	    server.WithVersion(version),
//	    server.WithHandler(map[string]http.HandlerFunc{
//	        "/v1/versions": h.HandleVersions,
//	    }),
//	)
//	if err := s.Run(ctx); err != nil {
//	    return err
//	}
//
// # Middleware
//
// Every handler passed with WithHandler is wrapped, outermost first, with:
//
//   - metrics: compat_http_requests_total, compat_http_request_duration_seconds
//     and compat_http_requests_in_flight, labeled by route pattern
//   - version negotiation from Accept: application/vnd.nvidia.compat.v1+json,
//     echoed in X-API-Version
//   - request IDs: X-Request-Id is accepted when it is a UUID, generated otherwise
//   - panic recovery, returning 500 INTERNAL
//   - token bucket rate limiting (golang.org/x/time/rate), returning 429 with
//     Retry-After and X-RateLimit-* headers
//   - debug request logging
//
// /health, /ready and /metrics are served without middleware.
//
// # Errors
//
// Errors share one JSON shape:
//
//	{
//	  "code": "INVALID_RANGE",
//	  "message": "\"1.2.3.4\" is not a valid semantic version range",
//	  "details": {"range": "1.2.3.4"},
//	  "requestId": "550e8400-e29b-41d4-a716-446655440000",
//	  "timestamp": "2025-12-22T12:00:00Z",
//	  "retryable": false
//	}
//
// WriteErrorFromErr maps pkg/errors codes to HTTP status codes; matrix
// validation codes map to 400.
//
// # Configuration
//
// PORT and SHUTDOWN_TIMEOUT_SECONDS override the defaults from NewConfig.
// Run cancels on SIGINT or SIGTERM and drains in-flight requests for up to
// the shutdown timeout.
package server
