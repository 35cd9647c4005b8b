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

// Package api runs the compatibility matrix HTTP service.
//
// This package is a thin wrapper around pkg/server. It loads the matrix,
// registers the pkg/matrix handlers and optionally watches the matrix file
// for changes.
//
// # Usage
//
//	func main() {
//	    if err := api.Serve(); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Endpoints
//
// Application endpoints (rate limited):
//   - GET /v1/versions                 - primary versions in insertion order
//   - GET /v1/compatible?version=X     - primary versions compatible with X, highest first
//   - GET /v1/recommended?version=X    - highest compatible primary version, or null
//   - GET /v1/matrix                   - the normalized matrix
//   - PUT /v1/matrix                   - replace the matrix (JSON or YAML body)
//
// System endpoints:
//   - GET /health  - liveness
//   - GET /ready   - readiness
//   - GET /metrics - Prometheus metrics
//
// Example:
//
//	curl "http://localhost:8080/v1/recommended?version=1.6.4"
//
// # Configuration
//
// The server is configured through environment variables:
//   - MATRIX_SOURCE: file path, http(s) URL, cm://namespace/name or oci:// reference (required)
//   - MATRIX_WATCH: reload a local matrix file when it changes (default: false)
//   - MATRIX_READ_ONLY: reject PUT /v1/matrix (default: false)
//   - MATRIX_CACHE_TTL: max-age advertised on query responses, as a duration (default: 30s)
//   - KUBECONFIG: kubeconfig used for ConfigMap sources
//   - PORT: HTTP server port (default: 8080)
//   - LOG_LEVEL: logging level (debug, info, warn, error)
//
// Version information is set at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/NVIDIA/compat-matrix/pkg/api.version=1.0.0'"
package api
