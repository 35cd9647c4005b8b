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

// Package cli implements the compatctl command-line tool.
//
// # Overview
//
// compatctl loads a compatibility matrix, which maps primary versions to the
// range of secondary versions each supports, and answers queries against it.
// It is meant for release engineers and CI pipelines that gate an upgrade on a
// supported version pairing.
//
// # Commands
//
// versions - List the primary versions in declaration order:
//
//	compatctl versions -m matrix.yaml
//
// compatible - List the primary versions compatible with a secondary version:
//
//	compatctl compatible -m matrix.yaml --version 1.6.4
//
// recommend - Print the highest compatible primary version:
//
//	compatctl recommend -m matrix.yaml --version 1.6.4 --fail-on-none
//
// validate - Validate a matrix and print its normalized form:
//
//	compatctl validate -m matrix.yaml -o cm://compat/matrix
//
// range - Normalize a range, optionally checking a version against it:
//
//	compatctl range "1.7.x" --version 1.7.3
//
// # Common Flags
//
//	--matrix, -m      Matrix source: file, HTTP/HTTPS URL or cm://namespace/name (env: MATRIX_SOURCE)
//	--kubeconfig, -k  Kubeconfig for ConfigMap sources and outputs (env: KUBECONFIG)
//	--output, -o      Output file path or ConfigMap URI (default: stdout)
//	--format, -t      Output format: yaml, json, table (default: yaml)
//	--debug           Enable debug logging
//	--log-level       Log level: debug, info, warn, error (default: warn)
//
// # Exit Codes
//
//	0  Success
//	1  General error (invalid input, load failure, --fail-on-none without a match)
//	2  Interrupted
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/NVIDIA/compat-matrix/pkg/cli.version=1.0.0'"
package cli
