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

// Package matrix maps primary versions to the semantic version ranges of a
// secondary component they support, and answers which primary versions fit
// a given secondary version.
//
// # Matrix
//
// A CompatibilityMatrix is built from an ordered Mapping. Keys are cleaned
// with version.Clean and values normalized with version.ValidRange:
//
//	m, err := matrix.New(matrix.Mapping{
//	    {Version: "1.0.3", Range: "1.6.x"},
//	    {Version: "1.0.2-beta", Range: ">1.5.2-R0.2 <1.6.5"},
//	})
//	m.All()                  // ["1.0.3", "1.0.2-beta"]
//	m.CompatibleWith("1.6.4") // ["1.0.3", "1.0.2-beta"]
//	m.RecommendedFor("1.6.4") // "1.0.3", true
//
// Replacement with SetCompatibilityMatrix is all or nothing: a mapping with
// any invalid key or range is rejected and the previous matrix keeps serving.
// Readers never block and always observe one complete matrix.
//
// # Errors
//
// Validation fails with a pkg/errors StructuredError:
//
//   - MISSING_PARAMETER when no mapping is given
//   - INVALID_MATRIX_TYPE when the input is not a key/value mapping
//   - INVALID_VERSION when a key is not a semantic version
//   - INVALID_RANGE when a value is not a range
//
// Queries never fail; a malformed secondary version matches nothing.
//
// # Sources
//
// Load reads a Mapping from a file, an HTTP(S) URL or a ConfigMap
// (cm://namespace/name). JSON and YAML objects keep their key order. A
// CompatibilityMatrix document, as written by compatctl validate, is read
// as its matrix field. Watcher reloads a local file when it changes.
//
// # HTTP
//
// Handler exposes the queries:
//
//	GET /v1/versions
//	GET /v1/compatible?version=1.6.4
//	GET /v1/recommended?version=1.6.4
//	GET /v1/matrix
//	PUT /v1/matrix
package matrix
