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

// Package serializer reads and writes compat-matrix documents.
//
// Reading: FromFile loads a JSON or YAML document from a local path, an
// HTTP(S) URL or a Kubernetes ConfigMap addressed as cm://namespace/name.
// Custom unmarshalers on the target type (such as matrix.Mapping) are honored,
// so key order survives decoding.
//
//	m, err := serializer.FromFile[matrix.Mapping](ctx, "https://example.com/matrix.yaml")
//
// Writing: three output formats are supported:
//   - JSON: indented, machine-readable
//   - YAML: human-readable
//   - Table: columns for values implementing Tabular, otherwise flattened FIELD/VALUE rows
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatYAML, "cm://compat/matrix")
//	if err := w.Serialize(ctx, doc); err != nil {
//		return err
//	}
//
// HTTP handlers use RespondJSON, which buffers the encoding before writing
// headers so a failed encode never produces a partial response.
package serializer
