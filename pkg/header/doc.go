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

// Package header provides the common document header for compat-matrix output.
//
// Every document written by compatctl or served by compatd carries
// Kubernetes-style kind, apiVersion and metadata fields:
//
//	apiVersion: compat.nvidia.com/v1alpha1
//	kind: CompatibilityResult
//	metadata:
//	  timestamp: "2025-12-30T10:30:00Z"
//	  version: v1.0.0
//
// Documents embed Header inline and initialize it in place:
//
//	var doc struct {
//	    header.Header `json:",inline" yaml:",inline"`
//	}
//	doc.Init(header.KindCompatibilityMatrix, header.DefaultAPIVersion, version)
//
// Writers that publish documents read the kind and tool version back through
// the Described interface.
package header
