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

// Package oci publishes and fetches compatibility matrices as artifacts in
// OCI-compliant registries (GHCR, ECR, Docker Hub, local registries) using
// ORAS (OCI Registry As Storage).
//
// # Overview
//
// A matrix artifact is an OCI 1.1 manifest with artifact type
// "application/vnd.nvidia.compat.matrix" and a single layer holding the
// matrix document. The layer media type records the encoding:
//
//   - application/vnd.nvidia.compat.matrix.v1+yaml
//   - application/vnd.nvidia.compat.matrix.v1+json
//
// The layer title annotation carries the file name, e.g. "matrix.yaml".
//
// # Usage
//
//	ref, err := oci.ParseReference("oci://ghcr.io/nvidia/compat-matrix:v1.2.0")
//	if err != nil {
//	    return err
//	}
//
//	res, err := oci.Push(ctx, ref, "matrix.yaml", data, oci.Options{})
//
//	art, err := oci.Pull(ctx, ref, oci.Options{})
//
// References without a tag resolve to "latest".
//
// # Authentication
//
// Credentials are loaded from the standard Docker configuration
// (~/.docker/config.json) and its credential helpers.
package oci
