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
// Package client provides the Kubernetes client used to read and publish
// compatibility matrices stored in ConfigMaps.
//
// GetKubeClient returns a process-wide client initialized once with
// sync.Once. GetKubeClientWithConfig builds an uncached client for an
// explicit kubeconfig, as given by the --kubeconfig flag.
//
//	import "github.com/NVIDIA/compat-matrix/pkg/k8s/client"
//
//	clientset, _, err := client.GetKubeClient()
//	if err != nil {
//	    return err
//	}
//	cm, err := clientset.CoreV1().ConfigMaps("default").Get(ctx, "compat", metav1.GetOptions{})
//
// # Authentication
//
// The kubeconfig is resolved in order: explicit path, $KUBECONFIG,
// ~/.kube/config. When none exist the in-cluster service account is used.
//
// Failures are returned as structured errors: INVALID_REQUEST for an
// unreadable kubeconfig and SERVICE_UNAVAILABLE when no in-cluster
// configuration is present.
//
// Tests inject k8s.io/client-go/kubernetes/fake clientsets through the
// Interface alias.
package client
