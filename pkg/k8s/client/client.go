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
package client

import (
	"os"
	"path/filepath"
	"sync"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"

	"github.com/NVIDIA/compat-matrix/pkg/defaults"
	cmerrors "github.com/NVIDIA/compat-matrix/pkg/errors"
)

// UserAgent identifies matrix reads and writes in API server audit logs.
const UserAgent = "compat-matrix"

// Interface is an alias for kubernetes.Interface so fake clientsets can be
// injected in tests.
type Interface = kubernetes.Interface

var (
	clientOnce   sync.Once
	cachedClient *kubernetes.Clientset
	cachedConfig *rest.Config
	clientErr    error
)

// GetKubeClient returns the process-wide client, building it on first use
// from the discovered kubeconfig or the in-cluster service account.
func GetKubeClient() (Interface, *rest.Config, error) {
	clientOnce.Do(func() {
		cachedClient, cachedConfig, clientErr = BuildKubeClient("")
	})
	return cachedClient, cachedConfig, clientErr
}

// GetKubeClientWithConfig builds a client for an explicit kubeconfig path.
// The result is not cached.
func GetKubeClientWithConfig(kubeconfig string) (Interface, *rest.Config, error) {
	return BuildKubeClient(kubeconfig)
}

// BuildKubeClient creates a client from the given kubeconfig file. An empty
// path is resolved with ResolveKubeconfig; when that yields nothing the
// in-cluster configuration is used.
func BuildKubeClient(kubeconfig string) (*kubernetes.Clientset, *rest.Config, error) {
	config, err := restConfig(ResolveKubeconfig(kubeconfig))
	if err != nil {
		return nil, nil, err
	}

	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, nil, cmerrors.Wrap(cmerrors.ErrCodeInternal, "failed to create kubernetes client", err)
	}

	return client, config, nil
}

// ResolveKubeconfig returns the kubeconfig path to use: the explicit path,
// then $KUBECONFIG, then ~/.kube/config if it exists. It returns "" when
// none apply.
func ResolveKubeconfig(kubeconfig string) string {
	if kubeconfig != "" {
		return kubeconfig
	}
	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env
	}
	home := homedir.HomeDir()
	if home == "" {
		return ""
	}
	path := filepath.Join(home, ".kube", "config")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func restConfig(kubeconfig string) (*rest.Config, error) {
	var config *rest.Config
	var err error

	// InClusterConfig directly avoids the "Neither --kubeconfig nor --master" warning.
	if kubeconfig == "" {
		config, err = rest.InClusterConfig()
		if err != nil {
			return nil, cmerrors.Wrap(cmerrors.ErrCodeUnavailable, "failed to get in-cluster config", err)
		}
	} else {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, cmerrors.WrapWithContext(cmerrors.ErrCodeInvalidRequest,
				"failed to build kube config", err, map[string]any{"kubeconfig": kubeconfig})
		}
	}

	config.UserAgent = UserAgent
	config.Timeout = defaults.ConfigMapReadTimeout
	return config, nil
}
