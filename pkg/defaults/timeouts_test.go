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

package defaults

import (
	"testing"
	"time"
)

func TestTimeoutConstants(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		minValue time.Duration
		maxValue time.Duration
	}{
		// Handler timeouts
		{"MatrixHandlerTimeout", MatrixHandlerTimeout, 1 * time.Second, 30 * time.Second},
		{"MatrixCacheTTL", MatrixCacheTTL, 0, 10 * time.Minute},

		// Server timeouts
		{"ServerReadTimeout", ServerReadTimeout, 5 * time.Second, 30 * time.Second},
		{"ServerWriteTimeout", ServerWriteTimeout, 15 * time.Second, 60 * time.Second},
		{"ServerIdleTimeout", ServerIdleTimeout, 30 * time.Second, 300 * time.Second},
		{"ServerShutdownTimeout", ServerShutdownTimeout, 10 * time.Second, 60 * time.Second},

		// HTTP client timeouts
		{"HTTPClientTimeout", HTTPClientTimeout, 10 * time.Second, 60 * time.Second},
		{"HTTPConnectTimeout", HTTPConnectTimeout, 1 * time.Second, 15 * time.Second},

		// K8s timeouts
		{"ConfigMapReadTimeout", ConfigMapReadTimeout, 5 * time.Second, 60 * time.Second},
		{"ConfigMapWriteTimeout", ConfigMapWriteTimeout, 5 * time.Second, 60 * time.Second},

		// OCI
		{"OCIOperationTimeout", OCIOperationTimeout, 10 * time.Second, 2 * time.Minute},

		// Matrix source
		{"MatrixLoadTimeout", MatrixLoadTimeout, 10 * time.Second, 2 * time.Minute},
		{"MatrixReloadDebounce", MatrixReloadDebounce, 10 * time.Millisecond, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.timeout < tt.minValue {
				t.Errorf("%s (%v) is below minimum expected value (%v)", tt.name, tt.timeout, tt.minValue)
			}
			if tt.timeout > tt.maxValue {
				t.Errorf("%s (%v) is above maximum expected value (%v)", tt.name, tt.timeout, tt.maxValue)
			}
		})
	}
}

func TestServerTimeoutRelationships(t *testing.T) {
	// Read timeout should be shorter than write timeout
	if ServerReadTimeout > ServerWriteTimeout {
		t.Errorf("ServerReadTimeout (%v) should not exceed ServerWriteTimeout (%v)",
			ServerReadTimeout, ServerWriteTimeout)
	}

	// Idle timeout should be longer than write timeout
	if ServerIdleTimeout < ServerWriteTimeout {
		t.Errorf("ServerIdleTimeout (%v) should be at least ServerWriteTimeout (%v)",
			ServerIdleTimeout, ServerWriteTimeout)
	}

	if MatrixHandlerTimeout >= ServerWriteTimeout {
		t.Errorf("MatrixHandlerTimeout (%v) should be less than ServerWriteTimeout (%v)",
			MatrixHandlerTimeout, ServerWriteTimeout)
	}
}

func TestHTTPClientTimeoutRelationships(t *testing.T) {
	if HTTPConnectTimeout >= HTTPClientTimeout {
		t.Errorf("HTTPConnectTimeout (%v) should be less than HTTPClientTimeout (%v)",
			HTTPConnectTimeout, HTTPClientTimeout)
	}

	if HTTPTLSHandshakeTimeout >= HTTPClientTimeout {
		t.Errorf("HTTPTLSHandshakeTimeout (%v) should be less than HTTPClientTimeout (%v)",
			HTTPTLSHandshakeTimeout, HTTPClientTimeout)
	}
}

func TestMatrixLoadCoversSources(t *testing.T) {
	// the initial load may go through either an HTTP fetch or a ConfigMap read
	if MatrixLoadTimeout < HTTPClientTimeout || MatrixLoadTimeout < ConfigMapReadTimeout || MatrixLoadTimeout < OCIOperationTimeout {
		t.Errorf("MatrixLoadTimeout (%v) should cover HTTPClientTimeout (%v), ConfigMapReadTimeout (%v) and OCIOperationTimeout (%v)",
			MatrixLoadTimeout, HTTPClientTimeout, ConfigMapReadTimeout, OCIOperationTimeout)
	}
}
