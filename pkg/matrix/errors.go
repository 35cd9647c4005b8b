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

package matrix

import (
	"fmt"

	cmerrors "github.com/NVIDIA/compat-matrix/pkg/errors"
	"github.com/NVIDIA/compat-matrix/pkg/version"
)

func missingMatrix() error {
	return cmerrors.New(cmerrors.ErrCodeMissingParameter, "compatibility matrix is required")
}

// shape names the kind of a decoded document node for error messages.
type shape string

func invalidMatrixType(v any) error {
	name := fmt.Sprintf("%T", v)
	if s, ok := v.(shape); ok {
		name = string(s)
	}
	return cmerrors.NewWithContext(cmerrors.ErrCodeInvalidMatrixType,
		"compatibility matrix must be a key/value mapping, got "+name,
		map[string]any{"type": name})
}

func invalidVersion(raw string) error {
	return cmerrors.NewWithContext(cmerrors.ErrCodeInvalidVersion,
		fmt.Sprintf("%q is not a valid semantic version number", raw),
		map[string]any{"version": raw})
}

func invalidRange(raw string) error {
	return cmerrors.NewWithContext(cmerrors.ErrCodeInvalidRange,
		fmt.Sprintf("%q is not a valid semantic version range", raw),
		map[string]any{"range": raw})
}

// invalidValue reports a value that is not a range string. The key is checked
// first so an invalid key is reported ahead of its value.
func invalidValue(key, raw string) error {
	if _, err := version.Clean(key); err != nil {
		return invalidVersion(key)
	}
	return invalidRange(raw)
}
