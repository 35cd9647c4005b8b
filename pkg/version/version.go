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

package version

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Error types for version and range parsing failures
var (
	ErrEmptyVersion   = errors.New("version string is empty")
	ErrInvalidVersion = errors.New("not a valid semantic version number")
	ErrInvalidRange   = errors.New("not a valid semantic version range")
)

// Parse parses a version string into a semantic version.
// Surrounding whitespace and any leading "=" or "v" characters are stripped
// before the remainder is parsed as a strict major.minor.patch[-pre][+build]
// version. Partial versions such as "1.2" are rejected.
func Parse(s string) (*semver.Version, error) {
	trimmed := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "=v"))
	if trimmed == "" {
		return nil, ErrEmptyVersion
	}

	v, err := semver.StrictNewVersion(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
	}
	return v, nil
}

// ParseStrict parses a version supplied as a query. Only surrounding
// whitespace and a single leading "v" are accepted before the strict
// major.minor.patch[-pre][+build] form, so "=1.2.3" and "vv1.2.3" are rejected.
func ParseStrict(s string) (*semver.Version, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "v")
	if trimmed == "" {
		return nil, ErrEmptyVersion
	}

	v, err := semver.StrictNewVersion(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
	}
	return v, nil
}

// MustParse parses a version string and panics if parsing fails.
// Only use this for hardcoded strings or in tests.
func MustParse(s string) *semver.Version {
	v, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("MustParse: %v", err))
	}
	return v
}

// Format renders v in normalized form: major.minor.patch with the prerelease
// suffix when present. Build metadata is not part of the normalized form since
// it does not participate in precedence.
func Format(v *semver.Version) string {
	if v == nil {
		return ""
	}
	if pre := v.Prerelease(); pre != "" {
		return fmt.Sprintf("%d.%d.%d-%s", v.Major(), v.Minor(), v.Patch(), pre)
	}
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
}

// Clean normalizes a version string.
//
// Example:
//
//	v, err := version.Clean(" v1.2.3-beta+build.7 ") // "1.2.3-beta"
func Clean(s string) (string, error) {
	v, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Format(v), nil
}

// Compare returns an integer comparing two version strings by semantic
// version precedence: -1 if a < b, 0 if a == b, 1 if a > b.
func Compare(a, b string) (int, error) {
	va, err := Parse(a)
	if err != nil {
		return 0, fmt.Errorf("invalid version a: %w", err)
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, fmt.Errorf("invalid version b: %w", err)
	}
	return va.Compare(vb), nil
}

// Satisfies reports whether version falls within rng. The version is parsed
// with ParseStrict and the range the same way ValidRange does. Unparseable
// input never matches.
func Satisfies(version, rng string) bool {
	v, err := ParseStrict(version)
	if err != nil {
		return false
	}
	r, err := ParseRange(rng)
	if err != nil {
		return false
	}
	return r.Check(v)
}
