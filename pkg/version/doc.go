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

// Package version provides semantic version normalization, range normalization
// and range satisfaction for compatibility matrices.
//
// Versions are parsed with github.com/Masterminds/semver/v3 in strict mode after
// stripping surrounding whitespace and any leading "=" or "v" characters.
// Normalized versions render as major.minor.patch[-prerelease]; build metadata
// is dropped because it does not affect precedence.
//
// # Usage
//
// Normalize a version:
//
//	v, err := version.Clean("v1.0.2-beta") // "1.0.2-beta"
//
// Normalize a range:
//
//	r, err := version.ValidRange("1.7.x") // ">=1.7.0-0 <1.8.0-0"
//
// Test a version against a range:
//
//	ok := version.Satisfies("1.6.4", ">=1.6.0-0 <1.7.0-0") // true
//
// # Range Grammar
//
// Comparators within a set are joined by whitespace and sets are joined by "||":
//
//   - 1.2.3, =1.2.3        exact version
//   - <, <=, >, >=         inequality bounds
//   - 1.2.3 - 2.3.4        hyphen range, >=1.2.3 <2.3.5-0
//   - 1.x, 1.2.*, 1, 1.2   x-ranges, >=1.0.0-0 <2.0.0-0 and so on
//   - ~1.2.3               >=1.2.3 <1.3.0-0
//   - ^1.2.3               >=1.2.3 <2.0.0-0
//   - *, x, ""             any version
//
// Exclusive upper bounds without a prerelease gain a "-0" floor, so "<1.6.5"
// normalizes to "<1.6.5-0" and excludes 1.6.5 prereleases. Satisfaction uses
// plain semantic version precedence; prerelease versions are not filtered.
//
// # Error Handling
//
//   - ErrEmptyVersion: input is empty after trimming
//   - ErrInvalidVersion: input is not a strict semantic version
//   - ErrInvalidRange: input does not match the range grammar
//
// Satisfies never returns an error; unparseable input does not match.
package version
