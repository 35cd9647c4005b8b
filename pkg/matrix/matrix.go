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
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/Masterminds/semver/v3"

	"github.com/NVIDIA/compat-matrix/pkg/version"
)

// Query operation names used for logging and metrics.
const (
	OpAll            = "all"
	OpCompatibleWith = "compatible_with"
	OpRecommendedFor = "recommended_for"
	OpEntries        = "entries"
)

// table is an immutable, fully validated snapshot of the matrix.
type table struct {
	entries  Mapping
	versions []*semver.Version
	ranges   []*version.Range
}

// CompatibilityMatrix maps primary versions to the range of secondary
// versions each one supports.
//
// All methods are safe for concurrent use. Replacement builds a complete new
// table and publishes it atomically, so readers observe either the previous
// or the new matrix in full.
type CompatibilityMatrix struct {
	current atomic.Pointer[table]
}

// New creates a matrix from raw, validating and normalizing every entry.
func New(raw Mapping) (*CompatibilityMatrix, error) {
	m := &CompatibilityMatrix{}
	if err := m.SetCompatibilityMatrix(raw); err != nil {
		return nil, err
	}
	return m, nil
}

// SetCompatibilityMatrix replaces the whole matrix. Keys are normalized with
// version.Clean and values with version.ValidRange. On error the previous
// matrix is left untouched.
func (m *CompatibilityMatrix) SetCompatibilityMatrix(raw Mapping) error {
	_, err := m.replace(raw)
	return err
}

// replace publishes raw and returns a copy of the normalized mapping it
// published, unaffected by later replacements.
func (m *CompatibilityMatrix) replace(raw Mapping) (Mapping, error) {
	t, err := build(raw)
	if err != nil {
		replaceTotal.WithLabelValues(resultFailure).Inc()
		slog.Debug("matrix replace rejected", "error", err)
		return nil, err
	}

	m.current.Store(t)
	replaceTotal.WithLabelValues(resultSuccess).Inc()
	entriesGauge.Set(float64(len(t.entries)))
	slog.Debug("matrix replaced", "entries", len(t.entries))
	return t.entries.Clone(), nil
}

func build(raw Mapping) (*table, error) {
	if raw == nil {
		return nil, missingMatrix()
	}

	t := &table{
		entries:  make(Mapping, 0, len(raw)),
		versions: make([]*semver.Version, 0, len(raw)),
		ranges:   make([]*version.Range, 0, len(raw)),
	}
	index := make(map[string]int, len(raw))

	for _, e := range raw {
		key, err := version.Clean(e.Version)
		if err != nil {
			return nil, invalidVersion(e.Version)
		}
		r, err := version.ParseRange(e.Range)
		if err != nil {
			return nil, invalidRange(e.Range)
		}
		normalized := Entry{Version: key, Range: r.String()}

		// later duplicates overwrite the value but keep the first position
		if i, ok := index[key]; ok {
			t.entries[i] = normalized
			t.ranges[i] = r
			continue
		}
		index[key] = len(t.entries)
		t.entries = append(t.entries, normalized)
		t.versions = append(t.versions, version.MustParse(key))
		t.ranges = append(t.ranges, r)
	}
	return t, nil
}

func (m *CompatibilityMatrix) load() *table {
	if t := m.current.Load(); t != nil {
		return t
	}
	return &table{}
}

// All returns the normalized primary versions in insertion order.
// The result is never nil.
func (m *CompatibilityMatrix) All() []string {
	keys := m.load().entries.Keys()
	queryTotal.WithLabelValues(OpAll, queryOutcome(keys, true)).Inc()
	return keys
}

// CompatibleWith returns the primary versions whose range is satisfied by
// secondary, highest first. A malformed secondary matches nothing.
func (m *CompatibilityMatrix) CompatibleWith(secondary string) []string {
	out, ok := m.compatible(secondary)
	queryTotal.WithLabelValues(OpCompatibleWith, queryOutcome(out, ok)).Inc()
	return out
}

func (m *CompatibilityMatrix) compatible(secondary string) ([]string, bool) {
	v, err := version.ParseStrict(secondary)
	if err != nil {
		slog.Debug("ignoring invalid secondary version", "version", secondary, "error", err)
		return []string{}, false
	}

	t := m.load()
	matched := make([]int, 0, len(t.entries))
	for i, r := range t.ranges {
		if r.Check(v) {
			matched = append(matched, i)
		}
	}
	slices.SortFunc(matched, func(a, b int) int {
		return t.versions[b].Compare(t.versions[a])
	})

	out := make([]string, 0, len(matched))
	for _, i := range matched {
		out = append(out, t.entries[i].Version)
	}
	return out, true
}

// RecommendedFor returns the highest primary version compatible with
// secondary. The second result is false when nothing is compatible.
func (m *CompatibilityMatrix) RecommendedFor(secondary string) (string, bool) {
	compatible, ok := m.compatible(secondary)
	queryTotal.WithLabelValues(OpRecommendedFor, queryOutcome(compatible, ok)).Inc()
	if len(compatible) == 0 {
		return "", false
	}
	return compatible[0], true
}

// Entries returns a copy of the normalized mapping.
func (m *CompatibilityMatrix) Entries() Mapping {
	entries := m.load().entries
	queryTotal.WithLabelValues(OpEntries, queryOutcome(entries, true)).Inc()
	out := make(Mapping, len(entries))
	copy(out, entries)
	return out
}

// Len returns the number of entries.
func (m *CompatibilityMatrix) Len() int {
	return len(m.load().entries)
}
