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
package header

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindIsValid(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindCompatibilityMatrix, true},
		{KindCompatibilityResult, true},
		{KindRecommendation, true},
		{KindVersionList, true},
		{Kind("Snapshot"), false},
		{Kind("compatibilitymatrix"), false},
		{Kind(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.IsValid())
		})
	}
}

func TestInit(t *testing.T) {
	before := time.Now().UTC().Truncate(time.Second)

	var h Header
	h.Init(KindCompatibilityMatrix, DefaultAPIVersion, "v1.2.3")

	assert.Equal(t, KindCompatibilityMatrix, h.GetKind())
	assert.Equal(t, DefaultAPIVersion, h.APIVersion)

	v, ok := Version(&h)
	assert.True(t, ok)
	assert.Equal(t, "v1.2.3", v)

	ts, ok := Timestamp(&h)
	require.True(t, ok)
	assert.False(t, ts.Before(before))
}

func TestInitResetsMetadata(t *testing.T) {
	h := Header{Metadata: map[string]string{"stale": "x", MetadataVersion: "old"}}
	h.Init(KindCompatibilityResult, DefaultAPIVersion, "")

	assert.NotContains(t, h.Metadata, "stale")
	_, ok := Version(&h)
	assert.False(t, ok)
}

func TestTimestampMalformed(t *testing.T) {
	h := Header{Metadata: map[string]string{MetadataTimestamp: "yesterday"}}
	_, ok := Timestamp(&h)
	assert.False(t, ok)

	_, ok = Timestamp(&Header{})
	assert.False(t, ok)
}
