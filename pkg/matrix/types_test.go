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
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/compat-matrix/pkg/header"
	"github.com/NVIDIA/compat-matrix/pkg/serializer"
)

func TestMatrixDocumentRoundTrip(t *testing.T) {
	m := newScenario(t)
	doc := NewMatrixDocument(m.Entries(), "v0.1.0")

	assert.Equal(t, header.KindCompatibilityMatrix, doc.Kind)
	assert.Equal(t, header.DefaultAPIVersion, doc.APIVersion)
	assert.Equal(t, "v0.1.0", doc.Metadata["version"])

	for _, format := range []serializer.Format{serializer.FormatJSON, serializer.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, serializer.NewWriter(format, &buf).Serialize(context.Background(), doc))

			// a written document reads back as its matrix
			back, err := Unmarshal(buf.Bytes())
			require.NoError(t, err)
			assert.Equal(t, m.Entries(), back)

			again, err := New(back)
			require.NoError(t, err)
			assert.Equal(t, m.All(), again.All())
		})
	}
}

func TestMatrixDocumentTable(t *testing.T) {
	doc := NewMatrixDocument(Mapping{
		{Version: "1.0.3", Range: ">=1.6.0-0 <1.7.0-0"},
		{Version: "1.0.4", Range: ">=1.7.0-0 <1.8.0-0"},
	}, "")

	var buf bytes.Buffer
	require.NoError(t, serializer.NewWriter(serializer.FormatTable, &buf).Serialize(context.Background(), doc))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "VERSION"))
	assert.True(t, strings.HasPrefix(lines[2], "1.0.3"))
	assert.Contains(t, lines[3], ">=1.7.0-0 <1.8.0-0")
}

func TestNewMatrixDocumentNilEntries(t *testing.T) {
	doc := NewMatrixDocument(nil, "")
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"matrix":{}`)
	assert.NotContains(t, doc.Metadata, "version")
}

func TestVersionList(t *testing.T) {
	doc := NewVersionList(nil, "dev")
	assert.Equal(t, header.KindVersionList, doc.Kind)
	assert.Equal(t, []string{}, doc.Versions)

	doc = NewVersionList([]string{"1.0.1", "1.0.2"}, "dev")
	assert.Equal(t, [][]string{{"1.0.1"}, {"1.0.2"}}, doc.TableRows())
	assert.Equal(t, []string{"VERSION"}, doc.TableHeader())
}

func TestCompatibilityResult(t *testing.T) {
	doc := NewCompatibilityResult("1.6.4", []string{"1.0.3", "1.0.2-beta"}, "dev")
	assert.Equal(t, header.KindCompatibilityResult, doc.Kind)
	assert.Equal(t, [][]string{{"1.0.3"}, {"1.0.2-beta"}}, doc.TableRows())

	data, err := json.Marshal(NewCompatibilityResult("1.8.0", nil, "dev"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"compatible":[]`)
	assert.Contains(t, string(data), `"kind":"CompatibilityResult"`)
}

func TestRecommendation(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		doc := NewRecommendation("1.6.4", "1.0.3", true, "dev")
		require.NotNil(t, doc.Recommended)
		assert.Equal(t, "1.0.3", *doc.Recommended)
		assert.Equal(t, [][]string{{"1.6.4", "1.0.3"}}, doc.TableRows())
	})

	t.Run("none", func(t *testing.T) {
		doc := NewRecommendation("1.8.0", "", false, "dev")
		assert.Nil(t, doc.Recommended)
		assert.Empty(t, doc.TableRows())

		data, err := json.Marshal(doc)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"recommended":null`)

		out, err := yaml.Marshal(doc)
		require.NoError(t, err)
		assert.Contains(t, string(out), "recommended: null")
	})
}
