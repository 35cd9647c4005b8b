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

package oci

import (
	"context"
	"encoding/json"
	"testing"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/memory"

	cmerrors "github.com/NVIDIA/compat-matrix/pkg/errors"
)

const testMatrix = "1.0.3: '>=1.6.0-0 <1.7.0-0'\n1.0.4: '>=1.7.0-0 <1.8.0-0'\n"

func TestMediaTypeFor(t *testing.T) {
	assert.Equal(t, MediaTypeYAML, MediaTypeFor("matrix.yaml"))
	assert.Equal(t, MediaTypeYAML, MediaTypeFor("matrix.yml"))
	assert.Equal(t, MediaTypeJSON, MediaTypeFor("matrix.JSON"))
	assert.Equal(t, MediaTypeYAML, MediaTypeFor("matrix"))
}

func TestPushPullRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	desc, err := pushTo(ctx, store, "v1", "matrix.yaml", []byte(testMatrix),
		map[string]string{ociv1.AnnotationVersion: "v1.2.3"})
	require.NoError(t, err)
	assert.Equal(t, ociv1.MediaTypeImageManifest, desc.MediaType)

	art, err := pullFrom(ctx, store, "v1")
	require.NoError(t, err)
	assert.Equal(t, "matrix.yaml", art.Filename)
	assert.Equal(t, MediaTypeYAML, art.MediaType)
	assert.Equal(t, testMatrix, string(art.Data))
	assert.Equal(t, desc.Digest.String(), art.Digest)
}

func TestPushManifestStructure(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	desc, err := pushTo(ctx, store, "v1", "matrix.json", []byte(`{"1.0.0":"*"}`), nil)
	require.NoError(t, err)

	raw, err := content.FetchAll(ctx, store, desc)
	require.NoError(t, err)

	var manifest ociv1.Manifest
	require.NoError(t, json.Unmarshal(raw, &manifest))
	assert.Equal(t, ArtifactType, manifest.ArtifactType)
	require.Len(t, manifest.Layers, 1)
	assert.Equal(t, MediaTypeJSON, manifest.Layers[0].MediaType)
	assert.Equal(t, "matrix.json", manifest.Layers[0].Annotations[ociv1.AnnotationTitle])
}

func TestPushOverwritesTag(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	_, err := pushTo(ctx, store, "latest", "matrix.yaml", []byte("1.0.0: 1.x\n"), nil)
	require.NoError(t, err)
	_, err = pushTo(ctx, store, "latest", "matrix.yaml", []byte("2.0.0: 2.x\n"), nil)
	require.NoError(t, err)

	// pushing identical content again is not an error
	_, err = pushTo(ctx, store, "latest", "matrix.yaml", []byte("2.0.0: 2.x\n"), nil)
	require.NoError(t, err)

	art, err := pullFrom(ctx, store, "latest")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0: 2.x\n", string(art.Data))
}

func TestPushValidation(t *testing.T) {
	ctx := context.Background()

	_, err := pushTo(ctx, memory.New(), "", "matrix.yaml", []byte(testMatrix), nil)
	assert.Error(t, err)

	_, err = pushTo(ctx, memory.New(), "v1", "", []byte(testMatrix), nil)
	assert.Error(t, err)

	_, err = Push(ctx, nil, "matrix.yaml", nil, Options{})
	assert.True(t, cmerrors.IsCode(err, cmerrors.ErrCodeInvalidRequest))

	_, err = Pull(ctx, nil, Options{})
	assert.True(t, cmerrors.IsCode(err, cmerrors.ErrCodeInvalidRequest))
}

func TestPullErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown tag", func(t *testing.T) {
		_, err := pullFrom(ctx, memory.New(), "missing")
		require.Error(t, err)
	})

	t.Run("foreign artifact type", func(t *testing.T) {
		store := memory.New()
		layer := pushBlob(t, store, MediaTypeYAML, []byte(testMatrix))
		manifest, err := oras.PackManifest(ctx, store, oras.PackManifestVersion1_1,
			"application/vnd.example.other", oras.PackManifestOptions{Layers: []ociv1.Descriptor{layer}})
		require.NoError(t, err)
		require.NoError(t, store.Tag(ctx, manifest, "v1"))

		_, err = pullFrom(ctx, store, "v1")
		require.Error(t, err)
		assert.True(t, cmerrors.IsCode(err, cmerrors.ErrCodeInvalidRequest))
	})

	t.Run("no matrix layer", func(t *testing.T) {
		store := memory.New()
		layer := pushBlob(t, store, "application/octet-stream", []byte("data"))
		manifest, err := oras.PackManifest(ctx, store, oras.PackManifestVersion1_1,
			ArtifactType, oras.PackManifestOptions{Layers: []ociv1.Descriptor{layer}})
		require.NoError(t, err)
		require.NoError(t, store.Tag(ctx, manifest, "v1"))

		_, err = pullFrom(ctx, store, "v1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no matrix layer")
	})
}

func pushBlob(t *testing.T, store *memory.Store, mediaType string, data []byte) ociv1.Descriptor {
	t.Helper()
	desc, err := oras.PushBytes(context.Background(), store, mediaType, data)
	require.NoError(t, err)
	return desc
}
