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
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"github.com/NVIDIA/compat-matrix/pkg/defaults"
	cmerrors "github.com/NVIDIA/compat-matrix/pkg/errors"
)

const (
	// ArtifactType identifies compatibility matrix artifacts.
	ArtifactType = "application/vnd.nvidia.compat.matrix"

	// MediaTypeYAML is the layer media type of a YAML matrix document.
	MediaTypeYAML = "application/vnd.nvidia.compat.matrix.v1+yaml"

	// MediaTypeJSON is the layer media type of a JSON matrix document.
	MediaTypeJSON = "application/vnd.nvidia.compat.matrix.v1+json"
)

// Options configures the registry connection.
type Options struct {
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
	// Annotations are added to the manifest on push.
	Annotations map[string]string
}

// Artifact is a single-file matrix artifact.
type Artifact struct {
	// Filename is the layer title, e.g. "matrix.yaml".
	Filename string
	// MediaType is the layer media type.
	MediaType string
	// Data is the file content.
	Data []byte
	// Digest is the manifest digest.
	Digest string
}

// PushResult contains the result of a successful push.
type PushResult struct {
	// Digest is the SHA256 digest of the pushed manifest.
	Digest string
	// Reference is the full image reference (registry/repository:tag).
	Reference string
}

// MediaTypeFor returns the layer media type for a file name.
func MediaTypeFor(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return MediaTypeJSON
	}
	return MediaTypeYAML
}

// Push uploads data as a single-layer artifact to ref. An untagged reference
// is pushed as DefaultTag.
func Push(ctx context.Context, ref *Reference, filename string, data []byte, opts Options) (*PushResult, error) {
	if ref == nil {
		return nil, cmerrors.New(cmerrors.ErrCodeInvalidRequest, "OCI reference is required")
	}
	tag := ref.TagOrDefault()

	repo, err := newRepository(ref, opts)
	if err != nil {
		return nil, err
	}

	pushCtx, cancel := context.WithTimeout(ctx, defaults.OCIOperationTimeout)
	defer cancel()

	slog.Info("pushing matrix artifact", "reference", ref.WithTag(tag).ImageReference(), "file", filename)

	desc, err := pushTo(pushCtx, repo, tag, filename, data, opts.Annotations)
	if err != nil {
		return nil, cmerrors.WrapWithContext(cmerrors.ErrCodeUnavailable, "failed to push artifact to registry", err,
			map[string]any{"reference": ref.String()})
	}

	return &PushResult{
		Digest:    desc.Digest.String(),
		Reference: ref.WithTag(tag).ImageReference(),
	}, nil
}

// Pull downloads the matrix artifact at ref. An untagged reference resolves
// DefaultTag.
func Pull(ctx context.Context, ref *Reference, opts Options) (*Artifact, error) {
	if ref == nil {
		return nil, cmerrors.New(cmerrors.ErrCodeInvalidRequest, "OCI reference is required")
	}

	repo, err := newRepository(ref, opts)
	if err != nil {
		return nil, err
	}

	pullCtx, cancel := context.WithTimeout(ctx, defaults.OCIOperationTimeout)
	defer cancel()

	art, err := pullFrom(pullCtx, repo, ref.TagOrDefault())
	if err != nil {
		if cmerrors.CodeOf(err) != "" {
			return nil, err
		}
		code := cmerrors.ErrCodeUnavailable
		if errors.Is(err, errdef.ErrNotFound) {
			code = cmerrors.ErrCodeNotFound
		}
		return nil, cmerrors.WrapWithContext(code, "failed to pull artifact from registry", err,
			map[string]any{"reference": ref.String()})
	}

	slog.Debug("pulled matrix artifact", "reference", ref.String(), "digest", art.Digest, "size", len(art.Data))
	return art, nil
}

// pushTo stores data as a layer in dst, packs an OCI 1.1 manifest around it
// and tags the manifest.
func pushTo(ctx context.Context, dst oras.Target, tag, filename string, data []byte, annotations map[string]string) (ociv1.Descriptor, error) {
	if tag == "" {
		return ociv1.Descriptor{}, fmt.Errorf("tag is required to push OCI artifact")
	}
	if filename == "" {
		return ociv1.Descriptor{}, fmt.Errorf("file name is required to push OCI artifact")
	}

	layer := content.NewDescriptorFromBytes(MediaTypeFor(filename), data)
	if err := dst.Push(ctx, layer, bytes.NewReader(data)); err != nil && !errors.Is(err, errdef.ErrAlreadyExists) {
		return ociv1.Descriptor{}, fmt.Errorf("failed to push layer: %w", err)
	}
	layer.Annotations = map[string]string{ociv1.AnnotationTitle: filename}

	manifest, err := oras.PackManifest(ctx, dst, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers:              []ociv1.Descriptor{layer},
		ManifestAnnotations: annotations,
	})
	if err != nil {
		return ociv1.Descriptor{}, fmt.Errorf("failed to pack manifest: %w", err)
	}

	if err := dst.Tag(ctx, manifest, tag); err != nil {
		return ociv1.Descriptor{}, fmt.Errorf("failed to tag manifest: %w", err)
	}
	return manifest, nil
}

// pullFrom resolves reference in src and returns the first matrix layer.
func pullFrom(ctx context.Context, src oras.ReadOnlyTarget, reference string) (*Artifact, error) {
	desc, manifestJSON, err := oras.FetchBytes(ctx, src, reference, oras.DefaultFetchBytesOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest %q: %w", reference, err)
	}

	var manifest ociv1.Manifest
	if err := json.Unmarshal(manifestJSON, &manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %q: %w", reference, err)
	}
	if manifest.ArtifactType != ArtifactType {
		return nil, cmerrors.NewWithContext(cmerrors.ErrCodeInvalidRequest,
			"artifact is not a compatibility matrix",
			map[string]any{"artifactType": manifest.ArtifactType, "reference": reference})
	}

	for _, layer := range manifest.Layers {
		if layer.MediaType != MediaTypeYAML && layer.MediaType != MediaTypeJSON {
			continue
		}
		data, err := content.FetchAll(ctx, src, layer)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch layer %s: %w", layer.Digest, err)
		}
		return &Artifact{
			Filename:  layer.Annotations[ociv1.AnnotationTitle],
			MediaType: layer.MediaType,
			Data:      data,
			Digest:    desc.Digest.String(),
		}, nil
	}

	return nil, cmerrors.NewWithContext(cmerrors.ErrCodeInvalidRequest,
		"artifact has no matrix layer", map[string]any{"reference": reference})
}

func newRepository(ref *Reference, opts Options) (*remote.Repository, error) {
	repo, err := remote.NewRepository(fmt.Sprintf("%s/%s", stripProtocol(ref.Registry), ref.Repository))
	if err != nil {
		return nil, cmerrors.Wrap(cmerrors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = createAuthClient(opts.PlainHTTP, opts.InsecureTLS)
	return repo, nil
}

// createAuthClient creates an HTTP client with optional TLS configuration
// and Docker credential support.
func createAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, _ := credentials.NewStoreFromDocker(credentials.StoreOptions{})

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	client := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		client.Credential = credentials.Credential(credStore)
	}
	return client
}
