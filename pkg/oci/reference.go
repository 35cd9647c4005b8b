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
	"fmt"
	"strings"

	"github.com/distribution/reference"

	cmerrors "github.com/NVIDIA/compat-matrix/pkg/errors"
)

const (
	// URIScheme is the URI scheme addressing a registry artifact (e.g., "oci://ghcr.io/org/matrix:v1").
	URIScheme = "oci://"

	// DefaultTag is used when a reference carries no tag.
	DefaultTag = "latest"
)

// Reference is a parsed oci:// URI.
type Reference struct {
	// Registry is the registry host (e.g., "ghcr.io", "localhost:5000").
	Registry string
	// Repository is the repository path (e.g., "nvidia/compat-matrix").
	Repository string
	// Tag is the artifact tag. Empty means no tag was given.
	Tag string
}

// IsURI reports whether s uses the oci:// scheme.
func IsURI(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), URIScheme)
}

// ParseReference parses an oci://registry/repository[:tag] URI.
func ParseReference(uri string) (*Reference, error) {
	uri = strings.TrimSpace(uri)
	if !IsURI(uri) {
		return nil, cmerrors.NewWithContext(cmerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("OCI reference must start with %s", URIScheme),
			map[string]any{"reference": uri})
	}

	ref, err := reference.ParseNormalizedNamed(strings.TrimPrefix(uri, URIScheme))
	if err != nil {
		return nil, cmerrors.WrapWithContext(cmerrors.ErrCodeInvalidRequest, "invalid OCI reference", err,
			map[string]any{"reference": uri})
	}

	var tag string
	if tagged, ok := ref.(reference.Tagged); ok {
		tag = tagged.Tag()
	}

	r := &Reference{
		Registry:   reference.Domain(ref),
		Repository: reference.Path(ref),
		Tag:        tag,
	}
	if err := ValidateRegistryReference(r.Registry, r.Repository); err != nil {
		return nil, err
	}
	return r, nil
}

// ValidateRegistryReference checks that registry and repository form a valid
// image name. A leading http:// or https:// on the registry is ignored.
func ValidateRegistryReference(registry, repository string) error {
	name := fmt.Sprintf("%s/%s", stripProtocol(registry), repository)
	if _, err := reference.ParseNormalizedNamed(name); err != nil {
		return cmerrors.WrapWithContext(cmerrors.ErrCodeInvalidRequest, "invalid registry reference", err,
			map[string]any{"registry": registry, "repository": repository})
	}
	return nil
}

// String returns the oci:// form of the reference.
func (r *Reference) String() string {
	return URIScheme + r.ImageReference()
}

// ImageReference returns the reference without the oci:// scheme.
func (r *Reference) ImageReference() string {
	if r.Tag == "" {
		return r.RepositoryName()
	}
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// RepositoryName returns registry/repository.
func (r *Reference) RepositoryName() string {
	return fmt.Sprintf("%s/%s", r.Registry, r.Repository)
}

// TagOrDefault returns the tag, or DefaultTag when none was given.
func (r *Reference) TagOrDefault() string {
	if r.Tag == "" {
		return DefaultTag
	}
	return r.Tag
}

// WithTag returns a copy of the reference with the given tag.
func (r *Reference) WithTag(tag string) *Reference {
	return &Reference{
		Registry:   r.Registry,
		Repository: r.Repository,
		Tag:        tag,
	}
}

// stripProtocol removes an http:// or https:// prefix from a registry host.
func stripProtocol(registry string) string {
	registry = strings.TrimPrefix(registry, "https://")
	registry = strings.TrimPrefix(registry, "http://")
	return registry
}
