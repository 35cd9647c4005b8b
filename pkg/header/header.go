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

import "time"

// Kind names the type of a compat-matrix document.
type Kind string

const (
	KindCompatibilityMatrix Kind = "CompatibilityMatrix"
	KindCompatibilityResult Kind = "CompatibilityResult"
	KindRecommendation      Kind = "Recommendation"
	KindVersionList         Kind = "VersionList"
)

// DefaultAPIVersion is the apiVersion stamped on documents produced by this module.
const DefaultAPIVersion = "compat.nvidia.com/v1alpha1"

// Metadata keys set by Init.
const (
	MetadataTimestamp = "timestamp"
	MetadataVersion   = "version"
)

func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether k is one of the document kinds above.
func (k Kind) IsValid() bool {
	switch k {
	case KindCompatibilityMatrix, KindCompatibilityResult, KindRecommendation, KindVersionList:
		return true
	default:
		return false
	}
}

// Header is embedded inline in every output document.
type Header struct {
	Kind       Kind              `json:"kind,omitempty" yaml:"kind,omitempty"`
	APIVersion string            `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Described is implemented by documents embedding a Header. Writers use it
// to label published ConfigMaps and registry artifacts.
type Described interface {
	GetKind() Kind
	GetMetadata() map[string]string
}

// Init sets kind and apiVersion and resets the metadata to the current UTC
// timestamp plus the tool version when one is given.
func (h *Header) Init(kind Kind, apiVersion string, version string) {
	h.Kind = kind
	h.APIVersion = apiVersion
	h.Metadata = map[string]string{
		MetadataTimestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if version != "" {
		h.Metadata[MetadataVersion] = version
	}
}

func (h *Header) GetKind() Kind {
	return h.Kind
}

func (h *Header) GetMetadata() map[string]string {
	return h.Metadata
}

// Version returns the tool version recorded in the metadata.
func Version(d Described) (string, bool) {
	v, ok := d.GetMetadata()[MetadataVersion]
	return v, ok && v != ""
}

// Timestamp returns the time the document was produced.
func Timestamp(d Described) (time.Time, bool) {
	raw, ok := d.GetMetadata()[MetadataTimestamp]
	if !ok {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
