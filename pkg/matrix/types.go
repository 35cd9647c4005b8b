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
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/compat-matrix/pkg/header"
)

// MatrixDocument is the serialized form of a normalized matrix.
type MatrixDocument struct {
	header.Header `json:",inline" yaml:",inline"`

	Matrix Mapping `json:"matrix" yaml:"matrix"`
}

// NewMatrixDocument wraps entries in a CompatibilityMatrix document.
func NewMatrixDocument(entries Mapping, toolVersion string) *MatrixDocument {
	doc := &MatrixDocument{Matrix: entries}
	if doc.Matrix == nil {
		doc.Matrix = Mapping{}
	}
	doc.Init(header.KindCompatibilityMatrix, header.DefaultAPIVersion, toolVersion)
	return doc
}

// TableHeader implements serializer.Tabular.
func (d *MatrixDocument) TableHeader() []string {
	return []string{"VERSION", "RANGE"}
}

// TableRows implements serializer.Tabular.
func (d *MatrixDocument) TableRows() [][]string {
	rows := make([][]string, 0, len(d.Matrix))
	for _, e := range d.Matrix {
		rows = append(rows, []string{e.Version, e.Range})
	}
	return rows
}

// VersionList lists the primary versions of a matrix in insertion order.
type VersionList struct {
	header.Header `json:",inline" yaml:",inline"`

	Versions []string `json:"versions" yaml:"versions"`
}

// NewVersionList wraps versions in a VersionList document.
func NewVersionList(versions []string, toolVersion string) *VersionList {
	doc := &VersionList{Versions: versions}
	if doc.Versions == nil {
		doc.Versions = []string{}
	}
	doc.Init(header.KindVersionList, header.DefaultAPIVersion, toolVersion)
	return doc
}

// TableHeader implements serializer.Tabular.
func (d *VersionList) TableHeader() []string {
	return []string{"VERSION"}
}

// TableRows implements serializer.Tabular.
func (d *VersionList) TableRows() [][]string {
	return singleColumn(d.Versions)
}

// CompatibilityResult lists the primary versions compatible with a
// secondary version, highest first.
type CompatibilityResult struct {
	header.Header `json:",inline" yaml:",inline"`

	Version    string   `json:"version" yaml:"version"`
	Compatible []string `json:"compatible" yaml:"compatible"`
}

// NewCompatibilityResult wraps a CompatibleWith answer for secondary.
func NewCompatibilityResult(secondary string, compatible []string, toolVersion string) *CompatibilityResult {
	doc := &CompatibilityResult{Version: secondary, Compatible: compatible}
	if doc.Compatible == nil {
		doc.Compatible = []string{}
	}
	doc.Init(header.KindCompatibilityResult, header.DefaultAPIVersion, toolVersion)
	return doc
}

// TableHeader implements serializer.Tabular.
func (d *CompatibilityResult) TableHeader() []string {
	return []string{"COMPATIBLE"}
}

// TableRows implements serializer.Tabular.
func (d *CompatibilityResult) TableRows() [][]string {
	return singleColumn(d.Compatible)
}

// Recommendation is the highest primary version compatible with a secondary
// version. Recommended is nil when nothing is compatible.
type Recommendation struct {
	header.Header `json:",inline" yaml:",inline"`

	Version     string  `json:"version" yaml:"version"`
	Recommended *string `json:"recommended" yaml:"recommended"`
}

// NewRecommendation wraps a RecommendedFor answer for secondary.
func NewRecommendation(secondary, recommended string, ok bool, toolVersion string) *Recommendation {
	doc := &Recommendation{Version: secondary}
	if ok {
		doc.Recommended = ptr.To(recommended)
	}
	doc.Init(header.KindRecommendation, header.DefaultAPIVersion, toolVersion)
	return doc
}

// TableHeader implements serializer.Tabular.
func (d *Recommendation) TableHeader() []string {
	return []string{"VERSION", "RECOMMENDED"}
}

// TableRows implements serializer.Tabular.
func (d *Recommendation) TableRows() [][]string {
	if d.Recommended == nil {
		return nil
	}
	return [][]string{{d.Version, *d.Recommended}}
}

func singleColumn(values []string) [][]string {
	rows := make([][]string, 0, len(values))
	for _, v := range values {
		rows = append(rows, []string{v})
	}
	return rows
}
