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
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	cmerrors "github.com/NVIDIA/compat-matrix/pkg/errors"
	"github.com/NVIDIA/compat-matrix/pkg/header"
)

// Entry is a single primary version and the secondary range it supports.
type Entry struct {
	Version string `json:"version" yaml:"version"`
	Range   string `json:"range" yaml:"range"`
}

// Mapping is an ordered primary-version to range mapping. It serializes as a
// JSON or YAML object whose key order is the slice order.
//
// A nil Mapping represents absent input. An empty non-nil Mapping is a valid
// empty matrix.
type Mapping []Entry

// Keys returns the versions in mapping order.
func (m Mapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for _, e := range m {
		keys = append(keys, e.Version)
	}
	return keys
}

// Clone returns a copy that shares no backing array with m.
func (m Mapping) Clone() Mapping {
	if m == nil {
		return nil
	}
	out := make(Mapping, len(m))
	copy(out, m)
	return out
}

// FromMap builds a Mapping from a Go map. Go maps carry no order, so entries
// are sorted lexically by key.
func FromMap(in map[string]string) Mapping {
	if in == nil {
		return nil
	}
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Mapping, 0, len(in))
	for _, k := range keys {
		out = append(out, Entry{Version: k, Range: in[k]})
	}
	return out
}

// ParseValue converts dynamically typed input into a Mapping.
//
// Accepted inputs are Mapping, []Entry, map[string]string and map[string]any
// whose values are strings. Nil and zero-valued scalars are reported as
// MISSING_PARAMETER. Any other shape (numbers, booleans, strings, slices,
// functions) is reported as INVALID_MATRIX_TYPE.
func ParseValue(v any) (Mapping, error) {
	switch t := v.(type) {
	case nil:
		return nil, missingMatrix()
	case Mapping:
		if t == nil {
			return nil, missingMatrix()
		}
		return t.Clone(), nil
	case []Entry:
		if t == nil {
			return nil, missingMatrix()
		}
		return Mapping(t).Clone(), nil
	case map[string]string:
		if t == nil {
			return nil, missingMatrix()
		}
		return FromMap(t), nil
	case map[string]any:
		if t == nil {
			return nil, missingMatrix()
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := make(Mapping, 0, len(t))
		for _, k := range keys {
			s, ok := t[k].(string)
			if !ok {
				return nil, invalidValue(k, fmt.Sprint(t[k]))
			}
			out = append(out, Entry{Version: k, Range: s})
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Slice, reflect.Array, reflect.Chan, reflect.Map, reflect.Struct:
		return nil, invalidMatrixType(v)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, missingMatrix()
		}
		return ParseValue(rv.Elem().Interface())
	}
	if rv.IsZero() {
		return nil, missingMatrix()
	}
	return nil, invalidMatrixType(v)
}

// Decode reads a JSON or YAML document from r into a Mapping. Documents that
// are valid JSON are decoded as JSON, everything else as YAML.
func Decode(r io.Reader) (Mapping, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, cmerrors.Wrap(cmerrors.ErrCodeInvalidRequest, "failed to read matrix", err)
	}
	return Unmarshal(data)
}

// Unmarshal decodes a JSON or YAML document into a Mapping.
func Unmarshal(data []byte) (Mapping, error) {
	var m Mapping
	var err error
	if json.Valid(data) {
		err = json.Unmarshal(data, &m)
	} else {
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		if cmerrors.CodeOf(err) != "" {
			return nil, err
		}
		return nil, cmerrors.Wrap(cmerrors.ErrCodeInvalidRequest, "failed to decode matrix", err)
	}
	if m == nil {
		return nil, missingMatrix()
	}
	return m, nil
}

// MarshalJSON renders the mapping as a JSON object in entry order. Range
// operators are not HTML-escaped.
func (m Mapping) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(e.Version); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
		buf.WriteByte(':')
		if err := enc.Encode(e.Range); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object preserving key order. A JSON null or a
// zero scalar (0, false, "") leaves the mapping nil, matching ParseValue. A CompatibilityMatrix document is unwrapped to its matrix.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	var doc struct {
		Kind   header.Kind     `json:"kind"`
		Matrix json.RawMessage `json:"matrix"`
	}
	if json.Unmarshal(data, &doc) == nil && doc.Kind == header.KindCompatibilityMatrix {
		if len(doc.Matrix) == 0 {
			*m = nil
			return nil
		}
		return m.UnmarshalJSON(doc.Matrix)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return cmerrors.Wrap(cmerrors.ErrCodeInvalidRequest, "failed to decode matrix", err)
	}
	if tok == nil || zeroJSONScalar(tok) {
		*m = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return invalidMatrixType(jsonShape(tok))
	}

	out := Mapping{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return cmerrors.Wrap(cmerrors.ErrCodeInvalidRequest, "failed to decode matrix", err)
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return cmerrors.Wrap(cmerrors.ErrCodeInvalidRequest, "failed to decode matrix", err)
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return invalidValue(key, string(raw))
		}
		out = append(out, Entry{Version: key, Range: value})
	}
	if _, err := dec.Token(); err != nil {
		return cmerrors.Wrap(cmerrors.ErrCodeInvalidRequest, "failed to decode matrix", err)
	}

	*m = out
	return nil
}

// MarshalYAML renders the mapping as a YAML mapping node in entry order.
func (m Mapping) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range m {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Version},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Range},
		)
	}
	return node, nil
}

// UnmarshalYAML reads a YAML mapping preserving key order. Scalar values
// tagged as strings, integers or floats are taken verbatim. A
// CompatibilityMatrix document is unwrapped to its matrix.
func (m *Mapping) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			*m = nil
			return nil
		}
		node = resolveAlias(node.Content[0])
	}

	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*m = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return invalidMatrixType(yamlShape(node))
	}
	if inner, ok := documentMatrix(node); ok {
		if inner == nil {
			*m = nil
			return nil
		}
		return m.UnmarshalYAML(inner)
	}

	out := make(Mapping, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := resolveAlias(node.Content[i])
		value := resolveAlias(node.Content[i+1])

		if key.Kind != yaml.ScalarNode {
			return invalidVersion(yamlKind(key))
		}
		if value.Kind != yaml.ScalarNode {
			return invalidValue(key.Value, yamlKind(value))
		}
		switch value.Tag {
		case "!!str", "!!int", "!!float":
		default:
			return invalidValue(key.Value, value.Value)
		}
		out = append(out, Entry{Version: key.Value, Range: value.Value})
	}

	*m = out
	return nil
}

// documentMatrix returns the matrix node of a CompatibilityMatrix document.
// The returned node is nil when the document has no matrix.
func documentMatrix(node *yaml.Node) (*yaml.Node, bool) {
	var kind, matrix *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch node.Content[i].Value {
		case "kind":
			kind = resolveAlias(node.Content[i+1])
		case "matrix":
			matrix = node.Content[i+1]
		}
	}
	if kind == nil || kind.Kind != yaml.ScalarNode || kind.Value != header.KindCompatibilityMatrix.String() {
		return nil, false
	}
	return matrix, true
}

func zeroJSONScalar(tok json.Token) bool {
	switch t := tok.(type) {
	case bool:
		return !t
	case string:
		return t == ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	}
	return false
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func jsonShape(tok json.Token) shape {
	switch tok.(type) {
	case json.Delim:
		return "array"
	case json.Number:
		return "number"
	case bool:
		return "bool"
	case string:
		return "string"
	default:
		return shape(fmt.Sprintf("%T", tok))
	}
}

func yamlShape(n *yaml.Node) shape {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return shape(strings.TrimPrefix(n.Tag, "!!"))
	default:
		return shape(n.Tag)
	}
}

func yamlKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return n.Value
	default:
		return n.Tag
	}
}
