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

package version

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Operator is the comparison operator of a single range comparator.
type Operator string

// Supported comparator operators. OpExact renders without a symbol.
const (
	OpExact              Operator = ""
	OpLessThan           Operator = "<"
	OpLessThanOrEqual    Operator = "<="
	OpGreaterThan        Operator = ">"
	OpGreaterThanOrEqual Operator = ">="
)

const (
	numericIdentifier = `0|[1-9][0-9]*`
	xIdentifier       = `[xX*]|` + numericIdentifier
	identifier        = `[0-9A-Za-z-]+`
	dottedIdentifiers = identifier + `(?:\.` + identifier + `)*`

	// partial captures major, minor, patch and prerelease. Build metadata is
	// matched but discarded.
	partial = `[v=\s]*(` + xIdentifier + `)(?:\.(` + xIdentifier + `)(?:\.(` + xIdentifier + `)` +
		`(?:-(` + dottedIdentifiers + `))?(?:\+` + dottedIdentifiers + `)?)?)?`

	operators = `<=|>=|~>|<|>|=|~|\^`
)

var (
	comparatorPattern = regexp.MustCompile(`^(` + operators + `)?` + partial + `$`)
	hyphenPattern     = regexp.MustCompile(`^` + partial + `\s+-\s+` + partial + `$`)
	operatorSpacing   = regexp.MustCompile(`(` + operators + `)\s+`)
	orSplit           = regexp.MustCompile(`\s*\|\|\s*`)

	anyComparator  = Comparator{}
	nullComparator = Comparator{Operator: OpLessThan, Version: semver.New(0, 0, 0, "0", "")}
)

// Comparator is a single bound within a comparator set.
// A Comparator with a nil Version matches every version.
type Comparator struct {
	Operator Operator
	Version  *semver.Version
}

// String renders the comparator in normalized form, e.g. ">=1.7.0-0".
func (c Comparator) String() string {
	if c.Version == nil {
		return "*"
	}
	return string(c.Operator) + Format(c.Version)
}

// Check reports whether v satisfies the comparator by plain semantic version
// precedence. Prerelease versions are ordered like any other version.
func (c Comparator) Check(v *semver.Version) bool {
	if c.Version == nil {
		return true
	}

	cmp := v.Compare(c.Version)
	switch c.Operator {
	case OpLessThan:
		return cmp < 0
	case OpLessThanOrEqual:
		return cmp <= 0
	case OpGreaterThan:
		return cmp > 0
	case OpGreaterThanOrEqual:
		return cmp >= 0
	default:
		return cmp == 0
	}
}

func (c Comparator) isAny() bool {
	return c.Version == nil
}

func (c Comparator) isNull() bool {
	return c.Version != nil && c.String() == nullComparator.String()
}

// Range is a parsed semantic version range: a disjunction of comparator sets,
// each of which is a conjunction of comparators.
type Range struct {
	sets [][]Comparator
}

// ParseRange parses a range expression.
//
// Supported grammar:
//   - exact versions: "1.2.3", "=1.2.3", "v1.2.3"
//   - comparators: "<1.2.3", "<=1.2.3", ">1.2.3", ">=1.2.3" (whitespace after the operator is allowed)
//   - hyphen ranges: "1.2.3 - 2.3.4"
//   - x-ranges and partials: "1.x", "1.2.*", "1", "1.2", "*"
//   - tilde and caret ranges: "~1.2.3", "^1.2.3"
//   - conjunction by whitespace, disjunction by "||"
func ParseRange(s string) (*Range, error) {
	var sets [][]Comparator
	for _, part := range orSplit.Split(strings.TrimSpace(s), -1) {
		set, err := parseSet(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRange, s, err)
		}
		sets = append(sets, set)
	}
	return &Range{sets: reduceSets(sets)}, nil
}

// MustParseRange parses a range expression and panics if parsing fails.
func MustParseRange(s string) *Range {
	r, err := ParseRange(s)
	if err != nil {
		panic(fmt.Sprintf("MustParseRange: %v", err))
	}
	return r
}

// ValidRange normalizes a range expression into its canonical comparator-set
// form. Shorthand is expanded into explicit bounds and bare exclusive upper
// bounds gain a "-0" prerelease floor so prerelease versions of the bound are
// excluded.
//
// Example:
//
//	r, err := version.ValidRange("1.7.x")              // ">=1.7.0-0 <1.8.0-0"
//	r, err = version.ValidRange(">1.5.2-R0.2 <1.6.5") // ">1.5.2-R0.2 <1.6.5-0"
func ValidRange(s string) (string, error) {
	r, err := ParseRange(s)
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

// String renders the range in normalized form. Comparators within a set are
// separated by a single space and sets by "||".
func (r *Range) String() string {
	if r == nil {
		return ""
	}
	sets := make([]string, 0, len(r.sets))
	for _, set := range r.sets {
		comps := make([]string, 0, len(set))
		for _, c := range set {
			comps = append(comps, c.String())
		}
		sets = append(sets, strings.Join(comps, " "))
	}
	return strings.Join(sets, "||")
}

// Check reports whether v satisfies every comparator of at least one set.
func (r *Range) Check(v *semver.Version) bool {
	if r == nil || v == nil {
		return false
	}
	for _, set := range r.sets {
		if checkSet(set, v) {
			return true
		}
	}
	return false
}

// Sets returns a copy of the comparator sets.
func (r *Range) Sets() [][]Comparator {
	out := make([][]Comparator, 0, len(r.sets))
	for _, set := range r.sets {
		out = append(out, append([]Comparator(nil), set...))
	}
	return out
}

func checkSet(set []Comparator, v *semver.Version) bool {
	for _, c := range set {
		if !c.Check(v) {
			return false
		}
	}
	return true
}

func parseSet(s string) ([]Comparator, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []Comparator{anyComparator}, nil
	}

	if m := hyphenPattern.FindStringSubmatch(s); m != nil {
		from, err := readPartial(m[1:5])
		if err != nil {
			return nil, err
		}
		to, err := readPartial(m[5:9])
		if err != nil {
			return nil, err
		}
		comps, err := hyphenRange(from, to)
		if err != nil {
			return nil, err
		}
		return normalizeSet(comps), nil
	}

	var comps []Comparator
	for _, token := range strings.Fields(operatorSpacing.ReplaceAllString(s, "$1")) {
		m := comparatorPattern.FindStringSubmatch(token)
		if m == nil {
			return nil, fmt.Errorf("invalid comparator %q", token)
		}
		p, err := readPartial(m[2:6])
		if err != nil {
			return nil, err
		}

		var expanded []Comparator
		switch m[1] {
		case "~", "~>":
			expanded, err = tildeRange(p)
		case "^":
			expanded, err = caretRange(p)
		case "=":
			expanded, err = xRange(OpExact, p)
		default:
			expanded, err = xRange(Operator(m[1]), p)
		}
		if err != nil {
			return nil, err
		}
		comps = append(comps, expanded...)
	}
	return normalizeSet(comps), nil
}

// normalizeSet collapses a set containing the null comparator to just that
// comparator, drops match-all comparators when others are present and removes
// duplicates while keeping first occurrence order.
func normalizeSet(comps []Comparator) []Comparator {
	out := make([]Comparator, 0, len(comps))
	seen := make(map[string]bool, len(comps))
	for _, c := range comps {
		if c.isNull() {
			return []Comparator{nullComparator}
		}
		if c.isAny() {
			continue
		}
		key := c.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return []Comparator{anyComparator}
	}
	return out
}

// reduceSets drops null sets when other sets exist and collapses the range to
// match-all when any set matches everything.
func reduceSets(sets [][]Comparator) [][]Comparator {
	if len(sets) < 2 {
		return sets
	}

	kept := make([][]Comparator, 0, len(sets))
	for _, set := range sets {
		if !set[0].isNull() {
			kept = append(kept, set)
		}
	}
	if len(kept) == 0 {
		return sets[:1]
	}
	for _, set := range kept {
		if len(set) == 1 && set[0].isAny() {
			return [][]Comparator{set}
		}
	}
	return kept
}

// partialVersion is a possibly incomplete version such as "1", "1.2.x" or "1.2.3-beta".
type partialVersion struct {
	major, minor, patch    uint64
	xMajor, xMinor, xPatch bool
	pre                    string
}

func isX(s string) bool {
	return s == "" || s == "x" || s == "X" || s == "*"
}

// readPartial reads the major, minor, patch and prerelease submatches.
// A wildcard component makes every following component a wildcard.
func readPartial(groups []string) (partialVersion, error) {
	var p partialVersion
	var err error

	if p.xMajor = isX(groups[0]); p.xMajor {
		p.xMinor, p.xPatch = true, true
		return p, nil
	}
	if p.major, err = strconv.ParseUint(groups[0], 10, 64); err != nil {
		return p, fmt.Errorf("invalid major version %q: %w", groups[0], err)
	}

	if p.xMinor = isX(groups[1]); p.xMinor {
		p.xPatch = true
		return p, nil
	}
	if p.minor, err = strconv.ParseUint(groups[1], 10, 64); err != nil {
		return p, fmt.Errorf("invalid minor version %q: %w", groups[1], err)
	}

	if p.xPatch = isX(groups[2]); p.xPatch {
		return p, nil
	}
	if p.patch, err = strconv.ParseUint(groups[2], 10, 64); err != nil {
		return p, fmt.Errorf("invalid patch version %q: %w", groups[2], err)
	}

	p.pre = groups[3]
	return p, nil
}

// bound builds a comparator, validating the prerelease through the strict parser.
func bound(op Operator, major, minor, patch uint64, pre string) (Comparator, error) {
	s := fmt.Sprintf("%d.%d.%d", major, minor, patch)
	if pre != "" {
		s += "-" + pre
	}
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return Comparator{}, fmt.Errorf("invalid bound %q: %w", s, err)
	}
	return Comparator{Operator: op, Version: v}, nil
}

func next(n uint64) (uint64, error) {
	if n == math.MaxUint64 {
		return 0, fmt.Errorf("version component %d cannot be incremented", n)
	}
	return n + 1, nil
}

// triple is a major.minor.patch tuple without prerelease.
type triple struct {
	major, minor, patch uint64
}

// between builds the ">=lower <upper-0" pair shared by every shorthand expansion.
func between(lo triple, loPre string, hi triple) ([]Comparator, error) {
	lower, err := bound(OpGreaterThanOrEqual, lo.major, lo.minor, lo.patch, loPre)
	if err != nil {
		return nil, err
	}
	upper, err := bound(OpLessThan, hi.major, hi.minor, hi.patch, "0")
	if err != nil {
		return nil, err
	}
	return []Comparator{lower, upper}, nil
}

func xRange(op Operator, p partialVersion) ([]Comparator, error) {
	switch {
	case p.xMajor:
		if op == OpGreaterThan || op == OpLessThan {
			return []Comparator{nullComparator}, nil
		}
		return []Comparator{anyComparator}, nil

	case op != OpExact && p.xPatch:
		major, minor := p.major, p.minor
		if p.xMinor {
			minor = 0
		}
		var err error
		switch op {
		case OpGreaterThan, OpLessThanOrEqual:
			// >1.2 is >=1.3.0, <=1.2 is <1.3.0
			if op == OpGreaterThan {
				op = OpGreaterThanOrEqual
			} else {
				op = OpLessThan
			}
			if p.xMinor {
				major, err = next(major)
				minor = 0
			} else {
				minor, err = next(minor)
			}
			if err != nil {
				return nil, err
			}
		}
		c, err := bound(op, major, minor, 0, "0")
		if err != nil {
			return nil, err
		}
		return []Comparator{c}, nil

	case p.xMinor:
		upper, err := next(p.major)
		if err != nil {
			return nil, err
		}
		return between(triple{p.major, 0, 0}, "0", triple{upper, 0, 0})

	case p.xPatch:
		upper, err := next(p.minor)
		if err != nil {
			return nil, err
		}
		return between(triple{p.major, p.minor, 0}, "0", triple{p.major, upper, 0})
	}

	pre := p.pre
	if op == OpLessThan && pre == "" {
		pre = "0"
	}
	c, err := bound(op, p.major, p.minor, p.patch, pre)
	if err != nil {
		return nil, err
	}
	return []Comparator{c}, nil
}

// tildeRange allows patch-level changes: ~1.2.3 is >=1.2.3 <1.3.0-0.
func tildeRange(p partialVersion) ([]Comparator, error) {
	switch {
	case p.xMajor:
		return []Comparator{anyComparator}, nil
	case p.xMinor:
		upper, err := next(p.major)
		if err != nil {
			return nil, err
		}
		return between(triple{p.major, 0, 0}, "", triple{upper, 0, 0})
	}

	upper, err := next(p.minor)
	if err != nil {
		return nil, err
	}
	patch := p.patch
	if p.xPatch {
		patch = 0
	}
	return between(triple{p.major, p.minor, patch}, p.pre, triple{p.major, upper, 0})
}

// caretRange allows changes that do not modify the left-most non-zero
// component: ^1.2.3 is >=1.2.3 <2.0.0-0, ^0.2.3 is >=0.2.3 <0.3.0-0.
func caretRange(p partialVersion) ([]Comparator, error) {
	switch {
	case p.xMajor:
		return []Comparator{anyComparator}, nil

	case p.xMinor:
		upper, err := next(p.major)
		if err != nil {
			return nil, err
		}
		return between(triple{p.major, 0, 0}, "0", triple{upper, 0, 0})

	case p.xPatch:
		if p.major == 0 {
			upper, err := next(p.minor)
			if err != nil {
				return nil, err
			}
			return between(triple{p.major, p.minor, 0}, "0", triple{0, upper, 0})
		}
		upper, err := next(p.major)
		if err != nil {
			return nil, err
		}
		return between(triple{p.major, p.minor, 0}, "0", triple{upper, 0, 0})
	}

	lower := triple{p.major, p.minor, p.patch}

	switch {
	case p.major == 0 && p.minor == 0:
		upper, err := next(p.patch)
		if err != nil {
			return nil, err
		}
		return between(lower, p.pre, triple{0, 0, upper})
	case p.major == 0:
		upper, err := next(p.minor)
		if err != nil {
			return nil, err
		}
		return between(lower, p.pre, triple{0, upper, 0})
	default:
		upper, err := next(p.major)
		if err != nil {
			return nil, err
		}
		return between(lower, p.pre, triple{upper, 0, 0})
	}
}

// hyphenRange expands "A - B" to the equivalent of ">=A <=B". Missing
// components on the lower end are zero filled with a prerelease floor; on the
// upper end they widen the bound to the next release.
func hyphenRange(from, to partialVersion) ([]Comparator, error) {
	var comps []Comparator

	var lower Comparator
	var err error
	switch {
	case from.xMajor:
	case from.xMinor:
		lower, err = bound(OpGreaterThanOrEqual, from.major, 0, 0, "0")
	case from.xPatch:
		lower, err = bound(OpGreaterThanOrEqual, from.major, from.minor, 0, "0")
	default:
		lower, err = bound(OpGreaterThanOrEqual, from.major, from.minor, from.patch, from.pre)
	}
	if err != nil {
		return nil, err
	}
	if !from.xMajor {
		comps = append(comps, lower)
	}

	var upper Comparator
	switch {
	case to.xMajor:
		return append(comps, anyComparator), nil
	case to.xMinor:
		var major uint64
		if major, err = next(to.major); err == nil {
			upper, err = bound(OpLessThan, major, 0, 0, "0")
		}
	case to.xPatch:
		var minor uint64
		if minor, err = next(to.minor); err == nil {
			upper, err = bound(OpLessThan, to.major, minor, 0, "0")
		}
	case to.pre != "":
		upper, err = bound(OpLessThanOrEqual, to.major, to.minor, to.patch, to.pre)
	default:
		var patch uint64
		if patch, err = next(to.patch); err == nil {
			upper, err = bound(OpLessThan, to.major, to.minor, patch, "0")
		}
	}
	if err != nil {
		return nil, err
	}
	return append(comps, upper), nil
}
