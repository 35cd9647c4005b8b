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

import "testing"

// FuzzClean verifies that Clean never panics and that cleaned output is stable.
func FuzzClean(f *testing.F) {
	seeds := []string{
		"1.2.3",
		"v1.0.1",
		" =v1.2.3 ",
		"1.0.2-beta",
		"1.5.2-R0.1",
		"1.2.3+build.5",
		"1.2.3-rc.1+sha.abc",
		"",
		"v",
		"1.2",
		"01.2.3",
		"1.2.3.4",
		"a.b.c",
		"999999999999999999999.0.0",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		cleaned, err := Clean(input)
		if err != nil {
			return
		}
		again, err := Clean(cleaned)
		if err != nil {
			t.Fatalf("Clean(%q) = %q which does not clean again: %v", input, cleaned, err)
		}
		if again != cleaned {
			t.Errorf("Clean not idempotent for %q: %q -> %q", input, cleaned, again)
		}
	})
}

// FuzzValidRange verifies that range normalization never panics and that
// normalized ranges normalize to themselves.
func FuzzValidRange(f *testing.F) {
	seeds := []string{
		"1.7.x",
		">1.5.2-R0.2 <1.6.5",
		"1.2.3 - 2.3.4",
		"1.2.3-beta - 2.3.4-rc.1",
		"~1.2.3",
		"^0.0.3",
		"1.2.3 || 2.x",
		">*",
		"*",
		"",
		"||",
		">= 1.2",
		"<=18446744073709551615.0.0",
		">18446744073709551615",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		normalized, err := ValidRange(input)
		if err != nil {
			return
		}
		again, err := ValidRange(normalized)
		if err != nil {
			t.Fatalf("ValidRange(%q) = %q which does not parse again: %v", input, normalized, err)
		}
		if again != normalized {
			t.Errorf("ValidRange not idempotent for %q: %q -> %q", input, normalized, again)
		}

		_ = Satisfies("1.0.0", input)
	})
}
