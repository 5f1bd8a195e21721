// Copyright 2026 the refsync authors
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

// Package code extracts the leading identity token from versioned file
// names so that files can be matched across folders despite renames and
// version suffixes.
package code

import (
	"strings"
)

// 🏷️ Token is the identity extracted from a filename. Two filenames refer
// to the same logical item iff their Normalized values are equal. An
// I-prefixed file is an alternate representation of the same item, not a
// distinct one, so the marker is recorded separately and never
// participates in comparison.
type Token struct {
	// Raw is the code token as it appears in the filename, marker included
	// (e.g. "I-B200").
	Raw string
	// IPrefixed reports whether the token carried a leading I-/I_ marker.
	IPrefixed bool
	// Normalized is the uppercased comparison base with the marker
	// stripped. Empty for the no-code sentinel.
	Normalized string
}

// IsZero reports whether t is the no-code sentinel. Files that resolve to
// the sentinel are un-indexable and must be excluded from every folder.
func (t Token) IsZero() bool {
	return t.Normalized == ""
}

func isAlphanumeric(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// leadingRun returns the leading alphanumeric run of s. The run ends at
// the first separator (space, dash, underscore, dot) or any other
// non-alphanumeric byte.
func leadingRun(s string) string {
	i := 0
	for i < len(s) && isAlphanumeric(s[i]) {
		i++
	}
	return s[:i]
}

// 🔍 Resolve parses fileName into a Token. The code is the leading
// alphanumeric run up to the first separator; a case-insensitive I-/I_
// marker in front of that run is stripped into IPrefixed. Filenames with
// no leading alphanumeric run resolve to the zero Token; Resolve never
// fails.
func Resolve(fileName string) Token {
	if len(fileName) >= 2 && (fileName[0] == 'I' || fileName[0] == 'i') && (fileName[1] == '-' || fileName[1] == '_') {
		if base := leadingRun(fileName[2:]); base != "" {
			return Token{
				Raw:        fileName[:2] + base,
				IPrefixed:  true,
				Normalized: strings.ToUpper(base),
			}
		}
	}

	base := leadingRun(fileName)
	if base == "" {
		return Token{}
	}
	return Token{Raw: base, Normalized: strings.ToUpper(base)}
}

// 🔤 Normalize maps an externally sourced code string (e.g. one row of an
// imported code list) onto the same comparison base Resolve produces, so
// caller-supplied filters can be matched against index keys.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == 'I' || s[0] == 'i') && (s[1] == '-' || s[1] == '_') {
		s = s[2:]
	}
	return strings.ToUpper(s)
}
