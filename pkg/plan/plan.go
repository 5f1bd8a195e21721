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

// Package plan classifies the codes of two folder indexes into an
// ordered sequence of reconciliation actions. Planning is pure: it never
// touches the filesystem, and identity plus modified time are its only
// evidence. Content is never compared.
package plan

import (
	"sort"

	"github.com/schemini/refsync/pkg/index"
)

// 🎬 Kind is the classification of one code
type Kind int

const (
	// Match means both folders carry the code and the reference copy is
	// current. No-op.
	Match Kind = iota
	// Outdated means the reference copy is strictly older than the
	// target copy. Backup-then-replace.
	Outdated
	// MissingInReference means only the target carries the code. Copy-in
	// during file integration.
	MissingInReference
	// ExtraInReference means only the reference carries the code.
	// Report-only.
	ExtraInReference
	// Ambiguous means the reference carries more than one current record
	// for the code. Report-only; takes precedence over Match/Outdated.
	Ambiguous
)

// String returns a string representation of Kind
func (k Kind) String() string {
	switch k {
	case Match:
		return "match"
	case Outdated:
		return "outdated"
	case MissingInReference:
		return "missing_in_reference"
	case ExtraInReference:
		return "extra_in_reference"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// 🎯 Action is one classified, not-yet-executed step of a plan
type Action struct {
	Kind Kind
	Code string
	// Source is the record content flows from (the target's newest), set
	// for Outdated and MissingInReference.
	Source *index.FileRecord
	// Reference is the reference folder's newest record, when one exists.
	Reference *index.FileRecord
	// DestPath is the file that will be overwritten, set for Outdated.
	// Copy-in destinations depend on the folder-organization convention
	// and are resolved at execution time.
	DestPath string
}

// 📋 Plan is the ordered action list for one reconciliation run
type Plan struct {
	ReferenceFolder string
	TargetFolder    string
	Actions         []Action
}

// 🔧 Options restricts and parameterizes planning
type Options struct {
	// CodeFilter, when non-empty, limits planning to these normalized
	// codes (file integration limits runs to the selected codes).
	CodeFilter map[string]struct{}
}

// 🧮 Build compares the two indexes and produces the plan: exactly one
// action per code of the union (restricted to the filter), in ascending
// code order. Equal modified times classify as Match, since no update is
// the safe default when timestamps cannot order the copies.
func Build(ref, tgt *index.FolderIndex, opts Options) *Plan {
	p := &Plan{
		ReferenceFolder: ref.Folder(),
		TargetFolder:    tgt.Folder(),
	}

	codes := unionCodes(ref, tgt, opts.CodeFilter)
	p.Actions = make([]Action, 0, len(codes))

	for _, c := range codes {
		p.Actions = append(p.Actions, classify(c, ref, tgt))
	}

	return p
}

// classify produces the single action for one code.
func classify(c string, ref, tgt *index.FolderIndex) Action {
	refRecs := ref.Records(c)
	tgtNewest, inTarget := tgt.Newest(c)

	switch {
	case len(refRecs) > 1:
		newest := refRecs[0]
		act := Action{Kind: Ambiguous, Code: c, Reference: &newest}
		if inTarget {
			act.Source = &tgtNewest
		}
		return act

	case len(refRecs) == 1 && inTarget:
		refNewest := refRecs[0]
		if refNewest.ModTime.Before(tgtNewest.ModTime) {
			return Action{
				Kind:      Outdated,
				Code:      c,
				Source:    &tgtNewest,
				Reference: &refNewest,
				DestPath:  refNewest.AbsolutePath,
			}
		}
		return Action{Kind: Match, Code: c, Source: &tgtNewest, Reference: &refNewest}

	case len(refRecs) == 1:
		refNewest := refRecs[0]
		return Action{Kind: ExtraInReference, Code: c, Reference: &refNewest}

	default:
		return Action{Kind: MissingInReference, Code: c, Source: &tgtNewest}
	}
}

// unionCodes merges the code sets of both indexes, restricted to the
// filter, in ascending order.
func unionCodes(ref, tgt *index.FolderIndex, filter map[string]struct{}) []string {
	seen := make(map[string]struct{})
	var codes []string

	add := func(c string) {
		if filter != nil {
			if _, ok := filter[c]; !ok {
				return
			}
		}
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		codes = append(codes, c)
	}

	for _, c := range ref.Codes() {
		add(c)
	}
	for _, c := range tgt.Codes() {
		add(c)
	}

	sort.Strings(codes)
	return codes
}

// Counts tallies the plan's actions by kind, for pre-execution display.
func (p *Plan) Counts() map[Kind]int {
	counts := make(map[Kind]int)
	for _, a := range p.Actions {
		counts[a.Kind]++
	}
	return counts
}
