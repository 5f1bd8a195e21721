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

// Package operation runs the folder reconciliation operations: scan
// (report only), update (backup-then-overwrite outdated reference
// copies) and file integration (copy selected codes into the reference
// folder). Each operation indexes both folders, builds a plan and
// executes it action by action, pushing progress and log lines to a
// session.
package operation

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// Operation keys. One session exists per key, so at most one scan, one
// update and one file integration run at a time.
const (
	KeyScan    = "scan"
	KeyUpdate  = "update"
	KeyFileAdd = "file_add"
)

// ErrUnknownCode means a file integration request named a code that the
// target folder does not carry.
var ErrUnknownCode = errors.New("code not found in target folder")

// 📣 Reporter receives execution feedback: fractional progress, the
// console-visible log and the report-only log, plus the cooperative
// cancellation flag. *session.Handle satisfies it.
type Reporter interface {
	SetProgress(percentage float64, message string)
	Log(line string)
	Internal(line string)
	Cancelled() bool
}

// 🔧 Options parameterizes plan execution
type Options struct {
	// DryRun reports what would happen without touching the filesystem.
	DryRun bool
	// CopyMissing copies target-only codes into the reference folder.
	// Off for update runs, on for file integration.
	CopyMissing bool
	// ProgressStart and ProgressEnd map execution progress onto a slice
	// of the overall operation's percentage range. Both zero means the
	// full 0-100 range.
	ProgressStart float64
	ProgressEnd   float64
}

// 🎬 ActionResult is the executed outcome of one plan action, kept in
// plan order for structured rendering by callers.
type ActionResult struct {
	Code      string
	FileName  string
	Status    string
	Updated   bool
	Added     bool
	Failed    bool
	Ambiguous bool
}

// 📊 Summary tallies the outcome of one executed plan. Updated and Added
// count applied mutations only; a dry run tallies what it found under
// Outdated and Missing instead.
type Summary struct {
	Matched   int
	Outdated  int
	Updated   int
	Added     int
	Missing   int
	Extra     int
	Ambiguous int
	Failed    int

	Results []ActionResult
}

// Lines renders the summary for the downloadable report.
func (s Summary) Lines() []string {
	return []string{
		fmt.Sprintf("Matched: %d", s.Matched),
		fmt.Sprintf("Outdated: %d", s.Outdated),
		fmt.Sprintf("Updated: %d", s.Updated),
		fmt.Sprintf("Added: %d", s.Added),
		fmt.Sprintf("Missing in reference: %d", s.Missing),
		fmt.Sprintf("Extra in reference: %d", s.Extra),
		fmt.Sprintf("Ambiguous: %d", s.Ambiguous),
		fmt.Sprintf("Failed: %d", s.Failed),
	}
}
