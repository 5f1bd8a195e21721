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

// Package report writes the downloadable per-operation log files:
// one plain-text report per completed (or cancelled) run, named
// deterministically from the operation type and start timestamp.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const banner = "================================================================================"
const divider = "------------------------------------------------------------"

// 🧾 Detail is one key/value row of the report's operation-details block.
// Order matters, so details travel as a slice rather than a map.
type Detail struct {
	Key   string
	Value string
}

// 📝 Writer produces report files under Dir, creating it on demand
type Writer struct {
	Dir string
}

// FileName returns the deterministic report name for an operation run.
func FileName(opType string, startedAt time.Time) string {
	return fmt.Sprintf("%s_%s.log", opType, startedAt.Format("20060102_150405"))
}

// 🖨️ Write renders and persists the report for one operation run and
// returns the report's file name (not its full path). The report holds
// the full ordered log followed by the final summary.
func (w *Writer) Write(ctx context.Context, opType string, startedAt time.Time, details []Detail, logs, summary []string) (string, error) {
	logger := zerolog.Ctx(ctx)

	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", errors.Errorf("creating report dir: %w", err)
	}

	name := FileName(opType, startedAt)
	path := filepath.Join(w.Dir, name)

	var b strings.Builder
	b.WriteString(banner + "\n")
	b.WriteString("REFSYNC - DETAILED OPERATION REPORT\n")
	b.WriteString(banner + "\n\n")

	b.WriteString("OPERATION DETAILS:\n")
	b.WriteString(fmt.Sprintf("   - Operation Type: %s\n", strings.ToUpper(opType)))
	for _, d := range details {
		b.WriteString(fmt.Sprintf("   - %s: %s\n", d.Key, d.Value))
	}
	b.WriteString("\n")

	b.WriteString("OPERATION LOG:\n")
	b.WriteString(divider + "\n")
	for _, line := range logs {
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	if len(summary) > 0 {
		b.WriteString("SUMMARY:\n")
		b.WriteString(divider + "\n")
		for _, line := range summary {
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(banner + "\n")
	b.WriteString(fmt.Sprintf("Report creation date: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	b.WriteString(banner + "\n")

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", errors.Errorf("writing report %s: %w", name, err)
	}

	logger.Debug().Str("report", path).Msg("operation report written")
	return name, nil
}
