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

package operation

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/schemini/refsync/pkg/config"
	"github.com/schemini/refsync/pkg/plan"
	"github.com/schemini/refsync/pkg/session"
	"gitlab.com/tozd/go/errors"
)

// 🚀 Execute walks the plan in order and applies each action. Per-action
// failures are logged and tallied, never fatal: the walk always reaches
// the end unless cancellation is requested between actions, in which
// case already-applied actions stay applied and session.ErrCancelled is
// returned with the partial summary.
func Execute(ctx context.Context, p *plan.Plan, cfg *config.Config, opts Options, rep Reporter) (Summary, error) {
	logger := zerolog.Ctx(ctx)

	start, end := opts.ProgressStart, opts.ProgressEnd
	if start == 0 && end == 0 {
		end = 100
	}

	var sum Summary
	total := len(p.Actions)
	sum.Results = make([]ActionResult, 0, total)

	for i, act := range p.Actions {
		if rep.Cancelled() {
			rep.Log("Cancellation requested, stopping")
			return sum, errors.Errorf("executing plan: %w", session.ErrCancelled)
		}

		res := ActionResult{Code: act.Code}
		if act.Source != nil {
			res.FileName = act.Source.FileName
		} else if act.Reference != nil {
			res.FileName = act.Reference.FileName
		}

		switch act.Kind {
		case plan.Match:
			sum.Matched++
			res.Status = "MATCH"
			rep.Internal(fmt.Sprintf("Match: %s (%s)", act.Code, act.Reference.FileName))

		case plan.Outdated:
			if opts.DryRun {
				sum.Outdated++
				res.Status = "OUTDATED"
				rep.Log(fmt.Sprintf("Outdated: %s (reference %s older than %s)",
					act.Code, act.Reference.FileName, act.Source.FileName))
				break
			}
			if err := overwrite(act, cfg.Backup.Suffix); err != nil {
				sum.Failed++
				res.Status = "FAILED"
				res.Failed = true
				rep.Log(fmt.Sprintf("Failed to update %s: %v", act.Code, err))
				logger.Error().Str("code", act.Code).Err(err).Msg("update failed")
				break
			}
			sum.Updated++
			res.Status = "UPDATED"
			res.Updated = true
			rep.Log(fmt.Sprintf("Updated: %s (%s <- %s)", act.Code, act.Reference.FileName, act.Source.FileName))

		case plan.MissingInReference:
			if opts.DryRun || !opts.CopyMissing {
				sum.Missing++
				res.Status = "MISSING"
				rep.Log(fmt.Sprintf("Missing in reference: %s (%s)", act.Code, act.Source.FileName))
				break
			}
			if err := copyIn(act, p.ReferenceFolder, cfg); err != nil {
				sum.Failed++
				res.Status = "FAILED"
				res.Failed = true
				rep.Log(fmt.Sprintf("Failed to add %s: %v", act.Code, err))
				logger.Error().Str("code", act.Code).Err(err).Msg("copy-in failed")
				break
			}
			sum.Added++
			res.Status = "ADDED"
			res.Added = true
			rep.Log(fmt.Sprintf("Added: %s (%s)", act.Code, act.Source.FileName))

		case plan.ExtraInReference:
			sum.Extra++
			res.Status = "EXTRA"
			rep.Log(fmt.Sprintf("Extra in reference: %s (%s)", act.Code, act.Reference.FileName))

		case plan.Ambiguous:
			sum.Ambiguous++
			res.Status = "AMBIGUOUS"
			res.Ambiguous = true
			rep.Log(fmt.Sprintf("Ambiguous: %s has multiple reference files, skipping", act.Code))
			logger.Warn().Str("code", act.Code).Msg("ambiguous code skipped")
		}

		sum.Results = append(sum.Results, res)

		pct := start + (end-start)*float64(i+1)/float64(total)
		rep.SetProgress(pct, fmt.Sprintf("Processing %s (%d/%d)", act.Code, i+1, total))
	}

	return sum, nil
}

// overwrite applies the safe-overwrite protocol to one outdated action:
// the current reference file is copied aside under the backup suffix,
// then replaced by the target's newest copy with its modified time
// preserved. Backup retention is single-generation.
func overwrite(act plan.Action, backupSuffix string) error {
	backupPath := act.DestPath + backupSuffix
	if err := copyFile(act.DestPath, backupPath); err != nil {
		return errors.Errorf("backing up %s: %w", act.Reference.FileName, err)
	}
	if err := copyFile(act.Source.AbsolutePath, act.DestPath); err != nil {
		return errors.Errorf("overwriting %s: %w", act.Reference.FileName, err)
	}
	if err := os.Chtimes(act.DestPath, act.Source.ModTime, act.Source.ModTime); err != nil {
		return errors.Errorf("preserving modified time of %s: %w", act.Reference.FileName, err)
	}
	return nil
}

// copyIn copies a target-only file into the reference folder, honoring
// the folder-organization convention: when a per-code subfolder is
// configured it is created on demand and the file lands inside it.
func copyIn(act plan.Action, referenceFolder string, cfg *config.Config) error {
	destDir := referenceFolder
	if sub := cfg.SubfolderFor(act.Code); sub != "" {
		destDir = filepath.Join(referenceFolder, sub)
		if err := os.MkdirAll(destDir, 0755); err != nil {
			return errors.Errorf("creating subfolder for %s: %w", act.Code, err)
		}
	}

	destPath := filepath.Join(destDir, act.Source.FileName)
	if err := copyFile(act.Source.AbsolutePath, destPath); err != nil {
		return errors.Errorf("copying %s: %w", act.Source.FileName, err)
	}
	if err := os.Chtimes(destPath, act.Source.ModTime, act.Source.ModTime); err != nil {
		return errors.Errorf("preserving modified time of %s: %w", act.Source.FileName, err)
	}
	return nil
}

// copyFile copies src to dst byte for byte, truncating any existing dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Errorf("creating destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Errorf("copying bytes: %w", err)
	}
	if err := out.Close(); err != nil {
		return errors.Errorf("flushing destination: %w", err)
	}
	return nil
}
