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
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/schemini/refsync/pkg/code"
	"github.com/schemini/refsync/pkg/config"
	"github.com/schemini/refsync/pkg/index"
	"github.com/schemini/refsync/pkg/plan"
	"github.com/schemini/refsync/pkg/report"
	"github.com/schemini/refsync/pkg/session"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// Progress ranges per phase. Indexing runs both folders in parallel;
// each folder owns half of the indexing range.
const (
	progressIndexEnd   = 40
	progressPlanEnd    = 45
	progressExecuteEnd = 95
)

// 🎛️ Service is the operation facade: it starts scan, update and file
// integration runs, tracks them in a session registry and writes a
// downloadable report when each run ends.
type Service struct {
	cfg      *config.Config
	registry *session.Registry
	reports  *report.Writer

	mu        sync.Mutex
	summaries map[string]Summary
}

// 🏭 NewService creates a Service over the given configuration
func NewService(cfg *config.Config) *Service {
	return &Service{
		cfg:       cfg,
		registry:  session.NewRegistry(),
		reports:   &report.Writer{Dir: cfg.Logs.Dir},
		summaries: make(map[string]Summary),
	}
}

// 🔍 StartScan starts an asynchronous dry-run comparison of the two
// folders. Nothing on disk changes.
func (s *Service) StartScan(ctx context.Context, refFolder, tgtFolder string) error {
	return s.start(ctx, KeyScan, refFolder, tgtFolder, Options{DryRun: true}, nil)
}

// ♻️ StartUpdate starts an asynchronous update run: every outdated
// reference copy is backed up and overwritten by the target's newest
// copy. Target-only codes are reported, not copied.
func (s *Service) StartUpdate(ctx context.Context, refFolder, tgtFolder string) error {
	return s.start(ctx, KeyUpdate, refFolder, tgtFolder, Options{}, nil)
}

// ➕ StartFileAdd starts an asynchronous file integration run restricted
// to the given codes: target-only codes are copied into the reference
// folder (honoring the folder-organization convention) and outdated
// ones are refreshed.
func (s *Service) StartFileAdd(ctx context.Context, refFolder, tgtFolder string, codes []string) error {
	filter := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		if n := code.Normalize(c); n != "" {
			filter[n] = struct{}{}
		}
	}
	if len(filter) == 0 {
		return errors.Errorf("file integration needs at least one code")
	}
	return s.start(ctx, KeyFileAdd, refFolder, tgtFolder, Options{CopyMissing: true}, filter)
}

// Progress returns the live snapshot of the operation for key.
func (s *Service) Progress(key string) (session.Snapshot, error) {
	return s.registry.Snapshot(key)
}

// Logs returns the console log history of the operation for key.
func (s *Service) Logs(key string) ([]string, error) {
	return s.registry.Logs(key)
}

// Cancel requests cooperative cancellation of the operation for key.
func (s *Service) Cancel(key string) error {
	return s.registry.Cancel(key)
}

// Wait blocks until the operation for key reaches a terminal status.
func (s *Service) Wait(key string) error {
	return s.registry.Wait(key)
}

// ReportPath resolves a report file name to its on-disk path.
func (s *Service) ReportPath(name string) string {
	return filepath.Join(s.cfg.Logs.Dir, name)
}

// LastSummary returns the executed summary of the most recent run for
// key, including its per-action results. Only set once that run's
// execution phase has finished.
func (s *Service) LastSummary(key string) (Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.summaries[key]
	return sum, ok
}

func (s *Service) setSummary(key string, sum Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[key] = sum
}

// start validates the folders synchronously, then hands the pipeline to
// the session registry. Validation failures surface on the start call
// itself, never as a failed session.
func (s *Service) start(ctx context.Context, key, refFolder, tgtFolder string, opts Options, filter map[string]struct{}) error {
	for _, folder := range []string{refFolder, tgtFolder} {
		info, err := os.Stat(folder)
		if err != nil || !info.IsDir() {
			return errors.Errorf("checking %s: %w", folder, index.ErrFolderNotFound)
		}
	}

	return s.registry.Start(ctx, key, func(ctx context.Context, h *session.Handle) error {
		return s.run(ctx, key, refFolder, tgtFolder, opts, filter, h)
	})
}

// run is the full pipeline of one operation: index both folders in
// parallel, plan, execute, write the report. It always tries to write a
// report, including for cancelled runs.
func (s *Service) run(ctx context.Context, key, refFolder, tgtFolder string, opts Options, filter map[string]struct{}, h *session.Handle) error {
	logger := zerolog.Ctx(ctx)
	startedAt := time.Now()

	h.SetProgress(1, "Indexing folders...")
	h.Log(fmt.Sprintf("Starting %s: reference=%s target=%s", key, refFolder, tgtFolder))

	refIdx, tgtIdx, err := s.buildIndexes(ctx, refFolder, tgtFolder, h)
	if err != nil {
		if errors.Is(err, index.ErrCancelled) {
			s.writeReport(ctx, key, startedAt, refFolder, tgtFolder, filter, Summary{}, h)
			return errors.Errorf("indexing: %w", session.ErrCancelled)
		}
		h.Log(fmt.Sprintf("Indexing failed: %v", err))
		return err
	}

	h.SetProgress(progressIndexEnd, "Folders indexed")
	h.Log(fmt.Sprintf("Indexed reference: %d files, %d skipped", refIdx.Files(), refIdx.Skipped()))
	h.Log(fmt.Sprintf("Indexed target: %d files, %d skipped", tgtIdx.Files(), tgtIdx.Skipped()))

	if len(filter) > 0 {
		found := 0
		for c := range filter {
			if tgtIdx.Has(c) {
				found++
			} else {
				h.Log(fmt.Sprintf("Code %s not found in target folder, skipping", c))
			}
		}
		if found == 0 {
			h.Log("None of the selected codes exist in the target folder")
			return errors.Errorf("file integration: %w", ErrUnknownCode)
		}
	}

	p := plan.Build(refIdx, tgtIdx, plan.Options{CodeFilter: filter})
	h.SetProgress(progressPlanEnd, "Plan ready")
	h.Internal(fmt.Sprintf("Plan: %d actions", len(p.Actions)))
	logger.Debug().Str("operation", key).Int("actions", len(p.Actions)).Msg("plan built")

	if len(p.Actions) == 0 {
		h.Log("Nothing to do")
	}

	opts.ProgressStart = progressPlanEnd
	opts.ProgressEnd = progressExecuteEnd
	sum, execErr := Execute(ctx, p, s.cfg, opts, h)
	s.setSummary(key, sum)

	for _, line := range sum.Lines() {
		h.Log(line)
	}
	s.writeReport(ctx, key, startedAt, refFolder, tgtFolder, filter, sum, h)

	if execErr != nil {
		return execErr
	}
	h.SetProgress(100, "Completed")
	return nil
}

// buildIndexes indexes both folders concurrently. Each folder owns half
// of the indexing progress range.
func (s *Service) buildIndexes(ctx context.Context, refFolder, tgtFolder string, h *session.Handle) (*index.FolderIndex, *index.FolderIndex, error) {
	baseOpts := index.Options{
		IgnorePatterns: s.cfg.Index.IgnorePatterns,
		BackupSuffix:   s.cfg.Backup.Suffix,
		ProgressBatch:  s.cfg.Index.ProgressBatch,
		Cancelled:      h.Cancelled,
	}
	half := float64(progressIndexEnd) / 2

	var refIdx, tgtIdx *index.FolderIndex
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		opts := baseOpts
		opts.OnProgress = func(scanned, total int) {
			if total > 0 {
				h.SetProgress(half*float64(scanned)/float64(total), "Indexing reference folder...")
			}
		}
		var err error
		refIdx, err = index.Build(gctx, refFolder, opts)
		return err
	})
	g.Go(func() error {
		opts := baseOpts
		opts.OnProgress = func(scanned, total int) {
			if total > 0 {
				h.SetProgress(half+half*float64(scanned)/float64(total), "Indexing target folder...")
			}
		}
		var err error
		tgtIdx, err = index.Build(gctx, tgtFolder, opts)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return refIdx, tgtIdx, nil
}

// writeReport persists the downloadable report and records its name on
// the session. Report failures are logged, never fatal to the run.
func (s *Service) writeReport(ctx context.Context, key string, startedAt time.Time, refFolder, tgtFolder string, filter map[string]struct{}, sum Summary, h *session.Handle) {
	logger := zerolog.Ctx(ctx)

	details := []report.Detail{
		{Key: "Reference Folder", Value: refFolder},
		{Key: "Target Folder", Value: tgtFolder},
	}
	if len(filter) > 0 {
		codes := make([]string, 0, len(filter))
		for c := range filter {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		details = append(details, report.Detail{Key: "Selected Codes", Value: strings.Join(codes, ", ")})
	}

	logs, err := s.registry.FullLogs(key)
	if err != nil {
		logger.Error().Err(err).Msg("cannot collect logs for report")
		return
	}

	name, err := s.reports.Write(ctx, key, startedAt, details, logs, sum.Lines())
	if err != nil {
		logger.Error().Err(err).Msg("cannot write operation report")
		h.Log(fmt.Sprintf("Report could not be written: %v", err))
		return
	}
	h.SetReportFile(name)
}
