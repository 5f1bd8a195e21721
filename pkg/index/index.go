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

// Package index builds per-folder mappings from code identity to file
// records, the input of reconciliation planning.
package index

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/schemini/refsync/pkg/code"
	"gitlab.com/tozd/go/errors"
)

// ErrFolderNotFound means the folder to index does not exist or is not a
// directory. Fatal to the whole operation: no index can be built.
var ErrFolderNotFound = errors.New("folder not found")

// 📄 FileRecord is an immutable snapshot of one indexed file, taken at
// index-build time. It goes stale if the filesystem changes afterwards;
// the engine does not defend against concurrent external modification.
type FileRecord struct {
	AbsolutePath string
	FileName     string
	Code         code.Token
	ModTime      time.Time
	Size         int64
}

// 🗃️ FolderIndex maps normalized codes to the records carrying that code,
// ordered newest-first by ModTime with ties broken by FileName ascending.
// Built once per operation and discarded once a plan is produced.
type FolderIndex struct {
	folder  string
	records map[string][]FileRecord
	files   int
	skipped int
}

// Folder returns the indexed folder path.
func (x *FolderIndex) Folder() string {
	return x.folder
}

// Codes returns the normalized codes present, in ascending order.
func (x *FolderIndex) Codes() []string {
	out := make([]string, 0, len(x.records))
	for c := range x.records {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Records returns the records for a code, newest first. The returned
// slice is owned by the index and must not be mutated.
func (x *FolderIndex) Records(normalizedCode string) []FileRecord {
	return x.records[normalizedCode]
}

// Newest returns the most recent record for a code.
func (x *FolderIndex) Newest(normalizedCode string) (FileRecord, bool) {
	recs := x.records[normalizedCode]
	if len(recs) == 0 {
		return FileRecord{}, false
	}
	return recs[0], true
}

// Has reports whether any record carries the code.
func (x *FolderIndex) Has(normalizedCode string) bool {
	return len(x.records[normalizedCode]) > 0
}

// Files returns the number of indexed files.
func (x *FolderIndex) Files() int {
	return x.files
}

// Skipped returns the number of files excluded during the build
// (no-code names, ignore patterns, backup artifacts, stat failures).
func (x *FolderIndex) Skipped() int {
	return x.skipped
}

// insert places rec into the code bucket keeping the newest-first
// invariant; ModTime ties order by FileName ascending.
func (x *FolderIndex) insert(rec FileRecord) {
	key := rec.Code.Normalized
	recs := x.records[key]

	pos := len(recs)
	for i, existing := range recs {
		if rec.ModTime.After(existing.ModTime) ||
			(rec.ModTime.Equal(existing.ModTime) && rec.FileName < existing.FileName) {
			pos = i
			break
		}
	}

	recs = append(recs, FileRecord{})
	copy(recs[pos+1:], recs[pos:])
	recs[pos] = rec
	x.records[key] = recs
	x.files++
}

// 🔧 Options controls an index build
type Options struct {
	// IgnorePatterns are doublestar globs matched against file names.
	IgnorePatterns []string
	// BackupSuffix excludes backup artifacts from indexing; empty
	// disables the exclusion.
	BackupSuffix string
	// ProgressBatch is the minimum number of files between OnProgress
	// calls. Values below 1 behave as 1.
	ProgressBatch int
	// OnProgress, when set, receives a tick every batch of scanned files
	// and once at the end.
	OnProgress func(scanned, total int)
	// Cancelled, when set, is polled between batches; a true result
	// aborts the build with ErrCancelled.
	Cancelled func() bool
}

// ErrCancelled means the build observed a cancellation request and
// stopped before completing.
var ErrCancelled = errors.New("index build cancelled")

// 🏗️ Build enumerates the immediate files of folder (non-recursive, per
// the flat-folder convention) and produces its FolderIndex. Per-file stat
// failures are skipped and logged, not fatal; a missing folder is fatal
// with ErrFolderNotFound.
func Build(ctx context.Context, folder string, opts Options) (*FolderIndex, error) {
	logger := zerolog.Ctx(ctx)

	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return nil, errors.Errorf("indexing %s: %w", folder, ErrFolderNotFound)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, errors.Errorf("reading folder %s: %w", folder, err)
	}

	x := &FolderIndex{
		folder:  folder,
		records: make(map[string][]FileRecord),
	}

	batch := opts.ProgressBatch
	if batch < 1 {
		batch = 1
	}
	// Coarsen to 1% of the folder when that is larger than the batch.
	if centile := len(entries) / 100; centile > batch {
		batch = centile
	}

	scanned := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		scanned++

		if scanned%batch == 0 {
			if opts.Cancelled != nil && opts.Cancelled() {
				return nil, errors.Errorf("indexing %s: %w", folder, ErrCancelled)
			}
			if opts.OnProgress != nil {
				opts.OnProgress(scanned, len(entries))
			}
		}

		name := entry.Name()
		if opts.BackupSuffix != "" && strings.HasSuffix(name, opts.BackupSuffix) {
			x.skipped++
			continue
		}
		if ignored, pattern := matchesAny(opts.IgnorePatterns, name); ignored {
			logger.Debug().Str("file", name).Str("pattern", pattern).Msg("ignoring file")
			x.skipped++
			continue
		}

		tok := code.Resolve(name)
		if tok.IsZero() {
			logger.Warn().Str("file", name).Msg("filename carries no code, excluding from index")
			x.skipped++
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			logger.Warn().Str("file", name).Err(err).Msg("cannot stat file, skipping")
			x.skipped++
			continue
		}

		x.insert(FileRecord{
			AbsolutePath: filepath.Join(folder, name),
			FileName:     name,
			Code:         tok,
			ModTime:      fi.ModTime(),
			Size:         fi.Size(),
		})
	}

	if opts.OnProgress != nil {
		opts.OnProgress(scanned, len(entries))
	}

	logger.Debug().
		Str("folder", folder).
		Int("files", x.files).
		Int("codes", len(x.records)).
		Int("skipped", x.skipped).
		Msg("folder indexed")

	return x, nil
}

// matchesAny reports whether name matches one of the globs.
func matchesAny(patterns []string, name string) (bool, string) {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true, p
		}
	}
	return false, ""
}
