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

// Package config holds the refsync configuration: the safe-overwrite
// backup convention, the folder-organization convention, indexer
// filtering, and report output. These conventions are supplied by the
// caller; the engine hardcodes none of them.
package config

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 💾 BackupArgs controls the safe-overwrite protocol
type BackupArgs struct {
	// Suffix is appended to a reference file's name before it is
	// overwritten. Retention is single-generation: an existing backup is
	// itself overwritten.
	Suffix string `json:"suffix,omitempty" yaml:"suffix,omitempty" hcl:"suffix,optional"`
}

// 🗂️ LayoutArgs is the folder-organization convention for files copied
// into the reference folder
type LayoutArgs struct {
	// CodeSubfolder is a template for a per-code subfolder created under
	// the reference folder on copy-in; "{code}" expands to the normalized
	// code. Empty means flat: files land directly in the reference folder.
	CodeSubfolder string `json:"code_subfolder,omitempty" yaml:"code_subfolder,omitempty" hcl:"code_subfolder,optional"`
}

// 🔍 IndexArgs controls folder indexing
type IndexArgs struct {
	// IgnorePatterns are doublestar globs matched against file names;
	// matching files are never indexed.
	IgnorePatterns []string `json:"ignore_patterns,omitempty" yaml:"ignore_patterns,omitempty" hcl:"ignore_patterns,optional"`
	// ProgressBatch is the minimum number of files between progress ticks
	// while indexing.
	ProgressBatch int `json:"progress_batch,omitempty" yaml:"progress_batch,omitempty" hcl:"progress_batch,optional"`
}

// 📝 LogsArgs controls where downloadable operation reports are written
type LogsArgs struct {
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty" hcl:"dir,optional"`
}

// 📚 Config is the complete refsync configuration
type Config struct {
	Backup BackupArgs `json:"backup,omitempty" yaml:"backup,omitempty" hcl:"backup,block"`
	Layout LayoutArgs `json:"layout,omitempty" yaml:"layout,omitempty" hcl:"layout,block"`
	Index  IndexArgs  `json:"index,omitempty" yaml:"index,omitempty" hcl:"index,block"`
	Logs   LogsArgs   `json:"logs,omitempty" yaml:"logs,omitempty" hcl:"logs,block"`

	// location is the path this config was loaded from, for diagnostics
	location string
}

const (
	// DefaultBackupSuffix is appended to overwritten reference files.
	DefaultBackupSuffix = ".backup"
	// DefaultProgressBatch is the minimum file count between indexing
	// progress ticks.
	DefaultProgressBatch = 50
	// DefaultLogsDir receives the downloadable operation reports.
	DefaultLogsDir = "logs"
)

// 🏭 Default returns the configuration used when no config file is given
func Default() *Config {
	return &Config{
		Backup: BackupArgs{Suffix: DefaultBackupSuffix},
		Index:  IndexArgs{ProgressBatch: DefaultProgressBatch},
		Logs:   LogsArgs{Dir: DefaultLogsDir},
	}
}

// Location returns the path the config was loaded from, if any.
func (c *Config) Location() string {
	return c.location
}

// SubfolderFor expands the layout convention for a normalized code.
// Empty means the reference folder itself.
func (c *Config) SubfolderFor(normalizedCode string) string {
	if c.Layout.CodeSubfolder == "" {
		return ""
	}
	return strings.ReplaceAll(c.Layout.CodeSubfolder, "{code}", normalizedCode)
}

// applyDefaults fills unset fields so loaded configs behave like Default.
func (c *Config) applyDefaults() {
	if c.Backup.Suffix == "" {
		c.Backup.Suffix = DefaultBackupSuffix
	}
	if c.Index.ProgressBatch == 0 {
		c.Index.ProgressBatch = DefaultProgressBatch
	}
	if c.Logs.Dir == "" {
		c.Logs.Dir = DefaultLogsDir
	}
}

// ✅ Validate checks the configuration for values the engine cannot work
// with
func Validate(ctx context.Context, cfg *Config) error {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("location", cfg.location).Msg("validating config")

	if strings.TrimSpace(cfg.Backup.Suffix) == "" {
		return errors.Errorf("backup.suffix must not be blank")
	}
	if !strings.HasPrefix(cfg.Backup.Suffix, ".") {
		return errors.Errorf("backup.suffix %q must start with a dot", cfg.Backup.Suffix)
	}
	if cfg.Index.ProgressBatch < 1 {
		return errors.Errorf("index.progress_batch must be positive, got %d", cfg.Index.ProgressBatch)
	}
	if strings.ContainsAny(cfg.Layout.CodeSubfolder, `/\`) {
		return errors.Errorf("layout.code_subfolder %q must be a single path element", cfg.Layout.CodeSubfolder)
	}
	if cfg.Logs.Dir == "" {
		return errors.Errorf("logs.dir must not be empty")
	}

	return nil
}
