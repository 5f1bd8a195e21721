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

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	codeIndent  = 4  // spaces to indent code entries
	codeWidth   = 20 // Base width for the code
	nameWidth   = 35 // Width for the file name
	statusWidth = 20 // Width for status text
)

// 🎯 CodeAction represents one reconciled code for logging
type CodeAction struct {
	Code        string // Normalized code
	FileName    string // Newest file carrying the code
	Status      string // Human-readable outcome
	IsUpdated   bool   // Whether the reference copy was replaced
	IsAdded     bool   // Whether the file was copied into the reference folder
	IsFailed    bool   // Whether the action failed
	IsAmbiguous bool   // Whether the code was skipped as ambiguous
}

// 📦 RunBanner describes one operation run for the console header
type RunBanner struct {
	Type            string // Operation type (scan/update/file_add)
	ReferenceFolder string // Folder being reconciled
	TargetFolder    string // Folder providing the newest copies
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog       zerolog.Logger
	console    io.Writer
	mu         sync.Mutex
	currentRun *RunBanner
	actions    []CodeAction
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatCodeAction formats a reconciled code for display
func (l *Logger) formatCodeAction(act CodeAction) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case act.IsFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	case act.IsAdded:
		symbol = '✓'
		symbolColor = color.FgGreen
	case act.IsUpdated:
		symbol = '⟳'
		symbolColor = color.FgBlue
	case act.IsAmbiguous:
		symbol = '!'
		symbolColor = color.FgYellow
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", codeIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", codeWidth, act.Code),
		fmt.Sprintf("%-*s", nameWidth, act.FileName),
		fmt.Sprintf("%-*s", statusWidth, act.Status))
}

// 📝 LogCodeAction logs one reconciled code
func (l *Logger) LogCodeAction(ctx context.Context, act CodeAction) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.actions = append(l.actions, act)

	fmt.Fprintln(l.console, l.formatCodeAction(act))

	l.zlog.Info().
		Str("code", act.Code).
		Str("file", act.FileName).
		Str("status", act.Status).
		Bool("is_updated", act.IsUpdated).
		Bool("is_added", act.IsAdded).
		Bool("is_failed", act.IsFailed).
		Bool("is_ambiguous", act.IsAmbiguous).
		Msg("code action")
}

// 📝 StartRun starts a new operation run
func (l *Logger) StartRun(ctx context.Context, run RunBanner) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentRun = &run
	l.actions = nil

	fmt.Fprintf(l.console, "[%s %s]\n",
		run.Type,
		color.New(color.FgCyan).Sprint(run.ReferenceFolder))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(run.ReferenceFolder),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(run.TargetFolder))

	l.zlog.Info().
		Str("operation", run.Type).
		Str("reference", run.ReferenceFolder).
		Str("target", run.TargetFolder).
		Msg("starting operation run")
}

// 📝 EndRun ends the current operation run
func (l *Logger) EndRun(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentRun == nil {
		return
	}

	l.zlog.Info().
		Str("operation", l.currentRun.Type).
		Int("codes", len(l.actions)).
		Msg("operation run complete")

	l.currentRun = nil
	l.actions = nil
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	refsyncText := color.New(color.Bold, color.FgCyan).Sprint("refsync")
	fmt.Fprintf(l.console, "\n%s %s\n\n", refsyncText, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
