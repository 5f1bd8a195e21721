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

// Package session tracks the live state of asynchronous folder
// operations: status, fractional progress, ordered log lines, and a
// cooperative cancellation flag. One session exists per operation key;
// starting a new run under a key replaces the previous session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🚦 Status is the lifecycle state of a session
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions can happen without a
// new run.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

var (
	// ErrAlreadyRunning rejects a start request while a session for the
	// same key is running.
	ErrAlreadyRunning = errors.New("operation already running")
	// ErrCancelled is returned by operation work to signal that it
	// stopped on a cancellation request. Already-applied mutations are
	// not rolled back.
	ErrCancelled = errors.New("operation cancelled")
	// ErrNoSession means no operation has ever run under the key.
	ErrNoSession = errors.New("no session for key")
)

// 📸 Snapshot is the fixed, JSON-serializable view of a session handed to
// pollers. Readers always get an internally consistent copy, never a
// partially written one.
type Snapshot struct {
	Key        string    `json:"key"`
	Status     Status    `json:"status"`
	Percentage float64   `json:"percentage"`
	Message    string    `json:"message"`
	Logs       []string  `json:"logs"`
	// LogStart is the position of Logs[0] within the full ordered console
	// sequence. It grows whenever retention drops old lines, so a poller
	// tracking a cursor across snapshots can detect dropped stretches
	// instead of misreading the trimmed slice.
	LogStart   int       `json:"log_start"`
	Error      string    `json:"error,omitempty"`
	ReportFile string    `json:"report_file,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// UI log retention: past the cap the oldest lines are dropped so a
// long-running session cannot grow without bound. The full log kept for
// the report is never trimmed.
const (
	uiLogCap    = 1000
	uiLogRetain = 700
)

// session is the registry-internal state of one operation run.
type session struct {
	mu sync.RWMutex

	key        string
	status     Status
	percentage float64
	message    string
	logs       []string
	logStart   int
	fullLogs   []string
	err        string
	reportFile string
	startedAt  time.Time
	finishedAt time.Time

	cancelRequested bool
	done            chan struct{}
}

// 🧰 Handle is given to an operation's work function to push progress and
// log lines and to poll for cancellation. It is only valid while the
// work function runs.
type Handle struct {
	s *session
}

// SetProgress updates the fractional progress and status message.
// Percentage is clamped to [0,100] and never regresses.
func (h *Handle) SetProgress(percentage float64, message string) {
	s := h.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if percentage > 100 {
		percentage = 100
	}
	if percentage > s.percentage {
		s.percentage = percentage
	}
	if message != "" {
		s.message = message
	}
}

// Log appends a console-visible line. The line also lands in the full
// log used for the downloadable report.
func (h *Handle) Log(line string) {
	s := h.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fullLogs = append(s.fullLogs, line)
	s.logs = append(s.logs, line)
	if len(s.logs) > uiLogCap {
		s.logStart += len(s.logs) - uiLogRetain
		trimmed := make([]string, uiLogRetain)
		copy(trimmed, s.logs[len(s.logs)-uiLogRetain:])
		s.logs = trimmed
	}
}

// Internal appends a line that only appears in the downloadable report,
// not in the console log.
func (h *Handle) Internal(line string) {
	s := h.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fullLogs = append(s.fullLogs, line)
}

// Cancelled reports whether cancellation has been requested. Work must
// poll this between discrete actions; cancellation is never preemptive.
func (h *Handle) Cancelled() bool {
	s := h.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancelRequested
}

// SetReportFile records the downloadable report produced by the run.
func (h *Handle) SetReportFile(name string) {
	s := h.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportFile = name
}

// 🗂️ Registry owns every operation session, keyed by operation
// identifier. All access goes through the narrow
// start/snapshot/logs/cancel contract; sessions are never handed out
// directly.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
}

// 🏭 NewRegistry creates an empty session registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*session),
	}
}

// 🏁 Start creates a fresh session for key and runs work in its own
// goroutine. A running session under the same key rejects the start with
// ErrAlreadyRunning; a terminal one is replaced. Work's return value
// decides the terminal status: nil completes, ErrCancelled cancels,
// anything else fails.
func (r *Registry) Start(ctx context.Context, key string, work func(ctx context.Context, h *Handle) error) error {
	logger := zerolog.Ctx(ctx)

	r.mu.Lock()
	if prev, ok := r.sessions[key]; ok {
		prev.mu.RLock()
		running := prev.status == StatusRunning
		prev.mu.RUnlock()
		if running {
			r.mu.Unlock()
			return errors.Errorf("starting %s: %w", key, ErrAlreadyRunning)
		}
	}

	s := &session{
		key:       key,
		status:    StatusRunning,
		message:   "Starting...",
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}
	r.sessions[key] = s
	r.mu.Unlock()

	logger.Info().Str("operation", key).Msg("operation started")

	go func() {
		defer close(s.done)

		err := work(ctx, &Handle{s: s})

		s.mu.Lock()
		defer s.mu.Unlock()
		s.finishedAt = time.Now()

		switch {
		case err == nil:
			s.status = StatusCompleted
			s.percentage = 100
			s.message = "Completed"
			logger.Info().Str("operation", key).Msg("operation completed")
		case errors.Is(err, ErrCancelled):
			s.status = StatusCancelled
			s.message = "Cancelled"
			logger.Warn().Str("operation", key).Msg("operation cancelled")
		default:
			s.status = StatusFailed
			s.message = "Error"
			s.err = err.Error()
			logger.Error().Str("operation", key).Err(err).Msg("operation failed")
		}
	}()

	return nil
}

// lookup returns the session for key.
func (r *Registry) lookup(key string) (*session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	if !ok {
		return nil, errors.Errorf("looking up %s: %w", key, ErrNoSession)
	}
	return s, nil
}

// 📸 Snapshot returns a consistent copy of the session state for key
func (r *Registry) Snapshot(key string) (Snapshot, error) {
	s, err := r.lookup(key)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]string, len(s.logs))
	copy(logs, s.logs)

	return Snapshot{
		Key:        s.key,
		Status:     s.status,
		Percentage: s.percentage,
		Message:    s.message,
		Logs:       logs,
		LogStart:   s.logStart,
		Error:      s.err,
		ReportFile: s.reportFile,
		StartedAt:  s.startedAt,
		FinishedAt: s.finishedAt,
	}, nil
}

// 📜 Logs returns the full console log history for key (not a diff)
func (r *Registry) Logs(key string) ([]string, error) {
	s, err := r.lookup(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]string, len(s.logs))
	copy(logs, s.logs)
	return logs, nil
}

// 📜 FullLogs returns the complete log including report-only lines
func (r *Registry) FullLogs(key string) ([]string, error) {
	s, err := r.lookup(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]string, len(s.fullLogs))
	copy(logs, s.fullLogs)
	return logs, nil
}

// 🛑 Cancel requests cooperative cancellation of the running operation
// for key. The worker honors it between actions, never mid-copy.
func (r *Registry) Cancel(key string) error {
	s, err := r.lookup(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelRequested = true
	return nil
}

// ⏳ Wait blocks until the session for key reaches a terminal status
func (r *Registry) Wait(key string) error {
	s, err := r.lookup(key)
	if err != nil {
		return err
	}
	<-s.done
	return nil
}
