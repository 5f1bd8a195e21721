package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/schemini/refsync/cmd/refsync/opts"
	"github.com/schemini/refsync/pkg/log"
	"github.com/schemini/refsync/pkg/session"
	"gitlab.com/tozd/go/errors"
)

// pollInterval is how often the console refreshes the operation state.
const pollInterval = 100 * time.Millisecond

// follow renders the progress of a running operation until it reaches a
// terminal status, streaming new log lines above the progress bar. A
// cancelled context requests cooperative cancellation and keeps
// following until the operation acknowledges it.
func follow(ctx context.Context, o *opts.RootOpts, key string) error {
	bar, err := pterm.DefaultProgressbar.WithTotal(100).WithTitle("Starting...").Start()
	if err != nil {
		return errors.Errorf("starting progress bar: %w", err)
	}

	printed := 0
	cancelSent := false
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if !cancelSent {
				cancelSent = true
				if err := o.Service.Cancel(key); err != nil {
					bar.Stop()
					return errors.Errorf("requesting cancellation: %w", err)
				}
				bar.UpdateTitle("Cancelling...")
			}
		case <-ticker.C:
		}

		snap, err := o.Service.Progress(key)
		if err != nil {
			bar.Stop()
			return errors.Errorf("polling %s: %w", key, err)
		}

		// printed is a cursor into the full console sequence; LogStart
		// re-bases it when retention dropped lines between polls.
		if printed < snap.LogStart {
			pterm.Println(pterm.Gray(fmt.Sprintf("... %d earlier lines in the report ...", snap.LogStart-printed)))
			printed = snap.LogStart
		}
		for ; printed-snap.LogStart < len(snap.Logs); printed++ {
			pterm.Println(snap.Logs[printed-snap.LogStart])
		}
		if cur := int(snap.Percentage); cur > bar.Current {
			bar.Add(cur - bar.Current)
		}
		if snap.Message != "" {
			bar.UpdateTitle(snap.Message)
		}

		if !snap.Status.Terminal() {
			continue
		}
		bar.Stop()

		switch snap.Status {
		case session.StatusCompleted:
			renderResults(ctx, o, key)
			o.UserLogger.Success("Operation completed")
		case session.StatusCancelled:
			o.UserLogger.Warning("Operation cancelled")
		case session.StatusFailed:
			o.UserLogger.Errorf("Operation failed: %s", snap.Error)
			return errors.Errorf("%s failed: %s", key, snap.Error)
		}
		if snap.ReportFile != "" {
			o.UserLogger.Infof("Report written to %s", o.Service.ReportPath(snap.ReportFile))
		}
		return nil
	}
}

// renderResults prints the per-code recap of a completed run. Matches
// are left to the report; the console shows only codes that needed
// attention or changed.
func renderResults(ctx context.Context, o *opts.RootOpts, key string) {
	sum, ok := o.Service.LastSummary(key)
	if !ok {
		return
	}

	o.UserLogger.LogNewline()
	for _, res := range sum.Results {
		if res.Status == "MATCH" {
			continue
		}
		o.UserLogger.LogCodeAction(ctx, log.CodeAction{
			Code:        res.Code,
			FileName:    res.FileName,
			Status:      res.Status,
			IsUpdated:   res.Updated,
			IsAdded:     res.Added,
			IsFailed:    res.Failed,
			IsAmbiguous: res.Ambiguous,
		})
	}
}
