// Package agent sequences one capture cycle: idle gate, screenshot, app
// enumeration, continuity analysis, AI description, log append, notes
// delivery, and the periodic summary rollup.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/glance/internal/activity"
	"github.com/hpungsan/glance/internal/errors"
	"github.com/hpungsan/glance/internal/logging"
	"github.com/hpungsan/glance/internal/schedule"
	"github.com/hpungsan/glance/internal/store"
	"github.com/hpungsan/glance/internal/summary"
)

// Collaborator interfaces. The darwin implementations live in internal/macos;
// tests substitute fakes.

// Screenshotter captures the screen to a file.
type Screenshotter interface {
	Capture() (string, error)
}

// Optimizer downscales a screenshot, returning the original path on failure.
type Optimizer interface {
	Optimize(path string) string
}

// AppLister enumerates open applications.
type AppLister interface {
	ListOpenApps() ([]activity.AppInfo, error)
}

// IdleSource reports device idle time.
type IdleSource interface {
	IdleMilliseconds() (int64, error)
}

// AIService is the vision/text collaborator.
type AIService interface {
	Describe(ctx context.Context, imagePath string, apps []activity.AppInfo, hint string) (string, error)
	Synthesize(ctx context.Context, prompt string) (string, error)
}

// NotesSink forwards text to the notes app, best-effort.
type NotesSink interface {
	Append(text string) bool
}

// Outcome classifies how a cycle ended.
type Outcome string

const (
	OutcomeAFK      Outcome = "afk"      // user idle, nothing captured
	OutcomeCaptured Outcome = "captured" // a record was appended
	OutcomeFailed   Outcome = "failed"   // the cycle aborted; logged, not fatal
)

// CycleResult reports what one capture cycle did.
type CycleResult struct {
	Outcome        Outcome
	Record         *activity.Record
	Continuity     *activity.ContinuityResult
	Summary        string // non-empty when a rollup was emitted this cycle
	NotesDelivered bool
}

// Agent owns the collaborators for a capture cycle. One agent serves one
// process invocation; the external scheduler provides the cadence.
type Agent struct {
	Store            *store.Store
	Scheduler        *schedule.Scheduler
	Shots            Screenshotter
	Optimizer        Optimizer
	Apps             AppLister
	Idle             IdleSource
	AI               AIService
	Notes            NotesSink
	IdleThresholdMin int

	// Now is the clock, injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

func (a *Agent) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *Agent) log() *logrus.Logger {
	return logging.Logger
}

// RunCycle executes one capture cycle. Every failure is absorbed here: a bad
// cycle is logged and reported as failed, but never breaks the next scheduled
// cycle (the process exits zero either way).
func (a *Agent) RunCycle(ctx context.Context) CycleResult {
	result, err := a.runCycle(ctx)
	if err != nil {
		a.log().Errorf("capture cycle aborted: %v", err)
		result.Outcome = OutcomeFailed
	}
	return result
}

func (a *Agent) runCycle(ctx context.Context) (CycleResult, error) {
	now := a.now()

	if a.isUserAFK() {
		a.log().Info("user is AFK; skipping capture")
		return CycleResult{Outcome: OutcomeAFK}, nil
	}

	// Best-effort continuity context; absence is a valid outcome.
	previous, err := a.Store.ReadMostRecent(now)
	if err != nil {
		a.log().Warnf("could not read previous record: %v", err)
		previous = nil
	}

	shotPath, err := a.Shots.Capture()
	if err != nil {
		return CycleResult{}, err
	}
	optimizedPath := a.Optimizer.Optimize(shotPath)

	apps, err := a.Apps.ListOpenApps()
	if err != nil {
		return CycleResult{}, fmt.Errorf("app enumeration failed: %w", err)
	}

	cont := activity.Analyze(previous, apps, now)
	a.log().Debugf("continuity: continuing=%v common=%d frontmost_changed=%v",
		cont.IsContinuing, len(cont.CommonApps), cont.FrontmostChanged)

	// AI description failure aborts only this portion; the record is still
	// appended with an empty analysis so the timeline stays contiguous.
	analysis, err := a.AI.Describe(ctx, optimizedPath, apps, ContinuityHint(cont))
	if err != nil {
		a.log().Warnf("screen description failed, logging record without analysis: %v", err)
		analysis = ""
	}

	id, err := activity.NewID()
	if err != nil {
		return CycleResult{}, errors.NewInternal(err)
	}
	rec := activity.Record{
		ID:                      id,
		Timestamp:               now,
		ScreenshotPath:          shotPath,
		OptimizedScreenshotPath: optimizedPath,
		OpenApplications:        apps,
		ScreenAnalysis:          analysis,
	}
	if err := a.Store.Append(rec); err != nil {
		return CycleResult{}, err
	}

	result := CycleResult{
		Outcome:    OutcomeCaptured,
		Record:     &rec,
		Continuity: &cont,
	}

	if analysis != "" && a.Notes != nil {
		result.NotesDelivered = a.Notes.Append(
			fmt.Sprintf("[%s] %s", now.Format("15:04"), analysis))
		if !result.NotesDelivered {
			a.log().Debug("notes sink did not accept the description")
		}
	}

	result.Summary = a.maybeSummarize(ctx, now)
	return result, nil
}

// maybeSummarize asks the scheduler whether a rollup is due and, if so,
// aggregates the trailing window. Failures abort only the rollup step.
func (a *Agent) maybeSummarize(ctx context.Context, now time.Time) string {
	due, err := a.Scheduler.IsSummaryDue(now)
	if err != nil {
		a.log().Warnf("summary scheduling failed: %v", err)
		return ""
	}
	if !due {
		return ""
	}

	// Trailing window [now - interval, now): the end bound is exclusive, so
	// the record captured this cycle belongs to the next window.
	start := now.Add(-a.Scheduler.Interval())
	records, err := a.Store.ReadRange(start, now.Add(-time.Nanosecond))
	if err != nil {
		a.log().Warnf("summary window read failed: %v", err)
		return ""
	}

	text, err := summary.Summarize(ctx, a.AI, records)
	if err != nil {
		a.log().Warnf("summary rollup failed: %v", err)
		return ""
	}

	a.log().Infof("summary for the last %s: %s", activity.FormatElapsed(a.Scheduler.Interval()), text)
	if a.Notes != nil && !a.Notes.Append(fmt.Sprintf("Summary (%s): %s", now.Format("15:04"), text)) {
		a.log().Debug("notes sink did not accept the summary")
	}
	return text
}

// isUserAFK converts the collaborator's idle milliseconds to minutes and
// compares against the threshold. Fails open: an unreadable idle time is
// logged and the user treated as active.
func (a *Agent) isUserAFK() bool {
	idleMs, err := a.Idle.IdleMilliseconds()
	if err != nil {
		a.log().Warnf("idle time unavailable, treating user as active: %v", err)
		return false
	}
	idleMinutes := float64(idleMs) / 60000.0
	return idleMinutes >= float64(a.IdleThresholdMin)
}

// ContinuityHint phrases the continuity result for the description prompt.
func ContinuityHint(cont activity.ContinuityResult) string {
	if cont.IsContinuing {
		return fmt.Sprintf("The user appears to be continuing their previous task (last activity %s ago).",
			cont.TimeSinceLastActivity)
	}
	return "The user appears to have started a new task."
}
