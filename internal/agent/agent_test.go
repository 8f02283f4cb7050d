package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/glance/internal/activity"
	glanceerrors "github.com/hpungsan/glance/internal/errors"
	"github.com/hpungsan/glance/internal/schedule"
	"github.com/hpungsan/glance/internal/store"
)

var cycleNow = time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)

type fakeShots struct {
	path string
	err  error
}

func (f *fakeShots) Capture() (string, error) { return f.path, f.err }

type fakeOptimizer struct{}

func (fakeOptimizer) Optimize(path string) string { return path + ".opt" }

type fakeApps struct {
	apps []activity.AppInfo
	err  error
}

func (f *fakeApps) ListOpenApps() ([]activity.AppInfo, error) { return f.apps, f.err }

type fakeIdle struct {
	ms  int64
	err error
}

func (f *fakeIdle) IdleMilliseconds() (int64, error) { return f.ms, f.err }

type fakeAI struct {
	description string
	describeErr error
	synthReply  string
	synthErr    error

	describeHint string
	synthPrompt  string
	synthCalls   int
}

func (f *fakeAI) Describe(_ context.Context, _ string, _ []activity.AppInfo, hint string) (string, error) {
	f.describeHint = hint
	if f.describeErr != nil {
		return "", f.describeErr
	}
	return f.description, nil
}

func (f *fakeAI) Synthesize(_ context.Context, prompt string) (string, error) {
	f.synthCalls++
	f.synthPrompt = prompt
	if f.synthErr != nil {
		return "", f.synthErr
	}
	return f.synthReply, nil
}

type fakeNotes struct {
	entries []string
	accept  bool
}

func (f *fakeNotes) Append(text string) bool {
	if !f.accept {
		return false
	}
	f.entries = append(f.entries, text)
	return true
}

// newAgent wires an agent with fakes over a real store and scheduler.
func newAgent(t *testing.T) (*Agent, *fakeAI, *fakeNotes, *store.Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(dir)
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	ai := &fakeAI{description: "Writing Go in an editor.", synthReply: "An hour of coding."}
	notes := &fakeNotes{accept: true}
	a := &Agent{
		Store:            s,
		Scheduler:        schedule.New(dir, 60),
		Shots:            &fakeShots{path: "/tmp/shot.png"},
		Optimizer:        fakeOptimizer{},
		Apps:             &fakeApps{apps: []activity.AppInfo{{Name: "GoLand", IsFrontmost: true}}},
		Idle:             &fakeIdle{ms: 1000},
		AI:               ai,
		Notes:            notes,
		IdleThresholdMin: 5,
		Now:              func() time.Time { return cycleNow },
	}
	return a, ai, notes, s, dir
}

func TestRunCycle_Captures(t *testing.T) {
	a, _, notes, s, _ := newAgent(t)

	res := a.RunCycle(context.Background())

	if res.Outcome != OutcomeCaptured {
		t.Fatalf("Outcome = %q, want captured", res.Outcome)
	}
	if res.Record == nil || res.Record.ScreenAnalysis != "Writing Go in an editor." {
		t.Fatalf("Record = %+v", res.Record)
	}
	if res.Record.OptimizedScreenshotPath != "/tmp/shot.png.opt" {
		t.Errorf("OptimizedScreenshotPath = %q", res.Record.OptimizedScreenshotPath)
	}
	if !res.NotesDelivered || len(notes.entries) != 1 {
		t.Errorf("notes = %v", notes.entries)
	}
	if !strings.Contains(notes.entries[0], "14:00") {
		t.Errorf("note entry missing timestamp: %q", notes.entries[0])
	}

	stored, err := s.ReadMostRecent(cycleNow)
	if err != nil || stored == nil {
		t.Fatalf("stored record missing: %v", err)
	}
	if stored.ID != res.Record.ID {
		t.Errorf("stored ID = %q, want %q", stored.ID, res.Record.ID)
	}
}

func TestRunCycle_AFKSkips(t *testing.T) {
	a, _, _, s, dir := newAgent(t)
	a.Idle = &fakeIdle{ms: 10 * 60 * 1000} // 10 minutes idle, threshold 5

	res := a.RunCycle(context.Background())

	if res.Outcome != OutcomeAFK {
		t.Fatalf("Outcome = %q, want afk", res.Outcome)
	}
	if rec, _ := s.ReadMostRecent(cycleNow); rec != nil {
		t.Error("AFK cycle must not append a record")
	}
	// The scheduler must not have been touched either.
	if _, err := os.Stat(filepath.Join(dir, "last_summary")); !os.IsNotExist(err) {
		t.Error("AFK cycle must not create the checkpoint")
	}
}

func TestRunCycle_IdleFailureFailsOpen(t *testing.T) {
	a, _, _, _, _ := newAgent(t)
	a.Idle = &fakeIdle{err: errors.New("ioreg unavailable")}

	res := a.RunCycle(context.Background())

	if res.Outcome != OutcomeCaptured {
		t.Errorf("Outcome = %q, want captured when idle time is unreadable", res.Outcome)
	}
}

func TestRunCycle_CaptureFailure(t *testing.T) {
	a, _, _, s, _ := newAgent(t)
	a.Shots = &fakeShots{err: glanceerrors.NewCaptureFailed(1, "no display")}

	res := a.RunCycle(context.Background())

	if res.Outcome != OutcomeFailed {
		t.Fatalf("Outcome = %q, want failed", res.Outcome)
	}
	if rec, _ := s.ReadMostRecent(cycleNow); rec != nil {
		t.Error("failed cycle must not append a record")
	}
}

func TestRunCycle_DescribeFailureStillLogsRecord(t *testing.T) {
	a, ai, notes, s, _ := newAgent(t)
	ai.describeErr = glanceerrors.NewAIService(500, "model down")

	res := a.RunCycle(context.Background())

	if res.Outcome != OutcomeCaptured {
		t.Fatalf("Outcome = %q, want captured despite AI failure", res.Outcome)
	}
	stored, _ := s.ReadMostRecent(cycleNow)
	if stored == nil {
		t.Fatal("record should still be appended")
	}
	if stored.ScreenAnalysis != "" {
		t.Errorf("ScreenAnalysis = %q, want empty", stored.ScreenAnalysis)
	}
	if len(notes.entries) != 0 {
		t.Errorf("notes = %v, want none without a description", notes.entries)
	}
}

func TestRunCycle_ContinuityHintReachesPrompt(t *testing.T) {
	a, ai, _, s, _ := newAgent(t)

	prev := activity.Record{
		ID:               "01PREV",
		Timestamp:        cycleNow.Add(-10 * time.Minute),
		OpenApplications: []activity.AppInfo{{Name: "GoLand", IsFrontmost: true}},
		ScreenAnalysis:   "Earlier coding.",
	}
	if err := s.Append(prev); err != nil {
		t.Fatalf("seed previous record: %v", err)
	}

	res := a.RunCycle(context.Background())

	if res.Continuity == nil || !res.Continuity.IsContinuing {
		t.Fatalf("Continuity = %+v, want continuing", res.Continuity)
	}
	if !strings.Contains(ai.describeHint, "continuing their previous task") {
		t.Errorf("hint = %q", ai.describeHint)
	}
	if !strings.Contains(ai.describeHint, "10 minutes") {
		t.Errorf("hint missing elapsed time: %q", ai.describeHint)
	}
}

func TestRunCycle_SummaryWhenDue(t *testing.T) {
	a, ai, notes, s, dir := newAgent(t)

	// Checkpoint 90 minutes old at a 60 minute interval: the rollup is due.
	stale := cycleNow.Add(-90 * time.Minute).Format(time.RFC3339)
	if err := os.WriteFile(filepath.Join(dir, "last_summary"), []byte(stale+"\n"), 0600); err != nil {
		t.Fatalf("seed checkpoint: %v", err)
	}

	windowRec := activity.Record{
		ID:               "01WINDOW",
		Timestamp:        cycleNow.Add(-30 * time.Minute),
		OpenApplications: []activity.AppInfo{{Name: "Mail", IsFrontmost: true}},
		ScreenAnalysis:   "Replying to email.",
	}
	if err := s.Append(windowRec); err != nil {
		t.Fatalf("seed window record: %v", err)
	}

	res := a.RunCycle(context.Background())

	if res.Summary != "An hour of coding." {
		t.Fatalf("Summary = %q", res.Summary)
	}
	if ai.synthCalls != 1 {
		t.Fatalf("synthesizer called %d times, want 1", ai.synthCalls)
	}
	if !strings.Contains(ai.synthPrompt, "Replying to email.") {
		t.Errorf("rollup prompt missing window record")
	}
	// The record captured this cycle sits at the window's exclusive end.
	if strings.Contains(ai.synthPrompt, "Writing Go in an editor.") {
		t.Errorf("rollup prompt should not include the current capture")
	}

	var summaryNote string
	for _, e := range notes.entries {
		if strings.HasPrefix(e, "Summary") {
			summaryNote = e
		}
	}
	if !strings.Contains(summaryNote, "An hour of coding.") {
		t.Errorf("summary not delivered to notes: %v", notes.entries)
	}
}

func TestRunCycle_SummaryFailureDoesNotFailCycle(t *testing.T) {
	a, ai, _, s, dir := newAgent(t)
	ai.synthErr = glanceerrors.NewAIService(503, "overloaded")

	stale := cycleNow.Add(-2 * time.Hour).Format(time.RFC3339)
	if err := os.WriteFile(filepath.Join(dir, "last_summary"), []byte(stale+"\n"), 0600); err != nil {
		t.Fatalf("seed checkpoint: %v", err)
	}
	windowRec := activity.Record{
		ID:             "01WINDOW",
		Timestamp:      cycleNow.Add(-15 * time.Minute),
		ScreenAnalysis: "In a meeting.",
	}
	if err := s.Append(windowRec); err != nil {
		t.Fatalf("seed window record: %v", err)
	}

	res := a.RunCycle(context.Background())

	if res.Outcome != OutcomeCaptured {
		t.Errorf("Outcome = %q, want captured despite rollup failure", res.Outcome)
	}
	if res.Summary != "" {
		t.Errorf("Summary = %q, want empty", res.Summary)
	}
}

func TestRunCycle_NoNotesSink(t *testing.T) {
	a, _, _, _, _ := newAgent(t)
	a.Notes = nil

	res := a.RunCycle(context.Background())

	if res.Outcome != OutcomeCaptured {
		t.Fatalf("Outcome = %q", res.Outcome)
	}
	if res.NotesDelivered {
		t.Error("NotesDelivered should be false without a sink")
	}
}
