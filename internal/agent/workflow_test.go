package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/glance/internal/activity"
	"github.com/hpungsan/glance/internal/schedule"
	"github.com/hpungsan/glance/internal/store"
)

// TestFullWorkflow exercises a day's worth of cycles end to end:
// first capture → continuing capture → AFK gap → new-task capture →
// interval elapses → rollup emitted once.
func TestFullWorkflow(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(dir)
	require.NoError(t, err)

	clock := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	ai := &fakeAI{description: "Reading email.", synthReply: "Email, then coding."}
	notes := &fakeNotes{accept: true}
	idle := &fakeIdle{ms: 0}
	apps := &fakeApps{apps: []activity.AppInfo{{Name: "Mail", IsFrontmost: true}}}

	a := &Agent{
		Store:            s,
		Scheduler:        schedule.New(dir, 60),
		Shots:            &fakeShots{path: "/tmp/shot.png"},
		Optimizer:        fakeOptimizer{},
		Apps:             apps,
		Idle:             idle,
		AI:               ai,
		Notes:            notes,
		IdleThresholdMin: 5,
		Now:              func() time.Time { return clock },
	}
	ctx := context.Background()

	// 1. First-ever cycle: no previous record, checkpoint initialized.
	res := a.RunCycle(ctx)
	require.Equal(t, OutcomeCaptured, res.Outcome)
	require.False(t, res.Continuity.IsContinuing)
	require.True(t, res.Continuity.FrontmostChanged)
	require.Empty(t, res.Summary)

	// 2. Ten minutes later, same app: continuing.
	clock = clock.Add(10 * time.Minute)
	ai.description = "Still in the inbox."
	res = a.RunCycle(ctx)
	require.Equal(t, OutcomeCaptured, res.Outcome)
	require.True(t, res.Continuity.IsContinuing)
	require.False(t, res.Continuity.FrontmostChanged)

	// 3. User steps away: AFK cycle records nothing.
	clock = clock.Add(10 * time.Minute)
	idle.ms = 20 * 60 * 1000
	res = a.RunCycle(ctx)
	require.Equal(t, OutcomeAFK, res.Outcome)

	// 4. Back at a different app: ratio 0, new task.
	clock = clock.Add(10 * time.Minute)
	idle.ms = 0
	apps.apps = []activity.AppInfo{{Name: "GoLand", IsFrontmost: true}}
	ai.description = "Writing Go."
	res = a.RunCycle(ctx)
	require.Equal(t, OutcomeCaptured, res.Outcome)
	require.False(t, res.Continuity.IsContinuing)
	require.True(t, res.Continuity.FrontmostChanged)

	// 5. Past the interval: the rollup fires, covering the window's records.
	clock = clock.Add(35 * time.Minute)
	res = a.RunCycle(ctx)
	require.Equal(t, OutcomeCaptured, res.Outcome)
	require.Equal(t, "Email, then coding.", res.Summary)
	require.Equal(t, 1, ai.synthCalls)
	// Window [9:05, 10:05): the 9:10 and 9:30 records, not the 9:00 one.
	require.Contains(t, ai.synthPrompt, "Still in the inbox.")
	require.Contains(t, ai.synthPrompt, "Writing Go.")
	require.NotContains(t, ai.synthPrompt, "Reading email.")

	// 6. The very next cycle must not fire again.
	clock = clock.Add(5 * time.Minute)
	res = a.RunCycle(ctx)
	require.Equal(t, OutcomeCaptured, res.Outcome)
	require.Empty(t, res.Summary)
	require.Equal(t, 1, ai.synthCalls)

	// All captured records are on disk, sorted.
	records, err := s.ReadRange(time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), clock)
	require.NoError(t, err)
	require.Len(t, records, 5)
	for i := 1; i < len(records); i++ {
		require.True(t, records[i].Timestamp.After(records[i-1].Timestamp))
	}
}
