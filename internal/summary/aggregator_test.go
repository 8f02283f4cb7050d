package summary

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/glance/internal/activity"
	"github.com/hpungsan/glance/internal/errors"
)

// fakeSynthesizer records calls and returns a canned reply or error.
type fakeSynthesizer struct {
	calls  int
	prompt string
	reply  string
	err    error
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func windowRecords() []activity.Record {
	base := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	return []activity.Record{
		{
			Timestamp:        base,
			OpenApplications: []activity.AppInfo{{Name: "Mail", IsFrontmost: true}},
			ScreenAnalysis:   "Reading the morning email backlog.",
		},
		{
			Timestamp:        base.Add(20 * time.Minute),
			OpenApplications: []activity.AppInfo{{Name: "GoLand", IsFrontmost: true}},
			ScreenAnalysis:   "Writing Go code in an editor.",
		},
		{
			Timestamp:        base.Add(40 * time.Minute),
			OpenApplications: []activity.AppInfo{{Name: "GoLand", IsFrontmost: true}},
			ScreenAnalysis:   "",
		},
	}
}

func TestSummarize_EmptyWindowSentinel(t *testing.T) {
	syn := &fakeSynthesizer{reply: "should not be used"}

	got, err := Summarize(context.Background(), syn, nil)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got != NoActivitySentinel {
		t.Errorf("got %q, want the sentinel", got)
	}
	if syn.calls != 0 {
		t.Errorf("synthesizer called %d times, want zero for an empty window", syn.calls)
	}
}

func TestSummarize_ReturnsReplyVerbatim(t *testing.T) {
	syn := &fakeSynthesizer{reply: "The user read email, then spent most of the hour coding."}

	got, err := Summarize(context.Background(), syn, windowRecords())
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got != syn.reply {
		t.Errorf("got %q, want the synthesizer's reply verbatim", got)
	}
}

func TestSummarize_PromptContents(t *testing.T) {
	syn := &fakeSynthesizer{reply: "ok"}

	if _, err := Summarize(context.Background(), syn, windowRecords()); err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	for _, want := range []string{
		"3 screen activity observations",
		"Reading the morning email backlog.",
		"Writing Go code in an editor.",
		"(no description recorded)",
		"(Mail)",
		"---",
	} {
		if !strings.Contains(syn.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSummarize_UpstreamFailure(t *testing.T) {
	syn := &fakeSynthesizer{err: errors.NewAIService(503, "overloaded")}

	_, err := Summarize(context.Background(), syn, windowRecords())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, errors.ErrSummarizationFailed) {
		t.Fatalf("err = %v, want SUMMARIZATION_FAILED", err)
	}
	gErr := err.(*errors.GlanceError)
	if gErr.Details["status"] != 503 {
		t.Errorf("status detail = %v, want the upstream status carried through", gErr.Details["status"])
	}
}
