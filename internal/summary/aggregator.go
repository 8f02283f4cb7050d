// Package summary rolls a window of activity records into one natural-language
// synthesis request.
package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/glance/internal/activity"
	"github.com/hpungsan/glance/internal/errors"
)

// NoActivitySentinel is returned for an empty window. No external call is made.
const NoActivitySentinel = "No recorded activity in this window."

// entrySeparator keeps individual descriptions distinct inside the prompt.
const entrySeparator = "\n---\n"

// Synthesizer is the text side of the AI collaborator.
type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string) (string, error)
}

// Summarize aggregates the screen analyses of records into one synthesis
// request and returns the model's reply verbatim. An empty window returns
// NoActivitySentinel without touching the collaborator. Upstream failures
// surface as SUMMARIZATION_FAILED carrying the upstream status and body.
func Summarize(ctx context.Context, syn Synthesizer, records []activity.Record) (string, error) {
	if len(records) == 0 {
		return NoActivitySentinel, nil
	}

	text, err := syn.Synthesize(ctx, BuildPrompt(records))
	if err != nil {
		return "", errors.NewSummarizationFailed(err)
	}
	return text, nil
}

// BuildPrompt assembles the rollup request from each record's description.
// Records with an empty analysis (a failed description step) still contribute
// their timestamp and frontmost app so the timeline stays contiguous.
func BuildPrompt(records []activity.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Below are %d screen activity observations in chronological order. ", len(records))
	b.WriteString("Write a short summary, a few sentences, of what the user worked on across this period. ")
	b.WriteString("Group related activity and mention rough time spent when it is clear.\n")

	for _, rec := range records {
		b.WriteString(entrySeparator)
		fmt.Fprintf(&b, "[%s]", rec.Timestamp.Format(time.Kitchen))
		if front, ok := activity.Frontmost(rec.OpenApplications); ok {
			fmt.Fprintf(&b, " (%s)", front)
		}
		b.WriteString(" ")
		if rec.ScreenAnalysis != "" {
			b.WriteString(rec.ScreenAnalysis)
		} else {
			b.WriteString("(no description recorded)")
		}
	}
	return b.String()
}
