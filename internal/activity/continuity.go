package activity

import "time"

// Continuity thresholds. A capture continues the previous task when at least
// ContinuityRatioThreshold of the previous snapshot's apps are still open and
// less than ContinuityMaxGap has passed since the previous capture.
const (
	ContinuityRatioThreshold = 0.70
	ContinuityMaxGap         = 120 * time.Minute
)

// ContinuityResult classifies the current capture against the previous one.
// Recomputed on every cycle, never persisted.
type ContinuityResult struct {
	IsContinuing          bool     `json:"is_continuing"`
	CommonApps            []string `json:"common_apps"`
	FrontmostChanged      bool     `json:"frontmost_changed"`
	TimeSinceLastActivity string   `json:"time_since_last_activity"`
}

// Analyze compares the previous stored record against the current snapshot.
// Pure function: no I/O, deterministic given inputs and now.
//
// A nil previous record yields the no-continuity default. A previous record
// with zero open applications has an undefined continuity ratio, which is
// treated as 0 rather than a division fault.
func Analyze(previous *Record, current []AppInfo, now time.Time) ContinuityResult {
	if previous == nil {
		return ContinuityResult{
			IsContinuing:     false,
			CommonApps:       []string{},
			FrontmostChanged: true,
		}
	}

	currentNames := make(map[string]bool, len(current))
	for _, a := range current {
		currentNames[a.Name] = true
	}

	common := make([]string, 0, len(previous.OpenApplications))
	for _, a := range previous.OpenApplications {
		if currentNames[a.Name] {
			common = append(common, a.Name)
		}
	}

	ratio := 0.0
	if n := len(previous.OpenApplications); n > 0 {
		ratio = float64(len(common)) / float64(n)
	}

	elapsed := now.Sub(previous.Timestamp)

	prevFront, prevHasFront := Frontmost(previous.OpenApplications)
	curFront, curHasFront := Frontmost(current)

	// Absence of a frontmost app is a distinct value from any name.
	frontmostChanged := prevHasFront != curHasFront || prevFront != curFront

	return ContinuityResult{
		IsContinuing:          ratio >= ContinuityRatioThreshold && elapsed < ContinuityMaxGap,
		CommonApps:            common,
		FrontmostChanged:      frontmostChanged,
		TimeSinceLastActivity: FormatElapsed(elapsed),
	}
}
