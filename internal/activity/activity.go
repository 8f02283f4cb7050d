package activity

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// AppInfo describes one application open at capture time.
type AppInfo struct {
	// Name is the application name, unique within one snapshot
	Name string `json:"name"`

	// Title is the frontmost window title, if one could be read
	Title string `json:"title,omitempty"`

	// IsFrontmost marks the app holding input focus (at most one per snapshot)
	IsFrontmost bool `json:"is_frontmost"`
}

// Record represents one capture event. Records are appended to a per-day
// partition and never updated or deleted.
type Record struct {
	// ID is a ULID that uniquely identifies this record
	ID string `json:"id"`

	// Timestamp is the capture instant, set at creation
	Timestamp time.Time `json:"timestamp"`

	// ScreenshotPath is where the raw capture was written
	ScreenshotPath string `json:"screenshot_path"`

	// OptimizedScreenshotPath is the downscaled copy, if optimization succeeded
	OptimizedScreenshotPath string `json:"optimized_screenshot_path,omitempty"`

	// OpenApplications is the ordered snapshot of open apps
	OpenApplications []AppInfo `json:"open_applications"`

	// ScreenAnalysis is the AI-written description of on-screen activity.
	// Empty when the description step failed for this capture.
	ScreenAnalysis string `json:"screen_analysis"`
}

// Frontmost returns the name of the frontmost app in a snapshot and whether
// one was found.
func Frontmost(apps []AppInfo) (string, bool) {
	for _, a := range apps {
		if a.IsFrontmost {
			return a.Name, true
		}
	}
	return "", false
}

// NewID generates a ULID for a new record.
func NewID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// FormatElapsed renders a duration the way it appears in prompts and logs:
// minutes when under an hour, hours and minutes otherwise.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	mins := int(d.Minutes())
	if mins < 60 {
		return fmt.Sprintf("%d minutes", mins)
	}
	return fmt.Sprintf("%d hours %d minutes", mins/60, mins%60)
}
