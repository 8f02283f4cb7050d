package macos

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/hpungsan/glance/internal/activity"
)

// listAppsScript emits one line per visible application process:
// name <tab> front window title <tab> frontmost flag.
const listAppsScript = `
tell application "System Events"
	set output to ""
	repeat with proc in (application processes whose background only is false)
		set procName to name of proc
		set isFront to frontmost of proc
		set winTitle to ""
		try
			set winTitle to name of front window of proc
		end try
		set output to output & procName & tab & winTitle & tab & isFront & linefeed
	end repeat
end tell
return output
`

// AppLister enumerates open applications via System Events.
type AppLister struct{}

// ListOpenApps returns the visible application processes. At most one entry
// has IsFrontmost set.
func (AppLister) ListOpenApps() ([]activity.AppInfo, error) {
	out, err := exec.Command("osascript", "-e", listAppsScript).Output()
	if err != nil {
		return nil, fmt.Errorf("osascript app enumeration failed: %w", err)
	}
	return parseAppLines(string(out)), nil
}

func parseAppLines(out string) []activity.AppInfo {
	var apps []activity.AppInfo
	seen := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
		if len(fields) != 3 || strings.TrimSpace(fields[0]) == "" {
			continue
		}
		name := strings.TrimSpace(fields[0])
		if seen[name] {
			continue
		}
		seen[name] = true
		apps = append(apps, activity.AppInfo{
			Name:        name,
			Title:       strings.TrimSpace(fields[1]),
			IsFrontmost: strings.TrimSpace(fields[2]) == "true",
		})
	}
	return apps
}
