package macos

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/hpungsan/glance/internal/logging"
)

// NotesSink appends text to a named note in the Notes app. Delivery is
// best-effort: failures are reported as false, never as an error.
type NotesSink struct {
	noteName string
}

// NewNotesSink targets the given note. An empty name disables the sink.
func NewNotesSink(noteName string) *NotesSink {
	return &NotesSink{noteName: strings.TrimSpace(noteName)}
}

// Append adds a paragraph to the target note, creating the note when it does
// not exist yet. Returns false when the sink is unconfigured or the script
// fails.
func (n *NotesSink) Append(text string) bool {
	if n.noteName == "" {
		return false
	}

	script := fmt.Sprintf(`
tell application "Notes"
	if not (exists note %[1]q) then
		make new note with properties {name:%[1]q, body:""}
	end if
	set theNote to note %[1]q
	set body of theNote to (body of theNote) & "<div>%[2]s</div>"
end tell
`, n.noteName, escapeAppleScript(text))

	if err := exec.Command("osascript", "-e", script).Run(); err != nil {
		logging.Logger.Warnf("notes append failed: %v", err)
		return false
	}
	return true
}

// escapeAppleScript makes text safe inside a double-quoted AppleScript string.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", "<br>")
	return s
}
