package macos

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// IdleSource reads device idle time from the IOKit HID system.
type IdleSource struct{}

// IdleMilliseconds returns how long the input devices have been idle.
// HIDIdleTime is reported in nanoseconds.
func (IdleSource) IdleMilliseconds() (int64, error) {
	out, err := exec.Command("ioreg", "-c", "IOHIDSystem").Output()
	if err != nil {
		return 0, fmt.Errorf("ioreg failed: %w", err)
	}
	return parseHIDIdleTime(string(out))
}

func parseHIDIdleTime(out string) (int64, error) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "HIDIdleTime") {
			continue
		}
		idx := strings.LastIndex(line, "=")
		if idx < 0 {
			continue
		}
		ns, err := strconv.ParseInt(strings.TrimSpace(line[idx+1:]), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("unparseable HIDIdleTime in %q: %w", strings.TrimSpace(line), err)
		}
		return ns / 1_000_000, nil
	}
	return 0, fmt.Errorf("HIDIdleTime not present in ioreg output")
}
