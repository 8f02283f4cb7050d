// Package macos implements the OS collaborators as thin wrappers around the
// standard macOS command-line utilities.
package macos

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/glance/internal/errors"
	"github.com/hpungsan/glance/internal/logging"
)

// optimizedMaxDim is the longest-edge pixel size screenshots are downscaled to
// before being sent to the vision model.
const optimizedMaxDim = 1568

// Screenshotter captures the screen with the screencapture utility.
type Screenshotter struct {
	dir string
}

// NewScreenshotter stores captures under baseDir/shots.
func NewScreenshotter(baseDir string) (*Screenshotter, error) {
	dir := filepath.Join(baseDir, "shots")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create shots directory: %w", err)
	}
	return &Screenshotter{dir: dir}, nil
}

// Capture takes a silent full-screen screenshot and returns its path.
func (s *Screenshotter) Capture() (string, error) {
	path := filepath.Join(s.dir, "shot_"+time.Now().Format("2006-01-02_150405")+".png")

	var stderr bytes.Buffer
	cmd := exec.Command("screencapture", "-x", path)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", errors.NewCaptureFailed(cmd.ProcessState.ExitCode(), strings.TrimSpace(stderr.String()))
	}
	return path, nil
}

// Optimizer downscales screenshots with sips. Best-effort: any failure hands
// back the original path.
type Optimizer struct{}

// Optimize writes a downscaled copy next to the original and returns its
// path, or the original path when sips fails.
func (Optimizer) Optimize(path string) string {
	out := strings.TrimSuffix(path, filepath.Ext(path)) + "_opt.png"
	cmd := exec.Command("sips", "-Z", fmt.Sprint(optimizedMaxDim), path, "--out", out)
	if err := cmd.Run(); err != nil {
		logging.Logger.Warnf("sips failed, keeping original screenshot: %v", err)
		return path
	}
	return out
}
