package schedule

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/glance/internal/errors"
	"github.com/hpungsan/glance/internal/logging"
)

// Scheduler decides when a rolled-up summary is due based on a persisted
// checkpoint: the instant the last summary was emitted, stored as one RFC 3339
// line. The check is a commit, not a peek; once it answers true the checkpoint
// has already moved, so two calls in quick succession cannot both fire.
type Scheduler struct {
	path     string
	interval time.Duration
}

// New creates a scheduler whose checkpoint lives at baseDir/last_summary.
func New(baseDir string, intervalMin int) *Scheduler {
	return &Scheduler{
		path:     filepath.Join(baseDir, "last_summary"),
		interval: time.Duration(intervalMin) * time.Minute,
	}
}

// Interval returns the configured summary interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// IsSummaryDue reports whether the interval has elapsed since the last
// summary. On first-ever use the checkpoint is initialized to now and the
// summary is suppressed. When due, the checkpoint is advanced to now before
// returning.
//
// The read-modify-write is guarded with a sidecar O_EXCL lock file so two
// overlapping capture processes cannot both observe "due" for the same
// window; a process that loses the lock race treats the summary as not due.
func (s *Scheduler) IsSummaryDue(now time.Time) (bool, error) {
	unlock, err := s.lock()
	if err != nil {
		if os.IsExist(err) {
			logging.Logger.Warn("summary checkpoint is locked by another cycle; skipping")
			return false, nil
		}
		return false, errors.NewSchedulerPersistence("lock", err)
	}
	defer unlock()

	checkpoint, found, err := s.read()
	if err != nil {
		return false, err
	}

	if !found {
		// First-ever check: start tracking from now, never summarize.
		if err := s.write(now); err != nil {
			return false, err
		}
		return false, nil
	}

	if now.Sub(checkpoint) < s.interval {
		return false, nil
	}

	if err := s.write(now); err != nil {
		return false, err
	}
	return true, nil
}

// lock takes the sidecar lock file, returning a release func.
func (s *Scheduler) lock() (func(), error) {
	lockPath := s.path + ".lock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	f.Close()
	return func() { _ = os.Remove(lockPath) }, nil
}

// read loads the checkpoint. found is false when no checkpoint exists yet.
func (s *Scheduler) read() (checkpoint time.Time, found bool, err error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, errors.NewSchedulerPersistence("read", err)
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, false, errors.NewSchedulerPersistence("read", fmt.Errorf("malformed checkpoint: %w", err))
	}
	return t, true, nil
}

// write persists the checkpoint via write-temp-then-rename so a reader never
// sees a half-written instant.
func (s *Scheduler) write(t time.Time) error {
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(t.Format(time.RFC3339)+"\n"), 0600); err != nil {
		return errors.NewSchedulerPersistence("write", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.NewSchedulerPersistence("write", err)
	}
	return nil
}
