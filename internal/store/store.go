package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hpungsan/glance/internal/activity"
	"github.com/hpungsan/glance/internal/errors"
	"github.com/hpungsan/glance/internal/logging"
)

// partitionPrefix is the filename prefix for daily log partitions.
const partitionPrefix = "activity_"

// dateLayout names partitions by calendar day.
const dateLayout = "2006-01-02"

// Store is the append-only activity log, one partition per calendar day under
// baseDir/logs. Records are JSON lines; writes are never rewritten in place.
type Store struct {
	dir string
}

// Open prepares the store under baseDir, creating the logs directory with
// restricted permissions.
func Open(baseDir string) (*Store, error) {
	dir := filepath.Join(baseDir, "logs")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the logs directory path.
func (s *Store) Dir() string {
	return s.dir
}

// PartitionPath returns the partition file for the given instant's date.
func (s *Store) PartitionPath(t time.Time) string {
	return filepath.Join(s.dir, partitionPrefix+t.Format(dateLayout))
}

// Append serializes rec and appends it to the partition for its timestamp's
// date. The record is written with a single write call on an O_APPEND handle
// so overlapping capture processes cannot interleave partial lines.
func (s *Store) Append(rec activity.Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return errors.NewInternal(err)
	}
	line = append(line, '\n')

	f, err := os.OpenFile(s.PartitionPath(rec.Timestamp), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ReadMostRecent returns the last record by file order from today's partition,
// falling back to yesterday's when today is absent or empty. Returns nil with
// no error when neither partition has a record.
func (s *Store) ReadMostRecent(now time.Time) (*activity.Record, error) {
	for _, day := range []time.Time{now, now.AddDate(0, 0, -1)} {
		records, err := s.readPartition(s.PartitionPath(day))
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			last := records[len(records)-1]
			return &last, nil
		}
	}
	return nil, nil
}

// ReadRange returns every record with start <= timestamp <= end, sorted
// ascending by timestamp. All partitions whose date falls in the inclusive
// [start.date, end.date] span are consulted; the on-disk order within a
// partition is not trusted. Missing or corrupt partitions are skipped with a
// warning, so partial results are possible.
func (s *Store) ReadRange(start, end time.Time) ([]activity.Record, error) {
	if end.Before(start) {
		return nil, errors.NewInvalidRequest("range end precedes start")
	}

	var out []activity.Record
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	lastDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())

	for !day.After(lastDay) {
		records, err := s.readPartition(s.PartitionPath(day))
		if err != nil {
			logging.Logger.Warnf("skipping partition: %v", err)
			day = day.AddDate(0, 0, 1)
			continue
		}
		for _, rec := range records {
			if !rec.Timestamp.Before(start) && !rec.Timestamp.After(end) {
				out = append(out, rec)
			}
		}
		day = day.AddDate(0, 0, 1)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Days lists the partition dates present on disk, newest first.
func (s *Store) Days() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	var days []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), partitionPrefix) {
			continue
		}
		date := strings.TrimPrefix(e.Name(), partitionPrefix)
		if _, err := time.Parse(dateLayout, date); err != nil {
			continue
		}
		days = append(days, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days, nil
}

// ReadDay returns every parseable record in one partition, in file order.
// The date must be in YYYY-MM-DD form.
func (s *Store) ReadDay(date string) ([]activity.Record, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid date %q: want YYYY-MM-DD", date))
	}
	return s.readPartition(filepath.Join(s.dir, partitionPrefix+date))
}

// readPartition parses one partition file. A missing file yields an empty
// slice. Unparseable lines are skipped with a warning; an unreadable file is
// a StoreReadCorruption error.
func (s *Store) readPartition(path string) ([]activity.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewStoreReadCorruption(filepath.Base(path), err)
	}
	defer f.Close()

	var records []activity.Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec activity.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			logging.Logger.Warnf("%s line %d: skipping unparseable record: %v", filepath.Base(path), lineNo, err)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewStoreReadCorruption(filepath.Base(path), err)
	}
	return records, nil
}
