// Package lockfile provides cross-process mutual exclusion through a
// sentinel file on the same filesystem as the resource it guards. Ownership
// is advisory: a marker is trusted only while it is fresh and its recorded
// process is still alive, so a crashed writer can never wedge the store.
package lockfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

const (
	// StaleAfter is the age past which a marker is reclaimed regardless of
	// whether its owner is still alive.
	StaleAfter = 5 * time.Second

	DefaultMaxAttempts = 10
	DefaultRetryDelay  = 100 * time.Millisecond
)

// Record is the parsed content of a lock marker: owner pid on the first
// line, acquisition time as unix milliseconds on the second.
type Record struct {
	PID        int
	AcquiredAt time.Time
}

type Lock struct {
	path string
}

func New(path string) *Lock {
	return &Lock{path: path}
}

func (l *Lock) Path() string {
	return l.path
}

// TryAcquire attempts a single acquisition. A false result with nil error
// means a live peer holds the lock. Stale markers (too old, or owned by a
// process that no longer exists) are reclaimed and acquisition is retried
// once before giving up.
func (l *Lock) TryAcquire() (bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		acquired, err := l.create()
		if err != nil {
			return false, err
		}
		if acquired {
			return true, nil
		}

		record, readErr := l.read()
		if readErr != nil {
			// Unreadable or garbage marker: self-heal by removing it.
			_ = os.Remove(l.path)
			continue
		}
		if time.Since(record.AcquiredAt) > StaleAfter {
			_ = os.Remove(l.path)
			continue
		}
		if !pidAlive(record.PID) {
			_ = os.Remove(l.path)
			continue
		}
		return false, nil
	}
	return false, nil
}

// Release removes the marker. Releasing an already-released lock is a no-op.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock marker: %w", err)
	}
	return nil
}

// AcquireWithRetry calls TryAcquire up to maxAttempts times, sleeping delay
// between attempts. The retry loop is the only blocking wait in the store
// and is bounded by construction.
func (l *Lock) AcquireWithRetry(maxAttempts int, delay time.Duration) (bool, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
		}
		acquired, err := l.TryAcquire()
		if err != nil {
			return false, err
		}
		if acquired {
			return true, nil
		}
	}
	return false, nil
}

// Holder reports the current marker, if any. Absence is not an error.
func (l *Lock) Holder() (*Record, error) {
	if _, err := os.Stat(l.path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat lock marker: %w", err)
	}
	record, err := l.read()
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (l *Lock) create() (bool, error) {
	// #nosec G304 -- lock path is derived from the store's config path.
	markerFile, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("create lock marker: %w", err)
	}
	content := fmt.Sprintf("%d\n%d\n", os.Getpid(), time.Now().UTC().UnixMilli())
	if _, err := markerFile.WriteString(content); err != nil {
		_ = markerFile.Close()
		_ = os.Remove(l.path)
		return false, fmt.Errorf("write lock marker: %w", err)
	}
	if err := markerFile.Close(); err != nil {
		_ = os.Remove(l.path)
		return false, fmt.Errorf("close lock marker: %w", err)
	}
	return true, nil
}

func (l *Lock) read() (Record, error) {
	// #nosec G304 -- lock path is derived from the store's config path.
	content, err := os.ReadFile(l.path)
	if err != nil {
		return Record{}, fmt.Errorf("read lock marker: %w", err)
	}
	lines := strings.SplitN(strings.TrimSpace(string(content)), "\n", 3)
	if len(lines) < 2 {
		return Record{}, fmt.Errorf("lock marker has %d lines, want 2", len(lines))
	}
	pid, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return Record{}, fmt.Errorf("parse lock owner pid: %w", err)
	}
	millis, err := strconv.ParseInt(strings.TrimSpace(lines[1]), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("parse lock timestamp: %w", err)
	}
	return Record{PID: pid, AcquiredAt: time.UnixMilli(millis).UTC()}, nil
}

// pidAlive probes whether the recorded owner still exists. Probe errors are
// treated as "alive" so a transient failure never steals a live peer's lock.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	exists, err := process.PidExists(int32(pid))
	if err != nil {
		return true
	}
	return exists
}
