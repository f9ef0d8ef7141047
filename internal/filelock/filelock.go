// Package filelock provides cross-process mutual exclusion over a shared
// filesystem using flock(2). A Lock guards the coordination ledger files:
// acquisition is bounded by a timeout, holder metadata is recorded for
// diagnostics, and an explicit stale-lock escape hatch lets an operator
// clear a lock whose holder has died.
//
// The OS releases a flock automatically when the holding process exits, so
// a crashed holder cannot wedge other callers indefinitely; ForceClear
// exists for operational recovery of the lock file itself, not for routine
// use.
package filelock

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hivefile/hivefile/internal/coorderr"
)

const defaultPollInterval = 10 * time.Millisecond

// Holder describes the process that most recently acquired a lock.
type Holder struct {
	PID        int       `json:"pid"`
	Hostname   string    `json:"hostname"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Lock provides timeout-bounded exclusive acquisition of a named advisory
// lock file.
type Lock struct {
	name         string
	path         string
	pollInterval time.Duration
	file         *os.File
}

// Option configures a Lock.
type Option func(*Lock)

// WithPollInterval overrides how often Acquire retries a contended lock.
func WithPollInterval(d time.Duration) Option {
	return func(l *Lock) {
		if d > 0 {
			l.pollInterval = d
		}
	}
}

// New creates a Lock for the named resource. The lock file is created
// inside dir as "<name>.lock".
func New(dir, name string, opts ...Option) *Lock {
	l := &Lock{
		name:         name,
		path:         filepath.Join(dir, name+".lock"),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false if another process holds it.
func (l *Lock) TryAcquire() (bool, error) {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return false, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if err == syscall.EWOULDBLOCK {
			return false, nil
		}
		return false, fmt.Errorf("flock: %w", err)
	}

	l.file = f
	l.writeHolder()
	return true, nil
}

// Acquire blocks until the lock is acquired, the timeout elapses, or ctx is
// canceled. On timeout it returns an error matching coorderr.ErrLockTimeout,
// which callers may retry with backoff. Abandoning the wait has no side
// effects.
func (l *Lock) Acquire(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		acquired, err := l.TryAcquire()
		if err != nil {
			return err
		}
		if acquired {
			return nil
		}

		if time.Now().After(deadline) {
			return coorderr.NewLockTimeoutError(l.name, timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.pollInterval):
		}
	}
}

// Release releases the lock and closes the lock file. Releasing an
// unacquired lock is a no-op.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}

	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		_ = l.file.Close()
		l.file = nil
		return fmt.Errorf("funlock: %w", err)
	}

	err := l.file.Close()
	l.file = nil
	return err
}

// writeHolder records the current process as the lock holder. Best effort:
// the metadata is diagnostic, the flock itself is the exclusion mechanism.
func (l *Lock) writeHolder() {
	hostname, _ := os.Hostname()
	data, err := json.Marshal(Holder{
		PID:        os.Getpid(),
		Hostname:   hostname,
		AcquiredAt: time.Now().UTC(),
	})
	if err != nil {
		return
	}
	data = append(data, '\n')

	if err := l.file.Truncate(0); err != nil {
		return
	}
	if _, err := l.file.Seek(0, 0); err != nil {
		return
	}
	_, _ = l.file.Write(data)
	_ = l.file.Sync()
}

// Inspect reads the holder metadata from the lock file. Returns
// (nil, nil) if the lock file does not exist or carries no metadata.
func (l *Lock) Inspect() (*Holder, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read lock file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var h Holder
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parse lock metadata: %w", err)
	}
	return &h, nil
}

// ForceClear removes the lock file if its holder is believed abandoned:
// either the recorded process is no longer alive, or the lock is older than
// maxAge. If the holder still looks live it returns an error matching
// coorderr.ErrStaleLock and leaves the file in place. This is an explicit
// operator escape hatch, never invoked automatically.
func (l *Lock) ForceClear(maxAge time.Duration) error {
	h, err := l.Inspect()
	if err != nil {
		return err
	}
	if h == nil {
		// No metadata to judge by; nothing to clear.
		return os.RemoveAll(l.path)
	}

	age := time.Since(h.AcquiredAt)
	if processAlive(h.PID) && age <= maxAge {
		return fmt.Errorf("%w: pid %d on %s holds %s (age %s, ceiling %s)",
			coorderr.ErrStaleLock, h.PID, h.Hostname, l.name, age.Round(time.Millisecond), maxAge)
	}

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

// processAlive reports whether a process with the given pid exists.
// Signal 0 performs the existence check without delivering a signal.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to another user.
	return err == syscall.EPERM
}
