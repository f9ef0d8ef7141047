// Package coordinator implements the core state machine for file-based work
// coordination. An Engine validates and applies claim/progress/complete/fail
// transitions under a single cross-process lock, persisting the work ledger
// and agent registry together as one logical transaction and appending audit
// and telemetry records to the append-only event log.
//
// Control flow for every mutating operation: acquire the coordination lock,
// read fresh snapshots of both files, validate against the state machine and
// capacity invariants, write new snapshots via atomic replace, release the
// lock, then append event log records outside the lock.
package coordinator

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hivefile/hivefile/internal/coorderr"
	"github.com/hivefile/hivefile/internal/eventlog"
	"github.com/hivefile/hivefile/internal/filelock"
	"github.com/hivefile/hivefile/internal/ledger"
	"github.com/hivefile/hivefile/internal/logging"
	"github.com/hivefile/hivefile/internal/registry"
)

// lockName is the single advisory lock guarding both ledger files.
const lockName = "coordination"

// Config holds the dependencies and tuning for an Engine.
type Config struct {
	// Dir is the coordination directory holding all shared state.
	Dir string

	// LockTimeout bounds lock acquisition for mutating operations.
	LockTimeout time.Duration

	// LockPollInterval is the retry interval on a contended lock.
	LockPollInterval time.Duration

	// Logger receives diagnostic output. Optional; a stderr logger is
	// created when nil.
	Logger *logging.Logger
}

// Engine is the coordination core. Safe for concurrent use; every mutating
// operation serializes on the cross-process coordination lock.
type Engine struct {
	dir          string
	items        *ledger.Store
	agents       *registry.Store
	events       *eventlog.Log
	logger       *logging.Logger
	lockTimeout  time.Duration
	pollInterval time.Duration
}

// New creates an Engine rooted at cfg.Dir, creating the directory if needed.
func New(cfg Config) (*Engine, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("coordinator: Dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("coordinator: create directory: %w", err)
	}

	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 10 * time.Second
	}
	if cfg.LockPollInterval <= 0 {
		cfg.LockPollInterval = 10 * time.Millisecond
	}

	logger := cfg.Logger
	if logger == nil {
		var err error
		logger, err = logging.NewLogger("", logging.LevelWarn)
		if err != nil {
			return nil, err
		}
	}

	return &Engine{
		dir:          cfg.Dir,
		items:        ledger.NewStore(cfg.Dir),
		agents:       registry.NewStore(cfg.Dir),
		events:       eventlog.NewLog(cfg.Dir),
		logger:       logger,
		lockTimeout:  cfg.LockTimeout,
		pollInterval: cfg.LockPollInterval,
	}, nil
}

// EventLog exposes the engine's event log for reporting consumers.
func (e *Engine) EventLog() *eventlog.Log {
	return e.events
}

// Lock returns a handle on the coordination lock, used by the unlock verb
// for inspection and stale-lock clearance.
func (e *Engine) Lock() *filelock.Lock {
	return e.newLock()
}

// newLock creates a fresh lock handle. Each operation uses its own handle
// because flock state follows the open file description.
func (e *Engine) newLock() *filelock.Lock {
	return filelock.New(e.dir, lockName, filelock.WithPollInterval(e.pollInterval))
}

// withLock runs fn inside the coordination critical section.
func (e *Engine) withLock(ctx context.Context, fn func() error) error {
	lock := e.newLock()
	if err := lock.Acquire(ctx, e.lockTimeout); err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			e.logger.Warn("failed to release coordination lock", "error", err)
		}
	}()
	return fn()
}

// emitSpan records exactly one telemetry span for an operation, success or
// failure. Called via defer with the operation start time and final error.
func (e *Engine) emitSpan(operation string, start time.Time, opErr error) {
	span := eventlog.NewSpan(operation, time.Since(start), opErr == nil)
	if err := e.events.AppendSpan(span); err != nil {
		e.logger.Warn("failed to append telemetry span",
			"operation", operation, "error", err)
	}
}

// recordTransition appends one audit entry for a committed terminal
// transition. Runs outside the lock; the log is append-only and
// collision-tolerant.
func (e *Engine) recordTransition(item ledger.WorkItem, from ledger.Status) {
	err := e.events.AppendTransition(eventlog.TransitionEntry{
		WorkItemID: item.ID,
		FromStatus: from.String(),
		ToStatus:   item.Status.String(),
		AgentID:    item.AgentID,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		e.logger.Error("failed to append transition record",
			"work_item_id", item.ID, "error", err)
	}
}

// adjustCapacity applies delta to the agent's in-flight count and rederives
// its status. Returns an error matching coorderr.ErrNotFound when the agent
// is not registered.
func adjustCapacity(agents []registry.Agent, agentID string, delta int) error {
	idx := registry.Find(agents, agentID)
	if idx < 0 {
		return coorderr.NewNotFoundError("agent", agentID)
	}

	a := &agents[idx]
	a.CapacityCurrent += delta
	if a.CapacityCurrent < 0 {
		a.CapacityCurrent = 0
	}
	a.Status = registry.DeriveStatus(a.CapacityCurrent, a.CapacityMax)
	a.LastActivity = time.Now().UTC()
	return nil
}
