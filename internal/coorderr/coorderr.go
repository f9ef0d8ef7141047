// Package coorderr provides centralized error definitions for the hivefile
// coordination core. It defines the sentinel errors callers branch on,
// semantic error types carrying operation context, and classification
// helpers.
//
// The only retryable error kind is ErrLockTimeout: the coordination lock was
// not acquired within the configured bound and the caller may retry with
// backoff. Every other kind indicates a logic or data error and must be
// surfaced to the operator rather than retried.
package coorderr

import (
	"errors"
	"fmt"
	"time"
)

// Re-export standard library functions for convenience so callers can
// import only this package for error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
)

// Sentinel errors for the coordination core.
var (
	// ErrLockTimeout indicates the coordination lock was not acquired
	// within the configured timeout. Retryable.
	ErrLockTimeout = New("lock acquisition timed out")

	// ErrMalformedLedger indicates stored JSON failed to parse or validate.
	// The file is left untouched; the core never guess-fixes corrupt state.
	ErrMalformedLedger = New("ledger data malformed")

	// ErrNotFound indicates a referenced work item or agent does not exist.
	ErrNotFound = New("not found")

	// ErrInvalidTransition indicates an attempted state change violates the
	// work item state machine (terminal item mutated, progress regressed).
	ErrInvalidTransition = New("invalid state transition")

	// ErrCapacityExceeded indicates a claim would push an agent past its
	// declared capacity.
	ErrCapacityExceeded = New("agent capacity exceeded")

	// ErrStaleLock indicates a lock believed abandoned; clearing it is an
	// explicit operator action, never automatic.
	ErrStaleLock = New("stale lock")
)

// LockTimeoutError reports a failed lock acquisition with its bound.
type LockTimeoutError struct {
	Name    string
	Timeout time.Duration
}

// NewLockTimeoutError creates a LockTimeoutError for the named lock.
func NewLockTimeoutError(name string, timeout time.Duration) *LockTimeoutError {
	return &LockTimeoutError{Name: name, Timeout: timeout}
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("lock %q not acquired within %s", e.Name, e.Timeout)
}

// Is reports a match against ErrLockTimeout so callers can use errors.Is
// without knowing the concrete type.
func (e *LockTimeoutError) Is(target error) bool {
	return target == ErrLockTimeout
}

// NotFoundError reports a missing resource by type and id.
type NotFoundError struct {
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{ResourceType: resourceType, ResourceID: resourceID}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// TransitionError reports a state machine violation for a work item.
type TransitionError struct {
	WorkItemID string
	From       string
	To         string
	Reason     string
}

// NewTransitionError creates a TransitionError.
func NewTransitionError(workItemID, from, to, reason string) *TransitionError {
	return &TransitionError{WorkItemID: workItemID, From: from, To: to, Reason: reason}
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("work item %s: cannot transition %s -> %s: %s", e.WorkItemID, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("work item %s: cannot transition %s -> %s", e.WorkItemID, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// CapacityError reports a claim rejected for exceeding agent capacity.
type CapacityError struct {
	AgentID string
	Current int
	Max     int
}

// NewCapacityError creates a CapacityError.
func NewCapacityError(agentID string, current, max int) *CapacityError {
	return &CapacityError{AgentID: agentID, Current: current, Max: max}
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("agent %s at capacity (%d/%d)", e.AgentID, e.Current, e.Max)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// MalformedError reports unparseable or invalid stored state.
type MalformedError struct {
	Path  string
	Cause error
}

// NewMalformedError creates a MalformedError for the given file.
func NewMalformedError(path string, cause error) *MalformedError {
	return &MalformedError{Path: path, Cause: cause}
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed state in %s: %v", e.Path, e.Cause)
}

func (e *MalformedError) Unwrap() error { return e.Cause }

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformedLedger
}

// IsRetryable returns true if the error represents a transient condition
// the caller may retry with backoff. Only lock timeouts qualify; everything
// else in the taxonomy is a logic or data error.
func IsRetryable(err error) bool {
	return err != nil && errors.Is(err, ErrLockTimeout)
}

// Wrap wraps an error with additional context, preserving errors.Is matching.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
