package ledger

import (
	"fmt"
	"time"
)

// Status represents the lifecycle state of a work item.
type Status string

const (
	// StatusActive indicates the item was claimed but work has not started.
	StatusActive Status = "active"

	// StatusInProgress indicates the owning agent has reported progress.
	StatusInProgress Status = "in_progress"

	// StatusCompleted indicates the item finished successfully.
	StatusCompleted Status = "completed"

	// StatusFailed indicates the item reached a terminal failure.
	StatusFailed Status = "failed"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if this status represents a final state.
// Terminal items are immutable.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine permits moving from s
// to next. Status only moves forward: active -> in_progress -> terminal,
// with terminal transitions allowed directly from active.
func (s Status) CanTransitionTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	switch next {
	case StatusInProgress:
		return s == StatusActive || s == StatusInProgress
	case StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Priority represents the urgency of a work item.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether p is a known priority value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// WorkItem is one unit of work in the coordination ledger. The JSON field
// names are a compatibility contract with external tooling that reads the
// ledger file directly.
type WorkItem struct {
	ID              string    `json:"work_item_id"`
	Type            string    `json:"work_type"`
	Description     string    `json:"description"`
	Priority        Priority  `json:"priority"`
	Status          Status    `json:"status"`
	AgentID         string    `json:"agent_id"`
	Team            string    `json:"team,omitempty"`
	ProgressPercent int       `json:"progress_percent"`
	VelocityPoints  int       `json:"velocity_points,omitempty"`
	Result          string    `json:"result,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Validate checks the record against the schema: required identifiers,
// known enum values, progress within range. Malformed records are rejected
// rather than silently defaulted.
func (w *WorkItem) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("work item missing work_item_id")
	}
	if w.AgentID == "" {
		return fmt.Errorf("work item %s missing agent_id", w.ID)
	}
	if !w.Status.Valid() {
		return fmt.Errorf("work item %s has unknown status %q", w.ID, w.Status)
	}
	if !w.Priority.Valid() {
		return fmt.Errorf("work item %s has unknown priority %q", w.ID, w.Priority)
	}
	if w.ProgressPercent < 0 || w.ProgressPercent > 100 {
		return fmt.Errorf("work item %s progress_percent %d out of range", w.ID, w.ProgressPercent)
	}
	return nil
}
