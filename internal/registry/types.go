package registry

import (
	"fmt"
	"time"
)

// AgentStatus represents an agent's activity level, derived from its
// in-flight work count.
type AgentStatus string

const (
	// StatusIdle indicates the agent owns no non-terminal work items.
	StatusIdle AgentStatus = "idle"

	// StatusActive indicates the agent owns work but has spare capacity.
	StatusActive AgentStatus = "active"

	// StatusBusy indicates the agent is at its declared capacity.
	StatusBusy AgentStatus = "busy"
)

// Valid reports whether s is a known agent status value.
func (s AgentStatus) Valid() bool {
	switch s {
	case StatusIdle, StatusActive, StatusBusy:
		return true
	}
	return false
}

// DeriveStatus computes an agent's status from its capacity bookkeeping.
func DeriveStatus(current, max int) AgentStatus {
	switch {
	case current <= 0:
		return StatusIdle
	case current >= max:
		return StatusBusy
	default:
		return StatusActive
	}
}

// Agent is one registered worker in the coordination registry. The JSON
// field names are a compatibility contract; "capacity" carries the declared
// maximum, "capacity_current" the live in-flight count.
type Agent struct {
	ID              string      `json:"agent_id"`
	Team            string      `json:"team"`
	CapacityMax     int         `json:"capacity"`
	CapacityCurrent int         `json:"capacity_current"`
	Specialization  string      `json:"specialization"`
	Status          AgentStatus `json:"status"`
	RegisteredAt    time.Time   `json:"registered_at"`
	LastActivity    time.Time   `json:"last_activity"`
}

// Validate checks the record against the schema. Malformed records are
// rejected rather than silently defaulted.
func (a *Agent) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("agent missing agent_id")
	}
	if a.CapacityMax < 1 {
		return fmt.Errorf("agent %s has non-positive capacity %d", a.ID, a.CapacityMax)
	}
	if a.CapacityCurrent < 0 || a.CapacityCurrent > a.CapacityMax {
		return fmt.Errorf("agent %s capacity_current %d outside [0, %d]", a.ID, a.CapacityCurrent, a.CapacityMax)
	}
	if !a.Status.Valid() {
		return fmt.Errorf("agent %s has unknown status %q", a.ID, a.Status)
	}
	return nil
}
