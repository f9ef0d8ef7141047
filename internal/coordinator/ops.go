package coordinator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hivefile/hivefile/internal/coorderr"
	"github.com/hivefile/hivefile/internal/ident"
	"github.com/hivefile/hivefile/internal/ledger"
	"github.com/hivefile/hivefile/internal/registry"
)

// RegisterRequest describes an agent registration or re-registration.
type RegisterRequest struct {
	AgentID        string // generated when empty
	Team           string
	CapacityMax    int
	Specialization string
}

// ClaimRequest describes a new work item claim.
type ClaimRequest struct {
	AgentID     string
	Type        string
	Description string
	Priority    ledger.Priority
	Team        string
}

// Snapshot is a read-only view of the coordination state.
type Snapshot struct {
	Items  []ledger.WorkItem
	Agents []registry.Agent
}

// Register creates or updates an agent record. Re-registering an existing
// id updates its labels and declared capacity while preserving the live
// in-flight count.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (agent registry.Agent, err error) {
	start := time.Now()
	defer func() { e.emitSpan("register", start, err) }()

	if req.CapacityMax < 1 {
		return registry.Agent{}, fmt.Errorf("capacity must be at least 1, got %d", req.CapacityMax)
	}

	err = e.withLock(ctx, func() error {
		agents, readErr := e.agents.Read()
		if readErr != nil {
			return readErr
		}

		now := time.Now().UTC()
		id := req.AgentID
		if id == "" {
			id = "ag-" + ident.Next()
		}

		if idx := registry.Find(agents, id); idx >= 0 {
			a := &agents[idx]
			a.Team = req.Team
			a.CapacityMax = req.CapacityMax
			a.Specialization = req.Specialization
			a.Status = registry.DeriveStatus(a.CapacityCurrent, a.CapacityMax)
			a.LastActivity = now
			agent = *a
		} else {
			agent = registry.Agent{
				ID:             id,
				Team:           req.Team,
				CapacityMax:    req.CapacityMax,
				Specialization: req.Specialization,
				Status:         registry.StatusIdle,
				RegisteredAt:   now,
				LastActivity:   now,
			}
			agents = append(agents, agent)
		}

		return e.agents.Write(agents)
	})
	if err != nil {
		return registry.Agent{}, err
	}

	e.logger.WithOperation("register").Info("agent registered",
		"agent_id", agent.ID, "team", agent.Team, "capacity", agent.CapacityMax)
	return agent, nil
}

// Claim mints a new work item owned by the calling agent. The ledger and
// registry are read, validated, and written inside one critical section:
// capacity bookkeeping is never updated without the corresponding work item
// and vice versa.
func (e *Engine) Claim(ctx context.Context, req ClaimRequest) (item ledger.WorkItem, err error) {
	start := time.Now()
	defer func() { e.emitSpan("claim", start, err) }()

	if req.AgentID == "" {
		return ledger.WorkItem{}, fmt.Errorf("claim requires an agent identity")
	}
	if !req.Priority.Valid() {
		return ledger.WorkItem{}, fmt.Errorf("unknown priority %q", req.Priority)
	}

	err = e.withLock(ctx, func() error {
		agents, readErr := e.agents.Read()
		if readErr != nil {
			return readErr
		}

		idx := registry.Find(agents, req.AgentID)
		if idx < 0 {
			return coorderr.NewNotFoundError("agent", req.AgentID)
		}
		a := agents[idx]
		if a.CapacityCurrent >= a.CapacityMax {
			return coorderr.NewCapacityError(a.ID, a.CapacityCurrent, a.CapacityMax)
		}

		items, readErr := e.items.Read()
		if readErr != nil {
			return readErr
		}

		id := "wi-" + ident.Next()
		for ledger.Find(items, id) >= 0 {
			id = "wi-" + ident.Next()
		}

		now := time.Now().UTC()
		item = ledger.WorkItem{
			ID:          id,
			Type:        req.Type,
			Description: req.Description,
			Priority:    req.Priority,
			Status:      ledger.StatusActive,
			AgentID:     req.AgentID,
			Team:        req.Team,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		items = append(items, item)

		if err := adjustCapacity(agents, req.AgentID, +1); err != nil {
			return err
		}

		if err := e.items.Write(items); err != nil {
			return err
		}
		return e.agents.Write(agents)
	})
	if err != nil {
		return ledger.WorkItem{}, err
	}

	e.logger.WithOperation("claim").WithAgent(req.AgentID).Info("work item claimed",
		"work_item_id", item.ID, "work_type", item.Type, "priority", string(item.Priority))
	return item, nil
}

// Progress records forward progress on a non-terminal work item,
// transitioning it to in_progress on first report. Regressing percent is an
// invalid transition; the recorded value stays untouched.
func (e *Engine) Progress(ctx context.Context, workItemID string, percent int, note string) (item ledger.WorkItem, err error) {
	start := time.Now()
	defer func() { e.emitSpan("progress", start, err) }()

	err = e.withLock(ctx, func() error {
		items, readErr := e.items.Read()
		if readErr != nil {
			return readErr
		}

		idx := ledger.Find(items, workItemID)
		if idx < 0 {
			return coorderr.NewNotFoundError("work item", workItemID)
		}

		w := &items[idx]
		if !w.Status.CanTransitionTo(ledger.StatusInProgress) {
			return coorderr.NewTransitionError(w.ID, w.Status.String(), ledger.StatusInProgress.String(), "item is terminal")
		}
		if percent < 0 || percent > 100 {
			return coorderr.NewTransitionError(w.ID, w.Status.String(), ledger.StatusInProgress.String(),
				fmt.Sprintf("percent %d out of range", percent))
		}
		if percent < w.ProgressPercent {
			return coorderr.NewTransitionError(w.ID, w.Status.String(), ledger.StatusInProgress.String(),
				fmt.Sprintf("progress cannot regress from %d to %d", w.ProgressPercent, percent))
		}

		w.Status = ledger.StatusInProgress
		w.ProgressPercent = percent
		w.UpdatedAt = time.Now().UTC()
		item = *w

		return e.items.Write(items)
	})
	if err != nil {
		return ledger.WorkItem{}, err
	}

	e.logger.WithOperation("progress").Info("progress recorded",
		"work_item_id", item.ID, "percent", item.ProgressPercent, "note", note)
	return item, nil
}

// Complete moves a non-terminal work item to completed, records its result
// and velocity points, and releases one unit of the owner's capacity.
// Completing a terminal item fails with an invalid transition so callers
// cannot double-count velocity.
func (e *Engine) Complete(ctx context.Context, workItemID, result string, velocityPoints int) (ledger.WorkItem, error) {
	return e.finish(ctx, "complete", workItemID, ledger.StatusCompleted, result, velocityPoints)
}

// Fail moves a non-terminal work item to failed, recording the reason, and
// releases one unit of the owner's capacity.
func (e *Engine) Fail(ctx context.Context, workItemID, reason string) (ledger.WorkItem, error) {
	return e.finish(ctx, "fail", workItemID, ledger.StatusFailed, reason, 0)
}

// finish applies a terminal transition. The ledger and registry are written
// together inside the critical section; the audit record is appended after
// the lock is released.
func (e *Engine) finish(ctx context.Context, operation, workItemID string, terminal ledger.Status, result string, velocityPoints int) (item ledger.WorkItem, err error) {
	start := time.Now()
	defer func() { e.emitSpan(operation, start, err) }()

	var from ledger.Status
	err = e.withLock(ctx, func() error {
		items, readErr := e.items.Read()
		if readErr != nil {
			return readErr
		}

		idx := ledger.Find(items, workItemID)
		if idx < 0 {
			return coorderr.NewNotFoundError("work item", workItemID)
		}

		w := &items[idx]
		if !w.Status.CanTransitionTo(terminal) {
			return coorderr.NewTransitionError(w.ID, w.Status.String(), terminal.String(), "item is terminal")
		}

		agents, readErr := e.agents.Read()
		if readErr != nil {
			return readErr
		}
		if err := adjustCapacity(agents, w.AgentID, -1); err != nil {
			return err
		}

		from = w.Status
		w.Status = terminal
		w.Result = result
		if terminal == ledger.StatusCompleted {
			w.VelocityPoints = velocityPoints
		}
		w.UpdatedAt = time.Now().UTC()
		item = *w

		if err := e.items.Write(items); err != nil {
			return err
		}
		return e.agents.Write(agents)
	})
	if err != nil {
		return ledger.WorkItem{}, err
	}

	e.recordTransition(item, from)
	e.logger.WithOperation(operation).Info("work item finished",
		"work_item_id", item.ID, "status", item.Status.String(), "agent_id", item.AgentID)
	return item, nil
}

// List returns a filtered snapshot of work items plus all agents. It takes
// no lock: concurrent writers are invisible mid-flight because both files
// are replaced atomically, so the snapshot is stale at worst, never torn.
//
// The filter is either empty (everything), a key=value pair narrowing on
// status, team, agent, or type, or a bare token matched against all four.
func (e *Engine) List(filter string) (snap Snapshot, err error) {
	start := time.Now()
	defer func() { e.emitSpan("list", start, err) }()

	items, err := e.items.Read()
	if err != nil {
		return Snapshot{}, err
	}
	agents, err := e.agents.Read()
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Items:  filterItems(items, filter),
		Agents: agents,
	}, nil
}

// filterItems applies the list filter expression.
func filterItems(items []ledger.WorkItem, filter string) []ledger.WorkItem {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return items
	}

	key, value, hasKey := strings.Cut(filter, "=")
	match := func(w ledger.WorkItem) bool {
		if hasKey {
			switch strings.ToLower(key) {
			case "status":
				return w.Status.String() == value
			case "team":
				return w.Team == value
			case "agent":
				return w.AgentID == value
			case "type":
				return w.Type == value
			default:
				return false
			}
		}
		return w.Status.String() == filter ||
			w.Team == filter ||
			w.AgentID == filter ||
			w.Type == filter
	}

	out := make([]ledger.WorkItem, 0, len(items))
	for _, w := range items {
		if match(w) {
			out = append(out, w)
		}
	}
	return out
}
