// Package eventlog provides the append-only record of committed work item
// transitions and per-operation telemetry spans. Records are persisted as
// JSONL (one JSON object per line) in a write-once log: lines are appended
// with a single O_APPEND write so each line lands whole, and the file is
// never rewritten by the core.
//
// The log is written outside the coordination lock. Interleaving between
// independent operations' records is tolerated; the only guarantee is that
// every line is independently parseable.
package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const logFileName = "events.jsonl"

// Record kinds stored in the shared log file.
const (
	// KindTransition marks an audit record of a committed transition.
	KindTransition = "transition"

	// KindSpan marks a telemetry span for one engine operation.
	KindSpan = "span"
)

// Span outcome values.
const (
	SpanSuccess = "success"
	SpanFailure = "failure"
)

// TransitionEntry is an immutable audit record of a committed work item
// transition. Never mutated or deleted by the core.
type TransitionEntry struct {
	WorkItemID string    `json:"work_item_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	AgentID    string    `json:"agent_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// Span is an immutable telemetry record for one engine operation,
// emitted whether the operation succeeded or failed.
type Span struct {
	TraceID    string    `json:"trace_id"`
	SpanID     string    `json:"span_id"`
	Operation  string    `json:"operation"`
	DurationMS int64     `json:"duration_ms"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewSpan builds a Span for the given operation with fresh trace and span
// ids and the measured duration.
func NewSpan(operation string, duration time.Duration, success bool) Span {
	status := SpanSuccess
	if !success {
		status = SpanFailure
	}
	return Span{
		TraceID:    uuid.NewString(),
		SpanID:     uuid.NewString(),
		Operation:  operation,
		DurationMS: duration.Milliseconds(),
		Status:     status,
		Timestamp:  time.Now().UTC(),
	}
}

// Entry is one decoded log line. Kind discriminates which field set is
// populated.
type Entry struct {
	Kind string `json:"kind"`

	// Transition fields.
	WorkItemID string `json:"work_item_id,omitempty"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`
	AgentID    string `json:"agent_id,omitempty"`

	// Span fields.
	TraceID    string `json:"trace_id,omitempty"`
	SpanID     string `json:"span_id,omitempty"`
	Operation  string `json:"operation,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Status     string `json:"status,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Log appends to and reads the shared event/telemetry file.
type Log struct {
	path string
	mu   sync.Mutex
}

// NewLog creates a Log rooted at the given coordination directory.
func NewLog(dir string) *Log {
	return &Log{path: filepath.Join(dir, logFileName)}
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// AppendTransition appends one transition audit record.
func (l *Log) AppendTransition(e TransitionEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return l.append(Entry{
		Kind:       KindTransition,
		WorkItemID: e.WorkItemID,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		AgentID:    e.AgentID,
		Timestamp:  e.Timestamp,
	})
}

// AppendSpan appends one telemetry span record.
func (l *Log) AppendSpan(s Span) error {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}
	return l.append(Entry{
		Kind:       KindSpan,
		TraceID:    s.TraceID,
		SpanID:     s.SpanID,
		Operation:  s.Operation,
		DurationMS: s.DurationMS,
		Status:     s.Status,
		Timestamp:  s.Timestamp,
	})
}

// append marshals the entry and writes it as one whole line. The mutex
// serializes writers within this process; across processes the single
// O_APPEND write keeps lines whole.
func (l *Log) append(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("eventlog: marshal entry: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("eventlog: open for append: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("eventlog: append: %w", err)
	}
	return f.Close()
}

// ReadAll returns every decodable entry in the log, in file order.
// A malformed line fails only that line's decode and is skipped; the log
// is diagnostic, not authoritative state.
func (l *Log) ReadAll() ([]Entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("eventlog: open: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("eventlog: scan: %w", err)
	}
	return entries, nil
}

// Transitions filters entries down to transition records for the given
// work item id. An empty id matches all items.
func Transitions(entries []Entry, workItemID string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Kind != KindTransition {
			continue
		}
		if workItemID != "" && e.WorkItemID != workItemID {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Spans filters entries down to span records for the given operation.
// An empty operation matches all spans.
func Spans(entries []Entry, operation string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Kind != KindSpan {
			continue
		}
		if operation != "" && e.Operation != operation {
			continue
		}
		out = append(out, e)
	}
	return out
}
