package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hivefile/hivefile/internal/coorderr"
)

func sampleItem(id string) WorkItem {
	now := time.Now().UTC()
	return WorkItem{
		ID:          id,
		Type:        "build",
		Description: "compile module X",
		Priority:    PriorityHigh,
		Status:      StatusActive,
		AgentID:     "ag-1",
		Team:        "team1",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestStore_ReadMissingFile(t *testing.T) {
	s := NewStore(t.TempDir())

	items, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("missing file should read as empty ledger, got %d items", len(items))
	}
}

func TestStore_WriteReadRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())

	want := []WorkItem{sampleItem("wi-1"), sampleItem("wi-2")}
	if err := s.Write(want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Read returned %d items, want 2", len(got))
	}
	if got[0].ID != "wi-1" || got[1].ID != "wi-2" {
		t.Errorf("ids = %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].Priority != PriorityHigh || got[0].Status != StatusActive {
		t.Errorf("enums lost in round trip: %+v", got[0])
	}
}

func TestStore_WriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	if err := s.Write([]WorkItem{sampleItem("wi-1")}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestStore_ReadMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	bad := []byte(`[{"work_item_id": "wi-1", "work_type":`)
	if err := os.WriteFile(s.Path(), bad, 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	_, err := s.Read()
	if err == nil {
		t.Fatal("Read of truncated JSON should fail")
	}
	if !coorderr.Is(err, coorderr.ErrMalformedLedger) {
		t.Errorf("error should match ErrMalformedLedger, got %v", err)
	}

	// The file must be left untouched.
	after, readErr := os.ReadFile(s.Path())
	if readErr != nil {
		t.Fatalf("re-read file: %v", readErr)
	}
	if string(after) != string(bad) {
		t.Error("malformed file content was modified")
	}
}

func TestStore_ReadRejectsUnknownStatus(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	items := []map[string]any{{
		"work_item_id":     "wi-1",
		"work_type":        "build",
		"priority":         "high",
		"status":           "paused",
		"agent_id":         "ag-1",
		"progress_percent": 0,
	}}
	data, _ := json.Marshal(items)
	if err := os.WriteFile(s.Path(), data, 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	_, err := s.Read()
	if !coorderr.Is(err, coorderr.ErrMalformedLedger) {
		t.Errorf("unknown status should read as ErrMalformedLedger, got %v", err)
	}
}

func TestStore_WriteRejectsInvalidRecord(t *testing.T) {
	s := NewStore(t.TempDir())

	item := sampleItem("wi-1")
	item.ProgressPercent = 150

	if err := s.Write([]WorkItem{item}); err == nil {
		t.Fatal("Write should reject out-of-range progress")
	}

	// Nothing should have reached disk.
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Error("invalid write should not create the ledger file")
	}
}

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusActive, StatusInProgress, true},
		{StatusActive, StatusCompleted, true},
		{StatusActive, StatusFailed, true},
		{StatusInProgress, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusFailed, true},
		{StatusCompleted, StatusInProgress, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusCompleted, false},
		{StatusInProgress, StatusActive, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.ok {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	if StatusActive.IsTerminal() || StatusInProgress.IsTerminal() {
		t.Error("non-terminal statuses reported terminal")
	}
	if !StatusCompleted.IsTerminal() || !StatusFailed.IsTerminal() {
		t.Error("terminal statuses not reported terminal")
	}
}

func TestFind(t *testing.T) {
	items := []WorkItem{sampleItem("wi-1"), sampleItem("wi-2")}

	if idx := Find(items, "wi-2"); idx != 1 {
		t.Errorf("Find(wi-2) = %d, want 1", idx)
	}
	if idx := Find(items, "wi-9"); idx != -1 {
		t.Errorf("Find(wi-9) = %d, want -1", idx)
	}
}
