// Package ledger holds the authoritative collection of work items as a
// single JSON document with atomic whole-file replacement. Readers always
// see either the fully-old or fully-new version of the file, never a mix,
// because writers stage to a temporary file and rename into place.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hivefile/hivefile/internal/coorderr"
)

const ledgerFileName = "work-ledger.json"

// Store reads and atomically replaces the work item ledger file.
//
// Write must only be called while holding the coordination lock, after
// revalidating invariants against a freshly-read snapshot. Read takes no
// lock; the atomic rename guarantees it never observes a torn document.
type Store struct {
	path string
}

// NewStore creates a Store rooted at the given coordination directory.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, ledgerFileName)}
}

// Path returns the ledger file path.
func (s *Store) Path() string {
	return s.path
}

// Read returns the current full set of work items. A missing file is an
// empty ledger. Unparseable or schema-violating content is surfaced as an
// error matching coorderr.ErrMalformedLedger; the file is left untouched.
func (s *Store) Read() ([]WorkItem, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []WorkItem{}, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var items []WorkItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, coorderr.NewMalformedError(s.path, err)
	}

	for i := range items {
		if err := items[i].Validate(); err != nil {
			return nil, coorderr.NewMalformedError(s.path, err)
		}
	}
	return items, nil
}

// Write atomically replaces the ledger with the given snapshot: marshal,
// stage to a temporary file, rename over the live file. Every record is
// validated before anything touches disk.
func (s *Store) Write(items []WorkItem) error {
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return coorderr.NewMalformedError(s.path, err)
		}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	data = append(data, '\n')

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp ledger: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp ledger: %w", err)
	}
	return nil
}

// Find returns the index of the work item with the given id, or -1.
func Find(items []WorkItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
