// Package registry tracks agent identity, team, and declared capacity in a
// JSON document parallel to the work ledger. It shares the ledger's atomic
// replacement discipline: the registry and ledger are always mutated
// together under the same coordination lock, since capacity bookkeeping and
// work item transitions form one logical transaction.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hivefile/hivefile/internal/coorderr"
)

const registryFileName = "agents.json"

// Store reads and atomically replaces the agent registry file.
type Store struct {
	path string
}

// NewStore creates a Store rooted at the given coordination directory.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, registryFileName)}
}

// Path returns the registry file path.
func (s *Store) Path() string {
	return s.path
}

// Read returns all registered agents. A missing file is an empty registry.
// Unparseable or schema-violating content is surfaced as an error matching
// coorderr.ErrMalformedLedger.
func (s *Store) Read() ([]Agent, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Agent{}, nil
		}
		return nil, fmt.Errorf("read agent registry: %w", err)
	}

	var agents []Agent
	if err := json.Unmarshal(data, &agents); err != nil {
		return nil, coorderr.NewMalformedError(s.path, err)
	}

	for i := range agents {
		if err := agents[i].Validate(); err != nil {
			return nil, coorderr.NewMalformedError(s.path, err)
		}
	}
	return agents, nil
}

// Write atomically replaces the registry with the given snapshot.
// Caller must hold the coordination lock.
func (s *Store) Write(agents []Agent) error {
	for i := range agents {
		if err := agents[i].Validate(); err != nil {
			return coorderr.NewMalformedError(s.path, err)
		}
	}

	data, err := json.MarshalIndent(agents, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal agent registry: %w", err)
	}
	data = append(data, '\n')

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp registry: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp registry: %w", err)
	}
	return nil
}

// Find returns the index of the agent with the given id, or -1.
func Find(agents []Agent, id string) int {
	for i := range agents {
		if agents[i].ID == id {
			return i
		}
	}
	return -1
}
