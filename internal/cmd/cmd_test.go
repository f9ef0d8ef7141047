package cmd

import (
	"bytes"
	"testing"

	"github.com/hivefile/hivefile/internal/ledger"
	"github.com/hivefile/hivefile/internal/registry"
	"github.com/spf13/cobra"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("rootCmd is nil")
	}
	if rootCmd.Use != "hivefile" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "hivefile")
	}

	expectedCmds := []string{"register", "claim", "progress", "complete", "fail", "list", "unlock", "watch"}
	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}
	for _, name := range expectedCmds {
		if !cmdMap[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestRegisterClaimCompleteFlow(t *testing.T) {
	dir := t.TempDir()

	if _, err := executeCommand(rootCmd, "--dir", dir, "register", "ag-cli", "backend", "2", "api"); err != nil {
		t.Fatalf("register: %v", err)
	}

	agents, err := registry.NewStore(dir).Read()
	if err != nil {
		t.Fatalf("read registry: %v", err)
	}
	if len(agents) != 1 || agents[0].ID != "ag-cli" {
		t.Fatalf("registry = %+v, want one agent ag-cli", agents)
	}

	if _, err := executeCommand(rootCmd, "--dir", dir, "--agent", "ag-cli",
		"claim", "feature", "wire the endpoint", "high", "backend"); err != nil {
		t.Fatalf("claim: %v", err)
	}

	items, err := ledger.NewStore(dir).Read()
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("ledger has %d items, want 1", len(items))
	}
	id := items[0].ID

	if _, err := executeCommand(rootCmd, "--dir", dir, "progress", id, "40"); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if _, err := executeCommand(rootCmd, "--dir", dir, "complete", id, "merged", "3"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	items, err = ledger.NewStore(dir).Read()
	if err != nil {
		t.Fatalf("re-read ledger: %v", err)
	}
	if items[0].Status != ledger.StatusCompleted {
		t.Errorf("status = %s, want completed", items[0].Status)
	}
	if items[0].VelocityPoints != 3 {
		t.Errorf("velocity_points = %d, want 3", items[0].VelocityPoints)
	}
}

func TestClaimRequiresAgentIdentity(t *testing.T) {
	dir := t.TempDir()

	if _, err := executeCommand(rootCmd, "--dir", dir, "--agent", "",
		"claim", "feature", "desc", "high", "backend"); err == nil {
		t.Error("claim without an agent identity should fail")
	}
}

func TestRegisterRejectsBadCapacity(t *testing.T) {
	dir := t.TempDir()

	if _, err := executeCommand(rootCmd, "--dir", dir, "register", "ag-x", "team", "zero", "spec"); err == nil {
		t.Error("non-integer capacity should fail")
	}
	if _, err := executeCommand(rootCmd, "--dir", dir, "register", "ag-x", "team", "0", "spec"); err == nil {
		t.Error("zero capacity should fail")
	}
}

func TestListRunsOnEmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	if _, err := executeCommand(rootCmd, "--dir", dir, "list"); err != nil {
		t.Fatalf("list on empty directory: %v", err)
	}
	if _, err := executeCommand(rootCmd, "--dir", dir, "list", "agents"); err != nil {
		t.Fatalf("list agents on empty directory: %v", err)
	}
}

func TestUnlockReportsFreeLock(t *testing.T) {
	dir := t.TempDir()

	if _, err := executeCommand(rootCmd, "--dir", dir, "unlock"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
}
