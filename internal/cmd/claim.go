package cmd

import (
	"fmt"

	"github.com/hivefile/hivefile/internal/coordinator"
	"github.com/hivefile/hivefile/internal/ledger"
	"github.com/spf13/cobra"
)

var claimCmd = &cobra.Command{
	Use:   "claim <type> <description> <priority> <team>",
	Short: "Claim a new work item for the calling agent",
	Long: `Claim creates a new work item owned by the calling agent and prints
its id. The agent identity comes from --agent or HIVEFILE_AGENT_ID. The
claim is rejected when the agent is at its declared capacity.`,
	Args: cobra.ExactArgs(4),
	RunE: runClaim,
}

func init() {
	rootCmd.AddCommand(claimCmd)
}

func runClaim(cmd *cobra.Command, args []string) error {
	engine, cfg, err := newEngine()
	if err != nil {
		return err
	}

	if cfg.Agent.ID == "" {
		return fmt.Errorf("no agent identity: pass --agent or set HIVEFILE_AGENT_ID")
	}

	item, err := engine.Claim(cmd.Context(), coordinator.ClaimRequest{
		AgentID:     cfg.Agent.ID,
		Type:        args[0],
		Description: args[1],
		Priority:    ledger.Priority(args[2]),
		Team:        args[3],
	})
	if err != nil {
		return err
	}

	fmt.Println(item.ID)
	return nil
}
