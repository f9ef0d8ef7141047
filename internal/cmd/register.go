package cmd

import (
	"fmt"
	"strconv"

	"github.com/hivefile/hivefile/internal/coordinator"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register [agent_id] <team> <capacity> <specialization>",
	Short: "Register an agent or update its declared capacity",
	Long: `Register creates an agent record, or updates team, capacity, and
specialization for an existing id. When agent_id is omitted one is
generated and printed. Re-registration preserves the agent's live
in-flight work count.`,
	Args: cobra.RangeArgs(3, 4),
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	req := coordinator.RegisterRequest{}
	rest := args
	if len(args) == 4 {
		req.AgentID = args[0]
		rest = args[1:]
	}
	req.Team = rest[0]

	capacity, err := strconv.Atoi(rest[1])
	if err != nil {
		return fmt.Errorf("capacity must be an integer: %w", err)
	}
	req.CapacityMax = capacity
	req.Specialization = rest[2]

	engine, _, err := newEngine()
	if err != nil {
		return err
	}

	agent, err := engine.Register(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Println(agent.ID)
	return nil
}
