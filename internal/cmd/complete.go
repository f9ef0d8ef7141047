package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete <work_item_id> <result> <velocity_points>",
	Short: "Mark a work item completed",
	Long: `Complete moves a work item to its terminal completed state, records
the result and velocity points, and releases one unit of the owning
agent's capacity. Completing an already-terminal item is an error so
velocity is never double-counted.`,
	Args: cobra.ExactArgs(3),
	RunE: runComplete,
}

var failCmd = &cobra.Command{
	Use:   "fail <work_item_id> <reason>",
	Short: "Mark a work item failed",
	Long: `Fail moves a work item to its terminal failed state with the given
reason and releases one unit of the owning agent's capacity.`,
	Args: cobra.ExactArgs(2),
	RunE: runFail,
}

func init() {
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(failCmd)
}

func runComplete(cmd *cobra.Command, args []string) error {
	points, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("velocity_points must be an integer: %w", err)
	}

	engine, _, err := newEngine()
	if err != nil {
		return err
	}

	item, err := engine.Complete(cmd.Context(), args[0], args[1], points)
	if err != nil {
		return err
	}

	fmt.Printf("%s completed (%d points)\n", item.ID, item.VelocityPoints)
	return nil
}

func runFail(cmd *cobra.Command, args []string) error {
	engine, _, err := newEngine()
	if err != nil {
		return err
	}

	item, err := engine.Fail(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Printf("%s failed: %s\n", item.ID, item.Result)
	return nil
}
