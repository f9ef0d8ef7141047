package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress <work_item_id> <percent> [note]",
	Short: "Record forward progress on a work item",
	Long: `Progress sets a work item's completion percentage, moving it to
in_progress on the first report. Percent is monotonically non-decreasing;
a lower value than previously recorded is rejected.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runProgress,
}

func init() {
	rootCmd.AddCommand(progressCmd)
}

func runProgress(cmd *cobra.Command, args []string) error {
	percent, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("percent must be an integer: %w", err)
	}

	note := ""
	if len(args) == 3 {
		note = args[2]
	}

	engine, _, err := newEngine()
	if err != nil {
		return err
	}

	item, err := engine.Progress(cmd.Context(), args[0], percent, note)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s %d%%\n", item.ID, item.Status, item.ProgressPercent)
	return nil
}
