package cmd

import (
	"time"

	"github.com/hivefile/hivefile/internal/watch"
	"github.com/spf13/cobra"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [filter]",
	Short: "Live view of the work ledger",
	Long: `Watch opens a full-screen view of the work ledger and agent registry,
refreshed on an interval. The optional filter uses the same syntax as
list. Watch never takes the coordination lock.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Second, "refresh interval")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	filter := ""
	if len(args) == 1 {
		filter = args[0]
	}

	engine, _, err := newEngine()
	if err != nil {
		return err
	}

	return watch.New(engine, filter, watchInterval).Run()
}
