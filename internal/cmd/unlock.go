package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	unlockForce  bool
	unlockMaxAge time.Duration
)

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Inspect or clear the coordination lock",
	Long: `Unlock prints the current lock holder. With --force it removes the
lock file, but only when the recorded holder process is dead or the lock
is older than --max-age. A live, fresh holder is never cleared.`,
	Args: cobra.NoArgs,
	RunE: runUnlock,
}

func init() {
	unlockCmd.Flags().BoolVar(&unlockForce, "force", false, "remove the lock if the holder is dead or stale")
	unlockCmd.Flags().DurationVar(&unlockMaxAge, "max-age", 0, "age beyond which a held lock counts as stale (default from config)")
	rootCmd.AddCommand(unlockCmd)
}

func runUnlock(cmd *cobra.Command, args []string) error {
	engine, cfg, err := newEngine()
	if err != nil {
		return err
	}
	lock := engine.Lock()

	holder, err := lock.Inspect()
	if err != nil {
		return err
	}
	if holder == nil {
		fmt.Println("lock is free")
		return nil
	}

	fmt.Printf("held by pid %d on %s since %s\n",
		holder.PID, holder.Hostname, holder.AcquiredAt.Format(time.RFC3339))

	if !unlockForce {
		return nil
	}

	maxAge := unlockMaxAge
	if maxAge == 0 {
		maxAge = cfg.Lock.StaleAfter
	}
	if err := lock.ForceClear(maxAge); err != nil {
		return err
	}
	fmt.Println("lock cleared")
	return nil
}
