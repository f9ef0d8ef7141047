package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/hivefile/hivefile/internal/ledger"
	"github.com/hivefile/hivefile/internal/registry"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [filter]",
	Short: "List work items or agents",
	Long: `List prints a snapshot of the work ledger. The optional filter is
either key=value (status, team, agent, type) or a bare token matched
against all four. "list agents" prints the agent registry instead.

List takes no lock: the snapshot may lag concurrent writers but is never
torn.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

var (
	styleActive     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	styleInProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleCompleted  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleFailed     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func styledStatus(s ledger.Status) string {
	switch s {
	case ledger.StatusActive:
		return styleActive.Render(s.String())
	case ledger.StatusInProgress:
		return styleInProgress.Render(s.String())
	case ledger.StatusCompleted:
		return styleCompleted.Render(s.String())
	case ledger.StatusFailed:
		return styleFailed.Render(s.String())
	default:
		return s.String()
	}
}

func runList(cmd *cobra.Command, args []string) error {
	filter := ""
	if len(args) == 1 {
		filter = args[0]
	}

	engine, _, err := newEngine()
	if err != nil {
		return err
	}

	if filter == "agents" {
		snap, err := engine.List("")
		if err != nil {
			return err
		}
		renderAgents(snap.Agents)
		return nil
	}

	snap, err := engine.List(filter)
	if err != nil {
		return err
	}
	renderItems(snap.Items)
	return nil
}

func renderItems(items []ledger.WorkItem) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Type", "Priority", "Status", "Agent", "Team", "Progress", "Updated"})
	for _, w := range items {
		tw.AppendRow(table.Row{
			w.ID, w.Type, string(w.Priority), styledStatus(w.Status),
			w.AgentID, w.Team, w.ProgressPercent,
			w.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	tw.Render()
}

func renderAgents(agents []registry.Agent) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Team", "Specialization", "Status", "Capacity", "Last Activity"})
	for _, a := range agents {
		tw.AppendRow(table.Row{
			a.ID, a.Team, a.Specialization, string(a.Status),
			fmt.Sprintf("%d/%d", a.CapacityCurrent, a.CapacityMax),
			a.LastActivity.Format("2006-01-02 15:04:05"),
		})
	}
	tw.Render()
}
