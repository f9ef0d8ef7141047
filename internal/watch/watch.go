// Package watch renders a live view of the work ledger. It is a read-only
// consumer: the model polls the coordinator on a ticker and never takes the
// coordination lock.
package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hivefile/hivefile/internal/coordinator"
)

// DefaultInterval is how often the view refreshes when no interval is given.
const DefaultInterval = time.Second

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type tickMsg time.Time

type snapshotMsg struct {
	snap coordinator.Snapshot
	err  error
}

// Model is the Bubbletea model behind the watch view.
type Model struct {
	engine   *coordinator.Engine
	filter   string
	interval time.Duration

	items  table.Model
	agents table.Model

	lastRefresh time.Time
	lastErr     error
	width       int
}

// NewModel builds a watch model over the given engine. An interval of zero
// means DefaultInterval.
func NewModel(engine *coordinator.Engine, filter string, interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultInterval
	}

	items := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 30},
			{Title: "Type", Width: 12},
			{Title: "Priority", Width: 9},
			{Title: "Status", Width: 12},
			{Title: "Agent", Width: 20},
			{Title: "Progress", Width: 9},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	agents := table.New(
		table.WithColumns([]table.Column{
			{Title: "Agent", Width: 30},
			{Title: "Team", Width: 14},
			{Title: "Status", Width: 8},
			{Title: "Capacity", Width: 9},
		}),
		table.WithHeight(6),
	)

	return Model{
		engine:   engine,
		filter:   filter,
		interval: interval,
		items:    items,
		agents:   agents,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch, m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetch reads a ledger snapshot off the UI loop.
func (m Model) fetch() tea.Msg {
	snap, err := m.engine.List(m.filter)
	return snapshotMsg{snap: snap, err: err}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.fetch
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		return m, tea.Batch(m.fetch, m.tick())

	case snapshotMsg:
		m.lastErr = msg.err
		if msg.err == nil {
			m.lastRefresh = time.Now()
			m.items.SetRows(itemRows(msg.snap))
			m.agents.SetRows(agentRows(msg.snap))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.items, cmd = m.items.Update(msg)
	return m, cmd
}

func itemRows(snap coordinator.Snapshot) []table.Row {
	rows := make([]table.Row, 0, len(snap.Items))
	for _, w := range snap.Items {
		rows = append(rows, table.Row{
			w.ID, w.Type, string(w.Priority), w.Status.String(),
			w.AgentID, fmt.Sprintf("%d%%", w.ProgressPercent),
		})
	}
	return rows
}

func agentRows(snap coordinator.Snapshot) []table.Row {
	rows := make([]table.Row, 0, len(snap.Agents))
	for _, a := range snap.Agents {
		rows = append(rows, table.Row{
			a.ID, a.Team, string(a.Status),
			fmt.Sprintf("%d/%d", a.CapacityCurrent, a.CapacityMax),
		})
	}
	return rows
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Work Items"))
	b.WriteString("\n")
	b.WriteString(m.items.View())
	b.WriteString("\n\n")
	b.WriteString(headerStyle.Render("Agents"))
	b.WriteString("\n")
	b.WriteString(m.agents.View())
	b.WriteString("\n")

	if m.lastErr != nil {
		b.WriteString(errStyle.Render("refresh failed: " + m.lastErr.Error()))
	} else if !m.lastRefresh.IsZero() {
		b.WriteString(dimStyle.Render("updated " + m.lastRefresh.Format("15:04:05") + "  (q to quit, r to refresh)"))
	}
	b.WriteString("\n")
	return b.String()
}

// App wraps the Bubbletea program.
type App struct {
	model Model
}

// New creates a watch application over the given engine.
func New(engine *coordinator.Engine, filter string, interval time.Duration) *App {
	return &App{model: NewModel(engine, filter, interval)}
}

// Run starts the watch loop and blocks until the user quits.
func (a *App) Run() error {
	p := tea.NewProgram(a.model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
