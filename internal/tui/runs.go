package tui

import (
	"fmt"

	"fitleague/internal/service"
	"fitleague/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// RunsModel lists the local run history
type RunsModel struct {
	queryService *service.QueryService
	runs         []store.Run
	cursor       int
	loading      bool
	err          error
}

// NewRunsModel creates a new runs model
func NewRunsModel(qs *service.QueryService) RunsModel {
	return RunsModel{
		queryService: qs,
		loading:      true,
	}
}

// Init initializes the runs screen
func (m RunsModel) Init() tea.Cmd {
	return m.loadRuns
}

type runsLoadedMsg struct {
	runs []store.Run
	err  error
}

func (m RunsModel) loadRuns() tea.Msg {
	runs, err := m.queryService.GetRecentRuns()
	return runsLoadedMsg{runs: runs, err: err}
}

// Update handles messages
func (m RunsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.runs = msg.runs
		if m.cursor >= len(m.runs) {
			m.cursor = 0
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.runs)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "r":
			m.loading = true
			return m, m.loadRuns
		}
	}
	return m, nil
}

// View renders the runs screen
func (m RunsModel) View() string {
	if m.loading {
		return "\n  Loading runs..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	title := cardTitleStyle.Render("Recent runs")
	if len(m.runs) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "No runs recorded yet. Press '4' to ingest a day."))
	}

	header := tableHeaderStyle.Render(fmt.Sprintf("%-10s  %8s  %7s  %-6s  %s", "Day", "Messages", "Added", "Posted", "Finished"))
	rows := []string{header}
	for i, r := range m.runs {
		posted := "no"
		if r.Posted {
			posted = "yes"
		}
		line := fmt.Sprintf("%-10s  %8d  %7d  %-6s  %s", r.Day, r.Messages, r.RecordsAdded, posted, humanize.Time(r.FinishedAt))
		if i == m.cursor {
			rows = append(rows, tableSelectedStyle.Render(line))
		} else {
			rows = append(rows, tableRowStyle.Render(line))
		}
	}

	sections := []string{
		cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, rows...))),
	}
	if len(m.runs) > 0 {
		sections = append(sections, statusStyle.Render("Run id: "+m.runs[m.cursor].ID))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
