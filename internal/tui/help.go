package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// View renders the help screen
func (m HelpModel) View() string {
	var sections []string

	title := cardTitleStyle.Render("Keyboard Shortcuts")
	sections = append(sections, title)

	// Navigation section
	navSection := m.renderSection("Navigation", []keyHelp{
		{"1", "Day summary"},
		{"2", "Monthly league"},
		{"3", "Run history"},
		{"4", "Ingest the selected day"},
		{"?", "Help (this screen)"},
		{"q", "Quit"},
		{"esc", "Back / close help"},
	})
	sections = append(sections, navSection)

	// Day and league keys
	daySection := m.renderSection("Day and League", []keyHelp{
		{"h / left", "Previous day or month"},
		{"l / right", "Next day or month"},
		{"j / k", "Scroll the league"},
		{"r", "Reload the state document"},
	})
	sections = append(sections, daySection)

	// Runs keys
	runsSection := m.renderSection("Runs", []keyHelp{
		{"j / down", "Move cursor down"},
		{"k / up", "Move cursor up"},
		{"r", "Refresh list"},
	})
	sections = append(sections, runsSection)

	// Ingest keys
	ingestSection := m.renderSection("Ingest Screen", []keyHelp{
		{"enter", "Run the day"},
		{"p", "Toggle posting the summary"},
	})
	sections = append(sections, ingestSection)

	// League rules
	sections = append(sections, m.renderLeagueHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981")).Render(title))

	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}

	return strings.Join(lines, "\n")
}

func (m HelpModel) renderLeagueHelp() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981")).Render("League Categories"))
	lines = append(lines, "")

	categories := []struct {
		name string
		desc string
	}{
		{"Geral", "Most active days. Ties: sessions, then run km."},
		{"Corrida", "Most run km. Ties: active days."},
		{"Força", "Most strength sessions. Ties: active days."},
		{"Natação", "Most swim meters. Ties: active days."},
		{"Outros", "Most other sessions, bike included. Ties: active days."},
		{"Descanso", "Most days without a workout."},
	}

	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	for _, c := range categories {
		lines = append(lines, "  "+helpKeyStyle.Render(c.name))
		lines = append(lines, "  "+mutedStyle.Render(c.desc))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
