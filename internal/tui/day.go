package tui

import (
	"context"
	"fmt"
	"time"

	"fitleague/internal/service"
	"fitleague/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DayModel is the daily summary screen model
type DayModel struct {
	queryService *service.QueryService
	day          time.Time
	data         *service.DayData
	loading      bool
	err          error
}

// NewDayModel creates a new day model
func NewDayModel(qs *service.QueryService, day time.Time) DayModel {
	return DayModel{
		queryService: qs,
		day:          day,
		loading:      true,
	}
}

// Init initializes the day screen
func (m DayModel) Init() tea.Cmd {
	return m.loadData
}

type dayDataMsg struct {
	data *service.DayData
	err  error
}

func (m DayModel) loadData() tea.Msg {
	snap, err := m.queryService.Load(context.Background(), m.day)
	if err != nil {
		return dayDataMsg{err: err}
	}
	return dayDataMsg{data: &snap.Day}
}

// Update handles messages
func (m DayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dayDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadData
		case "h", "left":
			m.day = m.day.AddDate(0, 0, -1)
			m.loading = true
			return m, m.loadData
		case "l", "right":
			m.day = m.day.AddDate(0, 0, 1)
			m.loading = true
			return m, m.loadData
		}
	}
	return m, nil
}

// Day returns the date being shown
func (m DayModel) Day() time.Time {
	return m.day
}

// View renders the day screen
func (m DayModel) View() string {
	if m.loading {
		return "\n  Loading " + store.DayKey(m.day) + "..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	var sections []string
	sections = append(sections, m.renderRecords())
	sections = append(sections, cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		cardTitleStyle.Render("Summary text"),
		m.data.Summary,
	)))
	sections = append(sections, statusStyle.Render("h/l: previous/next day  r: refresh  4: ingest this day"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DayModel) renderRecords() string {
	title := cardTitleStyle.Render(fmt.Sprintf("Workouts on %s (%s)", store.DayKey(m.day), m.day.Weekday()))

	if len(m.data.Records) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "Nobody logged a workout"))
	}

	rows := []string{tableHeaderStyle.Render(fmt.Sprintf("%-20s  %s", "Participant", "Workout"))}
	for _, r := range m.data.Records {
		rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%-20s  %s", truncateName(r.Name, 20), r.Phrase)))
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

func truncateName(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
