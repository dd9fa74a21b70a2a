package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fitleague/internal/service"
	"fitleague/internal/summary"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
)

// LeagueModel is the monthly league screen model
type LeagueModel struct {
	queryService *service.QueryService
	month        time.Time
	data         *service.LeagueData
	viewport     viewport.Model
	loading      bool
	err          error
	width        int
	height       int
	ready        bool
}

// NewLeagueModel creates a new league model for the month containing day
func NewLeagueModel(qs *service.QueryService, day time.Time, width, height int) LeagueModel {
	m := LeagueModel{
		queryService: qs,
		month:        time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location()),
		loading:      true,
		width:        width,
		height:       height,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6) // Reserve space for header/footer
		m.ready = true
	}

	return m
}

// Init initializes the league screen
func (m LeagueModel) Init() tea.Cmd {
	return m.loadData
}

type leagueDataMsg struct {
	data *service.LeagueData
	err  error
}

func (m LeagueModel) loadData() tea.Msg {
	snap, err := m.queryService.Load(context.Background(), m.month)
	if err != nil {
		return leagueDataMsg{err: err}
	}
	return leagueDataMsg{data: &snap.League}
}

// Update handles messages
func (m LeagueModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case leagueDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
		if m.ready && m.data != nil {
			m.viewport.SetContent(m.renderContent())
			m.viewport.GotoTop()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if m.data != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadData
		case "h", "left":
			m.month = m.month.AddDate(0, -1, 0)
			m.loading = true
			return m, m.loadData
		case "l", "right":
			m.month = m.month.AddDate(0, 1, 0)
			m.loading = true
			return m, m.loadData
		}
	}

	// Handle viewport scrolling
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the league screen
func (m LeagueModel) View() string {
	if m.loading {
		return "\n  Loading league..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  h/l: previous/next month  j/k or arrows: scroll  r: refresh")

	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m LeagueModel) renderContent() string {
	d := m.data
	var sections []string

	if !d.Found {
		sections = append(sections, cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			cardTitleStyle.Render("League "+d.Month),
			d.Summary,
			"",
			statusStyle.Render("Ingest a day of this month to build its league."),
		)))
	} else {
		top := lipgloss.JoinHorizontal(lipgloss.Top, m.renderWinners(), "  ", m.renderRankings())
		sections = append(sections, top)
	}

	if chart := m.renderChart(); chart != "" {
		sections = append(sections, chart)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m LeagueModel) renderWinners() string {
	title := cardTitleStyle.Render("Winners " + m.data.Month)

	lines := make([]string, 0, len(m.data.Winners)+2)
	for _, w := range m.data.Winners {
		lines = append(lines, RenderWinner(w.Category, w.Name))
	}
	if !m.data.GeneratedAt.IsZero() {
		lines = append(lines, "", statusStyle.Render("generated "+humanize.Time(m.data.GeneratedAt)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m LeagueModel) renderRankings() string {
	title := cardTitleStyle.Render("Rankings")

	var lines []string
	for _, r := range m.data.Rankings {
		lines = append(lines, metricValueStyle.Render(r.Label))
		for i, e := range r.Entries {
			lines = append(lines, fmt.Sprintf("  %d. %-18s %s %s", i+1, truncateName(e.Name, 18), summary.FormatNumber(e.Value), r.Unit))
		}
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")))
}

func (m LeagueModel) renderChart() string {
	series := m.data.ActivePerDay
	if len(series) < 2 {
		return ""
	}
	nonZero := false
	for _, v := range series {
		if v > 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		return ""
	}

	title := cardTitleStyle.Render("Active participants per day")
	graph := asciigraph.Plot(series,
		asciigraph.Height(8),
		asciigraph.Width(62),
		asciigraph.Precision(0),
	)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}
