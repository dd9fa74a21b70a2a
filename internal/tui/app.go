package tui

import (
	"time"

	"fitleague/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen identifiers
type Screen int

const (
	ScreenDay Screen = iota
	ScreenLeague
	ScreenRuns
	ScreenIngest
	ScreenHelp
)

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	day    DayModel
	league LeagueModel
	runs   RunsModel
	ingest IngestModel
	help   HelpModel

	// Services
	queryService *service.QueryService
	dailyService *service.DailyService

	// Window dimensions
	width  int
	height int

	// Status message
	status string
}

// NewApp creates a new App showing day
func NewApp(queryService *service.QueryService, dailyService *service.DailyService, groupName string, day time.Time) *App {
	return &App{
		screen:       ScreenDay,
		queryService: queryService,
		dailyService: dailyService,
		day:          NewDayModel(queryService, day),
		league:       NewLeagueModel(queryService, day, 0, 0),
		runs:         NewRunsModel(queryService),
		ingest:       NewIngestModel(dailyService, day),
		help:         NewHelpModel(),
		status:       groupName,
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.day.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keybindings (unless a run is in progress)
		if !a.ingest.Running() {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			case "1":
				a.screen = ScreenDay
				return a, nil
			case "2":
				a.screen = ScreenLeague
				a.league = NewLeagueModel(a.queryService, a.day.Day(), a.width, a.height)
				return a, a.league.Init()
			case "3":
				a.screen = ScreenRuns
				return a, a.runs.Init()
			case "4":
				a.screen = ScreenIngest
				a.ingest = NewIngestModel(a.dailyService, a.day.Day())
				return a, a.ingest.Init()
			case "?":
				a.prevScreen = a.screen
				a.screen = ScreenHelp
				return a, nil
			case "esc":
				if a.screen == ScreenHelp {
					a.screen = a.prevScreen
					return a, nil
				}
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case IngestCompleteMsg:
		// Refresh the day view with the freshly saved state
		a.day = NewDayModel(a.queryService, a.day.Day())
		return a, a.day.Init()
	}

	// Delegate to current screen
	var cmd tea.Cmd
	switch a.screen {
	case ScreenDay:
		var m tea.Model
		m, cmd = a.day.Update(msg)
		a.day = m.(DayModel)
	case ScreenLeague:
		var m tea.Model
		m, cmd = a.league.Update(msg)
		a.league = m.(LeagueModel)
	case ScreenRuns:
		var m tea.Model
		m, cmd = a.runs.Update(msg)
		a.runs = m.(RunsModel)
	case ScreenIngest:
		var m tea.Model
		m, cmd = a.ingest.Update(msg)
		a.ingest = m.(IngestModel)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenDay:
		content = a.day.View()
	case ScreenLeague:
		content = a.league.View()
	case ScreenRuns:
		content = a.runs.View()
	case ScreenIngest:
		content = a.ingest.View()
	case ScreenHelp:
		content = a.help.View()
	}

	footer := a.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content, footer)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("Fitness League")
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Day", ScreenDay},
		{"2", "League", ScreenLeague},
		{"3", "Runs", ScreenRuns},
		{"4", "Ingest", ScreenIngest},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

func (a *App) renderFooter() string {
	if a.status != "" {
		return statusStyle.Render(a.status)
	}
	return ""
}

// IngestCompleteMsg is sent when a run finished and the state changed
type IngestCompleteMsg struct{}
