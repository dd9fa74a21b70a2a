package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fitleague/internal/service"
	"fitleague/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// IngestModel runs the daily pipeline for the selected day
type IngestModel struct {
	dailyService *service.DailyService
	day          time.Time
	post         bool
	running      bool
	result       *service.DayResult
	err          error
	done         bool
}

// NewIngestModel creates a new ingest model
func NewIngestModel(ds *service.DailyService, day time.Time) IngestModel {
	return IngestModel{
		dailyService: ds,
		day:          day,
	}
}

// Init initializes the ingest screen
func (m IngestModel) Init() tea.Cmd {
	return nil
}

// IngestDoneMsg is sent when the pipeline finishes
type IngestDoneMsg struct {
	Result *service.DayResult
	Err    error
}

// Running reports whether a run is in progress
func (m IngestModel) Running() bool {
	return m.running
}

// Update handles messages
func (m IngestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case IngestDoneMsg:
		m.running = false
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		return m, func() tea.Msg { return IngestCompleteMsg{} }

	case tea.KeyMsg:
		if !m.running {
			switch msg.String() {
			case "enter":
				m.running = true
				m.done = false
				m.err = nil
				m.result = nil
				return m, m.runDay
			case "p":
				m.post = !m.post
			}
		}
	}
	return m, nil
}

func (m IngestModel) canPost() bool {
	return m.dailyService != nil && m.dailyService.CanPost()
}

func (m IngestModel) runDay() tea.Msg {
	result, err := m.dailyService.RunDay(context.Background(), m.day, m.post)
	return IngestDoneMsg{Result: result, Err: err}
}

// View renders the ingest screen
func (m IngestModel) View() string {
	var sections []string

	title := cardTitleStyle.Render("Ingest " + store.DayKey(m.day))
	sections = append(sections, title)

	if m.err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err)))
		sections = append(sections, "\n"+statusStyle.Render("  Nothing was saved. Press Enter to retry"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	if m.done && !m.running {
		sections = append(sections, successStyle.Render("\n  Day ingested!"))
		sections = append(sections, m.renderSummary())
		sections = append(sections, "\n"+statusStyle.Render("  Press '1' for the day or '2' for the league"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	if m.running {
		sections = append(sections, "\n  Fetching messages, updating the league and saving...")
	} else {
		sections = append(sections, m.renderStartPrompt())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m IngestModel) renderStartPrompt() string {
	post := "no"
	if m.post {
		post = "yes"
	}

	lines := []string{
		"",
		"  This will:",
		"",
		"  1. Read the day's messages from the chat export",
		"  2. Log new workouts and rebuild the month's league",
		"  3. Save the state document",
		"",
		statusStyle.Render("  Post summary to the group: " + post + " (p to toggle)"),
		"",
		statusStyle.Render("  Press Enter to start"),
	}
	return strings.Join(lines, "\n")
}

func (m IngestModel) renderSummary() string {
	if m.result == nil {
		return ""
	}

	r := m.result
	lines := []string{""}

	if r.RecordsAdded > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d workouts logged from %d messages", r.RecordsAdded, r.Messages)))
	} else {
		lines = append(lines, statusStyle.Render(fmt.Sprintf("  No new workouts in %d messages", r.Messages)))
	}

	if m.post && !m.canPost() {
		lines = append(lines, warningStyle.Render("  No webhook configured, summary not posted"))
	} else if m.post && !r.Posted {
		lines = append(lines, warningStyle.Render("  Summary could not be posted"))
	} else if r.Posted {
		lines = append(lines, successStyle.Render("  Summary posted"))
	}

	lines = append(lines, "", r.Summary)
	return strings.Join(lines, "\n")
}
