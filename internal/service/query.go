package service

import (
	"context"
	"fmt"
	"time"

	"fitleague/internal/analysis"
	"fitleague/internal/store"
	"fitleague/internal/summary"
)

// RunLister lists recent runs, newest first
type RunLister interface {
	ListRuns(limit int) ([]store.Run, error)
}

// QueryService provides read-only queries for the TUI
type QueryService struct {
	states StateStore
	runs   RunLister
	loc    *time.Location
}

// NewQueryService creates a new query service. runs may be nil.
func NewQueryService(states StateStore, runs RunLister, loc *time.Location) *QueryService {
	if loc == nil {
		loc = time.UTC
	}
	return &QueryService{states: states, runs: runs, loc: loc}
}

// RecordLine is one record of a day, ready for display
type RecordLine struct {
	Name   string
	Phrase string
}

// DayData contains everything the daily screen shows
type DayData struct {
	Day     time.Time
	Summary string
	Records []RecordLine
}

// WinnerLine names the leader of one category. Name is empty when the
// month had no participants.
type WinnerLine struct {
	Category string
	Name     string
}

// LeagueData contains everything the league screen shows
type LeagueData struct {
	Month       string
	Found       bool
	Summary     string
	Rankings    []summary.Ranking
	Winners     []WinnerLine
	GeneratedAt time.Time

	// For charts
	ActivePerDay []float64 // participants with a workout, per day of month
}

// Snapshot is the state document plus the views derived from it
type Snapshot struct {
	State  *store.State
	Day    DayData
	League LeagueData
}

// Load fetches the state and builds the views for day and its month
func (q *QueryService) Load(ctx context.Context, day time.Time) (*Snapshot, error) {
	st, err := q.states.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, q.loc)
	return &Snapshot{
		State:  st,
		Day:    BuildDayData(st, day),
		League: BuildLeagueData(st, day),
	}, nil
}

// GetRecentRuns returns the local run history
func (q *QueryService) GetRecentRuns() ([]store.Run, error) {
	if q.runs == nil {
		return nil, nil
	}
	return q.runs.ListRuns(RecentRunsLimit)
}

// BuildDayData renders a day's records
func BuildDayData(st *store.State, day time.Time) DayData {
	data := DayData{Day: day, Summary: summary.Daily(st, day)}
	for _, r := range st.DayRecords(day) {
		data.Records = append(data.Records, RecordLine{
			Name:   st.DisplayName(r.Participant),
			Phrase: summary.Phrase(r),
		})
	}
	return data
}

var winnerLabels = []struct {
	label string
	pick  func(store.Winners) string
}{
	{"Geral", func(w store.Winners) string { return w.Overall }},
	{"Corrida", func(w store.Winners) string { return w.Run }},
	{"Força", func(w store.Winners) string { return w.Strength }},
	{"Natação", func(w store.Winners) string { return w.Swim }},
	{"Outros", func(w store.Winners) string { return w.Other }},
	{"Descanso", func(w store.Winners) string { return w.Rest }},
}

// BuildLeagueData renders the stored league of day's month. The chart is
// derived from the activity log so it is available even before the month
// has a league.
func BuildLeagueData(st *store.State, day time.Time) LeagueData {
	monthKey := store.MonthKey(day)
	data := LeagueData{
		Month:        monthKey,
		Summary:      summary.League(st, monthKey),
		ActivePerDay: ActivePerDay(st, day),
	}

	rankings, ok := summary.Rankings(st, monthKey)
	if !ok {
		return data
	}
	data.Found = true
	data.Rankings = rankings

	league := st.Leagues[monthKey]
	for _, wl := range winnerLabels {
		var name string
		if p := wl.pick(league.Winners); p != "" {
			name = st.DisplayName(p)
		}
		data.Winners = append(data.Winners, WinnerLine{Category: wl.label, Name: name})
	}
	if t, err := time.Parse(time.RFC3339, league.GeneratedAt); err == nil {
		data.GeneratedAt = t
	}
	return data
}

// ActivePerDay counts the distinct participants with a workout on each
// day of day's month
func ActivePerDay(st *store.State, day time.Time) []float64 {
	start, _ := analysis.MonthBounds(day)
	n := analysis.DaysInMonth(day)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		seen := make(map[string]bool)
		for _, r := range st.DayRecords(start.AddDate(0, 0, i)) {
			seen[r.Participant] = true
		}
		out[i] = float64(len(seen))
	}
	return out
}
