// Package summary renders the daily and monthly texts posted to the group.
package summary

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"fitleague/internal/store"
)

// Entry is one participant's value in a ranking line
type Entry struct {
	Name  string
	Value float64
}

// Ranking is a league category with every participant sorted descending
type Ranking struct {
	Label   string
	Unit    string
	Entries []Entry
}

type rankingDef struct {
	label string
	unit  string
	value func(store.MonthTotals) float64
}

var rankingDefs = []rankingDef{
	{"Dias ativos", "dias", func(t store.MonthTotals) float64 { return float64(t.ActiveDays) }},
	{"Corrida", "km", func(t store.MonthTotals) float64 { return t.RunKm }},
	{"Força", "sessões", func(t store.MonthTotals) float64 { return float64(t.StrengthSessions) }},
	{"Natação", "m", func(t store.MonthTotals) float64 { return float64(t.SwimM) }},
	{"Outros", "sessões", func(t store.MonthTotals) float64 { return float64(t.OtherSessions) }},
	{"Descanso", "dias", func(t store.MonthTotals) float64 { return float64(t.RestDays) }},
}

// Daily renders the records logged on day, grouped by participant in the
// order they first posted.
func Daily(state *store.State, day time.Time) string {
	key := store.DayKey(day)
	records := state.DayRecords(day)
	if len(records) == 0 {
		return fmt.Sprintf("Resumo %s: ninguém registrou treino.", key)
	}

	var order []string
	byParticipant := make(map[string][]store.ActivityRecord)
	for _, a := range records {
		if _, ok := byParticipant[a.Participant]; !ok {
			order = append(order, a.Participant)
		}
		byParticipant[a.Participant] = append(byParticipant[a.Participant], a)
	}

	lines := make([]string, 0, len(order))
	for _, p := range order {
		parts := make([]string, 0, len(byParticipant[p]))
		for _, a := range byParticipant[p] {
			parts = append(parts, Phrase(a))
		}
		lines = append(lines, state.DisplayName(p)+": "+strings.Join(parts, " + "))
	}
	return fmt.Sprintf("*Resumo %s*\n- %s", key, strings.Join(lines, " • "))
}

// Phrase describes a single record, e.g. "corrida (5 km, 30 min, 6:00/km)"
func Phrase(a store.ActivityRecord) string {
	m := a.Metrics
	var label string
	var details []string

	switch a.Type {
	case store.TypeRun:
		label = "corrida"
		details = appendIf(details, m.Km, "km")
		details = appendIf(details, m.Min, "min")
		if m.Pace != "" {
			details = append(details, m.Pace+"/km")
		}
	case store.TypeBike:
		label = "bike"
		details = appendIf(details, m.Km, "km")
		details = appendIf(details, m.Min, "min")
	case store.TypeSwim:
		label = "natação"
		details = appendIf(details, m.M, "m")
		details = appendIf(details, m.Min, "min")
	case store.TypeStrength:
		label = "força"
		details = appendIf(details, m.Min, "min")
	default:
		label = "outros"
		details = appendIf(details, m.Min, "min")
	}

	if len(details) == 0 {
		return label
	}
	return label + " (" + strings.Join(details, ", ") + ")"
}

// Rankings returns the league lines for a month, or false if that month
// has no league recorded.
func Rankings(state *store.State, monthKey string) ([]Ranking, bool) {
	if state == nil || state.Leagues == nil {
		return nil, false
	}
	league, ok := state.Leagues[monthKey]
	if !ok {
		return nil, false
	}

	out := make([]Ranking, 0, len(rankingDefs))
	for _, def := range rankingDefs {
		entries := make([]Entry, 0, len(league.Totals))
		for p, t := range league.Totals {
			entries = append(entries, Entry{Name: state.DisplayName(p), Value: def.value(t)})
		}
		// Names break ties so the text is stable across runs
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Value != entries[j].Value {
				return entries[i].Value > entries[j].Value
			}
			return entries[i].Name < entries[j].Name
		})
		out = append(out, Ranking{Label: def.label, Unit: def.unit, Entries: entries})
	}
	return out, true
}

// League renders the month's ranking lines followed by the overall winner.
func League(state *store.State, monthKey string) string {
	rankings, ok := Rankings(state, monthKey)
	if !ok {
		return fmt.Sprintf("Sem liga registrada para %s.", monthKey)
	}

	lines := make([]string, 0, len(rankings)+1)
	for _, r := range rankings {
		items := make([]string, 0, len(r.Entries))
		for _, e := range r.Entries {
			items = append(items, e.Name+" "+FormatNumber(e.Value)+" "+r.Unit)
		}
		lines = append(lines, r.Label+": "+strings.Join(items, " • "))
	}
	lines = append(lines, "Vencedor do mês: "+Winner(state, monthKey))

	return "*🏆 Liga " + monthKey + "*\n- " + strings.Join(lines, "\n- ")
}

// Winner returns the display name of the month's overall winner, or "-"
func Winner(state *store.State, monthKey string) string {
	if state == nil {
		return "-"
	}
	league, ok := state.Leagues[monthKey]
	if !ok || league.Winners.Overall == "" {
		return "-"
	}
	return state.DisplayName(league.Winners.Overall)
}

// FormatNumber prints v with at most two decimals and no trailing zeros
func FormatNumber(v float64) string {
	rounded := math.Round(v*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

func appendIf(details []string, v *float64, unit string) []string {
	if v == nil {
		return details
	}
	return append(details, FormatNumber(*v)+" "+unit)
}
