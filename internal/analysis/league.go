package analysis

import (
	"sort"
	"time"

	"fitleague/internal/store"
)

// ParticipantTotals pairs a participant key with their month totals
type ParticipantTotals struct {
	Participant string
	store.MonthTotals
}

// MonthBounds returns the first and last day of the month containing d
func MonthBounds(d time.Time) (start, end time.Time) {
	start = time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
	end = start.AddDate(0, 1, -1)
	return start, end
}

// DaysInMonth returns the number of days in the month containing d
func DaysInMonth(d time.Time) int {
	_, end := MonthBounds(d)
	return end.Day()
}

// ComputeMonthTotals aggregates every record of the month containing
// monthStart. The result is ordered by first touch while walking the month
// chronologically, followed by participants without activity in lexical
// order. Every known user gets an entry.
func ComputeMonthTotals(state *store.State, monthStart time.Time) []ParticipantTotals {
	start, end := MonthBounds(monthStart)
	daysInMonth := end.Day()

	index := make(map[string]int)
	var out []ParticipantTotals
	touch := func(p string) *ParticipantTotals {
		i, ok := index[p]
		if !ok {
			i = len(out)
			index[p] = i
			out = append(out, ParticipantTotals{Participant: p})
		}
		return &out[i]
	}

	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		records := state.DayRecords(cur)
		seen := make(map[string]bool)
		for _, a := range records {
			t := touch(a.Participant)
			t.Sessions++
			switch a.Type {
			case store.TypeRun:
				if a.Metrics.Km != nil {
					t.RunKm += *a.Metrics.Km
				}
			case store.TypeStrength:
				t.StrengthSessions++
			case store.TypeSwim:
				if a.Metrics.M != nil {
					t.SwimM += int(*a.Metrics.M)
				}
			default:
				// bike lands here too; it has no category of its own
				t.OtherSessions++
			}
			seen[a.Participant] = true
		}
		// active_days counts days, not records
		for p := range seen {
			out[index[p]].ActiveDays++
		}
	}

	if state != nil {
		var idle []string
		for p := range state.Users {
			if _, ok := index[p]; !ok {
				idle = append(idle, p)
			}
		}
		sort.Strings(idle)
		for _, p := range idle {
			touch(p)
		}
	}

	for i := range out {
		out[i].RestDays = daysInMonth - out[i].ActiveDays
	}
	return out
}

// RecomputeMonth rebuilds the league for the month containing monthStart
// and replaces state.Leagues[YYYY-MM] wholesale.
func RecomputeMonth(state *store.State, monthStart time.Time, now time.Time) store.LeagueRecord {
	state.Normalize()

	ordered := ComputeMonthTotals(state, monthStart)
	totals := make(map[string]store.MonthTotals, len(ordered))
	for _, pt := range ordered {
		totals[pt.Participant] = pt.MonthTotals
	}

	league := store.LeagueRecord{
		Totals:      totals,
		Winners:     PickWinners(ordered),
		GeneratedAt: now.UTC().Format(time.RFC3339),
	}
	state.Leagues[store.MonthKey(monthStart)] = league
	return league
}
