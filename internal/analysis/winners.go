package analysis

import (
	"sort"

	"fitleague/internal/store"
)

// Metric reads one ranking value from month totals
type Metric func(store.MonthTotals) float64

var (
	MetricActiveDays       Metric = func(t store.MonthTotals) float64 { return float64(t.ActiveDays) }
	MetricSessions         Metric = func(t store.MonthTotals) float64 { return float64(t.Sessions) }
	MetricRunKm            Metric = func(t store.MonthTotals) float64 { return t.RunKm }
	MetricStrengthSessions Metric = func(t store.MonthTotals) float64 { return float64(t.StrengthSessions) }
	MetricSwimM            Metric = func(t store.MonthTotals) float64 { return float64(t.SwimM) }
	MetricOtherSessions    Metric = func(t store.MonthTotals) float64 { return float64(t.OtherSessions) }
	MetricRestDays         Metric = func(t store.MonthTotals) float64 { return float64(t.RestDays) }
)

// Category is a league category: a primary metric and the ordered
// tie-breakers applied after it, all descending.
type Category struct {
	Name    string
	Primary Metric
	Ties    []Metric
}

// Categories in the order winners are picked
var Categories = []Category{
	{Name: "overall", Primary: MetricActiveDays, Ties: []Metric{MetricSessions, MetricRunKm}},
	{Name: "run", Primary: MetricRunKm, Ties: []Metric{MetricActiveDays}},
	{Name: "strength", Primary: MetricStrengthSessions, Ties: []Metric{MetricActiveDays}},
	{Name: "swim", Primary: MetricSwimM, Ties: []Metric{MetricActiveDays}},
	{Name: "other", Primary: MetricOtherSessions, Ties: []Metric{MetricActiveDays}},
	{Name: "rest", Primary: MetricRestDays},
}

// Rank returns a copy of totals sorted for a category. Entries that tie on
// every key keep their input order.
func Rank(totals []ParticipantTotals, c Category) []ParticipantTotals {
	ranked := make([]ParticipantTotals, len(totals))
	copy(ranked, totals)

	keys := append([]Metric{c.Primary}, c.Ties...)
	sort.SliceStable(ranked, func(i, j int) bool {
		for _, k := range keys {
			a, b := k(ranked[i].MonthTotals), k(ranked[j].MonthTotals)
			if a != b {
				return a > b
			}
		}
		return false
	})
	return ranked
}

// PickWinners selects the leader of every category. With no participants
// all winners are empty.
func PickWinners(totals []ParticipantTotals) store.Winners {
	if len(totals) == 0 {
		return store.Winners{}
	}

	leader := func(name string) string {
		for _, c := range Categories {
			if c.Name == name {
				return Rank(totals, c)[0].Participant
			}
		}
		return ""
	}

	return store.Winners{
		Overall:  leader("overall"),
		Run:      leader("run"),
		Strength: leader("strength"),
		Swim:     leader("swim"),
		Other:    leader("other"),
		Rest:     leader("rest"),
	}
}
