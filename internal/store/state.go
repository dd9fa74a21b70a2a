package store

import (
	"fmt"
	"time"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// DayKey formats a date as the YYYY-MM-DD key used by State.Activities
func DayKey(day time.Time) string {
	return day.Format(dayLayout)
}

// MonthKey formats a date as the YYYY-MM key used by State.Leagues
func MonthKey(day time.Time) string {
	return day.Format(monthLayout)
}

// ParseDay parses a YYYY-MM-DD string in the given location
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(dayLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return day, nil
}

// NewState returns an empty state with all mappings allocated
func NewState() *State {
	return &State{
		Users:      make(map[string]UserProfile),
		Activities: make(map[string][]ActivityRecord),
		Leagues:    make(map[string]LeagueRecord),
	}
}

// Normalize allocates any mapping missing from a decoded document so the
// rest of the code can treat absent mappings as empty.
func (s *State) Normalize() {
	if s.Users == nil {
		s.Users = make(map[string]UserProfile)
	}
	if s.Activities == nil {
		s.Activities = make(map[string][]ActivityRecord)
	}
	if s.Leagues == nil {
		s.Leagues = make(map[string]LeagueRecord)
	}
}

// EnsureUser resolves a sender to a participant key, creating the profile
// on first sight. The display name doubles as the key.
func (s *State) EnsureUser(sender string) string {
	s.Normalize()
	if _, ok := s.Users[sender]; !ok {
		s.Users[sender] = UserProfile{Name: sender}
	}
	return sender
}

// DayRecords returns the records logged for a day (nil if none)
func (s *State) DayRecords(day time.Time) []ActivityRecord {
	if s == nil || s.Activities == nil {
		return nil
	}
	return s.Activities[DayKey(day)]
}

// DisplayName resolves a participant key to its profile name, falling back
// to the key itself.
func (s *State) DisplayName(participant string) string {
	if s != nil && s.Users != nil {
		if u, ok := s.Users[participant]; ok && u.Name != "" {
			return u.Name
		}
	}
	return participant
}

// Float returns a pointer to v, for building Metrics literals
func Float(v float64) *float64 {
	return &v
}
