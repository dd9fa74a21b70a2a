package store

import (
	"encoding/json"
	"time"
)

// ActivityType is the closed set of workout categories a message can resolve to
type ActivityType string

const (
	TypeRun      ActivityType = "run"
	TypeBike     ActivityType = "bike"
	TypeSwim     ActivityType = "swim"
	TypeStrength ActivityType = "strength"
	TypeOther    ActivityType = "other"
)

// State is the whole persisted document. It is read, modified and written
// back once per run.
type State struct {
	Users      map[string]UserProfile      `json:"users"`
	Activities map[string][]ActivityRecord `json:"activities"` // keyed by YYYY-MM-DD
	Leagues    map[string]LeagueRecord     `json:"leagues"`    // keyed by YYYY-MM
}

// UserProfile holds presentation data for a participant
type UserProfile struct {
	Name string `json:"name"`
}

// Metrics is the sparse set of numbers extracted from a message.
// Absent fields were not mentioned in the text.
type Metrics struct {
	Km   *float64 `json:"km,omitempty"`
	M    *float64 `json:"m,omitempty"`    // meters, integer-like
	Min  *float64 `json:"min,omitempty"`  // minutes
	Pace string   `json:"pace,omitempty"` // MM:SS per km
}

// ActivityRecord is one parsed workout attributed to a participant on a day.
// The participant key is stored as "phone" and the record id as "msgId",
// the names existing documents already use.
type ActivityRecord struct {
	Participant string       `json:"phone"`
	Type        ActivityType `json:"type"`
	Metrics     Metrics      `json:"metrics"`
	RecordID    string       `json:"msgId"`
}

// UnmarshalJSON also accepts the "participant" and "record_id" spellings
// written by earlier builds.
func (a *ActivityRecord) UnmarshalJSON(data []byte) error {
	type plain ActivityRecord
	var aux struct {
		plain
		AltParticipant string `json:"participant"`
		AltRecordID    string `json:"record_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = ActivityRecord(aux.plain)
	if a.Participant == "" {
		a.Participant = aux.AltParticipant
	}
	if a.RecordID == "" {
		a.RecordID = aux.AltRecordID
	}
	return nil
}

// MonthTotals are the per-participant counters for one calendar month
type MonthTotals struct {
	Sessions         int     `json:"sessions"`
	ActiveDays       int     `json:"active_days"`
	RunKm            float64 `json:"run_km"`
	StrengthSessions int     `json:"strength_sessions"`
	SwimM            int     `json:"swim_m"`
	OtherSessions    int     `json:"other_sessions"`
	RestDays         int     `json:"rest_days"`
}

// Winners names one participant per league category. Empty strings mean
// there were no participants that month.
type Winners struct {
	Overall  string `json:"overall,omitempty"`
	Run      string `json:"run,omitempty"`
	Strength string `json:"strength,omitempty"`
	Swim     string `json:"swim,omitempty"`
	Other    string `json:"other,omitempty"`
	Rest     string `json:"rest,omitempty"`
}

// LeagueRecord is the computed league for a month. It is replaced wholesale
// on every recomputation.
type LeagueRecord struct {
	Totals      map[string]MonthTotals `json:"totals"`
	Winners     Winners                `json:"winners"`
	GeneratedAt string                 `json:"generated_at"` // RFC3339
}

// Message is one chat message from a day's transcript
type Message struct {
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	At     time.Time `json:"at"`
}

// Run is a local history entry for one processed day
type Run struct {
	ID           string    `db:"id"`
	Day          string    `db:"day"` // YYYY-MM-DD
	Messages     int       `db:"messages"`
	RecordsAdded int       `db:"records_added"`
	Posted       bool      `db:"posted"`
	FinishedAt   time.Time `db:"finished_at"`
}
