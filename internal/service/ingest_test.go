package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitleague/internal/analysis"
	"fitleague/internal/store"
)

var oct4 = time.Date(2025, 10, 4, 0, 0, 0, 0, time.UTC)

func msg(sender, text string, hour int) store.Message {
	return store.Message{Sender: sender, Text: text, At: oct4.Add(time.Duration(hour) * time.Hour)}
}

func dayBatch() []store.Message {
	return []store.Message{
		msg("Ana", "bom dia pessoal", 6),
		msg("Ana", "corrida 5km 30min 6:00/km", 7),
		msg("Bia", "natação 1500m", 8),
		msg("Caio", "alguém vai no treino amanhã?", 9),
		msg("Bia", "academia 50 min", 18),
	}
}

func TestIngest_AppendsClassifiedMessages(t *testing.T) {
	st := store.NewState()
	added := Ingest(st, oct4, dayBatch(), IDPosition)

	assert.Equal(t, 3, added)
	recs := st.Activities["2025-10-04"]
	require.Len(t, recs, 3)

	assert.Equal(t, "Ana", recs[0].Participant)
	assert.Equal(t, store.TypeRun, recs[0].Type)
	assert.Equal(t, "2025-10-04#1", recs[0].RecordID)
	assert.Equal(t, store.TypeSwim, recs[1].Type)
	assert.Equal(t, "2025-10-04#2", recs[1].RecordID)
	assert.Equal(t, store.TypeStrength, recs[2].Type)
	assert.Equal(t, "2025-10-04#4", recs[2].RecordID)

	// Only senders of workouts become users
	assert.Contains(t, st.Users, "Ana")
	assert.Contains(t, st.Users, "Bia")
	assert.NotContains(t, st.Users, "Caio")
}

func TestIngest_Idempotent(t *testing.T) {
	for _, strategy := range []IDStrategy{IDPosition, IDContent} {
		t.Run(string(strategy), func(t *testing.T) {
			st := store.NewState()
			Ingest(st, oct4, dayBatch(), strategy)
			first := append([]store.ActivityRecord(nil), st.Activities["2025-10-04"]...)

			added := Ingest(st, oct4, dayBatch(), strategy)
			assert.Zero(t, added)
			assert.Equal(t, first, st.Activities["2025-10-04"])
		})
	}
}

func TestIngest_NoWorkoutsLeavesDayAbsent(t *testing.T) {
	st := store.NewState()
	added := Ingest(st, oct4, []store.Message{msg("Ana", "bom dia", 7)}, IDPosition)

	assert.Zero(t, added)
	_, ok := st.Activities["2025-10-04"]
	assert.False(t, ok)
	assert.Empty(t, st.Users)
}

func TestIngest_NilMappings(t *testing.T) {
	st := &store.State{}
	added := Ingest(st, oct4, dayBatch(), IDPosition)
	assert.Equal(t, 3, added)
	assert.Len(t, st.Users, 2)
}

func TestIngest_PositionIDsShiftWhenBatchChanges(t *testing.T) {
	st := store.NewState()
	Ingest(st, oct4, dayBatch(), IDPosition)

	// An earlier message appearing on refetch shifts every position
	shifted := append([]store.Message{msg("Duda", "oi", 5)}, dayBatch()...)
	added := Ingest(st, oct4, shifted, IDPosition)
	assert.Equal(t, 3, added, "positional ids duplicate records after a shift")
}

func TestIngest_ContentIDsSurviveReordering(t *testing.T) {
	st := store.NewState()
	Ingest(st, oct4, dayBatch(), IDContent)

	shifted := append([]store.Message{msg("Duda", "oi", 5)}, dayBatch()...)
	added := Ingest(st, oct4, shifted, IDContent)
	assert.Zero(t, added)
	assert.Len(t, st.Activities["2025-10-04"], 3)
}

func TestRecordID(t *testing.T) {
	m := msg("Ana", "corrida 5km", 7)

	assert.Equal(t, "2025-10-04#3", RecordID("2025-10-04", 3, m, IDPosition))

	a := RecordID("2025-10-04", 3, m, IDContent)
	b := RecordID("2025-10-04", 9, m, IDContent)
	assert.Equal(t, a, b, "content ids ignore position")
	assert.Len(t, a, len("2025-10-04#")+12)

	other := m
	other.Text = "corrida 6km"
	assert.NotEqual(t, a, RecordID("2025-10-04", 3, other, IDContent))
}

func TestIngest_ExistingDocumentIsNotDuplicated(t *testing.T) {
	doc := `{
		"users": {"Ana": {"name": "Ana"}, "Bia": {"name": "Bia"}},
		"activities": {"2025-10-04": [
			{"phone": "Ana", "type": "run", "metrics": {"km": 5, "min": 30, "pace": "6:00"}, "msgId": "2025-10-04#1"},
			{"phone": "Bia", "type": "swim", "metrics": {"m": 1500}, "msgId": "2025-10-04#2"},
			{"phone": "Bia", "type": "strength", "metrics": {"min": 50}, "msgId": "2025-10-04#4"}
		]},
		"leagues": {}
	}`
	var st store.State
	require.NoError(t, json.Unmarshal([]byte(doc), &st))

	added := Ingest(&st, oct4, dayBatch(), IDPosition)
	assert.Zero(t, added)
	assert.Len(t, st.Activities["2025-10-04"], 3)

	league := analysis.RecomputeMonth(&st, oct4, oct4)
	assert.NotContains(t, league.Totals, "")
	assert.Len(t, league.Totals, 2)
	assert.Equal(t, "Bia", league.Winners.Overall)
}
