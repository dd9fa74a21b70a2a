package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fitleague/internal/store"
)

// memStates mimics a remote document store: every load and save goes
// through JSON so callers never share memory with it.
type memStates struct {
	body    []byte
	saves   int
	loadErr error
	saveErr error
}

func (m *memStates) LoadState(ctx context.Context) (*store.State, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.body == nil {
		return store.NewState(), nil
	}
	var st store.State
	if err := json.Unmarshal(m.body, &st); err != nil {
		return nil, err
	}
	st.Normalize()
	return &st, nil
}

func (m *memStates) SaveState(ctx context.Context, st *store.State) (*store.State, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	b, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	m.body = b
	m.saves++
	return m.LoadState(ctx)
}

type fakeTranscripts struct {
	days  map[string][]store.Message
	err   error
	calls []string
}

func (f *fakeTranscripts) FetchDay(ctx context.Context, day time.Time) ([]store.Message, error) {
	f.calls = append(f.calls, store.DayKey(day))
	if f.err != nil {
		return nil, f.err
	}
	return f.days[store.DayKey(day)], nil
}

type recordingPoster struct {
	texts []string
	ok    bool
}

func (p *recordingPoster) Post(ctx context.Context, text string) bool {
	p.texts = append(p.texts, text)
	return p.ok
}

func newTestService(t *testing.T, states StateStore, tr TranscriptSource, poster *recordingPoster) (*DailyService, *store.Store) {
	t.Helper()
	hist, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { hist.Close() })

	svc := NewDailyService(states, tr, poster, hist, IDPosition, time.UTC, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC) }
	return svc, hist
}

func TestRunDay(t *testing.T) {
	states := &memStates{}
	tr := &fakeTranscripts{days: map[string][]store.Message{"2025-10-04": dayBatch()}}
	poster := &recordingPoster{ok: true}
	svc, hist := newTestService(t, states, tr, poster)

	res, err := svc.RunDay(context.Background(), oct4, true)
	require.NoError(t, err)

	assert.Equal(t, "2025-10-04", res.Day)
	assert.Equal(t, 5, res.Messages)
	assert.Equal(t, 3, res.RecordsAdded)
	assert.True(t, res.Posted)
	require.Len(t, poster.texts, 1)
	assert.Equal(t, res.Summary, poster.texts[0])
	assert.Contains(t, res.Summary, "*Resumo 2025-10-04*")
	assert.Contains(t, res.LeagueText, "*🏆 Liga 2025-10*")

	saved, _ := states.LoadState(context.Background())
	league, ok := saved.Leagues["2025-10"]
	require.True(t, ok)
	assert.Equal(t, "2025-10-05T12:00:00Z", league.GeneratedAt)
	assert.Equal(t, 1, league.Totals["Ana"].ActiveDays)
	assert.Equal(t, 30, league.Totals["Bia"].RestDays)

	runs, err := hist.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.True(t, runs[0].Posted)

	last, _ := hist.GetSyncState(store.SyncKeyLastDay)
	assert.Equal(t, "2025-10-04", last)
}

func TestRunDay_ReRunIsIdempotent(t *testing.T) {
	states := &memStates{}
	tr := &fakeTranscripts{days: map[string][]store.Message{"2025-10-04": dayBatch()}}
	svc, _ := newTestService(t, states, tr, &recordingPoster{})

	first, err := svc.RunDay(context.Background(), oct4, false)
	require.NoError(t, err)
	before, _ := states.LoadState(context.Background())

	second, err := svc.RunDay(context.Background(), oct4, false)
	require.NoError(t, err)
	after, _ := states.LoadState(context.Background())

	assert.Equal(t, 3, first.RecordsAdded)
	assert.Zero(t, second.RecordsAdded)
	assert.Equal(t, before.Activities, after.Activities)
	assert.Equal(t, first.Summary, second.Summary)
}

func TestRunDay_NoPost(t *testing.T) {
	poster := &recordingPoster{ok: true}
	svc, _ := newTestService(t, &memStates{}, &fakeTranscripts{}, poster)

	res, err := svc.RunDay(context.Background(), oct4, false)
	require.NoError(t, err)
	assert.Empty(t, poster.texts)
	assert.False(t, res.Posted)
	assert.Equal(t, "Resumo 2025-10-04: ninguém registrou treino.", res.Summary)
}

func TestRunDay_PostFailureIsNotAnError(t *testing.T) {
	poster := &recordingPoster{ok: false}
	svc, _ := newTestService(t, &memStates{}, &fakeTranscripts{}, poster)

	res, err := svc.RunDay(context.Background(), oct4, true)
	require.NoError(t, err)
	assert.False(t, res.Posted)
	assert.Len(t, poster.texts, 1)
}

func TestRunDay_FetchErrorAbortsBeforeSave(t *testing.T) {
	boom := errors.New("chat unavailable")
	states := &memStates{}
	svc, hist := newTestService(t, states, &fakeTranscripts{err: boom}, &recordingPoster{})

	_, err := svc.RunDay(context.Background(), oct4, true)
	require.ErrorIs(t, err, boom)
	assert.Zero(t, states.saves)

	runs, _ := hist.ListRuns(10)
	assert.Empty(t, runs)
}

func TestRunDay_PersistErrorPropagates(t *testing.T) {
	boom := errors.New("bin unavailable")
	tr := &fakeTranscripts{days: map[string][]store.Message{"2025-10-04": dayBatch()}}
	poster := &recordingPoster{ok: true}
	svc, _ := newTestService(t, &memStates{saveErr: boom}, tr, poster)

	_, err := svc.RunDay(context.Background(), oct4, true)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, poster.texts, "nothing is posted when the state was not saved")
}

func TestRunDay_LoadErrorPropagates(t *testing.T) {
	boom := errors.New("unauthorized")
	svc, _ := newTestService(t, &memStates{loadErr: boom}, &fakeTranscripts{}, &recordingPoster{})

	_, err := svc.RunDay(context.Background(), oct4, false)
	assert.ErrorIs(t, err, boom)
}

func TestRunDay_BookmarkDoesNotRegress(t *testing.T) {
	svc, hist := newTestService(t, &memStates{}, &fakeTranscripts{}, &recordingPoster{})
	require.NoError(t, hist.SetSyncState(store.SyncKeyLastDay, "2025-10-10"))

	_, err := svc.RunDay(context.Background(), oct4, false)
	require.NoError(t, err)

	last, _ := hist.GetSyncState(store.SyncKeyLastDay)
	assert.Equal(t, "2025-10-10", last)
}

func TestBackfill(t *testing.T) {
	states := &memStates{}
	tr := &fakeTranscripts{days: map[string][]store.Message{
		"2025-09-29": {{Sender: "Ana", Text: "corrida 5km"}},
		"2025-10-01": {{Sender: "Ana", Text: "corrida 3km"}, {Sender: "Bia", Text: "yoga"}},
	}}
	poster := &recordingPoster{ok: true}
	svc, hist := newTestService(t, states, tr, poster)

	since := time.Date(2025, 9, 29, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC)
	progress := make(chan BackfillProgress, 10)

	res, err := svc.Backfill(context.Background(), since, until, progress)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Days)
	assert.Equal(t, 3, res.RecordsAdded)
	assert.Equal(t, []string{"2025-09-29", "2025-09-30", "2025-10-01", "2025-10-02"}, tr.calls)
	assert.Empty(t, poster.texts, "backfill never posts")

	var days []string
	for p := range progress {
		assert.Equal(t, 4, p.Total)
		days = append(days, p.Day)
	}
	assert.Equal(t, tr.calls, days)

	st, _ := states.LoadState(context.Background())
	assert.InDelta(t, 5.0, st.Leagues["2025-09"].Totals["Ana"].RunKm, 1e-9)
	assert.InDelta(t, 3.0, st.Leagues["2025-10"].Totals["Ana"].RunKm, 1e-9)
	assert.Equal(t, 1, st.Leagues["2025-10"].Totals["Bia"].OtherSessions)

	last, _ := hist.GetSyncState(store.SyncKeyLastDay)
	assert.Equal(t, "2025-10-02", last)
}

func TestBackfill_StopsAtFirstError(t *testing.T) {
	boom := errors.New("offline")
	tr := &fakeTranscripts{err: boom}
	svc, _ := newTestService(t, &memStates{}, tr, &recordingPoster{})

	since := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	res, err := svc.Backfill(context.Background(), since, since.AddDate(0, 0, 5), nil)
	require.ErrorIs(t, err, boom)
	assert.Zero(t, res.Days)
	assert.Len(t, tr.calls, 1)
}

func TestBackfill_Cancelled(t *testing.T) {
	svc, _ := newTestService(t, &memStates{}, &fakeTranscripts{}, &recordingPoster{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	since := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Backfill(ctx, since, since, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultSince(t *testing.T) {
	svc, hist := newTestService(t, &memStates{}, &fakeTranscripts{}, &recordingPoster{})

	assert.Equal(t, "2025-09-05", store.DayKey(svc.DefaultSince()))

	require.NoError(t, hist.SetSyncState(store.SyncKeyLastDay, "2025-10-02"))
	assert.Equal(t, "2025-10-03", store.DayKey(svc.DefaultSince()))
}

func TestToday_UsesGroupTimezone(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	svc := NewDailyService(&memStates{}, &fakeTranscripts{}, nil, nil, "", loc, nil)
	// 01:30 UTC is still the previous evening in BRT
	svc.now = func() time.Time { return time.Date(2025, 10, 5, 1, 30, 0, 0, time.UTC) }

	assert.Equal(t, "2025-10-04", store.DayKey(svc.Today()))
}

func TestRunDay_WithoutHistoryOrPoster(t *testing.T) {
	svc := NewDailyService(&memStates{}, &fakeTranscripts{}, nil, nil, IDContent, time.UTC, nil)

	assert.False(t, svc.CanPost())
	res, err := svc.RunDay(context.Background(), oct4, true)
	require.NoError(t, err)
	assert.False(t, res.Posted)
}
