package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fitleague/internal/analysis"
	"fitleague/internal/chat"
	"fitleague/internal/store"
	"fitleague/internal/summary"
)

// StateStore loads and replaces the whole state document
type StateStore interface {
	LoadState(ctx context.Context) (*store.State, error)
	SaveState(ctx context.Context, st *store.State) (*store.State, error)
}

// TranscriptSource returns a day's messages in chronological order
type TranscriptSource interface {
	FetchDay(ctx context.Context, day time.Time) ([]store.Message, error)
}

// History keeps local bookkeeping about runs. It is optional.
type History interface {
	RecordRun(r *store.Run) error
	GetSyncState(key string) (string, error)
	SetSyncState(key, value string) error
}

// DailyService runs the fetch, ingest, recompute, persist, render and
// post pipeline for one day at a time
type DailyService struct {
	states      StateStore
	transcripts TranscriptSource
	poster      chat.Poster
	history     History
	ids         IDStrategy
	loc         *time.Location
	log         *zap.Logger
	now         func() time.Time
}

// NewDailyService creates a daily service. history may be nil.
func NewDailyService(states StateStore, transcripts TranscriptSource, poster chat.Poster, history History, ids IDStrategy, loc *time.Location, log *zap.Logger) *DailyService {
	if ids == "" {
		ids = IDPosition
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DailyService{
		states:      states,
		transcripts: transcripts,
		poster:      poster,
		history:     history,
		ids:         ids,
		loc:         loc,
		log:         log,
		now:         time.Now,
	}
}

// DayResult describes a completed run
type DayResult struct {
	RunID        string
	Day          string
	Messages     int
	RecordsAdded int
	Summary      string
	League       store.LeagueRecord
	LeagueText   string
	Posted       bool
}

// CanPost reports whether summaries have somewhere to go
func (s *DailyService) CanPost() bool {
	return s.poster != nil
}

// Today returns the current date in the group's timezone
func (s *DailyService) Today() time.Time {
	n := s.now().In(s.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.loc)
}

// RunDay ingests day's messages, recomputes its month's league and saves
// the state. The daily summary is posted when post is true; a failed post
// is logged and never fails the run. Fetch and persist errors abort the
// run before anything is saved.
func (s *DailyService) RunDay(ctx context.Context, day time.Time, post bool) (*DayResult, error) {
	day = s.inLoc(day)
	result := &DayResult{RunID: uuid.NewString(), Day: store.DayKey(day)}
	log := s.log.With(zap.String("run_id", result.RunID), zap.String("day", result.Day))

	msgs, err := s.transcripts.FetchDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("fetching transcript for %s: %w", result.Day, err)
	}
	result.Messages = len(msgs)

	st, err := s.states.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}

	result.RecordsAdded = Ingest(st, day, msgs, s.ids)
	monthStart, _ := analysis.MonthBounds(day)
	result.League = analysis.RecomputeMonth(st, monthStart, s.now())

	saved, err := s.states.SaveState(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("saving state: %w", err)
	}

	result.Summary = summary.Daily(saved, day)
	result.LeagueText = summary.League(saved, store.MonthKey(day))
	if post && s.poster != nil {
		result.Posted = s.poster.Post(ctx, result.Summary)
	}

	log.Info("day processed",
		zap.Int("messages", result.Messages),
		zap.Int("records_added", result.RecordsAdded),
		zap.Int("participants", len(result.League.Totals)),
		zap.Bool("posted", result.Posted),
	)
	s.recordRun(log, result)

	return result, nil
}

// recordRun stores local bookkeeping. Failures are logged only; the state
// document is already saved at this point.
func (s *DailyService) recordRun(log *zap.Logger, result *DayResult) {
	if s.history == nil {
		return
	}

	err := s.history.RecordRun(&store.Run{
		ID:           result.RunID,
		Day:          result.Day,
		Messages:     result.Messages,
		RecordsAdded: result.RecordsAdded,
		Posted:       result.Posted,
		FinishedAt:   s.now(),
	})
	if err != nil {
		log.Warn("recording run history failed", zap.Error(err))
	}

	last, err := s.history.GetSyncState(store.SyncKeyLastDay)
	if err != nil {
		log.Warn("reading ingest bookmark failed", zap.Error(err))
		return
	}
	// ISO dates order lexically; re-running an older day keeps the bookmark
	if result.Day > last {
		if err := s.history.SetSyncState(store.SyncKeyLastDay, result.Day); err != nil {
			log.Warn("updating ingest bookmark failed", zap.Error(err))
		}
	}
}

// BackfillProgress reports progress during a backfill
type BackfillProgress struct {
	Day       string
	Total     int
	Completed int
	Result    *DayResult
}

// BackfillResult summarizes a backfill
type BackfillResult struct {
	Days         int
	Messages     int
	RecordsAdded int
}

// DefaultSince picks the first day of a backfill: the day after the
// bookmark if there is one, else DefaultBackfillDays before today.
func (s *DailyService) DefaultSince() time.Time {
	today := s.Today()
	if s.history != nil {
		if last, err := s.history.GetSyncState(store.SyncKeyLastDay); err == nil && last != "" {
			if d, err := store.ParseDay(last, s.loc); err == nil {
				return d.AddDate(0, 0, 1)
			}
		}
	}
	return today.AddDate(0, 0, -DefaultBackfillDays)
}

// Backfill runs every day from since to until inclusive, oldest first,
// with posting suppressed. Each day is saved before the next one starts.
// It stops at the first failing day.
func (s *DailyService) Backfill(ctx context.Context, since, until time.Time, progress chan<- BackfillProgress) (*BackfillResult, error) {
	if progress != nil {
		defer close(progress)
	}

	since, until = s.inLoc(since), s.inLoc(until)
	total := 0
	for d := since; !d.After(until); d = d.AddDate(0, 0, 1) {
		total++
	}

	result := &BackfillResult{}
	for d := since; !d.After(until); d = d.AddDate(0, 0, 1) {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		dr, err := s.RunDay(ctx, d, false)
		if err != nil {
			return result, fmt.Errorf("backfilling %s: %w", store.DayKey(d), err)
		}
		result.Days++
		result.Messages += dr.Messages
		result.RecordsAdded += dr.RecordsAdded

		if progress != nil {
			progress <- BackfillProgress{Day: dr.Day, Total: total, Completed: result.Days, Result: dr}
		}
	}

	s.log.Info("backfill finished",
		zap.String("since", store.DayKey(since)),
		zap.String("until", store.DayKey(until)),
		zap.Int("days", result.Days),
		zap.Int("records_added", result.RecordsAdded),
	)
	return result, nil
}

// inLoc moves day to midnight of its calendar date in the group's timezone
func (s *DailyService) inLoc(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
}
