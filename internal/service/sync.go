package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tony-c3a/tony-mission-control/internal/logger"
	"github.com/tony-c3a/tony-mission-control/internal/model"
	"github.com/tony-c3a/tony-mission-control/internal/parser"
	"github.com/tony-c3a/tony-mission-control/internal/store"
)

// EntityResult is the outcome of syncing one entity type.
type EntityResult struct {
	Entity string `json:"entity"`
	Count  int    `json:"count"`
	Error  string `json:"error,omitempty"`
}

type Report struct {
	Started  time.Time      `json:"started"`
	Duration time.Duration  `json:"duration"`
	Entities []EntityResult `json:"entities"`
}

func (r Report) Failed() bool {
	for _, e := range r.Entities {
		if e.Error != "" {
			return true
		}
	}
	return false
}

// SyncService copies the flat files into the store. Entities with stable ids
// are upserted; todos are replaced wholesale because their ids are random per
// parse. A failure on one entity does not stop the others and nothing is
// rolled back across entities.
type SyncService struct {
	src   *parser.Source
	store *store.Store
	mu    sync.Mutex
}

func NewSyncService(src *parser.Source, st *store.Store) *SyncService {
	return &SyncService{src: src, store: st}
}

type syncStep struct {
	entity string
	run    func(ctx context.Context) (int, error)
}

func (s *SyncService) steps() []syncStep {
	return []syncStep{
		{"time_entries", func(ctx context.Context) (int, error) {
			entries := s.src.TimeEntries()
			return len(entries), s.store.UpsertTimeEntries(ctx, entries)
		}},
		{"ideas", func(ctx context.Context) (int, error) {
			ideas := parser.MergeIdeas(
				withSource(s.src.IdeasLines(), "jsonl"),
				withSource(s.src.IdeasArray(), "json"),
			)
			return len(ideas), s.store.UpsertIdeas(ctx, ideas)
		}},
		{"todos", func(ctx context.Context) (int, error) {
			todos := s.src.Todos()
			return len(todos), s.store.ReplaceTodos(ctx, todos)
		}},
		{"workouts", func(ctx context.Context) (int, error) {
			days := s.src.Workouts()
			return len(days), s.store.UpsertWorkouts(ctx, days)
		}},
		{"whoop_days", func(ctx context.Context) (int, error) {
			days := s.src.WhoopDays()
			return len(days), s.store.UpsertWhoopDays(ctx, days)
		}},
	}
}

// RefreshTimeFile reloads the rows of the time-entry day file at path. Paths
// that aren't day files (the tracker state file, for one) are a no-op.
func (s *SyncService) RefreshTimeFile(ctx context.Context, path string) (int, error) {
	date, ok := strings.CutSuffix(filepath.Base(path), ".json")
	if !ok || !parser.IsDayKey(date) || filepath.Dir(path) != filepath.Clean(s.src.Layout().TimeEntries()) {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.src.TimeEntriesBetween(date, date)
	if err := s.store.ReplaceTimeDay(ctx, date, entries); err != nil {
		return 0, err
	}
	logger.Debug("sync.time_day", "date", date, "count", len(entries))
	return len(entries), nil
}

// Rows reports how many rows each store table holds.
func (s *SyncService) Rows(ctx context.Context) (map[string]int64, error) {
	return s.store.Counts(ctx)
}

// withSource records which file an idea came from when it doesn't say.
func withSource(ideas []model.Idea, source string) []model.Idea {
	for i := range ideas {
		if ideas[i].Source == nil {
			src := source
			ideas[i].Source = &src
		}
	}
	return ideas
}

// Run performs one pass. Concurrent calls are serialized. The returned error
// joins every entity failure; the report is complete either way.
func (s *SyncService) Run(ctx context.Context) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := Report{Started: time.Now()}
	var errs []error
	for _, step := range s.steps() {
		n, err := step.run(ctx)
		res := EntityResult{Entity: step.entity, Count: n}
		if err != nil {
			res.Error = err.Error()
			errs = append(errs, fmt.Errorf("sync %s: %w", step.entity, err))
			logger.Error("sync.entity", "entity", step.entity, "err", err)
		} else {
			logger.Debug("sync.entity", "entity", step.entity, "count", n)
		}
		report.Entities = append(report.Entities, res)
	}
	report.Duration = time.Since(report.Started)
	logger.Info("sync.done", "duration", report.Duration, "failed", report.Failed())
	return report, errors.Join(errs...)
}
