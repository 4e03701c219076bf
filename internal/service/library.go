package service

import (
	"github.com/tony-c3a/tony-mission-control/internal/model"
	"github.com/tony-c3a/tony-mission-control/internal/parser"
)

type MemoryQuery struct {
	Search string
	Limit  int
}

type MemoryService struct {
	src *parser.Source
}

func NewMemoryService(src *parser.Source) *MemoryService { return &MemoryService{src: src} }

func (s *MemoryService) ByDate(date string) (model.MemoryEntry, bool) {
	return s.src.MemoryByDate(date)
}

// Latest returns the newest memory day.
func (s *MemoryService) Latest() (model.MemoryEntry, bool) {
	all := s.src.MemoryEntries()
	if len(all) == 0 {
		return model.MemoryEntry{}, false
	}
	return all[0], true
}

// List returns up to q.Limit entries, newest first, and the total before
// the limit.
func (s *MemoryService) List(q MemoryQuery) ([]model.MemoryEntry, int) {
	var all []model.MemoryEntry
	if q.Search != "" {
		all = s.src.SearchMemory(q.Search)
	} else {
		all = s.src.MemoryEntries()
	}
	total := len(all)
	if q.Limit > 0 && len(all) > q.Limit {
		all = all[:q.Limit]
	}
	return all, total
}

type WorkoutOverview struct {
	Workouts  []model.WorkoutDay        `json:"workouts"`
	Exercises map[string]model.Exercise `json:"exercises"`
	WhoopDays []model.WhoopDay          `json:"whoopDays"`
	Stats     model.WorkoutStats        `json:"stats"`
}

type WorkoutService struct {
	src *parser.Source
}

func NewWorkoutService(src *parser.Source) *WorkoutService { return &WorkoutService{src: src} }

func (s *WorkoutService) Overview() WorkoutOverview {
	days := s.src.Workouts()
	stats := model.WorkoutStats{TotalSessions: len(days)}
	for _, d := range days {
		stats.TotalExercises += d.TotalExercises
		stats.TotalSets += d.TotalSets
	}
	return WorkoutOverview{
		Workouts:  days,
		Exercises: s.src.Exercises(),
		WhoopDays: s.src.WhoopDays(),
		Stats:     stats,
	}
}
