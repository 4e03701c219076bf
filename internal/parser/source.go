package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tony-c3a/tony-mission-control/internal/datapath"
	"github.com/tony-c3a/tony-mission-control/internal/logger"
	"github.com/tony-c3a/tony-mission-control/internal/model"
)

// Source reads normalized records from the data root. Missing files and
// directories read as empty. Malformed files are logged and skipped.
type Source struct {
	layout datapath.Layout
}

func NewSource(layout datapath.Layout) *Source {
	return &Source{layout: layout}
}

func (s *Source) Layout() datapath.Layout { return s.layout }

// readOptional returns nil data and no error when path does not exist.
func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// readStamped is readOptional plus the file's modification time.
func readStamped(path string) ([]byte, time.Time, error) {
	data, err := readOptional(path)
	if err != nil || data == nil {
		return nil, time.Time{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, time.Time{}, err
	}
	return data, info.ModTime(), nil
}

// dayFiles lists "<day>.<ext>" files in dir, sorted by name.
func dayFiles(dir, ext string) []string {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("parser.read_dir", "dir", dir, "err", err)
		}
		return nil
	}
	var names []string
	for _, e := range ents {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ext) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// Todos parses all four todo files in the order active, inbox, completed, someday.
func (s *Source) Todos() []model.Todo {
	files := []struct {
		path  string
		parse func(string) []model.Todo
	}{
		{s.layout.TodosActive(), ParseActiveTodos},
		{s.layout.TodosInbox(), ParseInboxTodos},
		{s.layout.TodosCompleted(), ParseCompletedTodos},
		{s.layout.TodosSomeday(), ParseSomedayTodos},
	}
	todos := []model.Todo{}
	for _, f := range files {
		data, err := readOptional(f.path)
		if err != nil {
			logger.Warn("parser.todos", "file", f.path, "err", err)
			continue
		}
		todos = append(todos, f.parse(string(data))...)
	}
	return todos
}

func (s *Source) IdeasArray() []model.Idea {
	data, mod, err := readStamped(s.layout.IdeasJSON())
	if err != nil || data == nil {
		if err != nil {
			logger.Warn("parser.ideas_array", "err", err)
		}
		return []model.Idea{}
	}
	ideas, err := ParseIdeasArray(data, mod)
	if err != nil {
		logger.Warn("parser.ideas_array", "file", s.layout.IdeasJSON(), "err", err)
		return []model.Idea{}
	}
	return ideas
}

func (s *Source) IdeasLines() []model.Idea {
	data, mod, err := readStamped(s.layout.IdeasJSONL())
	if err != nil {
		logger.Warn("parser.ideas_lines", "err", err)
		return []model.Idea{}
	}
	return ParseIdeasLines(data, mod)
}

// Ideas returns both idea files merged, newest first.
func (s *Source) Ideas() []model.Idea {
	return MergeIdeas(s.IdeasLines(), s.IdeasArray())
}

// TimeEntries returns entries from every day file, oldest file first.
func (s *Source) TimeEntries() []model.TimeEntry {
	return s.TimeEntriesBetween("", "")
}

// TimeEntriesBetween limits to day files whose date is within [start, end].
// An empty bound is open.
func (s *Source) TimeEntriesBetween(start, end string) []model.TimeEntry {
	dir := s.layout.TimeEntries()
	entries := []model.TimeEntry{}
	for _, name := range dayFiles(dir, ".json") {
		date := strings.TrimSuffix(name, ".json")
		if (start != "" && date < start) || (end != "" && date > end) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("parser.time_entries", "file", name, "err", err)
			continue
		}
		parsed, err := ParseTimeEntries(data, date)
		if err != nil {
			logger.Warn("parser.time_entries", "file", name, "err", err)
			continue
		}
		entries = append(entries, parsed...)
	}
	return entries
}

func (s *Source) Workouts() []model.WorkoutDay {
	dir := s.layout.WorkoutEntries()
	days := []model.WorkoutDay{}
	for _, name := range dayFiles(dir, ".json") {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("parser.workouts", "file", name, "err", err)
			continue
		}
		day, err := ParseWorkoutDay(data, strings.TrimSuffix(name, ".json"))
		if err != nil {
			logger.Warn("parser.workouts", "file", name, "err", err)
			continue
		}
		days = append(days, day)
	}
	return days
}

func (s *Source) WhoopDays() []model.WhoopDay {
	dir := s.layout.Whoop()
	days := []model.WhoopDay{}
	for _, name := range dayFiles(dir, ".json") {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("parser.whoop", "file", name, "err", err)
			continue
		}
		day, err := ParseWhoopDay(data, strings.TrimSuffix(name, ".json"))
		if err != nil {
			logger.Warn("parser.whoop", "file", name, "err", err)
			continue
		}
		days = append(days, day)
	}
	return days
}

// Exercises returns the exercise library, empty if the file is absent or bad.
func (s *Source) Exercises() map[string]model.Exercise {
	data, err := readOptional(s.layout.Exercises())
	if err != nil || data == nil {
		return map[string]model.Exercise{}
	}
	lib, err := ParseExercises(data)
	if err != nil {
		logger.Warn("parser.exercises", "err", err)
		return map[string]model.Exercise{}
	}
	return lib
}

// MemoryEntries returns every dated memory file, newest first.
func (s *Source) MemoryEntries() []model.MemoryEntry {
	dir := s.layout.Memory()
	names := dayFiles(dir, ".md")
	entries := []model.MemoryEntry{}
	for i := len(names) - 1; i >= 0; i-- {
		name := names[i]
		if !IsMemoryFile(name) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("parser.memory", "file", name, "err", err)
			continue
		}
		entries = append(entries, ParseMemory(string(data), strings.TrimSuffix(name, ".md")))
	}
	return entries
}

// MemoryByDate returns the memory file for date, or false if there is none.
func (s *Source) MemoryByDate(date string) (model.MemoryEntry, bool) {
	if !IsDayKey(date) {
		return model.MemoryEntry{}, false
	}
	data, err := os.ReadFile(filepath.Join(s.layout.Memory(), date+".md"))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("parser.memory", "date", date, "err", err)
		}
		return model.MemoryEntry{}, false
	}
	return ParseMemory(string(data), date), true
}

// SearchMemory matches query case-insensitively against whole files and
// section titles.
func (s *Source) SearchMemory(query string) []model.MemoryEntry {
	q := strings.ToLower(query)
	found := []model.MemoryEntry{}
	for _, e := range s.MemoryEntries() {
		if strings.Contains(strings.ToLower(e.Content), q) {
			found = append(found, e)
			continue
		}
		for _, sec := range e.Sections {
			if strings.Contains(strings.ToLower(sec.Title), q) {
				found = append(found, e)
				break
			}
		}
	}
	return found
}

// TrackerState reads the live time-tracker state. It returns nil when the
// file is missing or unreadable.
func (s *Source) TrackerState() *model.TimeTrackerState {
	data, err := os.ReadFile(s.layout.TimeState())
	if err != nil {
		return nil
	}
	var st model.TimeTrackerState
	if err := json.Unmarshal(data, &st); err != nil {
		logger.Warn("parser.tracker_state", "err", fmt.Errorf("decode state: %w", err))
		return nil
	}
	return &st
}
