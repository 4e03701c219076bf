// Package datapath describes where each flat-file log lives under the data root.
package datapath

import "path/filepath"

type Layout struct {
	Root string
}

func New(root string) Layout {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return Layout{Root: filepath.Clean(root)}
}

func (l Layout) join(parts ...string) string {
	return filepath.Join(append([]string{l.Root}, parts...)...)
}

func (l Layout) Ideas() string      { return l.join("ideas") }
func (l Layout) IdeasJSON() string  { return l.join("ideas", "ideas.json") }
func (l Layout) IdeasJSONL() string { return l.join("ideas", "ideas.jsonl") }

func (l Layout) Todos() string          { return l.join("todos") }
func (l Layout) TodosActive() string    { return l.join("todos", "active.md") }
func (l Layout) TodosInbox() string     { return l.join("todos", "inbox.md") }
func (l Layout) TodosCompleted() string { return l.join("todos", "completed.md") }
func (l Layout) TodosSomeday() string   { return l.join("todos", "someday.md") }

func (l Layout) TimeTracking() string { return l.join("timetracking") }
func (l Layout) TimeEntries() string  { return l.join("timetracking", "entries") }
func (l Layout) TimeState() string    { return l.join("timetracking", "state.json") }

func (l Layout) Memory() string { return l.join("memory") }

func (l Layout) Workouts() string       { return l.join("workouts") }
func (l Layout) WorkoutEntries() string { return l.join("workouts", "entries") }
func (l Layout) Exercises() string      { return l.join("workouts", "exercises.json") }

func (l Layout) Whoop() string { return l.join("whoop") }
