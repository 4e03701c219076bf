package watcher

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tony-c3a/tony-mission-control/internal/datapath"
	"github.com/tony-c3a/tony-mission-control/internal/event"
)

// Rule maps files matching Pattern to an event type. Pattern is an absolute
// glob; "**" stands for any number of directories.
type Rule struct {
	Pattern string
	Type    event.Type
}

// DefaultRules covers every file class the dashboard shows.
func DefaultRules(l datapath.Layout) []Rule {
	sep := string(os.PathSeparator)
	return []Rule{
		{Pattern: l.TimeEntries() + sep + "**" + sep + "*.json", Type: event.TimeUpdate},
		{Pattern: l.TimeState(), Type: event.TimeUpdate},
		{Pattern: l.Ideas() + sep + "*.json*", Type: event.IdeaAdded},
		{Pattern: l.Todos() + sep + "*.md", Type: event.TodoChanged},
		{Pattern: l.Memory() + sep + "*.md", Type: event.MemoryUpdate},
		{Pattern: l.WorkoutEntries() + sep + "**" + sep + "*.json", Type: event.WorkoutLogged},
	}
}

// Base is the pattern up to its first wildcard, without a trailing separator.
func (r Rule) Base() string {
	base := r.Pattern
	if i := strings.IndexAny(base, "*?["); i >= 0 {
		base = base[:i]
	}
	return strings.TrimRight(base, string(os.PathSeparator))
}

func (r Rule) recursive() bool { return strings.Contains(r.Pattern, "**") }

func (r Rule) literal() bool { return !strings.ContainsAny(r.Pattern, "*?[") }

// dir is the directory that has to be watched to see the rule's files.
func (r Rule) dir() string {
	if r.literal() {
		return filepath.Dir(r.Pattern)
	}
	return r.Base()
}

// Match reports whether path is selected by the rule's glob.
func (r Rule) Match(path string) bool {
	sep := string(os.PathSeparator)
	if i := strings.Index(r.Pattern, sep+"**"+sep); i >= 0 {
		prefix, leaf := r.Pattern[:i], r.Pattern[i+len(sep+"**"+sep):]
		if !within(prefix, path) || path == prefix {
			return false
		}
		ok, err := filepath.Match(leaf, filepath.Base(path))
		return err == nil && ok
	}
	ok, err := filepath.Match(r.Pattern, path)
	return err == nil && ok
}

// within reports whether path is dir itself or below it.
func within(dir, path string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(os.PathSeparator))
}

// Categorize returns the type of the first rule whose base contains path.
func Categorize(rules []Rule, path string) (event.Type, bool) {
	for _, r := range rules {
		if within(r.Base(), path) {
			return r.Type, true
		}
	}
	return "", false
}

func matchAny(rules []Rule, path string) bool {
	for _, r := range rules {
		if r.Match(path) {
			return true
		}
	}
	return false
}
