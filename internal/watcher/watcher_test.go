package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tony-c3a/tony-mission-control/internal/datapath"
	"github.com/tony-c3a/tony-mission-control/internal/event"
	"github.com/tony-c3a/tony-mission-control/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

func TestRuleMatch(t *testing.T) {
	l := datapath.New("/data")
	rules := DefaultRules(l)
	tests := []struct {
		path string
		want bool
	}{
		{"/data/timetracking/entries/2026-01-01.json", true},
		{"/data/timetracking/entries/2026/01/2026-01-01.json", true},
		{"/data/timetracking/entries/notes.txt", false},
		{"/data/timetracking/state.json", true},
		{"/data/timetracking/other.json", false},
		{"/data/ideas/ideas.jsonl", true},
		{"/data/ideas/ideas.json", true},
		{"/data/ideas/readme.md", false},
		{"/data/todos/active.md", true},
		{"/data/todos/archive/old.md", false},
		{"/data/memory/2026-02-24.md", true},
		{"/data/workouts/entries/2026-02-03.json", true},
		{"/data/workouts/exercises.json", false},
		{"/elsewhere/todos/active.md", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, matchAny(rules, tt.path))
		})
	}
}

func TestCategorize(t *testing.T) {
	rules := DefaultRules(datapath.New("/data"))

	typ, ok := Categorize(rules, "/data/timetracking/state.json")
	require.True(t, ok)
	assert.Equal(t, event.TimeUpdate, typ)

	typ, ok = Categorize(rules, "/data/workouts/entries/2026-02-03.json")
	require.True(t, ok)
	assert.Equal(t, event.WorkoutLogged, typ)

	typ, ok = Categorize(rules, "/data/memory/2026-02-24.md")
	require.True(t, ok)
	assert.Equal(t, event.MemoryUpdate, typ)

	_, ok = Categorize(rules, "/data/memory-archive/2026-02-24.md")
	assert.False(t, ok)
	_, ok = Categorize(rules, "/data/whoop/2026-02-24.json")
	assert.False(t, ok)
}

func TestRuleBase(t *testing.T) {
	assert.Equal(t, "/data/ideas", Rule{Pattern: "/data/ideas/*.json*"}.Base())
	assert.Equal(t, "/data/timetracking/entries", Rule{Pattern: "/data/timetracking/entries/**/*.json"}.Base())
	assert.Equal(t, "/data/timetracking/state.json", Rule{Pattern: "/data/timetracking/state.json"}.Base())
}

type chanPublisher chan event.Event

func (c chanPublisher) Publish(t event.Type, data any) event.Event {
	ev := event.New(t, data)
	c <- ev
	return ev
}

func startWatcher(t *testing.T, l datapath.Layout) chanPublisher {
	t.Helper()
	pub := make(chanPublisher, 16)
	w, err := New(DefaultRules(l), pub, Options{Stability: 50 * time.Millisecond, PollInterval: 10 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	w.Start(ctx)
	t.Cleanup(func() {
		cancel()
		<-w.Done()
	})
	return pub
}

func waitEvent(t *testing.T, pub chanPublisher) event.Event {
	t.Helper()
	select {
	case ev := <-pub:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("no event")
		return event.Event{}
	}
}

func TestWatcher_CreateAndModify(t *testing.T) {
	l := datapath.New(t.TempDir())
	require.NoError(t, os.MkdirAll(l.Todos(), 0o755))
	pub := startWatcher(t, l)

	path := filepath.Join(l.Todos(), "inbox.md")
	require.NoError(t, os.WriteFile(path, []byte("2026-01-01T00:00:00Z | TODO: a\n"), 0o644))

	ev := waitEvent(t, pub)
	assert.Equal(t, event.TodoChanged, ev.Type)
	assert.Equal(t, map[string]string{"file": path, "action": "add"}, ev.Data)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("2026-01-01T00:00:01Z | TODO: b\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	ev = waitEvent(t, pub)
	assert.Equal(t, event.TodoChanged, ev.Type)
	assert.Equal(t, map[string]string{"file": path}, ev.Data)
}

func TestWatcher_DirectoryCreatedLater(t *testing.T) {
	l := datapath.New(t.TempDir())
	pub := startWatcher(t, l)

	require.NoError(t, os.MkdirAll(l.TimeTracking(), 0o755))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.MkdirAll(l.TimeEntries(), 0o755))
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(l.TimeEntries(), "2026-01-01.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	ev := waitEvent(t, pub)
	assert.Equal(t, event.TimeUpdate, ev.Type)
}

func TestWatcher_IgnoresUnwatched(t *testing.T) {
	l := datapath.New(t.TempDir())
	require.NoError(t, os.MkdirAll(l.Ideas(), 0o755))
	pub := startWatcher(t, l)

	require.NoError(t, os.WriteFile(filepath.Join(l.Ideas(), "scratch.txt"), []byte("x"), 0o644))
	select {
	case ev := <-pub:
		t.Fatalf("unexpected event %v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}
