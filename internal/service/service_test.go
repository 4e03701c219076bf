package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tony-c3a/tony-mission-control/internal/config"
	"github.com/tony-c3a/tony-mission-control/internal/datapath"
	"github.com/tony-c3a/tony-mission-control/internal/logger"
	"github.com/tony-c3a/tony-mission-control/internal/model"
	"github.com/tony-c3a/tony-mission-control/internal/parser"
	"github.com/tony-c3a/tony-mission-control/internal/store"
)

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

type fixture struct {
	layout datapath.Layout
	src    *parser.Source
	store  *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	layout := datapath.New(filepath.Join(dir, "clawd"))
	st, err := store.Open(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(dir, "mc.db"), BusyTimeoutMS: 1000})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return &fixture{layout: layout, src: parser.NewSource(layout), store: st}
}

func (f *fixture) write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (f *fixture) seed(t *testing.T) {
	f.write(t, f.layout.TodosActive(), "## High Priority\n- [ ] ship #work\n- [x] plan\n")
	f.write(t, f.layout.TodosInbox(), "2026-01-01T00:00:00.000Z | TODO: renew passport #admin\n")
	f.write(t, f.layout.TodosCompleted(), "## 2026-01-01\n- [x] old thing\n")
	f.write(t, f.layout.TodosSomeday(), "# Someday\n- learn piano\n")
	f.write(t, f.layout.IdeasJSON(), `{"ideas":[{"id":"a","idea":"v2","timestamp":"2026-01-02T00:00:00Z"}]}`)
	f.write(t, f.layout.IdeasJSONL(), `{"id":"a","idea":"v1","timestamp":"2026-01-01T00:00:00Z"}`+"\n"+`{"idea":"other","tags":["#x"],"timestamp":"2025-12-31T00:00:00Z"}`+"\n")
	f.write(t, filepath.Join(f.layout.TimeEntries(), "2026-01-01.json"),
		`[{"id":"t1","start":"2026-01-01T09:00:00Z","end":"2026-01-01T10:00:00Z","activity":"deep work","category":"work","durationMin":60,"tags":["deep-work"]},
		  {"id":"t2","start":"2026-01-01T10:00:00Z","end":"2026-01-01T10:15:00Z","activity":"coffee","category":"break","durationMin":15}]`)
	f.write(t, filepath.Join(f.layout.TimeEntries(), "2026-01-02.json"),
		`{"date":"2026-01-02","entries":[{"id":"t3","start":"2026-01-02T08:00:00Z","activity":"email","category":"admin","durationMin":20}]}`)
	f.write(t, filepath.Join(f.layout.WorkoutEntries(), "2026-01-01.json"),
		`{"date":"2026-01-01","entries":[{"exercise":"squat","sets":[{"reps":5},{"reps":5}]}]}`)
	f.write(t, filepath.Join(f.layout.Whoop(), "2026-01-01.json"), `{"date":"2026-01-01","recovery":{"score":87},"strain":14.2}`)
}

func TestSync_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()
	svc := NewSyncService(f.src, f.store)

	report, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.False(t, report.Failed())
	require.Len(t, report.Entities, 5)
	assert.Equal(t, EntityResult{Entity: "todos", Count: 5}, report.Entities[2])

	firstCounts, err := f.store.Counts(ctx)
	require.NoError(t, err)
	firstEntries, err := f.store.TimeEntries(ctx, store.TimeFilter{})
	require.NoError(t, err)
	firstIdeas, err := f.store.Ideas(ctx)
	require.NoError(t, err)
	firstTodos, err := f.store.Todos(ctx)
	require.NoError(t, err)

	_, err = svc.Run(ctx)
	require.NoError(t, err)

	secondCounts, err := f.store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, firstCounts, secondCounts)
	assert.Equal(t, map[string]int64{
		"time_entries": 3, "ideas": 2, "todos": 5, "workout_sessions": 1, "whoop_days": 1,
	}, secondCounts)

	secondEntries, err := f.store.TimeEntries(ctx, store.TimeFilter{})
	require.NoError(t, err)
	assert.Equal(t, firstEntries, secondEntries)

	secondIdeas, err := f.store.Ideas(ctx)
	require.NoError(t, err)
	assert.Equal(t, firstIdeas, secondIdeas)
	for _, idea := range secondIdeas {
		require.NotNil(t, idea.Source)
		switch idea.ID {
		case "a":
			assert.Equal(t, "v2", idea.Idea)
			assert.Equal(t, "json", *idea.Source)
		default:
			assert.Equal(t, "jsonl", *idea.Source)
		}
	}

	// Todo ids are regenerated on every pass; everything else matches.
	secondTodos, err := f.store.Todos(ctx)
	require.NoError(t, err)
	require.Len(t, secondTodos, len(firstTodos))
	for i := range firstTodos {
		a, b := firstTodos[i], secondTodos[i]
		assert.NotEqual(t, a.ID, b.ID)
		a.ID, b.ID = "", ""
		assert.Equal(t, a, b)
	}
}

func TestSync_IdlessIdeasDoNotMultiply(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.layout.IdeasJSON(), `{"ideas":[{"idea":"no id, no time"}]}`)
	f.write(t, f.layout.IdeasJSONL(), `{"idea":"line without id"}`+"\n")
	ctx := context.Background()
	svc := NewSyncService(f.src, f.store)

	var first []model.Idea
	for i := 0; i < 3; i++ {
		_, err := svc.Run(ctx)
		require.NoError(t, err)
		ideas, err := f.store.Ideas(ctx)
		require.NoError(t, err)
		require.Len(t, ideas, 2, "pass %d", i)
		if first == nil {
			first = ideas
			continue
		}
		assert.Equal(t, first, ideas)
	}
}

func TestSync_RefreshTimeFile(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()
	svc := NewSyncService(f.src, f.store)
	_, err := svc.Run(ctx)
	require.NoError(t, err)
	times := NewTimeService(f.src, f.store)

	day := filepath.Join(f.layout.TimeEntries(), "2026-01-03.json")
	f.write(t, day, `[{"id":"t4","start":"2026-01-03T08:00:00Z","activity":"run","category":"health","durationMin":30}]`)
	n, err := svc.RefreshTimeFile(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err := times.List(ctx, TimeQuery{From: "2026-01-03", To: "2026-01-03"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t4", got[0].ID)

	// An entry removed from the file leaves the store too; other days stay.
	first := filepath.Join(f.layout.TimeEntries(), "2026-01-01.json")
	f.write(t, first, `[{"id":"t1","start":"2026-01-01T09:00:00Z","activity":"deep work","category":"work","durationMin":60}]`)
	_, err = svc.RefreshTimeFile(ctx, first)
	require.NoError(t, err)
	all, err := times.List(ctx, TimeQuery{})
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, e := range all {
		ids = append(ids, e.ID)
	}
	assert.ElementsMatch(t, []string{"t1", "t3", "t4"}, ids)

	n, err = svc.RefreshTimeFile(ctx, f.layout.TimeState())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSync_EmptyRoot(t *testing.T) {
	f := newFixture(t)
	report, err := NewSyncService(f.src, f.store).Run(context.Background())
	require.NoError(t, err)
	for _, e := range report.Entities {
		assert.Zero(t, e.Count, e.Entity)
	}
}

func TestSync_StoreFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	require.NoError(t, f.store.DB().Exec("DROP TABLE ideas").Error)

	report, err := NewSyncService(f.src, f.store).Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "sync ideas")
	assert.True(t, report.Failed())
	assert.NotEmpty(t, report.Entities[1].Error)
	assert.Empty(t, report.Entities[2].Error, "later entities still sync")

	todos, err := f.store.Todos(context.Background())
	require.NoError(t, err)
	assert.Len(t, todos, 5)
}

func TestIdeaService_AddAndList(t *testing.T) {
	f := newFixture(t)
	svc := NewIdeaService(f.src)

	_, err := svc.Add(NewIdea{Idea: "  "})
	assert.ErrorIs(t, err, ErrEmptyIdea)

	ctxText := "from a walk"
	idea, err := svc.Add(NewIdea{Idea: "solar kettle", Tags: []string{"hardware"}, Context: &ctxText})
	require.NoError(t, err)
	assert.Equal(t, model.IdeaNew, idea.Status)
	require.NotNil(t, idea.Source)
	assert.Equal(t, "dashboard", *idea.Source)

	_, err = svc.Add(NewIdea{Idea: "budget app", Status: "building", Source: "cli"})
	require.NoError(t, err)

	data, err := os.ReadFile(f.layout.IdeasJSONL())
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 2)

	all := svc.List(IdeaFilter{})
	require.Len(t, all, 2)
	ids := []string{all[0].ID, all[1].ID}
	assert.Contains(t, ids, idea.ID)

	assert.Len(t, svc.List(IdeaFilter{Tag: "HARDWARE"}), 1)
	assert.Len(t, svc.List(IdeaFilter{Status: "building"}), 1)
	assert.Len(t, svc.List(IdeaFilter{Search: "WALK"}), 1)
	assert.Empty(t, svc.List(IdeaFilter{Search: "nothing"}))
}

func TestTodoService_AddAndList(t *testing.T) {
	f := newFixture(t)
	svc := NewTodoService(f.src)

	_, err := svc.Add(" ", nil)
	assert.ErrorIs(t, err, ErrEmptyTitle)

	todo, err := svc.Add("call mom", []string{"#Family", "phone"})
	require.NoError(t, err)
	assert.Equal(t, []string{"family", "phone"}, todo.Tags)
	assert.Equal(t, model.SourceInbox, todo.Source)

	data, err := os.ReadFile(f.layout.TodosInbox())
	require.NoError(t, err)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z \| TODO: call mom #family #phone\n$`, string(data))

	listed := svc.List(TodoFilter{Source: "inbox"})
	require.Len(t, listed, 1)
	assert.Equal(t, "call mom", listed[0].Title)
	assert.Equal(t, []string{"family", "phone"}, listed[0].Tags)
	assert.Len(t, svc.List(TodoFilter{Tag: "Family"}), 1)
	assert.Empty(t, svc.List(TodoFilter{Status: "done"}))
}

func TestTimeService_Stats(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()
	_, err := NewSyncService(f.src, f.store).Run(ctx)
	require.NoError(t, err)

	svc := NewTimeService(f.src, f.store)
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.Local) }

	st, err := svc.Stats(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, 95.0, st.TotalMinutes)
	assert.Equal(t, map[string]float64{"work": 60, "break": 15, "admin": 20}, st.ByCategory)
	assert.Equal(t, map[string]float64{"2026-01-01": 75, "2026-01-02": 20}, st.ByDay)
	assert.Equal(t, 1, st.FocusSessions)
	assert.Equal(t, 15.0, st.BreakMinutes)
	assert.Equal(t, 2, st.TotalDays)
	assert.Equal(t, 75.0, st.Today.Minutes)
	assert.Len(t, st.Today.Entries, 2)

	today, err := svc.List(ctx, TimeQuery{Today: true})
	require.NoError(t, err)
	assert.Len(t, today, 2)

	admin, err := svc.List(ctx, TimeQuery{Category: "admin"})
	require.NoError(t, err)
	require.Len(t, admin, 1)
	assert.Equal(t, "t3", admin[0].ID)
}

func TestTimeService_Export(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()
	_, err := NewSyncService(f.src, f.store).Run(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewTimeService(f.src, f.store).Export(ctx, "2026-01-01", "2026-01-01", &buf))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Entries")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Activity", rows[0][4])
	assert.Equal(t, "deep work", rows[1][4])

	summary, err := wb.GetRows("By category")
	require.NoError(t, err)
	assert.Equal(t, []string{"break", "15"}, summary[1])
	assert.Equal(t, []string{"work", "60"}, summary[2])
}

func TestAgentStatus(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ping := func(ago time.Duration) string { return now.Add(-ago).Format(time.RFC3339) }

	assert.Equal(t, model.AgentSleeping, agentStatus(nil, now).State)

	st := &model.TimeTrackerState{
		LastPing:     ping(2 * time.Minute),
		CurrentEntry: &model.CurrentEntry{Activity: "coding"},
	}
	got := agentStatus(st, now)
	assert.Equal(t, model.AgentActive, got.State)
	require.NotNil(t, got.CurrentActivity)
	assert.Equal(t, "coding", *got.CurrentActivity)
	assert.Equal(t, 1, got.SessionCount)
	assert.Equal(t, st.LastPing, *got.LastAction)

	st.FocusMode.Active = true
	assert.Equal(t, model.AgentBusy, agentStatus(st, now).State)

	st.LastPing = ping(30 * time.Minute)
	assert.Equal(t, model.AgentIdle, agentStatus(st, now).State)

	st.LastPing = ping(2 * time.Hour)
	st.CurrentEntry = nil
	got = agentStatus(st, now)
	assert.Equal(t, model.AgentSleeping, got.State)
	assert.Zero(t, got.SessionCount)
	assert.Nil(t, got.CurrentActivity)
}

func TestStatusService_ReadsStateFile(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	f.write(t, f.layout.TimeState(), `{"schemaVersion":1,"lastPing":"`+now.Add(-time.Minute).Format(time.RFC3339)+`","focusMode":{"active":false}}`)
	assert.Equal(t, model.AgentActive, NewStatusService(f.src).Current(now).State)
}

func TestMemoryAndWorkouts(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	for _, d := range []string{"2026-01-01", "2026-01-02", "2026-01-03"} {
		f.write(t, filepath.Join(f.layout.Memory(), d+".md"), "## Notes\nday "+d+"\n")
	}

	mem := NewMemoryService(f.src)
	entries, total := mem.List(MemoryQuery{Limit: 2})
	assert.Equal(t, 3, total)
	require.Len(t, entries, 2)
	assert.Equal(t, "2026-01-03", entries[0].Date)

	found, total := mem.List(MemoryQuery{Search: "day 2026-01-02"})
	assert.Equal(t, 1, total)
	assert.Equal(t, "2026-01-02", found[0].Date)

	latest, ok := mem.Latest()
	require.True(t, ok)
	assert.Equal(t, "2026-01-03", latest.Date)
	_, ok = mem.ByDate("2025-12-31")
	assert.False(t, ok)

	ov := NewWorkoutService(f.src).Overview()
	assert.Equal(t, model.WorkoutStats{TotalSessions: 1, TotalExercises: 1, TotalSets: 2}, ov.Stats)
	require.Len(t, ov.WhoopDays, 1)
	assert.Equal(t, 87.0, *ov.WhoopDays[0].Recovery)
	assert.Empty(t, ov.Exercises)
}

func TestAuthService(t *testing.T) {
	assert.False(t, NewAuthService(config.AuthConfig{}).Enabled())
	_, err := NewAuthService(config.AuthConfig{}).Login("a", "b")
	assert.Error(t, err)
}
