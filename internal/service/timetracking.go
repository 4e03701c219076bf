package service

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tony-c3a/tony-mission-control/internal/model"
	"github.com/tony-c3a/tony-mission-control/internal/parser"
	"github.com/tony-c3a/tony-mission-control/internal/store"
)

const (
	focusTag        = "deep-work"
	focusMinMinutes = 30
	breakCategory   = "break"
)

// TimeQuery selects entries by file day. Today overrides From and To.
type TimeQuery struct {
	From     string
	To       string
	Category string
	Today    bool
}

type TimeService struct {
	src   *parser.Source
	store *store.Store
	now   func() time.Time
}

func NewTimeService(src *parser.Source, st *store.Store) *TimeService {
	return &TimeService{src: src, store: st, now: time.Now}
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }

func (s *TimeService) List(ctx context.Context, q TimeQuery) ([]model.TimeEntry, error) {
	f := store.TimeFilter{From: q.From, To: q.To, Category: q.Category}
	if q.Today {
		today := dayKey(s.now())
		f.From, f.To = today, today
	}
	entries, err := s.store.TimeEntries(ctx, f)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.TimeEntry{}
	}
	return entries, nil
}

// Current returns the activity the tracker is running right now, if any.
func (s *TimeService) Current() *model.CurrentEntry {
	st := s.src.TrackerState()
	if st == nil {
		return nil
	}
	return st.CurrentEntry
}

func minutes(e model.TimeEntry) float64 {
	if e.DurationMin == nil {
		return 0
	}
	return *e.DurationMin
}

// startDay is the day part of an entry's start time. Stats group by it, which
// can differ from the file day for entries that cross midnight.
func startDay(e model.TimeEntry) string {
	day, _, _ := strings.Cut(e.Start, "T")
	return day
}

// Stats aggregates entries in [from, to] (both optional).
func (s *TimeService) Stats(ctx context.Context, from, to string) (model.TimeStats, error) {
	entries, err := s.List(ctx, TimeQuery{From: from, To: to})
	if err != nil {
		return model.TimeStats{}, err
	}
	return computeStats(entries, dayKey(s.now())), nil
}

func computeStats(entries []model.TimeEntry, today string) model.TimeStats {
	st := model.TimeStats{
		ByCategory: map[string]float64{},
		ByDay:      map[string]float64{},
		Today: model.TodayStats{
			ByCategory: map[string]float64{},
			Entries:    []model.TimeEntry{},
		},
	}
	for _, e := range entries {
		m := minutes(e)
		st.TotalMinutes += m
		st.ByCategory[e.Category] += m
		st.ByDay[startDay(e)] += m
		if startDay(e) == today {
			st.Today.Minutes += m
			st.Today.ByCategory[e.Category] += m
			st.Today.Entries = append(st.Today.Entries, e)
		}
		if slices.Contains(e.Tags, focusTag) || (m >= focusMinMinutes && e.Category != breakCategory) {
			st.FocusSessions++
		}
		if e.Category == breakCategory {
			st.BreakMinutes += m
		}
	}
	st.TotalDays = len(st.ByDay)
	return st
}

var exportHeader = []any{"ID", "Date", "Start", "End", "Activity", "Category", "Minutes", "Tags", "Source"}

// Export writes entries in [from, to] as an xlsx workbook with an entries
// sheet and a per-category summary sheet.
func (s *TimeService) Export(ctx context.Context, from, to string, w io.Writer) error {
	entries, err := s.List(ctx, TimeQuery{From: from, To: to})
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Entries"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, e := range entries {
		row := []any{e.ID, e.Date, e.Start, deref(e.End), e.Activity, e.Category, minutes(e), strings.Join(e.Tags, ", "), deref(e.Source)}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	const summary = "By category"
	if _, err := f.NewSheet(summary); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	stats := computeStats(entries, dayKey(s.now()))
	cats := make([]string, 0, len(stats.ByCategory))
	for c := range stats.ByCategory {
		cats = append(cats, c)
	}
	slices.Sort(cats)
	_ = f.SetSheetRow(summary, "A1", &[]any{"Category", "Minutes"})
	for i, c := range cats {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetSheetRow(summary, cell, &[]any{c, stats.ByCategory[c]})
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
