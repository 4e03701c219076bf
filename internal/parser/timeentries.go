package parser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tony-c3a/tony-mission-control/internal/logger"
	"github.com/tony-c3a/tony-mission-control/internal/model"
)

type rawTimeEntry struct {
	ID          string   `json:"id"`
	Start       string   `json:"start"`
	End         *string  `json:"end"`
	Activity    string   `json:"activity"`
	Category    string   `json:"category"`
	DurationMin *float64 `json:"durationMin"`
	Tags        []string `json:"tags"`
	Source      *string  `json:"source"`
}

// timeEntryFile is either a bare array of entries or {"date", "entries"}.
// Entries stay raw so one bad entry doesn't sink the file.
type timeEntryFile struct {
	Entries []json.RawMessage
}

func (f *timeEntryFile) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &f.Entries)
	}
	var wrapped struct {
		Entries []json.RawMessage `json:"entries"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	f.Entries = wrapped.Entries
	return nil
}

// ParseTimeEntries decodes one day file. date is the file's day key and
// becomes every entry's Date regardless of its start time.
func ParseTimeEntries(data []byte, date string) ([]model.TimeEntry, error) {
	var f timeEntryFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode time entries %s: %w", date, err)
	}
	entries := make([]model.TimeEntry, 0, len(f.Entries))
	for i, raw := range f.Entries {
		var e rawTimeEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			logger.Debug("parser.time_entry_skipped", "date", date, "index", i, "err", err)
			continue
		}
		end := e.End
		if end != nil && *end == "" {
			end = nil
		}
		tags := e.Tags
		if tags == nil {
			tags = []string{}
		}
		entries = append(entries, model.TimeEntry{
			ID:          e.ID,
			Start:       e.Start,
			End:         end,
			Activity:    e.Activity,
			Category:    e.Category,
			DurationMin: e.DurationMin,
			Tags:        tags,
			Source:      e.Source,
			Date:        date,
		})
	}
	return entries, nil
}
