package parser

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tony-c3a/tony-mission-control/internal/logger"
	"github.com/tony-c3a/tony-mission-control/internal/model"
)

type rawIdea struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	Idea      string   `json:"idea"`
	Tags      []string `json:"tags"`
	Context   *string  `json:"context"`
	Status    string   `json:"status"`
	Related   []string `json:"related"`
	Source    *string  `json:"source"`
	Priority  *string  `json:"priority"`
}

type ideasFile struct {
	Ideas []rawIdea `json:"ideas"`
}

// normalize fills defaults. A missing timestamp becomes fallback, which
// callers take from the file so repeated parses agree.
func (r rawIdea) normalize(defaultID string, fallback time.Time) model.Idea {
	idea := model.Idea{
		ID:        r.ID,
		Timestamp: r.Timestamp,
		Idea:      r.Idea,
		Tags:      r.Tags,
		Context:   r.Context,
		Status:    model.IdeaStatus(r.Status),
		Related:   r.Related,
		Source:    r.Source,
		Priority:  r.Priority,
	}
	if idea.ID == "" {
		idea.ID = defaultID
	}
	if idea.Timestamp == "" {
		idea.Timestamp = ISOTime(fallback)
	}
	if idea.Tags == nil {
		idea.Tags = []string{}
	}
	if idea.Status == "" {
		idea.Status = model.IdeaNew
	}
	return idea
}

// ParseIdeasArray decodes ideas.json ({"ideas": [...]}). A file that is not
// valid JSON yields an error and no ideas. Ideas without an id get
// json-<index>, so the same file always yields the same ids.
func ParseIdeasArray(data []byte, modTime time.Time) ([]model.Idea, error) {
	var f ideasFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode ideas array: %w", err)
	}
	ideas := make([]model.Idea, 0, len(f.Ideas))
	for i, r := range f.Ideas {
		ideas = append(ideas, r.normalize(fmt.Sprintf("json-%d", i), modTime))
	}
	return ideas, nil
}

// ParseIdeasLines decodes ideas.jsonl. Lines that fail to decode are skipped;
// the index used for default ids counts non-blank lines only.
func ParseIdeasLines(data []byte, modTime time.Time) []model.Idea {
	ideas := []model.Idea{}
	i := 0
	for _, line := range splitLines(string(data)) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		idx := i
		i++
		var r rawIdea
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			logger.Debug("parser.idea_line_skipped", "line", idx, "err", err)
			continue
		}
		for j, t := range r.Tags {
			r.Tags[j] = NormalizeTag(t)
		}
		ideas = append(ideas, r.normalize(fmt.Sprintf("jsonl-%d", idx), modTime))
	}
	return ideas
}

// MergeIdeas unions both formats by id. The array entry replaces a line entry
// with the same id. The result is newest first.
func MergeIdeas(lines, array []model.Idea) []model.Idea {
	byID := make(map[string]int, len(lines)+len(array))
	merged := make([]model.Idea, 0, len(lines)+len(array))
	for _, set := range [][]model.Idea{lines, array} {
		for _, idea := range set {
			if i, ok := byID[idea.ID]; ok {
				merged[i] = idea
				continue
			}
			byID[idea.ID] = len(merged)
			merged = append(merged, idea)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return parseTimestamp(merged[i].Timestamp).After(parseTimestamp(merged[j].Timestamp))
	})
	return merged
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp returns the zero time for anything it can't read, which
// sorts those records last.
func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
