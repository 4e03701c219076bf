package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tony-c3a/tony-mission-control/internal/model"
	"github.com/tony-c3a/tony-mission-control/internal/parser"
)

var ErrEmptyIdea = errors.New("idea text is required")

type IdeaFilter struct {
	Tag    string
	Status string
	Search string
}

type NewIdea struct {
	Idea    string   `json:"idea"`
	Tags    []string `json:"tags"`
	Context *string  `json:"context"`
	Status  string   `json:"status"`
	Source  string   `json:"source"`
}

type IdeaService struct {
	src *parser.Source
	mu  sync.Mutex
}

func NewIdeaService(src *parser.Source) *IdeaService { return &IdeaService{src: src} }

// List returns the merged ideas, newest first, narrowed by f.
func (s *IdeaService) List(f IdeaFilter) []model.Idea {
	ideas := s.src.Ideas()
	out := ideas[:0]
	search := strings.ToLower(f.Search)
	for _, idea := range ideas {
		if f.Tag != "" && !hasTagFold(idea.Tags, f.Tag) {
			continue
		}
		if f.Status != "" && string(idea.Status) != f.Status {
			continue
		}
		if search != "" && !ideaContains(idea, search) {
			continue
		}
		out = append(out, idea)
	}
	return out
}

func ideaContains(idea model.Idea, lower string) bool {
	if strings.Contains(strings.ToLower(idea.Idea), lower) {
		return true
	}
	if idea.Context != nil && strings.Contains(strings.ToLower(*idea.Context), lower) {
		return true
	}
	for _, t := range idea.Tags {
		if strings.Contains(strings.ToLower(t), lower) {
			return true
		}
	}
	return false
}

func hasTagFold(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Add appends one JSON line to ideas.jsonl.
func (s *IdeaService) Add(in NewIdea) (model.Idea, error) {
	if strings.TrimSpace(in.Idea) == "" {
		return model.Idea{}, ErrEmptyIdea
	}
	if in.Status == "" {
		in.Status = string(model.IdeaNew)
	}
	if in.Source == "" {
		in.Source = "dashboard"
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	idea := model.Idea{
		ID:        parser.NewID(),
		Timestamp: parser.ISOTime(time.Now()),
		Idea:      in.Idea,
		Tags:      in.Tags,
		Context:   in.Context,
		Status:    model.IdeaStatus(in.Status),
		Source:    &in.Source,
	}
	line, err := json.Marshal(idea)
	if err != nil {
		return model.Idea{}, fmt.Errorf("encode idea: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := appendLine(s.src.Layout().IdeasJSONL(), append(line, '\n')); err != nil {
		return model.Idea{}, fmt.Errorf("append idea: %w", err)
	}
	return idea, nil
}

func appendLine(path string, line []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
