package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tony-c3a/tony-mission-control/internal/model"
	"github.com/tony-c3a/tony-mission-control/internal/parser"
)

var ErrEmptyTitle = errors.New("title is required")

type TodoFilter struct {
	Source string
	Status string
	Tag    string
	Search string
}

type TodoService struct {
	src *parser.Source
	mu  sync.Mutex
}

func NewTodoService(src *parser.Source) *TodoService { return &TodoService{src: src} }

func (s *TodoService) List(f TodoFilter) []model.Todo {
	todos := s.src.Todos()
	out := todos[:0]
	search := strings.ToLower(f.Search)
	for _, t := range todos {
		if f.Source != "" && string(t.Source) != f.Source {
			continue
		}
		if f.Status != "" && string(t.Status) != f.Status {
			continue
		}
		if f.Tag != "" && !hasTagFold(t.Tags, f.Tag) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Add appends "<ISO> | TODO: <title> #tag..." to the inbox.
func (s *TodoService) Add(title string, tags []string) (model.Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Todo{}, ErrEmptyTitle
	}
	norm := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = parser.NormalizeTag(t); t != "" {
			norm = append(norm, t)
		}
	}
	line := fmt.Sprintf("%s | TODO: %s", parser.ISOTime(time.Now()), title)
	for _, t := range norm {
		line += " #" + t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := appendLine(s.src.Layout().TodosInbox(), []byte(line+"\n")); err != nil {
		return model.Todo{}, fmt.Errorf("append todo: %w", err)
	}
	return model.Todo{
		ID:       parser.NewID(),
		Title:    title,
		Status:   model.TodoOpen,
		Source:   model.SourceInbox,
		Tags:     norm,
		Priority: model.PriorityNormal,
	}, nil
}
