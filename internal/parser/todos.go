package parser

import (
	"regexp"
	"strings"

	"github.com/tony-c3a/tony-mission-control/internal/model"
)

var (
	checkboxLine   = regexp.MustCompile(`^-\s*\[([ x])\]\s+(.+)`)
	inboxLine      = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T[\d:.]+Z?)\s*\|\s*TODO:\s*(.+)`)
	completedDate  = regexp.MustCompile(`^##\s+(\d{4}-\d{2}-\d{2})`)
	completedLine  = regexp.MustCompile(`^-\s*\[x\]\s+(.+)`)
	bulletLine     = regexp.MustCompile(`^-\s+(.+)`)
	headerMarkers  = regexp.MustCompile(`^#+\s*`)
	highPrioritySn = "high priority"
)

func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func newTodo(raw string, source model.TodoSource, status model.TodoStatus, priority model.TodoPriority) model.Todo {
	return model.Todo{
		ID:       NewID(),
		Title:    CleanTitle(raw),
		Status:   status,
		Source:   source,
		Tags:     ExtractTags(raw),
		DueDate:  ExtractDueDate(raw),
		Priority: priority,
	}
}

func checkboxStatus(mark string) model.TodoStatus {
	if mark == "x" {
		return model.TodoDone
	}
	return model.TodoOpen
}

// ParseActiveTodos reads active.md: "##"/"###" headers name the running
// section, checkbox lines are items.
func ParseActiveTodos(content string) []model.Todo {
	todos := []model.Todo{}
	section := ""
	for _, line := range splitLines(content) {
		if strings.HasPrefix(line, "## ") || strings.HasPrefix(line, "### ") {
			section = strings.TrimSpace(headerMarkers.ReplaceAllString(line, ""))
			continue
		}
		m := checkboxLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		raw := m[2]
		priority := model.PriorityNormal
		switch {
		case HasUrgencyMarker(raw):
			priority = model.PriorityUrgent
		case strings.Contains(strings.ToLower(section), highPrioritySn):
			priority = model.PriorityHigh
		}
		todo := newTodo(raw, model.SourceActive, checkboxStatus(m[1]), priority)
		todo.Section = section
		todos = append(todos, todo)
	}
	return todos
}

// ParseInboxTodos accepts "<ISO timestamp> | TODO: <text>" lines and bare
// checkbox lines.
func ParseInboxTodos(content string) []model.Todo {
	todos := []model.Todo{}
	for _, line := range splitLines(content) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := inboxLine.FindStringSubmatch(line); m != nil {
			todos = append(todos, newTodo(m[2], model.SourceInbox, model.TodoOpen, model.PriorityNormal))
			continue
		}
		if m := checkboxLine.FindStringSubmatch(line); m != nil {
			todos = append(todos, newTodo(m[2], model.SourceInbox, checkboxStatus(m[1]), model.PriorityNormal))
		}
	}
	return todos
}

// ParseCompletedTodos reads completed.md, where "## YYYY-MM-DD" headers date
// the checked items below them.
func ParseCompletedTodos(content string) []model.Todo {
	todos := []model.Todo{}
	date := ""
	for _, line := range splitLines(content) {
		if m := completedDate.FindStringSubmatch(line); m != nil {
			date = m[1]
			continue
		}
		if m := completedLine.FindStringSubmatch(line); m != nil {
			todo := newTodo(m[1], model.SourceCompleted, model.TodoDone, model.PriorityNormal)
			todo.CompletedDate = date
			todos = append(todos, todo)
		}
	}
	return todos
}

func ParseSomedayTodos(content string) []model.Todo {
	todos := []model.Todo{}
	for _, line := range splitLines(content) {
		if strings.HasPrefix(line, "# ") || strings.HasPrefix(line, "Ideas") {
			continue
		}
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			todos = append(todos, newTodo(m[1], model.SourceSomeday, model.TodoOpen, model.PriorityLow))
		}
	}
	return todos
}
