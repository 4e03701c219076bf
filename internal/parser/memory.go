package parser

import (
	"regexp"
	"strings"

	"github.com/tony-c3a/tony-mission-control/internal/model"
)

var (
	memoryFileName = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.md$`)
	dayKeyPattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	sectionHeader  = regexp.MustCompile(`^##\s+(.+)`)
	sectionTime    = regexp.MustCompile(`(?i)\((\d{1,2}:\d{2}\s*(?:AM|PM)?\s*UTC)\)`)
)

// IsMemoryFile reports whether name looks like "YYYY-MM-DD.md".
func IsMemoryFile(name string) bool { return memoryFileName.MatchString(name) }

// IsDayKey reports whether date is a bare "YYYY-MM-DD" key.
func IsDayKey(date string) bool { return dayKeyPattern.MatchString(date) }

// ParseMemory splits a daily memory file into its "##" sections. Text before
// the first header belongs to no section.
func ParseMemory(content, date string) model.MemoryEntry {
	sections := []model.MemorySection{}
	var (
		title string
		body  []string
		open  bool
	)
	flush := func() {
		if !open {
			return
		}
		s := model.MemorySection{Title: title, Content: strings.TrimSpace(strings.Join(body, "\n"))}
		if m := sectionTime.FindStringSubmatch(title); m != nil {
			s.Time = m[1]
		}
		sections = append(sections, s)
	}
	for _, line := range splitLines(content) {
		if m := sectionHeader.FindStringSubmatch(line); m != nil {
			flush()
			title, body, open = m[1], nil, true
			continue
		}
		if open {
			body = append(body, line)
		}
	}
	flush()
	return model.MemoryEntry{Date: date, Content: content, Sections: sections}
}
