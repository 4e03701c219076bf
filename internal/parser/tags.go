package parser

import (
	"regexp"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`#[\w-]+`)
	duePattern        = regexp.MustCompile(`@due:(\S+)`)
	dueTokenPattern   = regexp.MustCompile(`@due:\S+`)
	urgencyPattern    = regexp.MustCompile(`\s!(\s|$)`)
	trailingUrgency   = regexp.MustCompile(`\s!\s*$`)
	standaloneUrgency = regexp.MustCompile(`\s!(\s)`)
	whitespaceRun     = regexp.MustCompile(`\s+`)
)

// NormalizeTag strips a leading '#', lower-cases and trims.
func NormalizeTag(tag string) string {
	return strings.TrimSpace(strings.ToLower(strings.TrimPrefix(tag, "#")))
}

// ExtractTags returns every #tag in text, normalized. Duplicates are kept.
func ExtractTags(text string) []string {
	matches := tagPattern.FindAllString(text, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, NormalizeTag(m))
	}
	return tags
}

// ExtractDueDate returns the token of the first @due: marker, or "".
func ExtractDueDate(text string) string {
	if m := duePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func HasUrgencyMarker(text string) bool {
	return urgencyPattern.MatchString(text) || strings.HasSuffix(strings.TrimSpace(text), "!")
}

// CleanTitle removes tags, due markers and urgency markers. Run the Extract
// functions on the raw text first; CleanTitle destroys what they match.
func CleanTitle(text string) string {
	text = tagPattern.ReplaceAllString(text, "")
	text = dueTokenPattern.ReplaceAllString(text, "")
	text = trailingUrgency.ReplaceAllString(text, "")
	text = standaloneUrgency.ReplaceAllString(text, "${1}")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
