package parser

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a short random id. Nothing about it is stable across calls.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// ISOTime formats t the way the data files do: UTC, millisecond precision.
func ISOTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
