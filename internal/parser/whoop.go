package parser

import (
	"encoding/json"
	"fmt"

	"github.com/tony-c3a/tony-mission-control/internal/model"
)

type rawWhoopDay struct {
	Date     string          `json:"date"`
	Recovery json.RawMessage `json:"recovery"`
	Strain   json.RawMessage `json:"strain"`
	Sleep    json.RawMessage `json:"sleep"`
	Workouts []any           `json:"workouts"`
	Note     *string         `json:"note"`
}

// unwrapMetric reads a number that is either a scalar or nested under key.
// Anything else (absent, null, string, object without key) is nil.
func unwrapMetric(raw json.RawMessage, key string) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		inner, ok := obj[key]
		if !ok {
			return nil
		}
		raw = inner
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// ParseWhoopDay decodes one health snapshot file.
func ParseWhoopDay(data []byte, fileDate string) (model.WhoopDay, error) {
	var raw rawWhoopDay
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.WhoopDay{}, fmt.Errorf("decode whoop %s: %w", fileDate, err)
	}
	if raw.Date == "" {
		raw.Date = fileDate
	}
	if raw.Workouts == nil {
		raw.Workouts = []any{}
	}
	return model.WhoopDay{
		Date:     raw.Date,
		Recovery: unwrapMetric(raw.Recovery, "score"),
		Strain:   unwrapMetric(raw.Strain, "day_strain"),
		Sleep:    unwrapMetric(raw.Sleep, "total_hours"),
		Workouts: raw.Workouts,
		Note:     raw.Note,
	}, nil
}
