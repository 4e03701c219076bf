package parser

import (
	"encoding/json"
	"fmt"

	"github.com/tony-c3a/tony-mission-control/internal/model"
)

type rawWorkoutDay struct {
	Date         string               `json:"date"`
	WorkoutStart *string              `json:"workout_start"`
	Entries      []model.WorkoutEntry `json:"entries"`
}

// ParseWorkoutDay decodes one workout day file. fileDate fills in a missing
// date field.
func ParseWorkoutDay(data []byte, fileDate string) (model.WorkoutDay, error) {
	var raw rawWorkoutDay
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.WorkoutDay{}, fmt.Errorf("decode workout %s: %w", fileDate, err)
	}
	if raw.Date == "" {
		raw.Date = fileDate
	}
	if raw.Entries == nil {
		raw.Entries = []model.WorkoutEntry{}
	}
	sets := 0
	for _, e := range raw.Entries {
		sets += len(e.Sets)
	}
	return model.WorkoutDay{
		ID:             "workout-" + raw.Date,
		Date:           raw.Date,
		WorkoutStart:   raw.WorkoutStart,
		Entries:        raw.Entries,
		TotalExercises: len(raw.Entries),
		TotalSets:      sets,
	}, nil
}

// ParseExercises decodes workouts/exercises.json, keyed by exercise slug.
func ParseExercises(data []byte) (map[string]model.Exercise, error) {
	var f struct {
		Exercises map[string]model.Exercise `json:"exercises"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode exercises: %w", err)
	}
	if f.Exercises == nil {
		f.Exercises = map[string]model.Exercise{}
	}
	return f.Exercises, nil
}
