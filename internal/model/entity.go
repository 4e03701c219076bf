package model

// File-only and derived shapes. None of these are stored.

type MemorySection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Time    string `json:"time,omitempty"`
}

type MemoryEntry struct {
	Date     string          `json:"date"`
	Content  string          `json:"content"`
	Sections []MemorySection `json:"sections"`
}

type CurrentEntry struct {
	ID       string   `json:"id"`
	Start    string   `json:"start"`
	Activity string   `json:"activity"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

type FocusMode struct {
	Active bool `json:"active"`
}

// TimeTrackerState mirrors timetracking/state.json.
type TimeTrackerState struct {
	SchemaVersion int           `json:"schemaVersion"`
	CurrentEntry  *CurrentEntry `json:"currentEntry"`
	LastPing      string        `json:"lastPing"`
	FocusMode     FocusMode     `json:"focusMode"`
	Timezone      string        `json:"timezone"`
}

type AgentState string

const (
	AgentActive   AgentState = "active"
	AgentBusy     AgentState = "busy"
	AgentIdle     AgentState = "idle"
	AgentSleeping AgentState = "sleeping"
)

type AgentStatus struct {
	State           AgentState `json:"state"`
	CurrentActivity *string    `json:"currentActivity"`
	LastAction      *string    `json:"lastAction"`
	SessionCount    int        `json:"sessionCount"`
}

type Exercise struct {
	Name      string   `json:"name"`
	Muscles   []string `json:"muscles"`
	Type      string   `json:"type"`
	Equipment string   `json:"equipment"`
}

type TimeStats struct {
	TotalMinutes  float64            `json:"totalMinutes"`
	ByCategory    map[string]float64 `json:"byCategory"`
	ByDay         map[string]float64 `json:"byDay"`
	Today         TodayStats         `json:"today"`
	FocusSessions int                `json:"focusSessions"`
	BreakMinutes  float64            `json:"breakMinutes"`
	TotalDays     int                `json:"totalDays"`
}

type TodayStats struct {
	Minutes    float64            `json:"minutes"`
	ByCategory map[string]float64 `json:"byCategory"`
	Entries    []TimeEntry        `json:"entries"`
}

type WorkoutStats struct {
	TotalSessions  int `json:"totalSessions"`
	TotalExercises int `json:"totalExercises"`
	TotalSets      int `json:"totalSets"`
}
