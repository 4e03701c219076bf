package model

// Records derived from the flat-file logs. The JSON tags are the HTTP wire
// shape; the gorm tags are the store shape. The store is a cache of the
// files and can be rebuilt at any time.

type TimeEntry struct {
	ID          string   `gorm:"primaryKey;size:191" json:"id"`
	Start       string   `gorm:"size:64;not null" json:"start"`
	End         *string  `gorm:"size:64" json:"end"`
	Activity    string   `gorm:"type:text;not null" json:"activity"`
	Category    string   `gorm:"size:64;not null;index:idx_time_entries_category" json:"category"`
	DurationMin *float64 `json:"durationMin"`
	Tags        []string `gorm:"type:text;serializer:json" json:"tags"`
	Source      *string  `gorm:"size:64" json:"source,omitempty"`
	// Date is the day key of the file the entry came from, not the day of Start.
	Date string `gorm:"size:10;not null;index:idx_time_entries_date" json:"date"`
}

type IdeaStatus string

const (
	IdeaNew       IdeaStatus = "new"
	IdeaExploring IdeaStatus = "exploring"
	IdeaBuilding  IdeaStatus = "building"
	IdeaDone      IdeaStatus = "done"
	IdeaArchived  IdeaStatus = "archived"
)

type Idea struct {
	ID        string     `gorm:"primaryKey;size:191" json:"id"`
	Timestamp string     `gorm:"size:64;not null" json:"timestamp"`
	Idea      string     `gorm:"type:text;not null" json:"idea"`
	Tags      []string   `gorm:"type:text;serializer:json" json:"tags"`
	Context   *string    `gorm:"type:text" json:"context,omitempty"`
	Status    IdeaStatus `gorm:"size:32;not null;default:new;index:idx_ideas_status" json:"status"`
	Related   []string   `gorm:"-" json:"related,omitempty"`
	Source    *string    `gorm:"size:64" json:"source,omitempty"`
	Priority  *string    `gorm:"size:32" json:"priority,omitempty"`
}

type TodoStatus string

const (
	TodoOpen       TodoStatus = "todo"
	TodoInProgress TodoStatus = "in_progress"
	TodoDone       TodoStatus = "done"
	TodoBlocked    TodoStatus = "blocked"
)

// TodoSource names the markdown file (and grammar) a todo was parsed from.
type TodoSource string

const (
	SourceActive    TodoSource = "active"
	SourceInbox     TodoSource = "inbox"
	SourceCompleted TodoSource = "completed"
	SourceSomeday   TodoSource = "someday"
)

type TodoPriority string

const (
	PriorityUrgent TodoPriority = "urgent"
	PriorityHigh   TodoPriority = "high"
	PriorityNormal TodoPriority = "normal"
	PriorityLow    TodoPriority = "low"
)

// Todo ids are random per parse. Two parses of the same file never agree on
// ids, which is why the todos table is always replaced wholesale.
type Todo struct {
	ID            string       `gorm:"primaryKey;size:191" json:"id"`
	Title         string       `gorm:"type:text;not null" json:"title"`
	Description   string       `gorm:"type:text" json:"description,omitempty"`
	Status        TodoStatus   `gorm:"size:32;not null;default:todo;index:idx_todos_status" json:"status"`
	Source        TodoSource   `gorm:"size:32;not null;index:idx_todos_source" json:"source"`
	Tags          []string     `gorm:"type:text;serializer:json" json:"tags"`
	DueDate       string       `gorm:"size:64" json:"dueDate,omitempty"`
	Priority      TodoPriority `gorm:"size:16;not null;default:normal" json:"priority"`
	Assignee      string       `gorm:"size:64" json:"assignee,omitempty"`
	CompletedDate string       `gorm:"size:10" json:"completedDate,omitempty"`
	Section       string       `gorm:"type:text" json:"section,omitempty"`
}

type WorkoutSet struct {
	Reps        *int     `json:"reps,omitempty"`
	WeightKg    *float64 `json:"weight_kg,omitempty"`
	DurationMin *float64 `json:"duration_min,omitempty"`
	Note        string   `json:"note,omitempty"`
}

type WorkoutEntry struct {
	Exercise  string       `json:"exercise"`
	Sets      []WorkoutSet `json:"sets"`
	Timestamp string       `json:"timestamp,omitempty"`
	Note      string       `json:"note,omitempty"`
}

type WorkoutDay struct {
	ID             string         `gorm:"primaryKey;size:191" json:"id"`
	Date           string         `gorm:"size:10;not null" json:"date"`
	WorkoutStart   *string        `gorm:"size:64" json:"workout_start,omitempty"`
	Entries        []WorkoutEntry `gorm:"type:text;serializer:json;not null" json:"entries"`
	TotalExercises int            `gorm:"default:0" json:"totalExercises"`
	TotalSets      int            `gorm:"default:0" json:"totalSets"`
}

type WhoopDay struct {
	Date     string   `gorm:"primaryKey;size:10" json:"date"`
	Recovery *float64 `json:"recovery"`
	Strain   *float64 `json:"strain"`
	Sleep    *float64 `json:"sleep"`
	Workouts []any    `gorm:"type:text;serializer:json" json:"workouts"`
	Note     *string  `gorm:"type:text" json:"note,omitempty"`
}

func (TimeEntry) TableName() string  { return "time_entries" }
func (Idea) TableName() string       { return "ideas" }
func (Todo) TableName() string       { return "todos" }
func (WorkoutDay) TableName() string { return "workout_sessions" }
func (WhoopDay) TableName() string   { return "whoop_days" }

// All returns every stored model, in migration order.
func All() []any {
	return []any{&TimeEntry{}, &Idea{}, &Todo{}, &WorkoutDay{}, &WhoopDay{}}
}
