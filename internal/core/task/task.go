// Package task defines the persisted domain model: tasks, projects,
// reminders, repeat rules, and user settings.
package task

// InboxProjectID is the id of the built-in project that always exists and
// that tasks fall back to when their project reference is blank or unknown.
const InboxProjectID = "inbox"

// InboxProjectDefaultName is the display name used when the inbox project
// has to be created.
const InboxProjectDefaultName = "Inbox"

// Step is a single ordered sub-step of a task.
type Step struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Completed   bool   `json:"completed"`
	CreatedAt   int64  `json:"created_at"`
	CompletedAt *int64 `json:"completed_at"`
}

// Task is a single todo item. Timestamps are epoch seconds.
type Task struct {
	ID          string         `json:"id"`
	ProjectID   string         `json:"project_id"`
	Title       string         `json:"title"`
	DueAt       int64          `json:"due_at"`
	Important   bool           `json:"important"`
	Completed   bool           `json:"completed"`
	CompletedAt *int64         `json:"completed_at"`
	CreatedAt   int64          `json:"created_at"`
	UpdatedAt   int64          `json:"updated_at"`
	SortOrder   int64          `json:"sort_order"`
	Quadrant    uint8          `json:"quadrant"`
	Notes       *string        `json:"notes"`
	Steps       []Step         `json:"steps"`
	Tags        []string       `json:"tags"`
	SampleTag   *string        `json:"sample_tag"`
	Reminder    ReminderConfig `json:"reminder"`
	Repeat      RepeatRule     `json:"repeat"`
}

// Clone returns a deep copy of the task. Store getters hand out clones so
// callers can never mutate shared state through a snapshot.
func (t Task) Clone() Task {
	out := t
	out.CompletedAt = cloneInt64(t.CompletedAt)
	out.Notes = cloneString(t.Notes)
	out.SampleTag = cloneString(t.SampleTag)
	out.Reminder = t.Reminder.Clone()
	out.Repeat = t.Repeat.Clone()
	if t.Steps != nil {
		out.Steps = make([]Step, len(t.Steps))
		for i, step := range t.Steps {
			out.Steps[i] = step
			out.Steps[i].CompletedAt = cloneInt64(step.CompletedAt)
		}
	}
	if t.Tags != nil {
		out.Tags = append([]string(nil), t.Tags...)
	}
	return out
}

// Project groups tasks. The "inbox" project is built in, pinned, and never
// deletable.
type Project struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Pinned    bool    `json:"pinned"`
	SortOrder int64   `json:"sort_order"`
	CreatedAt int64   `json:"created_at"`
	UpdatedAt int64   `json:"updated_at"`
	SampleTag *string `json:"sample_tag"`
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	out := p
	out.SampleTag = cloneString(p.SampleTag)
	return out
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
