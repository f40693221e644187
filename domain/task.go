package domain

import (
	"strings"
	"time"
)

// Contact holds the client details a task was opened for.
type Contact struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Telephone *string `json:"telephone,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// Task is a unit of casework assigned to a user or to a pool.
// TotalMinutes is derived from the time entry log whenever the task is read.
type Task struct {
	ID              int64     `json:"id"`
	IsUrgent        bool      `json:"is_urgent"`
	Contact         Contact   `json:"contact"`
	Description     string    `json:"description"`
	Deadline        time.Time `json:"deadline"`
	AssignedUserID  *int64    `json:"assigned_user_id,omitempty"`
	AssignedPoolID  *int64    `json:"assigned_pool_id,omitempty"`
	CreatedByUserID int64     `json:"created_by_user_id"`
	TotalMinutes    int       `json:"total_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsAssignedToUser reports a direct assignment to userID.
func (t *Task) IsAssignedToUser(userID int64) bool {
	return t != nil && t.AssignedUserID != nil && *t.AssignedUserID == userID
}

// Assign overwrites both assignment columns from a validated target.
func (t *Task) Assign(a Assignment) {
	t.AssignedUserID, t.AssignedPoolID = a.columns()
}

// AssigneeKind discriminates Assignment.
type AssigneeKind string

const (
	AssigneeUser AssigneeKind = "user"
	AssigneePool AssigneeKind = "pool"
)

// Assignment is either User(id) or Pool(id), never both and never neither.
type Assignment struct {
	Kind AssigneeKind `json:"kind"`
	ID   int64        `json:"id"`
}

func AssignToUser(id int64) Assignment { return Assignment{Kind: AssigneeUser, ID: id} }
func AssignToPool(id int64) Assignment { return Assignment{Kind: AssigneePool, ID: id} }

// NewAssignment folds the two optional wire fields into a single target.
func NewAssignment(userID, poolID *int64) (Assignment, error) {
	switch {
	case userID == nil && poolID == nil:
		return Assignment{}, ErrAssignmentRequired
	case userID != nil && poolID != nil:
		return Assignment{}, ErrAssignmentConflict
	case userID != nil:
		return AssignToUser(*userID), nil
	default:
		return AssignToPool(*poolID), nil
	}
}

func (a Assignment) columns() (*int64, *int64) {
	id := a.ID
	if a.Kind == AssigneePool {
		return nil, &id
	}
	return &id, nil
}

// TaskInput carries the editable fields of a task. It is used for both
// creation and full-field replacement. DeadlineText, when set, is parsed by
// Validate and takes precedence over Deadline.
type TaskInput struct {
	ID             int64
	IsUrgent       bool
	Contact        Contact
	Description    string
	Deadline       time.Time
	DeadlineText   string
	AssignedUserID *int64
	AssignedPoolID *int64
}

// deadlineLayouts are tried in order; the date-only form means midnight UTC.
var deadlineLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// ParseDeadline accepts RFC3339, YYYY-MM-DDTHH:MM or YYYY-MM-DD. Blank input
// yields the zero time.
func ParseDeadline(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ValidationError("deadline must be RFC3339 or YYYY-MM-DD")
}

// Normalize trims free text and drops blank optional fields.
func (in *TaskInput) Normalize() {
	in.Contact.Name = strings.TrimSpace(in.Contact.Name)
	in.Contact.Email = strings.TrimSpace(in.Contact.Email)
	in.Contact.Telephone = trimOptional(in.Contact.Telephone)
	in.Contact.Notes = trimOptional(in.Contact.Notes)
	in.Description = strings.TrimSpace(in.Description)
}

// Validate resolves DeadlineText, checks required fields and returns the
// assignment target.
func (in *TaskInput) Validate() (Assignment, error) {
	if in.DeadlineText != "" {
		deadline, err := ParseDeadline(in.DeadlineText)
		if err != nil {
			return Assignment{}, err
		}
		in.Deadline = deadline
		in.DeadlineText = ""
	}
	if in.Contact.Name == "" {
		return Assignment{}, ValidationError("contact name is required")
	}
	if in.Contact.Email == "" || !strings.Contains(in.Contact.Email, "@") {
		return Assignment{}, ValidationError("a valid contact email is required")
	}
	if in.Description == "" {
		return Assignment{}, ValidationError("task description is required")
	}
	if in.Deadline.IsZero() {
		return Assignment{}, ValidationError("task deadline is required")
	}
	return NewAssignment(in.AssignedUserID, in.AssignedPoolID)
}

// Apply copies the editable fields onto t.
func (in TaskInput) Apply(t *Task, target Assignment) {
	t.IsUrgent = in.IsUrgent
	t.Contact = in.Contact
	t.Description = in.Description
	t.Deadline = in.Deadline.UTC()
	t.Assign(target)
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

// Note is an append-only comment on a task.
type Note struct {
	ID           int64     `json:"id"`
	TaskID       int64     `json:"task_id"`
	AuthorUserID int64     `json:"author_user_id"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
}

// TimeEntry is an append-only record of work logged against a task.
type TimeEntry struct {
	ID             int64     `json:"id"`
	TaskID         int64     `json:"task_id"`
	LoggedByUserID int64     `json:"logged_by_user_id"`
	Hours          int       `json:"hours"`
	Minutes        int       `json:"minutes"`
	CreatedAt      time.Time `json:"created_at"`
}

func (e TimeEntry) TotalMinutes() int {
	return e.Hours*60 + e.Minutes
}

// MaxEntryHours caps a single time entry so folded totals stay far from
// integer overflow in the stores.
const MaxEntryHours = 999

// ValidateDuration enforces hours in [0, MaxEntryHours] and minutes in [0, 59].
func ValidateDuration(hours, minutes int) error {
	if hours < 0 || hours > MaxEntryHours {
		return ErrHoursOutOfRange
	}
	if minutes < 0 || minutes > 59 {
		return ErrMinutesOutOfRange
	}
	return nil
}

// SumMinutes folds a time entry log into its total.
func SumMinutes(entries []TimeEntry) int {
	total := 0
	for _, e := range entries {
		total += e.TotalMinutes()
	}
	return total
}

// Dashboard partitions the tasks visible to an actor.
// Elevated actors get AllTasks only; everyone else gets the two
// partitions, which are never merged or de-duplicated.
type Dashboard struct {
	CanViewAllTasks bool   `json:"can_view_all_tasks"`
	AllTasks        []Task `json:"all_tasks"`
	AssignedTasks   []Task `json:"assigned_tasks"`
	PoolTasks       []Task `json:"pool_tasks"`
}

// TaskDetails is the full view of a single task.
type TaskDetails struct {
	Task         Task        `json:"task"`
	Notes        []Note      `json:"notes"`
	TimeEntries  []TimeEntry `json:"time_entries"`
	TotalMinutes int         `json:"total_minutes"`
}
