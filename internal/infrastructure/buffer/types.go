package buffer

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/caseboard/domain"
)

// Priorities order the drain: lower values are published first.
const (
	PriorityHigh   = 1
	PriorityNormal = 3
	PriorityLow    = 5
)

// Entry is a task event waiting to be published.
type Entry struct {
	ID       string           `json:"id"`
	Event    domain.TaskEvent `json:"event"`
	Priority int              `json:"priority"`
	Attempts int              `json:"attempts"`
	QueuedAt time.Time        `json:"queued_at"`

	key []byte
}

// PriorityFor publishes creations first so subscribers see a task before its
// activity.
func PriorityFor(eventName string) int {
	switch eventName {
	case domain.EventTaskCreated:
		return PriorityHigh
	case domain.EventTaskUpdated:
		return PriorityNormal
	default:
		return PriorityLow
	}
}

func (e *Entry) normalize() {
	if e.Event.ID == "" {
		e.Event.ID = uuid.NewString()
	}
	if e.ID == "" {
		e.ID = e.Event.ID
	}
	if e.Priority < PriorityHigh || e.Priority > PriorityLow {
		e.Priority = PriorityFor(e.Event.Name)
	}
	if e.QueuedAt.IsZero() {
		e.QueuedAt = time.Now().UTC()
	}
}
