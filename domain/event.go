package domain

import (
	"encoding/json"
	"time"
)

const (
	EventTaskCreated    = "task.created"
	EventTaskUpdated    = "task.updated"
	EventTaskNoteAdded  = "task.note_added"
	EventTaskTimeLogged = "task.time_logged"
)

// TaskEvent records a change applied to a task, for downstream consumers.
type TaskEvent struct {
	ID        string            `json:"id"`
	TaskID    int64             `json:"task_id"`
	Name      string            `json:"name"`
	ActorID   int64             `json:"actor_id"`
	Payload   json.RawMessage   `json:"payload,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewTaskEvent builds an event, marshalling payload best-effort.
func NewTaskEvent(name string, taskID int64, actor Actor, payload interface{}) TaskEvent {
	ev := TaskEvent{
		TaskID:    taskID,
		Name:      name,
		ActorID:   actor.UserID,
		CreatedAt: time.Now().UTC(),
		Metadata:  map[string]string{"actor_role": string(actor.Role)},
	}
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			ev.Payload = b
		}
	}
	return ev
}
