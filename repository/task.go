package repository

import (
	"context"

	"github.com/fastygo/caseboard/domain"
)

// TaskStore persists tasks together with their notes and time entries.
// Every task it returns carries TotalMinutes computed from the entry log
// at read time. Lookups of a missing task return domain.ErrTaskNotFound.
type TaskStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	GetAll(ctx context.Context) ([]domain.Task, error)
	GetAssignedToUser(ctx context.Context, userID int64) ([]domain.Task, error)
	GetAssignedToPools(ctx context.Context, userID int64) ([]domain.Task, error)
	Insert(ctx context.Context, task *domain.Task) (int64, error)
	Update(ctx context.Context, task *domain.Task) error

	AddNote(ctx context.Context, note *domain.Note) (int64, error)
	GetNotes(ctx context.Context, taskID int64) ([]domain.Note, error)
	AddTimeEntry(ctx context.Context, entry *domain.TimeEntry) (int64, error)
	GetTimeEntries(ctx context.Context, taskID int64) ([]domain.TimeEntry, error)
}
