package task

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/caseboard/domain"
	"github.com/fastygo/caseboard/repository"
	"github.com/fastygo/caseboard/usecase"
	"github.com/fastygo/caseboard/usecase/access"
)

// Ledger appends notes and time entries to tasks. Both logs are append-only;
// a task's total minutes is always folded from the entry log on read.
type Ledger struct {
	tasks  repository.TaskStore
	policy *access.Policy
	events usecase.EventPublisher
	logger *zap.Logger
}

func NewLedger(tasks repository.TaskStore, policy *access.Policy, events usecase.EventPublisher, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		tasks:  tasks,
		policy: policy,
		events: events,
		logger: logger,
	}
}

// LogTime records hours and minutes of work against a task and returns the
// new entry id. Out-of-range values are rejected with a validation error
// after the access check.
func (l *Ledger) LogTime(ctx context.Context, taskID int64, actor domain.Actor, hours, minutes int) (int64, error) {
	if _, err := loadAuthorized(ctx, l.tasks, l.policy, taskID, actor); err != nil {
		return 0, err
	}
	if err := domain.ValidateDuration(hours, minutes); err != nil {
		l.logger.Debug("time entry rejected",
			zap.Int64("task_id", taskID),
			zap.Int("hours", hours),
			zap.Int("minutes", minutes))
		return 0, err
	}

	entry := &domain.TimeEntry{
		TaskID:         taskID,
		LoggedByUserID: actor.UserID,
		Hours:          hours,
		Minutes:        minutes,
	}
	id, err := l.tasks.AddTimeEntry(ctx, entry)
	if err != nil {
		return 0, err
	}

	publishEvent(ctx, l.events, l.logger, domain.NewTaskEvent(domain.EventTaskTimeLogged, taskID, actor, entry))
	return id, nil
}

// AddNote appends a note and returns its id. A blank body appends nothing
// and returns 0 with a nil error.
func (l *Ledger) AddNote(ctx context.Context, taskID int64, actor domain.Actor, body string) (int64, error) {
	if _, err := loadAuthorized(ctx, l.tasks, l.policy, taskID, actor); err != nil {
		return 0, err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return 0, nil
	}

	note := &domain.Note{
		TaskID:       taskID,
		AuthorUserID: actor.UserID,
		Body:         body,
	}
	id, err := l.tasks.AddNote(ctx, note)
	if err != nil {
		return 0, err
	}

	publishEvent(ctx, l.events, l.logger, domain.NewTaskEvent(domain.EventTaskNoteAdded, taskID, actor, note))
	return id, nil
}

// TotalMinutes folds the current entry log of a task.
func (l *Ledger) TotalMinutes(ctx context.Context, taskID int64, actor domain.Actor) (int, error) {
	if _, err := loadAuthorized(ctx, l.tasks, l.policy, taskID, actor); err != nil {
		return 0, err
	}
	entries, err := l.tasks.GetTimeEntries(ctx, taskID)
	if err != nil {
		return 0, err
	}
	return domain.SumMinutes(entries), nil
}
