package usecase

import (
	"context"

	"github.com/fastygo/caseboard/domain"
)

// EventPublisher abstracts the event outbox so use cases stay storage-agnostic.
// Publishing is best-effort: a failure never undoes the write that produced
// the event.
type EventPublisher interface {
	PublishTaskEvent(ctx context.Context, event domain.TaskEvent) error
}
