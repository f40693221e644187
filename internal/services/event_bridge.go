package services

import (
	"context"

	"github.com/fastygo/caseboard/domain"
	"github.com/fastygo/caseboard/usecase"
)

// EventBridge exposes the processor to use cases as an EventPublisher.
type EventBridge struct {
	processor *EventProcessor
}

func NewEventBridge(processor *EventProcessor) *EventBridge {
	return &EventBridge{processor: processor}
}

func (b *EventBridge) PublishTaskEvent(ctx context.Context, event domain.TaskEvent) error {
	if b.processor == nil {
		return domain.NewError(domain.ErrCodeInternal, "event processor not configured")
	}
	if event.Name == "" || event.TaskID <= 0 {
		return domain.ErrInvalidPayload
	}
	return b.processor.Enqueue(ctx, event)
}

var _ usecase.EventPublisher = (*EventBridge)(nil)
