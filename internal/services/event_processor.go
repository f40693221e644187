package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/caseboard/domain"
	"github.com/fastygo/caseboard/internal/infrastructure/buffer"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// EventChannel is the downstream sink for task events.
type EventChannel interface {
	Publish(ctx context.Context, event domain.TaskEvent) error
}

// ProcessorConfig controls how frequently the outbox is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// EventProcessor moves task events from the bbolt outbox to the event channel.
type EventProcessor struct {
	outbox  *buffer.Outbox
	channel EventChannel
	monitor ConnectionHealth
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
}

func NewEventProcessor(
	outbox *buffer.Outbox,
	channel EventChannel,
	monitor ConnectionHealth,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *EventProcessor {
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ep := &EventProcessor{
		outbox:  outbox,
		channel: channel,
		monitor: monitor,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := ep.cron.AddFunc(schedule, ep.tick); err != nil {
		logger.Error("invalid outbox drain schedule", zap.String("schedule", schedule), zap.Error(err))
	}
	return ep
}

func (ep *EventProcessor) Start() {
	if ep == nil || ep.cron == nil {
		return
	}
	ep.cron.Start()
	ep.logger.Info("event processor started", zap.Duration("interval", ep.cfg.Interval))
}

func (ep *EventProcessor) Stop(ctx context.Context) {
	if ep == nil || ep.cron == nil {
		return
	}
	stopCtx := ep.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	ep.logger.Info("event processor stopped")
}

func (ep *EventProcessor) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), ep.cfg.Interval)
	defer cancel()
	if err := ep.Drain(ctx); err != nil {
		ep.logger.Error("outbox drain failed", zap.Error(err))
	}
}

// Drain publishes one batch of pending events. Failed events are retried on
// a later drain until MaxRetries, then dropped.
func (ep *EventProcessor) Drain(ctx context.Context) error {
	if ep == nil || ep.outbox == nil {
		return nil
	}
	if removed, err := ep.outbox.Prune(time.Now().Add(-ep.cfg.Retention)); err != nil {
		ep.logger.Warn("outbox prune failed", zap.Error(err))
	} else if removed > 0 {
		ep.logger.Warn("expired events pruned from outbox", zap.Int("count", removed))
	}
	if !ep.online() {
		ep.logger.Debug("skipping outbox drain (offline)")
		return nil
	}

	entries, err := ep.outbox.Peek(ep.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := ep.channel.Publish(ctx, entry.Event); err != nil {
			ep.logger.Error("failed to publish task event",
				zap.String("event_id", entry.ID),
				zap.String("event", entry.Event.Name),
				zap.Int64("task_id", entry.Event.TaskID),
				zap.Error(err))

			if entry.Attempts+1 >= ep.cfg.MaxRetries {
				ep.logger.Warn("dropping task event (max retries reached)", zap.String("event_id", entry.ID))
				if err := ep.outbox.Ack(entry); err != nil {
					ep.logger.Warn("failed to drop task event", zap.Error(err))
				}
				continue
			}
			if err := ep.outbox.Retry(entry); err != nil {
				ep.logger.Error("failed to requeue task event", zap.Error(err))
			}
			continue
		}

		if err := ep.outbox.Ack(entry); err != nil {
			ep.logger.Warn("failed to ack published task event", zap.Error(err))
		}
	}
	return nil
}

// Enqueue tries to publish immediately and falls back to the outbox.
func (ep *EventProcessor) Enqueue(ctx context.Context, event domain.TaskEvent) error {
	if ep == nil || ep.outbox == nil {
		return fmt.Errorf("event processor not configured")
	}

	if ep.online() && ep.channel != nil {
		err := ep.channel.Publish(ctx, event)
		if err == nil {
			return nil
		}
		ep.logger.Warn("immediate publish failed, queueing", zap.String("event", event.Name), zap.Error(err))
	}
	_, err := ep.outbox.Append(buffer.Entry{Event: event})
	return err
}

// Pending returns the number of queued events.
func (ep *EventProcessor) Pending() int {
	if ep == nil || ep.outbox == nil {
		return 0
	}
	size, err := ep.outbox.Size()
	if err != nil {
		return 0
	}
	return size
}

func (ep *EventProcessor) online() bool {
	return ep.channel != nil && (ep.monitor == nil || ep.monitor.IsOnline())
}
