package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fastygo/caseboard/domain"
	"github.com/fastygo/caseboard/internal/infrastructure/buffer"
)

type fakeChannel struct {
	mu        sync.Mutex
	published []domain.TaskEvent
	fail      bool
}

func (c *fakeChannel) Publish(ctx context.Context, event domain.TaskEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("redis: connection refused")
	}
	c.published = append(c.published, event)
	return nil
}

func (c *fakeChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.published)
}

type staticHealth bool

func (h staticHealth) IsOnline() bool { return bool(h) }

func newProcessor(t *testing.T, channel *fakeChannel, health ConnectionHealth) (*EventProcessor, *buffer.Outbox) {
	t.Helper()
	outbox, err := buffer.Open(filepath.Join(t.TempDir(), "events.db"), "")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { outbox.Close() })
	ep := NewEventProcessor(outbox, channel, health, nil, ProcessorConfig{Interval: time.Minute, MaxRetries: 3})
	return ep, outbox
}

func taskEvent(taskID int64) domain.TaskEvent {
	return domain.NewTaskEvent(domain.EventTaskUpdated, taskID, domain.Actor{UserID: 1, Role: domain.RoleStandard}, nil)
}

func TestEnqueuePublishesWhenOnline(t *testing.T) {
	channel := &fakeChannel{}
	ep, _ := newProcessor(t, channel, staticHealth(true))

	if err := NewEventBridge(ep).PublishTaskEvent(context.Background(), taskEvent(1)); err != nil {
		t.Fatal(err)
	}
	if channel.count() != 1 || ep.Pending() != 0 {
		t.Fatalf("expected direct publish, published=%d pending=%d", channel.count(), ep.Pending())
	}
}

func TestEnqueueBuffersWhenOffline(t *testing.T) {
	channel := &fakeChannel{}
	ep, _ := newProcessor(t, channel, staticHealth(false))
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		if err := ep.Enqueue(ctx, taskEvent(i)); err != nil {
			t.Fatal(err)
		}
	}
	if channel.count() != 0 || ep.Pending() != 3 {
		t.Fatalf("expected 3 buffered events, published=%d pending=%d", channel.count(), ep.Pending())
	}

	// offline drains leave the outbox untouched
	if err := ep.Drain(ctx); err != nil {
		t.Fatal(err)
	}
	if ep.Pending() != 3 {
		t.Fatalf("expected 3 pending after offline drain, got %d", ep.Pending())
	}

	ep.monitor = staticHealth(true)
	if err := ep.Drain(ctx); err != nil {
		t.Fatal(err)
	}
	if channel.count() != 3 || ep.Pending() != 0 {
		t.Fatalf("expected drain to publish all, published=%d pending=%d", channel.count(), ep.Pending())
	}
}

func TestEnqueueFallsBackOnPublishError(t *testing.T) {
	channel := &fakeChannel{fail: true}
	ep, _ := newProcessor(t, channel, staticHealth(true))

	if err := ep.Enqueue(context.Background(), taskEvent(1)); err != nil {
		t.Fatal(err)
	}
	if ep.Pending() != 1 {
		t.Fatalf("expected event in outbox, got %d", ep.Pending())
	}
}

func TestDrainDropsAfterMaxRetries(t *testing.T) {
	channel := &fakeChannel{fail: true}
	ep, outbox := newProcessor(t, channel, staticHealth(true))
	ctx := context.Background()

	if _, err := outbox.Append(buffer.Entry{Event: taskEvent(1)}); err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 2; i++ {
		if err := ep.Drain(ctx); err != nil {
			t.Fatal(err)
		}
		entries, _ := outbox.Peek(10)
		if len(entries) != 1 || entries[0].Attempts != i {
			t.Fatalf("drain %d: expected one entry with %d attempts, got %+v", i, i, entries)
		}
	}

	if err := ep.Drain(ctx); err != nil {
		t.Fatal(err)
	}
	if ep.Pending() != 0 {
		t.Fatalf("expected entry dropped after max retries, pending=%d", ep.Pending())
	}
}

func TestBridgeRejectsIncompleteEvents(t *testing.T) {
	ep, _ := newProcessor(t, &fakeChannel{}, staticHealth(true))
	err := NewEventBridge(ep).PublishTaskEvent(context.Background(), domain.TaskEvent{Name: domain.EventTaskCreated})
	if !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}
