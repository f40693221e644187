package monitor

import (
	"context"
	"errors"
	"testing"
)

type fixedSize struct {
	n   int
	err error
}

func (f fixedSize) Size() (int, error) { return f.n, f.err }

func TestRefreshReportsStore(t *testing.T) {
	healthy := StorePingFunc(func(ctx context.Context) error { return nil })
	m := New("sqlite", healthy, nil, fixedSize{n: 4}, 0, nil)
	m.Refresh()

	status := m.GetStatus()
	if !status.Store || status.StoreDriver != "sqlite" {
		t.Fatalf("expected healthy sqlite store, got %+v", status)
	}
	if !status.Outbox || status.OutboxSize != 4 {
		t.Fatalf("expected outbox with 4 pending, got %+v", status)
	}
	if status.Redis || m.IsOnline() {
		t.Fatal("redis is not configured and must report offline")
	}
}

func TestRefreshReportsFailures(t *testing.T) {
	down := StorePingFunc(func(ctx context.Context) error { return errors.New("connection refused") })
	m := New("postgres", down, nil, fixedSize{err: errors.New("database not open")}, 0, nil)
	m.Refresh()

	status := m.GetStatus()
	if status.Store || status.Outbox {
		t.Fatalf("expected failures, got %+v", status)
	}
	if status.LastCheck.IsZero() {
		t.Fatal("expected LastCheck to be set")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	m := New("sqlite", nil, nil, nil, 0, nil)
	m.Start()
	m.Stop()
	m.Stop()
}
