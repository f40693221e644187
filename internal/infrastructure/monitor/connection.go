package monitor

import (
	"context"
	"sync"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StorePinger is satisfied by the postgres pool and the sqlite store adapters.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// StorePingFunc adapts a function to StorePinger.
type StorePingFunc func(ctx context.Context) error

func (f StorePingFunc) Ping(ctx context.Context) error { return f(ctx) }

// OutboxSizer reports the number of pending outbox entries.
type OutboxSizer interface {
	Size() (int, error)
}

type Monitor struct {
	driver string
	store  StorePinger
	redis  *redislib.Client
	outbox OutboxSizer

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(driver string, store StorePinger, redis *redislib.Client, outbox OutboxSizer, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if driver == "" {
		driver = "store"
	}
	return &Monitor{
		driver:   driver,
		store:    store,
		redis:    redis,
		outbox:   outbox,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
		status:   Status{StoreDriver: driver},
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether the event channel can be reached.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Redis
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh()
	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh probes every dependency once and stores the result.
func (m *Monitor) Refresh() {
	outboxOK, outboxSize := m.checkOutbox()
	status := Status{
		StoreDriver: m.driver,
		Store:       m.checkStore(),
		Redis:       m.checkRedis(),
		Outbox:      outboxOK,
		OutboxSize:  outboxSize,
		LastCheck:   time.Now(),
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if previous.Store != status.Store && !previous.LastCheck.IsZero() {
		m.logger.Warn("task store availability changed", zap.String("driver", m.driver), zap.Bool("online", status.Store))
	}
	if previous.Redis != status.Redis && !previous.LastCheck.IsZero() {
		m.logger.Warn("redis availability changed", zap.Bool("online", status.Redis))
	}
}

func (m *Monitor) checkStore() bool {
	if m.store == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return m.store.Ping(ctx) == nil
}

func (m *Monitor) checkRedis() bool {
	if m.redis == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return m.redis.Ping(ctx).Err() == nil
}

func (m *Monitor) checkOutbox() (bool, int) {
	if m.outbox == nil {
		return false, 0
	}
	size, err := m.outbox.Size()
	if err != nil {
		m.logger.Warn("outbox size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
