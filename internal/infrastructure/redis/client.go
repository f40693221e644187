package redis

import (
	"context"
	"encoding/json"
	"time"

	goRedis "github.com/redis/go-redis/v9"

	"github.com/fastygo/caseboard/domain"
	"github.com/fastygo/caseboard/internal/config"
)

// NewClient creates a Redis client and performs a health check.
func NewClient(cfg config.RedisConfig) (*goRedis.Client, error) {
	opts, err := goRedis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	client := goRedis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// EventChannel publishes task events as JSON on a pub/sub channel.
type EventChannel struct {
	client  *goRedis.Client
	channel string
}

func NewEventChannel(client *goRedis.Client, channel string) *EventChannel {
	if channel == "" {
		channel = "caseboard.task_events"
	}
	return &EventChannel{client: client, channel: channel}
}

func (c *EventChannel) Publish(ctx context.Context, event domain.TaskEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, c.channel, payload).Err()
}
