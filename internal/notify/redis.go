package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis publishes notifications on a pub/sub channel.
type Redis struct {
	name    string
	client  *redis.Client
	channel string
}

func NewRedis(name, url, channel string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis channel %s: %w", name, err)
	}
	opts.DisableIdentity = true
	if channel == "" {
		channel = "resourcewatch:notifications"
	}
	return &Redis{name: name, client: redis.NewClient(opts), channel: channel}, nil
}

func (r *Redis) Name() string { return r.name }

func (r *Redis) Deliver(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

func (r *Redis) Close() error { return r.client.Close() }
