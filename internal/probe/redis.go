package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hamed0406/resourcewatch/internal/domain"
)

// Redis pings a Redis server.
type Redis struct {
	client *redis.Client
	addr   string
}

type redisOptions struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func NewRedis(opts Options) (Checker, error) {
	var o redisOptions
	if err := opts.Decode(&o); err != nil {
		return nil, err
	}
	ro, err := redis.ParseURL(o.URL)
	if err != nil {
		return nil, fmt.Errorf("url: %w", err)
	}
	if o.Timeout > 0 {
		ro.DialTimeout = o.Timeout
		ro.ReadTimeout = o.Timeout
		ro.WriteTimeout = o.Timeout
	}
	ro.DisableIdentity = true
	return &Redis{client: redis.NewClient(ro), addr: ro.Addr}, nil
}

func (r *Redis) Name() string { return "redis " + r.addr }

func (r *Redis) Check(ctx context.Context) (domain.Result, error) {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return domain.Critical(fmt.Sprintf("ping %s: %v", r.addr, err)), nil
	}
	return domain.OK(), nil
}

func (r *Redis) Close() error { return r.client.Close() }
