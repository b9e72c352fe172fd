package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hamed0406/resourcewatch/internal/repo"
)

var _ repo.LatchStore = (*Store)(nil)

// KeyPrefix namespaces latch hashes: <prefix><slug>.
const KeyPrefix = "resourcewatch:latch:"

// Store keeps each latch in a redis hash with fields notified,
// last_sent_at and updated_at (RFC3339Nano).
type Store struct {
	client *redis.Client
	log    *zap.Logger
}

func New(ctx context.Context, url string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DisableIdentity = true
	client := redis.NewClient(opts)

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	log.Info("latch_store_ready", zap.String("driver", "redis"), zap.String("addr", opts.Addr))
	return &Store{client: client, log: log}, nil
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Get(ctx context.Context, slug string) (*repo.LatchRecord, error) {
	data, err := s.client.HGetAll(ctx, KeyPrefix+slug).Result()
	if err != nil {
		return nil, fmt.Errorf("get latch %s: %w", slug, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return decode(slug, data)
}

func (s *Store) Set(ctx context.Context, slug string, notified bool, sentAt time.Time) error {
	fields := map[string]any{
		"notified":   strconv.FormatBool(notified),
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if !sentAt.IsZero() {
		fields["last_sent_at"] = sentAt.UTC().Format(time.RFC3339Nano)
	}
	if err := s.client.HSet(ctx, KeyPrefix+slug, fields).Err(); err != nil {
		return fmt.Errorf("set latch %s: %w", slug, err)
	}
	return nil
}

func decode(slug string, data map[string]string) (*repo.LatchRecord, error) {
	r := repo.LatchRecord{Slug: slug}
	var err error
	if r.Notified, err = strconv.ParseBool(data["notified"]); err != nil {
		return nil, fmt.Errorf("latch %s: notified: %w", slug, err)
	}
	if v := data["last_sent_at"]; v != "" {
		ts, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("latch %s: last_sent_at: %w", slug, err)
		}
		r.LastSentAt = &ts
	}
	if v := data["updated_at"]; v != "" {
		if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return nil, fmt.Errorf("latch %s: updated_at: %w", slug, err)
		}
	}
	return &r, nil
}
