package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/resourcewatch/internal/repo"
)

var _ repo.LatchStore = (*Store)(nil)

// Schema creates the latches table; New applies it.
const Schema = `
CREATE TABLE IF NOT EXISTS latches (
  slug         TEXT PRIMARY KEY,
  notified     BOOLEAN NOT NULL,
  last_sent_at TIMESTAMPTZ NULL,
  updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	log.Info("latch_store_ready", zap.String("driver", "postgres"))
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Get(ctx context.Context, slug string) (*repo.LatchRecord, error) {
	const q = `SELECT notified, last_sent_at, updated_at FROM latches WHERE slug=$1`
	r := repo.LatchRecord{Slug: slug}
	err := s.pool.QueryRow(ctx, q, slug).Scan(&r.Notified, &r.LastSentAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latch %s: %w", slug, err)
	}
	return &r, nil
}

func (s *Store) Set(ctx context.Context, slug string, notified bool, sentAt time.Time) error {
	const q = `
		INSERT INTO latches (slug, notified, last_sent_at, updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (slug)
		DO UPDATE SET notified=EXCLUDED.notified,
		              last_sent_at=COALESCE(EXCLUDED.last_sent_at, latches.last_sent_at),
		              updated_at=now()
	`
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	if _, err := s.pool.Exec(ctx, q, slug, notified, ts); err != nil {
		return fmt.Errorf("set latch %s: %w", slug, err)
	}
	return nil
}
