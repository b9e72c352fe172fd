package repo

import (
	"context"
	"time"
)

// LatchRecord is the persisted notification latch of one resource.
// Notified is true while an unhealthy episode has already been reported;
// LastSentAt is when that notification went out.
type LatchRecord struct {
	Slug       string
	Notified   bool
	LastSentAt *time.Time
	UpdatedAt  time.Time
}

// LatchStore is implemented by a persistence layer to keep latches across restarts.
type LatchStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, slug string) (*LatchRecord, error)
	// Set upserts the record. If sentAt.IsZero() the previous LastSentAt is kept.
	Set(ctx context.Context, slug string, notified bool, sentAt time.Time) error
}
