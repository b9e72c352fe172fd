package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hamed0406/resourcewatch/internal/repo"
)

var _ repo.LatchStore = (*Store)(nil)

// Store keeps latches in process memory; they are lost on restart.
type Store struct {
	mu      sync.RWMutex
	latches map[string]repo.LatchRecord
}

func New() *Store {
	return &Store{latches: make(map[string]repo.LatchRecord)}
}

func (m *Store) Get(ctx context.Context, slug string) (*repo.LatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.latches[slug]
	if !ok {
		return nil, nil
	}
	if r.LastSentAt != nil {
		ts := *r.LastSentAt
		r.LastSentAt = &ts
	}
	return &r, nil
}

func (m *Store) Set(ctx context.Context, slug string, notified bool, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.latches[slug]
	r.Slug = slug
	r.Notified = notified
	if !sentAt.IsZero() {
		ts := sentAt
		r.LastSentAt = &ts
	}
	r.UpdatedAt = time.Now().UTC()
	m.latches[slug] = r
	return nil
}
