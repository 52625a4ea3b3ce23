package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/voicetask/internal/task"
)

// MemoryStore is an in-process task.Store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]task.Record
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]task.Record),
		now:     time.Now,
	}
}

// Create stores d for userID and returns the record.
func (m *MemoryStore) Create(ctx context.Context, userID string, d task.Draft) (task.Record, error) {
	if err := ctx.Err(); err != nil {
		return task.Record{}, err
	}
	if userID == "" {
		return task.Record{}, ErrMissingUser
	}

	rec := task.Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: m.now().UTC(),
		Draft:     copyDraft(d),
	}

	m.mu.Lock()
	m.records[rec.ID] = rec
	m.mu.Unlock()
	return rec, nil
}

// Get returns the record with id or ErrNotFound.
func (m *MemoryStore) Get(ctx context.Context, id string) (task.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return task.Record{}, ErrNotFound
	}
	return rec, nil
}

// List returns up to limit records for userID, newest first. A limit of
// zero or less returns everything.
func (m *MemoryStore) List(ctx context.Context, userID string, limit int) ([]task.Record, error) {
	m.mu.RLock()
	out := make([]task.Record, 0)
	for _, rec := range m.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func copyDraft(d task.Draft) task.Draft {
	if d.DueDate != nil {
		due := *d.DueDate
		d.DueDate = &due
	}
	return d
}
