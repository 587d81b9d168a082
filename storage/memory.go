package storage

import (
	"context"
	"sync"

	"github.com/snapbin/snapbin/models"
)

// MemoryStore implements PasteStore with an in-process map. It backs the
// "memory" backend for local runs and the hermetic tests. The mutex plays
// the role the store-side serialization plays for the networked backends:
// each primitive executes indivisibly with respect to every other caller.
type MemoryStore struct {
	mu     sync.Mutex
	pastes map[string]*models.Paste
}

// NewMemoryStore creates an empty in-memory storage backend.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pastes: make(map[string]*models.Paste),
	}
}

// Put saves a copy of the paste under its id.
func (m *MemoryStore) Put(_ context.Context, paste *models.Paste) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pastes[paste.ID] = clonePaste(paste)
	return nil
}

// Get retrieves a copy of the paste, or (nil, nil) when absent.
func (m *MemoryStore) Get(_ context.Context, id string) (*models.Paste, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pastes[id]
	if !ok {
		return nil, nil
	}
	return clonePaste(p), nil
}

// IncrViews atomically adds delta to the remaining-views counter and returns
// the new value. Like Redis HINCRBY, incrementing an absent record creates a
// counter-only stub, so the result is delta; the consume protocol's cleanup
// path removes such stubs again.
func (m *MemoryStore) IncrViews(_ context.Context, id string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pastes[id]
	if !ok {
		p = &models.Paste{ID: id}
		m.pastes[id] = p
	}
	var current int64
	if p.RemainingViews != nil {
		current = *p.RemainingViews
	}
	current += delta
	p.RemainingViews = &current
	return current, nil
}

// Delete removes the paste. Absent ids are a no-op.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pastes, id)
	return nil
}

// Ping always succeeds for the in-memory backend.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory backend.
func (m *MemoryStore) Close() error {
	return nil
}

// Len reports the number of stored records. Test helper.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pastes)
}

func clonePaste(p *models.Paste) *models.Paste {
	c := *p
	if p.ExpiresAt != nil {
		v := *p.ExpiresAt
		c.ExpiresAt = &v
	}
	if p.MaxViews != nil {
		v := *p.MaxViews
		c.MaxViews = &v
	}
	if p.RemainingViews != nil {
		v := *p.RemainingViews
		c.RemainingViews = &v
	}
	return &c
}
