package sessions

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps sessions in process memory. Used when neither Redis
// nor MongoDB is configured, and in tests.
type MemoryRepository struct {
	mu    sync.Mutex
	store map[string]Session
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: map[string]Session{}, now: func() time.Time { return time.Now().UTC() }}
}

func (m *MemoryRepository) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[s.ID] = *s
	return nil
}

func (m *MemoryRepository) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return nil, nil
	}
	if s.expired(m.now()) {
		delete(m.store, id)
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}
