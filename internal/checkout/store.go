package checkout

import (
	"context"
	"sync"
)

// Store persists each visitor's checkout mirror so a restart can resume it.
type Store interface {
	Load(ctx context.Context, visitorID string) (Snapshot, bool, error)
	Save(ctx context.Context, visitorID string, snap Snapshot) error
	Delete(ctx context.Context, visitorID string) error
}

// MemoryStore is used for tests and when no database is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]Snapshot)}
}

func (m *MemoryStore) Load(_ context.Context, visitorID string) (Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snaps[visitorID]
	return s, ok, nil
}

func (m *MemoryStore) Save(_ context.Context, visitorID string, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[visitorID] = snap
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, visitorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, visitorID)
	return nil
}
