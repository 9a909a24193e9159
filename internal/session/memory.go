package session

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory. Sessions do not survive a
// restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (m *MemoryStore) Init(context.Context) error {
	return nil
}

func (m *MemoryStore) Read(_ context.Context, sid string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records[sid], nil
}

func (m *MemoryStore) Write(_ context.Context, sid string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[sid] = rec
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, sid)
	return nil
}
