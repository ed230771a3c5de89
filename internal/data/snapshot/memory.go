package snapshot

import (
	"bytes"
	"context"
	"sync"
)

// MemoryStore keeps snapshots in process memory. Used by tests and the memory driver.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Write(_ context.Context, name string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = bytes.Clone(payload)
	return nil
}

func (s *MemoryStore) Read(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.data[name]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(payload), nil
}

// Names returns the names written so far.
func (s *MemoryStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	return names
}
