package store

import (
	"context"
	"sync"
)

// InMemoryStore is a NoteStore backed by a process-local buffer, used
// by tests and the demonstration binary where persistence across
// restarts isn't needed. Snapshots are held in their serialized form so
// a caller mutating the snapshot after Save cannot reach the stored
// copy.
type InMemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Save(ctx context.Context, snapshot *Snapshot) error {
	data, err := marshalSnapshot(snapshot)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}

func (s *InMemoryStore) Load(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	data := s.data
	s.mu.Unlock()
	if data == nil {
		return nil, nil
	}
	snapshot, err := unmarshalSnapshot(data)
	if err != nil {
		return nil, nil
	}
	return snapshot, nil
}
