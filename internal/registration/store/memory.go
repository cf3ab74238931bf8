package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	id "cornerstone/pkg/domain"
	"cornerstone/pkg/platform/sentinel"
)

// InMemoryStore keeps snapshots in a map. It round-trips through JSON on
// save so the in-memory store exercises the same tolerant-decode path as the
// durable ones, which keeps unit tests honest about serializability.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[id.RegistrationID][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{snapshots: make(map[id.RegistrationID][]byte)}
}

func (s *InMemoryStore) Save(_ context.Context, snap Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.RegistrationID] = b
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, registrationID id.RegistrationID) (Snapshot, error) {
	s.mu.RLock()
	b, ok := s.snapshots[registrationID]
	s.mu.RUnlock()
	if !ok {
		return Snapshot{}, sentinel.ErrNotFound
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

func (s *InMemoryStore) Delete(_ context.Context, registrationID id.RegistrationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[registrationID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.snapshots, registrationID)
	return nil
}
