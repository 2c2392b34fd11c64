package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps the latest snapshot per location in memory. It is safe
// for concurrent use by multiple goroutines.
//
// The default for single-instance deployments; use RedisStore when the
// snapshot must survive restarts or be shared across instances.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

// NewMemoryStore creates an empty in-memory snapshot store, ready to use.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]Snapshot),
	}
}

// Put stores a snapshot for a location, replacing any existing one.
// Returns an error if the snapshot's Location field is empty or the context
// is canceled.
func (s *MemoryStore) Put(ctx context.Context, snapshot Snapshot) error {
	if snapshot.Location == "" {
		return fmt.Errorf("snapshot location cannot be empty")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[snapshot.Location] = snapshot
	return nil
}

// GetLatest retrieves the most recent snapshot for a location. found is
// false when no snapshot exists for it.
func (s *MemoryStore) GetLatest(ctx context.Context, location string) (Snapshot, bool, error) {
	select {
	case <-ctx.Done():
		return Snapshot{}, false, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, found := s.snapshots[location]
	return snapshot, found, nil
}

// Len returns the number of snapshots currently stored. Primarily useful
// for tests.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}
