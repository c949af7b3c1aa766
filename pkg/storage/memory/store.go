// Package memory provides an in-memory EntryStore implementation.
//
// It is intended for tests, examples, and single-process deployments that do
// not need durability. All data is lost when the process exits.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/loamlabs/recall-go/pkg/storage"
)

// Store implements storage.EntryStore with an in-process map.
//
// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*storage.Entry
	closed  bool
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*storage.Entry),
	}
}

// ReadAll returns every entry belonging to ownerID, ordered by creation time.
func (s *Store) ReadAll(ctx context.Context, ownerID string) ([]*storage.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*storage.Entry
	for _, e := range s.entries {
		if e.OwnerID != ownerID {
			continue
		}
		cp := *e
		cp.Topics = append([]string(nil), e.Topics...)
		cp.ApplyDefaults()
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

// Write persists an entry, replacing any existing entry with the same ID.
func (s *Store) Write(ctx context.Context, entry *storage.Entry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	cp.Topics = append([]string(nil), entry.Topics...)
	s.entries[cp.ID] = &cp

	return cp.ID, nil
}

// Delete removes an entry by ID. Returns true if an entry was removed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return false, nil
	}
	delete(s.entries, id)
	return true, nil
}

// Close marks the store closed. Data is discarded.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = make(map[string]*storage.Entry)
	return nil
}
