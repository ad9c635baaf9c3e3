package banner

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store used in tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
	}
}

// Put inserts or replaces a record.
func (s *MemoryStore) Put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[strings.ToLower(rec.ID)] = rec
}

// Delete removes a record.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, strings.ToLower(id))
}

// Metadata implements Store.
func (s *MemoryStore) Metadata(ctx context.Context, id string) (*Metadata, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	md := rec.Metadata
	return &md, nil
}

// Fetch implements Store.
func (s *MemoryStore) Fetch(ctx context.Context, id string) (*Record, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := rec
	cp.Config = append([]byte(nil), rec.Config...)
	return &cp, nil
}

func (s *MemoryStore) get(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	s.mu.RLock()
	rec, ok := s.records[strings.ToLower(id)]
	s.mu.RUnlock()

	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}
