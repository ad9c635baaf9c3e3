// Package testutil provides testing utilities for banner delivery.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/banner-delivery/pkg/banner"
)

// FakeStore is a configurable banner.Store for tests.
type FakeStore struct {
	mu      sync.RWMutex
	records map[string]banner.Record

	metadataErr error
	fetchErr    error
	delay       time.Duration
	fetchGate   chan struct{}

	// Tracking
	metadataCount int
	fetchCount    int
}

// NewFakeStore creates an empty fake store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		records: make(map[string]banner.Record),
	}
}

// NewRecord builds a record with the given state and raw JSON config.
func NewRecord(id string, active bool, updatedAt time.Time, config string) banner.Record {
	return banner.Record{
		Metadata: banner.Metadata{
			ID:        id,
			IsActive:  active,
			UpdatedAt: updatedAt,
		},
		Config: json.RawMessage(config),
	}
}

// Put inserts or replaces a record.
func (s *FakeStore) Put(rec banner.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[strings.ToLower(rec.ID)] = rec
}

// SetErrors makes subsequent Metadata / Fetch calls fail. Nil clears.
func (s *FakeStore) SetErrors(metadataErr, fetchErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadataErr = metadataErr
	s.fetchErr = fetchErr
}

// SetDelay makes every call wait d or until the context is done.
func (s *FakeStore) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// HoldFetches makes Fetch calls block until the returned release func is
// called or their context is done. Metadata is unaffected.
func (s *FakeStore) HoldFetches() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.fetchGate = gate
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Metadata implements banner.Store.
func (s *FakeStore) Metadata(ctx context.Context, id string) (*banner.Metadata, error) {
	s.mu.Lock()
	s.metadataCount++
	injected := s.metadataErr
	s.mu.Unlock()

	rec, err := s.lookup(ctx, id, injected)
	if err != nil {
		return nil, err
	}
	md := rec.Metadata
	return &md, nil
}

// Fetch implements banner.Store.
func (s *FakeStore) Fetch(ctx context.Context, id string) (*banner.Record, error) {
	s.mu.Lock()
	s.fetchCount++
	injected := s.fetchErr
	gate := s.fetchGate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	rec, err := s.lookup(ctx, id, injected)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *FakeStore) lookup(ctx context.Context, id string, injected error) (banner.Record, error) {
	s.mu.RLock()
	delay := s.delay
	s.mu.RUnlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return banner.Record{}, ctx.Err()
		}
	}

	if injected != nil {
		return banner.Record{}, injected
	}

	s.mu.RLock()
	rec, ok := s.records[strings.ToLower(id)]
	s.mu.RUnlock()
	if !ok {
		return banner.Record{}, fmt.Errorf("%w: %s", banner.ErrNotFound, id)
	}
	return rec, nil
}

// MetadataCount returns the number of Metadata calls.
func (s *FakeStore) MetadataCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadataCount
}

// FetchCount returns the number of Fetch calls.
func (s *FakeStore) FetchCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchCount
}

// Reset clears all tracking counters.
func (s *FakeStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadataCount = 0
	s.fetchCount = 0
}
