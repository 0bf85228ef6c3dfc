package oem

import (
	"sync"
	"sync/atomic"
	"time"
)

// Store provides thread-safe access to the current Ephemeris snapshot.
// Readers take one snapshot per request; a refresh builds a new immutable
// Ephemeris and swaps it in, so readers never observe a partial update.
type Store struct {
	ephemeris atomic.Pointer[Ephemeris]
	mu        sync.Mutex // serializes refresh operations
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current snapshot, or nil if no refresh has succeeded yet.
func (s *Store) Get() *Ephemeris {
	return s.ephemeris.Load()
}

// Set atomically replaces the current snapshot.
func (s *Store) Set(eph *Ephemeris) {
	s.ephemeris.Store(eph)
}

// Ready reports whether at least one refresh has completed.
func (s *Store) Ready() bool {
	return s.ephemeris.Load() != nil
}

// AgeSeconds returns the age of the current snapshot in seconds, or -1 if
// no snapshot is loaded.
func (s *Store) AgeSeconds() float64 {
	eph := s.ephemeris.Load()
	if eph == nil {
		return -1
	}
	return time.Since(eph.FetchedAt).Seconds()
}

// Lock acquires the refresh mutex so concurrent refreshes are serialized.
func (s *Store) Lock() {
	s.mu.Lock()
}

// Unlock releases the refresh mutex.
func (s *Store) Unlock() {
	s.mu.Unlock()
}
