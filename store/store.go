// Package store holds the current game snapshot and notifies observers when it is replaced.
package store

import (
	"sort"
	"sync"

	"termcatan/types"
)

// Observer is called after every replacement with the previous and new snapshot.
type Observer func(prev, next *types.BoardState)

// Store is the single owner of the current BoardState. The snapshot is only
// ever replaced as a whole; observers never see a half-applied update.
type Store struct {
	mu        sync.Mutex
	state     *types.BoardState
	version   uint64
	observers map[int]Observer
	nextID    int
}

// New creates an empty store.
func New() *Store {
	return &Store{observers: make(map[int]Observer)}
}

// State returns the current snapshot, or nil before the first load.
func (s *Store) State() *types.BoardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Version counts replacements.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Replace installs next and notifies observers synchronously, outside the lock.
func (s *Store) Replace(next *types.BoardState) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.version++
	observers := s.snapshotObservers()
	s.mu.Unlock()

	for _, fn := range observers {
		fn(prev, next)
	}
}

// Clear drops the snapshot, e.g. when leaving the game.
func (s *Store) Clear() {
	s.Replace(nil)
}

// Subscribe registers fn. The returned function removes it.
func (s *Store) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// snapshotObservers returns observers in subscription order.
// Must be called while holding the lock.
func (s *Store) snapshotObservers() []Observer {
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Observer, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.observers[id])
	}
	return out
}
