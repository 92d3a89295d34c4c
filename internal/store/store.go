// Package store provides the observable state container the Continuum
// core is built on. Each domain store owns one Store instance; there is
// no package-level singleton, so tests get isolated state by constructing
// a fresh store and callers share state by sharing the handle.
package store

import "sync"

// Store holds a single state value of type S and fans every mutation out
// to subscribers. Mutations are atomic; subscribers are invoked
// synchronously after each mutation, outside the state lock, in
// subscription order.
type Store[S any] struct {
	mu      sync.Mutex
	state   S
	initial S

	subMu  sync.Mutex
	subs   map[int]func(S)
	order  []int
	nextID int
}

// New creates a store whose current and reset state are both initial.
func New[S any](initial S) *Store[S] {
	return &Store[S]{
		state:   initial,
		initial: initial,
		subs:    make(map[int]func(S)),
	}
}

// Get returns the current state. Callers must treat the returned value as
// read-only; mutations go through Set or Update.
func (s *Store[S]) Get() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Set replaces the state and notifies subscribers.
func (s *Store[S]) Set(next S) {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
	s.notify(next)
}

// Update applies fn to the current state and stores the result, then
// notifies subscribers. fn must not retain or mutate its argument's
// reference fields; it returns a new state instead.
func (s *Store[S]) Update(fn func(S) S) {
	s.mu.Lock()
	next := fn(s.state)
	s.state = next
	s.mu.Unlock()
	s.notify(next)
}

// Reset restores the initial state and notifies subscribers. Exposed for
// test isolation and for "fresh process" semantics.
func (s *Store[S]) Reset() {
	s.mu.Lock()
	next := s.initial
	s.state = next
	s.mu.Unlock()
	s.notify(next)
}

// Subscribe registers fn to run after every mutation and returns an
// unsubscribe function. fn is not called with the current state at
// subscribe time.
func (s *Store[S]) Subscribe(fn func(S)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.order = append(s.order, id)
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

func (s *Store[S]) notify(state S) {
	s.subMu.Lock()
	fns := make([]func(S), 0, len(s.order))
	for _, id := range s.order {
		if fn, ok := s.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
