// Package memstore is a mutex-guarded map used by the in-memory
// repositories. Values are copied on the way in and out so callers never
// share state with the store.
package memstore

import "sync"

type Store[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
	clone func(T) T
}

// New returns an empty store. clone must return a deep copy of its
// argument.
func New[T any](clone func(T) T) *Store[T] {
	return &Store[T]{items: make(map[string]T), clone: clone}
}

// Get returns a copy of the item with id.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	return s.clone(v), true
}

// Put inserts or replaces the item with id.
func (s *Store[T]) Put(id string, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		s.order = append(s.order, id)
	}
	s.items[id] = s.clone(v)
}

// Insert stores v unless id is taken, in which case it returns false.
func (s *Store[T]) Insert(id string, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; ok {
		return false
	}
	s.order = append(s.order, id)
	s.items[id] = s.clone(v)
	return true
}

// Replace overwrites an existing item and reports whether it existed.
func (s *Store[T]) Replace(id string, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	s.items[id] = s.clone(v)
	return true
}

// Delete removes the item with id and reports whether it existed.
func (s *Store[T]) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns copies of the items matching keep, in insertion order. A
// nil keep matches everything.
func (s *Store[T]) List(keep func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.items))
	for _, id := range s.order {
		v := s.items[id]
		if keep == nil || keep(v) {
			out = append(out, s.clone(v))
		}
	}
	return out
}

// Find returns a copy of the first item matching match, in insertion order.
func (s *Store[T]) Find(match func(T) bool) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if v := s.items[id]; match(v) {
			return s.clone(v), true
		}
	}
	var zero T
	return zero, false
}

// Len returns the number of stored items.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// DeleteWhere removes every item matching match and returns how many went.
func (s *Store[T]) DeleteWhere(match func(T) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.order[:0]
	n := 0
	for _, id := range s.order {
		if match(s.items[id]) {
			delete(s.items, id)
			n++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return n
}

// UpdateWhere applies change in place to every item matching match and
// returns how many changed.
func (s *Store[T]) UpdateWhere(match func(T) bool, change func(T) T) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range s.order {
		if v := s.items[id]; match(v) {
			s.items[id] = s.clone(change(s.clone(v)))
			n++
		}
	}
	return n
}
