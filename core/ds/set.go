// Package ds provides small generic data structures shared by the stores
// and the dispatcher.
package ds

import (
	"encoding/json"
	"fmt"
)

// Set is an insertion-ordered set with O(1) membership tests. Stores use it
// to answer "all" queries in first-write order and the dispatcher uses it to
// redeliver pending dispatchables oldest first.
//
// Set is not safe for concurrent use; owners serialize access.
type Set[T comparable] struct {
	items map[T]struct{}
	order []T
}

// NewSet creates a set holding items, duplicates dropped.
func NewSet[T comparable](items ...T) *Set[T] {
	s := &Set[T]{items: make(map[T]struct{}, len(items)), order: make([]T, 0, len(items))}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

func (s *Set[T]) String() string { return fmt.Sprintf("%v", s.order) }

// Add appends v unless present. It reports whether v was added.
func (s *Set[T]) Add(v T) bool {
	if s.Contains(v) {
		return false
	}
	s.items[v] = struct{}{}
	s.order = append(s.order, v)
	return true
}

// Remove deletes vs from the set. O(n) in the set size.
func (s *Set[T]) Remove(vs ...T) {
	removed := 0
	for _, v := range vs {
		if _, ok := s.items[v]; ok {
			delete(s.items, v)
			removed++
		}
	}
	if removed == 0 {
		return
	}
	order := make([]T, 0, len(s.order)-removed)
	for _, v := range s.order {
		if _, ok := s.items[v]; ok {
			order = append(order, v)
		}
	}
	s.order = order
}

func (s *Set[T]) Contains(v T) bool {
	_, ok := s.items[v]
	return ok
}

func (s *Set[T]) Len() int      { return len(s.items) }
func (s *Set[T]) IsEmpty() bool { return len(s.items) == 0 }

// ForEach visits elements in insertion order.
func (s *Set[T]) ForEach(fn func(T)) {
	for _, v := range s.order {
		fn(v)
	}
}

// Values returns a copy of the elements in insertion order.
func (s *Set[T]) Values() []T {
	out := make([]T, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Set[T]) Clear() {
	s.items = map[T]struct{}{}
	s.order = nil
}

// MarshalJSON encodes the set as an ordered JSON array.
func (s Set[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON replaces the content with the decoded array.
func (s *Set[T]) UnmarshalJSON(data []byte) error {
	var vs []T
	if err := json.Unmarshal(data, &vs); err != nil {
		return err
	}
	s.Clear()
	for _, v := range vs {
		s.Add(v)
	}
	return nil
}
