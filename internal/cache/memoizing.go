// Package cache provides the small caching primitives used by the window
// engine: a compute-once supplier for expensive per-view data and an
// expiring LRU for compiled dictionary metadata.
package cache

import "sync"

// MemoizingSupplier computes a value once and serves the cached result until
// Forget is called. Concurrent callers during the first computation block and
// share the single result. Failed computations are not memoized, so the next
// call retries.
type MemoizingSupplier[V any] struct {
	mu       sync.Mutex
	compute  func() (V, error)
	value    V
	computed bool
}

func NewMemoizingSupplier[V any](compute func() (V, error)) *MemoizingSupplier[V] {
	return &MemoizingSupplier[V]{compute: compute}
}

// Get returns the memoized value, computing it on first use.
func (s *MemoizingSupplier[V]) Get() (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.computed {
		return s.value, nil
	}
	value, err := s.compute()
	if err != nil {
		var zero V
		return zero, err
	}
	s.value = value
	s.computed = true
	return s.value, nil
}

// Forget drops the memoized value; the next Get recomputes.
func (s *MemoizingSupplier[V]) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero V
	s.value = zero
	s.computed = false
}
