package runner

import "sync"

func NewConcurrentMap[K comparable, V any]() *ConcurrentMap[K, V] {
	return &ConcurrentMap[K, V]{
		mu:    &sync.Mutex{},
		inner: map[K]V{},
	}
}

// ConcurrentMap is a mutex-guarded map whose entries are only changed
// through read-modify-write callbacks.
type ConcurrentMap[K comparable, V any] struct {
	mu    *sync.Mutex
	inner map[K]V
}

// Update replaces the value under key with the result of fn, atomically.
// fn receives the current value and whether it was present; returning
// keep=false removes the key.
func (c *ConcurrentMap[K, V]) Update(key K, fn func(current V, ok bool) (value V, keep bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, ok := c.inner[key]
	value, keep := fn(current, ok)
	if keep {
		c.inner[key] = value
	} else {
		delete(c.inner, key)
	}
}

func (c *ConcurrentMap[K, _]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inner)
}
