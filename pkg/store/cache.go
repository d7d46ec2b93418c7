package store

import (
	"sync"

	"github.com/google/uuid"
)

// cache is the in-memory copy of one collection, newest first. It is filled
// by a full read and then kept in step with successful writes.
type cache[T any] struct {
	mu     sync.RWMutex
	items  []T
	loaded bool
	id     func(T) uuid.UUID
}

func newCache[T any](id func(T) uuid.UUID) *cache[T] {
	return &cache[T]{id: id}
}

func (c *cache[T]) snapshot() ([]T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, false
	}
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out, true
}

func (c *cache[T]) replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make([]T, len(items))
	copy(c.items, items)
	c.loaded = true
}

// prepend adds a newly created record. Before the first full read there is
// nothing to keep in step, so it is a no-op.
func (c *cache[T]) prepend(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return
	}
	c.items = append([]T{item}, c.items...)
}

func (c *cache[T]) swap(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.id(item)
	for i := range c.items {
		if c.id(c.items[i]) == id {
			c.items[i] = item
			return
		}
	}
}

func (c *cache[T]) remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.id(c.items[i]) == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}
