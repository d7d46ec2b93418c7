package notify

import "sync"

// Feed keeps the most recent notices in a fixed-size ring.
type Feed struct {
	mu    sync.RWMutex
	ring  []Notice
	next  int
	count int
}

func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 50
	}
	return &Feed{ring: make([]Notice, size)}
}

func (f *Feed) Deliver(n Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ring[f.next] = n
	f.next = (f.next + 1) % len(f.ring)
	if f.count < len(f.ring) {
		f.count++
	}
}

// Recent returns up to limit notices, newest first. limit <= 0 means all.
func (f *Feed) Recent(limit int) []Notice {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if limit <= 0 || limit > f.count {
		limit = f.count
	}
	out := make([]Notice, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (f.next - i + len(f.ring)) % len(f.ring)
		out = append(out, f.ring[idx])
	}
	return out
}
