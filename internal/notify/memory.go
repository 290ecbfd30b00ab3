package notify

import (
	"context"
	"sync"
)

// DefaultMemoryCapacity is the ring size used by the server.
const DefaultMemoryCapacity = 200

// Memory keeps the most recent notifications in a ring buffer.
type Memory struct {
	mu       sync.Mutex
	capacity int
	items    []Notification
}

// NewMemory returns a ring holding up to capacity notifications.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{capacity: capacity}
}

func (m *Memory) Notify(_ context.Context, n Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, n)
	if len(m.items) > m.capacity {
		m.items = append([]Notification(nil), m.items[len(m.items)-m.capacity:]...)
	}
}

// List returns up to limit notifications, newest first. limit <= 0 returns all.
func (m *Memory) List(limit int) []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.items)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Notification, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.items[i])
	}
	return out
}
