// Package events fans out poll trigger events to in-process subscribers.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"issuesync/internal/models"
)

// Kind names a trigger event.
type Kind string

const (
	// ContextChanged is published when the active work context is set.
	ContextChanged Kind = "context_changed"
	// ProviderConfigChanged is published when any provider config is written.
	ProviderConfigChanged Kind = "provider_config_changed"
	// ManualTrigger re-arms the pipelines without changing anything.
	ManualTrigger Kind = "manual_trigger"
)

const subscriberBuffer = 64

// Event is a trigger for the poll scheduler.
type Event struct {
	Kind      Kind               `json:"kind"`
	Context   models.WorkContext `json:"context"`
	ProjectID string             `json:"project_id,omitempty"`
	At        time.Time          `json:"at"`
}

// Bus is a non-blocking publish/subscribe hub. Slow subscribers drop events.
type Bus struct {
	mu          sync.RWMutex
	nextID      uint64
	subscribers []*subscriber
	dropped     atomic.Int64
}

type subscriber struct {
	id uint64
	ch chan Event
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subscribers {
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe registers a subscriber and returns its channel plus an
// unsubscribe function that closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	b.nextID++
	sub.id = b.nextID
	b.subscribers = append(b.subscribers, sub)
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, existing := range b.subscribers {
				if existing.id == sub.id {
					b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
					close(sub.ch)
					break
				}
			}
		})
	}
	return sub.ch, unsubscribe
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}
