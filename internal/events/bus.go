// Package events provides the cross-component invalidation signal for bioscope.
// The conversation core broadcasts an event whenever the set of historical
// conversations changes (created, reset, loaded); history-list consumers
// subscribe and refresh. Emission never blocks the core.
package events

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

// Kind classifies an event.
type Kind string

const (
	// HistoryInvalidated signals that the user's history list is stale and
	// should be refetched.
	HistoryInvalidated Kind = "history_invalidated"
)

// Event is one broadcast notification. Seq gives a total order across all
// events emitted by one bus.
type Event struct {
	Seq          uint64
	Kind         Kind
	HistoricalID string
	Timestamp    time.Time
}

// Bus dispatches events to subscribers. Safe to use from any goroutine.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan Event
	sequence    atomic.Uint64
}

// NewBus creates an event bus with no subscribers.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe returns a channel that will receive events.
// The channel is buffered to prevent blocking emitters.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subscribers = append(b.subscribers, ch)
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel and closes it.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	if ch == nil {
		return
	}
	target := reflect.ValueOf(ch).Pointer()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subscribers {
		if reflect.ValueOf(sub).Pointer() == target {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(sub)
			break
		}
	}
}

// Emit sends an event to all subscribers without blocking; a subscriber with
// a full channel misses the event (the signal is an invalidation hint, not a
// durable stream).
func (b *Bus) Emit(event Event) {
	event.Seq = b.sequence.Add(1)
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	for _, sub := range b.subscribers {
		select {
		case sub <- event:
		default: // Drop if channel full
		}
	}
	b.mu.RUnlock()
}

// Close shuts down the bus and all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subscribers {
		close(sub)
	}
	b.subscribers = nil
}
