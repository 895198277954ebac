package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_EmitReachesAllSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	first := bus.Subscribe()
	second := bus.Subscribe()

	bus.Emit(Event{Kind: HistoryInvalidated, HistoricalID: "h1"})

	for _, ch := range []<-chan Event{first, second} {
		select {
		case event := <-ch:
			assert.Equal(t, HistoryInvalidated, event.Kind)
			assert.Equal(t, "h1", event.HistoricalID)
			assert.Equal(t, uint64(1), event.Seq)
			assert.False(t, event.Timestamp.IsZero())
		default:
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestBus_SequenceIncrements(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch := bus.Subscribe()
	bus.Emit(Event{Kind: HistoryInvalidated})
	bus.Emit(Event{Kind: HistoryInvalidated})

	first := <-ch
	second := <-ch
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
}

func TestBus_EmitWithoutSubscribersDoesNotBlock(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	bus.Emit(Event{Kind: HistoryInvalidated})
}

func TestBus_FullSubscriberDropsEvents(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch := bus.Subscribe()
	for i := 0; i < 100; i++ {
		bus.Emit(Event{Kind: HistoryInvalidated})
	}

	// Buffered capacity is 16; the rest were dropped, nothing deadlocked.
	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	assert.Equal(t, 16, received)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	// Channel is closed after unsubscribe.
	_, open := <-ch
	require.False(t, open)

	// Emitting afterwards must not panic.
	bus.Emit(Event{Kind: HistoryInvalidated})
}

func TestBus_UnsubscribeNil(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	bus.Unsubscribe(nil)
}
