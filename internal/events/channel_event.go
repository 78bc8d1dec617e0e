package events

import (
	"sync"
)

// ChannelEvent publishes state snapshots to listener channels.
//
// Sends never block. When a listener's buffer is full the oldest pending
// value is discarded so the listener always ends up with the newest snapshot.
type ChannelEvent[T any] struct {
	mu                    sync.RWMutex
	channels              map[uint64]chan T
	nextID                uint64
	sendLastEventOnListen bool
	lastEvent             *T
}

// NewChannelEvent creates a new ChannelEvent instance
// sendLastEventOnListen: if true, new listeners immediately receive the last
// notified value (when there is one)
func NewChannelEvent[T any](sendLastEventOnListen bool) *ChannelEvent[T] {
	return &ChannelEvent[T]{
		channels:              make(map[uint64]chan T),
		sendLastEventOnListen: sendLastEventOnListen,
	}
}

// Listen registers a channel to receive values when Notify is invoked
// Returns a deregistration function that can be called to remove the listener
func (e *ChannelEvent[T]) Listen(ch chan T) func() {
	if ch == nil {
		panic("channel cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.channels[id] = ch
	var last *T
	if e.sendLastEventOnListen && e.lastEvent != nil {
		v := *e.lastEvent
		last = &v
	}
	e.mu.Unlock()

	if last != nil {
		offer(ch, *last)
	}

	return func() {
		e.mu.Lock()
		delete(e.channels, id)
		e.mu.Unlock()
	}
}

// Notify sends value to every registered channel
func (e *ChannelEvent[T]) Notify(value T) {
	e.mu.Lock()
	if e.sendLastEventOnListen {
		v := value
		e.lastEvent = &v
	}
	channels := make([]chan T, 0, len(e.channels))
	for _, ch := range e.channels {
		channels = append(channels, ch)
	}
	e.mu.Unlock()

	for _, ch := range channels {
		offer(ch, value)
	}
}

// ListenerCount returns the current number of registered listeners
func (e *ChannelEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.channels)
}

// offer delivers value without blocking, evicting one stale value if needed.
func offer[T any](ch chan T, value T) {
	for attempt := 0; attempt < 2; attempt++ {
		select {
		case ch <- value:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
