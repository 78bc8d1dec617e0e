package events

import (
	"sync"
)

type callbackListener[T any] struct {
	id       uint64
	callback func(T)
}

// CallbackEvent dispatches values synchronously to registered callbacks.
// Callbacks run on the notifying goroutine, in registration order.
type CallbackEvent[T any] struct {
	mu        sync.RWMutex
	listeners []callbackListener[T]
	nextID    uint64
}

// NewCallbackEvent creates an empty CallbackEvent
func NewCallbackEvent[T any]() *CallbackEvent[T] {
	return &CallbackEvent[T]{}
}

// Listen registers a callback and returns a function that removes it again.
// Removing an already removed callback is a no-op.
func (e *CallbackEvent[T]) Listen(callback func(T)) func() {
	if callback == nil {
		panic("callback cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners = append(e.listeners, callbackListener[T]{id: id, callback: callback})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, l := range e.listeners {
			if l.id == id {
				e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

// Notify calls every registered callback with value.
// The listener set is snapshotted first, so callbacks may unregister themselves.
func (e *CallbackEvent[T]) Notify(value T) {
	e.mu.RLock()
	snapshot := make([]callbackListener[T], len(e.listeners))
	copy(snapshot, e.listeners)
	e.mu.RUnlock()

	for _, l := range snapshot {
		l.callback(value)
	}
}

// ListenerCount returns the current number of registered listeners
func (e *CallbackEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}
