// Package events provides small typed pub/sub primitives used to fan state
// changes out of the timer goroutine to the UI and the signal sinks.
package events

import "sync"

// registry holds the listeners of one event together with the last published
// value. L is the listener representation (a callback or a channel).
type registry[T any, L any] struct {
	mu         sync.RWMutex
	listeners  map[uint64]L
	nextID     uint64
	replayLast bool
	last       T
	hasLast    bool
}

func newRegistry[T any, L any](replayLast bool) *registry[T, L] {
	return &registry[T, L]{
		listeners:  make(map[uint64]L),
		replayLast: replayLast,
	}
}

// add registers l and reports the value to replay to it, if any
func (r *registry[T, L]) add(l L) (id uint64, last T, replay bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id = r.nextID
	r.nextID++
	r.listeners[id] = l
	return id, r.last, r.replayLast && r.hasLast
}

// remover returns an idempotent deregistration func for id
func (r *registry[T, L]) remover(id uint64) func() {
	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// publish records v and returns a snapshot of the listeners to deliver it to.
// Delivery happens outside the lock so listeners may (de)register themselves.
func (r *registry[T, L]) publish(v T) []L {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.replayLast {
		r.last = v
		r.hasLast = true
	}
	out := make([]L, 0, len(r.listeners))
	for _, l := range r.listeners {
		out = append(out, l)
	}
	return out
}

func (r *registry[T, L]) lastValue() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.replayLast && r.hasLast
}

func (r *registry[T, L]) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}
