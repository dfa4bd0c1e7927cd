package events

import "sync/atomic"

// ChannelEvent delivers notified values to registered channels. Sends never
// block: a listener whose buffer is full misses the value and the drop is
// counted.
type ChannelEvent[T any] struct {
	reg     *registry[T, chan<- T]
	dropped atomic.Uint64
}

// NewChannelEvent creates a ChannelEvent. With replayLast set, a channel
// registered after the first Notify immediately receives the latest value.
func NewChannelEvent[T any](replayLast bool) *ChannelEvent[T] {
	return &ChannelEvent[T]{reg: newRegistry[T, chan<- T](replayLast)}
}

// Listen registers ch and returns its deregistration func
func (e *ChannelEvent[T]) Listen(ch chan<- T) func() {
	if ch == nil {
		panic("events: nil channel")
	}
	id, last, replay := e.reg.add(ch)
	if replay {
		e.send(ch, last)
	}
	return e.reg.remover(id)
}

// Notify offers value to every registered channel
func (e *ChannelEvent[T]) Notify(value T) {
	for _, ch := range e.reg.publish(value) {
		e.send(ch, value)
	}
}

func (e *ChannelEvent[T]) send(ch chan<- T, value T) {
	select {
	case ch <- value:
	default:
		e.dropped.Add(1)
	}
}

// Last returns the most recent value when replay is enabled
func (e *ChannelEvent[T]) Last() (T, bool) {
	return e.reg.lastValue()
}

// Dropped returns how many sends were skipped because a listener was full
func (e *ChannelEvent[T]) Dropped() uint64 {
	return e.dropped.Load()
}

func (e *ChannelEvent[T]) ListenerCount() int {
	return e.reg.count()
}
