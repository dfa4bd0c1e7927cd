package mqtt

import (
	"log"
	"sync"

	"github.com/lowaak/tabata-timer/internal/go_func_utils"
)

// AsyncPublisher queues events and publishes them from its own goroutine so
// the caller never waits on the network. When the queue is full the event is
// dropped.
type AsyncPublisher struct {
	publisher Publisher
	logger    *log.Logger
	queue     chan TimerEvent
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error

	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewAsyncPublisher starts the publishing goroutine
func NewAsyncPublisher(publisher Publisher, logger *log.Logger, capacity int) *AsyncPublisher {
	if publisher == nil {
		panic("AsyncPublisher: publisher cannot be nil")
	}
	if logger == nil {
		panic("AsyncPublisher: logger cannot be nil")
	}
	if capacity <= 0 {
		capacity = 1
	}

	a := &AsyncPublisher{
		publisher: publisher,
		logger:    logger,
		queue:     make(chan TimerEvent, capacity),
	}
	go_func_utils.SafeGoWait(logger, &a.wg, a.run)
	return a
}

// Enqueue offers an event for publishing and reports whether it was accepted
func (a *AsyncPublisher) Enqueue(event TimerEvent) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return false
	}
	select {
	case a.queue <- event:
		return true
	default:
		if a.dropped == 0 {
			a.logger.Printf("MQTT: queue full (%d events), dropping", cap(a.queue))
		}
		a.dropped++
		return false
	}
}

func (a *AsyncPublisher) run() {
	for event := range a.queue {
		if err := a.publisher.Publish(event); err != nil {
			a.logger.Printf("MQTT: publish %s failed: %v", event.Signal, err)
		}
	}
}

// Dropped returns how many events were rejected because the queue was full
func (a *AsyncPublisher) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Close publishes what is still queued, then closes the underlying publisher.
// Safe to call multiple times.
func (a *AsyncPublisher) Close() error {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.queue)
		a.mu.Unlock()

		a.wg.Wait()
		a.closeErr = a.publisher.Close()
	})
	return a.closeErr
}
