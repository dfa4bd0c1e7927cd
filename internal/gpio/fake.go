package gpio

import (
	"errors"
	"sync"
	"time"
)

// FakeBuzzer is a test double that records pulses.
type FakeBuzzer struct {
	mu     sync.Mutex
	pulses []time.Duration
	closed bool

	// PulseError, if set, will be returned by Pulse()
	PulseError error
}

func NewFakeBuzzer() *FakeBuzzer {
	return &FakeBuzzer{}
}

// Pulse records d.
func (f *FakeBuzzer) Pulse(d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return errors.New("buzzer closed")
	}
	if f.PulseError != nil {
		return f.PulseError
	}
	f.pulses = append(f.pulses, d)
	return nil
}

// Close marks the buzzer as closed.
func (f *FakeBuzzer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Pulses returns the recorded pulse lengths in order.
func (f *FakeBuzzer) Pulses() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.pulses...)
}

func (f *FakeBuzzer) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
