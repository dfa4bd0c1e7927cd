//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"
)

// RealBuzzer drives a buzzer through the Linux GPIO character device.
type RealBuzzer struct {
	mu     sync.Mutex
	chip   *gpiocdev.Chip
	line   *gpiocdev.Line
	off    *time.Timer
	gen    uint64 // pulse generation, stale timers must not silence a newer pulse
	closed bool
}

// NewRealBuzzer requests line as an output, initially low.
func NewRealBuzzer(chipName string, line int) (*RealBuzzer, error) {
	if chipName == "" {
		chipName = DefaultChip
	}
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	l, err := chip.RequestLine(line, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("tabata-timer"))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request buzzer line %d: %w", line, err)
	}

	return &RealBuzzer{chip: chip, line: l}, nil
}

// Pulse drives the line high and schedules it low after d.
func (b *RealBuzzer) Pulse(d time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("buzzer closed")
	}
	if b.off != nil {
		b.off.Stop()
	}
	if err := b.line.SetValue(1); err != nil {
		return fmt.Errorf("set buzzer line: %w", err)
	}

	b.gen++
	gen := b.gen
	b.off = time.AfterFunc(d, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed || gen != b.gen {
			return
		}
		_ = b.line.SetValue(0)
	})
	return nil
}

// Close silences the buzzer, then releases the line and chip.
func (b *RealBuzzer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.off != nil {
		b.off.Stop()
	}

	var err error
	if b.line != nil {
		err = multierr.Append(err, b.line.SetValue(0))
		err = multierr.Append(err, b.line.Close())
	}
	if b.chip != nil {
		err = multierr.Append(err, b.chip.Close())
	}
	if err != nil {
		return fmt.Errorf("close buzzer: %w", err)
	}
	return nil
}
