// Package gpio drives a buzzer wired to a GPIO output line.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "time"

// Buzzer sounds a buzzer for a given time.
type Buzzer interface {
	// Pulse drives the line high for d without blocking. A pulse started
	// while another is sounding replaces it.
	Pulse(d time.Duration) error

	// Close silences the buzzer and releases GPIO resources.
	Close() error
}

// Default wiring (BCM numbering)
const (
	DefaultChip = "gpiochip0"
	DefaultLine = 18
)
