// Package mqtt broadcasts timer signals to an MQTT broker. It only
// publishes; nothing received from the broker can drive the timer.
package mqtt

import (
	"encoding/json"
	"time"
)

// DefaultTopic is the topic timer events are published to
const DefaultTopic = "tabata/timer/events"

// Publisher publishes timer events.
type Publisher interface {
	// Publish sends an event to the broker. Failures are reported, never fatal.
	Publish(event TimerEvent) error

	// Close disconnects from the broker.
	Close() error
}

// TimerEvent describes one signal emitted by the running timer.
type TimerEvent struct {
	Timestamp        time.Time
	Signal           string // countdown_warning, phase_changed, workout_complete
	ProgramID        string
	Segment          string
	Phase            string // label shown to the user: Work!, Rest, Completed!...
	Round            int    // 0 outside interval blocks
	Rounds           int
	RemainingSeconds int
	ElapsedSeconds   int
}

// Payload is the JSON envelope of a published message.
type Payload struct {
	Timer TimerPayload `json:"timer"`
}

type TimerPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Program   string `json:"program"`
	Segment   string `json:"segment,omitempty"`
	Phase     string `json:"phase"`
	Round     int    `json:"round,omitempty"`
	Rounds    int    `json:"rounds,omitempty"`
	Remaining int    `json:"remaining_seconds"`
	Elapsed   int    `json:"elapsed_seconds"`
}

// FormatPayload creates the JSON payload for a timer event.
func FormatPayload(event TimerEvent) ([]byte, error) {
	payload := Payload{
		Timer: TimerPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Signal,
			Program:   event.ProgramID,
			Segment:   event.Segment,
			Phase:     event.Phase,
			Round:     event.Round,
			Rounds:    event.Rounds,
			Remaining: event.RemainingSeconds,
			Elapsed:   event.ElapsedSeconds,
		},
	}
	return json.Marshal(payload)
}
