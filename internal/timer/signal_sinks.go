package timer

import (
	"log"
	"time"

	"github.com/lowaak/tabata-timer/internal/engine"
	"github.com/lowaak/tabata-timer/internal/gpio"
	"github.com/lowaak/tabata-timer/internal/mqtt"
)

// Sinks are registered with SessionManager.ListenToSignals. They run on the
// clock goroutine, so each one must return quickly and swallow its errors.

// Beeper is satisfied by tcell.Screen
type Beeper interface {
	Beep() error
}

// NewBeepSink rings the terminal bell on every signal
func NewBeepSink(beeper Beeper, logger *log.Logger) func(SignalEvent) {
	if beeper == nil {
		panic("BeepSink: beeper cannot be nil")
	}
	if logger == nil {
		panic("BeepSink: logger cannot be nil")
	}
	return func(ev SignalEvent) {
		if err := beeper.Beep(); err != nil {
			logger.Printf("BeepSink: beep on %s failed: %v", ev.Signal, err)
		}
	}
}

// NewBuzzerSink pulses a GPIO buzzer, longer for bigger events
func NewBuzzerSink(buzzer gpio.Buzzer, logger *log.Logger) func(SignalEvent) {
	if buzzer == nil {
		panic("BuzzerSink: buzzer cannot be nil")
	}
	if logger == nil {
		panic("BuzzerSink: logger cannot be nil")
	}
	return func(ev SignalEvent) {
		if err := buzzer.Pulse(pulseFor(ev.Signal)); err != nil {
			logger.Printf("BuzzerSink: pulse on %s failed: %v", ev.Signal, err)
		}
	}
}

func pulseFor(s engine.Signal) time.Duration {
	switch s {
	case engine.SignalPhaseChanged:
		return PhasePulse
	case engine.SignalWorkoutComplete:
		return CompletePulse
	default:
		return WarningPulse
	}
}

// NewMQTTSink queues every signal for broadcast. Publishing happens on the
// publisher's own goroutine.
func NewMQTTSink(publisher *mqtt.AsyncPublisher) func(SignalEvent) {
	if publisher == nil {
		panic("MQTTSink: publisher cannot be nil")
	}
	return func(ev SignalEvent) {
		publisher.Enqueue(ToTimerEvent(ev))
	}
}

// ToTimerEvent converts a signal into its broadcast form
func ToTimerEvent(ev SignalEvent) mqtt.TimerEvent {
	snap := ev.Snapshot
	out := mqtt.TimerEvent{
		Timestamp:        ev.At,
		Signal:           ev.Signal.String(),
		Phase:            snap.Label,
		RemainingSeconds: snap.TimeRemaining,
		ElapsedSeconds:   snap.TotalElapsedSeconds,
	}
	if snap.Program != nil {
		out.ProgramID = snap.Program.ID
	}
	if snap.Segment != nil {
		out.Segment = snap.Segment.Name
	}
	if snap.IsInterval && snap.RunPhase == engine.RunPhaseRunning {
		out.Round = snap.CurrentRound
		out.Rounds = snap.Pattern.Rounds
	}
	return out
}
