// Package engine contains the interval state machine: given a program and a
// one-second tick it tracks the active segment, the work/rest micro-phase, the
// round counter and the countdown, and reports the signals a consumer should
// react to. The engine is synchronous and not safe for concurrent use; the
// clock driver serializes all calls.
package engine

import (
	"errors"
	"fmt"

	"github.com/lowaak/tabata-timer/internal/program"
)

// ErrNotRunning is returned by Tick when the engine is Idle or Completed
var ErrNotRunning = errors.New("engine not running")

// RunPhase is the coarse lifecycle state
type RunPhase int

const (
	RunPhaseIdle RunPhase = iota
	RunPhaseRunning
	RunPhaseCompleted
)

func (p RunPhase) String() string {
	switch p {
	case RunPhaseIdle:
		return "idle"
	case RunPhaseRunning:
		return "running"
	case RunPhaseCompleted:
		return "completed"
	default:
		return fmt.Sprintf("RunPhase(%d)", int(p))
	}
}

// MicroPhase is the work/rest sub-state of an interval block
type MicroPhase int

const (
	MicroPhaseWork MicroPhase = iota
	MicroPhaseRest
)

func (p MicroPhase) String() string {
	if p == MicroPhaseRest {
		return "rest"
	}
	return "work"
}

// Signal is a side effect the consumer should react to (sound, repaint)
type Signal int

const (
	SignalCountdownWarning Signal = iota // last seconds of a countdown
	SignalPhaseChanged                   // a new micro-phase or segment started
	SignalWorkoutComplete                // the run finished
)

func (s Signal) String() string {
	switch s {
	case SignalCountdownWarning:
		return "countdown_warning"
	case SignalPhaseChanged:
		return "phase_changed"
	case SignalWorkoutComplete:
		return "workout_complete"
	default:
		return fmt.Sprintf("Signal(%d)", int(s))
	}
}

// State is the mutable part of the engine. CurrentRound and MicroPhase are
// only meaningful while the current segment is an interval block.
type State struct {
	RunPhase            RunPhase
	TotalElapsedSeconds int
	CurrentSegmentIndex int
	MicroPhase          MicroPhase
	CurrentRound        int
	TimeRemaining       int
}

// Engine is the interval state machine for one run at a time
type Engine struct {
	defaults    program.IntervalDefaults
	program     *program.Program
	patterns    []program.IntervalPattern // resolved per segment at Initialize
	diagnostics []error
	state       State
}

// New creates an idle engine. Invalid defaults are replaced by
// program.DefaultIntervalDefaults.
func New(defaults program.IntervalDefaults) *Engine {
	if defaults.Validate() != nil {
		defaults = program.DefaultIntervalDefaults
	}
	return &Engine{
		defaults: defaults,
		state:    State{RunPhase: RunPhaseIdle, CurrentRound: 1, MicroPhase: MicroPhaseWork},
	}
}

// Defaults returns the interval defaults in use
func (e *Engine) Defaults() program.IntervalDefaults {
	return e.defaults
}

// Initialize starts a new run of p from its first segment. The engine keeps a
// read-only reference to p. Fails with program.ErrInvalidProgram, leaving the
// engine untouched, when p cannot be run.
func (e *Engine) Initialize(p *program.Program) ([]Signal, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	patterns := make([]program.IntervalPattern, len(p.Segments))
	var diags []error
	for i, seg := range p.Segments {
		if !seg.IsIntervalBlock {
			continue
		}
		pattern, segDiags := seg.ResolvePattern(e.defaults)
		patterns[i] = pattern
		diags = append(diags, segDiags...)
	}

	e.program = p
	e.patterns = patterns
	e.diagnostics = diags
	e.state = State{RunPhase: RunPhaseRunning}
	e.enterSegment(0)

	return []Signal{SignalPhaseChanged}, nil
}

// Tick advances the run by one clock pulse. While not Running it is a no-op
// returning ErrNotRunning.
func (e *Engine) Tick() ([]Signal, error) {
	if e.state.RunPhase != RunPhaseRunning {
		return nil, ErrNotRunning
	}

	var signals []Signal

	// Warning is checked before the countdown moves so it fires at N..1, never at 0
	if e.state.TimeRemaining > 0 && e.state.TimeRemaining <= e.defaults.WarningSeconds {
		signals = append(signals, SignalCountdownWarning)
	}

	if e.state.TimeRemaining <= 1 {
		signals = append(signals, e.advance()...)
	} else {
		e.state.TimeRemaining--
	}

	// The tick's second is counted even when it finished the last segment
	e.state.TotalElapsedSeconds++

	if e.state.RunPhase == RunPhaseRunning && e.program.TotalDuration > 0 &&
		e.state.TotalElapsedSeconds >= e.program.TotalDuration {
		e.complete()
		signals = append(signals, SignalWorkoutComplete)
	}

	return signals, nil
}

// advance performs the transition triggered by an exhausted countdown
func (e *Engine) advance() []Signal {
	signals := []Signal{SignalPhaseChanged}

	if e.currentIsInterval() {
		pattern := e.patterns[e.state.CurrentSegmentIndex]
		switch {
		case e.state.MicroPhase == MicroPhaseWork:
			e.state.MicroPhase = MicroPhaseRest
			e.state.TimeRemaining = pattern.RestSeconds
			return signals
		case e.state.CurrentRound < pattern.Rounds:
			e.state.CurrentRound++
			e.state.MicroPhase = MicroPhaseWork
			e.state.TimeRemaining = pattern.WorkSeconds
			return signals
		default:
			e.state.CurrentRound = 1
			e.state.MicroPhase = MicroPhaseWork
		}
	}

	next := e.state.CurrentSegmentIndex + 1
	if next >= len(e.program.Segments) {
		e.complete()
		return append(signals, SignalWorkoutComplete)
	}
	e.enterSegment(next)
	return signals
}

// enterSegment positions the run at the start of segment i
func (e *Engine) enterSegment(i int) {
	e.state.CurrentSegmentIndex = i
	e.state.MicroPhase = MicroPhaseWork
	e.state.CurrentRound = 1
	e.state.TimeRemaining = e.initialCountdown(i)
}

func (e *Engine) initialCountdown(i int) int {
	seg := e.program.Segments[i]
	if seg.IsIntervalBlock {
		return e.patterns[i].WorkSeconds
	}
	return program.SegmentDuration(seg)
}

func (e *Engine) complete() {
	e.state.RunPhase = RunPhaseCompleted
	e.state.TimeRemaining = 0
}

// Reset returns to Idle with the countdown primed to the first segment's
// initial value. The program reference is kept so a later Initialize or
// Snapshot can use it.
func (e *Engine) Reset() {
	e.state = State{
		RunPhase:     RunPhaseIdle,
		MicroPhase:   MicroPhaseWork,
		CurrentRound: 1,
	}
	if e.program != nil {
		e.state.TimeRemaining = e.initialCountdown(0)
	}
}

// Load attaches p without starting a run, leaving the engine Idle and primed
// as after Reset.
func (e *Engine) Load(p *program.Program) error {
	if _, err := e.Initialize(p); err != nil {
		return err
	}
	e.Reset()
	return nil
}

// State returns a copy of the current state
func (e *Engine) State() State {
	return e.state
}

// Program returns the program of the current or last run, nil if none
func (e *Engine) Program() *program.Program {
	return e.program
}

// Diagnostics returns the non-fatal problems found when the program was
// initialized (interval parameters replaced by defaults).
func (e *Engine) Diagnostics() []error {
	return append([]error(nil), e.diagnostics...)
}

// CurrentSegment returns the segment at the current index, false if there is none
func (e *Engine) CurrentSegment() (program.Segment, bool) {
	if e.program == nil || e.state.CurrentSegmentIndex < 0 || e.state.CurrentSegmentIndex >= len(e.program.Segments) {
		return program.Segment{}, false
	}
	return e.program.Segments[e.state.CurrentSegmentIndex], true
}

// CurrentPattern returns the resolved interval pattern of the current segment,
// false when the current segment is not an interval block.
func (e *Engine) CurrentPattern() (program.IntervalPattern, bool) {
	if !e.currentIsInterval() {
		return program.IntervalPattern{}, false
	}
	return e.patterns[e.state.CurrentSegmentIndex], true
}

func (e *Engine) currentIsInterval() bool {
	seg, ok := e.CurrentSegment()
	return ok && seg.IsIntervalBlock && e.state.CurrentSegmentIndex < len(e.patterns)
}

// PhaseLength returns the full length of the active countdown
func (e *Engine) PhaseLength() int {
	if pattern, ok := e.CurrentPattern(); ok {
		if e.state.MicroPhase == MicroPhaseRest {
			return pattern.RestSeconds
		}
		return pattern.WorkSeconds
	}
	if seg, ok := e.CurrentSegment(); ok {
		return program.SegmentDuration(seg)
	}
	return 0
}

// ProgressFraction returns how far the active countdown has progressed in
// [0, 1]: 0 when Idle, 1 when Completed.
func (e *Engine) ProgressFraction() float64 {
	switch e.state.RunPhase {
	case RunPhaseIdle:
		return 0
	case RunPhaseCompleted:
		return 1
	}

	var fraction float64
	if _, ok := e.CurrentPattern(); ok {
		length := e.PhaseLength()
		if length <= 0 {
			return 0
		}
		fraction = float64(length-e.state.TimeRemaining) / float64(length)
	} else {
		seg, ok := e.CurrentSegment()
		if !ok || program.SegmentDuration(seg) <= 0 {
			return 0
		}
		fraction = float64(e.state.TotalElapsedSeconds-seg.StartTime) / float64(program.SegmentDuration(seg))
	}

	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}
