package engine

import (
	"fmt"

	"github.com/lowaak/tabata-timer/internal/program"
)

// Snapshot is a read-only view of the engine after a transition, with the
// values a presentation layer derives from it. It is a value type and safe
// to hand to other goroutines.
type Snapshot struct {
	State

	Program     *program.Program
	Segment     *program.Segment // nil when there is no current segment
	NextSegment *program.Segment // nil on the last segment
	Pattern     program.IntervalPattern
	IsInterval  bool
	PhaseLength int
	Progress    float64
	Label       string
}

// Snapshot captures the current state and derived values
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		State:       e.state,
		Program:     e.program,
		PhaseLength: e.PhaseLength(),
		Progress:    e.ProgressFraction(),
	}

	if seg, ok := e.CurrentSegment(); ok {
		snap.Segment = &seg
		next := e.state.CurrentSegmentIndex + 1
		if next < len(e.program.Segments) {
			nextSeg := e.program.Segments[next]
			snap.NextSegment = &nextSeg
		}
	}
	snap.Pattern, snap.IsInterval = e.CurrentPattern()
	snap.Label = PhaseLabel(snap)
	return snap
}

// RemainingText returns the countdown formatted as m:ss
func (s Snapshot) RemainingText() string {
	return FormatClock(s.TimeRemaining)
}

// RoundText returns "Round n/N" for interval blocks and "" otherwise
func (s Snapshot) RoundText() string {
	if !s.IsInterval || s.RunPhase != RunPhaseRunning {
		return ""
	}
	return fmt.Sprintf("Round %d/%d", s.CurrentRound, s.Pattern.Rounds)
}

// PhaseLabel returns the human readable label for the current phase
func PhaseLabel(s Snapshot) string {
	switch s.RunPhase {
	case RunPhaseIdle:
		return "Ready"
	case RunPhaseCompleted:
		return "Completed!"
	}
	if s.IsInterval {
		if s.MicroPhase == MicroPhaseRest {
			return "Rest"
		}
		return "Work!"
	}
	if s.Segment != nil && s.Segment.Name != "" {
		return s.Segment.Name
	}
	return "Go"
}

// FormatClock formats seconds as m:ss. Negative values are shown as 0:00.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
