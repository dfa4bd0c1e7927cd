// Package program describes workout programs: ordered, contiguous time segments,
// some of which repeat a work/rest pattern (Tabata rounds).
// Programs are immutable once registered.
package program

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidProgram is returned when a program cannot be run (no segments,
	// gaps or overlaps between segments, empty ranges).
	ErrInvalidProgram = errors.New("invalid program")

	// ErrProgramNotFound is returned by registry lookups for unknown ids.
	ErrProgramNotFound = errors.New("program not found")

	// ErrMissingIntervalParameters marks an interval block whose work/rest/rounds
	// values were absent or non-positive and have been replaced by defaults.
	ErrMissingIntervalParameters = errors.New("missing interval parameters")
)

// IntervalDefaults holds the fallback values for interval blocks
type IntervalDefaults struct {
	WorkSeconds    int
	RestSeconds    int
	Rounds         int
	WarningSeconds int // countdown warning window at the end of every phase
}

// DefaultIntervalDefaults is the classic Tabata pattern: 8 x (20s work / 10s rest)
var DefaultIntervalDefaults = IntervalDefaults{
	WorkSeconds:    20,
	RestSeconds:    10,
	Rounds:         8,
	WarningSeconds: 3,
}

// Validate reports whether the defaults can be used as fallbacks.
func (d IntervalDefaults) Validate() error {
	if d.WorkSeconds <= 0 || d.RestSeconds <= 0 || d.Rounds <= 0 {
		return fmt.Errorf("interval defaults must be positive (work=%d rest=%d rounds=%d)",
			d.WorkSeconds, d.RestSeconds, d.Rounds)
	}
	if d.WarningSeconds < 0 {
		return fmt.Errorf("warning seconds cannot be negative (%d)", d.WarningSeconds)
	}
	return nil
}

// Segment is a labeled time range within a program.
// StartTime and EndTime are seconds from the start of the workout.
type Segment struct {
	StartTime int `yaml:"start_time"`
	EndTime   int `yaml:"end_time"`

	// Descriptive only
	Name           string `yaml:"name"`
	ActivityType   string `yaml:"activity_type"`
	CadenceHint    string `yaml:"cadence"`
	ResistanceHint string `yaml:"resistance"`
	Notes          string `yaml:"notes"`

	// Interval block fields (zero means "use the default")
	IsIntervalBlock bool `yaml:"interval_block"`
	WorkSeconds     int  `yaml:"work_seconds,omitempty"`
	RestSeconds     int  `yaml:"rest_seconds,omitempty"`
	Rounds          int  `yaml:"rounds,omitempty"`
}

// SegmentDuration returns EndTime - StartTime in seconds
func SegmentDuration(s Segment) int {
	return s.EndTime - s.StartTime
}

// IntervalPattern is the resolved work/rest/rounds pattern of an interval block
type IntervalPattern struct {
	WorkSeconds int
	RestSeconds int
	Rounds      int
}

// RoundSeconds returns the length of one work+rest round
func (p IntervalPattern) RoundSeconds() int {
	return p.WorkSeconds + p.RestSeconds
}

// ResolvePattern returns the interval pattern for the segment with absent or
// invalid values replaced from d. Each replacement is reported as an error
// wrapping ErrMissingIntervalParameters; these are diagnostics, not failures.
func (s Segment) ResolvePattern(d IntervalDefaults) (IntervalPattern, []error) {
	p := IntervalPattern{WorkSeconds: s.WorkSeconds, RestSeconds: s.RestSeconds, Rounds: s.Rounds}
	var diags []error

	if p.WorkSeconds <= 0 {
		diags = append(diags, fmt.Errorf("%w: segment %q work_seconds=%d, using %d",
			ErrMissingIntervalParameters, s.Name, s.WorkSeconds, d.WorkSeconds))
		p.WorkSeconds = d.WorkSeconds
	}
	if p.RestSeconds <= 0 {
		diags = append(diags, fmt.Errorf("%w: segment %q rest_seconds=%d, using %d",
			ErrMissingIntervalParameters, s.Name, s.RestSeconds, d.RestSeconds))
		p.RestSeconds = d.RestSeconds
	}
	// An absent round count is the common case, so it is not reported
	if p.Rounds <= 0 {
		p.Rounds = d.Rounds
	}
	return p, diags
}

// Program is an immutable workout description
type Program struct {
	ID            string    `yaml:"id"`
	Name          string    `yaml:"name"`
	Description   string    `yaml:"description"`
	TotalDuration int       `yaml:"total_duration"` // seconds; display and backstop bound only
	Segments      []Segment `yaml:"segments"`
}

// SegmentSum returns the sum of all segment durations in seconds.
// This is the authoritative length of the program.
func (p *Program) SegmentSum() int {
	total := 0
	for _, s := range p.Segments {
		total += SegmentDuration(s)
	}
	return total
}

// Validate checks the structural rules the engine depends on: at least one
// segment, the first starting at 0, every range non-empty and each segment
// starting where the previous one ended.
func (p *Program) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil program", ErrInvalidProgram)
	}
	if len(p.Segments) == 0 {
		return fmt.Errorf("%w: %q has no segments", ErrInvalidProgram, p.ID)
	}
	if p.Segments[0].StartTime != 0 {
		return fmt.Errorf("%w: %q first segment starts at %d, expected 0", ErrInvalidProgram, p.ID, p.Segments[0].StartTime)
	}
	for i, s := range p.Segments {
		if s.StartTime < 0 || s.EndTime <= s.StartTime {
			return fmt.Errorf("%w: %q segment %d has range [%d, %d)", ErrInvalidProgram, p.ID, i, s.StartTime, s.EndTime)
		}
		if i > 0 && p.Segments[i-1].EndTime != s.StartTime {
			return fmt.Errorf("%w: %q segment %d starts at %d but segment %d ends at %d",
				ErrInvalidProgram, p.ID, i, s.StartTime, i-1, p.Segments[i-1].EndTime)
		}
	}
	if p.TotalDuration < 0 {
		return fmt.Errorf("%w: %q total duration %d is negative", ErrInvalidProgram, p.ID, p.TotalDuration)
	}
	return nil
}
