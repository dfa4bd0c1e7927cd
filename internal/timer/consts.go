package timer

import (
	"time"

	"github.com/lowaak/tabata-timer/internal/engine"
	"github.com/lowaak/tabata-timer/internal/program"
)

// UIMode represents the current UI mode/screen
type UIMode int

const (
	UIModeProgramSelection UIMode = iota // Program list and details
	UIModeTimer                          // Running countdown
)

// UIModeInfo contains display information for a UI mode
type UIModeInfo struct {
	Mode        UIMode
	DisplayName string
	KeyBinding  rune // The number key to activate this mode (1-9)
}

// AllUIModes defines all available UI modes in order
var AllUIModes = []UIModeInfo{
	{Mode: UIModeProgramSelection, DisplayName: "Program Selection", KeyBinding: '1'},
	{Mode: UIModeTimer, DisplayName: "Timer", KeyBinding: '2'},
}

// GetUIModeByKey returns the mode for a given key binding
func GetUIModeByKey(key rune) (UIMode, bool) {
	for _, info := range AllUIModes {
		if info.KeyBinding == key {
			return info.Mode, true
		}
	}
	return 0, false
}

// GetUIModeInfo returns the info for a given mode
func GetUIModeInfo(mode UIMode) (UIModeInfo, bool) {
	for _, info := range AllUIModes {
		if info.Mode == mode {
			return info, true
		}
	}
	return UIModeInfo{}, false
}

// SessionStatus is the clock driver's view of the session
type SessionStatus int

const (
	SessionStatusIdle      SessionStatus = iota // No program loaded
	SessionStatusReady                          // Program loaded, countdown primed, clock stopped
	SessionStatusRunning                        // Clock ticking
	SessionStatusPaused                         // Clock stopped mid-run
	SessionStatusCompleted                      // Run finished
)

func (s SessionStatus) String() string {
	switch s {
	case SessionStatusIdle:
		return "idle"
	case SessionStatusReady:
		return "ready"
	case SessionStatusRunning:
		return "running"
	case SessionStatusPaused:
		return "paused"
	case SessionStatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// ToggleLabel is the caption of the start/pause control for a status
func ToggleLabel(status SessionStatus) string {
	switch status {
	case SessionStatusRunning:
		return "Pause"
	case SessionStatusPaused:
		return "Resume"
	case SessionStatusCompleted:
		return "Start New"
	default:
		return "Start"
	}
}

// SessionState holds what views need to render the timer
type SessionState struct {
	Status   SessionStatus
	Snapshot engine.Snapshot
}

// SignalEvent is one engine signal together with the state right after the
// tick that produced it
type SignalEvent struct {
	Signal   engine.Signal
	Snapshot engine.Snapshot
	At       time.Time
}

// ProgramSummary is a program list entry
type ProgramSummary struct {
	ID          string
	Name        string
	Description string
	Duration    int // seconds, segment sum
	Segments    int
	Program     *program.Program
}

// SummarizePrograms builds list entries in registry order
func SummarizePrograms(programs []*program.Program) []ProgramSummary {
	out := make([]ProgramSummary, 0, len(programs))
	for _, p := range programs {
		out = append(out, ProgramSummary{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Duration:    p.SegmentSum(),
			Segments:    len(p.Segments),
			Program:     p,
		})
	}
	return out
}

// Default tick period of the clock driver
const DefaultTickInterval = time.Second

// Buzzer pulse lengths per signal
const (
	WarningPulse  = 120 * time.Millisecond
	PhasePulse    = 500 * time.Millisecond
	CompletePulse = 1500 * time.Millisecond
)
