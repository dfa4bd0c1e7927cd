package timer

import (
	"log"
	"sync"
	"time"

	"github.com/lowaak/tabata-timer/internal/engine"
	"github.com/lowaak/tabata-timer/internal/events"
	"github.com/lowaak/tabata-timer/internal/go_func_utils"
	"github.com/lowaak/tabata-timer/internal/program"
)

// sessionCommandKind represents commands sent to the clock goroutine
type sessionCommandKind int

const (
	cmdStart sessionCommandKind = iota
	cmdPause
	cmdReset
	cmdLoad
	cmdToggle
)

type sessionCommand struct {
	kind    sessionCommandKind
	program *program.Program // cmdLoad only
}

// SessionManager is the clock driver: it owns the engine and the ticker and
// serializes every engine call on one goroutine.
type SessionManager struct {
	model        *UIModel
	logger       *log.Logger
	tickInterval time.Duration
	signalEvent  *events.CallbackEvent[SignalEvent]
	now          func() time.Time

	// protected by mu; mutated only on the clock goroutine
	mu     sync.RWMutex
	engine *engine.Engine
	status SessionStatus

	// Goroutine management
	cmdChan      chan sessionCommand
	doneChan     chan struct{} // Closed to signal shutdown
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewSessionManagerArgs holds the arguments for creating a SessionManager
type NewSessionManagerArgs struct {
	Model        *UIModel
	Logger       *log.Logger
	Defaults     program.IntervalDefaults
	TickInterval time.Duration // zero selects DefaultTickInterval
}

// NewSessionManager creates the manager and starts its clock goroutine
func NewSessionManager(args NewSessionManagerArgs) *SessionManager {
	if args.Model == nil {
		panic("SessionManager: model cannot be nil")
	}
	if args.Logger == nil {
		panic("SessionManager: logger cannot be nil")
	}
	interval := args.TickInterval
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	sm := &SessionManager{
		model:        args.Model,
		logger:       args.Logger,
		tickInterval: interval,
		signalEvent:  events.NewCallbackEvent[SignalEvent](false),
		now:          time.Now,
		engine:       engine.New(args.Defaults),
		status:       SessionStatusIdle,
		cmdChan:      make(chan sessionCommand, 1),
		doneChan:     make(chan struct{}),
	}

	go_func_utils.SafeGoWait(args.Logger, &sm.wg, sm.runClockLoop)

	sm.model.SetSessionState(sm.GetState())
	return sm
}

// ListenToSignals registers a sink for engine signals. Sinks run on the clock
// goroutine and must not block.
func (sm *SessionManager) ListenToSignals(sink func(SignalEvent)) func() {
	return sm.signalEvent.Listen(sink)
}

// GetState returns the current session state
func (sm *SessionManager) GetState() SessionState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.buildState()
}

// Load attaches a program and primes the countdown without starting the
// clock. A running or paused session is discarded.
func (sm *SessionManager) Load(p *program.Program) {
	if p == nil {
		sm.logger.Printf("SessionManager: Cannot load a nil program")
		return
	}
	sm.send(sessionCommand{kind: cmdLoad, program: p})
}

// Start starts a new run, or resumes a paused one
func (sm *SessionManager) Start() {
	sm.send(sessionCommand{kind: cmdStart})
}

// Pause stops the clock, keeping the run's state
func (sm *SessionManager) Pause() {
	sm.send(sessionCommand{kind: cmdPause})
}

// Toggle pauses a running timer and starts or resumes otherwise
func (sm *SessionManager) Toggle() {
	sm.send(sessionCommand{kind: cmdToggle})
}

// Reset stops the clock and returns to the primed first segment
func (sm *SessionManager) Reset() {
	sm.send(sessionCommand{kind: cmdReset})
}

// Shutdown stops the clock goroutine.
// Safe to call multiple times - only the first call has effect
func (sm *SessionManager) Shutdown() {
	sm.shutdownOnce.Do(func() {
		sm.logger.Printf("SessionManager: Shutting down")
		close(sm.doneChan)
		sm.wg.Wait()
		sm.logger.Printf("SessionManager: Shutdown complete")
	})
}

func (sm *SessionManager) send(cmd sessionCommand) {
	select {
	case <-sm.doneChan:
		sm.logger.Printf("SessionManager: Ignoring command after shutdown")
		return
	default:
	}
	select {
	case sm.cmdChan <- cmd:
	case <-sm.doneChan:
		sm.logger.Printf("SessionManager: Ignoring command after shutdown")
	}
}

// buildState MUST be called with mu held (at least read lock).
func (sm *SessionManager) buildState() SessionState {
	return SessionState{
		Status:   sm.status,
		Snapshot: sm.engine.Snapshot(),
	}
}

// transition is the outcome of one command or tick, applied after the lock
// is released
type transition struct {
	state      SessionState
	signals    []engine.Signal
	skip       bool // nothing changed, publish nothing
	startClock bool
	stopClock  bool
}

// handleCommand applies a command under lock
func (sm *SessionManager) handleCommand(cmd sessionCommand) transition {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	switch cmd.kind {
	case cmdLoad:
		if err := sm.engine.Load(cmd.program); err != nil {
			sm.logger.Printf("SessionManager: Cannot load program %q: %v", cmd.program.ID, err)
			return transition{skip: true}
		}
		sm.logDiagnostics()
		sm.status = SessionStatusReady
		sm.logger.Printf("SessionManager: Program '%s' loaded (%s)", cmd.program.Name, engine.FormatClock(cmd.program.SegmentSum()))
		return transition{state: sm.buildState(), stopClock: true}

	case cmdToggle:
		if sm.status == SessionStatusRunning {
			return sm.pause()
		}
		return sm.start()

	case cmdStart:
		return sm.start()

	case cmdPause:
		return sm.pause()

	case cmdReset:
		if sm.status == SessionStatusIdle {
			sm.logger.Printf("SessionManager: No program to reset")
			return transition{skip: true}
		}
		sm.engine.Reset()
		sm.status = SessionStatusReady
		sm.logger.Printf("SessionManager: Timer reset")
		return transition{state: sm.buildState(), stopClock: true}
	}

	return transition{skip: true}
}

// start MUST be called with mu held.
func (sm *SessionManager) start() transition {
	switch sm.status {
	case SessionStatusIdle:
		sm.logger.Printf("SessionManager: No program loaded")
	case SessionStatusRunning:
		// double start: the clock is already active
		sm.logger.Printf("SessionManager: Timer already running")
	case SessionStatusPaused:
		sm.status = SessionStatusRunning
		sm.logger.Printf("SessionManager: Timer resumed")
		return transition{state: sm.buildState(), startClock: true}
	case SessionStatusReady, SessionStatusCompleted:
		signals, err := sm.engine.Initialize(sm.engine.Program())
		if err != nil {
			sm.logger.Printf("SessionManager: Cannot start: %v", err)
			return transition{skip: true}
		}
		sm.logDiagnostics()
		sm.status = SessionStatusRunning
		sm.logger.Printf("SessionManager: Timer started")
		return transition{state: sm.buildState(), signals: signals, startClock: true}
	}
	return transition{skip: true}
}

// pause MUST be called with mu held.
func (sm *SessionManager) pause() transition {
	if sm.status != SessionStatusRunning {
		sm.logger.Printf("SessionManager: Cannot pause - timer not running")
		return transition{skip: true}
	}
	sm.status = SessionStatusPaused
	sm.logger.Printf("SessionManager: Timer paused")
	return transition{state: sm.buildState(), stopClock: true}
}

// handleTick advances the engine by one tick under lock
func (sm *SessionManager) handleTick() transition {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	// a tick that raced with pause/reset
	if sm.status != SessionStatusRunning {
		return transition{skip: true}
	}

	signals, err := sm.engine.Tick()
	if err != nil {
		sm.logger.Printf("SessionManager: Tick rejected: %v", err)
		sm.status = SessionStatusReady
		return transition{state: sm.buildState(), stopClock: true}
	}

	result := transition{state: sm.buildState(), signals: signals}
	if sm.engine.State().RunPhase == engine.RunPhaseCompleted {
		sm.status = SessionStatusCompleted
		result.state.Status = SessionStatusCompleted
		result.stopClock = true
	}
	return result
}

// logDiagnostics MUST be called with mu held.
func (sm *SessionManager) logDiagnostics() {
	for _, d := range sm.engine.Diagnostics() {
		sm.logger.Printf("SessionManager: %v", d)
	}
}

// publish pushes the new state to the model and fans signals out to sinks.
// No lock held - only external calls.
func (sm *SessionManager) publish(t transition) {
	sm.model.SetSessionState(t.state)

	at := sm.now()
	for _, s := range t.signals {
		switch s {
		case engine.SignalPhaseChanged:
			msg := t.state.Snapshot.Label
			if round := t.state.Snapshot.RoundText(); round != "" {
				msg += " (" + round + ")"
			}
			sm.logger.Printf("SessionManager: Phase changed -> %s", msg)
		case engine.SignalWorkoutComplete:
			sm.logger.Printf("SessionManager: Workout complete!")
		}
		sm.signalEvent.Notify(SignalEvent{Signal: s, Snapshot: t.state.Snapshot, At: at})
	}
}

// runClockLoop is the goroutine that owns the ticker.
func (sm *SessionManager) runClockLoop() {
	ticker := time.NewTicker(sm.tickInterval)
	ticker.Stop() // Start stopped, will be started when the timer starts

	for {
		select {
		case <-sm.doneChan:
			ticker.Stop()
			sm.logger.Printf("SessionManager: Goroutine exiting")
			return

		case cmd := <-sm.cmdChan:
			result := sm.handleCommand(cmd)
			sm.applyClock(ticker, result)

		case <-ticker.C:
			result := sm.handleTick()
			sm.applyClock(ticker, result)
		}
	}
}

func (sm *SessionManager) applyClock(ticker *time.Ticker, t transition) {
	if t.skip {
		return
	}
	if t.stopClock {
		ticker.Stop()
	}
	if t.startClock {
		ticker.Reset(sm.tickInterval)
	}
	sm.publish(t)
}
