package timer

import (
	"bytes"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lowaak/tabata-timer/internal/engine"
	"github.com/lowaak/tabata-timer/internal/program"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// syncBuffer is a log destination that can be read while goroutines write
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger() (*log.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return log.New(buf, "", 0), buf
}

// newTestModel returns a model without persistence
func newTestModel(t *testing.T, logger *log.Logger) *UIModel {
	t.Helper()
	model := NewUIModel(logger, make(chan string), "")
	t.Cleanup(model.Shutdown)
	return model
}

// newTestSession returns a manager whose clock never fires on its own, so
// tests drive it through handleCommand and handleTick
func newTestSession(t *testing.T) (*SessionManager, *UIModel, *syncBuffer) {
	t.Helper()
	logger, buf := newTestLogger()
	model := newTestModel(t, logger)
	sm := NewSessionManager(NewSessionManagerArgs{
		Model:        model,
		Logger:       logger,
		Defaults:     program.DefaultIntervalDefaults,
		TickInterval: time.Hour,
	})
	t.Cleanup(sm.Shutdown)
	return sm, model, buf
}

// shortProgram: 5 s lead-in, then 2 rounds of 4 s work / 2 s rest
func shortProgram() *program.Program {
	return &program.Program{
		ID:            "short",
		Name:          "Short",
		TotalDuration: 17,
		Segments: []program.Segment{
			{StartTime: 0, EndTime: 5, Name: "Get Ready"},
			{StartTime: 5, EndTime: 17, Name: "Block", IsIntervalBlock: true, WorkSeconds: 4, RestSeconds: 2, Rounds: 2},
		},
	}
}

func apply(sm *SessionManager, tr transition) transition {
	if !tr.skip {
		sm.publish(tr)
	}
	return tr
}

func loadAndStart(t *testing.T, sm *SessionManager) {
	t.Helper()
	require.False(t, apply(sm, sm.handleCommand(sessionCommand{kind: cmdLoad, program: shortProgram()})).skip)
	require.False(t, apply(sm, sm.handleCommand(sessionCommand{kind: cmdStart})).skip)
}

func TestNewSessionManager_NilDependenciesPanic(t *testing.T) {
	logger, _ := newTestLogger()
	model := newTestModel(t, logger)

	assert.Panics(t, func() { NewSessionManager(NewSessionManagerArgs{Logger: logger}) })
	assert.Panics(t, func() { NewSessionManager(NewSessionManagerArgs{Model: model}) })
}

func TestSessionManager_InitialStateIdle(t *testing.T) {
	sm, model, _ := newTestSession(t)

	assert.Equal(t, SessionStatusIdle, sm.GetState().Status)
	assert.Equal(t, SessionStatusIdle, model.GetSessionState().Status)
	assert.Equal(t, time.Hour, sm.tickInterval)
}

func TestSessionManager_DefaultTickInterval(t *testing.T) {
	logger, _ := newTestLogger()
	model := newTestModel(t, logger)
	sm := NewSessionManager(NewSessionManagerArgs{Model: model, Logger: logger, Defaults: program.DefaultIntervalDefaults})
	defer sm.Shutdown()

	assert.Equal(t, DefaultTickInterval, sm.tickInterval)
}

func TestSessionManager_LoadPrimesCountdown(t *testing.T) {
	sm, model, _ := newTestSession(t)

	tr := apply(sm, sm.handleCommand(sessionCommand{kind: cmdLoad, program: shortProgram()}))
	require.False(t, tr.skip)
	assert.True(t, tr.stopClock)
	assert.False(t, tr.startClock)
	assert.Empty(t, tr.signals)

	state := model.GetSessionState()
	assert.Equal(t, SessionStatusReady, state.Status)
	assert.Equal(t, engine.RunPhaseIdle, state.Snapshot.RunPhase)
	assert.Equal(t, 5, state.Snapshot.TimeRemaining)
	assert.Equal(t, "Ready", state.Snapshot.Label)
	assert.Equal(t, "short", state.Snapshot.Program.ID)
}

func TestSessionManager_LoadInvalidProgramIgnored(t *testing.T) {
	sm, _, buf := newTestSession(t)

	tr := sm.handleCommand(sessionCommand{kind: cmdLoad, program: &program.Program{ID: "empty"}})
	assert.True(t, tr.skip)
	assert.Equal(t, SessionStatusIdle, sm.GetState().Status)
	assert.Contains(t, buf.String(), `Cannot load program "empty"`)
}

func TestSessionManager_StartWithoutProgram(t *testing.T) {
	sm, _, buf := newTestSession(t)

	assert.True(t, sm.handleCommand(sessionCommand{kind: cmdStart}).skip)
	assert.True(t, sm.handleCommand(sessionCommand{kind: cmdReset}).skip)
	assert.True(t, sm.handleCommand(sessionCommand{kind: cmdPause}).skip)
	assert.Contains(t, buf.String(), "No program loaded")
	assert.Equal(t, SessionStatusIdle, sm.GetState().Status)
}

func TestSessionManager_StartEmitsPhaseChanged(t *testing.T) {
	sm, model, _ := newTestSession(t)
	apply(sm, sm.handleCommand(sessionCommand{kind: cmdLoad, program: shortProgram()}))

	tr := apply(sm, sm.handleCommand(sessionCommand{kind: cmdStart}))
	require.False(t, tr.skip)
	assert.True(t, tr.startClock)
	assert.Equal(t, []engine.Signal{engine.SignalPhaseChanged}, tr.signals)

	state := model.GetSessionState()
	assert.Equal(t, SessionStatusRunning, state.Status)
	assert.Equal(t, "Get Ready", state.Snapshot.Label)
	assert.Equal(t, 5, state.Snapshot.TimeRemaining)
}

func TestSessionManager_DoubleStartIgnored(t *testing.T) {
	sm, _, buf := newTestSession(t)
	loadAndStart(t, sm)
	apply(sm, sm.handleTick())

	tr := sm.handleCommand(sessionCommand{kind: cmdStart})
	assert.True(t, tr.skip)
	assert.False(t, tr.startClock)
	assert.Contains(t, buf.String(), "Timer already running")

	// the run was not restarted
	assert.Equal(t, 1, sm.GetState().Snapshot.TotalElapsedSeconds)
}

func TestSessionManager_PauseResumeKeepsProgress(t *testing.T) {
	sm, _, _ := newTestSession(t)
	loadAndStart(t, sm)
	for i := 0; i < 3; i++ {
		apply(sm, sm.handleTick())
	}

	tr := apply(sm, sm.handleCommand(sessionCommand{kind: cmdPause}))
	require.False(t, tr.skip)
	assert.True(t, tr.stopClock)
	assert.Equal(t, SessionStatusPaused, tr.state.Status)
	assert.Equal(t, 2, tr.state.Snapshot.TimeRemaining)

	// a tick that was already in flight is discarded
	assert.True(t, sm.handleTick().skip)
	assert.Equal(t, 2, sm.GetState().Snapshot.TimeRemaining)

	tr = apply(sm, sm.handleCommand(sessionCommand{kind: cmdStart}))
	require.False(t, tr.skip)
	assert.True(t, tr.startClock)
	assert.Empty(t, tr.signals)
	assert.Equal(t, SessionStatusRunning, tr.state.Status)
	assert.Equal(t, 2, tr.state.Snapshot.TimeRemaining)
	assert.Equal(t, 3, tr.state.Snapshot.TotalElapsedSeconds)
}

func TestSessionManager_ToggleFollowsStatus(t *testing.T) {
	sm, _, _ := newTestSession(t)
	apply(sm, sm.handleCommand(sessionCommand{kind: cmdLoad, program: shortProgram()}))

	tr := apply(sm, sm.handleCommand(sessionCommand{kind: cmdToggle}))
	assert.Equal(t, SessionStatusRunning, tr.state.Status)
	assert.True(t, tr.startClock)

	tr = apply(sm, sm.handleCommand(sessionCommand{kind: cmdToggle}))
	assert.Equal(t, SessionStatusPaused, tr.state.Status)
	assert.True(t, tr.stopClock)

	tr = apply(sm, sm.handleCommand(sessionCommand{kind: cmdToggle}))
	assert.Equal(t, SessionStatusRunning, tr.state.Status)
	assert.Empty(t, tr.signals)
}

func TestSessionManager_ResetRewinds(t *testing.T) {
	sm, _, _ := newTestSession(t)
	loadAndStart(t, sm)
	for i := 0; i < 7; i++ {
		apply(sm, sm.handleTick())
	}

	tr := apply(sm, sm.handleCommand(sessionCommand{kind: cmdReset}))
	require.False(t, tr.skip)
	assert.True(t, tr.stopClock)
	assert.Equal(t, SessionStatusReady, tr.state.Status)
	assert.Equal(t, engine.RunPhaseIdle, tr.state.Snapshot.RunPhase)
	assert.Equal(t, 0, tr.state.Snapshot.TotalElapsedSeconds)
	assert.Equal(t, 0, tr.state.Snapshot.CurrentSegmentIndex)
	assert.Equal(t, 5, tr.state.Snapshot.TimeRemaining)

	assert.True(t, sm.handleTick().skip)
}

func TestSessionManager_RunsToCompletion(t *testing.T) {
	sm, model, _ := newTestSession(t)
	loadAndStart(t, sm)

	var last transition
	for i := 0; i < 17; i++ {
		last = apply(sm, sm.handleTick())
		require.False(t, last.skip, "tick %d", i+1)
		if i < 16 {
			require.False(t, last.stopClock, "tick %d", i+1)
		}
	}

	assert.True(t, last.stopClock)
	assert.Contains(t, last.signals, engine.SignalWorkoutComplete)
	assert.Equal(t, SessionStatusCompleted, last.state.Status)
	assert.Equal(t, "Completed!", last.state.Snapshot.Label)
	assert.Equal(t, 17, last.state.Snapshot.TotalElapsedSeconds)
	assert.Equal(t, SessionStatusCompleted, model.GetSessionState().Status)

	// no stray tick after completion
	assert.True(t, sm.handleTick().skip)

	// Start New
	tr := apply(sm, sm.handleCommand(sessionCommand{kind: cmdStart}))
	require.False(t, tr.skip)
	assert.Equal(t, SessionStatusRunning, tr.state.Status)
	assert.Equal(t, 0, tr.state.Snapshot.TotalElapsedSeconds)
	assert.Equal(t, 5, tr.state.Snapshot.TimeRemaining)
}

func TestSessionManager_LoadWhileRunningDiscardsRun(t *testing.T) {
	sm, _, _ := newTestSession(t)
	loadAndStart(t, sm)
	apply(sm, sm.handleTick())

	tr := apply(sm, sm.handleCommand(sessionCommand{kind: cmdLoad, program: shortProgram()}))
	assert.True(t, tr.stopClock)
	assert.Equal(t, SessionStatusReady, tr.state.Status)
	assert.Equal(t, 0, tr.state.Snapshot.TotalElapsedSeconds)
}

func TestSessionManager_SignalsFanOutToSinks(t *testing.T) {
	sm, _, _ := newTestSession(t)
	at := time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC)
	sm.now = func() time.Time { return at }

	var mu sync.Mutex
	var got []SignalEvent
	unregister := sm.ListenToSignals(func(ev SignalEvent) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev)
	})
	defer unregister()

	loadAndStart(t, sm)
	for i := 0; i < 5; i++ {
		apply(sm, sm.handleTick())
	}

	mu.Lock()
	defer mu.Unlock()
	signals := make([]engine.Signal, 0, len(got))
	for _, ev := range got {
		signals = append(signals, ev.Signal)
		assert.Equal(t, at, ev.At)
	}
	assert.Equal(t, []engine.Signal{
		engine.SignalPhaseChanged,
		engine.SignalCountdownWarning,
		engine.SignalCountdownWarning,
		engine.SignalCountdownWarning,
		engine.SignalPhaseChanged,
	}, signals)
	assert.Equal(t, "Get Ready", got[0].Snapshot.Label)
	assert.Equal(t, "Work!", got[4].Snapshot.Label)
	assert.Equal(t, 1, got[4].Snapshot.CurrentRound)
}

func TestSessionManager_LogsDiagnostics(t *testing.T) {
	sm, _, buf := newTestSession(t)
	p := shortProgram()
	p.Segments[1].RestSeconds = 0

	apply(sm, sm.handleCommand(sessionCommand{kind: cmdLoad, program: p}))
	assert.Contains(t, buf.String(), program.ErrMissingIntervalParameters.Error())
}

func TestSessionManager_ClockDrivesRunToCompletion(t *testing.T) {
	logger, _ := newTestLogger()
	model := newTestModel(t, logger)
	sm := NewSessionManager(NewSessionManagerArgs{
		Model:        model,
		Logger:       logger,
		Defaults:     program.DefaultIntervalDefaults,
		TickInterval: 2 * time.Millisecond,
	})
	defer sm.Shutdown()

	var mu sync.Mutex
	completions := 0
	sm.ListenToSignals(func(ev SignalEvent) {
		if ev.Signal == engine.SignalWorkoutComplete {
			mu.Lock()
			completions++
			mu.Unlock()
		}
	})

	sm.Load(shortProgram())
	sm.Start()

	require.Eventually(t, func() bool {
		return model.GetSessionState().Status == SessionStatusCompleted
	}, 5*time.Second, 5*time.Millisecond)

	state := sm.GetState()
	assert.Equal(t, 17, state.Snapshot.TotalElapsedSeconds)

	// the ticker is stopped: nothing moves after completion
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 17, sm.GetState().Snapshot.TotalElapsedSeconds)
	mu.Lock()
	assert.Equal(t, 1, completions)
	mu.Unlock()
}

func TestSessionManager_PauseStopsClock(t *testing.T) {
	logger, _ := newTestLogger()
	model := newTestModel(t, logger)
	sm := NewSessionManager(NewSessionManagerArgs{
		Model:        model,
		Logger:       logger,
		Defaults:     program.DefaultIntervalDefaults,
		TickInterval: 2 * time.Millisecond,
	})
	defer sm.Shutdown()

	sm.Load(shortProgram())
	sm.Start()
	require.Eventually(t, func() bool {
		return sm.GetState().Snapshot.TotalElapsedSeconds >= 2
	}, 5*time.Second, time.Millisecond)

	sm.Pause()
	require.Eventually(t, func() bool {
		return sm.GetState().Status == SessionStatusPaused
	}, 5*time.Second, time.Millisecond)

	elapsed := sm.GetState().Snapshot.TotalElapsedSeconds
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, elapsed, sm.GetState().Snapshot.TotalElapsedSeconds)
}

func TestSessionManager_ShutdownIsIdempotent(t *testing.T) {
	sm, _, buf := newTestSession(t)

	sm.Shutdown()
	sm.Shutdown()

	// commands after shutdown return instead of blocking
	sm.Start()
	sm.Toggle()
	sm.Load(shortProgram())
	assert.Contains(t, buf.String(), "Ignoring command after shutdown")
}

func TestSessionManager_LoadNilProgram(t *testing.T) {
	sm, _, buf := newTestSession(t)

	sm.Load(nil)
	assert.Contains(t, buf.String(), "Cannot load a nil program")
}
