package timer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/tabata-timer/internal/program"
)

func newTestController(t *testing.T) (*UIController, *UIModel, *SessionManager, *syncBuffer) {
	t.Helper()
	sm, model, buf := newTestSession(t)
	model.SetPrograms(SummarizePrograms(program.DefaultRegistry().All()))
	logger, _ := newTestLogger()
	return NewUIController(model, sm, logger), model, sm, buf
}

func waitForStatus(t *testing.T, sm *SessionManager, status SessionStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		return sm.GetState().Status == status
	}, time.Second, time.Millisecond, "waiting for %s", status)
}

func TestNewUIController_NilDependenciesPanic(t *testing.T) {
	sm, model, _ := newTestSession(t)
	logger, _ := newTestLogger()

	assert.Panics(t, func() { NewUIController(nil, sm, logger) })
	assert.Panics(t, func() { NewUIController(model, nil, logger) })
	assert.Panics(t, func() { NewUIController(model, sm, nil) })
}

func TestUIController_OnProgramSelected(t *testing.T) {
	c, model, sm, _ := newTestController(t)

	c.OnProgramSelected(1)

	waitForStatus(t, sm, SessionStatusReady)
	assert.Equal(t, "tabata-easy", sm.GetState().Snapshot.Program.ID)
	assert.Equal(t, UIModeTimer, model.GetUIState().Mode)
	assert.Equal(t, "tabata-easy", model.GetUIState().SelectedProgramID)
}

func TestUIController_OnProgramSelected_InvalidIndex(t *testing.T) {
	logger, logBuf := newTestLogger()
	sm, model, _ := newTestSession(t)
	c := NewUIController(model, sm, logger)

	c.OnProgramSelected(0)
	c.OnProgramSelected(-1)

	assert.Contains(t, logBuf.String(), "Invalid program index: 0")
	assert.Contains(t, logBuf.String(), "Invalid program index: -1")
	assert.Equal(t, UIModeProgramSelection, model.GetUIState().Mode)
	assert.Equal(t, SessionStatusIdle, sm.GetState().Status)
}

func TestUIController_SelectInitialProgram(t *testing.T) {
	t.Run("first known id wins", func(t *testing.T) {
		c, model, sm, _ := newTestController(t)

		require.True(t, c.SelectInitialProgram("missing", "", "tabata-hard", "tabata-easy"))
		waitForStatus(t, sm, SessionStatusReady)
		assert.Equal(t, "tabata-hard", sm.GetState().Snapshot.Program.ID)
		assert.Equal(t, "tabata-hard", model.GetUIState().SelectedProgramID)
		assert.Equal(t, UIModeProgramSelection, model.GetUIState().Mode)
	})

	t.Run("falls back to the first program", func(t *testing.T) {
		c, _, sm, _ := newTestController(t)

		require.True(t, c.SelectInitialProgram())
		waitForStatus(t, sm, SessionStatusReady)
		assert.Equal(t, program.SpinningTabata.ID, sm.GetState().Snapshot.Program.ID)
	})

	t.Run("no programs", func(t *testing.T) {
		sm, model, _ := newTestSession(t)
		logger, _ := newTestLogger()
		c := NewUIController(model, sm, logger)

		assert.False(t, c.SelectInitialProgram("tabata-easy"))
	})
}

func TestUIController_ToggleAndReset(t *testing.T) {
	c, _, sm, _ := newTestController(t)
	require.True(t, c.SelectInitialProgram("tabata-easy"))
	waitForStatus(t, sm, SessionStatusReady)

	c.ToggleTimer()
	waitForStatus(t, sm, SessionStatusRunning)

	c.ToggleTimer()
	waitForStatus(t, sm, SessionStatusPaused)

	c.ResetTimer()
	waitForStatus(t, sm, SessionStatusReady)
	assert.Equal(t, 0, sm.GetState().Snapshot.TotalElapsedSeconds)
}

func TestUIController_ToggleWithoutProgram(t *testing.T) {
	c, model, _, buf := newTestController(t)

	c.ToggleTimer()
	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "No program loaded")
	}, time.Second, time.Millisecond)
	assert.Equal(t, SessionStatusIdle, model.GetSessionState().Status)
}

func TestUIController_OnEscapeKeyRequestsClose(t *testing.T) {
	c, model, _, _ := newTestController(t)

	ch := make(chan struct{}, 1)
	unregister := model.ListenToCloseApplication(ch)
	defer unregister()

	c.OnEscapeKey()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("close not requested")
	}
}

func TestUIController_OnModeChange(t *testing.T) {
	c, model, _, _ := newTestController(t)

	c.OnModeChange(UIModeTimer)
	assert.Equal(t, UIModeTimer, model.GetUIState().Mode)

	c.OnModeChange(UIModeProgramSelection)
	assert.Equal(t, UIModeProgramSelection, model.GetUIState().Mode)
}
