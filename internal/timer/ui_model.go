package timer

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/tabata-timer/internal/events"
	"github.com/lowaak/tabata-timer/internal/go_func_utils"
)

// UIState holds the current state of the UI that views need to render
type UIState struct {
	Mode              UIMode
	SelectedProgramID string
}

type UIModel struct {
	logEvent              *events.ChannelEvent[string]
	closeApplicationEvent *events.ChannelEvent[struct{}]
	uiStateEvent          *events.ChannelEvent[UIState]
	uiState               UIState
	sessionStateEvent     *events.ChannelEvent[SessionState]
	sessionState          SessionState
	programsEvent         *events.ChannelEvent[[]ProgramSummary]
	programs              []ProgramSummary
	persistence           *uiModelPersistence
	logLines              []string
	logMu                 sync.RWMutex
	mu                    sync.RWMutex
	ctx                   context.Context
	cancel                context.CancelFunc
	wg                    sync.WaitGroup
	logger                *log.Logger
}

const maxLogLines = 1000

// NewUIModel creates the model. stateDir holds ui_state.json; an empty
// stateDir disables persistence.
func NewUIModel(logger *log.Logger, uiLogChan <-chan string, stateDir string) *UIModel {
	if logger == nil {
		panic("UIModel: logger cannot be nil")
	}
	if uiLogChan == nil {
		panic("UIModel: uiLogChan cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	model := &UIModel{
		logEvent:              events.NewChannelEvent[string](false),
		closeApplicationEvent: events.NewChannelEvent[struct{}](true),
		uiStateEvent:          events.NewChannelEvent[UIState](true),
		uiState:               UIState{Mode: UIModeProgramSelection},
		sessionStateEvent:     events.NewChannelEvent[SessionState](true),
		sessionState:          SessionState{Status: SessionStatusIdle},
		programsEvent:         events.NewChannelEvent[[]ProgramSummary](true),
		persistence:           newUIModelPersistence(logger, stateDir),
		logLines:              make([]string, 0, maxLogLines),
		ctx:                   ctx,
		cancel:                cancel,
		logger:                logger,
	}

	// Read from the UI log channel and populate logLines
	go_func_utils.SafeGoWait(model.logger, &model.wg, func() { model.readFromLogChannel(ctx, uiLogChan) })

	return model
}

// Shutdown stops all goroutines and waits for them to finish
func (m *UIModel) Shutdown() {
	m.logger.Println("UIModel: Shutting down")
	m.cancel()
	m.wg.Wait()
	m.logger.Println("UIModel: Shutdown complete")
}

// ListenToLog registers a channel to receive log messages
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToLog(ch chan<- string) func() {
	return m.logEvent.Listen(ch)
}

// ListenToCloseApplication registers a channel to receive close application signals
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToCloseApplication(ch chan<- struct{}) func() {
	return m.closeApplicationEvent.Listen(ch)
}

// RequestCloseApplication signals that the application should close
func (m *UIModel) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// ListenToUIState registers a channel to receive UI state changes
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToUIState(ch chan<- UIState) func() {
	return m.uiStateEvent.Listen(ch)
}

// GetUIState returns the current UI state
func (m *UIModel) GetUIState() UIState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uiState
}

// SetMode updates the current UI mode and notifies listeners
func (m *UIModel) SetMode(mode UIMode) {
	m.mu.Lock()
	if m.uiState.Mode == mode {
		m.mu.Unlock()
		return
	}
	m.uiState.Mode = mode
	state := m.uiState
	m.mu.Unlock()

	m.uiStateEvent.Notify(state)
}

// SetSelectedProgram records the selected program, remembers it for the next
// launch and notifies listeners
func (m *UIModel) SetSelectedProgram(id string) {
	m.mu.Lock()
	if m.uiState.SelectedProgramID == id {
		m.mu.Unlock()
		return
	}
	m.uiState.SelectedProgramID = id
	state := m.uiState
	m.mu.Unlock()

	m.persistence.setLastProgram(id)
	m.uiStateEvent.Notify(state)
}

// GetLastProgramID returns the program selected in a previous session, "" if none
func (m *UIModel) GetLastProgramID() string {
	return m.persistence.getLastProgram()
}

// ListenToSessionState registers a channel to receive timer state updates
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToSessionState(ch chan<- SessionState) func() {
	return m.sessionStateEvent.Listen(ch)
}

// GetSessionState returns the current timer state
func (m *UIModel) GetSessionState() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionState
}

// SetSessionState updates the timer state and notifies listeners
func (m *UIModel) SetSessionState(state SessionState) {
	m.mu.Lock()
	m.sessionState = state
	m.mu.Unlock()

	m.sessionStateEvent.Notify(state)
}

// ListenToPrograms registers a channel to receive program list changes
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToPrograms(ch chan<- []ProgramSummary) func() {
	return m.programsEvent.Listen(ch)
}

// GetPrograms returns a copy of the program list
func (m *UIModel) GetPrograms() []ProgramSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ProgramSummary(nil), m.programs...)
}

// SetPrograms replaces the program list and notifies listeners
func (m *UIModel) SetPrograms(programs []ProgramSummary) {
	m.mu.Lock()
	m.programs = append([]ProgramSummary(nil), programs...)
	listCopy := append([]ProgramSummary(nil), m.programs...)
	m.mu.Unlock()

	m.programsEvent.Notify(listCopy)
}

// readFromLogChannel reads log lines from the channel and populates logLines
func (m *UIModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				// Channel closed
				return
			}

			// Store in log lines buffer (max 1000 lines)
			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			// Notify listeners for immediate display
			m.logEvent.Notify(line)
		}
	}
}

// GetLogTail returns the last n lines of logs
func (m *UIModel) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}

	if n >= len(m.logLines) {
		result := make([]string, len(m.logLines))
		copy(result, m.logLines)
		return result
	}

	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}
