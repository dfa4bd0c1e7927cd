package timer

import (
	"log"
)

// UIController handles UI events and coordinates with the UIModel
type UIController struct {
	model          *UIModel
	sessionManager *SessionManager
	logger         *log.Logger
}

// NewUIController creates a new UIController with the given dependencies
func NewUIController(model *UIModel, sessionManager *SessionManager, logger *log.Logger) *UIController {
	if model == nil {
		panic("UIController: model cannot be nil")
	}
	if sessionManager == nil {
		panic("UIController: sessionManager cannot be nil")
	}
	if logger == nil {
		panic("UIController: logger cannot be nil")
	}

	return &UIController{
		model:          model,
		sessionManager: sessionManager,
		logger:         logger,
	}
}

// OnEscapeKey handles when the Escape key is pressed
func (c *UIController) OnEscapeKey() {
	c.model.RequestCloseApplication()
}

// OnModeChange handles when the user requests a mode change
func (c *UIController) OnModeChange(mode UIMode) {
	if info, ok := GetUIModeInfo(mode); ok {
		c.logger.Printf("Switching to %s mode", info.DisplayName)
	}
	c.model.SetMode(mode)
}

// --- Program Selection Methods ---

// OnProgramSelected loads the program at index into the timer and switches
// to the timer screen
func (c *UIController) OnProgramSelected(index int) {
	programs := c.model.GetPrograms()
	if index < 0 || index >= len(programs) {
		c.logger.Printf("Invalid program index: %d", index)
		return
	}

	summary := programs[index]
	c.logger.Printf("Program selected: %s", summary.Name)
	c.sessionManager.Load(summary.Program)
	c.model.SetSelectedProgram(summary.ID)
	c.OnModeChange(UIModeTimer)
}

// SelectInitialProgram preloads the first of the given ids that is in the
// program list, falling back to the first program. It stays on the
// program selection screen. Returns false when there are no programs.
func (c *UIController) SelectInitialProgram(ids ...string) bool {
	programs := c.model.GetPrograms()
	if len(programs) == 0 {
		c.logger.Printf("No programs available")
		return false
	}

	selected := 0
	found := false
	for _, id := range ids {
		if id == "" {
			continue
		}
		for i, p := range programs {
			if p.ID == id {
				selected = i
				found = true
				break
			}
		}
		if found {
			break
		}
		c.logger.Printf("Program %q not found", id)
	}

	summary := programs[selected]
	c.sessionManager.Load(summary.Program)
	c.model.SetSelectedProgram(summary.ID)
	return true
}

// --- Timer Methods ---

// ToggleTimer starts, pauses, or resumes the timer based on current state
func (c *UIController) ToggleTimer() {
	c.sessionManager.Toggle()
}

// ResetTimer stops the timer and rewinds to the start of the program
func (c *UIController) ResetTimer() {
	c.sessionManager.Reset()
}

// Shutdown stops the session manager
func (c *UIController) Shutdown() {
	c.sessionManager.Shutdown()
}
