package timer

import (
	"fmt"
	"log"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lowaak/tabata-timer/internal/engine"
	"github.com/lowaak/tabata-timer/internal/program"
)

// Page names for tview.Pages
const (
	pageProgramSelection = "program_selection"
	pageTimer            = "timer"
)

const progressBarWidth = 30

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger      *log.Logger
	app         *tview.Application
	model       *UIModel
	currentMode UIMode

	// Root container that holds all pages
	pages *tview.Pages

	// Shared components (visible in all modes)
	logView  *tview.TextView
	mainFlex *tview.Flex // Main layout: mode content on left, logs on right

	// Program Selection mode components
	programSelectionFlex       *tview.Flex
	programSelectionTabWidgets []*tview.Box
	programList                *tview.List
	programDetailsPanel        *tview.TextView
	programs                   []ProgramSummary

	// Timer mode components
	timerFlex       *tview.Flex
	timerTabWidgets []*tview.Box
	clockPanel      *tview.TextView
	segmentPanel    *tview.TextView
	sessionStatus   SessionStatus
}

func NewCursesUIView(logger *log.Logger, app *tview.Application, model *UIModel) *CursesUIViewImpl {
	if logger == nil {
		panic("CursesUIView: logger cannot be nil")
	}
	if app == nil {
		panic("CursesUIView: app cannot be nil")
	}
	return &CursesUIViewImpl{
		logger:      logger,
		app:         app,
		model:       model,
		currentMode: UIModeProgramSelection,
	}
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *UIController) {
	// No SetChangedFunc with app.Draw() here: it can hang during shutdown.
	// BaseUIView listeners call Draw() after updating content.
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	ui.pages = tview.NewPages()

	ui.initProgramSelectionMode(controller)
	ui.initTimerMode()

	ui.pages.AddPage(pageProgramSelection, ui.programSelectionFlex, true, true)
	ui.pages.AddPage(pageTimer, ui.timerFlex, true, false)

	// Create main layout: pages on left, logs on right
	ui.mainFlex = tview.NewFlex().
		AddItem(ui.pages, 0, 2, true).
		AddItem(ui.logView, 0, 1, false)

	if ui.model != nil {
		ui.SetProgramList(ui.model.GetPrograms())
		ui.SetSelectedProgram(ui.model.GetUIState().SelectedProgramID)
		ui.UpdateSessionState(ui.model.GetSessionState())
	}

	ui.setFocusForCurrentMode()
}

// initProgramSelectionMode sets up the Program Selection mode UI
func (ui *CursesUIViewImpl) initProgramSelectionMode(controller *UIController) {
	ui.programList = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.logger.Printf("UI: Program selected: index=%d, name=%s", index, mainText)
			controller.OnProgramSelected(index)
		}).
		SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.updateProgramDetailsDisplay(index)
		})
	ui.programList.SetBorder(true).SetTitle(" Programs ")

	ui.programDetailsPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.programDetailsPanel.SetBorder(true).SetTitle(" Program Details ")
	ui.updateProgramDetailsDisplay(-1)

	ui.programSelectionTabWidgets = append(ui.programSelectionTabWidgets, ui.programList.Box)
	ui.programSelectionTabWidgets = append(ui.programSelectionTabWidgets, ui.programDetailsPanel.Box)

	ui.programSelectionFlex = tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ui.programList, 0, 1, true).
		AddItem(ui.programDetailsPanel, 0, 1, false)
}

// initTimerMode sets up the Timer mode UI
func (ui *CursesUIViewImpl) initTimerMode() {
	ui.clockPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	ui.clockPanel.SetBorder(true).SetTitle(" Timer ")

	ui.segmentPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.segmentPanel.SetBorder(true).SetTitle(" Segment ")

	ui.updateTimerDisplay(SessionState{Status: SessionStatusIdle})

	ui.timerTabWidgets = append(ui.timerTabWidgets, ui.clockPanel.Box)
	ui.timerTabWidgets = append(ui.timerTabWidgets, ui.segmentPanel.Box)

	ui.timerFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.clockPanel, 0, 1, true).
		AddItem(ui.segmentPanel, 0, 1, false)
}

// SetProgramList populates the program selection list
func (ui *CursesUIViewImpl) SetProgramList(programs []ProgramSummary) {
	ui.programs = programs
	current := ui.programList.GetCurrentItem()
	ui.programList.Clear()

	for _, p := range programs {
		ui.programList.AddItem(p.Name, engine.FormatClock(p.Duration), 0, nil)
	}

	if len(programs) > 0 {
		if current < 0 || current >= len(programs) {
			current = 0
		}
		ui.programList.SetCurrentItem(current)
		ui.updateProgramDetailsDisplay(current)
	}
}

// SetSelectedProgram highlights the program with the given id
func (ui *CursesUIViewImpl) SetSelectedProgram(id string) {
	for i, p := range ui.programs {
		if p.ID == id {
			ui.programList.SetCurrentItem(i)
			ui.updateProgramDetailsDisplay(i)
			return
		}
	}
}

// updateProgramDetailsDisplay formats and displays the program details
func (ui *CursesUIViewImpl) updateProgramDetailsDisplay(index int) {
	if ui.programDetailsPanel == nil {
		return
	}

	var text string

	if index < 0 || index >= len(ui.programs) {
		text = "\n\n  [yellow]Program Selection[white]\n\n"
		text += "  Select a program from the list to view details.\n\n"
		text += "  [gray]Press Enter to load the selected program.[white]\n"
	} else {
		p := ui.programs[index]
		text = "\n"
		text += fmt.Sprintf("  [yellow]%s[white]\n", tview.Escape(p.Name))
		if p.Description != "" {
			text += fmt.Sprintf("  [gray]%s[white]\n", tview.Escape(p.Description))
		}
		text += "\n"
		text += fmt.Sprintf("  [gray]Session duration:[white] %s\n", engine.FormatClock(p.Duration))
		text += fmt.Sprintf("  [gray]Segments:[white] %d\n\n", p.Segments)

		text += "  [gray]Structure:[white]\n"
		if p.Program != nil {
			for i, seg := range p.Program.Segments {
				text += fmt.Sprintf("    %d. %s\n", i+1, formatSegmentLine(seg))
			}
		}
		text += "\n  [green]Press Enter to load this program[white]\n"
	}

	ui.programDetailsPanel.SetText(text)
}

// formatSegmentLine describes a segment in one line for the details panel
func formatSegmentLine(seg program.Segment) string {
	line := fmt.Sprintf("%s-%s %s", engine.FormatClock(seg.StartTime), engine.FormatClock(seg.EndTime), tview.Escape(seg.Name))
	if seg.IsIntervalBlock && seg.WorkSeconds > 0 && seg.RestSeconds > 0 {
		line += fmt.Sprintf(" [gray](%ds/%ds", seg.WorkSeconds, seg.RestSeconds)
		if seg.Rounds > 0 {
			line += fmt.Sprintf(" x%d", seg.Rounds)
		}
		line += ")[white]"
	} else if seg.IsIntervalBlock {
		line += " [gray](intervals)[white]"
	}
	return line
}

// SetMode switches the UI to the specified mode
func (ui *CursesUIViewImpl) SetMode(mode UIMode) {
	if ui.currentMode == mode {
		return
	}

	ui.currentMode = mode

	switch mode {
	case UIModeProgramSelection:
		ui.pages.SwitchToPage(pageProgramSelection)
	case UIModeTimer:
		ui.pages.SwitchToPage(pageTimer)
	}

	ui.setFocusForCurrentMode()
}

// GetCurrentMode returns the currently active UI mode
func (ui *CursesUIViewImpl) GetCurrentMode() UIMode {
	return ui.currentMode
}

// setFocusForCurrentMode sets focus to the first widget in the current mode
func (ui *CursesUIViewImpl) setFocusForCurrentMode() {
	widgets := ui.getTabWidgetsForCurrentMode()
	if len(widgets) > 0 {
		ui.app.SetFocus(widgets[0])
	}
}

// getTabWidgetsForCurrentMode returns the tab widgets for the current mode
func (ui *CursesUIViewImpl) getTabWidgetsForCurrentMode() []*tview.Box {
	switch ui.currentMode {
	case UIModeProgramSelection:
		return ui.programSelectionTabWidgets
	case UIModeTimer:
		return ui.timerTabWidgets
	default:
		return nil
	}
}

// SetupKeyboardHandlers sets up keyboard event handlers
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *UIController) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// Number keys for mode switching
		if event.Key() == tcell.KeyRune {
			if mode, ok := GetUIModeByKey(event.Rune()); ok {
				// Delegate to controller - it will update the model, which will notify us
				controller.OnModeChange(mode)
				return nil
			}
		}

		// Tab to switch focus between widgets in current mode
		if event.Key() == tcell.KeyTab {
			widgets := ui.getTabWidgetsForCurrentMode()
			widgetCount := len(widgets)
			if widgetCount > 0 {
				for i := 0; i < widgetCount+1; i++ {
					idx := i % widgetCount
					if widgets[idx].HasFocus() {
						nextIdx := (idx + 1) % widgetCount
						ui.app.SetFocus(widgets[nextIdx])
						break
					}
				}
			}
			return nil
		}

		// Escape to quit
		if event.Key() == tcell.KeyEscape {
			controller.OnEscapeKey()
			return nil
		}

		// Space toggles the timer on every screen
		if event.Key() == tcell.KeyRune && event.Rune() == ' ' {
			controller.ToggleTimer()
			return nil
		}

		if ui.currentMode == UIModeTimer {
			if event.Key() == tcell.KeyRune && (event.Rune() == 'r' || event.Rune() == 'R') {
				controller.ResetTimer()
				return nil
			}
		}

		return event
	})
}

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesUIViewImpl) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

// ClearLogView clears the log view
func (ui *CursesUIViewImpl) ClearLogView() {
	ui.logView.Clear()
}

// WriteLogLine writes a line to the log view
func (ui *CursesUIViewImpl) WriteLogLine(line string) error {
	_, err := fmt.Fprint(ui.logView, tview.Escape(line))
	return err
}

// Draw refreshes/redraws the UI
func (ui *CursesUIViewImpl) Draw() error {
	ui.app.Draw()
	return nil
}

// Run starts the UI and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	// SetRoot must be called before setting focus, otherwise focus may be reset
	ui.app.SetRoot(ui.mainFlex, true)
	ui.setFocusForCurrentMode()
	return ui.app.Run()
}

// Stop stops the UI framework
func (ui *CursesUIViewImpl) Stop() {
	ui.app.Stop()
}

// UpdateSessionState updates the countdown display
func (ui *CursesUIViewImpl) UpdateSessionState(state SessionState) {
	ui.sessionStatus = state.Status
	ui.updateTimerDisplay(state)
}

// updateTimerDisplay renders the clock and segment panels
func (ui *CursesUIViewImpl) updateTimerDisplay(state SessionState) {
	if ui.clockPanel == nil || ui.segmentPanel == nil {
		return
	}
	ui.clockPanel.SetText(formatClockPanel(state))
	ui.segmentPanel.SetText(formatSegmentPanel(state))
}

// PhaseColor returns the tview colour name for the phase shown in snap
func PhaseColor(snap engine.Snapshot) string {
	switch snap.RunPhase {
	case engine.RunPhaseCompleted:
		return "green"
	case engine.RunPhaseRunning:
		if !snap.IsInterval {
			return "aqua"
		}
		if snap.MicroPhase == engine.MicroPhaseRest {
			return "blue"
		}
		return "red"
	default:
		return "yellow"
	}
}

// formatProgressBar draws fraction in [0, 1] as a fixed-width bar
func formatProgressBar(fraction float64, width int, color string) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	return fmt.Sprintf("[%s]%s[gray]%s[white]", color, strings.Repeat("█", filled), strings.Repeat("░", width-filled))
}

func formatClockPanel(state SessionState) string {
	snap := state.Snapshot
	if state.Status == SessionStatusIdle || snap.Program == nil {
		text := "\n\n[gray]No program loaded[white]\n\n"
		text += "Go to Program Selection (press 1) to load a program.\n"
		return text
	}

	color := PhaseColor(snap)
	text := "\n"
	text += fmt.Sprintf("[yellow]%s[white]\n\n", tview.Escape(snap.Program.Name))
	text += fmt.Sprintf("[%s::b]%s[white::-]\n\n", color, snap.RemainingText())

	label := snap.Label
	if state.Status == SessionStatusPaused {
		label += " (PAUSED)"
	}
	text += fmt.Sprintf("[%s]%s[white]\n", color, tview.Escape(label))
	if round := snap.RoundText(); round != "" {
		text += round + "\n"
	}
	text += "\n" + formatProgressBar(snap.Progress, progressBarWidth, color) + "\n\n"

	text += fmt.Sprintf("[gray]Elapsed:[white] %s / %s\n\n",
		engine.FormatClock(snap.TotalElapsedSeconds), engine.FormatClock(snap.Program.SegmentSum()))

	text += fmt.Sprintf("[yellow]Space[white] %s  |  [yellow]R[white] Reset  |  [yellow]1[white] Programs  |  [yellow]Esc[white] Quit\n",
		ToggleLabel(state.Status))
	return text
}

func formatSegmentPanel(state SessionState) string {
	snap := state.Snapshot
	if snap.Program == nil {
		return ""
	}

	text := "\n"
	if seg := snap.Segment; seg != nil {
		text += fmt.Sprintf("  [cyan]%s[white] (%d/%d)\n", tview.Escape(seg.Name), snap.CurrentSegmentIndex+1, len(snap.Program.Segments))
		if seg.ActivityType != "" {
			text += fmt.Sprintf("  [gray]Activity:[white]   %s\n", tview.Escape(seg.ActivityType))
		}
		if seg.CadenceHint != "" {
			text += fmt.Sprintf("  [gray]Cadence:[white]    %s\n", tview.Escape(seg.CadenceHint))
		}
		if seg.ResistanceHint != "" {
			text += fmt.Sprintf("  [gray]Resistance:[white] %s\n", tview.Escape(seg.ResistanceHint))
		}
		if seg.Notes != "" {
			text += fmt.Sprintf("  [gray]Notes:[white]      %s\n", tview.Escape(seg.Notes))
		}
		if snap.IsInterval {
			text += fmt.Sprintf("  [gray]Pattern:[white]    %ds work / %ds rest x%d\n",
				snap.Pattern.WorkSeconds, snap.Pattern.RestSeconds, snap.Pattern.Rounds)
		}
	}

	switch {
	case snap.RunPhase == engine.RunPhaseCompleted:
		text += "\n  [green]Workout complete![white]\n"
	case snap.NextSegment != nil:
		text += fmt.Sprintf("\n  [gray]Next:[white] %s (%s)\n",
			tview.Escape(snap.NextSegment.Name), engine.FormatClock(program.SegmentDuration(*snap.NextSegment)))
	default:
		text += "\n  [gray]Next:[white] [green]Finish![white]\n"
	}
	return text
}
