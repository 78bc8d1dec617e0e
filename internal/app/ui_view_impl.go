package app

import (
	"github.com/lowaak/mapty/internal/form"
	"github.com/lowaak/mapty/internal/workout"
)

// UIViewImpl defines the interface for framework-specific UI implementations
type UIViewImpl interface {
	// Initialize is called after construction to set up framework-specific widgets
	// controller is used to handle UI events
	Initialize(controller *UIController)

	// SetupKeyboardHandlers sets up keyboard event handlers
	// controller is used to handle keyboard events
	SetupKeyboardHandlers(controller *UIController)

	// Run starts the UI framework and blocks until it exits
	Run() error

	// Stop stops the UI framework
	Stop()

	// Draw refreshes/redraws the UI
	Draw() error

	// --- Log View ---

	// GetLogViewHeight returns the visible height of the log view
	GetLogViewHeight() int

	// ClearLogView clears the log view
	ClearLogView()

	// WriteLogLine writes a line to the log view
	WriteLogLine(line string) error

	// --- Sidebar ---

	// SetFormState shows, hides and fills the workout form
	SetFormState(state form.State)

	// SetWorkoutList replaces the rendered workout list
	SetWorkoutList(workouts []workout.Workout)

	// --- Map ---

	// SetMapStatus reflects the map lifecycle (locating, ready, unavailable)
	SetMapStatus(status MapStatus)

	// ShowAlert displays a notification that the user must dismiss
	ShowAlert(alert Alert)
}
