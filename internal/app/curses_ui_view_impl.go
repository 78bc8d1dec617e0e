package app

import (
	"fmt"
	"log"

	"github.com/gdamore/tcell/v2"
	"github.com/lowaak/mapty/internal/form"
	"github.com/lowaak/mapty/internal/workout"
	"github.com/rivo/tview"
)

// Sidebar page names
const (
	sidebarHint = "hint"
	sidebarForm = "form"
)

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger    *log.Logger
	app       *tview.Application
	queue     *UIQueue
	mapWidget *MapWidget

	// Root container: main layout plus the alert modal
	pages    *tview.Pages
	mainFlex *tview.Flex
	logView  *tview.TextView

	// Sidebar components
	sidebarPages   *tview.Pages
	form           *tview.Form
	typeDropDown   *tview.DropDown
	distanceField  *tview.InputField
	durationField  *tview.InputField
	cadenceField   *tview.InputField
	elevationField *tview.InputField
	workoutList    *tview.List
	workouts       []workout.Workout
	formStatus     form.Status
	formOpened     uint64
	formType       workout.Type

	// focus to restore when the alert is dismissed
	focusBeforeAlert tview.Primitive
}

func NewCursesUIView(logger *log.Logger, app *tview.Application, queue *UIQueue, mapWidget *MapWidget) *CursesUIViewImpl {
	if logger == nil {
		panic("CursesUIViewImpl: logger cannot be nil")
	}
	if app == nil {
		panic("CursesUIViewImpl: app cannot be nil")
	}
	if queue == nil {
		panic("CursesUIViewImpl: queue cannot be nil")
	}
	if mapWidget == nil {
		panic("CursesUIViewImpl: mapWidget cannot be nil")
	}
	return &CursesUIViewImpl{
		logger:     logger,
		app:        app,
		queue:      queue,
		mapWidget:  mapWidget,
		formStatus: form.StatusHidden,
		formType:   workout.TypeRunning,
	}
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *UIController) {
	// Note: Don't use SetChangedFunc with app.Draw(); BaseUIView's listeners draw after updates
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	helpView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetText(helpText)

	ui.initForm(controller)
	ui.initWorkoutList(controller)

	hint := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("\n[gray]Click on the map to log a workout[white]")
	ui.sidebarPages = tview.NewPages().
		AddPage(sidebarHint, hint, true, true).
		AddPage(sidebarForm, ui.form, true, false)

	sidebar := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(helpView, 3, 0, false).
		AddItem(ui.sidebarPages, 13, 0, false).
		AddItem(ui.workoutList, 0, 1, false)

	mapColumn := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.mapWidget, 0, 3, true).
		AddItem(ui.logView, 0, 1, false)

	ui.mainFlex = tview.NewFlex().
		AddItem(sidebar, 44, 0, false).
		AddItem(mapColumn, 0, 1, true)

	ui.pages = tview.NewPages().AddPage(pageMain, ui.mainFlex, true, true)
}

func (ui *CursesUIViewImpl) initForm(controller *UIController) {
	ui.typeDropDown = tview.NewDropDown().SetLabel("Type      ")
	options := make([]string, len(workout.AllTypes))
	for i, t := range workout.AllTypes {
		options[i] = t.DisplayName()
	}
	ui.typeDropDown.SetOptions(options, func(text string, index int) {
		if index >= 0 && index < len(workout.AllTypes) {
			controller.OnTypeSelected(workout.AllTypes[index])
		}
	})
	ui.typeDropDown.SetCurrentOption(0)

	ui.distanceField = ui.newMetricField(controller, "Distance  ", "km", form.FieldDistance)
	ui.durationField = ui.newMetricField(controller, "Duration  ", "min", form.FieldDuration)
	ui.cadenceField = ui.newMetricField(controller, "Cadence   ", "step/min", form.FieldCadence)
	ui.elevationField = ui.newMetricField(controller, "Elev Gain ", "meters", form.FieldElevationGain)

	ui.form = tview.NewForm().
		AddButton("Save", func() {
			controller.OnSubmit()
		})
	ui.form.SetBorder(true).SetTitle(" New workout ")
	ui.layoutFormItems(workout.TypeRunning)
}

func (ui *CursesUIViewImpl) newMetricField(controller *UIController, label, placeholder string, field form.Field) *tview.InputField {
	return tview.NewInputField().
		SetLabel(label).
		SetPlaceholder(placeholder).
		SetFieldWidth(12).
		SetAcceptanceFunc(tview.InputFieldFloat).
		SetChangedFunc(func(text string) {
			controller.OnFieldChanged(field, text)
		})
}

// layoutFormItems shows the variant field of t and hides the other one
func (ui *CursesUIViewImpl) layoutFormItems(t workout.Type) {
	ui.formType = t
	ui.form.Clear(false)
	ui.form.AddFormItem(ui.typeDropDown)
	ui.form.AddFormItem(ui.distanceField)
	ui.form.AddFormItem(ui.durationField)
	if t == workout.TypeCycling {
		ui.form.AddFormItem(ui.elevationField)
	} else {
		ui.form.AddFormItem(ui.cadenceField)
	}
}

func (ui *CursesUIViewImpl) initWorkoutList(controller *UIController) {
	ui.workoutList = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			if index < 0 || index >= len(ui.workouts) {
				ui.logger.Printf("UI: Workout index %d out of range (have %d)", index, len(ui.workouts))
				return
			}
			selected := ui.workouts[index]
			controller.OnWorkoutSelected(selected.Type, selected.ID)
		})
	ui.workoutList.SetBorder(true).SetTitle(" Workouts ")
}

// SetFormState shows or hides the form and swaps the variant field
func (ui *CursesUIViewImpl) SetFormState(state form.State) {
	ui.queue.Update(func() {
		if state.Type != ui.formType {
			ui.layoutFormItems(state.Type)
		}
		for i, t := range workout.AllTypes {
			if t == state.Type {
				if current, _ := ui.typeDropDown.GetCurrentOption(); current != i {
					ui.typeDropDown.SetCurrentOption(i)
				}
			}
		}

		// Field texts only follow the model when a session opens or closes
		// so that a stale snapshot never overwrites what the user is typing.
		// Comparing Opened catches a close and reopen that arrive as one
		// snapshot.
		if state.Status == ui.formStatus && state.Opened == ui.formOpened {
			return
		}
		ui.formStatus = state.Status
		ui.formOpened = state.Opened

		setText(ui.distanceField, state.Inputs.Distance)
		setText(ui.durationField, state.Inputs.Duration)
		setText(ui.cadenceField, state.Inputs.Cadence)
		setText(ui.elevationField, state.Inputs.ElevationGain)

		if state.Status == form.StatusOpen {
			ui.form.SetTitle(fmt.Sprintf(" New workout at %s ", state.Anchor))
			ui.sidebarPages.SwitchToPage(sidebarForm)
			// Distance is the second item, after the type selector
			ui.form.SetFocus(1)
			ui.app.SetFocus(ui.form)
			return
		}
		ui.sidebarPages.SwitchToPage(sidebarHint)
		ui.app.SetFocus(ui.mapWidget)
	})
}

func setText(field *tview.InputField, text string) {
	if field.GetText() != text {
		field.SetText(text)
	}
}

// SetWorkoutList populates the workout list
func (ui *CursesUIViewImpl) SetWorkoutList(workouts []workout.Workout) {
	ui.queue.Update(func() {
		current := ui.workoutList.GetCurrentItem()
		ui.workouts = workouts
		ui.workoutList.Clear()
		for _, w := range workouts {
			title := fmt.Sprintf("[%s]%s[-]", typeColors[w.Type], w.Label())
			ui.workoutList.AddItem(title, formatWorkoutDetails(w), 0, nil)
		}
		if current < len(workouts) {
			ui.workoutList.SetCurrentItem(current)
		}
	})
}

// SetMapStatus updates the map placeholder and title
func (ui *CursesUIViewImpl) SetMapStatus(status MapStatus) {
	ui.queue.Update(func() {
		switch status.State {
		case MapLocating:
			ui.mapWidget.SetStatus("Locating...")
			ui.mapWidget.SetTitle(" Map ")
		case MapUnavailable:
			ui.mapWidget.SetStatus("Map unavailable: " + status.Reason)
			ui.mapWidget.SetTitle(" Map (unavailable) ")
		case MapReady:
			ui.mapWidget.SetTitle(fmt.Sprintf(" Map %s ", status.Center))
		}
	})
}

// ShowAlert shows a modal until the user dismisses it
func (ui *CursesUIViewImpl) ShowAlert(alert Alert) {
	ui.queue.Update(func() {
		if ui.pages.HasPage(pageAlert) {
			ui.pages.RemovePage(pageAlert)
		} else {
			ui.focusBeforeAlert = ui.app.GetFocus()
		}
		modal := tview.NewModal().
			SetText(fmt.Sprintf("%s\n\n%s", alert.Title, alert.Message)).
			AddButtons([]string{"OK"}).
			SetDoneFunc(func(int, string) {
				ui.dismissAlert()
			})
		ui.pages.AddPage(pageAlert, modal, true, true)
		ui.app.SetFocus(modal)
	})
}

func (ui *CursesUIViewImpl) dismissAlert() {
	ui.pages.RemovePage(pageAlert)
	if ui.focusBeforeAlert != nil {
		ui.app.SetFocus(ui.focusBeforeAlert)
		ui.focusBeforeAlert = nil
	}
}

// tabWidgets returns the focus cycle: map, form (when open), list
func (ui *CursesUIViewImpl) tabWidgets() []tview.Primitive {
	widgets := []tview.Primitive{ui.mapWidget}
	if ui.formStatus == form.StatusOpen {
		widgets = append(widgets, ui.form)
	}
	return append(widgets, ui.workoutList)
}

// SetupKeyboardHandlers sets up keyboard event handlers
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *UIController) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// The alert swallows Escape; its own button handles Enter
		if ui.pages.HasPage(pageAlert) {
			if event.Key() == tcell.KeyEscape {
				ui.dismissAlert()
				return nil
			}
			return event
		}

		// Tab to switch focus between panes
		if event.Key() == tcell.KeyTab {
			widgets := ui.tabWidgets()
			next := 0
			for i, w := range widgets {
				if w.HasFocus() {
					next = (i + 1) % len(widgets)
					break
				}
			}
			ui.app.SetFocus(widgets[next])
			return nil
		}

		// Escape to quit
		if event.Key() == tcell.KeyEscape {
			controller.OnEscapeKey()
			return nil
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

// Draw redraws the UI after the widget updates already queued
func (ui *CursesUIViewImpl) Draw() error {
	ui.queue.UpdateDraw(func() {})
	return nil
}

// Run starts the UI and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	// SetRoot must be called before setting focus, otherwise focus may be reset
	ui.app.EnableMouse(true)
	ui.app.SetRoot(ui.pages, true)
	ui.app.SetFocus(ui.mapWidget)
	defer ui.queue.Close()
	return ui.app.Run()
}

// Stop stops the UI framework
func (ui *CursesUIViewImpl) Stop() {
	ui.app.Stop()
}
