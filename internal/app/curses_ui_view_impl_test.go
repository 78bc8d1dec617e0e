package app

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/mapty/internal/form"
	"github.com/lowaak/mapty/internal/store"
	"github.com/lowaak/mapty/internal/workout"
)

type runningView struct {
	view    *CursesUIViewImpl
	queue   *UIQueue
	harness *harness
}

func newRunningView(t *testing.T) *runningView {
	t.Helper()
	h := newHarness(t, blockingProvider{}, store.NewMemoryStore())

	screen := tcell.NewSimulationScreen("UTF-8")
	tviewApp := tview.NewApplication().SetScreen(screen)
	screen.SetSize(160, 50)
	q := NewUIQueue(tviewApp)

	view := NewCursesUIView(h.logger, tviewApp, q, NewMapWidget(h.logger, "", nil))
	view.Initialize(h.controller)

	runErr := make(chan error, 1)
	go func() { runErr <- view.Run() }()
	q.Update(func() {})
	t.Cleanup(func() {
		view.Stop()
		require.NoError(t, <-runErr)
	})

	return &runningView{view: view, queue: q, harness: h}
}

// read runs fn on the event loop
func (r *runningView) read(fn func(ui *CursesUIViewImpl)) {
	r.queue.Update(func() { fn(r.view) })
}

func openState(opened uint64, anchor workout.Coords, inputs form.Inputs) form.State {
	return form.State{
		Status:         form.StatusOpen,
		Anchor:         anchor,
		Type:           workout.TypeRunning,
		Inputs:         inputs,
		CadenceVisible: true,
		Opened:         opened,
	}
}

func TestCursesView_KeepsTypedTextWithinSession(t *testing.T) {
	r := newRunningView(t)
	r.view.SetFormState(openState(1, london, form.Inputs{}))
	r.read(func(ui *CursesUIViewImpl) { ui.distanceField.SetText("5") })

	// A late snapshot of the same session must not clear what was typed
	r.view.SetFormState(openState(1, london, form.Inputs{}))

	r.read(func(ui *CursesUIViewImpl) {
		assert.Equal(t, "5", ui.distanceField.GetText())
		assert.Equal(t, " New workout at "+london.String()+" ", ui.form.GetTitle())
	})
}

func TestCursesView_ResyncsWhenReopenedInOneSnapshot(t *testing.T) {
	r := newRunningView(t)
	r.view.SetFormState(openState(1, london, form.Inputs{}))
	r.read(func(ui *CursesUIViewImpl) {
		ui.distanceField.SetText("5")
		ui.durationField.SetText("30")
	})

	// Hidden and the next Open collapsed into a single snapshot
	r.view.SetFormState(openState(2, paris, form.Inputs{}))

	r.read(func(ui *CursesUIViewImpl) {
		assert.Empty(t, ui.distanceField.GetText())
		assert.Empty(t, ui.durationField.GetText())
		assert.Equal(t, " New workout at "+paris.String()+" ", ui.form.GetTitle())
	})
}

func TestCursesView_ResyncsWhenReopenedAtSameAnchor(t *testing.T) {
	r := newRunningView(t)
	r.view.SetFormState(openState(1, london, form.Inputs{}))
	r.read(func(ui *CursesUIViewImpl) { ui.distanceField.SetText("5") })

	r.view.SetFormState(openState(2, london, form.Inputs{}))

	r.read(func(ui *CursesUIViewImpl) {
		assert.Empty(t, ui.distanceField.GetText())
	})
}

func TestCursesView_HidesForm(t *testing.T) {
	r := newRunningView(t)
	r.view.SetFormState(openState(1, london, form.Inputs{Distance: "5"}))
	r.read(func(ui *CursesUIViewImpl) {
		name, _ := ui.sidebarPages.GetFrontPage()
		assert.Equal(t, sidebarForm, name)
		assert.Equal(t, "5", ui.distanceField.GetText())
	})

	r.view.SetFormState(form.State{Status: form.StatusHidden, Type: workout.TypeRunning, CadenceVisible: true, Opened: 1})
	r.read(func(ui *CursesUIViewImpl) {
		name, _ := ui.sidebarPages.GetFrontPage()
		assert.Equal(t, sidebarHint, name)
		assert.Empty(t, ui.distanceField.GetText())
	})
}

func TestNewCursesUIView_NilDeps(t *testing.T) {
	logger := newHarness(t, blockingProvider{}, store.NewMemoryStore()).logger
	tviewApp := tview.NewApplication()
	q := NewUIQueue(tviewApp)
	widget := NewMapWidget(logger, "", nil)

	assert.Panics(t, func() { NewCursesUIView(nil, tviewApp, q, widget) })
	assert.Panics(t, func() { NewCursesUIView(logger, nil, q, widget) })
	assert.Panics(t, func() { NewCursesUIView(logger, tviewApp, nil, widget) })
	assert.Panics(t, func() { NewCursesUIView(logger, tviewApp, q, nil) })
}
