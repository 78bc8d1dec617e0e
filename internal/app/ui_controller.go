package app

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/lowaak/mapty/internal/form"
	"github.com/lowaak/mapty/internal/geo"
	"github.com/lowaak/mapty/internal/mapview"
	"github.com/lowaak/mapty/internal/persistence"
	"github.com/lowaak/mapty/internal/safego"
	"github.com/lowaak/mapty/internal/workout"
)

// Dispatcher runs fn on the UI event loop
type Dispatcher func(fn func())

// UIController handles UI events and coordinates the registry, the form,
// the map and persistence. Every handler must run on the UI event loop.
type UIController struct {
	model       *UIModel
	registry    *workout.Registry
	form        *form.Machine
	mapView     *mapview.Controller
	persistence *persistence.Store
	positions   geo.PositionProvider
	factory     workout.Factory
	dispatch    Dispatcher
	logger      *log.Logger

	unregisterClick func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewUIControllerArg holds the arguments for creating a new UIController
type NewUIControllerArg struct {
	Model       *UIModel
	MapView     *mapview.Controller
	Persistence *persistence.Store
	Positions   geo.PositionProvider
	Dispatch    Dispatcher
	Logger      *log.Logger

	// Factory's zero value uses uuid ids and the wall clock
	Factory workout.Factory
}

// NewUIController creates a new UIController with an empty registry and a hidden form
func NewUIController(args NewUIControllerArg) *UIController {
	if args.Model == nil {
		panic("UIController: model cannot be nil")
	}
	if args.MapView == nil {
		panic("UIController: map controller cannot be nil")
	}
	if args.Persistence == nil {
		panic("UIController: persistence cannot be nil")
	}
	if args.Positions == nil {
		panic("UIController: position provider cannot be nil")
	}
	if args.Dispatch == nil {
		panic("UIController: dispatcher cannot be nil")
	}
	if args.Logger == nil {
		panic("UIController: logger cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &UIController{
		model:       args.Model,
		registry:    workout.NewRegistry(),
		form:        form.NewMachine(),
		mapView:     args.MapView,
		persistence: args.Persistence,
		positions:   args.Positions,
		factory:     args.Factory,
		dispatch:    args.Dispatch,
		logger:      args.Logger,
		ctx:         ctx,
		cancel:      cancel,
	}
	c.model.SetFormState(c.form.Snapshot())
	return c
}

// Start restores persisted workouts into the list and requests the
// position in the background. The map becomes usable once the position
// arrives; a failure leaves it unavailable for the session.
func (c *UIController) Start() {
	c.restore()

	c.wg.Add(1)
	safego.Go(c.logger, func() {
		defer c.wg.Done()
		c.acquirePosition()
	})
}

func (c *UIController) restore() {
	groups := c.persistence.Load(c.ctx)
	c.registry.Restore(groups)
	all := c.registry.All()
	c.model.SetWorkouts(all)
	c.logger.Printf("UIController: Restored %d workouts", len(all))
}

func (c *UIController) acquirePosition() {
	c.logger.Println("UIController: Requesting position")
	pos, err := c.positions.CurrentPosition(c.ctx)
	if c.ctx.Err() != nil {
		return
	}
	c.dispatch(func() { c.onPosition(pos, err) })
}

func (c *UIController) onPosition(pos workout.Coords, err error) {
	if err != nil {
		c.logger.Printf("UIController: Position unavailable: %v", err)
		c.model.SetMapStatus(MapStatus{State: MapUnavailable, Reason: err.Error()})
		c.model.Alert(Alert{Title: "Location unavailable", Message: alertLocationRequired})
		return
	}

	if err := c.mapView.Initialize(pos); err != nil {
		c.logger.Printf("UIController: Map initialization failed: %v", err)
		return
	}
	unregister, err := c.mapView.OnClick(c.OnMapClick)
	if err != nil {
		c.logger.Printf("UIController: Registering map click failed: %v", err)
		return
	}
	c.unregisterClick = unregister
	c.model.SetMapStatus(MapStatus{State: MapReady, Center: pos})
	c.logger.Printf("UIController: Map ready at %s", pos)
}

// OnMapClick opens the form anchored at pos. Clicks while the form is
// already open are ignored so the pending anchor is kept.
func (c *UIController) OnMapClick(pos workout.Coords) {
	if !c.form.Open(pos) {
		c.logger.Printf("UIController: Form already open, ignoring click at %s", pos)
		return
	}
	c.model.SetFormState(c.form.Snapshot())
}

// OnTypeSelected swaps the visible variant field
func (c *UIController) OnTypeSelected(t workout.Type) {
	if c.form.Snapshot().Type == t {
		return
	}
	c.form.SelectType(t)
	c.model.SetFormState(c.form.Snapshot())
}

// OnFieldChanged records typed text. The view already shows it, so no
// snapshot is published.
func (c *UIController) OnFieldChanged(field form.Field, text string) {
	c.form.SetField(field, text)
}

// OnSubmit validates the form and, on success, records the workout,
// refreshes the list, persists the registry and pins a marker.
func (c *UIController) OnSubmit() {
	w, err := c.form.Submit(c.createWorkout)
	if errors.Is(err, form.ErrFormHidden) {
		c.logger.Println("UIController: Submit ignored, form is hidden")
		return
	}
	if err != nil {
		c.logger.Printf("UIController: Rejected workout: %v", err)
		c.model.Alert(Alert{Title: "Invalid input", Message: alertInvalidInput})
		return
	}

	c.registry.Append(w)
	c.model.SetWorkouts(c.registry.All())
	if err := c.persistence.Save(c.ctx, c.registry); err != nil {
		c.logger.Printf("UIController: Saving workouts failed: %v", err)
	}
	if err := c.mapView.PlaceMarker(w.Coords, w.Label(), StyleClassFor(w.Type)); err != nil {
		c.logger.Printf("UIController: Placing marker failed: %v", err)
	}
	c.model.SetFormState(c.form.Snapshot())
	c.logger.Printf("UIController: Added %s (%s) at %s", w.Label(), w.ID, w.Coords)
}

func (c *UIController) createWorkout(s form.Submission) (workout.Workout, error) {
	return c.factory.New(s.Type, s.Duration, s.Distance, s.Value, s.Anchor)
}

// OnWorkoutSelected pans the map to the workout's stored position
func (c *UIController) OnWorkoutSelected(t workout.Type, id string) {
	w, ok := c.registry.FindByID(t, id)
	if !ok {
		c.logger.Printf("UIController: No %s workout with id %s", t, id)
		return
	}
	if err := c.mapView.PanTo(w.Coords); err != nil {
		c.logger.Printf("UIController: Cannot pan to %s: %v", w.Label(), err)
		return
	}
	c.logger.Printf("UIController: Moved to %s", w.Label())
}

// OnEscapeKey handles when the Escape key is pressed
func (c *UIController) OnEscapeKey() {
	c.model.RequestCloseApplication()
}

// Shutdown cancels the pending position request and waits for it
func (c *UIController) Shutdown() {
	c.logger.Println("UIController: Shutting down")
	c.cancel()
	c.wg.Wait()
	if c.unregisterClick != nil {
		c.unregisterClick()
		c.unregisterClick = nil
	}
	c.logger.Println("UIController: Shutdown complete")
}
