package app

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/lowaak/mapty/internal/form"
	"github.com/lowaak/mapty/internal/safego"
	"github.com/lowaak/mapty/internal/workout"
)

// BaseUIView contains the base logic shared by all UI implementations
type BaseUIView struct {
	uiViewImpl   UIViewImpl
	uiModel      *UIModel
	uiController *UIController
	context      context.Context
	cancelFunc   context.CancelFunc
	waitGroup    sync.WaitGroup
	logger       *log.Logger
}

// NewBaseUIViewArg holds the arguments for creating a new BaseUIView
type NewBaseUIViewArg struct {
	UIViewImpl   UIViewImpl
	UIModel      *UIModel
	UIController *UIController
	Logger       *log.Logger
}

// NewBaseUIView creates a new BaseUIView with the given implementation
func NewBaseUIView(args NewBaseUIViewArg) *BaseUIView {
	if args.Logger == nil {
		panic("BaseUIView: logger cannot be nil")
	}
	if args.UIViewImpl == nil {
		panic("BaseUIView: UIViewImpl cannot be nil")
	}
	if args.UIModel == nil {
		panic("BaseUIView: UIModel cannot be nil")
	}
	if args.UIController == nil {
		panic("BaseUIView: UIController cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())

	base := &BaseUIView{
		uiViewImpl:   args.UIViewImpl,
		uiModel:      args.UIModel,
		uiController: args.UIController,
		context:      ctx,
		cancelFunc:   cancel,
		logger:       args.Logger,
	}

	// Initialize framework-specific widgets
	args.UIViewImpl.Initialize(args.UIController)

	// Set up keyboard handlers
	args.UIViewImpl.SetupKeyboardHandlers(args.UIController)

	// Set up periodic resize check and initial display
	base.waitGroup.Add(1)
	safego.Go(base.logger, func() { base.monitorLogResize() })
	base.updateLogDisplay()

	base.setupEventListeners()

	return base
}

// forward runs handle for every value the model publishes until the view shuts down.
func forward[T any](base *BaseUIView, listen func(chan T) func(), handle func(T)) {
	ch := make(chan T, 1)
	unregister := listen(ch)
	base.waitGroup.Add(1)
	safego.Go(base.logger, func() {
		defer base.waitGroup.Done()
		defer unregister()
		for {
			select {
			case <-base.context.Done():
				return
			case value, ok := <-ch:
				if !ok {
					return
				}
				handle(value)
			}
		}
	})
}

func (base *BaseUIView) setupEventListeners() {
	forward(base, base.uiModel.ListenToLog, func(string) {
		// When a new log arrives, update the display to show the tail
		base.updateLogDisplay()
		base.draw()
	})

	forward(base, base.uiModel.ListenToFormState, func(state form.State) {
		base.uiViewImpl.SetFormState(state)
		base.draw()
	})

	forward(base, base.uiModel.ListenToWorkouts, func(workouts []workout.Workout) {
		base.uiViewImpl.SetWorkoutList(workouts)
		base.draw()
	})

	forward(base, base.uiModel.ListenToMapStatus, func(status MapStatus) {
		base.uiViewImpl.SetMapStatus(status)
		base.draw()
	})

	forward(base, base.uiModel.ListenToAlert, func(alert Alert) {
		base.uiViewImpl.ShowAlert(alert)
		base.draw()
	})

	// Close stops the UI implementation once
	closeChan := make(chan struct{}, 1)
	closeUnregister := base.uiModel.ListenToCloseApplication(closeChan)
	base.waitGroup.Add(1)
	safego.Go(base.logger, func() {
		defer base.waitGroup.Done()
		defer closeUnregister()
		select {
		case <-base.context.Done():
			return
		case _, ok := <-closeChan:
			if !ok {
				return
			}
			base.uiViewImpl.Stop()
		}
	})
}

func (base *BaseUIView) draw() {
	if err := base.uiViewImpl.Draw(); err != nil {
		base.logger.Printf("BaseUIView: Error drawing: %v", err)
	}
}

func (base *BaseUIView) updateLogDisplay() {
	height := base.uiViewImpl.GetLogViewHeight()
	if height <= 0 {
		return
	}

	logLines := base.uiModel.GetLogTail(height)

	base.uiViewImpl.ClearLogView()
	for _, line := range logLines {
		if err := base.uiViewImpl.WriteLogLine(line); err != nil {
			base.logger.Printf("BaseUIView: Error writing to log view: %v", err)
		}
	}
}

func (base *BaseUIView) monitorLogResize() {
	defer base.waitGroup.Done()
	var lastHeight int
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-base.context.Done():
			return
		case <-ticker.C:
			height := base.uiViewImpl.GetLogViewHeight()
			if height != lastHeight && height > 0 {
				lastHeight = height
				base.updateLogDisplay()
				base.draw()
			}
		}
	}
}

// Shutdown stops all goroutines and waits for them to finish
func (base *BaseUIView) Shutdown() {
	base.logger.Println("BaseUIView: Shutting down")
	base.cancelFunc()
	base.waitGroup.Wait()
	base.logger.Println("BaseUIView: Shutdown complete")
}

// Run starts the UI and blocks until it exits
func (base *BaseUIView) Run() error {
	return base.uiViewImpl.Run()
}

// formatWorkoutDetails renders the metric line of a list entry,
// e.g. "5 km | 30 min | 6.0 min/km | 150 spm".
func formatWorkoutDetails(w workout.Workout) string {
	if w.Type == workout.TypeCycling {
		return fmt.Sprintf("%s km | %s min | %.1f km/h | %s m",
			formatNumber(w.Distance), formatNumber(w.Duration), w.Speed, formatNumber(w.ElevationGain))
	}
	return fmt.Sprintf("%s km | %s min | %.1f min/km | %s spm",
		formatNumber(w.Distance), formatNumber(w.Duration), w.Pace, formatNumber(w.Cadence))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
