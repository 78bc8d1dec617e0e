package app

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/mapty/internal/events"
	"github.com/lowaak/mapty/internal/form"
	"github.com/lowaak/mapty/internal/safego"
	"github.com/lowaak/mapty/internal/workout"
)

// UIModel holds the state views render and publishes every change as a
// snapshot. It never exposes internal slices.
type UIModel struct {
	logEvent              *events.ChannelEvent[string]
	formStateEvent        *events.ChannelEvent[form.State]
	formState             form.State
	workoutsEvent         *events.ChannelEvent[[]workout.Workout]
	workouts              []workout.Workout
	mapStatusEvent        *events.ChannelEvent[MapStatus]
	mapStatus             MapStatus
	alertEvent            *events.ChannelEvent[Alert]
	closeApplicationEvent *events.ChannelEvent[struct{}]
	logLines              []string
	logMu                 sync.RWMutex
	mu                    sync.RWMutex
	ctx                   context.Context
	cancel                context.CancelFunc
	wg                    sync.WaitGroup
	logger                *log.Logger
}

func NewUIModel(logger *log.Logger, uiLogChan <-chan string) *UIModel {
	if logger == nil {
		panic("UIModel: logger cannot be nil")
	}
	if uiLogChan == nil {
		panic("UIModel: uiLogChan cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	model := &UIModel{
		logEvent:              events.NewChannelEvent[string](false),
		formStateEvent:        events.NewChannelEvent[form.State](true),
		formState:             form.NewMachine().Snapshot(),
		workoutsEvent:         events.NewChannelEvent[[]workout.Workout](true),
		mapStatusEvent:        events.NewChannelEvent[MapStatus](true),
		mapStatus:             MapStatus{State: MapLocating},
		alertEvent:            events.NewChannelEvent[Alert](false),
		closeApplicationEvent: events.NewChannelEvent[struct{}](true),
		logLines:              make([]string, 0, maxLogLines),
		ctx:                   ctx,
		cancel:                cancel,
		logger:                logger,
	}

	// Read from the UI log channel and populate logLines
	model.wg.Add(1)
	safego.Go(model.logger, func() { model.readFromLogChannel(ctx, uiLogChan) })

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
func (m *UIModel) ListenToLog(ch chan string) func() {
	return m.logEvent.Listen(ch)
}

// ListenToFormState registers a channel to receive form snapshots
func (m *UIModel) ListenToFormState(ch chan form.State) func() {
	return m.formStateEvent.Listen(ch)
}

// GetFormState returns the last published form snapshot
func (m *UIModel) GetFormState() form.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.formState
}

// SetFormState publishes a form snapshot
func (m *UIModel) SetFormState(state form.State) {
	m.mu.Lock()
	m.formState = state
	m.mu.Unlock()

	m.formStateEvent.Notify(state)
}

// ListenToWorkouts registers a channel to receive the rendered workout list
func (m *UIModel) ListenToWorkouts(ch chan []workout.Workout) func() {
	return m.workoutsEvent.Listen(ch)
}

// GetWorkouts returns a copy of the rendered workout list
func (m *UIModel) GetWorkouts() []workout.Workout {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyWorkouts(m.workouts)
}

// SetWorkouts replaces the rendered workout list and notifies listeners
func (m *UIModel) SetWorkouts(workouts []workout.Workout) {
	m.mu.Lock()
	m.workouts = copyWorkouts(workouts)
	result := copyWorkouts(m.workouts)
	m.mu.Unlock()

	m.workoutsEvent.Notify(result)
}

// ListenToMapStatus registers a channel to receive map lifecycle changes
func (m *UIModel) ListenToMapStatus(ch chan MapStatus) func() {
	return m.mapStatusEvent.Listen(ch)
}

// GetMapStatus returns the current map status
func (m *UIModel) GetMapStatus() MapStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mapStatus
}

// SetMapStatus updates the map status and notifies listeners
func (m *UIModel) SetMapStatus(status MapStatus) {
	m.mu.Lock()
	if m.mapStatus == status {
		m.mu.Unlock()
		return
	}
	m.mapStatus = status
	m.mu.Unlock()

	m.mapStatusEvent.Notify(status)
}

// ListenToAlert registers a channel to receive user notifications.
// Alerts are not replayed to late listeners.
func (m *UIModel) ListenToAlert(ch chan Alert) func() {
	return m.alertEvent.Listen(ch)
}

// Alert notifies the user
func (m *UIModel) Alert(alert Alert) {
	m.logger.Printf("UIModel: Alert %q: %s", alert.Title, alert.Message)
	m.alertEvent.Notify(alert)
}

// ListenToCloseApplication registers a channel to receive close application signals
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToCloseApplication(ch chan struct{}) func() {
	return m.closeApplicationEvent.Listen(ch)
}

// RequestCloseApplication signals that the application should close
func (m *UIModel) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// readFromLogChannel reads log lines from the channel and populates logLines
func (m *UIModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				return
			}

			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

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
	if n > len(m.logLines) {
		n = len(m.logLines)
	}

	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}

func copyWorkouts(src []workout.Workout) []workout.Workout {
	result := make([]workout.Workout, len(src))
	copy(result, src)
	return result
}
