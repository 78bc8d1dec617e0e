package app

import (
	"sync"
	"testing"
	"time"

	"github.com/lowaak/mapty/internal/form"
	"github.com/lowaak/mapty/internal/geo"
	"github.com/lowaak/mapty/internal/store"
	"github.com/lowaak/mapty/internal/workout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingView is a UIViewImpl that records what BaseUIView asks it to render
type recordingView struct {
	mu          sync.Mutex
	initialized bool
	keyboard    bool
	stopped     bool
	draws       int
	logLines    []string
	formStates  []form.State
	workouts    [][]workout.Workout
	mapStatuses []MapStatus
	alerts      []Alert
}

func (v *recordingView) Initialize(*UIController) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.initialized = true
}

func (v *recordingView) SetupKeyboardHandlers(*UIController) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keyboard = true
}

func (v *recordingView) Run() error { return nil }

func (v *recordingView) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopped = true
}

func (v *recordingView) Draw() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.draws++
	return nil
}

func (v *recordingView) GetLogViewHeight() int { return 3 }

func (v *recordingView) ClearLogView() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.logLines = nil
}

func (v *recordingView) WriteLogLine(line string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.logLines = append(v.logLines, line)
	return nil
}

func (v *recordingView) SetFormState(state form.State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.formStates = append(v.formStates, state)
}

func (v *recordingView) SetWorkoutList(workouts []workout.Workout) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.workouts = append(v.workouts, workouts)
}

func (v *recordingView) SetMapStatus(status MapStatus) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mapStatuses = append(v.mapStatuses, status)
}

func (v *recordingView) ShowAlert(alert Alert) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alerts = append(v.alerts, alert)
}

func (v *recordingView) read(fn func(v *recordingView) bool) func() bool {
	return func() bool {
		v.mu.Lock()
		defer v.mu.Unlock()
		return fn(v)
	}
}

func newTestBaseView(t *testing.T) (*BaseUIView, *recordingView, *harness, chan string) {
	t.Helper()
	logChan := make(chan string, 8)
	h := newHarnessWithLog(t, geo.FixedProvider{Position: london}, store.NewMemoryStore(), logChan)

	view := &recordingView{}
	base := NewBaseUIView(NewBaseUIViewArg{
		UIViewImpl:   view,
		UIModel:      h.model,
		UIController: h.controller,
		Logger:       h.logger,
	})
	t.Cleanup(base.Shutdown)
	return base, view, h, logChan
}

func TestBaseUIView_InitializesImpl(t *testing.T) {
	_, view, _, _ := newTestBaseView(t)

	view.mu.Lock()
	defer view.mu.Unlock()
	assert.True(t, view.initialized)
	assert.True(t, view.keyboard)
}

func TestBaseUIView_ForwardsModelEvents(t *testing.T) {
	_, view, h, _ := newTestBaseView(t)

	h.model.SetFormState(form.State{Status: form.StatusOpen, Anchor: london})
	require.Eventually(t, view.read(func(v *recordingView) bool {
		n := len(v.formStates)
		return n > 0 && v.formStates[n-1].Status == form.StatusOpen
	}), time.Second, 5*time.Millisecond)

	h.model.SetWorkouts([]workout.Workout{{ID: "a", Type: workout.TypeRunning}})
	require.Eventually(t, view.read(func(v *recordingView) bool {
		n := len(v.workouts)
		return n > 0 && len(v.workouts[n-1]) == 1
	}), time.Second, 5*time.Millisecond)

	h.model.SetMapStatus(MapStatus{State: MapUnavailable, Reason: "denied"})
	require.Eventually(t, view.read(func(v *recordingView) bool {
		n := len(v.mapStatuses)
		return n > 0 && v.mapStatuses[n-1].State == MapUnavailable
	}), time.Second, 5*time.Millisecond)

	h.model.Alert(Alert{Title: "Invalid input", Message: alertInvalidInput})
	require.Eventually(t, view.read(func(v *recordingView) bool {
		return len(v.alerts) == 1
	}), time.Second, 5*time.Millisecond)

	require.Eventually(t, view.read(func(v *recordingView) bool { return v.draws >= 4 }), time.Second, 5*time.Millisecond)
}

func TestBaseUIView_ShowsLogTail(t *testing.T) {
	_, view, _, logChan := newTestBaseView(t)

	for _, line := range []string{"a\n", "b\n", "c\n", "d\n"} {
		logChan <- line
	}

	require.Eventually(t, view.read(func(v *recordingView) bool {
		return assert.ObjectsAreEqual([]string{"b\n", "c\n", "d\n"}, v.logLines)
	}), time.Second, 5*time.Millisecond)
}

func TestBaseUIView_CloseStopsImpl(t *testing.T) {
	_, view, h, _ := newTestBaseView(t)

	h.controller.OnEscapeKey()

	require.Eventually(t, view.read(func(v *recordingView) bool { return v.stopped }), time.Second, 5*time.Millisecond)
}

func TestFormatWorkoutDetails(t *testing.T) {
	run := workout.Workout{Type: workout.TypeRunning, Distance: 5, Duration: 30, Pace: 6, Cadence: 150}
	ride := workout.Workout{Type: workout.TypeCycling, Distance: 20.5, Duration: 60, Speed: 20.5, ElevationGain: 300}

	assert.Equal(t, "5 km | 30 min | 6.0 min/km | 150 spm", formatWorkoutDetails(run))
	assert.Equal(t, "20.5 km | 60 min | 20.5 km/h | 300 m", formatWorkoutDetails(ride))
}
