package form

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/mapty/internal/workout"
)

var anchor = workout.Coords{Lat: 51.5, Lng: -0.12}

func create(sub Submission) (workout.Workout, error) {
	f := workout.Factory{
		NewID: func() string { return "w1" },
		Now:   func() time.Time { return time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC) },
	}
	return f.New(sub.Type, sub.Duration, sub.Distance, sub.Value, sub.Anchor)
}

func fill(m *Machine, distance, duration, cadence, elevation string) {
	m.SetField(FieldDistance, distance)
	m.SetField(FieldDuration, duration)
	m.SetField(FieldCadence, cadence)
	m.SetField(FieldElevationGain, elevation)
}

func TestNewMachine_Defaults(t *testing.T) {
	s := NewMachine().Snapshot()
	assert.Equal(t, StatusHidden, s.Status)
	assert.Equal(t, workout.TypeRunning, s.Type)
	assert.True(t, s.CadenceVisible)
	assert.False(t, s.ElevationVisible)
	assert.Equal(t, Inputs{}, s.Inputs)
}

func TestOpen_OnlyWhileHidden(t *testing.T) {
	m := NewMachine()
	require.True(t, m.Open(anchor))

	assert.False(t, m.Open(workout.Coords{Lat: 1, Lng: 1}), "second click is ignored")
	s := m.Snapshot()
	assert.Equal(t, StatusOpen, s.Status)
	assert.Equal(t, anchor, s.Anchor)
}

func TestOpen_CountsSessions(t *testing.T) {
	m := NewMachine()
	assert.Zero(t, m.Snapshot().Opened)

	require.True(t, m.Open(anchor))
	first := m.Snapshot()
	assert.EqualValues(t, 1, first.Opened)
	assert.False(t, m.Open(workout.Coords{Lat: 1, Lng: 1}))
	assert.EqualValues(t, 1, m.Snapshot().Opened, "ignored clicks keep the session")

	fill(m, "5", "30", "150", "")
	_, err := m.Submit(create)
	require.NoError(t, err)
	assert.EqualValues(t, 1, m.Snapshot().Opened, "reset keeps the count")

	// Reopening at the same anchor is still a new session
	require.True(t, m.Open(anchor))
	second := m.Snapshot()
	assert.EqualValues(t, 2, second.Opened)
	assert.Equal(t, first.Anchor, second.Anchor)
	assert.Equal(t, Inputs{}, second.Inputs)
}

func TestSelectType_ToggleIsIdempotent(t *testing.T) {
	m := NewMachine()
	before := m.Snapshot()

	m.SelectType(workout.TypeCycling)
	s := m.Snapshot()
	assert.False(t, s.CadenceVisible)
	assert.True(t, s.ElevationVisible)

	m.SelectType(workout.TypeRunning)
	assert.Equal(t, before, m.Snapshot())
}

func TestSelectType_DoesNotChangeStatus(t *testing.T) {
	m := NewMachine()
	m.SelectType(workout.TypeCycling)
	assert.Equal(t, StatusHidden, m.Snapshot().Status)

	m.Open(anchor)
	m.SelectType(workout.TypeRunning)
	assert.Equal(t, StatusOpen, m.Snapshot().Status)
}

func TestSubmit_ValidRunningResetsForm(t *testing.T) {
	m := NewMachine()
	m.Open(anchor)
	fill(m, "5", "30", "150", "")

	w, err := m.Submit(create)
	require.NoError(t, err)
	assert.Equal(t, workout.TypeRunning, w.Type)
	assert.InDelta(t, 6.0, w.Pace, 1e-12)
	assert.Equal(t, anchor, w.Coords)

	s := m.Snapshot()
	assert.Equal(t, StatusHidden, s.Status)
	assert.Equal(t, Inputs{}, s.Inputs)
	assert.Equal(t, workout.TypeRunning, s.Type)
	assert.True(t, s.CadenceVisible)
	assert.False(t, s.ElevationVisible)
}

func TestSubmit_ValidCyclingUsesElevation(t *testing.T) {
	m := NewMachine()
	m.Open(anchor)
	m.SelectType(workout.TypeCycling)
	fill(m, "20", "60", "", "350")

	w, err := m.Submit(create)
	require.NoError(t, err)
	assert.Equal(t, workout.TypeCycling, w.Type)
	assert.Equal(t, 350.0, w.ElevationGain)
	assert.InDelta(t, 20.0, w.Speed, 1e-12)

	s := m.Snapshot()
	assert.Equal(t, workout.TypeRunning, s.Type, "type selector resets to running")
	assert.True(t, s.CadenceVisible)
}

func TestSubmit_InvalidKeepsStateOpen(t *testing.T) {
	invalid := [][3]string{
		{"0", "30", "150"},
		{"5", "-30", "150"},
		{"5", "30", ""},
		{"abc", "30", "150"},
		{"5", "NaN", "150"},
		{"5", "30", "Inf"},
		{"  ", "30", "150"},
	}
	for _, in := range invalid {
		m := NewMachine()
		m.Open(anchor)
		fill(m, in[0], in[1], in[2], "")
		before := m.Snapshot()

		called := false
		_, err := m.Submit(func(sub Submission) (workout.Workout, error) {
			called = true
			return create(sub)
		})
		assert.ErrorIs(t, err, workout.ErrInvalidMetric, "inputs %v", in)
		assert.False(t, called, "no workout is constructed for %v", in)
		assert.Equal(t, before, m.Snapshot(), "state untouched for %v", in)
	}
}

func TestSubmit_OnlyValidatesSelectedVariant(t *testing.T) {
	m := NewMachine()
	m.Open(anchor)
	fill(m, "5", "30", "150", "garbage")

	_, err := m.Submit(create)
	assert.NoError(t, err)
}

func TestSubmit_CreateErrorKeepsState(t *testing.T) {
	m := NewMachine()
	m.Open(anchor)
	fill(m, "5", "30", "150", "")
	before := m.Snapshot()

	boom := errors.New("boom")
	_, err := m.Submit(func(Submission) (workout.Workout, error) { return workout.Workout{}, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before, m.Snapshot())
}

func TestSubmit_WhileHidden(t *testing.T) {
	_, err := NewMachine().Submit(create)
	assert.ErrorIs(t, err, ErrFormHidden)
}

func TestSetField_ReportsChange(t *testing.T) {
	m := NewMachine()
	assert.True(t, m.SetField(FieldDistance, "5"))
	assert.False(t, m.SetField(FieldDistance, "5"))
	assert.False(t, m.SetField(Field("unknown"), "5"))
	assert.Equal(t, "5", m.Snapshot().Inputs.Distance)
}

func TestParseMetric(t *testing.T) {
	v, err := ParseMetric(" 4.5 ")
	require.NoError(t, err)
	assert.Equal(t, 4.5, v)

	for _, text := range []string{"", "0", "-2", "1e400", "+Inf", "nan", "5km"} {
		_, err := ParseMetric(text)
		assert.ErrorIs(t, err, workout.ErrInvalidMetric, text)
	}
}
