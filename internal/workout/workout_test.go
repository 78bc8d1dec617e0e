package workout

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreatedAt = time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)

func testFactory() Factory {
	n := 0
	return Factory{
		NewID: func() string {
			n++
			return "id-" + string(rune('0'+n))
		},
		Now: func() time.Time { return testCreatedAt },
	}
}

func TestNewRunning_Pace(t *testing.T) {
	cases := []struct{ duration, distance float64 }{
		{30, 5},
		{45.5, 7.3},
		{1, 0.001},
		{600, 42.195},
	}
	for _, c := range cases {
		w, err := testFactory().NewRunning(c.duration, c.distance, 150, Coords{51.5, -0.12})
		require.NoError(t, err)
		assert.Equal(t, TypeRunning, w.Type)
		assert.InDelta(t, c.duration/c.distance, w.Pace, 1e-12)
		assert.InDelta(t, w.Pace, w.Metric(), 0)
		assert.Zero(t, w.Speed)
	}
}

func TestNewCycling_Speed(t *testing.T) {
	cases := []struct{ duration, distance float64 }{
		{60, 30},
		{95, 41.2},
		{0.5, 0.2},
	}
	for _, c := range cases {
		w, err := testFactory().NewCycling(c.duration, c.distance, 300, Coords{48.85, 2.35})
		require.NoError(t, err)
		assert.Equal(t, TypeCycling, w.Type)
		assert.InDelta(t, c.distance/(c.duration/60), w.Speed, 1e-9)
		assert.Equal(t, 300.0, w.ElevationGain)
		assert.Zero(t, w.Pace)
	}
}

func TestNewWorkout_RejectsInvalidMetrics(t *testing.T) {
	bad := []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)}
	f := testFactory()
	for _, v := range bad {
		_, err := f.NewRunning(v, 5, 150, Coords{})
		assert.ErrorIs(t, err, ErrInvalidMetric, "duration %v", v)
		_, err = f.NewRunning(30, v, 150, Coords{})
		assert.ErrorIs(t, err, ErrInvalidMetric, "distance %v", v)
		_, err = f.NewRunning(30, 5, v, Coords{})
		assert.ErrorIs(t, err, ErrInvalidMetric, "cadence %v", v)
		_, err = f.NewCycling(30, 5, v, Coords{})
		assert.ErrorIs(t, err, ErrInvalidMetric, "elevation %v", v)
	}
}

func TestNewWorkout_AssignsIdentityAndTime(t *testing.T) {
	f := testFactory()
	a, err := f.NewRunning(30, 5, 150, Coords{1, 2})
	require.NoError(t, err)
	b, err := f.NewCycling(30, 5, 10, Coords{3, 4})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, testCreatedAt, a.CreatedAt)
	assert.Equal(t, Coords{1, 2}, a.Coords)
}

func TestDefaultFactoryUsesUUIDs(t *testing.T) {
	w, err := NewRunning(30, 5, 150, Coords{})
	require.NoError(t, err)
	assert.Len(t, w.ID, 36)
	assert.Equal(t, time.UTC, w.CreatedAt.Location())
}

func TestFactoryNew_Dispatch(t *testing.T) {
	f := testFactory()
	w, err := f.New(TypeCycling, 60, 20, 150, Coords{})
	require.NoError(t, err)
	assert.Equal(t, 150.0, w.ElevationGain)

	_, err = f.New(Type("swimming"), 60, 20, 150, Coords{})
	assert.Error(t, err)
}

func TestLabel(t *testing.T) {
	w, err := testFactory().NewRunning(30, 5, 150, Coords{})
	require.NoError(t, err)
	assert.Equal(t, "Running on October 19", w.LabelIn(time.UTC))
	assert.Equal(t, w.LabelIn(time.Local), w.Label())

	c, err := testFactory().NewCycling(30, 5, 150, Coords{})
	require.NoError(t, err)
	assert.Equal(t, "Cycling on October 19", c.LabelIn(time.UTC))
}

func TestLabel_UsesLocalCalendarDate(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	f := Factory{
		NewID: func() string { return "id-1" },
		Now:   func() time.Time { return time.Date(2026, time.October, 20, 7, 30, 0, 0, tokyo) },
	}

	w, err := f.NewRunning(30, 5, 150, Coords{})
	require.NoError(t, err)

	// Stored in UTC, where it is still the previous day
	assert.Equal(t, time.UTC, w.CreatedAt.Location())
	assert.Equal(t, 19, w.CreatedAt.Day())
	assert.Equal(t, "Running on October 20", w.LabelIn(tokyo))
	assert.Equal(t, "Running on October 19", w.LabelIn(time.UTC))
}

func TestParseType(t *testing.T) {
	typ, err := ParseType(" Cycling ")
	require.NoError(t, err)
	assert.Equal(t, TypeCycling, typ)

	_, err = ParseType("rowing")
	assert.Error(t, err)
}

func TestCoordsJSON(t *testing.T) {
	raw, err := json.Marshal(Coords{51.5, -0.12})
	require.NoError(t, err)
	assert.JSONEq(t, `[51.5,-0.12]`, string(raw))

	var c Coords
	require.NoError(t, json.Unmarshal([]byte(`[48.85, 2.35]`), &c))
	assert.Equal(t, Coords{48.85, 2.35}, c)

	assert.Error(t, json.Unmarshal([]byte(`[1]`), &c))
	assert.Error(t, json.Unmarshal([]byte(`{"lat":1}`), &c))
}

func TestValidate(t *testing.T) {
	w, err := testFactory().NewCycling(30, 5, 150, Coords{})
	require.NoError(t, err)
	assert.NoError(t, w.Validate())

	w.ElevationGain = 0
	assert.ErrorIs(t, w.Validate(), ErrInvalidMetric)

	w.Type = "rowing"
	assert.Error(t, w.Validate())
}
