// Package workout defines the running/cycling workout value, its derived
// metric and the in-memory registry that owns every created workout.
package workout

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidMetric is returned when a distance, duration or variant field is
// not a finite, strictly positive number.
var ErrInvalidMetric = errors.New("invalid metric")

// Type is the workout discriminant
type Type string

const (
	TypeRunning Type = "running"
	TypeCycling Type = "cycling"
)

// AllTypes lists the workout types in their stable order
var AllTypes = []Type{TypeRunning, TypeCycling}

// ParseType converts a stored or user supplied type name.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeRunning, TypeCycling:
		return t, nil
	}
	return "", fmt.Errorf("unknown workout type %q", s)
}

// DisplayName returns the capitalized type name ("Running")
func (t Type) DisplayName() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// Coords is a (latitude, longitude) pair in degrees. It is encoded as a
// two element JSON array.
type Coords struct {
	Lat float64
	Lng float64
}

func (c Coords) String() string {
	return fmt.Sprintf("%.5f, %.5f", c.Lat, c.Lng)
}

func (c Coords) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lng})
}

func (c *Coords) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("coords: want [lat, lng], got %d values", len(pair))
	}
	c.Lat, c.Lng = pair[0], pair[1]
	return nil
}

// Workout is a single logged activity. The variant fields are selected by
// Type: Cadence and Pace for running, ElevationGain and Speed for cycling.
type Workout struct {
	ID        string
	Type      Type
	Distance  float64 // km
	Duration  float64 // min
	Coords    Coords
	CreatedAt time.Time

	Cadence float64 // steps/min
	Pace    float64 // min/km

	ElevationGain float64 // m
	Speed         float64 // km/h
}

// Metric returns the stored derived value: pace for running, speed for cycling.
func (w Workout) Metric() float64 {
	if w.Type == TypeCycling {
		return w.Speed
	}
	return w.Pace
}

// VariantValue returns cadence for running and elevation gain for cycling.
func (w Workout) VariantValue() float64 {
	if w.Type == TypeCycling {
		return w.ElevationGain
	}
	return w.Cadence
}

// Label is the human readable title in the local calendar, e.g. "Running on October 19".
func (w Workout) Label() string {
	return w.LabelIn(time.Local)
}

// LabelIn renders Label with the creation date as seen in loc.
func (w Workout) LabelIn(loc *time.Location) string {
	return fmt.Sprintf("%s on %s", w.Type.DisplayName(), w.CreatedAt.In(loc).Format("January 2"))
}

// Derive computes the metric for a workout type.
// Running: pace = duration / distance. Cycling: speed = distance / (duration / 60).
func Derive(t Type, distance, duration float64) float64 {
	switch t {
	case TypeRunning:
		return duration / distance
	case TypeCycling:
		return distance / (duration / 60)
	}
	return 0
}

// Validate checks the invariants every stored workout must satisfy.
func (w Workout) Validate() error {
	if _, err := ParseType(string(w.Type)); err != nil {
		return err
	}
	return checkPositive(
		metric{"distance", w.Distance},
		metric{"duration", w.Duration},
		metric{variantField(w.Type), w.VariantValue()},
	)
}

// Factory creates workouts with an injectable id source and clock.
type Factory struct {
	NewID func() string
	Now   func() time.Time
}

var defaultFactory = Factory{
	NewID: uuid.NewString,
	Now:   time.Now,
}

// NewRunning creates a running workout with the default factory
func NewRunning(duration, distance, cadence float64, coords Coords) (Workout, error) {
	return defaultFactory.NewRunning(duration, distance, cadence, coords)
}

// NewCycling creates a cycling workout with the default factory
func NewCycling(duration, distance, elevationGain float64, coords Coords) (Workout, error) {
	return defaultFactory.NewCycling(duration, distance, elevationGain, coords)
}

// NewRunning validates the inputs and returns a running workout with its pace.
func (f Factory) NewRunning(duration, distance, cadence float64, coords Coords) (Workout, error) {
	if err := checkPositive(metric{"distance", distance}, metric{"duration", duration}, metric{"cadence", cadence}); err != nil {
		return Workout{}, err
	}
	w := f.base(TypeRunning, duration, distance, coords)
	w.Cadence = cadence
	w.Pace = Derive(TypeRunning, distance, duration)
	return w, nil
}

// NewCycling validates the inputs and returns a cycling workout with its speed.
func (f Factory) NewCycling(duration, distance, elevationGain float64, coords Coords) (Workout, error) {
	if err := checkPositive(metric{"distance", distance}, metric{"duration", duration}, metric{"elevationGain", elevationGain}); err != nil {
		return Workout{}, err
	}
	w := f.base(TypeCycling, duration, distance, coords)
	w.ElevationGain = elevationGain
	w.Speed = Derive(TypeCycling, distance, duration)
	return w, nil
}

// New dispatches on t. value is the cadence or elevation gain.
func (f Factory) New(t Type, duration, distance, value float64, coords Coords) (Workout, error) {
	switch t {
	case TypeRunning:
		return f.NewRunning(duration, distance, value, coords)
	case TypeCycling:
		return f.NewCycling(duration, distance, value, coords)
	}
	return Workout{}, fmt.Errorf("unknown workout type %q", t)
}

func (f Factory) base(t Type, duration, distance float64, coords Coords) Workout {
	newID, now := f.NewID, f.Now
	if newID == nil {
		newID = defaultFactory.NewID
	}
	if now == nil {
		now = defaultFactory.Now
	}
	return Workout{
		ID:        newID(),
		Type:      t,
		Distance:  distance,
		Duration:  duration,
		Coords:    coords,
		CreatedAt: now().UTC(),
	}
}

type metric struct {
	name  string
	value float64
}

func checkPositive(metrics ...metric) error {
	for _, m := range metrics {
		if math.IsNaN(m.value) || math.IsInf(m.value, 0) || m.value <= 0 {
			return fmt.Errorf("%w: %s must be a positive number, got %v", ErrInvalidMetric, m.name, m.value)
		}
	}
	return nil
}

func variantField(t Type) string {
	if t == TypeCycling {
		return "elevationGain"
	}
	return "cadence"
}
