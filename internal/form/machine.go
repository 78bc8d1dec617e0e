// Package form implements the workout entry form: when it may open, which
// variant field is visible and how a submission is validated.
package form

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lowaak/mapty/internal/workout"
)

// ErrFormHidden is returned by Submit when no form is open.
var ErrFormHidden = errors.New("form is not open")

// Status is the open/hidden state of the form
type Status int

const (
	StatusHidden Status = iota
	StatusOpen
)

func (s Status) String() string {
	if s == StatusOpen {
		return "open"
	}
	return "hidden"
}

// Field identifies a text input of the form
type Field string

const (
	FieldDistance      Field = "distance"
	FieldDuration      Field = "duration"
	FieldCadence       Field = "cadence"
	FieldElevationGain Field = "elevationGain"
)

// Inputs holds the raw text of every input field
type Inputs struct {
	Distance      string
	Duration      string
	Cadence       string
	ElevationGain string
}

func (in Inputs) get(f Field) string {
	switch f {
	case FieldDistance:
		return in.Distance
	case FieldDuration:
		return in.Duration
	case FieldCadence:
		return in.Cadence
	case FieldElevationGain:
		return in.ElevationGain
	}
	return ""
}

func (in *Inputs) set(f Field, text string) bool {
	switch f {
	case FieldDistance:
		in.Distance = text
	case FieldDuration:
		in.Duration = text
	case FieldCadence:
		in.Cadence = text
	case FieldElevationGain:
		in.ElevationGain = text
	default:
		return false
	}
	return true
}

// State is an immutable snapshot of the form, used for rendering.
type State struct {
	Status           Status
	Anchor           workout.Coords // meaningful only while open
	Type             workout.Type
	Inputs           Inputs
	CadenceVisible   bool
	ElevationVisible bool

	// Opened counts how many times the form has opened. Two snapshots of
	// the same Opened value belong to the same editing session.
	Opened uint64
}

// Submission is a validated form submission
type Submission struct {
	Type     workout.Type
	Distance float64
	Duration float64
	Value    float64 // cadence or elevation gain, depending on Type
	Anchor   workout.Coords
}

// Machine is the form state machine. It is not safe for concurrent use; the
// UI event loop owns it.
type Machine struct {
	state State
}

// NewMachine returns a hidden form with the running defaults
func NewMachine() *Machine {
	m := &Machine{}
	m.reset()
	return m
}

// Snapshot returns the current state
func (m *Machine) Snapshot() State {
	return m.state
}

// Open shows the form anchored at pos. It only fires while hidden so an
// in-progress anchor is never overwritten; the return value reports whether
// the form opened.
func (m *Machine) Open(pos workout.Coords) bool {
	if m.state.Status != StatusHidden {
		return false
	}
	m.state.Status = StatusOpen
	m.state.Anchor = pos
	m.state.Opened++
	return true
}

// SelectType switches the workout type and the visible variant field.
func (m *Machine) SelectType(t workout.Type) {
	m.state.Type = t
	m.state.CadenceVisible = t != workout.TypeCycling
	m.state.ElevationVisible = t == workout.TypeCycling
}

// SetField records the text typed into field f. It reports whether the
// stored text changed.
func (m *Machine) SetField(f Field, text string) bool {
	if m.state.Inputs.get(f) == text {
		return false
	}
	return m.state.Inputs.set(f, text)
}

// Submit validates the inputs for the selected type and hands them to
// create. Only when every input is a finite positive number and create
// succeeds does the form reset and hide; otherwise nothing changes.
func (m *Machine) Submit(create func(Submission) (workout.Workout, error)) (workout.Workout, error) {
	if m.state.Status != StatusOpen {
		return workout.Workout{}, ErrFormHidden
	}

	sub, err := m.validate()
	if err != nil {
		return workout.Workout{}, err
	}

	w, err := create(sub)
	if err != nil {
		return workout.Workout{}, err
	}

	m.reset()
	return w, nil
}

func (m *Machine) validate() (Submission, error) {
	variant := FieldCadence
	if m.state.Type == workout.TypeCycling {
		variant = FieldElevationGain
	}

	values := make(map[Field]float64, 3)
	for _, f := range []Field{FieldDistance, FieldDuration, variant} {
		v, err := ParseMetric(m.state.Inputs.get(f))
		if err != nil {
			return Submission{}, fmt.Errorf("%s: %w", f, err)
		}
		values[f] = v
	}

	return Submission{
		Type:     m.state.Type,
		Distance: values[FieldDistance],
		Duration: values[FieldDuration],
		Value:    values[variant],
		Anchor:   m.state.Anchor,
	}, nil
}

func (m *Machine) reset() {
	m.state = State{Status: StatusHidden, Opened: m.state.Opened}
	m.SelectType(workout.TypeRunning)
}

// ParseMetric converts form text into a finite, strictly positive number.
func ParseMetric(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("%w: value is required", workout.ErrInvalidMetric)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", workout.ErrInvalidMetric, text)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("%w: %q must be a positive number", workout.ErrInvalidMetric, text)
	}
	return v, nil
}
