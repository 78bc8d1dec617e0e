// Package persistence saves the workout registry to a key-value store and
// restores it on startup.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lowaak/mapty/internal/store"
	"github.com/lowaak/mapty/internal/workout"
)

// Key is the store key holding the serialized registry.
const Key = "workout"

// record is the stored shape of one workout. Pointer fields are present
// only for the matching type.
type record struct {
	ID            string         `json:"id"`
	Type          workout.Type   `json:"type"`
	Distance      float64        `json:"distance"`
	Duration      float64        `json:"duration"`
	Coords        workout.Coords `json:"coords"`
	CreatedAt     time.Time      `json:"createdAt"`
	Pace          *float64       `json:"pace,omitempty"`
	Cadence       *float64       `json:"cadence,omitempty"`
	Speed         *float64       `json:"speed,omitempty"`
	ElevationGain *float64       `json:"elevationGain,omitempty"`
}

func toRecord(w workout.Workout) record {
	r := record{
		ID:        w.ID,
		Type:      w.Type,
		Distance:  w.Distance,
		Duration:  w.Duration,
		Coords:    w.Coords,
		CreatedAt: w.CreatedAt,
	}
	switch w.Type {
	case workout.TypeRunning:
		pace, cadence := w.Pace, w.Cadence
		r.Pace, r.Cadence = &pace, &cadence
	case workout.TypeCycling:
		speed, gain := w.Speed, w.ElevationGain
		r.Speed, r.ElevationGain = &speed, &gain
	}
	return r
}

func (r record) toWorkout() (workout.Workout, error) {
	t, err := workout.ParseType(string(r.Type))
	if err != nil {
		return workout.Workout{}, err
	}
	if r.ID == "" {
		return workout.Workout{}, errors.New("record without id")
	}
	w := workout.Workout{
		ID:        r.ID,
		Type:      t,
		Distance:  r.Distance,
		Duration:  r.Duration,
		Coords:    r.Coords,
		CreatedAt: r.CreatedAt,
	}
	switch t {
	case workout.TypeRunning:
		if r.Pace == nil || r.Cadence == nil {
			return workout.Workout{}, fmt.Errorf("running record %s missing pace or cadence", r.ID)
		}
		w.Pace, w.Cadence = *r.Pace, *r.Cadence
	case workout.TypeCycling:
		if r.Speed == nil || r.ElevationGain == nil {
			return workout.Workout{}, fmt.Errorf("cycling record %s missing speed or elevationGain", r.ID)
		}
		w.Speed, w.ElevationGain = *r.Speed, *r.ElevationGain
	}
	if err := w.Validate(); err != nil {
		return workout.Workout{}, fmt.Errorf("record %s: %w", r.ID, err)
	}
	return w, nil
}

// Store reads and writes the registry through a KeyValueStore.
type Store struct {
	kv     store.KeyValueStore
	logger *log.Logger
}

func NewStore(kv store.KeyValueStore, logger *log.Logger) *Store {
	if kv == nil {
		panic("persistence.Store: kv cannot be nil")
	}
	if logger == nil {
		panic("persistence.Store: logger cannot be nil")
	}
	return &Store{kv: kv, logger: logger}
}

// Save overwrites the stored value with every non-empty sequence of reg.
func (s *Store) Save(ctx context.Context, reg *workout.Registry) error {
	groups := reg.AllNonEmpty()
	payload := make([][]record, 0, len(groups))
	count := 0
	for _, group := range groups {
		records := make([]record, 0, len(group))
		for _, w := range group {
			records = append(records, toRecord(w))
		}
		count += len(records)
		payload = append(payload, records)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode workouts: %w", err)
	}
	if err := s.kv.Set(ctx, Key, raw); err != nil {
		return fmt.Errorf("save workouts: %w", err)
	}
	s.logger.Printf("Persistence: saved %d workouts", count)
	return nil
}

// Load returns the stored sequences. A missing key, an unreadable store or
// a payload that does not decode into valid workouts all yield an empty
// result: no history is a normal state.
func (s *Store) Load(ctx context.Context) [][]workout.Workout {
	raw, err := s.kv.Get(ctx, Key)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Printf("Persistence: no saved workouts")
		return nil
	}
	if err != nil {
		s.logger.Printf("Persistence: read failed, starting empty: %v", err)
		return nil
	}

	groups, err := decode(raw)
	if err != nil {
		s.logger.Printf("Persistence: ignoring unparseable data: %v", err)
		return nil
	}
	s.logger.Printf("Persistence: loaded %d groups", len(groups))
	return groups
}

func decode(raw []byte) ([][]workout.Workout, error) {
	var payload [][]record
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	groups := make([][]workout.Workout, 0, len(payload))
	for _, records := range payload {
		if len(records) == 0 {
			continue
		}
		group := make([]workout.Workout, 0, len(records))
		for _, r := range records {
			w, err := r.toWorkout()
			if err != nil {
				return nil, err
			}
			group = append(group, w)
		}
		groups = append(groups, group)
	}
	return groups, nil
}
