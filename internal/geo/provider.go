// Package geo defines the one-shot position source the map is centered on.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/lowaak/mapty/internal/workout"
)

// ErrGeolocationUnavailable marks a failed position acquisition. It is
// terminal for the session.
var ErrGeolocationUnavailable = errors.New("geolocation unavailable")

// PositionProvider delivers the current position exactly once per call.
type PositionProvider interface {
	CurrentPosition(ctx context.Context) (workout.Coords, error)
}

// FixedProvider reports a configured position.
type FixedProvider struct {
	Position workout.Coords
}

func (p FixedProvider) CurrentPosition(ctx context.Context) (workout.Coords, error) {
	if err := ctx.Err(); err != nil {
		return workout.Coords{}, fmt.Errorf("%w: %v", ErrGeolocationUnavailable, err)
	}
	if err := ValidateCoords(p.Position); err != nil {
		return workout.Coords{}, fmt.Errorf("%w: %v", ErrGeolocationUnavailable, err)
	}
	return p.Position, nil
}

// UnavailableProvider always fails, e.g. when no position source is configured.
type UnavailableProvider struct {
	Reason string
}

func (p UnavailableProvider) CurrentPosition(context.Context) (workout.Coords, error) {
	reason := p.Reason
	if reason == "" {
		reason = "no position source"
	}
	return workout.Coords{}, fmt.Errorf("%w: %s", ErrGeolocationUnavailable, reason)
}

// ValidateCoords checks latitude and longitude ranges.
func ValidateCoords(c workout.Coords) error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %v out of range", c.Lat)
	}
	if math.IsNaN(c.Lng) || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %v out of range", c.Lng)
	}
	return nil
}
