// Package bt acquires the starting position from a Bluetooth LE device that
// exposes the Location and Navigation service (GPS watches, bike computers).
package bt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/lowaak/mapty/internal/geo"
	"github.com/lowaak/mapty/internal/safego"
	"github.com/lowaak/mapty/internal/workout"
)

var _ geo.PositionProvider = (*LocationProvider)(nil)

// LocationProvider scans for the first LNS device, subscribes to its
// Location and Speed characteristic and returns the first fix.
type LocationProvider struct {
	adapter *bluetooth.Adapter
	timeout time.Duration
	logger  *log.Logger
}

func NewLocationProvider(adapter *bluetooth.Adapter, logger *log.Logger, timeout time.Duration) *LocationProvider {
	if adapter == nil {
		panic("LocationProvider: adapter cannot be nil")
	}
	if logger == nil {
		panic("LocationProvider: logger cannot be nil")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LocationProvider{adapter: adapter, timeout: timeout, logger: logger}
}

// CurrentPosition blocks until a fix arrives, ctx ends or the timeout passes.
// All failures wrap geo.ErrGeolocationUnavailable.
func (p *LocationProvider) CurrentPosition(ctx context.Context) (workout.Coords, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	pos, err := p.acquire(ctx)
	if err != nil {
		p.logger.Printf("LocationProvider: %v", err)
		return workout.Coords{}, fmt.Errorf("%w: %v", geo.ErrGeolocationUnavailable, err)
	}
	p.logger.Printf("LocationProvider: fix at %s", pos)
	return pos, nil
}

func (p *LocationProvider) acquire(ctx context.Context) (workout.Coords, error) {
	if err := p.adapter.Enable(); err != nil {
		return workout.Coords{}, fmt.Errorf("enable BLE stack: %w", err)
	}

	result, err := p.scan(ctx)
	if err != nil {
		return workout.Coords{}, err
	}

	name := result.LocalName()
	if name == "" {
		name = "Unknown"
	}
	p.logger.Printf("LocationProvider: connecting to %s (%s)", name, result.Address.String())
	device, err := p.adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return workout.Coords{}, fmt.Errorf("connect %s: %w", result.Address.String(), err)
	}
	defer func() {
		if err := device.Disconnect(); err != nil {
			p.logger.Printf("LocationProvider: disconnect failed: %v", err)
		}
	}()

	services, err := device.DiscoverServices([]bluetooth.UUID{ServiceUUIDLocationNavigation})
	if err != nil {
		return workout.Coords{}, fmt.Errorf("discover location service: %w", err)
	}
	if len(services) == 0 {
		return workout.Coords{}, errors.New("device has no location service")
	}
	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{CharUUIDLocationAndSpeed})
	if err != nil {
		return workout.Coords{}, fmt.Errorf("discover location and speed characteristic: %w", err)
	}
	if len(chars) == 0 {
		return workout.Coords{}, errors.New("device has no location and speed characteristic")
	}
	char := chars[0]

	fixes := make(chan workout.Coords, 1)
	err = char.EnableNotifications(func(buf []byte) {
		ls, err := ParseLocationAndSpeed(buf)
		if err != nil {
			p.logger.Printf("LocationProvider: %v", err)
			return
		}
		if !ls.HasLocation || ls.Status == PositionStatusNone {
			return
		}
		pos := workout.Coords{Lat: ls.Latitude, Lng: ls.Longitude}
		if err := geo.ValidateCoords(pos); err != nil {
			p.logger.Printf("LocationProvider: ignoring fix: %v", err)
			return
		}
		select {
		case fixes <- pos:
		default:
		}
	})
	if err != nil {
		return workout.Coords{}, fmt.Errorf("enable notifications: %w", err)
	}
	defer func() {
		if err := char.EnableNotifications(nil); err != nil {
			p.logger.Printf("LocationProvider: disable notifications failed: %v", err)
		}
	}()

	select {
	case pos := <-fixes:
		return pos, nil
	case <-ctx.Done():
		return workout.Coords{}, fmt.Errorf("waiting for fix: %w", ctx.Err())
	}
}

// scan returns the first advertisement carrying the LNS service UUID.
func (p *LocationProvider) scan(ctx context.Context) (bluetooth.ScanResult, error) {
	found := make(chan bluetooth.ScanResult, 1)
	scanErr := make(chan error, 1)

	p.logger.Printf("LocationProvider: scanning for %s", ServiceUUIDLocationNavigation.String())
	safego.Go(p.logger, func() {
		err := p.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !result.HasServiceUUID(ServiceUUIDLocationNavigation) {
				return
			}
			select {
			case found <- result:
				if err := adapter.StopScan(); err != nil {
					p.logger.Printf("LocationProvider: stop scan: %v", err)
				}
			default:
			}
		})
		if err != nil {
			scanErr <- err
		}
	})

	select {
	case result := <-found:
		return result, nil
	case err := <-scanErr:
		return bluetooth.ScanResult{}, fmt.Errorf("scan: %w", err)
	case <-ctx.Done():
		if err := p.adapter.StopScan(); err != nil {
			p.logger.Printf("LocationProvider: stop scan: %v", err)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return bluetooth.ScanResult{}, errors.New("no location device found")
		}
		return bluetooth.ScanResult{}, ctx.Err()
	}
}
