package mapview

import (
	"errors"
	"log"

	"github.com/lowaak/mapty/internal/workout"
)

var (
	ErrNotInitialized     = errors.New("map is not initialized")
	ErrAlreadyInitialized = errors.New("map is already initialized")
)

const (
	InitialZoom   = 15
	PanZoom       = 13
	LocationPopup = "My Location"
	LocationStyle = "location-popup"
)

// Controller drives a MapSurface. Nothing but Initialize is valid until
// Initialize has succeeded, and Initialize only runs once.
type Controller struct {
	surface     MapSurface
	logger      *log.Logger
	initialized bool
	markers     []Marker
}

func NewController(surface MapSurface, logger *log.Logger) *Controller {
	if surface == nil {
		panic("mapview.Controller: surface cannot be nil")
	}
	if logger == nil {
		panic("mapview.Controller: logger cannot be nil")
	}
	return &Controller{surface: surface, logger: logger}
}

// Initialize renders the map at center with the fixed location popup.
func (c *Controller) Initialize(center workout.Coords) error {
	if c.initialized {
		return ErrAlreadyInitialized
	}
	c.surface.SetView(center, InitialZoom, false)
	c.initialized = true
	c.addMarker(Marker{Coords: center, Popup: LocationPopup, StyleClass: LocationStyle})
	c.logger.Printf("MapController: initialized at %s", center)
	return nil
}

// Initialized reports whether Initialize has succeeded
func (c *Controller) Initialized() bool {
	return c.initialized
}

// OnClick registers handler for map clicks.
func (c *Controller) OnClick(handler func(workout.Coords)) (func(), error) {
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	return c.surface.OnClick(handler), nil
}

// PlaceMarker pins a persistent popup at coords.
func (c *Controller) PlaceMarker(coords workout.Coords, label, styleClass string) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	c.addMarker(Marker{Coords: coords, Popup: label, StyleClass: styleClass})
	return nil
}

// PanTo animates the view to coords at PanZoom.
func (c *Controller) PanTo(coords workout.Coords) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	c.surface.SetView(coords, PanZoom, true)
	return nil
}

// Markers returns the markers placed so far, location marker first
func (c *Controller) Markers() []Marker {
	result := make([]Marker, len(c.markers))
	copy(result, c.markers)
	return result
}

func (c *Controller) addMarker(m Marker) {
	// popups stay open until the map is disposed
	m.AutoClose = false
	m.CloseOnClick = false
	c.markers = append(c.markers, m)
	c.surface.AddMarker(m)
}
