// Package mapview owns the map: the rendering surface abstraction, the
// controller enforcing initialization order and the Web Mercator projection.
package mapview

import "github.com/lowaak/mapty/internal/workout"

// Marker is a pinned popup on the map
type Marker struct {
	Coords       workout.Coords
	Popup        string
	StyleClass   string
	AutoClose    bool
	CloseOnClick bool
}

// MapSurface is the rendering side of the map widget.
type MapSurface interface {
	// SetView centers the map on center at zoom, animating the move when asked.
	SetView(center workout.Coords, zoom int, animate bool)
	// AddMarker pins m on the map until the surface is disposed.
	AddMarker(m Marker)
	// OnClick registers handler for clicks; the returned func removes it.
	OnClick(handler func(workout.Coords)) func()
}
