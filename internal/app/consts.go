package app

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lowaak/mapty/internal/mapview"
	"github.com/lowaak/mapty/internal/workout"
)

// Page names for tview.Pages
const (
	pageMain  = "main"
	pageAlert = "alert"
)

// Marker style classes, one per workout type
const (
	StyleRunningPopup = "running-popup"
	StyleCyclingPopup = "cycling-popup"
)

// StyleClassFor returns the marker style class for a workout type
func StyleClassFor(t workout.Type) string {
	if t == workout.TypeCycling {
		return StyleCyclingPopup
	}
	return StyleRunningPopup
}

// styleColors maps marker style classes to terminal colors
var styleColors = map[string]tcell.Color{
	StyleRunningPopup:     tcell.ColorGreen,
	StyleCyclingPopup:     tcell.ColorOrange,
	mapview.LocationStyle: tcell.ColorDodgerBlue,
}

// typeColors are the tview color tags used for list entries
var typeColors = map[workout.Type]string{
	workout.TypeRunning: "green",
	workout.TypeCycling: "orange",
}

// MapState is the lifecycle of the map for the session
type MapState int

const (
	MapLocating    MapState = iota // waiting for the position provider
	MapReady                       // map initialized, clicks open the form
	MapUnavailable                 // position failed; terminal for the session
)

func (s MapState) String() string {
	switch s {
	case MapReady:
		return "ready"
	case MapUnavailable:
		return "unavailable"
	default:
		return "locating"
	}
}

// MapStatus is published whenever the map lifecycle changes
type MapStatus struct {
	State  MapState
	Center workout.Coords
	Reason string
}

// Alert is a user-visible notification shown in a modal
type Alert struct {
	Title   string
	Message string
}

// User-facing alert texts
const (
	alertInvalidInput     = "All the inputs must be positive numbers"
	alertLocationRequired = "Please activate your location!"
)

const (
	maxLogLines = 1000

	// panDuration and panFrames shape the list-selection pan animation
	panDuration = time.Second
	panFrames   = 20
)

// helpText is shown above the form
const helpText = "[yellow]Click[white]/[yellow]Enter[white] map: new workout  |  [yellow]Tab[white] Cycle focus  |  [yellow]+/-[white] Zoom  |  [yellow]Esc[white] Quit"
