package app

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lowaak/mapty/internal/events"
	"github.com/lowaak/mapty/internal/mapview"
	"github.com/lowaak/mapty/internal/safego"
	"github.com/lowaak/mapty/internal/workout"
	"github.com/rivo/tview"
)

var _ mapview.MapSurface = (*MapWidget)(nil)

const (
	minZoom       = 2
	maxZoom       = 18
	gridMinCells  = 10
	markerGlyph   = '●'
	cursorGlyph   = '+'
	popupMaxWidth = 32
)

// MapWidget is a tview primitive drawing a Web Mercator viewport in
// terminal cells. It implements mapview.MapSurface.
//
// All methods must be called on the UI event loop; pan animations post
// their frames back through queue.
type MapWidget struct {
	*tview.Box

	logger      *log.Logger
	queue       func(func())
	clicks      *events.CallbackEvent[workout.Coords]
	attribution string

	ready   bool
	status  string
	center  workout.Coords
	zoom    int
	markers []mapview.Marker

	// cursor offset from the middle of the widget, in cells
	cursorDX, cursorDY int

	animMu    sync.Mutex
	animation uint64
}

// NewMapWidget creates an empty map. queue posts a function to the UI event
// loop; when nil, SetView never animates.
func NewMapWidget(logger *log.Logger, attribution string, queue func(func())) *MapWidget {
	if logger == nil {
		panic("MapWidget: logger cannot be nil")
	}
	m := &MapWidget{
		Box:         tview.NewBox(),
		logger:      logger,
		queue:       queue,
		clicks:      events.NewCallbackEvent[workout.Coords](),
		attribution: attribution,
		status:      "Locating...",
		zoom:        mapview.InitialZoom,
	}
	m.SetBorder(true).SetTitle(" Map ")
	return m
}

// SetView centers the map. Animated moves interpolate over panDuration.
func (m *MapWidget) SetView(center workout.Coords, zoom int, animate bool) {
	gen := m.nextAnimation()
	m.zoom = clampZoom(zoom)
	if !animate || !m.ready || m.queue == nil {
		m.center = center
		m.ready = true
		return
	}

	from := m.center
	safego.Go(m.logger, func() {
		ticker := time.NewTicker(panDuration / panFrames)
		defer ticker.Stop()
		for frame := 1; frame <= panFrames; frame++ {
			<-ticker.C
			if !m.isAnimation(gen) {
				return
			}
			t := easeInOut(float64(frame) / panFrames)
			last := frame == panFrames
			m.queue(func() {
				if !m.isAnimation(gen) {
					return
				}
				if last {
					m.center = center
					return
				}
				m.center = mapview.Interpolate(from, center, t)
			})
		}
	})
}

// AddMarker pins a marker and its popup
func (m *MapWidget) AddMarker(marker mapview.Marker) {
	m.markers = append(m.markers, marker)
}

// OnClick registers handler for clicks on the map
func (m *MapWidget) OnClick(handler func(workout.Coords)) func() {
	return m.clicks.Listen(handler)
}

// SetStatus sets the text shown while the map has no view
func (m *MapWidget) SetStatus(text string) {
	m.status = text
}

// Center returns the current view center and zoom
func (m *MapWidget) Center() (workout.Coords, int) {
	return m.center, m.zoom
}

// Ready reports whether a view has been set
func (m *MapWidget) Ready() bool {
	return m.ready
}

// Draw draws this primitive onto the screen.
func (m *MapWidget) Draw(screen tcell.Screen) {
	m.DrawForSubclass(screen, m)
	x, y, width, height := m.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}
	if !m.ready {
		printLine(screen, m.status, x+max(0, (width-len(m.status))/2), y+height/2, width, tcell.StyleDefault.Foreground(tcell.ColorYellow))
		return
	}

	// Reserve the last row for the footer
	mapHeight := height - 1
	vp := m.viewport(width, mapHeight)
	m.drawGraticule(screen, x, y, vp)

	for _, marker := range m.markers {
		col, row, ok := vp.CoordsToCell(marker.Coords)
		if !ok {
			continue
		}
		color, found := styleColors[marker.StyleClass]
		if !found {
			color = tcell.ColorWhite
		}
		screen.SetContent(x+col, y+row, markerGlyph, nil, tcell.StyleDefault.Foreground(color))
		popup := tcell.StyleDefault.Background(color).Foreground(tcell.ColorBlack)
		printLine(screen, " "+marker.Popup+" ", x+col+1, y+row, min(popupMaxWidth, width-col-1), popup)
	}

	col, row := m.cursorCell(width, mapHeight)
	if m.HasFocus() {
		screen.SetContent(x+col, y+row, cursorGlyph, nil, tcell.StyleDefault.Reverse(true))
	}

	cursor := vp.CellToCoords(col, row)
	footer := fmt.Sprintf("%.4f, %.4f  z%d", cursor.Lat, cursor.Lng, m.zoom)
	if m.attribution != "" {
		footer += "  " + m.attribution
	}
	printLine(screen, footer, x, y+height-1, width, tcell.StyleDefault.Foreground(tcell.ColorGray))
}

func (m *MapWidget) drawGraticule(screen tcell.Screen, x, y int, vp mapview.Viewport) {
	step := mapview.GridStep(vp.Zoom, vp.CellWidth, gridMinCells)
	style := tcell.StyleDefault.Foreground(tcell.ColorDarkSlateGray)

	vertical := make([]bool, vp.Width)
	for col := range vertical {
		left := vp.EdgeCoords(col, 0).Lng
		right := vp.EdgeCoords(col+1, 0).Lng
		vertical[col] = crossesLine(left, right, step)
	}
	for row := 0; row < vp.Height; row++ {
		top := vp.EdgeCoords(0, row).Lat
		bottom := vp.EdgeCoords(0, row+1).Lat
		horizontal := crossesLine(bottom, top, step)
		for col := 0; col < vp.Width; col++ {
			switch {
			case horizontal && vertical[col]:
				screen.SetContent(x+col, y+row, '┼', nil, style)
			case horizontal:
				screen.SetContent(x+col, y+row, '─', nil, style)
			case vertical[col]:
				screen.SetContent(x+col, y+row, '│', nil, style)
			}
		}
	}
}

// InputHandler moves the cursor with the arrow keys, zooms with +/- and
// clicks at the cursor with Enter.
func (m *MapWidget) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return m.WrapInputHandler(func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
		switch event.Key() {
		case tcell.KeyUp:
			m.moveCursor(0, -1)
		case tcell.KeyDown:
			m.moveCursor(0, 1)
		case tcell.KeyLeft:
			m.moveCursor(-1, 0)
		case tcell.KeyRight:
			m.moveCursor(1, 0)
		case tcell.KeyEnter:
			_, _, width, height := m.GetInnerRect()
			col, row := m.cursorCell(width, height-1)
			m.ClickCell(col, row, width, height-1)
		case tcell.KeyRune:
			switch event.Rune() {
			case '+', '=':
				m.zoomBy(1)
			case '-':
				m.zoomBy(-1)
			}
		}
	})
}

// MouseHandler clicks at the pointer and zooms with the wheel.
func (m *MapWidget) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
	return m.WrapMouseHandler(func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
		px, py := event.Position()
		if !m.InRect(px, py) {
			return false, nil
		}
		switch action {
		case tview.MouseLeftClick:
			setFocus(m)
			x, y, width, height := m.GetInnerRect()
			col, row := px-x, py-y
			if col < 0 || row < 0 || col >= width || row >= height-1 {
				return true, nil
			}
			m.cursorDX, m.cursorDY = col-width/2, row-(height-1)/2
			m.ClickCell(col, row, width, height-1)
			return true, nil
		case tview.MouseScrollUp:
			m.zoomBy(1)
			return true, nil
		case tview.MouseScrollDown:
			m.zoomBy(-1)
			return true, nil
		}
		return false, nil
	})
}

// ClickCell notifies click listeners with the position of a cell in a
// width x height viewport.
func (m *MapWidget) ClickCell(col, row, width, height int) {
	if !m.ready || width <= 0 || height <= 0 {
		return
	}
	m.clicks.Notify(m.viewport(width, height).CellToCoords(col, row))
}

func (m *MapWidget) viewport(width, height int) mapview.Viewport {
	return mapview.NewViewport(m.center, m.zoom, width, height)
}

func (m *MapWidget) cursorCell(width, height int) (int, int) {
	col := clamp(width/2+m.cursorDX, 0, width-1)
	row := clamp(height/2+m.cursorDY, 0, height-1)
	return col, row
}

// moveCursor moves the cursor one cell and scrolls the map when it would
// leave the viewport.
func (m *MapWidget) moveCursor(dx, dy int) {
	if !m.ready {
		return
	}
	_, _, width, height := m.GetInnerRect()
	height--
	col, row := width/2+m.cursorDX+dx, height/2+m.cursorDY+dy
	if col >= 0 && col < width && row >= 0 && row < height {
		m.cursorDX += dx
		m.cursorDY += dy
		return
	}
	m.nextAnimation()
	vp := m.viewport(width, height)
	m.center = mapview.Offset(m.center, m.zoom, float64(dx)*vp.CellWidth, float64(dy)*vp.CellHeight)
}

func (m *MapWidget) zoomBy(delta int) {
	if !m.ready {
		return
	}
	m.nextAnimation()
	m.zoom = clampZoom(m.zoom + delta)
}

func (m *MapWidget) nextAnimation() uint64 {
	m.animMu.Lock()
	defer m.animMu.Unlock()
	m.animation++
	return m.animation
}

func (m *MapWidget) isAnimation(gen uint64) bool {
	m.animMu.Lock()
	defer m.animMu.Unlock()
	return m.animation == gen
}

// crossesLine reports whether a multiple of step lies in [from, to).
func crossesLine(from, to, step float64) bool {
	if from > to {
		from, to = to, from
	}
	return math.Floor(from/step) != math.Floor(to/step)
}

func easeInOut(t float64) float64 {
	return t * t * (3 - 2*t)
}

func clampZoom(zoom int) int {
	return clamp(zoom, minZoom, maxZoom)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}

// printLine writes text from (x, y) without wrapping, cut at width cells.
func printLine(screen tcell.Screen, text string, x, y, width int, style tcell.Style) {
	col := 0
	for _, r := range text {
		if col >= width {
			return
		}
		screen.SetContent(x+col, y, r, nil, style)
		col++
	}
}
