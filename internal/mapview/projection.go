package mapview

import (
	"math"

	"github.com/lowaak/mapty/internal/workout"
)

const (
	// TileSize is the Web Mercator tile edge in pixels
	TileSize = 256
	// maxLatitude is where Web Mercator is clipped
	maxLatitude = 85.05112878
)

// Project returns the world pixel position of c at zoom.
func Project(c workout.Coords, zoom int) (x, y float64) {
	scale := worldSize(zoom)
	lat := math.Max(-maxLatitude, math.Min(maxLatitude, c.Lat))
	sinLat := math.Sin(lat * math.Pi / 180)
	x = (c.Lng + 180) / 360 * scale
	y = (0.5 - math.Log((1+sinLat)/(1-sinLat))/(4*math.Pi)) * scale
	return x, y
}

// Unproject is the inverse of Project. Longitude wraps into [-180, 180).
func Unproject(x, y float64, zoom int) workout.Coords {
	scale := worldSize(zoom)
	lng := x/scale*360 - 180
	lng = math.Mod(lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	lng -= 180
	n := math.Pi - 2*math.Pi*y/scale
	lat := 180 / math.Pi * math.Atan(math.Sinh(n))
	return workout.Coords{Lat: lat, Lng: lng}
}

func worldSize(zoom int) float64 {
	return TileSize * math.Exp2(float64(zoom))
}

// Viewport maps terminal cells onto the projected world around Center.
// Cells are taller than wide, so a cell covers CellWidth x CellHeight pixels.
type Viewport struct {
	Center     workout.Coords
	Zoom       int
	Width      int
	Height     int
	CellWidth  float64
	CellHeight float64
}

// NewViewport uses an 8x16 pixel cell
func NewViewport(center workout.Coords, zoom, width, height int) Viewport {
	return Viewport{Center: center, Zoom: zoom, Width: width, Height: height, CellWidth: 8, CellHeight: 16}
}

// CellToCoords returns the geographic position at the middle of a cell.
func (v Viewport) CellToCoords(col, row int) workout.Coords {
	cx, cy := Project(v.Center, v.Zoom)
	x := cx + (float64(col)+0.5-float64(v.Width)/2)*v.CellWidth
	y := cy + (float64(row)+0.5-float64(v.Height)/2)*v.CellHeight
	return Unproject(x, y, v.Zoom)
}

// CoordsToCell returns the cell containing c and whether it is on screen.
func (v Viewport) CoordsToCell(c workout.Coords) (col, row int, ok bool) {
	cx, cy := Project(v.Center, v.Zoom)
	x, y := Project(c, v.Zoom)
	col = int(math.Floor((x-cx)/v.CellWidth + float64(v.Width)/2))
	row = int(math.Floor((y-cy)/v.CellHeight + float64(v.Height)/2))
	ok = col >= 0 && col < v.Width && row >= 0 && row < v.Height
	return col, row, ok
}

// Interpolate returns the point a fraction t of the way from a to b in
// projected space, which keeps pan animations visually straight.
func Interpolate(a, b workout.Coords, t float64) workout.Coords {
	ax, ay := Project(a, 0)
	bx, by := Project(b, 0)
	return Unproject(ax+(bx-ax)*t, ay+(by-ay)*t, 0)
}

// EdgeCoords returns the geographic position of a cell's top-left corner.
func (v Viewport) EdgeCoords(col, row int) workout.Coords {
	cx, cy := Project(v.Center, v.Zoom)
	x := cx + (float64(col)-float64(v.Width)/2)*v.CellWidth
	y := cy + (float64(row)-float64(v.Height)/2)*v.CellHeight
	return Unproject(x, y, v.Zoom)
}

// GridStep picks a graticule spacing in degrees so that lines fall roughly
// every minCells cells at zoom.
func GridStep(zoom int, cellWidth float64, minCells int) float64 {
	degreesPerCell := 360 / worldSize(zoom) * cellWidth
	target := degreesPerCell * float64(minCells)
	magnitude := math.Pow(10, math.Floor(math.Log10(target)))
	for _, m := range []float64{1, 2, 5, 10} {
		if step := m * magnitude; step >= target {
			return step
		}
	}
	return 10 * magnitude
}

// Offset moves c by dx, dy pixels at zoom.
func Offset(c workout.Coords, zoom int, dx, dy float64) workout.Coords {
	x, y := Project(c, zoom)
	return Unproject(x+dx, y+dy, zoom)
}
