package timeline

import "math"

// Grid is the quantization resolution for interactive edits
type Grid string

const (
	GridQuarter   Grid = "quarter"
	GridEighth    Grid = "eighth"
	GridSixteenth Grid = "sixteenth" // finest resolution, the default
)

// Grids lists the selectable resolutions in cycle order
var Grids = []Grid{GridSixteenth, GridEighth, GridQuarter}

// ParseGrid maps a config string to a Grid, defaulting to sixteenth
func ParseGrid(s string) Grid {
	switch Grid(s) {
	case GridQuarter, GridEighth, GridSixteenth:
		return Grid(s)
	}
	return GridSixteenth
}

// GridTick returns the snap step in ticks for this grid under the given meta.
// Never returns less than 1.
func (g Grid) GridTick(m Meta) int {
	var t int
	switch g {
	case GridQuarter:
		t = m.TicksPerBar / 4
	case GridEighth:
		t = m.TicksPerBar / 8
	default:
		t = 1
	}
	if t < 1 {
		t = 1
	}
	return t
}

// Snap rounds a tick to the nearest multiple of gridTick.
// gridTick <= 1 means no snapping. Callers re-clamp to the project range.
func Snap(tick, gridTick int) int {
	if gridTick <= 1 {
		return tick
	}
	return int(math.Round(float64(tick)/float64(gridTick))) * gridTick
}

// PixelToTick converts a position along a lane to a tick.
// x is clamped to [0, laneWidth] so out-of-bounds pointers stay on the lane.
func PixelToTick(x, laneWidth float64, totalTicks int) int {
	if laneWidth <= 0 {
		return 0
	}
	if x < 0 {
		x = 0
	}
	if x > laneWidth {
		x = laneWidth
	}
	return int(math.Round(x / laneWidth * float64(totalTicks)))
}

// Clamp bounds a tick to [0, totalTicks]
func Clamp(tick, totalTicks int) int {
	if tick < 0 {
		return 0
	}
	if tick > totalTicks {
		return totalTicks
	}
	return tick
}
