package analysis

import (
	"strings"

	"gonum.org/v1/gonum/floats"
)

type Point struct {
	X, Y float64
}

// EnergyPhase pairs each interior sample of trace with its central
// difference derivative.
func EnergyPhase(trace []float64, dt float64) []Point {
	if len(trace) < 3 || !(dt > 0) {
		return nil
	}
	out := make([]Point, 0, len(trace)-2)
	for i := 1; i < len(trace)-1; i++ {
		out = append(out, Point{X: trace[i], Y: (trace[i+1] - trace[i-1]) / (2 * dt)})
	}
	return out
}

// PhasePortraitToASCII plots points on a width x height character grid,
// drawing the dU/dt = 0 axis when it is in range.
func PhasePortraitToASCII(points []Point, width, height int) string {
	if len(points) == 0 || width < 2 || height < 2 {
		return ""
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}
	x0, x1 := padded(floats.Min(xs), floats.Max(xs))
	y0, y1 := padded(floats.Min(ys), floats.Max(ys))

	cell := func(p Point) (col, row int) {
		col = int((p.X - x0) / (x1 - x0) * float64(width-1))
		row = height - 1 - int((p.Y-y0)/(y1-y0)*float64(height-1))
		return col, row
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	if y0 <= 0 && y1 >= 0 {
		_, row := cell(Point{})
		for col := range grid[row] {
			grid[row][col] = '─'
		}
	}
	for _, p := range points {
		col, row := cell(p)
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, r := range grid {
		sb.WriteString(string(r))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// padded widens [lo, hi] by a tenth of its span on each side.
func padded(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return lo - span/10, hi + span/10
}
