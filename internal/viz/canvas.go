package viz

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a Braille dot canvas of Width x Height cells, i.e.
// 2*Width x 4*Height dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
	return c
}

// Set lights the dot at (x, y); y grows downward.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Dot maps a point of the unit square (y up) to dot coordinates.
func (c *Canvas) Dot(p r2.Vec) (int, int) {
	w, h := float64(c.Width*2), float64(c.Height*4)
	return int(math.Floor(p.X * w)), int(math.Floor((1 - p.Y) * h))
}

// World maps a cell to the unit-square point at its centre.
func (c *Canvas) World(col, row int) r2.Vec {
	return r2.Vec{
		X: (float64(col) + 0.5) / float64(c.Width),
		Y: 1 - (float64(row)+0.5)/float64(c.Height),
	}
}

// DrawSegment draws a line between two unit-square points.
func (c *Canvas) DrawSegment(a, b r2.Vec) {
	if !finite(a) || !finite(b) {
		return
	}
	x0, y0 := c.Dot(a)
	x1, y1 := c.Dot(b)
	c.DrawLine(x0, y0, x1, y1)
}

// DrawTriangle outlines the triangle abc.
func (c *Canvas) DrawTriangle(a, b, p r2.Vec) {
	c.DrawSegment(a, b)
	c.DrawSegment(b, p)
	c.DrawSegment(p, a)
}

// BarRow returns the first cell row lying entirely below height y.
func (c *Canvas) BarRow(y float64) int {
	return int(math.Ceil((1 - y) * float64(c.Height)))
}

func (c *Canvas) Row(i int) string {
	return string(c.Grid[i])
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func finite(p r2.Vec) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
