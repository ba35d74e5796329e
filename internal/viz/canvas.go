package viz

import (
	"math"
	"strings"
)

// brailleBase is the empty braille cell. Each cell holds 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
const brailleBase = 0x2800

var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of braille cells addressed in sub-pixels, so a canvas of
// Width x Height cells has (2*Width) x (4*Height) dots.
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
	}
	c.Clear()
	return c
}

func (c *Canvas) cell(x, y int) (row, col int, mask rune, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, 0, false
	}
	col, row = x/2, y/4
	if col >= c.Width || row >= c.Height {
		return 0, 0, 0, false
	}
	return row, col, pixelMap[y%4][x%2], true
}

// Set turns on the dot at sub-pixel (x, y). Out of range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if row, col, mask, ok := c.cell(x, y); ok {
		c.Grid[row][col] |= mask
	}
}

func (c *Canvas) contains(x, y int) bool {
	_, _, _, ok := c.cell(x, y)
	return ok
}

func (c *Canvas) IsSet(x, y int) bool {
	row, col, mask, ok := c.cell(x, y)
	return ok && c.Grid[row][col]&mask != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBase
		}
	}
}

// Dot draws a filled square of the given radius around (x, y).
func (c *Canvas) Dot(x, y, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			c.Set(x+dx, y+dy)
		}
	}
}

// DrawLine uses Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
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

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Viewport maps the x-y plane onto canvas sub-pixels, centred on (CX, CY)
// with Scale dots per unit. Screen y grows downwards.
type Viewport struct {
	CX, CY float64
	Scale  float64
}

func (v Viewport) Project(c *Canvas, x, y float64) (int, int, bool) {
	px := float64(c.Width) + (x-v.CX)*v.Scale
	py := float64(2*c.Height) - (y-v.CY)*v.Scale
	if math.IsNaN(px) || math.IsNaN(py) || math.Abs(px) > 1e6 || math.Abs(py) > 1e6 {
		return 0, 0, false
	}
	return int(math.Round(px)), int(math.Round(py)), true
}

// Fit returns the scale that shows a disc of the given radius on the canvas
// with a small margin.
func Fit(c *Canvas, radius float64) float64 {
	if !(radius > 0) {
		radius = 1
	}
	half := math.Min(float64(c.Width), float64(2*c.Height))
	return 0.9 * half / radius
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
