package stats

// A braille cell is 2 dots wide and 4 dots tall. brailleBits[y][x] is the
// bit for the dot at (x, y) inside a cell.
var brailleBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

const brailleBase = 0x2800

// dashPattern draws a dot when x%period < on.
type dashPattern struct {
	name   string
	period int
	on     int
}

func (p dashPattern) visible(x int) bool {
	if p.period <= 1 {
		return true
	}
	return abs(x)%p.period < p.on
}

var (
	solidLine  = dashPattern{name: "solid", period: 1, on: 1}
	limitLine  = dashPattern{name: "dotted", period: 4, on: 1}
	seriesDash = []dashPattern{
		solidLine,
		{name: "dashed", period: 6, on: 3},
		{name: "dashdot", period: 8, on: 3},
		limitLine,
	}
)

// canvas holds one dot layer per series so cells can be colored by the
// first layer that touches them.
type canvas struct {
	cols   int
	rows   int
	layers [][]uint8
}

func newCanvas(cols, rows, layers int) *canvas {
	c := &canvas{cols: cols, rows: rows, layers: make([][]uint8, layers)}
	for i := range c.layers {
		c.layers[i] = make([]uint8, cols*rows)
	}
	return c
}

func (c *canvas) dotWidth() int  { return c.cols * 2 }
func (c *canvas) dotHeight() int { return c.rows * 4 }

func (c *canvas) dot(layer, x, y int) {
	if x < 0 || y < 0 || x >= c.dotWidth() || y >= c.dotHeight() {
		return
	}
	c.layers[layer][(y/4)*c.cols+x/2] |= brailleBits[y%4][x%2]
}

// line draws a Bresenham segment between two dots.
func (c *canvas) line(layer, x0, y0, x1, y1 int, p dashPattern) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		if p.visible(x0) {
			c.dot(layer, x0, y0)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// cell merges all layers at a cell and reports the first layer drawn there,
// or -1 for an empty cell.
func (c *canvas) cell(col, row int) (rune, int) {
	var mask uint8
	first := -1
	idx := row*c.cols + col
	for i, layer := range c.layers {
		if layer[idx] == 0 {
			continue
		}
		if first < 0 {
			first = i
		}
		mask |= layer[idx]
	}
	return rune(brailleBase + int(mask)), first
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
