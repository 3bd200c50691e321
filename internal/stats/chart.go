package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Series is one named line of a chart. Fixed pins the scale to [Min, Max]
// instead of the data extent. Limits are drawn as dotted reference lines in
// the series' own scale and widen it to stay visible.
type Series struct {
	Name   string
	Values []float64
	Fixed  bool
	Min    float64
	Max    float64
	Limits []float64
}

// Chart is a braille line chart. Width and Height are in terminal cells;
// zero picks defaults from the terminal.
type Chart struct {
	Title  string
	Series []Series
	Width  int
	Height int
}

type seriesRange struct {
	min float64
	max float64
}

const (
	defaultChartHeight = 10
	minChartWidth      = 10
	axisLabelWidth     = 6
	axisSeparator      = " │ "
	scaleNote          = "Each series has its own scale:"
	fallbackTermWidth  = 80
	colorReset         = "\x1b[0m"
)

var palette = []string{
	"\x1b[36m", // cyan
	"\x1b[35m", // magenta
	"\x1b[33m", // yellow
	"\x1b[32m", // green
	"\x1b[34m", // blue
}

// Render writes the chart to w. Color is used when forceColor is set or w
// is a terminal, unless NO_COLOR is present.
func (c Chart) Render(w io.Writer, forceColor bool) error {
	series := make([]Series, 0, len(c.Series))
	for _, s := range c.Series {
		if len(s.Values) > 0 {
			series = append(series, s)
		}
	}
	if len(series) == 0 {
		return nil
	}
	width, height := c.Width, c.Height
	if height <= 0 {
		height = defaultChartHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minChartWidth)

	cv := newCanvas(width, height, len(series))
	ranges := make([]seriesRange, len(series))
	for i, s := range series {
		ranges[i] = rangeFor(s, s.Values)
		drawSeries(cv, i, resampleSeries(s.Values, width), ranges[i], seriesDash[i%len(seriesDash)])
		for _, limit := range s.Limits {
			y := valueToDot(limit, ranges[i], cv.dotHeight())
			cv.line(i, 0, y, cv.dotWidth()-1, y, limitLine)
		}
	}

	color := useColor(w, forceColor)
	var out strings.Builder
	if c.Title != "" {
		out.WriteString(c.Title + "\n")
	}
	if len(series) > 1 {
		out.WriteString(scaleNote + "\n")
		for i, s := range series {
			fmt.Fprintf(&out, "  %s: %s..%s\n", s.Name, axisValue(ranges[i].min), axisValue(ranges[i].max))
		}
	}
	labels := axisLabels(height, ranges)
	for row := 0; row < height; row++ {
		fmt.Fprintf(&out, "%*s%s", axisLabelWidth, labels[row], axisSeparator)
		for col := 0; col < width; col++ {
			ch, layer := cv.cell(col, row)
			if color && layer >= 0 {
				out.WriteString(palette[layer%len(palette)])
				out.WriteRune(ch)
				out.WriteString(colorReset)
				continue
			}
			out.WriteRune(ch)
		}
		out.WriteByte('\n')
	}
	out.WriteString(legend(series, color) + "\n\n")
	_, err := io.WriteString(w, out.String())
	return err
}

func drawSeries(cv *canvas, layer int, values []float64, r seriesRange, p dashPattern) {
	prevX, prevY := -1, -1
	for i, v := range values {
		x, y := indexToDot(i, len(values), cv.dotWidth()), valueToDot(v, r, cv.dotHeight())
		if prevX < 0 {
			if p.visible(x) {
				cv.dot(layer, x, y)
			}
		} else {
			cv.line(layer, prevX, prevY, x, y, p)
		}
		prevX, prevY = x, y
	}
}

// indexToDot spreads n points across the dot columns, first and last
// landing on the edges.
func indexToDot(i, n, dots int) int {
	if n <= 1 || dots <= 1 {
		return 0
	}
	return int(math.Round(float64(i) * float64(dots-1) / float64(n-1)))
}

// valueToDot maps v onto a dot row, top row being r.max.
func valueToDot(v float64, r seriesRange, dots int) int {
	if dots <= 1 {
		return 0
	}
	pos := (v - r.min) / (r.max - r.min)
	row := int(math.Round((1 - pos) * float64(dots-1)))
	return min(max(row, 0), dots-1)
}

func rangeFor(s Series, values []float64) seriesRange {
	var r seriesRange
	if s.Fixed {
		r = seriesRange{min: s.Min, max: s.Max}
	} else {
		r = seriesRange{min: math.Inf(1), max: math.Inf(-1)}
		for _, v := range values {
			r.min = math.Min(r.min, v)
			r.max = math.Max(r.max, v)
		}
		for _, limit := range s.Limits {
			r.min = math.Min(r.min, limit)
			r.max = math.Max(r.max, limit)
		}
	}
	if math.IsInf(r.min, 0) || math.IsInf(r.max, 0) {
		r = seriesRange{}
	}
	if r.max-r.min < 1e-9 {
		r.min--
		r.max++
	}
	return r
}

// axisLabels prints real values for a single series and relative
// positions when several series share the plot.
func axisLabels(height int, ranges []seriesRange) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	top, mid, bottom := "100%", "50%", "0%"
	if len(ranges) == 1 {
		r := ranges[0]
		top, mid, bottom = axisValue(r.max), axisValue((r.min+r.max)/2), axisValue(r.min)
	}
	labels[0] = top
	if height > 2 {
		labels[height/2] = mid
	}
	if height > 1 {
		labels[height-1] = bottom
	}
	return labels
}

func axisValue(v float64) string {
	if math.Abs(v) >= 1000 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func legend(series []Series, color bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", rune(brailleBase+1), s.Name, seriesDash[i%len(seriesDash)].name)
		if len(s.Limits) > 0 {
			limits := make([]string, len(s.Limits))
			for j, l := range s.Limits {
				limits[j] = axisValue(l)
			}
			label += " limit " + strings.Join(limits, ",")
		}
		if color {
			label = palette[i%len(palette)] + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// resampleSeries shrinks values to width points by averaging buckets.
// Shorter series are returned as is and spread out when drawn, so every
// sample stays on the plot.
func resampleSeries(values []float64, width int) []float64 {
	n := len(values)
	if n == 0 || width <= 0 {
		return nil
	}
	if n <= width {
		return append([]float64(nil), values...)
	}
	out := make([]float64, width)
	for i := range out {
		lo := i * n / width
		hi := max((i+1)*n/width, lo+1)
		var sum float64
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

// PlotWidthFor returns the plot width that fits totalWidth next to the axis.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minChartWidth
	}
	axis := axisLabelWidth + utf8.RuneCountInString(axisSeparator)
	return max(totalWidth-axis, minChartWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackTermWidth
	}
	return width
}

func useColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
