package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/jeongseonghan/linecode/internal/modem"
)

// StepPlot draws a level sequence as a step plot: level i is held from
// time i to time i+1. A padded sequence therefore ends with a plateau.
func StepPlot(levels []int, opts Options) string {
	opts = opts.withDefaults(4, 0)
	pal := newPalette(opts.Color)

	var sb strings.Builder
	if opts.Title != "" {
		sb.WriteString(pal.title(opts.Title))
		sb.WriteByte('\n')
	}
	if len(levels) == 0 {
		sb.WriteString("(no levels)\n")
		return sb.String()
	}

	lo, hi := 0, 1
	for _, l := range levels {
		lo = min(lo, l)
		hi = max(hi, l)
	}

	w := opts.Width
	cells := max(len(levels)-1, 1)
	cols := cells*w + 1

	grid := make([][]rune, hi-lo+1)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", cols))
	}

	for i := 0; i < cells; i++ {
		row := hi - levels[i]
		for c := i * w; c < (i+1)*w; c++ {
			grid[row][c] = '-'
		}
	}
	grid[hi-levels[min(cells, len(levels)-1)]][cells*w] = '-'

	for i := 1; i <= cells && i < len(levels); i++ {
		a, b := levels[i-1], levels[i]
		if a == b {
			continue
		}
		for v := min(a, b); v <= max(a, b); v++ {
			grid[hi-v][i*w] = '|'
		}
	}

	for r, row := range grid {
		fmt.Fprintf(&sb, "%s %s\n", pal.axis(fmt.Sprintf("%3d |", hi-r)), pal.trace(string(row)))
	}

	// x-axis with a tick at every bit boundary
	bitCols := opts.SamplesPerBit * w
	axis := []rune(strings.Repeat("-", cols))
	for c := 0; c < cols; c += bitCols {
		axis[c] = '+'
	}
	fmt.Fprintf(&sb, "%s %s\n", pal.axis("    +"), pal.axis(string(axis)))

	if len(opts.Labels) > 0 {
		labels := []rune(strings.Repeat(" ", cols+len(opts.Labels[len(opts.Labels)-1])))
		for i, l := range opts.Labels {
			start := i*bitCols + bitCols/2 - len(l)/2
			if start < 0 || start+len(l) > len(labels) {
				continue
			}
			copy(labels[start:], []rune(l))
		}
		fmt.Fprintf(&sb, "      %s\n", strings.TrimRight(string(labels), " "))
	}

	return sb.String()
}

// WavePlot draws a QAM waveform with baud boundaries and a label above each
// baud.
func WavePlot(wf *modem.Waveform, opts Options) string {
	opts = opts.withDefaults(96, 15)
	pal := newPalette(opts.Color)

	var sb strings.Builder
	if opts.Title != "" {
		sb.WriteString(pal.title(opts.Title))
		sb.WriteByte('\n')
	}

	samples := wf.Samples()
	if len(samples) == 0 {
		sb.WriteString("(no samples)\n")
		return sb.String()
	}

	tMin := wf.Segments[0].Offset
	tMax := wf.Segments[len(wf.Segments)-1].Offset + modem.DefaultSymbolDuration
	aMax := 0.0
	for _, s := range samples {
		aMax = math.Max(aMax, math.Abs(s.A))
	}
	if aMax == 0 {
		aMax = 1
	}

	width, height := opts.Width, opts.Height
	if height%2 == 0 {
		height++ // keep a zero row
	}
	xOf := func(t float64) int {
		x := int(math.Round((t - tMin) / (tMax - tMin) * float64(width-1)))
		return min(max(x, 0), width-1)
	}
	yOf := func(a float64) int {
		y := int(math.Round((aMax - a) / (2 * aMax) * float64(height-1)))
		return min(max(y, 0), height-1)
	}

	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}
	zero := yOf(0)
	for c := range grid[zero] {
		grid[zero][c] = '.'
	}
	for i := range wf.Segments {
		x := xOf(wf.Segments[i].Offset)
		for r := range grid {
			grid[r][x] = ':'
		}
	}
	for _, s := range samples {
		grid[yOf(s.A)][xOf(s.T)] = '*'
	}

	labels := []rune(strings.Repeat(" ", width+3))
	for i := range wf.Segments {
		l := wf.Segments[i].Label()
		mid := xOf(wf.Segments[i].Offset + modem.DefaultSymbolDuration/2)
		start := mid - len(l)/2
		if start >= 0 && start+len(l) <= len(labels) {
			copy(labels[start:], []rune(l))
		}
	}
	fmt.Fprintf(&sb, "%9s %s\n", "", strings.TrimRight(string(labels), " "))

	for r, row := range grid {
		a := aMax - float64(r)*2*aMax/float64(height-1)
		fmt.Fprintf(&sb, "%s %s\n", pal.axis(fmt.Sprintf("%7.3f |", a)), pal.trace(string(row)))
	}
	fmt.Fprintf(&sb, "%s%s\n", pal.axis("        +"), pal.axis(strings.Repeat("-", width)))
	fmt.Fprintf(&sb, "%9s %-*s%s\n", "", width-len(fmtBaud(tMax)), fmtBaud(tMin), fmtBaud(tMax))

	return sb.String()
}

func fmtBaud(t float64) string {
	return fmt.Sprintf("%g", t)
}

// ConstellationPlot draws the I/Q plane with each symbol at its point,
// followed by a table of the points.
func ConstellationPlot(c *modem.Constellation, opts Options) string {
	opts = opts.withDefaults(41, 21)
	pal := newPalette(opts.Color)

	var sb strings.Builder
	if opts.Title != "" {
		sb.WriteString(pal.title(opts.Title))
		sb.WriteByte('\n')
	}

	points := c.Points()
	extent := 0.0
	for _, p := range points {
		extent = math.Max(extent, p.Amplitude)
	}
	extent += 0.5

	width, height := opts.Width, opts.Height
	xOf := func(i float64) int {
		return int(math.Round((i + extent) / (2 * extent) * float64(width-1)))
	}
	yOf := func(q float64) int {
		return int(math.Round((extent - q) / (2 * extent) * float64(height-1)))
	}

	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}
	for r := range grid {
		grid[r][xOf(0)] = '|'
	}
	for x := range grid[yOf(0)] {
		grid[yOf(0)][x] = '-'
	}
	grid[yOf(0)][xOf(0)] = '+'

	for idx, p := range points {
		iq := p.IQ()
		label := []rune(modem.SymbolFromIndex(idx).String())
		x, y := xOf(real(iq))-len(label)/2, yOf(imag(iq))
		if x < 0 || x+len(label) > width || y < 0 || y >= height {
			continue
		}
		copy(grid[y][x:], label)
	}

	for _, row := range grid {
		fmt.Fprintf(&sb, "  %s\n", pal.trace(string(row)))
	}
	sb.WriteByte('\n')
	sb.WriteString(ConstellationTable(c))
	return sb.String()
}

// ConstellationTable lists every symbol with its polar and I/Q coordinates.
func ConstellationTable(c *modem.Constellation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-6s %5s %8s %8s %8s\n", "symbol", "amp", "phase", "I", "Q")
	for idx, p := range c.Points() {
		iq := p.IQ()
		fmt.Fprintf(&sb, "%-6s %5.2f %7.1f° %+8.3f %+8.3f\n",
			modem.SymbolFromIndex(idx), p.Amplitude, p.Phase*180/math.Pi, cleanZero(real(iq)), cleanZero(imag(iq)))
	}
	return sb.String()
}

// cleanZero maps float noise such as cos(π/2) to an exact zero.
func cleanZero(v float64) float64 {
	if math.Abs(v) < 1e-12 {
		return 0
	}
	return v
}
