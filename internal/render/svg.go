package render

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/jeongseonghan/linecode/internal/modem"
)

const (
	svgMargin = 50.0
	svgTrace  = "#d62728"
	svgGrid   = "#cccccc"
)

type svgDoc struct {
	sb            strings.Builder
	width, height float64
}

func newSVG(width, height int) *svgDoc {
	d := &svgDoc{width: float64(width), height: float64(height)}
	fmt.Fprintf(&d.sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&d.sb, `<rect width="100%%" height="100%%" fill="white"/>`+"\n")
	return d
}

func (d *svgDoc) line(x1, y1, x2, y2 float64, stroke string, w float64) {
	fmt.Fprintf(&d.sb, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%.1f"/>`+"\n",
		x1, y1, x2, y2, stroke, w)
}

func (d *svgDoc) text(x, y float64, size int, anchor, s string) {
	fmt.Fprintf(&d.sb, `<text x="%.2f" y="%.2f" font-size="%d" text-anchor="%s">%s</text>`+"\n",
		x, y, size, anchor, html.EscapeString(s))
}

func (d *svgDoc) polyline(pts [][2]float64, stroke string) {
	d.sb.WriteString(`<polyline fill="none" stroke="` + stroke + `" stroke-width="2" points="`)
	for i, p := range pts {
		if i > 0 {
			d.sb.WriteByte(' ')
		}
		fmt.Fprintf(&d.sb, "%.2f,%.2f", p[0], p[1])
	}
	d.sb.WriteString(`"/>` + "\n")
}

func (d *svgDoc) circle(x, y, r float64, fill string) {
	fmt.Fprintf(&d.sb, `<circle cx="%.2f" cy="%.2f" r="%.1f" fill="%s"/>`+"\n", x, y, r, fill)
}

// frame draws the title and axis labels.
func (d *svgDoc) frame(title, xLabel, yLabel string) {
	if title != "" {
		d.text(d.width/2, svgMargin/2, 16, "middle", title)
	}
	d.text(d.width/2, d.height-10, 12, "middle", xLabel)
	fmt.Fprintf(&d.sb, `<text x="15" y="%.2f" font-size="12" text-anchor="middle" transform="rotate(-90 15 %.2f)">%s</text>`+"\n",
		d.height/2, d.height/2, html.EscapeString(yLabel))
}

func (d *svgDoc) String() string {
	return d.sb.String() + "</svg>\n"
}

// StepSVG renders a level sequence as an SVG step plot.
func StepSVG(levels []int, opts Options) string {
	opts = opts.withDefaults(640, 260)
	d := newSVG(opts.Width, opts.Height)
	d.frame(opts.Title, "Time", "Level")
	if len(levels) == 0 {
		return d.String()
	}

	lo, hi := 0, 1
	for _, l := range levels {
		lo = min(lo, l)
		hi = max(hi, l)
	}
	// headroom above the top level for the bit labels
	top := float64(hi) + 0.5
	bottom := float64(lo)
	if lo < 0 {
		bottom -= 0.5
	}

	cells := max(len(levels)-1, 1)
	plotW := d.width - 2*svgMargin
	plotH := d.height - 2*svgMargin
	xOf := func(i float64) float64 { return svgMargin + i/float64(cells)*plotW }
	yOf := func(v float64) float64 { return svgMargin + (top-v)/(top-bottom)*plotH }

	for i := 0; i <= cells; i += opts.SamplesPerBit {
		d.line(xOf(float64(i)), yOf(top), xOf(float64(i)), yOf(bottom), svgGrid, 1)
	}
	for v := lo; v <= hi; v++ {
		d.line(xOf(0), yOf(float64(v)), xOf(float64(cells)), yOf(float64(v)), svgGrid, 1)
		d.text(svgMargin-8, yOf(float64(v))+4, 11, "end", fmt.Sprint(v))
	}

	pts := make([][2]float64, 0, 2*cells)
	for i := 0; i < cells; i++ {
		y := yOf(float64(levels[i]))
		pts = append(pts, [2]float64{xOf(float64(i)), y}, [2]float64{xOf(float64(i + 1)), y})
	}
	d.polyline(pts, svgTrace)

	for i, l := range opts.Labels {
		x := xOf(float64(i*opts.SamplesPerBit) + float64(opts.SamplesPerBit)/2)
		d.text(x, yOf(top)-6, 12, "middle", l)
	}
	return d.String()
}

// WaveSVG renders a QAM waveform with baud boundaries and per-baud labels.
func WaveSVG(wf *modem.Waveform, opts Options) string {
	opts = opts.withDefaults(960, 360)
	d := newSVG(opts.Width, opts.Height)
	d.frame(opts.Title, "Baud", "A")

	samples := wf.Samples()
	if len(samples) == 0 {
		return d.String()
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
	// leave room for labels above the waveform
	top, bottom := aMax*1.3, -aMax*1.05

	plotW := d.width - 2*svgMargin
	plotH := d.height - 2*svgMargin
	xOf := func(t float64) float64 { return svgMargin + (t-tMin)/(tMax-tMin)*plotW }
	yOf := func(a float64) float64 { return svgMargin + (top-a)/(top-bottom)*plotH }

	d.line(xOf(tMin), yOf(0), xOf(tMax), yOf(0), svgGrid, 1)
	for i := range wf.Segments {
		x := xOf(wf.Segments[i].Offset)
		d.line(x, yOf(top), x, yOf(bottom), svgGrid, 0.8)
		d.text(x, d.height-svgMargin+16, 11, "middle", fmtBaud(wf.Segments[i].Offset))
	}
	d.line(xOf(tMax), yOf(top), xOf(tMax), yOf(bottom), svgGrid, 0.8)
	d.text(xOf(tMax), d.height-svgMargin+16, 11, "middle", fmtBaud(tMax))

	pts := make([][2]float64, len(samples))
	for i, s := range samples {
		pts[i] = [2]float64{xOf(s.T), yOf(s.A)}
	}
	d.polyline(pts, svgTrace)

	for i := range wf.Segments {
		seg := &wf.Segments[i]
		d.text(xOf(seg.Offset+modem.DefaultSymbolDuration/2), yOf(aMax*1.12), 12, "middle", seg.Label())
	}
	return d.String()
}

// ConstellationSVG renders the constellation in the I/Q plane.
func ConstellationSVG(c *modem.Constellation, opts Options) string {
	opts = opts.withDefaults(420, 420)
	d := newSVG(opts.Width, opts.Height)
	d.frame(opts.Title, "I", "Q")

	points := c.Points()
	extent := 0.0
	for _, p := range points {
		extent = math.Max(extent, p.Amplitude)
	}
	extent += 0.5

	plotW := d.width - 2*svgMargin
	plotH := d.height - 2*svgMargin
	xOf := func(i float64) float64 { return svgMargin + (i+extent)/(2*extent)*plotW }
	yOf := func(q float64) float64 { return svgMargin + (extent-q)/(2*extent)*plotH }

	d.line(xOf(-extent), yOf(0), xOf(extent), yOf(0), svgGrid, 1)
	d.line(xOf(0), yOf(extent), xOf(0), yOf(-extent), svgGrid, 1)

	for idx, p := range points {
		iq := p.IQ()
		x, y := xOf(real(iq)), yOf(imag(iq))
		d.circle(x, y, 5, svgTrace)
		d.text(x+8, y-8, 12, "start", modem.SymbolFromIndex(idx).String())
	}
	return d.String()
}
