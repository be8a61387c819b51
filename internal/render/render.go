// Package render draws line-code level sequences, QAM waveforms and the QAM
// constellation as terminal plots or SVG documents.
package render

import (
	"fmt"

	"github.com/fatih/color"
)

// Options controls plot layout. Zero values pick sensible defaults.
type Options struct {
	Title string

	// ASCII: columns per level (step plots) or total columns (waveforms).
	// SVG: pixel width.
	Width  int
	Height int

	// SamplesPerBit groups step-plot cells into bit cells for ticks and labels.
	SamplesPerBit int
	// Labels annotate each bit cell (step plots) or baud (waveforms).
	Labels []string

	// Color enables ANSI colors on terminal output.
	Color bool
}

func (o Options) withDefaults(width, height int) Options {
	if o.Width <= 0 {
		o.Width = width
	}
	if o.Height <= 0 {
		o.Height = height
	}
	if o.SamplesPerBit <= 0 {
		o.SamplesPerBit = 1
	}
	return o
}

type palette struct {
	title func(a ...interface{}) string
	trace func(a ...interface{}) string
	axis  func(a ...interface{}) string
}

func newPalette(enabled bool) palette {
	if !enabled {
		plain := func(a ...interface{}) string { return fmt.Sprint(a...) }
		return palette{title: plain, trace: plain, axis: plain}
	}
	return palette{
		title: color.New(color.Bold, color.FgCyan).SprintFunc(),
		trace: color.New(color.FgRed).SprintFunc(),
		axis:  color.New(color.FgHiBlack).SprintFunc(),
	}
}
