package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeongseonghan/linecode/internal/modem"
	"github.com/jeongseonghan/linecode/internal/render"
)

var demoSVGDir string

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Draw every configured scenario",
	Long: `Draw the configured bit sequence under every configured line code, then
the configured QAM symbol stream and the constellation.

With --svg-dir each plot is also written as an SVG file.`,
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().StringVar(&demoSVGDir, "svg-dir", "", "also write SVG plots into this directory")
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	bits, err := cfg.Bits()
	if err != nil {
		return err
	}
	schemes, err := cfg.Schemes()
	if err != nil {
		return err
	}
	symbols, err := cfg.Symbols()
	if err != nil {
		return err
	}

	var sb strings.Builder
	for _, s := range schemes {
		levels, err := modem.Encode(s, bits)
		if err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}
		opts := render.Options{
			Title:         s.String(),
			SamplesPerBit: s.SamplesPerBit(),
			Labels:        bitLabels(bits),
		}
		if demoSVGDir != "" {
			if err := writeOutput(cmd, filepath.Join(demoSVGDir, s.Name()+".svg"), render.StepSVG(levels, opts)); err != nil {
				return err
			}
		}
		opts.Color = colorFor("")
		sb.WriteString(render.StepPlot(levels, opts))
		sb.WriteByte('\n')
	}

	wf, err := modem.NewModulator(nil, cfg.WaveformConfig()).Modulate(symbols)
	if err != nil {
		return err
	}
	title := "QAM " + modem.FormatSymbols(symbols)
	c := modem.DefaultConstellation()

	if demoSVGDir != "" {
		if err := writeOutput(cmd, filepath.Join(demoSVGDir, "qam.svg"), render.WaveSVG(wf, render.Options{Title: title})); err != nil {
			return err
		}
		if err := writeOutput(cmd, filepath.Join(demoSVGDir, "constellation.svg"),
			render.ConstellationSVG(c, render.Options{Title: "QAM Constellation"})); err != nil {
			return err
		}
	}

	sb.WriteString(render.WavePlot(wf, render.Options{Title: title, Color: colorFor("")}))
	sb.WriteByte('\n')
	sb.WriteString(phaseTable(wf, colorFor("")))
	sb.WriteByte('\n')
	sb.WriteString(render.ConstellationPlot(c, render.Options{Title: "QAM Constellation", Color: colorFor("")}))

	_, err = fmt.Fprint(cmd.OutOrStdout(), sb.String())
	return err
}
