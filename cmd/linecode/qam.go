package main

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jeongseonghan/linecode/internal/config"
	"github.com/jeongseonghan/linecode/internal/modem"
	"github.com/jeongseonghan/linecode/internal/render"
)

var (
	qamSymbols  string
	qamBits     string
	qamStartDeg float64
	qamLegacy   bool
	qamPreamble bool
	qamFormat   string
	qamOut      string

	constellationFormat string
	constellationOut    string
	constellationIQ     string
)

var qamCmd = &cobra.Command{
	Use:   "qam",
	Short: "Modulate 3-bit symbols onto a phase-continuous QAM carrier",
	Long: `Modulate 3-bit symbols with the 8-point amplitude/phase constellation.

Each baud's carrier phase is the previous baud's phase advanced by the
symbol's phase offset. The first baud starts from --start-phase-deg
(90 by default); --legacy starts from 0 instead.`,
	RunE: runQAM,
}

var constellationCmd = &cobra.Command{
	Use:   "constellation",
	Short: "Show the QAM constellation table",
	RunE:  runConstellation,
}

func init() {
	qamCmd.Flags().StringVarP(&qamSymbols, "symbols", "s", "", "symbols, e.g. \"101 110\" (default from config)")
	qamCmd.Flags().StringVarP(&qamBits, "bits", "b", "", "bit stream grouped into 3-bit symbols, e.g. \"101110\"")
	qamCmd.Flags().Float64Var(&qamStartDeg, "start-phase-deg", 90, "phase of the first baud in degrees")
	qamCmd.Flags().BoolVar(&qamLegacy, "legacy", false, "start from phase 0")
	qamCmd.Flags().BoolVar(&qamPreamble, "preamble", false, "prepend a reference baud")
	qamCmd.Flags().StringVarP(&qamFormat, "format", "f", "ascii", "output format (ascii, svg, json)")
	qamCmd.Flags().StringVarP(&qamOut, "out", "o", "", "write output to file")

	constellationCmd.Flags().StringVarP(&constellationFormat, "format", "f", "ascii", "output format (ascii, svg, json)")
	constellationCmd.Flags().StringVarP(&constellationOut, "out", "o", "", "write output to file")
	constellationCmd.Flags().StringVar(&constellationIQ, "demap", "", "print the symbol nearest to an I,Q point, e.g. \"1.9,-0.2\"")

	rootCmd.AddCommand(qamCmd, constellationCmd)
}

type qamResult struct {
	Symbols    []string        `json:"symbols"`
	StartPhase float64         `json:"startPhase"`
	Preamble   bool            `json:"preamble"`
	Phases     []float64       `json:"phases"`
	Segments   []modem.Segment `json:"segments"`
}

func runQAM(cmd *cobra.Command, args []string) error {
	if err := checkFormat(qamFormat); err != nil {
		return err
	}

	symbols, err := qamInput()
	if err != nil {
		return err
	}

	wc := cfg.WaveformConfig()
	if cmd.Flags().Changed("start-phase-deg") {
		if qamLegacy {
			return fmt.Errorf("%w: --legacy and --start-phase-deg are exclusive", modem.ErrInvalidInput)
		}
		if math.IsNaN(qamStartDeg) || math.IsInf(qamStartDeg, 0) {
			return fmt.Errorf("%w: start phase %v", modem.ErrInvalidInput, qamStartDeg)
		}
		wc.StartPhase = config.DegToRad(qamStartDeg)
	}
	if qamLegacy {
		wc.StartPhase = modem.StartPhaseLegacy
	}
	if cmd.Flags().Changed("preamble") {
		wc.Preamble = qamPreamble
	}

	wf, err := modem.NewModulator(nil, wc).Modulate(symbols)
	if err != nil {
		return err
	}

	names := make([]string, len(symbols))
	for i, s := range symbols {
		names[i] = s.String()
	}
	title := "QAM " + modem.FormatSymbols(symbols)

	switch qamFormat {
	case "svg":
		return writeOutput(cmd, qamOut, render.WaveSVG(wf, render.Options{Title: title}))
	case "json":
		data, err := json.MarshalIndent(qamResult{
			Symbols:    names,
			StartPhase: wc.StartPhase,
			Preamble:   wc.Preamble,
			Phases:     wf.Phases(),
			Segments:   wf.Segments,
		}, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(cmd, qamOut, string(data)+"\n")
	}

	var sb strings.Builder
	sb.WriteString(render.WavePlot(wf, render.Options{Title: title, Color: colorFor(qamOut)}))
	sb.WriteByte('\n')
	sb.WriteString(phaseTable(wf, colorFor(qamOut)))
	return writeOutput(cmd, qamOut, sb.String())
}

// qamInput resolves the symbol stream from --symbols, --bits or the config.
func qamInput() ([]modem.Symbol, error) {
	switch {
	case qamSymbols != "" && qamBits != "":
		return nil, fmt.Errorf("%w: --symbols and --bits are exclusive", modem.ErrInvalidInput)
	case qamBits != "":
		bits, err := modem.ParseBits(qamBits)
		if err != nil {
			return nil, err
		}
		return modem.SymbolsFromBits(bits)
	case qamSymbols != "":
		return modem.ParseSymbols(qamSymbols)
	}
	return cfg.Symbols()
}

// phaseTable lists amplitude and accumulated carrier phase per baud.
func phaseTable(wf *modem.Waveform, colored bool) string {
	head := fmt.Sprintf("%6s %-6s %5s %8s\n", "baud", "symbol", "amp", "phase")
	if colored {
		head = color.New(color.Bold).Sprint(head)
	}

	var sb strings.Builder
	sb.WriteString(head)
	for i := range wf.Segments {
		seg := &wf.Segments[i]
		fmt.Fprintf(&sb, "%6g %-6s %5.2f %7.1f°\n", seg.Offset, seg.Label(), seg.Amplitude, seg.Phase*180/math.Pi)
	}
	return sb.String()
}

type pointResult struct {
	Symbol    string  `json:"symbol"`
	Amplitude float64 `json:"amplitude"`
	Phase     float64 `json:"phase"`
	I         float64 `json:"i"`
	Q         float64 `json:"q"`
}

func runConstellation(cmd *cobra.Command, args []string) error {
	if err := checkFormat(constellationFormat); err != nil {
		return err
	}
	c := modem.DefaultConstellation()

	if constellationIQ != "" {
		return demapPoint(cmd, c, constellationIQ)
	}

	switch constellationFormat {
	case "svg":
		return writeOutput(cmd, constellationOut, render.ConstellationSVG(c, render.Options{Title: "QAM Constellation"}))
	case "json":
		var out []pointResult
		for idx, p := range c.Points() {
			iq := p.IQ()
			out = append(out, pointResult{
				Symbol:    modem.SymbolFromIndex(idx).String(),
				Amplitude: p.Amplitude,
				Phase:     p.Phase,
				I:         real(iq),
				Q:         imag(iq),
			})
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(cmd, constellationOut, string(data)+"\n")
	}
	return writeOutput(cmd, constellationOut,
		render.ConstellationPlot(c, render.Options{Title: "QAM Constellation", Color: colorFor(constellationOut)}))
}

func demapPoint(cmd *cobra.Command, c *modem.Constellation, s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return fmt.Errorf("%w: point %q must be I,Q", modem.ErrInvalidInput, s)
	}
	i, errI := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	q, errQ := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errI != nil || errQ != nil {
		return fmt.Errorf("%w: point %q must be I,Q", modem.ErrInvalidInput, s)
	}

	sym := c.Demap(complex(i, q))
	p, err := c.Map(sym)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %.2f %.1f°\n", sym, p.Amplitude, p.Phase*180/math.Pi)
	return nil
}
