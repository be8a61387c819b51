package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jeongseonghan/linecode/internal/modem"
)

var (
	spectrumBits       string
	spectrumOversample int
	spectrumBins       int
)

var spectrumCmd = &cobra.Command{
	Use:   "spectrum [scheme...]",
	Short: "Compare DC content and spectra of line codes",
	Long: `For each scheme, report transitions, mean level, running digital sum
range, the share of energy at DC, and a sparkline of the low end of the
magnitude spectrum.`,
	RunE: runSpectrum,
}

func init() {
	spectrumCmd.Flags().StringVarP(&spectrumBits, "bits", "b", "", "bit sequence (default from config)")
	spectrumCmd.Flags().IntVar(&spectrumOversample, "oversample", 8, "samples per level")
	spectrumCmd.Flags().IntVar(&spectrumBins, "bins", 24, "spectrum bins in the sparkline")

	rootCmd.AddCommand(spectrumCmd)
}

var sparks = []rune(" ▁▂▃▄▅▆▇█")

func sparkline(mags []float64, n int) string {
	if n > len(mags) {
		n = len(mags)
	}
	peak := 0.0
	for _, m := range mags[:n] {
		peak = math.Max(peak, m)
	}
	out := make([]rune, n)
	for i, m := range mags[:n] {
		idx := 0
		if peak > 0 {
			idx = int(math.Round(m / peak * float64(len(sparks)-1)))
		}
		out[i] = sparks[idx]
	}
	return string(out)
}

func runSpectrum(cmd *cobra.Command, args []string) error {
	if spectrumBins < 1 {
		return fmt.Errorf("%w: bins %d", modem.ErrInvalidInput, spectrumBins)
	}

	bitStr := spectrumBits
	if bitStr == "" {
		bitStr = cfg.LineCode.Bits
	}
	bits, err := modem.ParseBits(bitStr)
	if err != nil {
		return err
	}
	schemes, err := schemesFromArgs(args)
	if err != nil {
		return err
	}

	var sb strings.Builder
	head := fmt.Sprintf("%-16s %5s %7s %9s %6s  %s\n", "scheme", "trans", "mean", "rds", "dc", "spectrum")
	if colorFor("") {
		head = color.New(color.Bold).Sprint(head)
	}
	sb.WriteString(head)

	for _, s := range schemes {
		levels, err := modem.Levels(s, bits)
		if err != nil {
			return err
		}
		mags, err := modem.Spectrum(levels, spectrumOversample)
		if err != nil {
			return err
		}
		st := modem.Analyze(levels)
		fmt.Fprintf(&sb, "%-16s %5d %7.3f %9s %5.1f%%  %s\n",
			s.Name(), st.Transitions, st.MeanLevel,
			fmt.Sprintf("[%d,%d]", st.MinRDS, st.MaxRDS),
			100*modem.DCFraction(levels), sparkline(mags, spectrumBins))
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), sb.String())
	return err
}
