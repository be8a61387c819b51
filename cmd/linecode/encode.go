package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeongseonghan/linecode/internal/modem"
	"github.com/jeongseonghan/linecode/internal/render"
)

var (
	encodeBits   string
	encodeFormat string
	encodeOut    string

	decodeLevels string
	decodePadded bool
)

var encodeCmd = &cobra.Command{
	Use:   "encode [scheme...]",
	Short: "Encode a bit sequence with one or more line codes",
	Long: `Encode a bit sequence and plot the padded level sequence.

Schemes: nrz, nrzi, manchester, diff-manchester, ami.
With no scheme arguments every configured scheme is drawn.`,
	RunE: runEncode,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <scheme>",
	Short: "Recover bits from a level sequence",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecode,
}

func init() {
	encodeCmd.Flags().StringVarP(&encodeBits, "bits", "b", "", "bit sequence (default from config)")
	encodeCmd.Flags().StringVarP(&encodeFormat, "format", "f", "ascii", "output format (ascii, svg, json)")
	encodeCmd.Flags().StringVarP(&encodeOut, "out", "o", "", "write output to file")

	decodeCmd.Flags().StringVarP(&decodeLevels, "levels", "l", "", "levels, e.g. \"1,0,-1\"")
	decodeCmd.Flags().BoolVar(&decodePadded, "padded", false, "levels end with a pad copy of the last level")
	decodeCmd.MarkFlagRequired("levels")

	rootCmd.AddCommand(encodeCmd, decodeCmd)
}

type encodeResult struct {
	Scheme string      `json:"scheme"`
	Title  string      `json:"title"`
	Bits   string      `json:"bits"`
	Levels []int       `json:"levels"`
	Stats  modem.Stats `json:"stats"`
}

func runEncode(cmd *cobra.Command, args []string) error {
	if err := checkFormat(encodeFormat); err != nil {
		return err
	}

	bitStr := encodeBits
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

	var (
		plots   strings.Builder
		results []encodeResult
	)
	for _, s := range schemes {
		levels, err := modem.Encode(s, bits)
		if err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}

		switch encodeFormat {
		case "ascii":
			plots.WriteString(render.StepPlot(levels, render.Options{
				Title:         s.String(),
				SamplesPerBit: s.SamplesPerBit(),
				Labels:        bitLabels(bits),
				Color:         colorFor(encodeOut),
			}))
			plots.WriteByte('\n')

		case "svg":
			doc := render.StepSVG(levels, render.Options{
				Title:         s.String(),
				SamplesPerBit: s.SamplesPerBit(),
				Labels:        bitLabels(bits),
			})
			path := encodeOut
			if len(schemes) > 1 {
				if path == "" {
					return fmt.Errorf("%w: svg output for several schemes needs --out", modem.ErrInvalidInput)
				}
				path = suffixPath(path, s.Name())
			}
			if err := writeOutput(cmd, path, doc); err != nil {
				return err
			}

		case "json":
			results = append(results, encodeResult{
				Scheme: s.Name(),
				Title:  s.String(),
				Bits:   modem.FormatBits(bits),
				Levels: levels,
				Stats:  modem.Analyze(levels[:len(levels)-1]),
			})
		}
	}

	switch encodeFormat {
	case "ascii":
		return writeOutput(cmd, encodeOut, plots.String())
	case "json":
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(cmd, encodeOut, string(data)+"\n")
	}
	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	scheme, err := modem.ParseScheme(args[0])
	if err != nil {
		return err
	}
	levels, err := parseLevels(decodeLevels)
	if err != nil {
		return err
	}

	decode := modem.Decode
	if decodePadded {
		decode = modem.DecodePadded
	}
	bits, err := decode(scheme, levels)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), modem.FormatBits(bits))
	return nil
}

// parseLevels reads a comma or space separated list of integers.
func parseLevels(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	levels := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: level %q", modem.ErrInvalidInput, f)
		}
		levels[i] = v
	}
	return levels, nil
}
