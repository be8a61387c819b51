// linecode draws digital line codes and an 8-point QAM waveform, in the
// terminal, as SVG files, or live in a browser.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jeongseonghan/linecode/internal/config"
	"github.com/jeongseonghan/linecode/internal/modem"
)

var (
	configPath string
	noColor    bool

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "linecode",
	Short: "Visualize line codes and QAM waveforms",
	Long: `linecode encodes bit sequences with NRZ, NRZI, Manchester, Differential
Manchester and AMI, and modulates 3-bit symbols onto a phase-continuous
8-point QAM carrier.

Scenarios default to the embedded configuration; --config overlays a YAML file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML scenario file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// schemesFromArgs resolves scheme names, falling back to the configured list.
func schemesFromArgs(args []string) ([]modem.Scheme, error) {
	if len(args) == 0 {
		return cfg.Schemes()
	}
	out := make([]modem.Scheme, 0, len(args))
	for _, a := range args {
		s, err := modem.ParseScheme(a)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func bitLabels(bits []byte) []string {
	return strings.Split(modem.FormatBits(bits), "")
}

// colorFor reports whether output bound for path should carry ANSI colors.
func colorFor(path string) bool {
	return path == "" && !color.NoColor
}

// writeOutput prints content, or writes it to path when one is given.
func writeOutput(cmd *cobra.Command, path, content string) error {
	if path == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}

// suffixPath turns "plots/out.svg" into "plots/out-nrz.svg".
func suffixPath(path, name string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + name + ext
}

func checkFormat(format string) error {
	switch format {
	case "ascii", "svg", "json":
		return nil
	}
	return fmt.Errorf("%w: format %q (want ascii, svg or json)", modem.ErrInvalidInput, format)
}
