package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jeongseonghan/linecode/internal/modem"
)

//go:embed default.yaml
var defaultYAML []byte

// Config holds the demonstration scenarios and server settings.
type Config struct {
	Server struct {
		Addr      string `yaml:"addr"`
		StaticDir string `yaml:"static_dir"`
	} `yaml:"server"`

	LineCode struct {
		Bits    string   `yaml:"bits"`
		Schemes []string `yaml:"schemes"`
	} `yaml:"line_code"`

	QAM struct {
		Symbols       []string `yaml:"symbols"`
		StartPhaseDeg float64  `yaml:"start_phase_deg"`
		Preamble      bool     `yaml:"preamble"`
	} `yaml:"qam"`
}

// Default returns the built-in scenarios.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		panic(fmt.Sprintf("config: embedded default.yaml: %v", err))
	}
	return &cfg
}

// Load reads a YAML file on top of the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the scenarios parse.
func (c *Config) Validate() error {
	if _, err := c.Bits(); err != nil {
		return fmt.Errorf("line_code.bits: %w", err)
	}
	if _, err := c.Schemes(); err != nil {
		return fmt.Errorf("line_code.schemes: %w", err)
	}
	if _, err := c.Symbols(); err != nil {
		return fmt.Errorf("qam.symbols: %w", err)
	}
	if math.IsNaN(c.QAM.StartPhaseDeg) || math.IsInf(c.QAM.StartPhaseDeg, 0) {
		return fmt.Errorf("qam.start_phase_deg: %w: %v", modem.ErrInvalidInput, c.QAM.StartPhaseDeg)
	}
	return nil
}

// Bits returns the line-code demonstration sequence.
func (c *Config) Bits() ([]byte, error) {
	return modem.ParseBits(c.LineCode.Bits)
}

// Schemes returns the configured schemes, or all of them when none are listed.
func (c *Config) Schemes() ([]modem.Scheme, error) {
	if len(c.LineCode.Schemes) == 0 {
		return modem.Schemes(), nil
	}
	out := make([]modem.Scheme, 0, len(c.LineCode.Schemes))
	for _, name := range c.LineCode.Schemes {
		s, err := modem.ParseScheme(name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Symbols returns the QAM demonstration symbols.
func (c *Config) Symbols() ([]modem.Symbol, error) {
	if len(c.QAM.Symbols) == 0 {
		return nil, fmt.Errorf("%w: no symbols", modem.ErrInvalidInput)
	}
	out := make([]modem.Symbol, len(c.QAM.Symbols))
	for i, s := range c.QAM.Symbols {
		sym, err := modem.ParseSymbol(s)
		if err != nil {
			return nil, err
		}
		out[i] = sym
	}
	return out, nil
}

// WaveformConfig converts the QAM settings for the modulator.
func (c *Config) WaveformConfig() modem.WaveformConfig {
	return modem.WaveformConfig{
		StartPhase: DegToRad(c.QAM.StartPhaseDeg),
		Preamble:   c.QAM.Preamble,
	}
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
