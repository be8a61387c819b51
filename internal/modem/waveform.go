package modem

import (
	"encoding/json"
	"fmt"
	"math"
)

// Carrier settings. These stay fixed: one carrier cycle per baud.
const (
	DefaultCarrierFreq      = 1.0 // cycles per symbol duration
	DefaultSymbolDuration   = 1.0 // one baud
	DefaultSamplesPerSymbol = 100
)

// Starting carrier phases.
const (
	StartPhaseCorrected = math.Pi / 2 // default
	StartPhaseLegacy    = 0.0
)

// NormalizeAngle wraps an angle in radians into [0, 2π).
func NormalizeAngle(angle float64) float64 {
	a := math.Mod(angle+2*math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// SinusoidSegment samples amplitude·sin(2π·carrierFreq·t + phase) at
// samples evenly spaced points over [0, symbolDuration).
func SinusoidSegment(amplitude, phase, carrierFreq, symbolDuration float64, samples int) (t, y []float64) {
	if samples <= 0 {
		return []float64{}, []float64{}
	}
	t = make([]float64, samples)
	y = make([]float64, samples)
	step := symbolDuration / float64(samples)
	for i := 0; i < samples; i++ {
		t[i] = float64(i) * step
		y[i] = amplitude * math.Sin(2*math.Pi*carrierFreq*t[i]+phase)
	}
	return t, y
}

// Sample is one (time, amplitude) point of a waveform.
type Sample struct {
	T float64 `json:"t"`
	A float64 `json:"a"`
}

// Segment is the waveform of one baud.
type Segment struct {
	Symbol    Symbol   `json:"-"`
	Offset    float64  `json:"offset"` // baud offset of the first sample
	Amplitude float64  `json:"amplitude"`
	Phase     float64  `json:"phase"` // carrier phase at the segment start
	Preamble  bool     `json:"preamble"`
	Samples   []Sample `json:"samples"`
}

// Label returns the symbol bits, or "ref" for the preamble.
func (s *Segment) Label() string {
	if s.Preamble {
		return "ref"
	}
	return s.Symbol.String()
}

// MarshalJSON adds the segment label, since Symbol itself is not encoded.
func (s Segment) MarshalJSON() ([]byte, error) {
	type segment Segment
	return json.Marshal(struct {
		Label string `json:"label"`
		segment
	}{s.Label(), segment(s)})
}

// Waveform is a concatenation of per-baud segments.
type Waveform struct {
	Segments []Segment `json:"segments"`
}

// Samples returns every segment's samples in time order.
func (w *Waveform) Samples() []Sample {
	n := 0
	for i := range w.Segments {
		n += len(w.Segments[i].Samples)
	}
	out := make([]Sample, 0, n)
	for i := range w.Segments {
		out = append(out, w.Segments[i].Samples...)
	}
	return out
}

// Phases returns the accumulated carrier phase fed into each data segment.
func (w *Waveform) Phases() []float64 {
	var phases []float64
	for i := range w.Segments {
		if !w.Segments[i].Preamble {
			phases = append(phases, w.Segments[i].Phase)
		}
	}
	return phases
}

// DataSegments returns the segments that carry symbols.
func (w *Waveform) DataSegments() []Segment {
	var out []Segment
	for _, s := range w.Segments {
		if !s.Preamble {
			out = append(out, s)
		}
	}
	return out
}

// WaveformConfig selects the starting phase and the reference preamble.
type WaveformConfig struct {
	StartPhase float64 // radians
	Preamble   bool    // prepend a reference baud at offset -1
}

// DefaultWaveformConfig starts at π/2 without a preamble.
func DefaultWaveformConfig() WaveformConfig {
	return WaveformConfig{StartPhase: StartPhaseCorrected}
}

// LegacyWaveformConfig starts at phase 0 without a preamble.
func LegacyWaveformConfig() WaveformConfig {
	return WaveformConfig{StartPhase: StartPhaseLegacy}
}

// Modulator turns a symbol stream into a phase-continuous QAM waveform.
type Modulator struct {
	constellation *Constellation
	cfg           WaveformConfig
}

// NewModulator creates a modulator. A nil constellation selects the default
// table.
func NewModulator(c *Constellation, cfg WaveformConfig) *Modulator {
	if c == nil {
		c = defaultConstellation
	}
	return &Modulator{constellation: c, cfg: cfg}
}

// Config returns the modulator's waveform settings.
func (m *Modulator) Config() WaveformConfig {
	return m.cfg
}

// Modulate synthesizes one segment per symbol. The carrier phase of each
// segment is the previous segment's phase advanced by the symbol's phase
// offset, so phase accumulates over the whole stream.
func (m *Modulator) Modulate(symbols []Symbol) (*Waveform, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: empty symbol sequence", ErrInvalidInput)
	}

	w := &Waveform{Segments: make([]Segment, 0, len(symbols)+1)}
	if m.cfg.Preamble {
		w.Segments = append(w.Segments, newSegment(Symbol{}, 1, m.cfg.StartPhase, -DefaultSymbolDuration, true))
	}

	thetaP := m.cfg.StartPhase
	offset := 0.0
	for i, sym := range symbols {
		p, err := m.constellation.Map(sym)
		if err != nil {
			return nil, fmt.Errorf("symbol %d: %w", i, err)
		}
		thetaC := NormalizeAngle(p.Phase + thetaP)
		w.Segments = append(w.Segments, newSegment(sym, p.Amplitude, thetaC, offset, false))
		offset += DefaultSymbolDuration
		thetaP = thetaC
	}
	return w, nil
}

func newSegment(sym Symbol, amplitude, phase, offset float64, preamble bool) Segment {
	t, y := SinusoidSegment(amplitude, phase, DefaultCarrierFreq, DefaultSymbolDuration, DefaultSamplesPerSymbol)
	samples := make([]Sample, len(t))
	for i := range t {
		samples[i] = Sample{T: t[i] + offset, A: y[i]}
	}
	return Segment{
		Symbol:    sym,
		Offset:    offset,
		Amplitude: amplitude,
		Phase:     phase,
		Preamble:  preamble,
		Samples:   samples,
	}
}

// QAMWaveform modulates symbols through the default constellation.
func QAMWaveform(symbols []Symbol, startPhase float64, includePreamble bool) (*Waveform, error) {
	m := NewModulator(nil, WaveformConfig{StartPhase: startPhase, Preamble: includePreamble})
	return m.Modulate(symbols)
}
