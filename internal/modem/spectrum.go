package modem

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Stats summarizes the electrical properties of a level sequence.
type Stats struct {
	Transitions int     `json:"transitions"`
	MeanLevel   float64 `json:"meanLevel"` // DC bias
	MinRDS      int     `json:"minRds"`    // running digital sum bounds
	MaxRDS      int     `json:"maxRds"`
}

// Analyze counts level transitions and tracks the running digital sum.
func Analyze(levels []int) Stats {
	var s Stats
	if len(levels) == 0 {
		return s
	}

	sum := 0
	for i, l := range levels {
		if i > 0 && l != levels[i-1] {
			s.Transitions++
		}
		sum += l
		if i == 0 || sum < s.MinRDS {
			s.MinRDS = sum
		}
		if i == 0 || sum > s.MaxRDS {
			s.MaxRDS = sum
		}
	}
	s.MeanLevel = float64(sum) / float64(len(levels))
	return s
}

// Spectrum returns the one-sided magnitude spectrum of levels, each level
// held for oversample samples. Bin k sits at k/(len*oversample) cycles per
// sample; magnitudes are normalized by the sample count.
func Spectrum(levels []int, oversample int) ([]float64, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: empty level sequence", ErrInvalidInput)
	}
	if oversample < 1 {
		return nil, fmt.Errorf("%w: oversample %d < 1", ErrInvalidInput, oversample)
	}

	x := hold(levels, oversample)
	X := fft.FFTReal(x)

	n := len(x)
	mags := make([]float64, n/2+1)
	for k := range mags {
		mags[k] = cmplx.Abs(X[k]) / float64(n)
	}
	return mags, nil
}

// DCFraction returns the share of signal energy sitting in the DC bin.
// A silent (all zero) sequence reports 0.
func DCFraction(levels []int) float64 {
	if len(levels) == 0 {
		return 0
	}

	x := hold(levels, 1)
	X := fft.FFTReal(x)

	var total float64
	for _, v := range X {
		total += real(v)*real(v) + imag(v)*imag(v)
	}
	if total < 1e-12 {
		return 0
	}
	dc := real(X[0])*real(X[0]) + imag(X[0])*imag(X[0])
	return math.Min(1, dc/total)
}

func hold(levels []int, oversample int) []float64 {
	out := make([]float64, 0, len(levels)*oversample)
	for _, l := range levels {
		for j := 0; j < oversample; j++ {
			out = append(out, float64(l))
		}
	}
	return out
}
