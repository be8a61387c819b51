package modem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	s := Analyze([]int{0, -1, 1, -1, 0, 0, 1, 0})
	assert.Equal(t, 6, s.Transitions)
	assert.InDelta(t, 0.0, s.MeanLevel, 1e-12)
	assert.Equal(t, -1, s.MinRDS)
	assert.Equal(t, 0, s.MaxRDS)

	assert.Equal(t, Stats{}, Analyze(nil))
}

func TestAnalyze_ManchesterIsBalanced(t *testing.T) {
	bits := []byte{1, 1, 1, 1, 0, 0, 0, 0}
	nrz, err := Levels(NRZ, bits)
	require.NoError(t, err)
	man, err := Levels(Manchester, bits)
	require.NoError(t, err)

	// Manchester spends half of every cell high.
	assert.InDelta(t, 0.5, Analyze(man).MeanLevel, 1e-12)
	assert.Greater(t, Analyze(man).Transitions, Analyze(nrz).Transitions)
}

func TestSpectrum(t *testing.T) {
	levels := []int{1, 1, 1, 1}
	mags, err := Spectrum(levels, 4)
	require.NoError(t, err)
	require.Len(t, mags, 16/2+1)

	// A constant signal puts everything in DC.
	assert.InDelta(t, 1.0, mags[0], 1e-9)
	for k := 1; k < len(mags); k++ {
		assert.InDelta(t, 0.0, mags[k], 1e-9, "bin %d", k)
	}

	_, err = Spectrum(nil, 4)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = Spectrum(levels, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDCFraction(t *testing.T) {
	bits := []byte{0, 1, 1, 0, 1, 0, 1, 1}

	ami, err := Levels(AMI, bits)
	require.NoError(t, err)
	nrz, err := Levels(NRZ, bits)
	require.NoError(t, err)

	// Five marks: AMI leaves a single +/-1 residue, NRZ sits at a 3/8 mean.
	assert.Less(t, DCFraction(ami), DCFraction(nrz))
	assert.InDelta(t, 1.0, DCFraction([]int{1, 1, 1}), 1e-9)
	assert.Equal(t, 0.0, DCFraction([]int{0, 0}))
	assert.Equal(t, 0.0, DCFraction(nil))
}
