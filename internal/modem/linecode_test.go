package modem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNRZ_SingleBit(t *testing.T) {
	for _, b := range []byte{0, 1} {
		levels, err := Levels(NRZ, []byte{b})
		require.NoError(t, err)
		assert.Equal(t, []int{1 - int(b)}, levels, "bit %d", b)
	}
}

func TestLevels_ReferenceScenarios(t *testing.T) {
	tests := []struct {
		name   string
		scheme Scheme
		bits   []byte
		want   []int
	}{
		{"NRZ", NRZ, []byte{0, 1, 1, 1, 0, 0, 1, 0}, []int{1, 0, 0, 0, 1, 1, 0, 1}},
		{"NRZI flip on ones", NRZI, []byte{0, 1, 1, 0}, []int{1, 0, 1, 1}},
		{"Manchester", Manchester, []byte{1, 0}, []int{0, 1, 1, 0}},
		{"AMI alternating marks", AMI, []byte{1, 0, 1, 1}, []int{-1, 0, 1, -1}},
		{"AMI demo", AMI, []byte{0, 1, 1, 1, 0, 0, 1, 0}, []int{0, -1, 1, -1, 0, 0, 1, 0}},
		{"DiffManchester one", DifferentialManchester, []byte{1}, []int{1, 0}},
		{"DiffManchester zero", DifferentialManchester, []byte{0}, []int{0, 1}},
		{"DiffManchester mixed", DifferentialManchester, []byte{1, 0, 0, 1}, []int{1, 0, 1, 0, 1, 0, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Levels(tt.scheme, tt.bits)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_AMIEndToEnd(t *testing.T) {
	bits := []byte{0, 1, 1, 1, 0, 0, 1, 0}
	got, err := Encode(AMI, bits)
	require.NoError(t, err)
	assert.Equal(t, []int{0, -1, 1, -1, 0, 0, 1, 0, 0}, got)
	assert.Len(t, got, 9)
}

func TestEncode_PaddingInvariant(t *testing.T) {
	inputs := [][]byte{
		{0},
		{1},
		{0, 1, 1, 1, 0, 0, 1, 0},
		{1, 1, 1, 1, 1},
		{0, 0, 0, 0},
	}

	for _, scheme := range Schemes() {
		for _, bits := range inputs {
			got, err := Encode(scheme, bits)
			if err != nil {
				t.Fatalf("%s: Encode(%v): %v", scheme.Name(), bits, err)
			}
			n := len(got)
			if n != len(bits)*scheme.SamplesPerBit()+1 {
				t.Errorf("%s: length %d for %d bits", scheme.Name(), n, len(bits))
			}
			if got[n-1] != got[n-2] {
				t.Errorf("%s: last sample %d != previous %d", scheme.Name(), got[n-1], got[n-2])
			}
		}
	}
}

func TestLevels_OutputAlphabet(t *testing.T) {
	bits := []byte{1, 0, 1, 1, 0, 0, 0, 1, 1, 0}
	for _, scheme := range Schemes() {
		levels, err := Levels(scheme, bits)
		require.NoError(t, err)
		for i, l := range levels {
			if scheme.Bipolar() {
				assert.Contains(t, []int{-1, 0, 1}, l, "%s[%d]", scheme.Name(), i)
			} else {
				assert.Contains(t, []int{0, 1}, l, "%s[%d]", scheme.Name(), i)
			}
		}
	}
}

func TestDifferentialManchester_MidCellTransition(t *testing.T) {
	bits := []byte{0, 1, 1, 0, 1, 0, 0, 0, 1}
	levels := EncodeDifferentialManchester(bits)
	require.Len(t, levels, 2*len(bits))
	for i := 0; i < len(bits); i++ {
		assert.NotEqual(t, levels[2*i], levels[2*i+1], "bit %d has no mid-cell transition", i)
	}
}

func TestDiffManchesterState_Step(t *testing.T) {
	tests := []struct {
		state         diffManchesterState
		bit           byte
		first, second int
		next          diffManchesterState
	}{
		{1, 1, 1, 0, 0},
		{0, 1, 0, 1, 1},
		{1, 0, 0, 1, 1},
		{0, 0, 1, 0, 0},
	}

	for _, tt := range tests {
		first, second, next := tt.state.step(tt.bit)
		if first != tt.first || second != tt.second || next != tt.next {
			t.Errorf("state %d bit %d: got (%d,%d)->%d, want (%d,%d)->%d",
				tt.state, tt.bit, first, second, next, tt.first, tt.second, tt.next)
		}
	}
}

func TestLevels_StateResetsPerCall(t *testing.T) {
	bits := []byte{1, 1, 0, 1}
	for _, scheme := range Schemes() {
		a, err := Levels(scheme, bits)
		require.NoError(t, err)
		b, err := Levels(scheme, bits)
		require.NoError(t, err)
		assert.Equal(t, a, b, scheme.Name())
	}
}

func TestLevels_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		scheme Scheme
		bits   []byte
	}{
		{"empty", NRZ, nil},
		{"non-binary", NRZI, []byte{0, 2, 1}},
		{"unknown scheme", Scheme(42), []byte{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.scheme, tt.bits)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput), "error %v should wrap ErrInvalidInput", err)
		})
	}
}

func TestPad_DoesNotAlias(t *testing.T) {
	levels := []int{1, 0}
	padded := Pad(levels)
	padded[0] = 7
	assert.Equal(t, []int{1, 0}, levels)
	assert.Equal(t, []int{}, Pad(nil))
}

func TestParseScheme(t *testing.T) {
	for _, s := range Schemes() {
		got, err := ParseScheme(s.Name())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseScheme(" Bipolar ")
	require.NoError(t, err)
	assert.Equal(t, AMI, got)

	_, err = ParseScheme("4b5b")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseBits(t *testing.T) {
	bits, err := ParseBits("0111 0010")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 1, 1, 0, 0, 1, 0}, bits)
	assert.Equal(t, "01110010", FormatBits(bits))

	_, err = ParseBits("01x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseBits("  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
