package modem

import (
	"fmt"
	"strings"
)

// Scheme represents a digital line-coding scheme.
type Scheme int

const (
	NRZ                    Scheme = iota // non return to zero, active low
	NRZI                                 // non return to zero inverted
	Manchester                           // 0 -> high/low, 1 -> low/high
	DifferentialManchester               // transition-coded manchester
	AMI                                  // alternate mark inversion
)

// Schemes returns every supported scheme in display order.
func Schemes() []Scheme {
	return []Scheme{NRZ, NRZI, Manchester, DifferentialManchester, AMI}
}

// String returns the scheme title used on plots.
func (s Scheme) String() string {
	switch s {
	case NRZ:
		return "Non Return to Zero (Active Low)"
	case NRZI:
		return "Non Return to Zero Inverted"
	case Manchester:
		return "Manchester"
	case DifferentialManchester:
		return "Differential Manchester"
	case AMI:
		return "Alternate Mark Inversion"
	default:
		return "Unknown"
	}
}

// Name returns the short name accepted by ParseScheme.
func (s Scheme) Name() string {
	switch s {
	case NRZ:
		return "nrz"
	case NRZI:
		return "nrzi"
	case Manchester:
		return "manchester"
	case DifferentialManchester:
		return "diff-manchester"
	case AMI:
		return "ami"
	default:
		return "unknown"
	}
}

// SamplesPerBit returns how many levels the scheme emits per input bit.
func (s Scheme) SamplesPerBit() int {
	switch s {
	case Manchester, DifferentialManchester:
		return 2
	default:
		return 1
	}
}

// Bipolar reports whether the scheme emits negative levels.
func (s Scheme) Bipolar() bool {
	return s == AMI
}

// ParseScheme resolves a scheme from its short name or a common alias.
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nrz", "nrz-l":
		return NRZ, nil
	case "nrzi", "nrz-i":
		return NRZI, nil
	case "manchester":
		return Manchester, nil
	case "diff-manchester", "differential-manchester", "dmanchester":
		return DifferentialManchester, nil
	case "ami", "bipolar":
		return AMI, nil
	default:
		return 0, fmt.Errorf("%w: unknown scheme %q", ErrInvalidInput, name)
	}
}

// Encode converts bits to levels for the given scheme and pads the result
// with a copy of its final level so a step plot holds the last cell.
func Encode(scheme Scheme, bits []byte) ([]int, error) {
	levels, err := Levels(scheme, bits)
	if err != nil {
		return nil, err
	}
	return Pad(levels), nil
}

// Levels converts bits to levels for the given scheme without padding.
func Levels(scheme Scheme, bits []byte) ([]int, error) {
	if err := ValidateBits(bits); err != nil {
		return nil, err
	}

	switch scheme {
	case NRZ:
		return EncodeNRZ(bits), nil
	case NRZI:
		return EncodeNRZI(bits), nil
	case Manchester:
		return EncodeManchester(bits), nil
	case DifferentialManchester:
		return EncodeDifferentialManchester(bits), nil
	case AMI:
		return EncodeAMI(bits), nil
	default:
		return nil, fmt.Errorf("%w: unknown scheme %d", ErrInvalidInput, int(scheme))
	}
}

// Pad returns a copy of levels with its last element repeated once.
func Pad(levels []int) []int {
	if len(levels) == 0 {
		return []int{}
	}
	out := make([]int, len(levels)+1)
	copy(out, levels)
	out[len(levels)] = levels[len(levels)-1]
	return out
}

// EncodeNRZ inverts every bit (active low).
func EncodeNRZ(bits []byte) []int {
	levels := make([]int, len(bits))
	for i, b := range bits {
		levels[i] = 1 - int(b)
	}
	return levels
}

// EncodeNRZI flips the line level on every 1 and holds it on every 0.
// The line starts high.
func EncodeNRZI(bits []byte) []int {
	levels := make([]int, len(bits))
	level := 1
	for i, b := range bits {
		if b == 1 {
			level = 1 - level
		}
		levels[i] = level
	}
	return levels
}

// EncodeManchester emits (1,0) for a 0 bit and (0,1) for a 1 bit.
func EncodeManchester(bits []byte) []int {
	levels := make([]int, 0, 2*len(bits))
	for _, b := range bits {
		if b == 1 {
			levels = append(levels, 0, 1)
		} else {
			levels = append(levels, 1, 0)
		}
	}
	return levels
}

// diffManchesterState is the current line level of the differential
// manchester encoder.
type diffManchesterState int

// step consumes one bit and returns the two levels of its cell plus the
// state for the next bit.
//
//	bit 1: emit s, flip, emit !s           -> next = !s
//	bit 0: flip, emit !s, flip, emit s     -> next = s
func (s diffManchesterState) step(bit byte) (first, second int, next diffManchesterState) {
	flipped := 1 - s
	if bit == 1 {
		return int(s), int(flipped), flipped
	}
	return int(flipped), int(s), s
}

// EncodeDifferentialManchester emits two levels per bit. The line starts high.
func EncodeDifferentialManchester(bits []byte) []int {
	levels := make([]int, 0, 2*len(bits))
	state := diffManchesterState(1)
	for _, b := range bits {
		var first, second int
		first, second, state = state.step(b)
		levels = append(levels, first, second)
	}
	return levels
}

// EncodeAMI emits 0 for a 0 bit and alternates -1/+1 for 1 bits, starting
// from a stored polarity of +1 so the first mark is -1.
func EncodeAMI(bits []byte) []int {
	levels := make([]int, len(bits))
	polarity := 1
	for i, b := range bits {
		if b == 1 {
			polarity = -polarity
			levels[i] = polarity
		}
	}
	return levels
}
