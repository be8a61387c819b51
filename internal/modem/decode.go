package modem

import "fmt"

// Decode recovers bits from an unpadded level sequence produced by Levels.
func Decode(scheme Scheme, levels []int) ([]byte, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: empty level sequence", ErrInvalidInput)
	}
	if spb := scheme.SamplesPerBit(); len(levels)%spb != 0 {
		return nil, fmt.Errorf("%w: %d levels is not a multiple of %d for %s",
			ErrInvalidInput, len(levels), spb, scheme.Name())
	}

	switch scheme {
	case NRZ:
		return decodeNRZ(levels)
	case NRZI:
		return decodeNRZI(levels)
	case Manchester:
		return decodeManchester(levels)
	case DifferentialManchester:
		return decodeDifferentialManchester(levels)
	case AMI:
		return decodeAMI(levels)
	default:
		return nil, fmt.Errorf("%w: unknown scheme %d", ErrInvalidInput, int(scheme))
	}
}

// DecodePadded strips the trailing pad sample and decodes the rest.
func DecodePadded(scheme Scheme, padded []int) ([]byte, error) {
	n := len(padded)
	if n < 2 {
		return nil, fmt.Errorf("%w: padded sequence too short: %d", ErrInvalidInput, n)
	}
	if padded[n-1] != padded[n-2] {
		return nil, fmt.Errorf("%w: last level %d does not repeat %d", ErrInvalidInput, padded[n-1], padded[n-2])
	}
	return Decode(scheme, padded[:n-1])
}

func checkUnipolar(i, level int) error {
	if level != 0 && level != 1 {
		return fmt.Errorf("%w: level %d at position %d", ErrInvalidInput, level, i)
	}
	return nil
}

func decodeNRZ(levels []int) ([]byte, error) {
	bits := make([]byte, len(levels))
	for i, l := range levels {
		if err := checkUnipolar(i, l); err != nil {
			return nil, err
		}
		bits[i] = byte(1 - l)
	}
	return bits, nil
}

func decodeNRZI(levels []int) ([]byte, error) {
	bits := make([]byte, len(levels))
	prev := 1
	for i, l := range levels {
		if err := checkUnipolar(i, l); err != nil {
			return nil, err
		}
		if l != prev {
			bits[i] = 1
		}
		prev = l
	}
	return bits, nil
}

func decodeManchester(levels []int) ([]byte, error) {
	bits := make([]byte, len(levels)/2)
	for i := range bits {
		a, b := levels[2*i], levels[2*i+1]
		switch {
		case a == 1 && b == 0:
			bits[i] = 0
		case a == 0 && b == 1:
			bits[i] = 1
		default:
			return nil, fmt.Errorf("%w: no mid-cell transition in bit %d (%d,%d)", ErrInvalidInput, i, a, b)
		}
	}
	return bits, nil
}

func decodeDifferentialManchester(levels []int) ([]byte, error) {
	bits := make([]byte, len(levels)/2)
	state := 1
	for i := range bits {
		a, b := levels[2*i], levels[2*i+1]
		if err := checkUnipolar(2*i, a); err != nil {
			return nil, err
		}
		if err := checkUnipolar(2*i+1, b); err != nil {
			return nil, err
		}
		if a == b {
			return nil, fmt.Errorf("%w: no mid-cell transition in bit %d (%d,%d)", ErrInvalidInput, i, a, b)
		}
		// A one starts at the held level; a zero starts flipped.
		if a == state {
			bits[i] = 1
		}
		state = b
	}
	return bits, nil
}

func decodeAMI(levels []int) ([]byte, error) {
	bits := make([]byte, len(levels))
	polarity := 1
	for i, l := range levels {
		switch l {
		case 0:
		case -polarity:
			polarity = l
			bits[i] = 1
		case polarity:
			return nil, fmt.Errorf("%w: bipolar violation at position %d", ErrInvalidInput, i)
		default:
			return nil, fmt.Errorf("%w: level %d at position %d", ErrInvalidInput, l, i)
		}
	}
	return bits, nil
}
