package modem

import (
	"fmt"
	"strings"
)

// ParseBits parses a string of '0' and '1' characters into a bit slice.
// Spaces, commas and underscores are ignored so "0111 0010" is accepted.
func ParseBits(s string) ([]byte, error) {
	bits := make([]byte, 0, len(s))
	for i, r := range s {
		switch r {
		case '0':
			bits = append(bits, 0)
		case '1':
			bits = append(bits, 1)
		case ' ', '\t', ',', '_':
		default:
			return nil, fmt.Errorf("%w: bit %q at position %d", ErrInvalidInput, r, i)
		}
	}
	if len(bits) == 0 {
		return nil, fmt.Errorf("%w: empty bit sequence", ErrInvalidInput)
	}
	return bits, nil
}

// FormatBits renders bits as a compact "0101" string.
func FormatBits(bits []byte) string {
	var sb strings.Builder
	sb.Grow(len(bits))
	for _, b := range bits {
		sb.WriteByte('0' + b)
	}
	return sb.String()
}

// ValidateBits checks that bits is non-empty and holds only 0 and 1.
func ValidateBits(bits []byte) error {
	if len(bits) == 0 {
		return fmt.Errorf("%w: empty bit sequence", ErrInvalidInput)
	}
	for i, b := range bits {
		if b > 1 {
			return fmt.Errorf("%w: bit %d at position %d", ErrInvalidInput, b, i)
		}
	}
	return nil
}

func bitsToIndex(bits []byte) int {
	idx := 0
	for _, b := range bits {
		idx = (idx << 1) | int(b&1)
	}
	return idx
}

func indexToBits(idx, numBits int) []byte {
	bits := make([]byte, numBits)
	for i := numBits - 1; i >= 0; i-- {
		bits[i] = byte(idx & 1)
		idx >>= 1
	}
	return bits
}
