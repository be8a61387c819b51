package modem

import (
	"fmt"
	"math"
	"strings"
)

// BitsPerSymbol is the number of bits carried by one QAM symbol.
const BitsPerSymbol = 3

// NumSymbols is the size of the symbol alphabet.
const NumSymbols = 1 << BitsPerSymbol

// Symbol is a 3-bit QAM symbol, most significant bit first.
type Symbol [BitsPerSymbol]byte

// ParseSymbol parses a symbol written as "101".
func ParseSymbol(s string) (Symbol, error) {
	var sym Symbol
	s = strings.TrimSpace(s)
	if len(s) != BitsPerSymbol {
		return sym, fmt.Errorf("%w: symbol %q must have %d bits", ErrInvalidInput, s, BitsPerSymbol)
	}
	for i := 0; i < BitsPerSymbol; i++ {
		switch s[i] {
		case '0':
		case '1':
			sym[i] = 1
		default:
			return sym, fmt.Errorf("%w: symbol %q has non-binary digit %q", ErrInvalidInput, s, s[i])
		}
	}
	return sym, nil
}

// ParseSymbols parses whitespace or comma separated symbols ("101 110,000").
func ParseSymbols(s string) ([]Symbol, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty symbol sequence", ErrInvalidInput)
	}
	symbols := make([]Symbol, len(fields))
	for i, f := range fields {
		sym, err := ParseSymbol(f)
		if err != nil {
			return nil, err
		}
		symbols[i] = sym
	}
	return symbols, nil
}

// SymbolFromIndex returns the symbol whose bits spell idx in binary.
func SymbolFromIndex(idx int) Symbol {
	var sym Symbol
	copy(sym[:], indexToBits(idx, BitsPerSymbol))
	return sym
}

// Index returns the symbol value 0..7.
func (s Symbol) Index() int {
	return bitsToIndex(s[:])
}

// Valid reports whether every bit of the symbol is 0 or 1.
func (s Symbol) Valid() bool {
	for _, b := range s {
		if b > 1 {
			return false
		}
	}
	return true
}

// String returns the symbol bits, e.g. "101".
func (s Symbol) String() string {
	return FormatBits(s[:])
}

// FormatSymbols concatenates symbol bits, e.g. "101110".
func FormatSymbols(symbols []Symbol) string {
	var sb strings.Builder
	sb.Grow(len(symbols) * BitsPerSymbol)
	for _, s := range symbols {
		sb.WriteString(s.String())
	}
	return sb.String()
}

// SymbolsFromBits groups bits into 3-bit symbols.
func SymbolsFromBits(bits []byte) ([]Symbol, error) {
	if err := ValidateBits(bits); err != nil {
		return nil, err
	}
	if len(bits)%BitsPerSymbol != 0 {
		return nil, fmt.Errorf("%w: bit count %d is not a multiple of %d", ErrInvalidInput, len(bits), BitsPerSymbol)
	}

	symbols := make([]Symbol, len(bits)/BitsPerSymbol)
	for i := range symbols {
		copy(symbols[i][:], bits[i*BitsPerSymbol:(i+1)*BitsPerSymbol])
	}
	return symbols, nil
}

// Point is a constellation point in polar form.
type Point struct {
	Amplitude float64 `json:"amplitude"`
	Phase     float64 `json:"phase"` // radians
}

// IQ returns the point in rectangular form: I = A·cos θ, Q = A·sin θ.
func (p Point) IQ() complex128 {
	return complex(p.Amplitude*math.Cos(p.Phase), p.Amplitude*math.Sin(p.Phase))
}

// Constellation holds an immutable symbol-to-point table.
type Constellation struct {
	points [NumSymbols]Point
}

var defaultConstellation = &Constellation{
	points: [NumSymbols]Point{
		{1, 0},               // 000
		{2, 0},               // 001
		{1, math.Pi / 2},     // 010
		{2, math.Pi / 2},     // 011
		{1, math.Pi},         // 100
		{2, math.Pi},         // 101
		{1, 3 * math.Pi / 2}, // 110
		{2, 3 * math.Pi / 2}, // 111
	},
}

// DefaultConstellation returns the 8-point amplitude/phase table shared by
// every caller. The table is read-only.
func DefaultConstellation() *Constellation {
	return defaultConstellation
}

// NewConstellation builds a constellation from a table holding every symbol.
func NewConstellation(table map[Symbol]Point) (*Constellation, error) {
	if len(table) != NumSymbols {
		return nil, fmt.Errorf("%w: constellation needs %d points, got %d", ErrInvalidInput, NumSymbols, len(table))
	}
	c := &Constellation{}
	for sym, p := range table {
		if !sym.Valid() {
			return nil, fmt.Errorf("%w: symbol %v", ErrInvalidInput, sym)
		}
		c.points[sym.Index()] = p
	}
	return c, nil
}

// Map returns the point for a symbol.
func (c *Constellation) Map(sym Symbol) (Point, error) {
	if !sym.Valid() {
		return Point{}, fmt.Errorf("%w: symbol %v not in constellation", ErrInvalidInput, sym[:])
	}
	return c.points[sym.Index()], nil
}

// Demap finds the closest constellation point and returns its symbol.
func (c *Constellation) Demap(iq complex128) Symbol {
	minDist := math.MaxFloat64
	minIdx := 0

	for i, p := range c.points {
		d := iq - p.IQ()
		dist := real(d)*real(d) + imag(d)*imag(d)
		if dist < minDist {
			minDist = dist
			minIdx = i
		}
	}

	return SymbolFromIndex(minIdx)
}

// Points returns a copy of the table indexed by symbol value.
func (c *Constellation) Points() []Point {
	out := make([]Point, NumSymbols)
	copy(out, c.points[:])
	return out
}

// SymbolToPoint maps a symbol through the default constellation.
func SymbolToPoint(sym Symbol) (Point, error) {
	return defaultConstellation.Map(sym)
}
