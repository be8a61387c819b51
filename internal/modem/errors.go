package modem

import "errors"

// ErrInvalidInput is returned (wrapped) for bits outside {0,1}, symbols
// missing from the constellation and empty sequences.
var ErrInvalidInput = errors.New("invalid input")
