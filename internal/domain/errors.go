package domain

import "errors"

// Sentinel error kinds, matched with errors.Is. Callers wrap these with
// record context via fmt.Errorf and %w.
var (
	// ErrInvalidInput marks physically impossible or malformed input:
	// shade fractions outside [0,1], negative ET, NaN, mismatched keys.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingShade marks an ET record with no shade record for the
	// same field and day.
	ErrMissingShade = errors.New("missing shade record")
)
