package rope

import "errors"

// Errors returned by rope operations.
var (
	// ErrOutOfRange indicates a position or range outside [0, Len()].
	ErrOutOfRange = errors.New("position out of range")

	// ErrDepthOverflow indicates a tree that cannot be balanced within the
	// configured maximum depth.
	ErrDepthOverflow = errors.New("rope too deep to balance")

	// ErrInvalidConfig indicates tuning values that cannot work together.
	ErrInvalidConfig = errors.New("invalid rope configuration")
)
