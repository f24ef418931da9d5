package script

import "errors"

var (
	// ErrClosed is returned when generating from a closed Generator.
	ErrClosed = errors.New("lua generator is closed")

	// ErrTimeout is returned when one generate call runs past its timeout.
	ErrTimeout = errors.New("lua generate timeout")

	// ErrNoFunction is returned when the chunk doesn't define the function.
	ErrNoFunction = errors.New("lua generate function not defined")

	// ErrBadResult is returned when generate doesn't return a string of the
	// requested length.
	ErrBadResult = errors.New("lua generate returned a bad result")
)
