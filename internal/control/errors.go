package control

import "errors"

var (
	// ErrInvalidTimestep indicates an elapsed time that is zero, negative, NaN or infinite.
	ErrInvalidTimestep = errors.New("control: elapsed time must be positive and finite")

	// ErrNonFiniteOutput indicates gains large enough that the output is not a number.
	ErrNonFiniteOutput = errors.New("control: output is not a number")

	// ErrUnknownParam indicates a tuning parameter the controller does not expose.
	ErrUnknownParam = errors.New("control: unknown parameter")
)
