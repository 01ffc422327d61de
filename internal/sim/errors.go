package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrMisconfiguredBounds indicates an empty position or velocity interval.
	ErrMisconfiguredBounds = errors.New("sim: misconfigured bounds")

	// ErrInvalidPeriod indicates a non-positive tick period.
	ErrInvalidPeriod = errors.New("sim: tick period must be positive")
)

// TickError wraps a failure with the tick it happened on.
type TickError struct {
	Tick    int
	Time    float64
	Wrapped error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("tick %d (t=%.4f): %v", e.Tick, e.Time, e.Wrapped)
}

func (e *TickError) Unwrap() error { return e.Wrapped }
