package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrDegenerateGeometry indicates a rest triangle with (near) zero area.
	ErrDegenerateGeometry = errors.New("dynamo: degenerate rest triangle")

	// ErrInvalidDeformation indicates a non-positive deformation Jacobian.
	ErrInvalidDeformation = errors.New("dynamo: non-positive deformation jacobian")

	// ErrInvalidState indicates a body whose state is flagged or non-finite.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN, Inf or flagged)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrNotInitialized indicates a body stepped before Initialize.
	ErrNotInitialized = errors.New("dynamo: body not initialized")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Body    string
	Substep int
	Element int
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Element >= 0 {
		return fmt.Sprintf("body %q substep %d element %d: %v", e.Body, e.Substep, e.Element, e.Wrapped)
	}
	return fmt.Sprintf("body %q substep %d: %v", e.Body, e.Substep, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
