package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultDt       = 5e-5
	DefaultDamping  = 14.5
	DefaultSubsteps = 200
)

// Forces holds the scene-wide external force parameters. The scene sets them
// between frames; a substep only reads its copy.
type Forces struct {
	Gravity           r2.Vec
	AttractorPos      r2.Vec
	AttractorStrength float64
}

// StepParams configures one explicit substep.
type StepParams struct {
	Dt      float64
	Damping float64
}

func DefaultStepParams() StepParams {
	return StepParams{Dt: DefaultDt, Damping: DefaultDamping}
}

// Validate reports ErrParameterBounds for a non-positive dt or negative damping.
func (p StepParams) Validate() error {
	if !(p.Dt > 0) || math.IsInf(p.Dt, 0) {
		return &boundsError{"dt", p.Dt}
	}
	if p.Damping < 0 || math.IsNaN(p.Damping) || math.IsInf(p.Damping, 0) {
		return &boundsError{"damping", p.Damping}
	}
	return nil
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// BoundsError returns an error wrapping ErrParameterBounds for the named value.
func BoundsError(name string, value float64) error {
	return &boundsError{name, value}
}

type boundsError struct {
	name  string
	value float64
}

func (e *boundsError) Error() string {
	return fmt.Sprintf("%v: %s=%g", ErrParameterBounds, e.name, e.value)
}

func (e *boundsError) Unwrap() error { return ErrParameterBounds }

// IsFinite reports whether both components of v are finite.
func IsFinite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
