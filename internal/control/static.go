package control

import (
	"github.com/san-kum/softfem/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Static applies a fixed gravity vector and an optional fixed attractor.
type Static struct {
	Forces dynamo.Forces
}

func NewStatic(gravity r2.Vec) *Static {
	return &Static{Forces: dynamo.Forces{Gravity: gravity}}
}

func (s *Static) Compute(t float64) dynamo.Forces {
	return s.Forces
}
