package control

import "github.com/san-kum/softfem/internal/dynamo"

// Controller yields the external forces for the frame starting at time t.
type Controller interface {
	Compute(t float64) dynamo.Forces
}

// DefaultStrength is the attractor magnitude applied by mouse buttons.
const DefaultStrength = 1.0
