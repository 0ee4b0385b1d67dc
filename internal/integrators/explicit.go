package integrators

import (
	"math"

	"github.com/san-kum/softfem/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultGain         = 40.0
	DefaultGravityScale = 0.8
	DefaultEpsilon      = 1e-5
	DefaultBarHeight    = 0.2
)

// BarBoundary is the static obstacle filling the half-plane y < Height.
type BarBoundary struct {
	Height float64
}

// Project zeroes every negative velocity component of a vertex below the
// bar. Components are handled independently.
func (b BarBoundary) Project(pos, vel r2.Vec) r2.Vec {
	if pos.Y >= b.Height {
		return vel
	}
	if vel.X < 0 {
		vel.X = 0
	}
	if vel.Y < 0 {
		vel.Y = 0
	}
	return vel
}

// Explicit is the semi-implicit Euler scheme for soft bodies: velocities are
// updated from elastic and external forces, damped, projected against the
// bar, and then used to move positions.
type Explicit struct {
	Gain         float64
	GravityScale float64
	Epsilon      float64
	Bar          BarBoundary
}

func NewExplicit() *Explicit {
	return &Explicit{
		Gain:         DefaultGain,
		GravityScale: DefaultGravityScale,
		Epsilon:      DefaultEpsilon,
		Bar:          BarBoundary{Height: DefaultBarHeight},
	}
}

// External returns the gain-scaled gravity plus attractor acceleration at p.
func (e *Explicit) External(f dynamo.Forces, p r2.Vec) r2.Vec {
	g := r2.Scale(e.GravityScale, f.Gravity)
	if f.AttractorStrength != 0 {
		d := r2.Sub(f.AttractorPos, p)
		g = r2.Add(g, r2.Scale(f.AttractorStrength/(r2.Norm(d)+e.Epsilon), d))
	}
	return r2.Scale(e.Gain, g)
}

// Step advances pos and vel in place by one substep. force holds the elastic
// nodal forces and mass the per-vertex mass.
func (e *Explicit) Step(pos, vel, force []r2.Vec, mass float64, f dynamo.Forces, p dynamo.StepParams) {
	decay := math.Exp(-p.Dt * p.Damping)
	invMass := 1 / mass

	dynamo.ParallelFor(len(pos), 1024, func(start, end int) {
		for i := start; i < end; i++ {
			acc := r2.Add(r2.Scale(invMass, force[i]), e.External(f, pos[i]))
			v := r2.Add(vel[i], r2.Scale(p.Dt, acc))
			v = r2.Scale(decay, v)
			v = e.Bar.Project(pos[i], v)
			vel[i] = v
			pos[i] = r2.Add(pos[i], r2.Scale(p.Dt, v))
		}
	})
}
