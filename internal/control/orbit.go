package control

import (
	"math"

	"github.com/san-kum/softfem/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Orbit moves an attractor of fixed strength around Center with the given
// Radius, completing one revolution every Period seconds.
type Orbit struct {
	Gravity  r2.Vec
	Center   r2.Vec
	Radius   float64
	Period   float64
	Strength float64
}

func NewOrbit(gravity, center r2.Vec, radius, period, strength float64) *Orbit {
	return &Orbit{Gravity: gravity, Center: center, Radius: radius, Period: period, Strength: strength}
}

func (o *Orbit) Position(t float64) r2.Vec {
	if o.Period <= 0 {
		return o.Center
	}
	theta := 2 * math.Pi * t / o.Period
	return r2.Add(o.Center, r2.Vec{X: o.Radius * math.Cos(theta), Y: o.Radius * math.Sin(theta)})
}

func (o *Orbit) Compute(t float64) dynamo.Forces {
	return dynamo.Forces{Gravity: o.Gravity, AttractorPos: o.Position(t), AttractorStrength: o.Strength}
}

func (o *Orbit) GetParams() map[string]float64 {
	return map[string]float64{
		"radius":   o.Radius,
		"period":   o.Period,
		"strength": o.Strength,
	}
}

func (o *Orbit) SetParam(name string, value float64) error {
	switch name {
	case "radius":
		if value < 0 {
			return dynamo.BoundsError(name, value)
		}
		o.Radius = value
	case "period":
		if value <= 0 {
			return dynamo.BoundsError(name, value)
		}
		o.Period = value
	case "strength":
		o.Strength = value
	default:
		return dynamo.BoundsError(name, value)
	}
	return nil
}
