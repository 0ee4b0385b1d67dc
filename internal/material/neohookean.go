// Package material implements the compressible Neo-Hookean strain energy used
// by every soft body, together with its derivative with respect to the
// deformation gradient.
//
//	phi(F) = mu/2 (tr(FᵀF) - 2) - mu ln J + lambda/2 (ln J)²,  J = det F
//	P(F)   = dphi/dF = mu F + (lambda ln J - mu) (dlnJ/dJ) cof(F)
package material

import (
	"fmt"
	"math"

	"github.com/san-kum/softfem/internal/dynamo"
)

// InversionPolicy selects how ln J is evaluated for (near) inverted elements.
type InversionPolicy int

const (
	// Clamp continues ln J linearly below JMin, keeping energy and stress
	// finite and mutually consistent.
	Clamp InversionPolicy = iota
	// Flag rejects J <= 0 with dynamo.ErrInvalidDeformation.
	Flag
)

const DefaultJMin = 1e-3

func (p InversionPolicy) String() string {
	switch p {
	case Clamp:
		return "clamp"
	case Flag:
		return "flag"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy maps "clamp" or "flag" to an InversionPolicy.
func ParsePolicy(s string) (InversionPolicy, error) {
	switch s {
	case "", "clamp":
		return Clamp, nil
	case "flag":
		return Flag, nil
	}
	return Clamp, fmt.Errorf("unknown inversion policy %q", s)
}

// Lame converts Young's modulus and Poisson ratio to (mu, lambda).
func Lame(young, poisson float64) (mu, lambda float64, err error) {
	if !(young > 0) || math.IsInf(young, 0) {
		return 0, 0, dynamo.BoundsError("young", young)
	}
	if !(poisson > -1 && poisson < 0.5) {
		return 0, 0, dynamo.BoundsError("poisson", poisson)
	}
	mu = young / (2 * (1 + poisson))
	lambda = young * poisson / ((1 + poisson) * (1 - 2*poisson))
	return mu, lambda, nil
}

type NeoHookean struct {
	Mu     float64
	Lambda float64
	Policy InversionPolicy
	JMin   float64
}

func NewNeoHookean(young, poisson float64) (*NeoHookean, error) {
	mu, lambda, err := Lame(young, poisson)
	if err != nil {
		return nil, err
	}
	return &NeoHookean{Mu: mu, Lambda: lambda, Policy: Clamp, JMin: DefaultJMin}, nil
}

// logJ returns ln J and d(ln J)/dJ under the configured policy.
func (m *NeoHookean) logJ(j float64) (float64, float64, error) {
	switch m.Policy {
	case Flag:
		if !(j > 0) {
			return 0, 0, fmt.Errorf("J=%g: %w", j, dynamo.ErrInvalidDeformation)
		}
		return math.Log(j), 1 / j, nil
	default:
		jmin := m.JMin
		if !(jmin > 0) {
			jmin = DefaultJMin
		}
		if j >= jmin {
			return math.Log(j), 1 / j, nil
		}
		if math.IsNaN(j) {
			return 0, 0, fmt.Errorf("J=NaN: %w", dynamo.ErrInvalidDeformation)
		}
		return math.Log(jmin) + (j-jmin)/jmin, 1 / jmin, nil
	}
}

// Energy returns the strain energy density phi(F).
func (m *NeoHookean) Energy(f dynamo.Mat2) (float64, error) {
	l, _, err := m.logJ(f.Det())
	if err != nil {
		return 0, err
	}
	return m.Mu/2*(f.FrobeniusSq()-2) - m.Mu*l + m.Lambda/2*l*l, nil
}

// Stress returns the first Piola-Kirchhoff stress dphi/dF.
func (m *NeoHookean) Stress(f dynamo.Mat2) (dynamo.Mat2, error) {
	_, p, err := m.EnergyAndStress(f)
	return p, err
}

// EnergyAndStress evaluates phi(F) and dphi/dF in one pass.
func (m *NeoHookean) EnergyAndStress(f dynamo.Mat2) (float64, dynamo.Mat2, error) {
	l, dl, err := m.logJ(f.Det())
	if err != nil {
		return 0, dynamo.Mat2{}, err
	}
	phi := m.Mu/2*(f.FrobeniusSq()-2) - m.Mu*l + m.Lambda/2*l*l
	p := f.Scale(m.Mu).Add(f.Cofactor().Scale((m.Lambda*l - m.Mu) * dl))
	return phi, p, nil
}
