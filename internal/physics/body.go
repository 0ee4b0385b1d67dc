package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/softfem/internal/dynamo"
	"github.com/san-kum/softfem/internal/integrators"
	"github.com/san-kum/softfem/internal/material"
	"github.com/san-kum/softfem/internal/mesh"
	"gonum.org/v1/gonum/spatial/r2"
)

// BodyParams are the construction parameters of a soft body.
type BodyParams struct {
	Resolution int
	Young      float64
	Poisson    float64
	Density    float64
	Policy     material.InversionPolicy
}

func DefaultBodyParams() BodyParams {
	return BodyParams{
		Resolution: 8,
		Young:      4000,
		Poisson:    0.2,
		Density:    40,
		Policy:     material.Clamp,
	}
}

// MeshSnapshot is a copy of a body's renderable state.
type MeshSnapshot struct {
	Positions []r2.Vec
	Faces     [][3]int
	Phi       []float64
	Energy    float64
	Young     float64
}

// LowestY returns the minimum vertex height of the snapshot.
func (s MeshSnapshot) LowestY() float64 {
	low := math.Inf(1)
	for _, p := range s.Positions {
		low = math.Min(low, p.Y)
	}
	return low
}

// SoftBody is one deformable triangle mesh with its material and state.
// A SoftBody is not safe for concurrent use; distinct bodies may be stepped
// in parallel.
type SoftBody struct {
	name   string
	params BodyParams
	mat    *material.NeoHookean

	scale  float64
	offset r2.Vec

	mesh *mesh.Mesh
	pos  []r2.Vec
	vel  []r2.Vec

	asm        *Assembler
	integrator *integrators.Explicit

	energy   float64
	substeps int
	invalid  bool
}

func NewSoftBody(name string, cfg BodyParams) (*SoftBody, error) {
	if cfg.Resolution < 1 {
		return nil, fmt.Errorf("body %q: resolution %d: %w", name, cfg.Resolution, dynamo.ErrParameterBounds)
	}
	if !(cfg.Density > 0) || math.IsInf(cfg.Density, 0) {
		return nil, fmt.Errorf("body %q: %w", name, dynamo.BoundsError("density", cfg.Density))
	}
	mat, err := material.NewNeoHookean(cfg.Young, cfg.Poisson)
	if err != nil {
		return nil, fmt.Errorf("body %q: %w", name, err)
	}
	mat.Policy = cfg.Policy

	return &SoftBody{
		name:       name,
		params:     cfg,
		mat:        mat,
		integrator: integrators.NewExplicit(),
	}, nil
}

// Initialize places the body's rest grid at offset with the given scale and
// resets all dynamic state. Calling it again restores the rest configuration.
func (b *SoftBody) Initialize(scale float64, offset r2.Vec) error {
	m, err := mesh.Grid(b.params.Resolution, scale, offset)
	if err != nil {
		return fmt.Errorf("body %q: %w", b.name, err)
	}
	inv, err := mesh.ReferenceInverses(m.Rest, m.Faces)
	if err != nil {
		return fmt.Errorf("body %q: %w", b.name, err)
	}

	b.scale, b.offset = scale, offset
	b.mesh = m
	b.pos = append([]r2.Vec(nil), m.Rest...)
	b.vel = make([]r2.Vec, len(m.Rest))
	b.asm = NewAssembler(m.Faces, inv, len(m.Rest), b.mat)
	b.substeps = 0
	b.invalid = false

	u, _, err := b.asm.Compute(b.pos)
	if err != nil {
		return fmt.Errorf("body %q: %w", b.name, err)
	}
	b.energy = u
	return nil
}

// Reset re-initializes the body at its last placement.
func (b *SoftBody) Reset() error {
	if b.mesh == nil {
		return fmt.Errorf("body %q: %w", b.name, dynamo.ErrNotInitialized)
	}
	return b.Initialize(b.scale, b.offset)
}

// Substep assembles elastic forces for the current positions and advances
// the body by one explicit step of p.Dt.
func (b *SoftBody) Substep(f dynamo.Forces, p dynamo.StepParams) error {
	if b.asm == nil {
		return fmt.Errorf("body %q: %w", b.name, dynamo.ErrNotInitialized)
	}
	if b.invalid {
		return &dynamo.SimulationError{Body: b.name, Substep: b.substeps, Element: -1, Wrapped: dynamo.ErrInvalidState}
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("body %q: %w", b.name, err)
	}

	u, elem, err := b.asm.Compute(b.pos)
	if err != nil {
		if errors.Is(err, dynamo.ErrInvalidDeformation) {
			b.invalid = true
		}
		return &dynamo.SimulationError{Body: b.name, Substep: b.substeps, Element: elem, Wrapped: err}
	}
	b.energy = u

	b.integrator.Step(b.pos, b.vel, b.asm.Forces, b.Mass(), f, p)
	b.substeps++

	for _, x := range b.pos {
		if !dynamo.IsFinite(x) {
			b.invalid = true
			return &dynamo.SimulationError{Body: b.name, Substep: b.substeps, Element: -1, Wrapped: dynamo.ErrInvalidState}
		}
	}
	return nil
}

// Frame runs n consecutive substeps, stopping at the first error.
func (b *SoftBody) Frame(f dynamo.Forces, p dynamo.StepParams, n int) error {
	for i := 0; i < n; i++ {
		if err := b.Substep(f, p); err != nil {
			return err
		}
	}
	return nil
}

// Positions returns a copy of the current vertex positions.
func (b *SoftBody) Positions() []r2.Vec { return append([]r2.Vec(nil), b.pos...) }

// Velocities returns a copy of the current vertex velocities.
func (b *SoftBody) Velocities() []r2.Vec { return append([]r2.Vec(nil), b.vel...) }

// Deform moves every vertex to fn(position), keeping velocities. The elastic
// state is reassembled at the next substep.
func (b *SoftBody) Deform(fn func(r2.Vec) r2.Vec) error {
	if b.asm == nil {
		return fmt.Errorf("body %q: %w", b.name, dynamo.ErrNotInitialized)
	}
	for i, p := range b.pos {
		b.pos[i] = fn(p)
	}
	return nil
}

// Snapshot returns copies of positions, faces and per-element energy density.
func (b *SoftBody) Snapshot() MeshSnapshot {
	if b.mesh == nil {
		return MeshSnapshot{}
	}
	faces := make([][3]int, len(b.mesh.Faces))
	copy(faces, b.mesh.Faces)
	return MeshSnapshot{
		Positions: append([]r2.Vec(nil), b.pos...),
		Faces:     faces,
		Phi:       append([]float64(nil), b.asm.Phi...),
		Energy:    b.energy,
		Young:     b.params.Young,
	}
}

// Mass is the per-vertex mass proxy rho*dx^2 with dx = 1/N.
func (b *SoftBody) Mass() float64 {
	dx := 1 / float64(b.params.Resolution)
	return b.params.Density * dx * dx
}

// Energy is the total elastic energy at the start of the last substep.
func (b *SoftBody) Energy() float64 { return b.energy }

func (b *SoftBody) LowestY() float64 {
	low := math.Inf(1)
	for _, p := range b.pos {
		low = math.Min(low, p.Y)
	}
	return low
}

func (b *SoftBody) Name() string                      { return b.name }
func (b *SoftBody) Params() BodyParams                { return b.params }
func (b *SoftBody) Material() *material.NeoHookean    { return b.mat }
func (b *SoftBody) Integrator() *integrators.Explicit { return b.integrator }
func (b *SoftBody) NumVertices() int                  { return mesh.NumVertices(b.params.Resolution) }
func (b *SoftBody) NumFaces() int                     { return mesh.NumFaces(b.params.Resolution) }
func (b *SoftBody) Valid() bool                       { return !b.invalid }
func (b *SoftBody) Substeps() int                     { return b.substeps }
func (b *SoftBody) Initialized() bool                 { return b.asm != nil }

// Placement returns the scale and offset of the last Initialize.
func (b *SoftBody) Placement() (float64, r2.Vec) { return b.scale, b.offset }

func (b *SoftBody) GetParams() map[string]float64 {
	return map[string]float64{
		"young":   b.params.Young,
		"poisson": b.params.Poisson,
		"density": b.params.Density,
	}
}

func (b *SoftBody) SetParam(name string, value float64) error {
	next := b.params
	switch name {
	case "young":
		next.Young = value
	case "poisson":
		next.Poisson = value
	case "density":
		if !(value > 0) || math.IsInf(value, 0) {
			return dynamo.BoundsError("density", value)
		}
		next.Density = value
		b.params = next
		return nil
	default:
		return fmt.Errorf("unknown param: %s", name)
	}

	mu, lambda, err := material.Lame(next.Young, next.Poisson)
	if err != nil {
		return err
	}
	b.mat.Mu, b.mat.Lambda = mu, lambda
	b.params = next
	return nil
}
