package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/softfem/internal/dynamo"
	"github.com/san-kum/softfem/internal/material"
	"gonum.org/v1/gonum/spatial/r2"
)

func newReferenceBody(t *testing.T, policy material.InversionPolicy) *SoftBody {
	t.Helper()
	p := DefaultBodyParams()
	p.Policy = policy
	b, err := NewSoftBody("mesh1", p)
	if err != nil {
		t.Fatalf("new body: %v", err)
	}
	if err := b.Initialize(0.25, r2.Vec{X: 0.1, Y: 0.6}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return b
}

func TestNewSoftBodyBounds(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*BodyParams)
	}{
		{"zero resolution", func(p *BodyParams) { p.Resolution = 0 }},
		{"zero young", func(p *BodyParams) { p.Young = 0 }},
		{"poisson half", func(p *BodyParams) { p.Poisson = 0.5 }},
		{"poisson minus one", func(p *BodyParams) { p.Poisson = -1 }},
		{"negative density", func(p *BodyParams) { p.Density = -1 }},
		{"nan density", func(p *BodyParams) { p.Density = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultBodyParams()
			tt.mod(&p)
			_, err := NewSoftBody("b", p)
			if !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

func TestSoftBodyInitialize(t *testing.T) {
	b := newReferenceBody(t, material.Clamp)

	if b.NumVertices() != 81 || len(b.pos) != 81 {
		t.Errorf("expected 81 vertices, got %d", len(b.pos))
	}
	if b.NumFaces() != 128 {
		t.Errorf("expected 128 faces, got %d", b.NumFaces())
	}
	if b.Energy() > 1e-9 {
		t.Errorf("expected zero energy at rest, got %g", b.Energy())
	}
	if math.Abs(b.Mass()-0.625) > 1e-15 {
		t.Errorf("expected mass 0.625, got %g", b.Mass())
	}
	for i, v := range b.vel {
		if v != (r2.Vec{}) {
			t.Fatalf("vertex %d: expected zero velocity, got %v", i, v)
		}
	}
}

func TestSoftBodyStepBeforeInitialize(t *testing.T) {
	b, err := NewSoftBody("b", DefaultBodyParams())
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Substep(dynamo.Forces{}, dynamo.DefaultStepParams()); !errors.Is(err, dynamo.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
	if err := b.Reset(); !errors.Is(err, dynamo.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized from Reset, got %v", err)
	}
	if s := b.Snapshot(); len(s.Positions) != 0 {
		t.Errorf("expected empty snapshot, got %d positions", len(s.Positions))
	}
}

func TestSoftBodyStepParamBounds(t *testing.T) {
	b := newReferenceBody(t, material.Clamp)

	for _, p := range []dynamo.StepParams{
		{Dt: 0, Damping: 1},
		{Dt: -1e-5, Damping: 1},
		{Dt: 1e-5, Damping: -1},
		{Dt: math.NaN(), Damping: 1},
	} {
		if err := b.Substep(dynamo.Forces{}, p); !errors.Is(err, dynamo.ErrParameterBounds) {
			t.Errorf("params %+v: expected ErrParameterBounds, got %v", p, err)
		}
	}
	if b.Substeps() != 0 {
		t.Errorf("rejected substeps must not count, got %d", b.Substeps())
	}
}

func TestSoftBodyTopologyConserved(t *testing.T) {
	b := newReferenceBody(t, material.Clamp)
	before := b.Snapshot()

	f := dynamo.Forces{Gravity: r2.Vec{Y: -1}, AttractorPos: r2.Vec{X: 0.5, Y: 0.5}, AttractorStrength: 1}
	if err := b.Frame(f, dynamo.DefaultStepParams(), 400); err != nil {
		t.Fatalf("frame: %v", err)
	}
	after := b.Snapshot()

	if len(after.Positions) != len(before.Positions) {
		t.Fatalf("vertex count changed: %d -> %d", len(before.Positions), len(after.Positions))
	}
	for i := range before.Faces {
		if before.Faces[i] != after.Faces[i] {
			t.Fatalf("face %d changed: %v -> %v", i, before.Faces[i], after.Faces[i])
		}
	}
	if b.Substeps() != 400 {
		t.Errorf("expected 400 substeps, got %d", b.Substeps())
	}
}

func TestSoftBodySnapshotIsCopy(t *testing.T) {
	b := newReferenceBody(t, material.Clamp)

	s := b.Snapshot()
	s.Positions[0] = r2.Vec{X: 42, Y: 42}
	s.Faces[0] = [3]int{0, 0, 0}
	s.Phi[0] = 42

	again := b.Snapshot()
	if again.Positions[0] == s.Positions[0] {
		t.Error("snapshot positions alias body state")
	}
	if again.Faces[0] == s.Faces[0] {
		t.Error("snapshot faces alias body state")
	}
	if again.Phi[0] == 42 {
		t.Error("snapshot phi aliases body state")
	}
	if len(again.Phi) != b.NumFaces() {
		t.Errorf("expected %d phi values, got %d", b.NumFaces(), len(again.Phi))
	}
}

func TestSoftBodyInitializeIsIdempotent(t *testing.T) {
	b := newReferenceBody(t, material.Clamp)
	rest := b.Snapshot()

	if err := b.Frame(dynamo.Forces{Gravity: r2.Vec{Y: -1}}, dynamo.DefaultStepParams(), 200); err != nil {
		t.Fatalf("frame: %v", err)
	}
	if err := b.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	again := b.Snapshot()
	for i := range rest.Positions {
		if rest.Positions[i] != again.Positions[i] {
			t.Fatalf("vertex %d: expected %v after reset, got %v", i, rest.Positions[i], again.Positions[i])
		}
	}
	if b.Substeps() != 0 {
		t.Errorf("expected substep counter reset, got %d", b.Substeps())
	}
}

func TestSoftBodyFlagPolicyRejectsInversion(t *testing.T) {
	b := newReferenceBody(t, material.Flag)
	for i := range b.pos {
		b.pos[i].X = 1 - b.pos[i].X
	}
	before := append([]r2.Vec(nil), b.pos...)

	err := b.Substep(dynamo.Forces{Gravity: r2.Vec{Y: -1}}, dynamo.DefaultStepParams())
	if !errors.Is(err, dynamo.ErrInvalidDeformation) {
		t.Fatalf("expected ErrInvalidDeformation, got %v", err)
	}
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected *SimulationError, got %T", err)
	}
	if simErr.Body != "mesh1" || simErr.Element != 0 {
		t.Errorf("expected body mesh1 element 0, got %q element %d", simErr.Body, simErr.Element)
	}

	for i := range before {
		if b.pos[i] != before[i] {
			t.Fatalf("vertex %d moved by a rejected substep", i)
		}
	}
	if b.Valid() {
		t.Error("expected body to be flagged invalid")
	}

	err = b.Substep(dynamo.Forces{}, dynamo.DefaultStepParams())
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState on a flagged body, got %v", err)
	}

	if err := b.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !b.Valid() {
		t.Error("expected Initialize to clear the invalid flag")
	}
}

func TestSoftBodyClampPolicyAcceptsInversion(t *testing.T) {
	b := newReferenceBody(t, material.Clamp)
	for i := range b.pos {
		b.pos[i].X = 1 - b.pos[i].X
	}

	if err := b.Substep(dynamo.Forces{}, dynamo.DefaultStepParams()); err != nil {
		t.Fatalf("substep: %v", err)
	}
	if e := b.Energy(); math.IsNaN(e) || math.IsInf(e, 0) || e <= 0 {
		t.Errorf("expected finite positive energy for an inverted body, got %g", e)
	}
	if !b.Valid() {
		t.Error("clamped body must stay valid")
	}
}

func TestSoftBodyDropsOntoBar(t *testing.T) {
	b := newReferenceBody(t, material.Clamp)
	f := dynamo.Forces{Gravity: r2.Vec{Y: -1}}
	p := dynamo.DefaultStepParams()

	low := b.LowestY()
	for i := 0; i < 200; i++ {
		if err := b.Substep(f, p); err != nil {
			t.Fatalf("substep %d: %v", i, err)
		}
		y := b.LowestY()
		if y > low+1e-12 {
			t.Fatalf("substep %d: lowest vertex rose from %g to %g", i, low, y)
		}
		low = y
	}
	if low >= 0.6 {
		t.Errorf("expected the body to fall, lowest y still %g", low)
	}

	// free fall is a rigid translation
	if b.Energy() > 1e-6 {
		t.Errorf("expected no strain energy before contact, got %g", b.Energy())
	}

	const bar = 0.2
	peak := 0.0
	for frame := 0; frame < 60; frame++ {
		if err := b.Frame(f, p, 200); err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}
		if y := b.LowestY(); y < bar-1e-3 {
			t.Fatalf("frame %d: lowest vertex %g fell through the bar", frame, y)
		}
		peak = math.Max(peak, b.Energy())
	}

	if peak < 1e-3 {
		t.Errorf("expected strain energy after contact, peak %g", peak)
	}
	if !b.Valid() {
		t.Error("expected body to stay valid")
	}
}

func TestSoftBodySetParam(t *testing.T) {
	b := newReferenceBody(t, material.Clamp)

	if err := b.SetParam("young", 8000); err != nil {
		t.Fatalf("set young: %v", err)
	}
	mu, lambda, _ := material.Lame(8000, 0.2)
	if b.Material().Mu != mu || b.Material().Lambda != lambda {
		t.Errorf("expected Lame parameters to follow young: got mu=%g lambda=%g", b.Material().Mu, b.Material().Lambda)
	}
	if b.GetParams()["young"] != 8000 {
		t.Errorf("expected young 8000, got %g", b.GetParams()["young"])
	}

	if err := b.SetParam("poisson", 0.5); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
	if b.GetParams()["poisson"] != 0.2 {
		t.Error("rejected poisson must leave the body unchanged")
	}

	if err := b.SetParam("density", 80); err != nil {
		t.Fatalf("set density: %v", err)
	}
	if math.Abs(b.Mass()-1.25) > 1e-15 {
		t.Errorf("expected mass 1.25, got %g", b.Mass())
	}

	if err := b.SetParam("viscosity", 1); err == nil {
		t.Error("expected error for unknown param")
	}
}

func TestSoftBodyStateAccessorsCopy(t *testing.T) {
	b := newReferenceBody(t, material.Clamp)

	pos := b.Positions()
	pos[0] = r2.Vec{X: 42, Y: 42}
	vel := b.Velocities()
	vel[0] = r2.Vec{X: 1}

	if b.pos[0] == pos[0] {
		t.Error("Positions must not alias the body's arena")
	}
	if b.vel[0] == vel[0] {
		t.Error("Velocities must not alias the body's arena")
	}
}

func TestSoftBodyDeform(t *testing.T) {
	b, err := NewSoftBody("mesh1", DefaultBodyParams())
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Deform(func(p r2.Vec) r2.Vec { return p }); !errors.Is(err, dynamo.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}

	b = newReferenceBody(t, material.Clamp)
	before := b.Positions()
	shift := r2.Vec{X: 0.1}
	if err := b.Deform(func(p r2.Vec) r2.Vec { return r2.Add(p, shift) }); err != nil {
		t.Fatal(err)
	}
	for i, p := range b.Positions() {
		if p != r2.Add(before[i], shift) {
			t.Fatalf("vertex %d: expected %v, got %v", i, r2.Add(before[i], shift), p)
		}
	}
}
