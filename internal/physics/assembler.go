package physics

import (
	"math"

	"github.com/san-kum/softfem/internal/dynamo"
	"github.com/san-kum/softfem/internal/material"
	"github.com/san-kum/softfem/internal/mesh"
	"gonum.org/v1/gonum/spatial/r2"
)

// parallelThreshold is the arena length below which passes run serially.
const parallelThreshold = 512

// Assembler evaluates the total elastic energy U = Σ V_i·phi_i of a mesh and
// the nodal forces -dU/dx. Every call recomputes all derived quantities from
// the given positions.
type Assembler struct {
	Faces     [][3]int
	B         []dynamo.Mat2
	Incidence [][]mesh.Corner
	Material  *material.NeoHookean

	F      []dynamo.Mat2
	V      []float64
	Phi    []float64
	Forces []r2.Vec

	grad [][3]r2.Vec
	errs []error
}

func NewAssembler(faces [][3]int, b []dynamo.Mat2, nv int, mat *material.NeoHookean) *Assembler {
	nf := len(faces)
	return &Assembler{
		Faces:     faces,
		B:         b,
		Incidence: mesh.Incidence(nv, faces),
		Material:  mat,
		F:         make([]dynamo.Mat2, nf),
		V:         make([]float64, nf),
		Phi:       make([]float64, nf),
		Forces:    make([]r2.Vec, nv),
		grad:      make([][3]r2.Vec, nf),
		errs:      make([]error, nf),
	}
}

// Compute fills F, V, Phi and Forces for pos and returns U. On a material
// error it returns the first failing element index with the error.
func (a *Assembler) Compute(pos []r2.Vec) (float64, int, error) {
	dynamo.ParallelFor(len(a.Faces), parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			a.errs[i] = a.element(i, pos)
		}
	})
	for i, err := range a.errs {
		if err != nil {
			return 0, i, err
		}
	}

	dynamo.ParallelFor(len(a.Forces), parallelThreshold, func(start, end int) {
		for v := start; v < end; v++ {
			var g r2.Vec
			for _, c := range a.Incidence[v] {
				g = r2.Add(g, a.grad[c.Face][c.Slot])
			}
			a.Forces[v] = r2.Scale(-1, g)
		}
	})

	u := 0.0
	for i := range a.Faces {
		u += a.V[i] * a.Phi[i]
	}
	return u, -1, nil
}

// element evaluates one triangle and stores dU_i/dx for its three corners.
//
// With D = cols[a-c, b-c], F = D·B and V = |det D|:
//
//	dU_i/dD = V·P·Bᵀ + phi·sign(det D)·cof(D)
//
// whose columns are dU_i/da and dU_i/db; dU_i/dc = -(da + db).
func (a *Assembler) element(i int, pos []r2.Vec) error {
	d := mesh.EdgeMatrix(pos, a.Faces[i])
	f := d.Mul(a.B[i])
	det := d.Det()

	phi, p, err := a.Material.EnergyAndStress(f)
	if err != nil {
		return err
	}

	v := math.Abs(det)
	a.F[i], a.V[i], a.Phi[i] = f, v, phi

	sign := 1.0
	if det < 0 {
		sign = -1
	}
	g := p.Mul(a.B[i].T()).Scale(v).Add(d.Cofactor().Scale(phi * sign))

	ga, gb := g.Col(0), g.Col(1)
	a.grad[i] = [3]r2.Vec{ga, gb, r2.Scale(-1, r2.Add(ga, gb))}
	return nil
}

// Energy returns U for pos without touching the cached per-element state.
func (a *Assembler) Energy(pos []r2.Vec) (float64, error) {
	u := 0.0
	for i, face := range a.Faces {
		d := mesh.EdgeMatrix(pos, face)
		phi, err := a.Material.Energy(d.Mul(a.B[i]))
		if err != nil {
			return 0, err
		}
		u += math.Abs(d.Det()) * phi
	}
	return u, nil
}
