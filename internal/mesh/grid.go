// Package mesh builds the regular triangulated grid a soft body is made of
// and the per-element reference data derived from its rest configuration.
package mesh

import (
	"fmt"
	"math"

	"github.com/san-kum/softfem/internal/dynamo"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// DegenerateTol is the smallest accepted |sin| of the angle between an
// element's two rest edges, i.e. twice-area over the product of edge lengths.
const DegenerateTol = 1e-12

// Mesh is a triangulated (N+1)x(N+1) vertex grid.
type Mesh struct {
	N     int
	Rest  []r2.Vec
	Faces [][3]int
}

// Corner identifies one vertex slot of one face.
type Corner struct {
	Face int
	Slot int
}

func NumVertices(n int) int { return (n + 1) * (n + 1) }
func NumFaces(n int) int    { return 2 * n * n }

// Grid places vertex (i, j) at (i, j)/n*scale + offset and splits every cell
// into the triangles (a, b, c) and (c, d, a).
func Grid(n int, scale float64, offset r2.Vec) (*Mesh, error) {
	if n < 1 {
		return nil, fmt.Errorf("grid resolution %d: %w", n, dynamo.ErrParameterBounds)
	}
	if !(scale > 0) || math.IsInf(scale, 0) {
		return nil, dynamo.BoundsError("scale", scale)
	}
	if !dynamo.IsFinite(offset) {
		return nil, fmt.Errorf("offset %v: %w", offset, dynamo.ErrParameterBounds)
	}

	m := &Mesh{
		N:     n,
		Rest:  make([]r2.Vec, NumVertices(n)),
		Faces: make([][3]int, NumFaces(n)),
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			k := (i*n + j) * 2
			a := i*(n+1) + j
			b := a + 1
			c := a + n + 2
			d := a + n + 1
			m.Faces[k] = [3]int{a, b, c}
			m.Faces[k+1] = [3]int{c, d, a}
		}
	}

	inv := 1 / float64(n)
	for i := 0; i <= n; i++ {
		for j := 0; j <= n; j++ {
			p := r2.Vec{X: float64(i) * inv, Y: float64(j) * inv}
			m.Rest[i*(n+1)+j] = r2.Add(r2.Scale(scale, p), offset)
		}
	}

	return m, nil
}

// EdgeMatrix returns cols[a-c, b-c] for one face over the given positions.
func EdgeMatrix(pos []r2.Vec, f [3]int) dynamo.Mat2 {
	c := pos[f[2]]
	return dynamo.Cols(r2.Sub(pos[f[0]], c), r2.Sub(pos[f[1]], c))
}

// ReferenceInverses computes B_i = cols[a-c, b-c]⁻¹ for every face.
func ReferenceInverses(rest []r2.Vec, faces [][3]int) ([]dynamo.Mat2, error) {
	out := make([]dynamo.Mat2, len(faces))
	for i, f := range faces {
		e := EdgeMatrix(rest, f)
		det := math.Abs(e.Det())
		if det == 0 || det < DegenerateTol*r2.Norm(e.Col(0))*r2.Norm(e.Col(1)) {
			return nil, fmt.Errorf("face %d (%d,%d,%d) twice-area %g: %w",
				i, f[0], f[1], f[2], det, dynamo.ErrDegenerateGeometry)
		}

		d := mat.NewDense(2, 2, []float64{e.A, e.B, e.C, e.D})
		var inv mat.Dense
		if err := inv.Inverse(d); err != nil {
			return nil, fmt.Errorf("face %d: %v: %w", i, err, dynamo.ErrDegenerateGeometry)
		}
		out[i] = dynamo.Mat2{A: inv.At(0, 0), B: inv.At(0, 1), C: inv.At(1, 0), D: inv.At(1, 1)}
	}
	return out, nil
}

// Incidence lists, for each vertex, the face corners that reference it in
// ascending face order.
func Incidence(nv int, faces [][3]int) [][]Corner {
	out := make([][]Corner, nv)
	for fi, f := range faces {
		for slot, v := range f {
			out[v] = append(out[v], Corner{Face: fi, Slot: slot})
		}
	}
	return out
}
