package dynamo

import "gonum.org/v1/gonum/spatial/r2"

// Mat2 is a row-major 2x2 matrix [[A B] [C D]].
type Mat2 struct {
	A, B, C, D float64
}

var Identity2 = Mat2{A: 1, D: 1}

// Cols builds the matrix whose columns are u and v.
func Cols(u, v r2.Vec) Mat2 {
	return Mat2{A: u.X, B: v.X, C: u.Y, D: v.Y}
}

func (m Mat2) Col(j int) r2.Vec {
	if j == 0 {
		return r2.Vec{X: m.A, Y: m.C}
	}
	return r2.Vec{X: m.B, Y: m.D}
}

func (m Mat2) Det() float64 { return m.A*m.D - m.B*m.C }

func (m Mat2) Trace() float64 { return m.A + m.D }

// FrobeniusSq returns tr(mᵀm).
func (m Mat2) FrobeniusSq() float64 {
	return m.A*m.A + m.B*m.B + m.C*m.C + m.D*m.D
}

func (m Mat2) T() Mat2 { return Mat2{A: m.A, B: m.C, C: m.B, D: m.D} }

// Cofactor returns det(m)·m⁻ᵀ, the derivative of det with respect to m.
func (m Mat2) Cofactor() Mat2 { return Mat2{A: m.D, B: -m.C, C: -m.B, D: m.A} }

// Inverse returns m⁻¹ and false when m is singular.
func (m Mat2) Inverse() (Mat2, bool) {
	det := m.Det()
	if det == 0 {
		return Mat2{}, false
	}
	inv := 1 / det
	return Mat2{A: m.D * inv, B: -m.B * inv, C: -m.C * inv, D: m.A * inv}, true
}

func (m Mat2) Mul(n Mat2) Mat2 {
	return Mat2{
		A: m.A*n.A + m.B*n.C,
		B: m.A*n.B + m.B*n.D,
		C: m.C*n.A + m.D*n.C,
		D: m.C*n.B + m.D*n.D,
	}
}

func (m Mat2) MulVec(v r2.Vec) r2.Vec {
	return r2.Vec{X: m.A*v.X + m.B*v.Y, Y: m.C*v.X + m.D*v.Y}
}

func (m Mat2) Add(n Mat2) Mat2 {
	return Mat2{A: m.A + n.A, B: m.B + n.B, C: m.C + n.C, D: m.D + n.D}
}

func (m Mat2) Scale(f float64) Mat2 {
	return Mat2{A: m.A * f, B: m.B * f, C: m.C * f, D: m.D * f}
}

// Equal reports whether every entry of m and n differs by at most tol.
func (m Mat2) Equal(n Mat2, tol float64) bool {
	return abs(m.A-n.A) <= tol && abs(m.B-n.B) <= tol && abs(m.C-n.C) <= tol && abs(m.D-n.D) <= tol
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
