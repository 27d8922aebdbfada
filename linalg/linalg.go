// Package linalg is the dense linear-algebra facade the core depends on.
//
// Every correlation matrix, cross-correlation matrix, Cholesky factor and
// triangular solve used by covariance, submodel, crosscov and aggregate
// goes through the interfaces declared here. The one direct use of
// gonum/mat outside this package is aggregate seeding K_M(q) with
// matrix.BlockSymDiag before copying it into a Symmetric. That keeps the
// numerical backend swappable, the way the teacher's matrix package wraps
// gonum/mat with a handful of helpers rather than depending on it ad hoc
// throughout the tree.
package linalg

import "gonum.org/v1/gonum/mat"

// Matrix is a read/write dense matrix.
type Matrix interface {
	Dims() (r, c int)
	At(i, j int) float64
	Set(i, j int, v float64)
	RawMatrix() mat.Matrix
}

// Symmetric is a read/write symmetric matrix, stored once per cell.
type Symmetric interface {
	Dim() int
	At(i, j int) float64
	SetSym(i, j int, v float64)
	RawSymmetric() mat.Symmetric
}

// Vector is a read/write dense column vector.
type Vector interface {
	Len() int
	AtVec(i int) float64
	SetVec(i int, v float64)
	RawVector() mat.Vector
}

// Cholesky is the lower-triangular factorization of a Symmetric matrix and
// the two solves the core needs from it: against a matrix of right-hand
// sides (used for the nx x q cross-correlation block) and against a single
// vector (used for the response vector).
type Cholesky interface {
	// Factorize attempts a factorization of a, stored in the receiver (a
	// itself is left unchanged). It returns false if a is not positive
	// definite.
	Factorize(a Symmetric) bool
	// SolveMatrix solves A*X = B for X, where B has the shape of rhs.
	SolveMatrix(rhs Matrix) (Matrix, error)
	// SolveVector solves A*x = b for x.
	SolveVector(rhs Vector) (Vector, error)
}

// Provider builds the facade's concrete types. The core only ever asks the
// Provider for storage, never constructs gonum types itself.
type Provider interface {
	NewMatrix(r, c int, data []float64) Matrix
	NewSymmetric(n int, data []float64) Symmetric
	NewVector(n int, data []float64) Vector
	NewCholesky() Cholesky
	// Mul returns a newly allocated matrix holding a*b.
	Mul(a, b Matrix) Matrix
}
