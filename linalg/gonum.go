package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// GonumProvider implements Provider on top of gonum.org/v1/gonum/mat, the
// same backend the teacher uses throughout for KF/EKF/UKF covariance math.
type GonumProvider struct{}

// NewGonumProvider returns the default dense linear-algebra facade.
func NewGonumProvider() *GonumProvider { return &GonumProvider{} }

func (GonumProvider) NewMatrix(r, c int, data []float64) Matrix {
	return &gonumMatrix{d: mat.NewDense(r, c, data)}
}

func (GonumProvider) NewSymmetric(n int, data []float64) Symmetric {
	return &gonumSymmetric{d: mat.NewSymDense(n, data)}
}

func (GonumProvider) NewVector(n int, data []float64) Vector {
	return &gonumVector{d: mat.NewVecDense(n, data)}
}

func (GonumProvider) NewCholesky() Cholesky {
	return &gonumCholesky{}
}

func (GonumProvider) Mul(a, b Matrix) Matrix {
	ar, _ := a.Dims()
	_, bc := b.Dims()
	dst := mat.NewDense(ar, bc, nil)
	dst.Mul(a.RawMatrix(), b.RawMatrix())
	return &gonumMatrix{d: dst}
}

type gonumMatrix struct{ d *mat.Dense }

func (m *gonumMatrix) Dims() (int, int)            { return m.d.Dims() }
func (m *gonumMatrix) At(i, j int) float64         { return m.d.At(i, j) }
func (m *gonumMatrix) Set(i, j int, v float64)     { m.d.Set(i, j, v) }
func (m *gonumMatrix) RawMatrix() mat.Matrix       { return m.d }
func (m *gonumMatrix) Dense() *mat.Dense           { return m.d }

type gonumSymmetric struct{ d *mat.SymDense }

func (s *gonumSymmetric) Dim() int                   { return s.d.SymmetricDim() }
func (s *gonumSymmetric) At(i, j int) float64        { return s.d.At(i, j) }
func (s *gonumSymmetric) SetSym(i, j int, v float64) { s.d.SetSym(i, j, v) }
func (s *gonumSymmetric) RawSymmetric() mat.Symmetric { return s.d }
func (s *gonumSymmetric) SymDense() *mat.SymDense    { return s.d }

type gonumVector struct{ d *mat.VecDense }

func (v *gonumVector) Len() int                  { return v.d.Len() }
func (v *gonumVector) AtVec(i int) float64       { return v.d.AtVec(i) }
func (v *gonumVector) SetVec(i int, val float64) { v.d.SetVec(i, val) }
func (v *gonumVector) RawVector() mat.Vector     { return v.d }
func (v *gonumVector) VecDense() *mat.VecDense   { return v.d }

type gonumCholesky struct {
	chol mat.Cholesky
	ok   bool
}

func (c *gonumCholesky) Factorize(a Symmetric) bool {
	c.ok = c.chol.Factorize(a.RawSymmetric())
	return c.ok
}

func (c *gonumCholesky) SolveMatrix(rhs Matrix) (Matrix, error) {
	if !c.ok {
		return nil, fmt.Errorf("linalg: cholesky factor not available")
	}
	dst := &mat.Dense{}
	if err := c.chol.SolveTo(dst, rhs.RawMatrix()); err != nil {
		return nil, fmt.Errorf("linalg: cholesky solve: %w", err)
	}
	return &gonumMatrix{d: dst}, nil
}

func (c *gonumCholesky) SolveVector(rhs Vector) (Vector, error) {
	if !c.ok {
		return nil, fmt.Errorf("linalg: cholesky factor not available")
	}
	dst := &mat.VecDense{}
	if err := c.chol.SolveVecTo(dst, rhs.RawVector()); err != nil {
		return nil, fmt.Errorf("linalg: cholesky solve vec: %w", err)
	}
	return &gonumVector{d: dst}, nil
}
