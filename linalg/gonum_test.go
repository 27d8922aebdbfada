package linalg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGonumProviderCholeskySolve(t *testing.T) {
	p := NewGonumProvider()

	// A = [[4,2],[2,3]], positive definite
	a := p.NewSymmetric(2, []float64{4, 2, 3})
	chol := p.NewCholesky()
	require.True(t, chol.Factorize(a))

	b := p.NewVector(2, []float64{1, 1})
	x, err := chol.SolveVector(b)
	require.NoError(t, err)

	// A*x should reproduce b
	assert.InDelta(t, 1.0, 4*x.AtVec(0)+2*x.AtVec(1), 1e-9)
	assert.InDelta(t, 1.0, 2*x.AtVec(0)+3*x.AtVec(1), 1e-9)
}

func TestGonumProviderCholeskyRejectsIndefinite(t *testing.T) {
	p := NewGonumProvider()
	a := p.NewSymmetric(2, []float64{1, 2, 1})
	chol := p.NewCholesky()
	assert.False(t, chol.Factorize(a))

	_, err := chol.SolveVector(p.NewVector(2, []float64{1, 1}))
	assert.Error(t, err)
}

func TestGonumProviderMul(t *testing.T) {
	p := NewGonumProvider()
	a := p.NewMatrix(2, 2, []float64{1, 2, 3, 4})
	b := p.NewMatrix(2, 1, []float64{1, 1})
	c := p.Mul(a, b)
	r, col := c.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 1, col)
	assert.InDelta(t, 3.0, c.At(0, 0), 1e-12)
	assert.InDelta(t, 7.0, c.At(1, 0), 1e-12)
}
