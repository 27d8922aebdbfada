// Package noise provides a reproducible multivariate Gaussian sampler used
// by internal/synth to generate synthetic design-point responses, drawn
// from the exact joint law a kernel and variance define rather than an
// arbitrary one.
package noise

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Gaussian is a seeded multivariate normal sampler.
type Gaussian struct {
	// dist is a multivariate normal distribution
	dist *distmv.Normal
	// mean is Gaussian mean
	mean []float64
	// cov is Gaussian covariance
	cov mat.Symmetric
	// seed is the current source seed; Reset advances it so repeated
	// resets do not replay the same draw.
	seed uint64
}

// NewGaussian creates new Gaussian noise with given mean, covariance and
// seed. It returns error if cov is not positive definite.
func NewGaussian(seed uint64, mean []float64, cov mat.Symmetric) (*Gaussian, error) {
	dist, ok := newGaussianDist(seed, mean, cov)
	if !ok {
		return nil, fmt.Errorf("noise: failed to create Gaussian: covariance is not positive definite")
	}

	return &Gaussian{
		dist: dist,
		mean: mean,
		cov:  cov,
		seed: seed,
	}, nil
}

// Sample generates a sample from Gaussian noise and returns it.
func (g *Gaussian) Sample() mat.Vector {
	r := g.dist.Rand(nil)
	return mat.NewVecDense(len(r), r)
}

// Cov returns covariance matrix of Gaussian noise.
func (g *Gaussian) Cov() mat.Symmetric {
	return g.cov
}

// Mean returns Gaussian mean.
func (g *Gaussian) Mean() []float64 {
	return g.mean
}

// Reset reseeds Gaussian noise so the next Sample call starts a fresh,
// independent stream. It returns error if it fails to reset the noise.
func (g *Gaussian) Reset() error {
	g.seed++
	dist, ok := newGaussianDist(g.seed, g.mean, g.cov)
	if !ok {
		return fmt.Errorf("noise: failed to reset Gaussian: covariance is not positive definite")
	}
	g.dist = dist

	return nil
}

func newGaussianDist(seed uint64, mean []float64, cov mat.Symmetric) (*distmv.Normal, bool) {
	src := rand.New(rand.NewSource(seed))
	return distmv.NewNormal(mean, cov, src)
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nMean=%v\nCov=%v\n}", g.mean, mat.Formatted(g.cov, mat.Prefix("    "), mat.Squeeze()))
}
