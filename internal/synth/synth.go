// Package synth generates synthetic Gaussian-process draws for
// property-style tests and the cmd/nestedkriging demo: random
// design/prediction points and a response
// sampled from the exact joint Gaussian law the kernel defines, so a test
// can compare the nested predictor against ground truth instead of just
// smoke-testing for NaNs.
package synth

import (
	"errors"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/hpwxf/nestedkriging/kernel"
	"github.com/hpwxf/nestedkriging/noise"
)

// ErrNotPositiveDefinite is returned when the requested points and kernel
// produce a covariance matrix distmv rejects.
var ErrNotPositiveDefinite = errors.New("synth: covariance matrix is not positive definite")

// Points draws n uniform points in [0,1]^d using the given seed, following
// the teacher's noise package convention of seeding
// golang.org/x/exp/rand explicitly rather than using the global source.
func Points(seed uint64, n, d int) [][]float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([][]float64, n)
	for i := range out {
		row := make([]float64, d)
		for k := range row {
			row[k] = r.Float64()
		}
		out[i] = row
	}
	return out
}

// GP draws a response vector jointly Gaussian under the given kernel and
// marginal variance at the supplied points, via the noise package's
// seeded Gaussian sampler.
func GP(seed uint64, x [][]float64, k *kernel.Kernel, sigma2 float64) ([]float64, error) {
	n := len(x)
	d := len(x[0])
	sigma := mat.NewSymDense(n, nil)
	diff := make([]float64, d)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if i == j {
				sigma.SetSym(i, i, sigma2)
				continue
			}
			for t := 0; t < d; t++ {
				diff[t] = x[i][t] - x[j][t]
			}
			sigma.SetSym(i, j, sigma2*k.Correlation(diff))
		}
	}

	g, err := noise.NewGaussian(seed, make([]float64, n), sigma)
	if err != nil {
		return nil, ErrNotPositiveDefinite
	}
	sample := g.Sample()
	out := make([]float64, n)
	for i := range out {
		out[i] = sample.AtVec(i)
	}
	return out, nil
}
