package diagnostics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/hpwxf/nestedkriging/rand"
)

// SamplePosterior draws n joint sample paths from the predictor's full
// posterior, given the mean and the (optionally joint, "+10" output)
// covariance Run returns. It returns a matrix with one prediction point
// per row and one sample path per column, useful for plotting a handful
// of plausible curves alongside the mean and confidence band.
func SamplePosterior(mean []float64, cov [][]float64, n int) (*mat.Dense, error) {
	q := len(mean)
	if len(cov) != q {
		return nil, fmt.Errorf("diagnostics: mean has %d entries, cov has %d rows", q, len(cov))
	}
	data := make([]float64, q*q)
	for i, row := range cov {
		if len(row) != q {
			return nil, fmt.Errorf("diagnostics: cov row %d has %d entries, want %d", i, len(row), q)
		}
		for j, v := range row {
			data[i*q+j] = v
		}
	}
	sym, err := toSymDense(q, data)
	if err != nil {
		return nil, err
	}

	draws, err := rand.WithCovN(sym, n)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: sampling posterior: %w", err)
	}
	for i := 0; i < q; i++ {
		for j := 0; j < n; j++ {
			draws.Set(i, j, draws.At(i, j)+mean[i])
		}
	}
	return draws, nil
}

// toSymDense builds a mat.SymDense from a flat row-major buffer, asserting
// it is symmetric to within the covariance matrix's expected floating
// point tolerance.
func toSymDense(n int, data []float64) (*mat.SymDense, error) {
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if diff := data[i*n+j] - data[j*n+i]; diff > 1e-6 || diff < -1e-6 {
				return nil, fmt.Errorf("diagnostics: cov is not symmetric at (%d,%d)", i, j)
			}
		}
	}
	return mat.NewSymDense(n, data), nil
}
