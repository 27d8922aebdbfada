package diagnostics

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// FoldResiduals summarises prediction error collected across repeated
// runs (e.g. leave-one-cluster-out folds): each row of residuals is one
// fold, each column one prediction point. It returns the per-point mean
// residual and the empirical covariance of residuals across folds, which
// should shrink toward zero mean and the predictor's own reported
// variance as the folds agree with the model.
func FoldResiduals(residuals *mat.Dense) (mean []float64, cov *mat.SymDense, err error) {
	rows, _ := residuals.Dims()
	if rows < 2 {
		return nil, nil, fmt.Errorf("diagnostics: need at least 2 folds, got %d", rows)
	}
	// Points along rows, folds along columns, so the empirical covariance
	// below comes out sized by prediction point rather than by fold.
	byPoint := mat.DenseCopyOf(residuals.T())
	mean = pointMeans(byPoint)
	cov, err = foldCovariance(byPoint, mean)
	if err != nil {
		return nil, nil, fmt.Errorf("diagnostics: computing residual covariance: %w", err)
	}
	return mean, cov, nil
}

// pointMeans averages each row of x (one prediction point) across its
// columns (the folds).
func pointMeans(x *mat.Dense) []float64 {
	rows, cols := x.Dims()
	mean := make([]float64, rows)
	for r := 0; r < rows; r++ {
		mean[r] = floats.Sum(x.RawRowView(r)) / float64(cols)
	}
	return mean
}

// foldCovariance computes the empirical covariance between x's rows
// (prediction points), treating each column (fold) as one sample and mean
// as the already-computed per-row mean.
func foldCovariance(x *mat.Dense, mean []float64) (*mat.SymDense, error) {
	rows, cols := x.Dims()
	centered := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			centered.Set(r, c, x.At(r, c)-mean[r])
		}
	}
	raw := new(mat.Dense)
	raw.Mul(centered, centered.T())
	raw.Scale(1/float64(cols-1), raw)
	return symmetrize(raw)
}

// symmetrize converts raw to a SymDense, tolerating the asymmetry that
// floating point round-off introduces into X*X^T.
func symmetrize(raw *mat.Dense) (*mat.SymDense, error) {
	r, c := raw.Dims()
	if r != c {
		return nil, fmt.Errorf("diagnostics: residual covariance must be square, got %dx%d", r, c)
	}
	vals := make([]float64, r*c)
	idx := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if i != j && !floats.EqualWithinAbsOrRel(raw.At(j, i), raw.At(i, j), 1e-6, 1e-2) {
				return nil, fmt.Errorf("diagnostics: residual covariance not symmetric at (%d, %d): %.6g != %.6g", i, j, raw.At(j, i), raw.At(i, j))
			}
			vals[idx] = raw.At(i, j)
			idx++
		}
	}
	return mat.NewSymDense(r, vals), nil
}
