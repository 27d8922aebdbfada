// Package aggregate solves, for every prediction point, the N x N linear
// system that combines the N submodels' individually exact but mutually
// correlated predictions into one aggregated mean and variance
// (spec.md 4.8).
package aggregate

import (
	"fmt"

	gomatrix "github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/mat"

	"github.com/hpwxf/nestedkriging/covariance"
	"github.com/hpwxf/nestedkriging/crosscov"
	"github.com/hpwxf/nestedkriging/errs"
	"github.com/hpwxf/nestedkriging/linalg"
	"github.com/hpwxf/nestedkriging/submodel"
)

// MaxRetries bounds the on-diagonal nugget doubling retried when a
// prediction point's aggregation system is not positive definite, per
// spec.md 7 (the same scheme submodel.Build uses for the first layer).
const MaxRetries = 10

// Result is one prediction point's aggregated outcome.
type Result struct {
	Mean     float64
	Variance float64
	// Weights holds w(q), the solution of K_M(q)*w(q) = k_M(q); exposed so
	// a caller can export K_M/k_M/weights for diagnostics.
	Weights []float64
}

// Aggregate combines N submodels' predictions at every prediction point q
// into a Result, given the pairwise prior cross-covariances crosscov.Compute
// produced. sigma2 is the marginal variance shared by every submodel
// (spec.md kernels are all stationary with a single marginal variance).
// verbose/log follow spec.md 7's "numerical underflow in variance is
// silently clamped to 0 with a diagnostic at high verbosity" requirement:
// log is called only when the floor actually triggers, and only once
// verbose is turned up. A nil log is treated as a no-op.
func Aggregate(subs []*submodel.Submodel, pairs []crosscov.Pair, sigma2 float64, lap linalg.Provider, numPoints int, verbose int, log func(level int, format string, args ...any)) ([]Result, error) {
	if log == nil {
		log = func(int, string, ...any) {}
	}
	n := len(subs)
	results := make([]Result, numPoints)

	if n == 1 {
		for q := 0; q < numPoints; q++ {
			results[q] = Result{Mean: subs[0].Mean[q], Variance: subs[0].Variance[q], Weights: []float64{1}}
		}
		return results, nil
	}

	pairIndex := make(map[[2]int]*crosscov.Pair, len(pairs))
	for i := range pairs {
		p := &pairs[i]
		pairIndex[[2]int{p.I, p.J}] = p
	}

	for q := 0; q < numPoints; q++ {
		blocks := make([]mat.Symmetric, n)
		kM := make([]float64, n)
		for i, sm := range subs {
			diagVal := sigma2 - sm.Variance[q]
			blocks[i] = mat.NewSymDense(1, []float64{diagVal})
			kM[i] = diagVal
		}
		// BlockSymDiag seeds the diagonal blocks; the off-diagonal prior
		// cross-covariances from the pair engine are filled in afterwards.
		kMat := gomatrix.BlockSymDiag(blocks)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				p := pairIndex[[2]int{i, j}]
				kMat.SetSym(i, j, p.Cov[q])
			}
		}

		sym := lap.NewSymmetric(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				sym.SetSym(i, j, kMat.At(i, j))
			}
		}

		chol := lap.NewCholesky()
		extra := 0.0
		ok := false
		var attemptSym linalg.Symmetric
		for attempt := 0; attempt <= MaxRetries; attempt++ {
			attemptSym = sym
			if extra > 0 {
				attemptSym = lap.NewSymmetric(n, nil)
				for i := 0; i < n; i++ {
					for j := i; j < n; j++ {
						v := sym.At(i, j)
						if i == j {
							v += extra
						}
						attemptSym.SetSym(i, j, v)
					}
				}
			}
			if chol.Factorize(attemptSym) {
				ok = true
				break
			}
			extra = covariance.Retune(extra)
		}
		if !ok {
			return nil, fmt.Errorf("aggregate: prediction point %d: %w", q, errs.ErrNotPositiveDefinite)
		}

		w, err := chol.SolveVector(lap.NewVector(n, append([]float64(nil), kM...)))
		if err != nil {
			return nil, fmt.Errorf("aggregate: prediction point %d: %w", q, err)
		}

		// The submodel means are combined about the average submodel Trend,
		// so a constant shift of every Trend shifts the aggregated mean by
		// that same constant whatever the weights sum to. Under simple
		// Kriging every Trend is 0 and this is the plain weighted sum.
		var trendMean float64
		for _, sm := range subs {
			trendMean += sm.Trend / float64(n)
		}
		mean := trendMean
		var wk float64
		weights := make([]float64, n)
		for i := 0; i < n; i++ {
			wi := w.AtVec(i)
			weights[i] = wi
			mean += wi * (subs[i].Mean[q] - trendMean)
			wk += wi * kM[i]
		}
		variance := sigma2 - wk
		if variance < 0 {
			if verbose > 1 {
				log(2, "aggregate: prediction point %d: variance underflow (raw=%.3g), clamped to 0", q, variance)
			}
			variance = 0
		}

		results[q] = Result{Mean: mean, Variance: variance, Weights: weights}
	}

	return results, nil
}
