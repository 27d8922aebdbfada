// Package submodel builds the per-subgroup Kriging predictor: it
// Cholesky-factorises the subgroup's correlation matrix, computes the
// submodel's mean and variance at every prediction point, and retains the
// auxiliary quantities the cross-covariance engine needs next
// (spec.md 4.6).
package submodel

import (
	"fmt"
	"math"

	"github.com/hpwxf/nestedkriging/covariance"
	"github.com/hpwxf/nestedkriging/errs"
	"github.com/hpwxf/nestedkriging/linalg"
	"github.com/hpwxf/nestedkriging/params"
	"github.com/hpwxf/nestedkriging/partition"
	"github.com/hpwxf/nestedkriging/points"
)

// MaxRetries bounds the on-diagonal nugget doubling retried when a
// subgroup's correlation matrix is not positive definite, per spec.md 7.
const MaxRetries = 10

// Submodel is the Kriging predictor built from one subgroup. Lambda and
// Points are exactly what the cross-covariance engine needs next;
// Mean and Variance are already expressed in the original response units
// (see the "ordinary Kriging trend" decision in DESIGN.md).
type Submodel struct {
	// Points is the subgroup's own (rescaled) design points; the
	// cross-covariance engine needs it to assemble the prior correlation
	// between two subgroups.
	Points *points.Set
	// Lambda is K^-1 * k, an n_i x q matrix: column q is lambda_i(q).
	Lambda linalg.Matrix
	// CrossCorr is k_i, the n_i x q design-to-prediction cross-correlation
	// block Lambda was solved from. The joint-covariance pass needs it to
	// contract the same submodel against two different query points.
	CrossCorr linalg.Matrix
	// Mean holds m_i(1..q).
	Mean []float64
	// Variance holds v_i(1..q), floored at 0.
	Variance []float64
	// Trend is the estimated constant mean beta_i (0 for simple Kriging).
	Trend float64
}

// Factor is the subgroup's correlation matrix factorization and the
// quantities derived from it that depend only on the subgroup's own
// design points and response, never on which prediction points are asked
// for. Factorize does the O(n_i^3) work exactly once per subgroup;
// Solve reuses it for as many prediction-point batches as the caller
// needs (e.g. one per zone under NumThreadsZones), at O(n_i^2 * q) each.
type Factor struct {
	index  int
	points *points.Set
	ni     int
	chol   linalg.Cholesky
	alpha  linalg.Vector
	trend  float64
}

// Factorize Cholesky-factorises one subgroup's correlation matrix (with
// the nugget-doubling retry loop from spec.md 7) and solves for alpha,
// the Kriging weights against the subgroup's own response Y. index is
// only used to annotate a non-positive-definite error with which
// subgroup failed.
func Factorize(index int, sub partition.Subgroup, bundle *params.Bundle, nugget []float64, ordinary bool, lap linalg.Provider) (*Factor, error) {
	ni := sub.Points.N()
	k := bundle.Kernel()

	sym := lap.NewSymmetric(ni, nil)
	chol := lap.NewCholesky()

	extra := 0.0
	ok := false
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		covariance.FillCorrMatrix(sym, sub.Points, k, nugget, bundle.InvVariance(), extra)
		if chol.Factorize(sym) {
			ok = true
			break
		}
		extra = covariance.Retune(extra)
	}
	if !ok {
		return nil, fmt.Errorf("submodel: subgroup %d: %w", index, errs.ErrNotPositiveDefinite)
	}

	yVec := lap.NewVector(ni, append([]float64(nil), sub.Y...))
	alphaRaw, err := chol.SolveVector(yVec)
	if err != nil {
		return nil, fmt.Errorf("submodel: subgroup %d: %w", index, err)
	}

	var trend float64
	alpha := alphaRaw
	if ordinary {
		ones := make([]float64, ni)
		for i := range ones {
			ones[i] = 1
		}
		onesSolved, err := chol.SolveVector(lap.NewVector(ni, ones))
		if err != nil {
			return nil, fmt.Errorf("submodel: subgroup %d: %w", index, err)
		}
		var numer, denom float64
		for i := 0; i < ni; i++ {
			numer += alphaRaw.AtVec(i)
			denom += onesSolved.AtVec(i)
		}
		if math.Abs(denom) > 1e-300 {
			trend = numer / denom
		}
		// alpha = K^-1 (Y - trend*1) = alphaRaw - trend*onesSolved, by linearity.
		combined := lap.NewVector(ni, nil)
		for i := 0; i < ni; i++ {
			combined.SetVec(i, alphaRaw.AtVec(i)-trend*onesSolved.AtVec(i))
		}
		alpha = combined
	}

	return &Factor{
		index:  index,
		points: sub.Points,
		ni:     ni,
		chol:   chol,
		alpha:  alpha,
		trend:  trend,
	}, nil
}

// Solve evaluates an already-factorized subgroup against one batch of
// prediction points, producing mean, variance and the auxiliary Lambda/
// CrossCorr blocks the rest of the pipeline needs. verbose/log follow
// spec.md 7's "numerical underflow in variance is silently clamped to 0
// with a diagnostic at high verbosity" requirement: log is called only
// when the floor actually triggers, and only once verbose is turned up.
// A nil log is treated as a no-op.
func Solve(factor *Factor, pred *points.Set, bundle *params.Bundle, lap linalg.Provider, verbose int, log func(level int, format string, args ...any)) (*Submodel, error) {
	if log == nil {
		log = func(int, string, ...any) {}
	}
	ni := factor.ni
	q := pred.N()
	k := bundle.Kernel()

	kCross := lap.NewMatrix(ni, q, nil)
	covariance.FillCrossCorrelations(kCross, factor.points, pred, k)

	lambda, err := factor.chol.SolveMatrix(kCross)
	if err != nil {
		return nil, fmt.Errorf("submodel: subgroup %d: %w", factor.index, err)
	}

	mean := make([]float64, q)
	variance := make([]float64, q)
	sigma2 := bundle.Variance()
	for j := 0; j < q; j++ {
		var m, klam float64
		for i := 0; i < ni; i++ {
			kij := kCross.At(i, j)
			m += kij * factor.alpha.AtVec(i)
			klam += kij * lambda.At(i, j)
		}
		mean[j] = m + factor.trend
		v := sigma2 * (1 + covariance.OnDiagDelta - klam)
		if v < 0 {
			if verbose > 1 {
				log(2, "submodel: subgroup %d: variance underflow at query %d (raw=%.3g), clamped to 0", factor.index, j, v)
			}
			v = 0
		}
		variance[j] = v
	}

	return &Submodel{
		Points:    factor.points,
		Lambda:    lambda,
		CrossCorr: kCross,
		Mean:      mean,
		Variance:  variance,
		Trend:     factor.trend,
	}, nil
}

// Build factorizes and solves in one call, for callers that only need one
// batch of prediction points (e.g. a single-zone run, or a test). Callers
// that solve the same subgroup against several prediction-point batches
// (nested Kriging's per-zone parallelism) should call Factorize once and
// Solve per batch instead, to avoid redoing the O(n_i^3) factorization.
func Build(index int, sub partition.Subgroup, pred *points.Set, bundle *params.Bundle, nugget []float64, ordinary bool, lap linalg.Provider, verbose int, log func(level int, format string, args ...any)) (*Submodel, error) {
	factor, err := Factorize(index, sub, bundle, nugget, ordinary, lap)
	if err != nil {
		return nil, err
	}
	return Solve(factor, pred, bundle, lap, verbose, log)
}
