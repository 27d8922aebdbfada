// Package crosscov computes the prior cross-covariance between every pair
// of subgroup submodels at every prediction point, the tensor the
// aggregator assembles into each prediction point's N x N linear system
// (spec.md 4.7).
package crosscov

import (
	"github.com/hpwxf/nestedkriging/covariance"
	"github.com/hpwxf/nestedkriging/kernel"
	"github.com/hpwxf/nestedkriging/linalg"
	"github.com/hpwxf/nestedkriging/submodel"
	"github.com/hpwxf/nestedkriging/threadpool"
)

// Pair is one unordered subgroup pair (i < j) and its cross-covariance
// column at every prediction point.
type Pair struct {
	I, J int
	// Cov holds, for each prediction point q, Cov(M_I(q), M_J(q)).
	Cov []float64
}

// Engine carries the kernel, variance and backends Compute needs; the
// per-(i,j) prior correlation matrices C(G_i, G_j) are built inside
// Compute, contracted against lambda_i(q) and lambda_j(q), and not kept.
type Engine struct {
	kernel *kernel.Kernel
	sigma2 float64
	lap    linalg.Provider
	pool   threadpool.Pool
}

// New builds a cross-covariance engine for one NestedKriging call.
func New(k *kernel.Kernel, sigma2 float64, lap linalg.Provider, pool threadpool.Pool) *Engine {
	return &Engine{kernel: k, sigma2: sigma2, lap: lap, pool: pool}
}

// Compute returns, for every unordered pair of subgroups, the q-vector of
// prior cross-covariances Cov(M_i(q), M_j(q)) = sigma^2 * lambda_i(q)^T *
// C(G_i, G_j) * lambda_j(q). Pairs are computed in parallel across the
// pool, one goroutine per pair, each with its own scratch cross-
// correlation matrix (spec.md 9: "parallelized across subgroup pairs with
// per-thread reusable scratch").
func (e *Engine) Compute(subs []*submodel.Submodel, workers int) ([]Pair, error) {
	m := len(subs)
	if m < 2 {
		return nil, nil
	}

	var pairs []Pair
	for i := 0; i < m; i++ {
		for j := i + 1; j < m; j++ {
			pairs = append(pairs, Pair{I: i, J: j})
		}
	}

	err := e.pool.ParallelFor(len(pairs), workers, func(idx int) error {
		p := &pairs[idx]
		si, sj := subs[p.I], subs[p.J]

		ni, nj := si.Points.N(), sj.Points.N()
		_, qCols := si.Lambda.Dims()

		c := e.lap.NewMatrix(ni, nj, nil)
		covariance.FillCrossCorrelations(c, si.Points, sj.Points, e.kernel)

		// scratch reused across the qCols prediction points of this pair
		tmp := make([]float64, nj)
		cov := make([]float64, qCols)
		for col := 0; col < qCols; col++ {
			for r := 0; r < nj; r++ {
				tmp[r] = sj.Lambda.At(r, col)
			}
			var acc float64
			for r := 0; r < ni; r++ {
				lir := si.Lambda.At(r, col)
				if lir == 0 {
					continue
				}
				var rowDot float64
				for t := 0; t < nj; t++ {
					rowDot += c.At(r, t) * tmp[t]
				}
				acc += lir * rowDot
			}
			cov[col] = e.sigma2 * acc
		}
		p.Cov = cov
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pairs, nil
}
