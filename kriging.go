// Package nestedkriging implements the nested Kriging predictor: exact
// per-subgroup Kriging aggregated through the submodels' cross-covariances
// into one posterior mean/variance, at a cost cubic in subgroup size and
// quadratic in subgroup count rather than cubic in the full dataset size.
package nestedkriging

import (
	"fmt"
	"time"

	"github.com/hpwxf/nestedkriging/aggregate"
	"github.com/hpwxf/nestedkriging/alternatives"
	"github.com/hpwxf/nestedkriging/covariance"
	"github.com/hpwxf/nestedkriging/crosscov"
	"github.com/hpwxf/nestedkriging/errs"
	"github.com/hpwxf/nestedkriging/kernel"
	"github.com/hpwxf/nestedkriging/linalg"
	"github.com/hpwxf/nestedkriging/params"
	"github.com/hpwxf/nestedkriging/partition"
	"github.com/hpwxf/nestedkriging/points"
	"github.com/hpwxf/nestedkriging/submodel"
	"github.com/hpwxf/nestedkriging/threadpool"
)

// SourceCode identifies this implementation in a Result, mirroring the
// "algorithm name+version string" output field.
const SourceCode = "nestedkriging-go/1.0"

// Logger receives diagnostic messages; level follows VerboseLevel's scale
// (higher is more chatty). The zero Logger is a no-op, matching the
// teacher's tree, which has no logging framework of its own to carry
// forward — callers that want output wire in their own sink.
type Logger func(level int, format string, args ...any)

// outputLevel flag values. Positive outputLevel is read as a sum of these
// (not a power-of-two bitmask: +10 would otherwise collide with +2's bit),
// matching the literal "+1 ... +2 ... +10" phrasing of the interface.
const (
	outputSubmodels = 1
	outputTensors   = 2
	outputJointCov  = 10
)

// Config mirrors the driver-facing nestedKriging operation's parameter
// list (spec's external interface) one field at a time.
type Config struct {
	X             [][]float64
	Y             []float64
	Clusters      []int
	Xpred         [][]float64
	CovType       string
	Param         []float64
	Sd2           float64
	KrigingType   string // "simple" or "ordinary"; empty means "simple"
	Nugget        []float64
	NumThreadsZones int
	NumThreads      int
	NumThreadsBLAS  int
	VerboseLevel    int
	OutputLevel     int
	// GlobalOptions is accepted and stored for interface parity but has no
	// observable effect on results (spec 9, open question).
	GlobalOptions []int
	Logger        Logger
	// Provider and Pool let a caller override the linear-algebra and
	// thread-pool backends; nil selects the gonum/errgroup defaults.
	Provider linalg.Provider
	Pool     threadpool.Pool
}

// DurationDetails breaks Duration down by phase, named the way the
// external interface names them (partA..partE).
type DurationDetails struct {
	PartA time.Duration // submodel build
	PartB time.Duration // cross-covariance
	PartC time.Duration // aggregation
	PartD time.Duration // joint covariance
	PartE time.Duration // alternatives
}

// AlternativeSeries is one alternatives.Method's per-query outcome.
type AlternativeSeries struct {
	Mean     []float64
	Variance []float64
}

// Result is the named aggregate nestedKriging returns.
type Result struct {
	Mean     []float64 // nil when OutputLevel is -1 (alternatives only)
	Sd2      []float64 // nil when OutputLevel is -1 (alternatives only)
	Cov      [][]float64 // q x q joint posterior covariance, nil unless requested
	CovPrior [][]float64 // q x q prior covariance among prediction points, nil unless requested

	Duration        time.Duration
	DurationDetails DurationDetails
	SourceCode      string

	Weights [][]float64 // q x N, nil unless requested
	MeanM   [][]float64 // q x N, nil unless requested
	Sd2M    [][]float64 // q x N, nil unless requested
	KM      [][][]float64 // q x N x N, nil unless requested
	KSmall  [][]float64   // q x N, nil unless requested

	Alternatives map[string]AlternativeSeries
}

// Run executes the nested Kriging pipeline described in spec.md 4: kernel
// selection, parameter bundle construction, subgroup splitting, per-
// subgroup submodel solves, the cross-covariance tensor, the per-query
// aggregation system and, optionally, the alternatives module.
func Run(c *Config) (*Result, error) {
	start := time.Now()
	log := c.Logger
	if log == nil {
		log = func(int, string, ...any) {}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	lap := c.Provider
	if lap == nil {
		lap = linalg.NewGonumProvider()
	}
	pool := c.Pool
	if pool == nil {
		pool = threadpool.New()
	}

	tag, ok := kernel.ParseTag(c.CovType)
	if !ok {
		tag = kernel.Fallback
		if c.VerboseLevel > 0 {
			log(1, "nestedkriging: unknown covType %q, falling back to %s", c.CovType, tag)
		}
	}

	bundle, err := params.New(len(c.X[0]), tag, c.Param, c.Sd2)
	if err != nil {
		return nil, fmt.Errorf("nestedkriging: building parameter bundle: %w", err)
	}

	groups, err := partition.Split(c.Clusters, c.X, c.Y, bundle, nil)
	if err != nil {
		return nil, fmt.Errorf("nestedkriging: splitting partition: %w", err)
	}

	pred, err := points.New(c.Xpred, bundle, nil)
	if err != nil {
		return nil, fmt.Errorf("nestedkriging: building prediction points: %w", err)
	}
	q := pred.N()
	n := len(groups)
	ordinary := c.KrigingType == "ordinary"

	zones := splitZones(q, c.zones())

	subs := make([]*submodel.Submodel, n)
	tA := time.Now()

	// Factorize each subgroup's O(n_i^3) correlation matrix exactly once,
	// per spec.md 3's "submodels are built once" lifecycle, then Solve it
	// once per zone below: the factor is independent of which prediction
	// points are asked for, so a subgroup touching every zone would
	// otherwise redo its factorization once per zone for nothing.
	factors := make([]*submodel.Factor, n)
	err = pool.ParallelFor(n, c.workers(), func(i int) error {
		f, err := submodel.Factorize(i, groups[i], bundle, c.Nugget, ordinary, lap)
		if err != nil {
			return err
		}
		factors[i] = f
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("nestedkriging: factorizing submodels: %w", err)
	}

	zoneSubs := make([][]*submodel.Submodel, len(zones))
	err = pool.ParallelFor(len(zones), c.zones(), func(zi int) error {
		zone := zones[zi]
		zonePred, err := points.New(sliceRows(c.Xpred, zone.lo, zone.hi), bundle, nil)
		if err != nil {
			return err
		}
		subsZone := make([]*submodel.Submodel, n)
		err = pool.ParallelFor(n, c.workers(), func(i int) error {
			sm, err := submodel.Solve(factors[i], zonePred, bundle, lap, c.VerboseLevel, log)
			if err != nil {
				return err
			}
			subsZone[i] = sm
			return nil
		})
		if err != nil {
			return err
		}
		zoneSubs[zi] = subsZone
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("nestedkriging: solving submodels: %w", err)
	}
	for i := 0; i < n; i++ {
		subs[i] = mergeZoneSubmodels(lap, zoneSubs, zones, i, q)
	}
	durA := time.Since(tA)

	var pairs []crosscov.Pair
	tB := time.Now()
	if n > 1 {
		eng := crosscov.New(bundle.Kernel(), bundle.Variance(), lap, pool)
		pairs, err = eng.Compute(subs, c.workers())
		if err != nil {
			return nil, fmt.Errorf("nestedkriging: computing cross-covariance: %w", err)
		}
	}
	durB := time.Since(tB)

	tC := time.Now()
	aggResults, err := aggregate.Aggregate(subs, pairs, bundle.Variance(), lap, q, c.VerboseLevel, log)
	if err != nil {
		return nil, fmt.Errorf("nestedkriging: aggregating: %w", err)
	}
	durC := time.Since(tC)

	res := &Result{
		Mean:            make([]float64, q),
		Sd2:             make([]float64, q),
		Duration:        0,
		SourceCode:      SourceCode,
		DurationDetails: DurationDetails{PartA: durA, PartB: durB, PartC: durC},
	}
	for j, r := range aggResults {
		res.Mean[j] = r.Mean
		res.Sd2[j] = r.Variance
	}

	if c.OutputLevel > 0 {
		if hasFlag(c.OutputLevel, outputSubmodels) {
			res.Weights = extractWeights(aggResults, n)
			res.MeanM, res.Sd2M = extractSubmodelOutputs(subs, q)
		}
		if hasFlag(c.OutputLevel, outputTensors) {
			res.KM, res.KSmall = extractTensors(subs, pairs, bundle.Variance(), q, n)
		}
		if hasFlag(c.OutputLevel, outputJointCov) {
			tD := time.Now()
			res.Cov = jointCovariance(subs, aggResults, bundle, pred)
			res.CovPrior = priorCovariance(pred, bundle)
			res.DurationDetails.PartD = time.Since(tD)
		}
	}

	if computeAlternatives(c.OutputLevel) {
		tE := time.Now()
		res.Alternatives = runAlternatives(subs, bundle.Variance(), q, n)
		res.DurationDetails.PartE = time.Since(tE)
	}
	if c.OutputLevel == -1 {
		// alternatives only: the nested mean and variance are not exported
		res.Mean, res.Sd2 = nil, nil
	}

	res.Duration = time.Since(start)
	return res, nil
}

func (c *Config) validate() error {
	n := len(c.X)
	if n == 0 {
		return fmt.Errorf("nestedkriging: X must have at least one row: %w", errs.ErrInvalidConfig)
	}
	d := len(c.X[0])
	if len(c.Y) != n {
		return fmt.Errorf("nestedkriging: Y has length %d, want %d: %w", len(c.Y), n, errs.ErrInvalidShape)
	}
	if len(c.Clusters) != n {
		return fmt.Errorf("nestedkriging: clusters has length %d, want %d: %w", len(c.Clusters), n, errs.ErrInvalidShape)
	}
	for i, row := range c.X {
		if len(row) != d {
			return fmt.Errorf("nestedkriging: X row %d has length %d, want %d: %w", i, len(row), d, errs.ErrInvalidShape)
		}
	}
	for i, row := range c.Xpred {
		if len(row) != d {
			return fmt.Errorf("nestedkriging: x row %d has length %d, want %d: %w", i, len(row), d, errs.ErrInvalidShape)
		}
	}
	if c.KrigingType != "" && c.KrigingType != "simple" && c.KrigingType != "ordinary" {
		return fmt.Errorf("nestedkriging: krigingType %q must be \"simple\" or \"ordinary\": %w", c.KrigingType, errs.ErrInvalidConfig)
	}
	for _, v := range c.Nugget {
		if v < 0 {
			return fmt.Errorf("nestedkriging: nugget entries must be non-negative, got %g: %w", v, errs.ErrInvalidConfig)
		}
	}
	return nil
}

func (c *Config) zones() int {
	if c.NumThreadsZones <= 0 {
		return 1
	}
	return c.NumThreadsZones
}

func (c *Config) workers() int {
	if c.NumThreads <= 0 {
		return 1
	}
	return c.NumThreads
}

func hasFlag(level, flag int) bool {
	remaining := level
	for _, f := range []int{outputJointCov, outputTensors, outputSubmodels} {
		if remaining >= f {
			if f == flag {
				return true
			}
			remaining -= f
		}
	}
	return false
}

func computeAlternatives(level int) bool {
	return level < 0
}

type zoneRange struct{ lo, hi int }

func splitZones(q, zones int) []zoneRange {
	if zones <= 1 || q == 0 {
		return []zoneRange{{0, q}}
	}
	if zones > q {
		zones = q
	}
	out := make([]zoneRange, 0, zones)
	base := q / zones
	rem := q % zones
	lo := 0
	for i := 0; i < zones; i++ {
		size := base
		if i < rem {
			size++
		}
		out = append(out, zoneRange{lo, lo + size})
		lo += size
	}
	return out
}

func sliceRows(rows [][]float64, lo, hi int) [][]float64 {
	return rows[lo:hi]
}

// mergeZoneSubmodels stitches one subgroup's per-zone submodel builds back
// into a single submodel spanning all q prediction points: Lambda and
// CrossCorr are reassembled column-block by column-block so every
// downstream consumer can keep indexing by the global query index.
func mergeZoneSubmodels(lap linalg.Provider, zoneSubs [][]*submodel.Submodel, zones []zoneRange, groupIdx, q int) *submodel.Submodel {
	first := zoneSubs[0][groupIdx]
	ni := first.Points.N()

	lambda := lap.NewMatrix(ni, q, nil)
	cross := lap.NewMatrix(ni, q, nil)
	mean := make([]float64, q)
	variance := make([]float64, q)

	for zi, zone := range zones {
		sm := zoneSubs[zi][groupIdx]
		for col := 0; col < zone.hi-zone.lo; col++ {
			dst := zone.lo + col
			for r := 0; r < ni; r++ {
				lambda.Set(r, dst, sm.Lambda.At(r, col))
				cross.Set(r, dst, sm.CrossCorr.At(r, col))
			}
			mean[dst] = sm.Mean[col]
			variance[dst] = sm.Variance[col]
		}
	}

	return &submodel.Submodel{
		Points:    first.Points,
		Lambda:    lambda,
		CrossCorr: cross,
		Mean:      mean,
		Variance:  variance,
		Trend:     first.Trend,
	}
}

func extractWeights(results []aggregate.Result, n int) [][]float64 {
	out := make([][]float64, len(results))
	for j, r := range results {
		row := make([]float64, n)
		copy(row, r.Weights)
		out[j] = row
	}
	return out
}

func extractSubmodelOutputs(subs []*submodel.Submodel, q int) (meanM, sd2M [][]float64) {
	meanM = make([][]float64, q)
	sd2M = make([][]float64, q)
	for j := 0; j < q; j++ {
		meanM[j] = make([]float64, len(subs))
		sd2M[j] = make([]float64, len(subs))
		for i, sm := range subs {
			meanM[j][i] = sm.Mean[j]
			sd2M[j][i] = sm.Variance[j]
		}
	}
	return meanM, sd2M
}

func extractTensors(subs []*submodel.Submodel, pairs []crosscov.Pair, sigma2 float64, q, n int) (km [][][]float64, kSmall [][]float64) {
	pairIndex := make(map[[2]int]*crosscov.Pair, len(pairs))
	for i := range pairs {
		p := &pairs[i]
		pairIndex[[2]int{p.I, p.J}] = p
	}

	km = make([][][]float64, q)
	kSmall = make([][]float64, q)
	for j := 0; j < q; j++ {
		mat := make([][]float64, n)
		for i := range mat {
			mat[i] = make([]float64, n)
		}
		small := make([]float64, n)
		for i, sm := range subs {
			diag := sigma2 - sm.Variance[j]
			mat[i][i] = diag
			small[i] = diag
		}
		for i := 0; i < n; i++ {
			for k := i + 1; k < n; k++ {
				p := pairIndex[[2]int{i, k}]
				mat[i][k] = p.Cov[j]
				mat[k][i] = p.Cov[j]
			}
		}
		km[j] = mat
		kSmall[j] = small
	}
	return km, kSmall
}

func runAlternatives(subs []*submodel.Submodel, sigma2 float64, q, n int) map[string]AlternativeSeries {
	methods := []alternatives.Method{
		alternatives.PoE,
		alternatives.GPoEEqual,
		alternatives.GPoEEntropy,
		alternatives.BCM,
		alternatives.RBCM,
		alternatives.SPV,
	}
	out := make(map[string]AlternativeSeries, len(methods))
	for _, m := range methods {
		out[m.String()] = AlternativeSeries{Mean: make([]float64, q), Variance: make([]float64, q)}
	}

	means := make([]float64, n)
	variances := make([]float64, n)
	for j := 0; j < q; j++ {
		for i, sm := range subs {
			means[i] = sm.Mean[j]
			variances[i] = sm.Variance[j]
		}
		for _, m := range methods {
			r := alternatives.Combine(m, means, variances, sigma2)
			s := out[m.String()]
			s.Mean[j] = r.Mean
			s.Variance[j] = r.Variance
			out[m.String()] = s
		}
	}
	return out
}

// priorCovariance is the marginal (pre-data) covariance among prediction
// points under the fitted kernel, independent of the observed Y.
func priorCovariance(pred *points.Set, bundle *params.Bundle) [][]float64 {
	q := pred.N()
	out := make([][]float64, q)
	for i := range out {
		out[i] = make([]float64, q)
	}
	diff := make([]float64, pred.Dim())
	sigma2 := bundle.Variance()
	for i := 0; i < q; i++ {
		out[i][i] = sigma2
		for j := i + 1; j < q; j++ {
			pred.Diff(i, j, diff)
			v := sigma2 * bundle.Kernel().Correlation(diff)
			out[i][j] = v
			out[j][i] = v
		}
	}
	return out
}

// jointCovariance computes the full posterior covariance between every
// pair of prediction points, generalising the diagonal aggregate.Result
// already holds: with M(q) = sum_i w_i(q) M_i(q),
// Cov(Y(q1)-M(q1), Y(q2)-M(q2)) = sigma^2 k(q1,q2)
// - sum_i w_i(q1) Cov(M_i(q1), Y(q2)) - sum_i w_i(q2) Cov(M_i(q2), Y(q1))
// + sum_i sum_j w_i(q1) w_j(q2) Cov(M_i(q1), M_j(q2)), whose diagonal is
// the aggregated variance. Cov(M_i(qa), Y(qb)) and the i==j predictor
// term both reuse submodel i's own retained Lambda/CrossCorr; the i!=j
// term recomputes the subgroup pair's prior correlation once and reuses
// it across every (q1,q2).
func jointCovariance(subs []*submodel.Submodel, agg []aggregate.Result, bundle *params.Bundle, pred *points.Set) [][]float64 {
	q := pred.N()
	n := len(subs)
	out := make([][]float64, q)
	for i := range out {
		out[i] = make([]float64, q)
	}
	if n == 0 {
		return out
	}
	sigma2 := bundle.Variance()
	k := bundle.Kernel()

	type pairKey struct{ i, j int }
	crossCache := map[pairKey]linalg.Matrix{}
	lap := linalg.NewGonumProvider()
	crossBetween := func(i, j int) linalg.Matrix {
		key := pairKey{i, j}
		if m, ok := crossCache[key]; ok {
			return m
		}
		m := lap.NewMatrix(subs[i].Points.N(), subs[j].Points.N(), nil)
		covariance.FillCrossCorrelations(m, subs[i].Points, subs[j].Points, k)
		crossCache[key] = m
		return m
	}

	diff := make([]float64, pred.Dim())
	for q1 := 0; q1 < q; q1++ {
		for q2 := q1; q2 < q; q2++ {
			pred.Diff(q1, q2, diff)
			total := sigma2 * k.Correlation(diff)
			for i := 0; i < n; i++ {
				var c12, c21 float64
				for r := 0; r < subs[i].Points.N(); r++ {
					c12 += subs[i].Lambda.At(r, q1) * subs[i].CrossCorr.At(r, q2)
					c21 += subs[i].Lambda.At(r, q2) * subs[i].CrossCorr.At(r, q1)
				}
				total -= sigma2 * (agg[q1].Weights[i]*c12 + agg[q2].Weights[i]*c21)
			}
			for i := 0; i < n; i++ {
				wi := agg[q1].Weights[i]
				if wi == 0 {
					continue
				}
				for j := 0; j < n; j++ {
					wj := agg[q2].Weights[j]
					if wj == 0 {
						continue
					}
					var term float64
					if i == j {
						var contraction float64
						ni := subs[i].Points.N()
						for r := 0; r < ni; r++ {
							contraction += subs[i].Lambda.At(r, q1) * subs[i].CrossCorr.At(r, q2)
						}
						term = sigma2 * contraction
					} else {
						m := crossBetween(i, j)
						ni, nj := subs[i].Points.N(), subs[j].Points.N()
						var contraction float64
						for r := 0; r < ni; r++ {
							lir := subs[i].Lambda.At(r, q1)
							if lir == 0 {
								continue
							}
							var rowDot float64
							for t := 0; t < nj; t++ {
								rowDot += m.At(r, t) * subs[j].Lambda.At(t, q2)
							}
							contraction += lir * rowDot
						}
						term = sigma2 * contraction
					}
					total += wi * wj * term
				}
			}
			out[q1][q2] = total
			out[q2][q1] = total
		}
	}
	return out
}
