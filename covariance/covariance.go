// Package covariance fills correlation matrices, cross-correlation
// matrices and diagonals from a kernel and a rescaled point set, handling
// the tiny-nugget numerical conditioning described in spec.md 4.4.
package covariance

import (
	"math"

	"github.com/hpwxf/nestedkriging/kernel"
	"github.com/hpwxf/nestedkriging/linalg"
	"github.com/hpwxf/nestedkriging/points"
)

// MachineEpsilon is the float64 machine epsilon used by the on-diagonal
// regularisation below.
const MachineEpsilon = 2.220446049250313e-16

// OnDiagDelta is delta = 256*epsilon_machine, added to every diagonal
// entry of a correlation matrix to keep degenerate/duplicate-row mixtures
// numerically invertible.
const OnDiagDelta = 256 * MachineEpsilon

// NuggetAt returns the i-th nugget value, broadcasting a shorter vector
// cyclically. A nil or empty nugget contributes zero.
func NuggetAt(nugget []float64, i int) float64 {
	if len(nugget) == 0 {
		return 0
	}
	return nugget[i%len(nugget)]
}

// FillCorrMatrix fills sym (n x n, n = p.N()) with Mij = kernel(Pi,Pj) for
// i != j and Mii = 1 + delta + extraDiag + nugget_i/variance on the
// diagonal. nugget broadcasts cyclically per NuggetAt; pass nil for no
// nugget. extraDiag is the retry-time regularisation bump from Retune;
// pass 0 on the first attempt.
func FillCorrMatrix(sym linalg.Symmetric, p *points.Set, k *kernel.Kernel, nugget []float64, invVariance, extraDiag float64) {
	n := p.N()
	diff := make([]float64, p.Dim())

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if i == j {
				sym.SetSym(i, i, 1+OnDiagDelta+extraDiag+NuggetAt(nugget, i)*invVariance)
				continue
			}
			p.Diff(i, j, diff)
			sym.SetSym(i, j, k.Correlation(diff))
		}
	}
}

// FillCrossCorrelations fills m (|A| x |B|) with Mij = kernel(Ai,Bj). No
// diagonal regularisation is applied: this is used both for design-to-
// prediction cross-correlations and for the cross-subgroup prior
// correlation in the cross-covariance engine.
func FillCrossCorrelations(m linalg.Matrix, a, b *points.Set, k *kernel.Kernel) {
	na, nb := a.N(), b.N()
	diff := make([]float64, a.Dim())

	for i := 0; i < na; i++ {
		for j := 0; j < nb; j++ {
			a.DiffCross(i, b, j, diff)
			m.Set(i, j, k.Correlation(diff))
		}
	}
}

// Retune doubles the on-diagonal regularisation applied by a caller that
// got a non-positive-definite matrix back from FillCorrMatrix; it is a
// pure helper, the actual retry loop lives in submodel/aggregate.
func Retune(prevExtra float64) float64 {
	if prevExtra <= 0 {
		return OnDiagDelta
	}
	return prevExtra * 2
}

// IsNegligible reports whether v is close enough to zero, within floating
// point roundoff, to be clamped rather than treated as a real negative
// variance.
func IsNegligible(v float64) bool {
	return math.Abs(v) < 1e-9
}
