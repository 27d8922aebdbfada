package alternatives

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSPVPicksSmallestVariance(t *testing.T) {
	means := []float64{1, 2, 3}
	variances := []float64{0.5, 0.1, 0.9}
	r := Combine(SPV, means, variances, 1.0)
	assert.Equal(t, 2.0, r.Mean)
	assert.Equal(t, 0.1, r.Variance)
}

func TestPoEAgreesWithEqualConfidenceExperts(t *testing.T) {
	means := []float64{4, 4}
	variances := []float64{0.5, 0.5}
	r := Combine(PoE, means, variances, 1.0)
	assert.InDelta(t, 4.0, r.Mean, 1e-12)
	assert.InDelta(t, 0.25, r.Variance, 1e-12)
}

func TestGPoEEqualWeightsReduceToPoEWhenOneSubmodel(t *testing.T) {
	means := []float64{7}
	variances := []float64{2}
	r := Combine(GPoEEqual, means, variances, 1.0)
	assert.Equal(t, 7.0, r.Mean)
	assert.Equal(t, 2.0, r.Variance)
}

func TestBCMCorrectsPrecisionByPrior(t *testing.T) {
	means := []float64{0, 0}
	variances := []float64{1, 1}
	r := Combine(BCM, means, variances, 1.0)
	// prec = 1/1 + 1/1 - (2-1)/1 = 1, var = 1
	assert.InDelta(t, 1.0, r.Variance, 1e-12)
}

func TestEntropyWeightsAreZeroWhenExpertMatchesPrior(t *testing.T) {
	w := entropyWeights([]float64{1.0, 0.01}, 1.0)
	assert.InDelta(t, 0, w[0], 1e-9)
	assert.Greater(t, w[1], 0.0)
}

func TestRBCMHandlesUninformativeExpertsGracefully(t *testing.T) {
	means := []float64{3, 3}
	variances := []float64{1, 1} // both as uncertain as the prior: weights ~ 0
	r := Combine(RBCM, means, variances, 1.0)
	assert.False(t, math.IsNaN(r.Mean))
	assert.InDelta(t, 1.0, r.Variance, 1e-6)
}
