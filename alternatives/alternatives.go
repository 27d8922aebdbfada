// Package alternatives implements the simpler, non-nested aggregation
// schemes from the Gaussian-process literature (PoE, GPoE, BCM, RBCM,
// SPV) as a cross-check against the full nested-Kriging aggregator
// (spec.md 4.9). Every scheme here is an algebraic combination of the
// per-submodel (mean, variance) pairs submodel.Build already produced; none
// of them need the prior cross-covariance tensor crosscov builds.
package alternatives

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Method selects one aggregation scheme.
type Method int

const (
	PoE Method = iota
	GPoEEqual
	GPoEEntropy
	BCM
	RBCM
	SPV
)

// String names the method; it is the key the method's series is stored
// under in the driver's Result.Alternatives map.
func (m Method) String() string {
	switch m {
	case PoE:
		return "poe"
	case GPoEEqual:
		return "gpoe_equal"
	case GPoEEntropy:
		return "gpoe_entropy"
	case BCM:
		return "bcm"
	case RBCM:
		return "rbcm"
	case SPV:
		return "spv"
	default:
		return "unknown"
	}
}

// Result is one prediction point's combined outcome under a Method.
type Result struct {
	Mean     float64
	Variance float64
}

// Combine aggregates N experts' (mean, variance) pairs at one prediction
// point into a single Result. sigma2 is the marginal prior variance, used
// by BCM's and RBCM's precision correction term and as the entropy
// reference for GPoEEntropy/RBCM's weights.
func Combine(method Method, means, variances []float64, sigma2 float64) Result {
	n := len(means)
	if n == 0 {
		return Result{}
	}
	if n == 1 {
		return Result{Mean: means[0], Variance: variances[0]}
	}

	switch method {
	case SPV:
		return spv(means, variances)
	case PoE:
		return poe(means, variances)
	case BCM:
		return bcm(means, variances, sigma2)
	case GPoEEqual:
		weights := make([]float64, n)
		for i := range weights {
			weights[i] = 1.0 / float64(n)
		}
		return gpoe(means, variances, weights)
	case GPoEEntropy:
		// entropy weights renormalised to sum to 1 (left as they are when
		// every expert is as uncertain as the prior and they sum to 0)
		weights := entropyWeights(variances, sigma2)
		var sum float64
		for _, w := range weights {
			sum += w
		}
		if sum > 0 {
			for i := range weights {
				weights[i] /= sum
			}
		}
		return gpoe(means, variances, weights)
	case RBCM:
		return rbcm(means, variances, entropyWeights(variances, sigma2), sigma2)
	default:
		return poe(means, variances)
	}
}

// entropyWeights returns beta_i = priorEntropy - entropy_i, the
// "information gain" weight from Deisenroth & Ng's generalized PoE: a
// submodel that is as uncertain as the prior contributes nothing.
func entropyWeights(variances []float64, sigma2 float64) []float64 {
	prior := distuv.Normal{Mu: 0, Sigma: math.Sqrt(sigma2)}
	priorH := prior.Entropy()

	weights := make([]float64, len(variances))
	for i, v := range variances {
		vi := v
		if vi <= 0 {
			vi = 1e-300
		}
		expert := distuv.Normal{Mu: 0, Sigma: math.Sqrt(vi)}
		weights[i] = priorH - expert.Entropy()
	}
	return weights
}

func poe(means, variances []float64) Result {
	var prec, precMean float64
	for i := range means {
		p := invOrInf(variances[i])
		prec += p
		precMean += p * means[i]
	}
	return finish(prec, precMean)
}

func bcm(means, variances []float64, sigma2 float64) Result {
	n := len(means)
	var prec, precMean float64
	for i := range means {
		p := invOrInf(variances[i])
		prec += p
		precMean += p * means[i]
	}
	prec -= float64(n-1) / sigma2
	return finish(prec, precMean)
}

func gpoe(means, variances, weights []float64) Result {
	var prec, precMean float64
	for i := range means {
		p := invOrInf(variances[i])
		prec += weights[i] * p
		precMean += weights[i] * p * means[i]
	}
	return finish(prec, precMean)
}

func rbcm(means, variances, weights []float64, sigma2 float64) Result {
	var prec, precMean, weightSum float64
	for i := range means {
		p := invOrInf(variances[i])
		prec += weights[i] * p
		precMean += weights[i] * p * means[i]
		weightSum += weights[i]
	}
	prec += (1 - weightSum) / sigma2
	return finish(prec, precMean)
}

func spv(means, variances []float64) Result {
	best := 0
	for i := 1; i < len(variances); i++ {
		if variances[i] < variances[best] {
			best = i
		}
	}
	return Result{Mean: means[best], Variance: variances[best]}
}

func invOrInf(v float64) float64 {
	if v <= 0 {
		return 1e300
	}
	return 1 / v
}

func finish(prec, precMean float64) Result {
	if prec <= 0 {
		return Result{Mean: 0, Variance: math.Inf(1)}
	}
	return Result{Mean: precMean / prec, Variance: 1 / prec}
}
