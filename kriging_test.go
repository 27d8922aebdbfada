package nestedkriging

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *Config {
	return &Config{
		X:        [][]float64{{0}, {1}, {2}, {3}},
		Y:        []float64{0, 1, 2, 3},
		Clusters: []int{0, 0, 0, 0},
		Xpred:    [][]float64{{0.5}, {1.5}},
		CovType:  "exp",
		Param:    []float64{1},
		Sd2:      1,
	}
}

func TestRunTrivialIdentitySingleCluster(t *testing.T) {
	c := baseConfig()
	res, err := Run(c)
	require.NoError(t, err)
	require.Len(t, res.Mean, 2)
	assert.Equal(t, SourceCode, res.SourceCode)
	for _, m := range res.Mean {
		assert.False(t, math.IsNaN(m))
	}
}

func TestRunPartitionEquivalenceMatchesSingleCluster(t *testing.T) {
	single := baseConfig()
	singleRes, err := Run(single)
	require.NoError(t, err)

	twoCluster := baseConfig()
	twoCluster.Clusters = []int{0, 0, 1, 1}
	twoRes, err := Run(twoCluster)
	require.NoError(t, err)

	for i := range singleRes.Mean {
		assert.InDelta(t, singleRes.Mean[i], twoRes.Mean[i], 1e-3)
	}
}

func TestRunInterpolatesAtTrainingPoints(t *testing.T) {
	c := baseConfig()
	c.Clusters = []int{0, 0, 1, 1}
	c.Xpred = c.X
	res, err := Run(c)
	require.NoError(t, err)

	for i, y := range c.Y {
		assert.InDelta(t, y, res.Mean[i], 1e-6)
		assert.LessOrEqual(t, res.Sd2[i], 1e-9)
	}
}

func TestRunUnknownKernelFallsBackToExp(t *testing.T) {
	c := baseConfig()
	c.CovType = "bogus"
	fallback, err := Run(c)
	require.NoError(t, err)

	c2 := baseConfig()
	c2.CovType = "exp"
	reference, err := Run(c2)
	require.NoError(t, err)

	assert.Equal(t, reference.Mean, fallback.Mean)
}

func TestRunOrdinaryKrigingTrendReproducesConstantShift(t *testing.T) {
	c := baseConfig()
	c.Clusters = []int{0, 0, 1, 1}
	c.KrigingType = "ordinary"
	base, err := Run(c)
	require.NoError(t, err)

	shifted := baseConfig()
	shifted.Clusters = []int{0, 0, 1, 1}
	shifted.KrigingType = "ordinary"
	shifted.Y = []float64{100, 101, 102, 103}
	shiftedRes, err := Run(shifted)
	require.NoError(t, err)

	for i := range base.Mean {
		assert.InDelta(t, base.Mean[i]+100, shiftedRes.Mean[i], 1e-4)
	}
}

func TestRunAlternativesSmokeTest(t *testing.T) {
	c := baseConfig()
	c.Clusters = []int{0, 0, 1, 1}
	c.OutputLevel = -3
	res, err := Run(c)
	require.NoError(t, err)
	require.NotNil(t, res.Alternatives)

	spv := res.Alternatives["spv"]
	for j := range c.Xpred {
		assert.False(t, math.IsNaN(spv.Mean[j]))
		assert.False(t, math.IsNaN(spv.Variance[j]))
	}
	for name, series := range res.Alternatives {
		for j := range c.Xpred {
			assert.Falsef(t, math.IsNaN(series.Mean[j]), "%s mean is NaN", name)
			assert.Falsef(t, math.IsInf(series.Variance[j], 0), "%s variance is infinite", name)
		}
	}
}

func TestRunExportsSubmodelAndTensorOutputs(t *testing.T) {
	c := baseConfig()
	c.Clusters = []int{0, 0, 1, 1}
	c.OutputLevel = 1 + 2
	res, err := Run(c)
	require.NoError(t, err)

	require.Len(t, res.Weights, 2)
	require.Len(t, res.Weights[0], 2)
	require.Len(t, res.MeanM, 2)
	require.Len(t, res.KM, 2)
	require.Len(t, res.KM[0], 2)
	require.Len(t, res.KSmall, 2)

	for _, row := range res.Weights {
		var sum float64
		for _, w := range row {
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
	}
}

func TestRunJointCovarianceDiagonalMatchesSd2(t *testing.T) {
	c := baseConfig()
	c.Clusters = []int{0, 0, 1, 1}
	c.OutputLevel = 10
	res, err := Run(c)
	require.NoError(t, err)
	require.Len(t, res.Cov, 2)

	for i, sd2 := range res.Sd2 {
		assert.InDelta(t, sd2, res.Cov[i][i], 1e-9)
	}
	assert.InDelta(t, res.Cov[0][1], res.Cov[1][0], 1e-12)
	require.Len(t, res.CovPrior, 2)
	assert.InDelta(t, c.Sd2, res.CovPrior[0][0], 1e-12)
}

func TestRunRejectsShapeMismatches(t *testing.T) {
	c := baseConfig()
	c.Y = []float64{0, 1}
	_, err := Run(c)
	assert.Error(t, err)
}

func TestRunRejectsInvalidKrigingType(t *testing.T) {
	c := baseConfig()
	c.KrigingType = "bogus"
	_, err := Run(c)
	assert.Error(t, err)
}

func TestRunNuggetMonotonicity(t *testing.T) {
	c := baseConfig()
	c.Clusters = []int{0, 0, 1, 1}
	withoutNugget, err := Run(c)
	require.NoError(t, err)

	c.Nugget = []float64{0.5}
	withNugget, err := Run(c)
	require.NoError(t, err)

	for i := range withNugget.Sd2 {
		assert.GreaterOrEqual(t, withNugget.Sd2[i], withoutNugget.Sd2[i]-1e-9)
	}
}

func TestRunZoneSplittingMatchesSingleZone(t *testing.T) {
	c := baseConfig()
	c.Clusters = []int{0, 0, 1, 1}
	c.Xpred = [][]float64{{0.5}, {1.5}, {2.5}, {3.5}, {-0.5}}

	single, err := Run(c)
	require.NoError(t, err)

	zoned := *c
	zoned.NumThreadsZones = 3
	zonedRes, err := Run(&zoned)
	require.NoError(t, err)

	require.Len(t, zonedRes.Mean, len(single.Mean))
	for i := range single.Mean {
		assert.InDelta(t, single.Mean[i], zonedRes.Mean[i], 1e-9)
		assert.InDelta(t, single.Sd2[i], zonedRes.Sd2[i], 1e-9)
	}
}

func TestRunLogsNoVarianceFloorWhenNotTriggered(t *testing.T) {
	c := baseConfig()
	c.Clusters = []int{0, 0, 1, 1}
	c.Xpred = [][]float64{{100}}
	c.VerboseLevel = 2

	var logged []string
	c.Logger = func(level int, format string, args ...any) {
		logged = append(logged, format)
	}
	_, err := Run(c)
	require.NoError(t, err)
	// A far-away prediction point reverts toward the prior, well clear of
	// the variance floor, so nothing about the floor should log; this
	// only confirms the logger plumbing runs without asserting on
	// floating point noise near the clamp boundary.
	for _, msg := range logged {
		assert.NotContains(t, msg, "variance underflow")
	}
}
