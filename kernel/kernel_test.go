package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTagFallback(t *testing.T) {
	tag, ok := ParseTag("not-a-kernel")
	assert.False(t, ok)
	assert.Equal(t, Fallback, tag)

	tag, ok = ParseTag("matern5_2")
	assert.True(t, ok)
	assert.Equal(t, Matern5_2, tag)
}

func TestScalingConstants(t *testing.T) {
	assert.Equal(t, 1.0, Exp.ScalingConstant())
	assert.InDelta(t, math.Sqrt2/2, Gauss.ScalingConstant(), 1e-15)
	assert.InDelta(t, math.Sqrt(3), Matern3_2.ScalingConstant(), 1e-15)
	assert.InDelta(t, math.Sqrt(5), Matern5_2.ScalingConstant(), 1e-15)
	assert.Equal(t, 1.0, PowExp.ScalingConstant())
	assert.Equal(t, 1.0, WhiteNoise.ScalingConstant())
}

func TestCorrelationAtZeroDistanceIsOne(t *testing.T) {
	for _, tag := range []Tag{Exp, Gauss, Matern3_2, Matern5_2, WhiteNoise} {
		k, err := New(tag)
		require.NoError(t, err)
		got := k.Correlation([]float64{0, 0, 0})
		assert.InDeltaf(t, 1.0, got, 1e-15, "tag=%v", tag)
	}
}

func TestExpCorrelationMatchesFormula(t *testing.T) {
	k, err := New(Exp)
	require.NoError(t, err)
	diff := []float64{0.5, -0.25}
	got := k.Correlation(diff)
	want := math.Exp(-(0.5 + 0.25))
	assert.InDelta(t, want, got, 1e-15)
}

func TestMatern32MatchesFormula(t *testing.T) {
	k, err := New(Matern3_2)
	require.NoError(t, err)
	diff := []float64{0.4, 0.1}
	got := k.Correlation(diff)
	want := (1 + 0.4) * (1 + 0.1) * math.Exp(-(0.4 + 0.1))
	assert.InDelta(t, want, got, 1e-15)
}

func TestWhiteNoiseIsDegenerate(t *testing.T) {
	k, err := New(WhiteNoise)
	require.NoError(t, err)
	assert.Equal(t, 1.0, k.Correlation([]float64{0, 0}))
	assert.Equal(t, 0.0, k.Correlation([]float64{1e-10, 0}))
}

func TestPowExpMatchesFormulaOnRawCoordinates(t *testing.T) {
	k, err := NewPowExp([]float64{2, 3}, []float64{1.5, 2.0})
	require.NoError(t, err)
	raw := []float64{1.0, -1.5}
	got := k.Correlation(raw)
	want := math.Exp(-(math.Pow(1.0/2, 1.5) + math.Pow(1.5/3, 2.0)))
	assert.InDelta(t, want, got, 1e-15)
}

func TestNewRejectsPowExp(t *testing.T) {
	_, err := New(PowExp)
	assert.Error(t, err)
}

func TestNewPowExpRejectsMismatchedLengths(t *testing.T) {
	_, err := NewPowExp([]float64{1, 2}, []float64{1})
	assert.Error(t, err)
}

func TestRescales(t *testing.T) {
	assert.True(t, Exp.Rescales())
	assert.False(t, PowExp.Rescales())
}
