package crosscov

import (
	"testing"

	"github.com/hpwxf/nestedkriging/kernel"
	"github.com/hpwxf/nestedkriging/linalg"
	"github.com/hpwxf/nestedkriging/params"
	"github.com/hpwxf/nestedkriging/partition"
	"github.com/hpwxf/nestedkriging/points"
	"github.com/hpwxf/nestedkriging/submodel"
	"github.com/hpwxf/nestedkriging/threadpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeMatchesManualContraction(t *testing.T) {
	b, err := params.New(1, kernel.Exp, []float64{1}, 1.0)
	require.NoError(t, err)
	lap := linalg.NewGonumProvider()

	pred, err := points.New([][]float64{{0.5}}, b, nil)
	require.NoError(t, err)

	subsA, err := partition.Split([]int{0, 0}, [][]float64{{0}, {1}}, []float64{1, 2}, b, nil)
	require.NoError(t, err)
	subsB, err := partition.Split([]int{0, 0}, [][]float64{{5}, {6}}, []float64{3, 4}, b, nil)
	require.NoError(t, err)

	smA, err := submodel.Build(0, subsA[0], pred, b, nil, false, lap, 0, nil)
	require.NoError(t, err)
	smB, err := submodel.Build(1, subsB[0], pred, b, nil, false, lap, 0, nil)
	require.NoError(t, err)

	eng := New(b.Kernel(), b.Variance(), lap, threadpool.New())
	pairs, err := eng.Compute([]*submodel.Submodel{smA, smB}, 1)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, 0, pairs[0].I)
	assert.Equal(t, 1, pairs[0].J)
	require.Len(t, pairs[0].Cov, 1)

	// manual contraction: sigma^2 * lambdaA^T * C(GA,GB) * lambdaB
	var want float64
	for r := 0; r < subsA[0].Points.N(); r++ {
		for c := 0; c < subsB[0].Points.N(); c++ {
			diff := make([]float64, 1)
			subsA[0].Points.DiffCross(r, subsB[0].Points, c, diff)
			corr := b.Kernel().Correlation(diff)
			want += smA.Lambda.At(r, 0) * corr * smB.Lambda.At(c, 0)
		}
	}
	want *= b.Variance()

	assert.InDelta(t, want, pairs[0].Cov[0], 1e-9)
}

func TestComputeSkipsSingleSubgroup(t *testing.T) {
	b, err := params.New(1, kernel.Exp, []float64{1}, 1.0)
	require.NoError(t, err)
	lap := linalg.NewGonumProvider()
	pred, err := points.New([][]float64{{0}}, b, nil)
	require.NoError(t, err)
	subs, err := partition.Split([]int{0}, [][]float64{{0}}, []float64{1}, b, nil)
	require.NoError(t, err)
	sm, err := submodel.Build(0, subs[0], pred, b, nil, false, lap, 0, nil)
	require.NoError(t, err)

	eng := New(b.Kernel(), b.Variance(), lap, threadpool.New())
	pairs, err := eng.Compute([]*submodel.Submodel{sm}, 1)
	require.NoError(t, err)
	assert.Nil(t, pairs)
}
