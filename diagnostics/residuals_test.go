package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestFoldResidualsSummarisesAcrossFolds(t *testing.T) {
	// 3 folds, 2 prediction points; point 0 has larger spread than point 1.
	data := []float64{
		1.0, 0.1,
		-1.0, -0.1,
		0.5, 0.05,
	}
	residuals := mat.NewDense(3, 2, data)

	mean, cov, err := FoldResiduals(residuals)
	require.NoError(t, err)
	require.Len(t, mean, 2)

	assert.InDelta(t, (1.0-1.0+0.5)/3, mean[0], 1e-9)
	assert.InDelta(t, (0.1-0.1+0.05)/3, mean[1], 1e-9)

	rows, cols := cov.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Greater(t, cov.At(0, 0), cov.At(1, 1))
}

func TestFoldResidualsRejectsTooFewFolds(t *testing.T) {
	_, _, err := FoldResiduals(mat.NewDense(1, 2, []float64{1, 2}))
	assert.Error(t, err)
}
