// Package params carries the immutable covariance parameter bundle shared
// read-only by every goroutine in the pipeline (dimension, lengthscales,
// variance, kernel choice, and the per-dimension scaling factors derived
// from them).
package params

import (
	"fmt"

	"github.com/hpwxf/nestedkriging/kernel"
)

// tinyVariance is added to the variance before inversion, mirroring the
// teacher's habit of never dividing by a bare user-supplied value.
const tinyVariance = 1e-100

// Bundle is the immutable carrier built once per call to NestedKriging and
// shared read-only across every goroutine. It is never copied or mutated
// after New returns.
type Bundle struct {
	dim          int
	kernel       *kernel.Kernel
	lengthscales []float64 // copy of the caller's vector; length d (2d for powexp)
	variance     float64
	invVariance  float64
	scaling      []float64 // length d; unused (all 1) when the kernel does not rescale
}

// New builds a Bundle from a dimension, a kernel tag, a lengthscale vector
// (length d, or 2d for powexp: lengthscales followed by exponents) and a
// marginal variance. It copies lengthscales so the caller may go on to
// mutate their own slice.
func New(dim int, tag kernel.Tag, lengthscales []float64, variance float64) (*Bundle, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("params: dimension must be positive, got %d", dim)
	}
	if variance <= 0 {
		return nil, fmt.Errorf("params: variance must be positive, got %g", variance)
	}

	var k *kernel.Kernel
	var ls []float64

	if tag == kernel.PowExp {
		if len(lengthscales) != 2*dim {
			return nil, fmt.Errorf("params: powexp requires %d lengthscale/exponent values, got %d", 2*dim, len(lengthscales))
		}
		ls = append([]float64(nil), lengthscales[:dim]...)
		exponents := append([]float64(nil), lengthscales[dim:]...)
		for i, v := range ls {
			if v <= 0 {
				return nil, fmt.Errorf("params: lengthscale[%d] must be positive, got %g", i, v)
			}
		}
		kk, err := kernel.NewPowExp(ls, exponents)
		if err != nil {
			return nil, err
		}
		k = kk
	} else {
		if len(lengthscales) != dim {
			return nil, fmt.Errorf("params: expected %d lengthscale values, got %d", dim, len(lengthscales))
		}
		ls = append([]float64(nil), lengthscales...)
		for i, v := range ls {
			if v <= 0 {
				return nil, fmt.Errorf("params: lengthscale[%d] must be positive, got %g", i, v)
			}
		}
		kk, err := kernel.New(tag)
		if err != nil {
			return nil, err
		}
		k = kk
	}

	scaling := make([]float64, dim)
	c := tag.ScalingConstant()
	for i := range scaling {
		if tag.Rescales() {
			scaling[i] = c / ls[i]
		} else {
			scaling[i] = 1
		}
	}

	return &Bundle{
		dim:          dim,
		kernel:       k,
		lengthscales: ls,
		variance:     variance,
		invVariance:  1 / (variance + tinyVariance),
		scaling:      scaling,
	}, nil
}

// Dim returns the input-space dimension.
func (b *Bundle) Dim() int { return b.dim }

// Kernel returns the bundle's kernel instance.
func (b *Bundle) Kernel() *kernel.Kernel { return b.kernel }

// Variance returns sigma^2.
func (b *Bundle) Variance() float64 { return b.variance }

// InvVariance returns 1/(sigma^2 + epsilon).
func (b *Bundle) InvVariance() float64 { return b.invVariance }

// Lengthscales returns a copy of the per-dimension lengthscales.
func (b *Bundle) Lengthscales() []float64 {
	out := make([]float64, len(b.lengthscales))
	copy(out, b.lengthscales)
	return out
}

// ScalingFactor returns the per-dimension multiplier applied to raw
// coordinates before storage in a rescaled point set: c/lengthscale for
// rescaling kernels, 1 (a no-op) for powexp.
func (b *Bundle) ScalingFactor(dimension int) float64 {
	return b.scaling[dimension]
}
