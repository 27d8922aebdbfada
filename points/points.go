// Package points holds rescaled point clouds: design or prediction points
// transformed so the active kernel sees unit lengthscales (or, for powexp,
// left untouched since that kernel rescales per dimension internally).
package points

import (
	"fmt"

	"github.com/hpwxf/nestedkriging/params"
)

// Set is a packed, row-major n x d point cloud. Storage is a single flat
// slice rather than a slice of rows, following the teacher's "prefer a
// packed layout" guidance: row access below is a sub-slice, not a copy, so
// passing rows into kernel.Correlation allocates nothing.
type Set struct {
	n, d int
	data []float64
}

// New builds a rescaled point set from a raw n x d matrix (row-major,
// len(raw) == n, len(raw[i]) == d), a parameter bundle and an optional
// origin (nil means the zero vector). Each stored coordinate is
// (raw-origin) * bundle.ScalingFactor(dimension).
func New(raw [][]float64, bundle *params.Bundle, origin []float64) (*Set, error) {
	n := len(raw)
	d := bundle.Dim()
	if origin != nil && len(origin) != d {
		return nil, fmt.Errorf("points: origin has length %d, want %d", len(origin), d)
	}

	data := make([]float64, n*d)
	for i, row := range raw {
		if len(row) != d {
			return nil, fmt.Errorf("points: row %d has length %d, want %d", i, len(row), d)
		}
		for k := 0; k < d; k++ {
			v := row[k]
			if origin != nil {
				v -= origin[k]
			}
			data[i*d+k] = v * bundle.ScalingFactor(k)
		}
	}

	return &Set{n: n, d: d, data: data}, nil
}

// NewFlat is New for callers that already hold a row-major flat slice
// (len(raw) == n*d), e.g. a design matrix read off the wire.
func NewFlat(raw []float64, n, d int, bundle *params.Bundle, origin []float64) (*Set, error) {
	if len(raw) != n*d {
		return nil, fmt.Errorf("points: expected %d values (n=%d, d=%d), got %d", n*d, n, d, len(raw))
	}
	if d != bundle.Dim() {
		return nil, fmt.Errorf("points: dimension %d does not match bundle dimension %d", d, bundle.Dim())
	}
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = raw[i*d : (i+1)*d]
	}
	return New(rows, bundle, origin)
}

// NewEmpty allocates an n x d set with zeroed coordinates, to be filled
// with SetRow.
func NewEmpty(n, d int) *Set {
	return &Set{n: n, d: d, data: make([]float64, n*d)}
}

// N returns the number of points.
func (s *Set) N() int { return s.n }

// Dim returns the point dimension.
func (s *Set) Dim() int { return s.d }

// Row returns point i's coordinates as a sub-slice of the backing array:
// callers must not retain it across a call that mutates the set, and must
// not write through it unless they own the set.
func (s *Set) Row(i int) []float64 {
	return s.data[i*s.d : (i+1)*s.d]
}

// SetRow overwrites point i's coordinates.
func (s *Set) SetRow(i int, row []float64) {
	copy(s.data[i*s.d:(i+1)*s.d], row)
}

// Diff writes Row(i)-Row(j) into dst, which must have length Dim().
func (s *Set) Diff(i, j int, dst []float64) {
	ri, rj := s.Row(i), s.Row(j)
	for k := range dst {
		dst[k] = ri[k] - rj[k]
	}
}

// DiffCross writes s.Row(i) - other.Row(j) into dst, which must have
// length Dim(). s and other must share the same dimension.
func (s *Set) DiffCross(i int, other *Set, j int, dst []float64) {
	ri, rj := s.Row(i), other.Row(j)
	for k := range dst {
		dst[k] = ri[k] - rj[k]
	}
}
