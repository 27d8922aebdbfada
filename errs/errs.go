// Package errs holds the sentinel errors shared across the pipeline
// packages. It exists on its own, rather than alongside the driver in
// kriging.go, so that submodel, crosscov and aggregate can wrap these
// errors without importing the root package and creating a cycle.
package errs

import "errors"

// ErrNotPositiveDefinite is returned when a subgroup's or a prediction
// point's correlation matrix stays non-positive-definite after the
// maximum number of nugget-doubling retries (spec.md 7).
var ErrNotPositiveDefinite = errors.New("nestedkriging: correlation matrix is not positive definite after retries")

// ErrSingularSystem names a linear system that cannot be solved. The
// linalg solves report their own wrapped errors and do not return it.
var ErrSingularSystem = errors.New("nestedkriging: linear system is singular")

// ErrInvalidShape is returned when a caller-supplied matrix or vector does
// not have the shape an operation requires.
var ErrInvalidShape = errors.New("nestedkriging: invalid shape")

// ErrInvalidConfig is returned when a Config fails validation before the
// pipeline runs.
var ErrInvalidConfig = errors.New("nestedkriging: invalid configuration")
