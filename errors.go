package hdbscan

import "errors"

// Errors returned by the clustering pipeline. Every error the package returns
// wraps exactly one of these, so callers can branch with errors.Is.
var (
	// ErrInvalidParameter reports an out-of-range configuration value such as
	// MinSamples greater than the number of points.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrEmptyInput reports fewer than two points; a spanning tree is undefined.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidDistance reports a NaN, negative, or infinite distance where a
	// finite one is required.
	ErrInvalidDistance = errors.New("invalid distance")

	// ErrInternalInvariant indicates a bug in the spanning tree or in a
	// collaborator, not a user error.
	ErrInternalInvariant = errors.New("internal invariant violation")
)
