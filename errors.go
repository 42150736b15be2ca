package kmeansgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/kmeansgo/internal/pairwise"
	"github.com/hupe1980/kmeansgo/internal/seed"
)

var (
	// ErrInvalidConfig is the class sentinel for configuration errors. All
	// parameter validation failures wrap it, so callers can match the class
	// with errors.Is and the specific failure with errors.As.
	ErrInvalidConfig = errors.New("kmeans: invalid configuration")

	// ErrResourceLimit is the class sentinel for denied scratch or
	// candidate buffer reservations. No partial results accompany it.
	ErrResourceLimit = errors.New("kmeans: resource limit exceeded")

	// ErrNotFitted is returned by predict/transform/score before a
	// successful fit.
	ErrNotFitted = errors.New("kmeans: model is not fitted")

	// ErrEmptyDataset is returned when a dataset has no rows.
	ErrEmptyDataset = errors.New("kmeans: dataset has no rows")
)

// ErrDimensionMismatch indicates that a dataset's feature count differs from
// the fitted centroid set's feature count.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("kmeans: dimension mismatch: expected %d features, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInitShape indicates caller-supplied initial centroids with the wrong
// shape. It is a configuration error: errors.Is(err, ErrInvalidConfig).
type ErrInitShape struct {
	WantRows, GotRows int
	WantCols, GotCols int
	cause             error
}

func (e *ErrInitShape) Error() string {
	return fmt.Sprintf("kmeans: init centroids have shape %dx%d, want %dx%d", e.GotRows, e.GotCols, e.WantRows, e.WantCols)
}

func (e *ErrInitShape) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrInvalidConfig, e.cause}
	}
	return []error{ErrInvalidConfig}
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *pairwise.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	var as *seed.ErrArrayShape
	if errors.As(err, &as) {
		return &ErrInitShape{
			WantRows: as.WantRows, GotRows: as.GotRows,
			WantCols: as.WantCols, GotCols: as.GotCols,
			cause: err,
		}
	}

	if errors.Is(err, pairwise.ErrScratchLimit) || errors.Is(err, seed.ErrCandidateLimit) {
		return fmt.Errorf("%w: %w", ErrResourceLimit, err)
	}

	return err
}
