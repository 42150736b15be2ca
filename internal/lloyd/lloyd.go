// Package lloyd implements the iterative refinement loop of K-Means
// (Lloyd's algorithm): batched nearest-centroid assignment, mean-based
// centroid updates and inertia-driven convergence control.
//
// The same loop serves the main fit path (unweighted) and the k-means‖
// candidate reduction (weighted).
package lloyd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hupe1980/kmeansgo/dataset"
	"github.com/hupe1980/kmeansgo/internal/mathx"
	"github.com/hupe1980/kmeansgo/internal/pairwise"
)

// State identifies the phase of the refinement loop.
type State int

const (
	StateInitializing State = iota
	StateAssigning
	StateUpdating
	StateConverged
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "Initializing"
	case StateAssigning:
		return "Assigning"
	case StateUpdating:
		return "Updating"
	case StateConverged:
		return "Converged"
	case StateExhausted:
		return "Exhausted"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// Config controls the refinement loop.
type Config struct {
	// MaxIter is the hard cap on assign/update iterations.
	MaxIter int

	// Tol is the convergence threshold on inertia improvement. An iteration
	// whose relative (or, for tiny inertia values, absolute) improvement
	// falls below Tol terminates the loop.
	Tol float64

	// InertiaCheck enables inertia-driven convergence. When false the loop
	// runs until MaxIter.
	InertiaCheck bool

	// Logger receives iteration diagnostics. May be nil.
	Logger *slog.Logger
}

// Result carries the terminal loop state.
type Result[T dataset.Float] struct {
	// Labels holds the nearest-centroid index per row, computed against the
	// final centroid positions.
	Labels []int

	// Inertia is the sum of squared distances of every row to its assigned
	// centroid, against the final centroid positions.
	Inertia T

	// Iterations is the number of assign/update iterations performed.
	Iterations int

	// State is StateConverged or StateExhausted.
	State State

	// EmptyClusterEvents counts update steps in which a centroid had no
	// assigned rows and retained its previous position.
	EmptyClusterEvents int
}

// Refine runs Lloyd iterations over data, mutating centroids in place.
//
// weights may be nil for unweighted refinement; when present, weights[i]
// scales row i in both the inertia accumulation and the centroid means.
//
// Every assignment pass is batched through the distance engine; the engine's
// per-batch barrier guarantees the update step never observes a partial
// assignment. Accumulation happens sequentially in row order, so the outcome
// is independent of the batch size bound.
func Refine[T dataset.Float](ctx context.Context, eng *pairwise.Engine[T], data, centroids *dataset.Matrix[T], weights []T, cfg Config) (*Result[T], error) {
	n := data.Rows()
	d := data.Cols()
	k := centroids.Rows()

	labels := make([]int, n)
	minDists := make([]T, n)
	sums := make([]T, k*d)
	counts := make([]T, k)

	res := &Result[T]{State: StateExhausted}

	var prevInertia T
	for iter := 0; iter < cfg.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Assigning
		if err := eng.Assign(ctx, data, centroids, labels, minDists); err != nil {
			return nil, err
		}
		inertia := accumulateInertia(minDists, weights)

		// Updating
		empty := updateCentroids(centroids, data, labels, weights, sums, counts)
		if empty > 0 {
			res.EmptyClusterEvents += empty
			if cfg.Logger != nil {
				cfg.Logger.DebugContext(ctx, "empty clusters retained previous centroids",
					"iteration", iter,
					"count", empty,
				)
			}
		}

		res.Iterations = iter + 1

		if cfg.InertiaCheck && iter > 0 {
			diff := prevInertia - inertia
			if diff <= T(cfg.Tol)*prevInertia || float64(diff) <= cfg.Tol {
				res.State = StateConverged
				prevInertia = inertia
				break
			}
		}
		prevInertia = inertia
	}

	// Final assignment against the final centroid positions, so the returned
	// labels and inertia match what a subsequent predict would produce.
	if err := eng.Assign(ctx, data, centroids, labels, minDists); err != nil {
		return nil, err
	}

	res.Labels = labels
	res.Inertia = accumulateInertia(minDists, weights)

	return res, nil
}

func accumulateInertia[T dataset.Float](minDists, weights []T) T {
	var inertia T
	if weights == nil {
		for _, d := range minDists {
			inertia += d
		}
		return inertia
	}
	for i, d := range minDists {
		inertia += weights[i] * d
	}
	return inertia
}

// updateCentroids recomputes each centroid as the (weighted) mean of its
// assigned rows. Centroids with no assigned rows keep their previous
// position; the returned count reports how many did.
func updateCentroids[T dataset.Float](centroids, data *dataset.Matrix[T], labels []int, weights, sums, counts []T) int {
	d := data.Cols()
	k := centroids.Rows()

	clear(sums)
	clear(counts)

	for i := 0; i < data.Rows(); i++ {
		c := labels[i]
		if weights == nil {
			mathx.AddInPlace(sums[c*d:(c+1)*d], data.Row(i))
			counts[c]++
		} else {
			mathx.AxpyInPlace(sums[c*d:(c+1)*d], weights[i], data.Row(i))
			counts[c] += weights[i]
		}
	}

	empty := 0
	for j := 0; j < k; j++ {
		if counts[j] == 0 {
			empty++
			continue
		}
		dst := centroids.Row(j)
		copy(dst, sums[j*d:(j+1)*d])
		mathx.ScaleInPlace(dst, 1/counts[j])
	}

	return empty
}
