// Package pairwise implements the batched point/centroid distance engine.
//
// The dataset is processed in sequential row batches bounded by a configured
// maximum, so peak scratch memory is O(batch × centroids) regardless of the
// number of samples. Rows within a batch are the unit of parallel work; the
// per-batch errgroup Wait is the barrier before results are consumed.
package pairwise

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"runtime"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/kmeansgo/dataset"
	"github.com/hupe1980/kmeansgo/distance"
	"github.com/hupe1980/kmeansgo/resource"
)

// ErrScratchLimit is returned when the batch scratch buffer cannot be
// reserved at the requested size. No partial results are produced.
var ErrScratchLimit = errors.New("pairwise: scratch buffer reservation denied")

// ErrDimensionMismatch indicates that data and centroid feature counts differ.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d features, got %d", e.Expected, e.Actual)
}

// Batches yields sequential [start, end) row ranges of at most size rows.
func Batches(n, size int) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for start := 0; start < n; start += size {
			if !yield(start, min(start+size, n)) {
				return
			}
		}
	}
}

// Engine computes pairwise distances between dataset rows and a centroid set.
type Engine[T dataset.Float] struct {
	dist      distance.Func[T]
	batchSize int
	workers   int
	res       *resource.Controller
}

// New creates a distance engine for the given metric and batch size bound.
// The resource controller may be nil, in which case scratch reservations are
// unbounded.
func New[T dataset.Float](m distance.Metric, batchSize int, res *resource.Controller) (*Engine[T], error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("pairwise: batch size must be >= 1, got %d", batchSize)
	}

	fn, err := distance.Provider[T](m)
	if err != nil {
		return nil, err
	}

	workers := runtime.GOMAXPROCS(0)
	if mw := res.MaxWorkers(); mw > 0 && mw < workers {
		workers = mw
	}

	return &Engine[T]{
		dist:      fn,
		batchSize: batchSize,
		workers:   workers,
		res:       res,
	}, nil
}

// BatchSize returns the configured batch size bound.
func (e *Engine[T]) BatchSize() int { return e.batchSize }

// Assign labels every row of data with its nearest centroid.
//
// For row i, labels[i] receives the centroid index and minDists[i] the
// distance to it (in the engine's metric). Either output may be nil if the
// caller does not need it. Equidistant centroids resolve to the lowest index.
func (e *Engine[T]) Assign(ctx context.Context, data, centroids *dataset.Matrix[T], labels []int, minDists []T) error {
	if err := checkShapes(data, centroids); err != nil {
		return err
	}

	n := data.Rows()
	k := centroids.Rows()

	scratch, release, err := e.acquireScratch(min(e.batchSize, n) * k)
	if err != nil {
		return err
	}
	defer release()

	for start, end := range Batches(n, e.batchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}

		block := scratch[:(end-start)*k]
		if err := e.computeBlock(ctx, data, centroids, start, end, block); err != nil {
			return err
		}

		for i := start; i < end; i++ {
			row := block[(i-start)*k : (i-start+1)*k]
			best := 0
			bestDist := row[0]
			for j := 1; j < k; j++ {
				if row[j] < bestDist {
					bestDist = row[j]
					best = j
				}
			}
			if labels != nil {
				labels[i] = best
			}
			if minDists != nil {
				minDists[i] = bestDist
			}
		}
	}

	return nil
}

// Matrix writes the full rows × centroids distance matrix into out, which
// must hold data.Rows() * centroids.Rows() elements. Entry (i, j) is the
// distance from row i to centroid j in the engine's metric.
func (e *Engine[T]) Matrix(ctx context.Context, data, centroids *dataset.Matrix[T], out []T) error {
	if err := checkShapes(data, centroids); err != nil {
		return err
	}

	n := data.Rows()
	k := centroids.Rows()
	if len(out) != n*k {
		return fmt.Errorf("pairwise: output buffer has %d elements, want %d", len(out), n*k)
	}

	for start, end := range Batches(n, e.batchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.computeBlock(ctx, data, centroids, start, end, out[start*k:end*k]); err != nil {
			return err
		}
	}

	return nil
}

// computeBlock fills block with the distances of rows [start, end) against
// every centroid. Workers write disjoint shards, so the result does not
// depend on scheduling; Wait is the per-batch barrier.
func (e *Engine[T]) computeBlock(ctx context.Context, data, centroids *dataset.Matrix[T], start, end int, block []T) error {
	rows := end - start
	k := centroids.Rows()

	workers := min(e.workers, rows)
	if workers <= 1 {
		computeShard(e.dist, data, centroids, start, 0, rows, k, block)
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	shard := (rows + workers - 1) / workers
	for ws, we := range Batches(rows, shard) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// Slots are shared by every engine attached to the controller, so
			// the configured worker limit holds across concurrent models too.
			if err := e.res.AcquireWorker(ctx); err != nil {
				return err
			}
			defer e.res.ReleaseWorker()

			computeShard(e.dist, data, centroids, start, ws, we, k, block)
			return nil
		})
	}

	return g.Wait()
}

func computeShard[T dataset.Float](dist distance.Func[T], data, centroids *dataset.Matrix[T], start, ws, we, k int, block []T) {
	for i := ws; i < we; i++ {
		x := data.Row(start + i)
		out := block[i*k : (i+1)*k]
		for j := 0; j < k; j++ {
			out[j] = dist(x, centroids.Row(j))
		}
	}
}

func (e *Engine[T]) acquireScratch(elems int) ([]T, func(), error) {
	var zero T
	bytes := int64(elems) * int64(unsafe.Sizeof(zero))

	if !e.res.TryAcquireMemory(bytes) {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrScratchLimit, bytes)
	}

	return make([]T, elems), func() { e.res.ReleaseMemory(bytes) }, nil
}

func checkShapes[T dataset.Float](data, centroids *dataset.Matrix[T]) error {
	if data.Cols() != centroids.Cols() {
		return &ErrDimensionMismatch{Expected: centroids.Cols(), Actual: data.Cols()}
	}
	return nil
}
