// Package seed produces the initial centroid set for the refinement loop.
//
// Three variants exist: a caller-supplied array, uniform random sampling and
// scalable k-means‖ (the default), an oversampling-based approximation of
// k-means++ that works in a fixed number of batched passes over the dataset
// and therefore scales to data that does not fit in fast memory.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/kmeansgo/dataset"
	"github.com/hupe1980/kmeansgo/internal/lloyd"
	"github.com/hupe1980/kmeansgo/internal/mathx"
	"github.com/hupe1980/kmeansgo/internal/pairwise"
	"github.com/hupe1980/kmeansgo/resource"
)

// ErrCandidateLimit is returned when the k-means‖ candidate buffers cannot be
// reserved at the requested size.
var ErrCandidateLimit = errors.New("seed: candidate buffer reservation denied")

// ErrArrayShape indicates caller-supplied centroids with the wrong shape.
type ErrArrayShape struct {
	WantRows, GotRows int
	WantCols, GotCols int
}

func (e *ErrArrayShape) Error() string {
	return fmt.Sprintf("init centroids have shape %dx%d, want %dx%d", e.GotRows, e.GotCols, e.WantRows, e.WantCols)
}

// Array validates caller-supplied centroids and returns a private copy.
func Array[T dataset.Float](init *dataset.Matrix[T], k, cols int) (*dataset.Matrix[T], error) {
	if init.Rows() != k || init.Cols() != cols {
		return nil, &ErrArrayShape{WantRows: k, GotRows: init.Rows(), WantCols: cols, GotCols: init.Cols()}
	}
	return init.Clone(), nil
}

// Random samples k dataset rows uniformly as centroids. Indices are distinct
// while the dataset has rows to spare; beyond that duplicates are permitted.
func Random[T dataset.Float](rng *rand.Rand, data *dataset.Matrix[T], k int) *dataset.Matrix[T] {
	n := data.Rows()
	d := data.Cols()

	centroids, _ := dataset.New[T](k, d)

	perm := rng.Perm(n)
	for i := 0; i < k; i++ {
		if i < n {
			copy(centroids.Row(i), data.Row(perm[i]))
		} else {
			copy(centroids.Row(i), data.Row(rng.Intn(n)))
		}
	}

	return centroids
}

// Config controls the scalable k-means‖ initializer.
type Config struct {
	// K is the number of centroids to produce.
	K int

	// OversamplingFactor scales the expected number of candidates drawn per
	// round (factor × K).
	OversamplingFactor float64

	// Rounds is the number of sampling rounds. O(log N) rounds suffice in
	// theory; a small fixed constant is used in practice for bounded latency.
	Rounds int

	// ReduceIter bounds the weighted Lloyd iterations that reduce the
	// candidate set to exactly K centroids.
	ReduceIter int

	// Res accounts for the candidate-set buffers. May be nil.
	Res *resource.Controller

	// Logger receives sampling diagnostics. May be nil.
	Logger *slog.Logger
}

// DefaultRounds is the fixed number of k-means‖ sampling rounds.
const DefaultRounds = 8

// DefaultReduceIter bounds the candidate reduction.
const DefaultReduceIter = 20

// Scalable runs k-means‖ over data and returns exactly cfg.K centroids.
//
// Each round computes every row's distance to its nearest current candidate
// (batched through the engine), then draws new candidates with probability
// proportional to that distance. Candidates are weighted by the number of
// rows they are nearest to, and a bounded weighted Lloyd reduction shrinks
// the set to K. Degenerate rounds (zero distance mass or zero draws) are
// skipped; a short candidate set is padded with uniform random rows,
// duplicates permitted once every distinct row is a candidate.
func Scalable[T dataset.Float](ctx context.Context, eng *pairwise.Engine[T], rng *rand.Rand, data *dataset.Matrix[T], cfg Config) (*dataset.Matrix[T], error) {
	n := data.Rows()

	chosen := roaring.New()
	first := rng.Intn(n)
	chosen.Add(uint32(first))
	candIdx := []uint32{uint32(first)}

	release, err := acquireCandidateBuffers[T](cfg.Res, n)
	if err != nil {
		return nil, err
	}
	defer release()

	// minDists[i] tracks row i's squared distance to its nearest candidate,
	// refreshed incrementally as candidates are appended.
	minDists := make([]T, n)
	roundDists := make([]T, n)

	firstMat, err := gather(data, candIdx, cfg.Res)
	if err != nil {
		return nil, err
	}
	if err := eng.Assign(ctx, data, firstMat, nil, minDists); err != nil {
		return nil, err
	}

	l := cfg.OversamplingFactor * float64(cfg.K)
	for round := 0; round < cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var total float64
		for _, dist := range minDists {
			total += float64(dist)
		}
		if total == 0 {
			// Every row coincides with a candidate; nothing left to sample.
			if cfg.Logger != nil {
				cfg.Logger.DebugContext(ctx, "degenerate sampling round skipped", "round", round)
			}
			continue
		}

		var newIdx []uint32
		for i := 0; i < n; i++ {
			if chosen.Contains(uint32(i)) {
				continue
			}
			if rng.Float64() < l*float64(minDists[i])/total {
				newIdx = append(newIdx, uint32(i))
			}
		}
		if len(newIdx) == 0 {
			continue
		}

		newMat, err := gather(data, newIdx, cfg.Res)
		if err != nil {
			return nil, err
		}
		if err := eng.Assign(ctx, data, newMat, nil, roundDists); err != nil {
			return nil, err
		}
		for i := range minDists {
			if roundDists[i] < minDists[i] {
				minDists[i] = roundDists[i]
			}
		}

		chosen.AddMany(newIdx)
		candIdx = append(candIdx, newIdx...)
	}

	// Pad a short candidate set with uniform random rows.
	for len(candIdx) < cfg.K {
		idx := uint32(rng.Intn(n))
		if int(chosen.GetCardinality()) < n {
			if chosen.Contains(idx) {
				continue
			}
			chosen.Add(idx)
		}
		candIdx = append(candIdx, idx)
	}

	candidates, err := gather(data, candIdx, cfg.Res)
	if err != nil {
		return nil, err
	}
	if candidates.Rows() == cfg.K {
		return candidates, nil
	}

	// Weight every candidate by the number of rows it is nearest to, then
	// reduce to exactly K with a bounded weighted Lloyd pass.
	labels := make([]int, n)
	if err := eng.Assign(ctx, data, candidates, labels, nil); err != nil {
		return nil, err
	}
	weights := make([]T, candidates.Rows())
	for _, c := range labels {
		weights[c]++
	}

	centroids := weightedPlusPlus(rng, candidates, weights, cfg.K)
	if _, err := lloyd.Refine(ctx, eng, candidates, centroids, weights, lloyd.Config{
		MaxIter:      cfg.ReduceIter,
		Tol:          0,
		InertiaCheck: true,
		Logger:       cfg.Logger,
	}); err != nil {
		return nil, err
	}

	if cfg.Logger != nil {
		cfg.Logger.DebugContext(ctx, "candidate set reduced",
			"candidates", candidates.Rows(),
			"k", cfg.K,
		)
	}

	return centroids, nil
}

// weightedPlusPlus seeds the candidate reduction: the first centroid is drawn
// proportional to candidate weight, subsequent ones proportional to
// weight × squared distance to the nearest centroid so far.
func weightedPlusPlus[T dataset.Float](rng *rand.Rand, candidates *dataset.Matrix[T], weights []T, k int) *dataset.Matrix[T] {
	m := candidates.Rows()

	centroids, _ := dataset.New[T](k, candidates.Cols())

	var totalW float64
	for _, w := range weights {
		totalW += float64(w)
	}
	copy(centroids.Row(0), candidates.Row(sampleCumulative(rng, weights, nil, totalW)))

	minD := make([]T, m)
	for i := 0; i < m; i++ {
		minD[i] = mathx.SquaredL2(candidates.Row(i), centroids.Row(0))
	}

	for c := 1; c < k; c++ {
		var sum float64
		for i := 0; i < m; i++ {
			sum += float64(weights[i]) * float64(minD[i])
		}

		var idx int
		if sum == 0 {
			idx = rng.Intn(m)
		} else {
			idx = sampleCumulative(rng, weights, minD, sum)
		}
		copy(centroids.Row(c), candidates.Row(idx))

		for i := 0; i < m; i++ {
			if dist := mathx.SquaredL2(candidates.Row(i), centroids.Row(c)); dist < minD[i] {
				minD[i] = dist
			}
		}
	}

	return centroids
}

// sampleCumulative draws an index with probability proportional to
// weights[i] (scale == nil) or weights[i]*scale[i].
func sampleCumulative[T dataset.Float](rng *rand.Rand, weights, scale []T, total float64) int {
	target := rng.Float64() * total
	var cum float64
	for i := range weights {
		if scale == nil {
			cum += float64(weights[i])
		} else {
			cum += float64(weights[i]) * float64(scale[i])
		}
		if cum >= target {
			return i
		}
	}
	return len(weights) - 1
}

// gather copies the given dataset rows into a fresh matrix, accounting the
// allocation against the controller.
func gather[T dataset.Float](data *dataset.Matrix[T], idx []uint32, res *resource.Controller) (*dataset.Matrix[T], error) {
	var zero T
	bytes := int64(len(idx)) * int64(data.Cols()) * int64(unsafe.Sizeof(zero))
	if !res.TryAcquireMemory(bytes) {
		return nil, fmt.Errorf("%w: %d bytes", ErrCandidateLimit, bytes)
	}
	// The copy is handed to the caller; account only for the reservation
	// window of the allocation itself.
	defer res.ReleaseMemory(bytes)

	out, err := dataset.New[T](len(idx), data.Cols())
	if err != nil {
		return nil, err
	}
	for i, ri := range idx {
		copy(out.Row(i), data.Row(int(ri)))
	}
	return out, nil
}

func acquireCandidateBuffers[T dataset.Float](res *resource.Controller, n int) (func(), error) {
	var zero T
	// minDists + roundDists
	bytes := 2 * int64(n) * int64(unsafe.Sizeof(zero))
	if !res.TryAcquireMemory(bytes) {
		return nil, fmt.Errorf("%w: %d bytes", ErrCandidateLimit, bytes)
	}
	return func() { res.ReleaseMemory(bytes) }, nil
}
