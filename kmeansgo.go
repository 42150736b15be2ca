package kmeansgo

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/hupe1980/kmeansgo/dataset"
	"github.com/hupe1980/kmeansgo/distance"
	"github.com/hupe1980/kmeansgo/internal/lloyd"
	"github.com/hupe1980/kmeansgo/internal/pairwise"
	"github.com/hupe1980/kmeansgo/internal/seed"
)

// KMeans is a K-Means clustering model.
//
// The fitted centroid set is the model's learned state; it persists until the
// next Fit overwrites it. A model is safe for concurrent readers
// (Predict/Transform/Score), but Fit is a writer: an internal RWMutex
// serializes it against readers and other fits on the same instance.
type KMeans[T dataset.Float] struct {
	k    int
	opts options[T]
	eng  *pairwise.Engine[T] // squared-L2, assignment path
	proj *pairwise.Engine[T] // true-L2, transform path

	mu        sync.RWMutex
	centroids *dataset.Matrix[T]
}

// FitResult carries the outputs of a fit.
type FitResult[T dataset.Float] struct {
	// Centroids is a copy of the K fitted centroids.
	Centroids *dataset.Matrix[T]

	// Labels holds the nearest-centroid index per training row.
	Labels []int

	// Inertia is the sum of squared distances of every row to its assigned
	// centroid.
	Inertia T

	// Iterations is the number of refinement iterations actually performed.
	Iterations int

	// Converged reports whether the loop stopped on the inertia criterion
	// rather than the iteration budget. Budget exhaustion is not an error.
	Converged bool

	// EmptyClusterEvents counts update steps in which a centroid had no
	// assigned rows and kept its previous position.
	EmptyClusterEvents int
}

// New creates a KMeans model with k clusters.
//
// All configuration is validated here; no dataset or device work starts with
// an invalid configuration. Configuration failures satisfy
// errors.Is(err, ErrInvalidConfig).
func New[T dataset.Float](k int, optFns ...Option[T]) (*KMeans[T], error) {
	opts := applyOptions(optFns)

	if k < 1 {
		return nil, fmt.Errorf("%w: n_clusters must be >= 1, got %d", ErrInvalidConfig, k)
	}
	if opts.maxIter < 1 {
		return nil, fmt.Errorf("%w: max_iter must be >= 1, got %d", ErrInvalidConfig, opts.maxIter)
	}
	if opts.tol < 0 {
		return nil, fmt.Errorf("%w: tol must be >= 0, got %g", ErrInvalidConfig, opts.tol)
	}
	if opts.batchSize < 1 {
		return nil, fmt.Errorf("%w: batch_size must be >= 1, got %d", ErrInvalidConfig, opts.batchSize)
	}
	if opts.oversamplingFactor <= 0 {
		return nil, fmt.Errorf("%w: oversampling_factor must be > 0, got %g", ErrInvalidConfig, opts.oversamplingFactor)
	}
	if opts.metric != distance.MetricSquaredL2 {
		return nil, fmt.Errorf("%w: unsupported metric %v", ErrInvalidConfig, opts.metric)
	}

	switch opts.init {
	case InitScalableKMeansParallel, InitRandom:
	case InitArray:
		if opts.initCentroids == nil {
			return nil, fmt.Errorf("%w: InitArray requires WithInitCentroids", ErrInvalidConfig)
		}
		if opts.initCentroids.Rows() != k {
			return nil, &ErrInitShape{
				WantRows: k, GotRows: opts.initCentroids.Rows(),
				WantCols: opts.initCentroids.Cols(), GotCols: opts.initCentroids.Cols(),
			}
		}
	default:
		return nil, fmt.Errorf("%w: unsupported init %v", ErrInvalidConfig, opts.init)
	}

	eng, err := pairwise.New[T](distance.MetricSquaredL2, opts.batchSize, opts.res)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	proj, err := pairwise.New[T](distance.MetricL2, opts.batchSize, opts.res)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return &KMeans[T]{
		k:    k,
		opts: opts,
		eng:  eng,
		proj: proj,
	}, nil
}

// K returns the configured cluster count.
func (km *KMeans[T]) K() int { return km.k }

// IsFitted reports whether the model holds a fitted centroid set.
func (km *KMeans[T]) IsFitted() bool {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.centroids != nil
}

// Centroids returns a copy of the fitted centroid set, or nil before the
// first successful fit.
func (km *KMeans[T]) Centroids() *dataset.Matrix[T] {
	km.mu.RLock()
	defer km.mu.RUnlock()
	if km.centroids == nil {
		return nil
	}
	return km.centroids.Clone()
}

// Fit discovers K centroids from data and stores them as the model state.
//
// The dataset is only read, never mutated, and is processed in bounded
// batches: peak scratch memory depends on the batch size bound and K, not on
// the number of rows. Results are identical for any batch size given the same
// seed and configuration.
func (km *KMeans[T]) Fit(ctx context.Context, data *dataset.Matrix[T]) (*FitResult[T], error) {
	start := time.Now()

	res, err := km.fit(ctx, data)

	iterations := 0
	inertia := 0.0
	if res != nil {
		iterations = res.Iterations
		inertia = float64(res.Inertia)
	}
	km.opts.metricsCollector.RecordFit(iterations, time.Since(start), err)
	km.opts.logger.LogFit(ctx, data.Rows(), data.Cols(), iterations, inertia, err)

	return res, err
}

func (km *KMeans[T]) fit(ctx context.Context, data *dataset.Matrix[T]) (*FitResult[T], error) {
	if data.Rows() == 0 {
		return nil, ErrEmptyDataset
	}

	km.mu.Lock()
	defer km.mu.Unlock()

	// A fresh deterministic stream per fit call: the same seed and data
	// always produce the same model.
	rng := rand.New(rand.NewSource(km.opts.seed))

	centroids, err := km.initialize(ctx, rng, data)
	if err != nil {
		return nil, translateError(err)
	}

	res, err := lloyd.Refine(ctx, km.eng, data, centroids, nil, lloyd.Config{
		MaxIter:      km.opts.maxIter,
		Tol:          km.opts.tol,
		InertiaCheck: km.opts.inertiaCheck,
		Logger:       km.opts.logger.Logger,
	})
	if err != nil {
		return nil, translateError(err)
	}

	km.centroids = centroids

	return &FitResult[T]{
		Centroids:          centroids.Clone(),
		Labels:             res.Labels,
		Inertia:            res.Inertia,
		Iterations:         res.Iterations,
		Converged:          res.State == lloyd.StateConverged,
		EmptyClusterEvents: res.EmptyClusterEvents,
	}, nil
}

func (km *KMeans[T]) initialize(ctx context.Context, rng *rand.Rand, data *dataset.Matrix[T]) (*dataset.Matrix[T], error) {
	switch km.opts.init {
	case InitArray:
		return seed.Array(km.opts.initCentroids, km.k, data.Cols())
	case InitRandom:
		return seed.Random(rng, data, km.k), nil
	default:
		return seed.Scalable(ctx, km.eng, rng, data, seed.Config{
			K:                  km.k,
			OversamplingFactor: km.opts.oversamplingFactor,
			Rounds:             seed.DefaultRounds,
			ReduceIter:         seed.DefaultReduceIter,
			Res:                km.opts.res,
			Logger:             km.opts.logger.Logger,
		})
	}
}

// Predict assigns every row of data to its nearest fitted centroid and
// returns the labels together with the total inertia. Centroids are not
// mutated.
func (km *KMeans[T]) Predict(ctx context.Context, data *dataset.Matrix[T]) ([]int, T, error) {
	start := time.Now()

	labels, inertia, err := km.predict(ctx, data)

	km.opts.metricsCollector.RecordPredict(time.Since(start), err)
	km.opts.logger.LogPredict(ctx, data.Rows(), float64(inertia), err)

	return labels, inertia, err
}

func (km *KMeans[T]) predict(ctx context.Context, data *dataset.Matrix[T]) ([]int, T, error) {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if km.centroids == nil {
		return nil, 0, ErrNotFitted
	}

	n := data.Rows()
	labels := make([]int, n)
	minDists := make([]T, n)

	if err := km.eng.Assign(ctx, data, km.centroids, labels, minDists); err != nil {
		return nil, 0, translateError(err)
	}

	var inertia T
	for _, d := range minDists {
		inertia += d
	}

	return labels, inertia, nil
}

// Transform projects every row of data into the K-dimensional distance space
// of the fitted centroids: entry (i, k) of the result is the true Euclidean
// distance from row i to centroid k.
func (km *KMeans[T]) Transform(ctx context.Context, data *dataset.Matrix[T]) (*dataset.Matrix[T], error) {
	start := time.Now()

	out, err := km.transform(ctx, data)

	km.opts.metricsCollector.RecordTransform(time.Since(start), err)
	km.opts.logger.LogTransform(ctx, data.Rows(), err)

	return out, err
}

func (km *KMeans[T]) transform(ctx context.Context, data *dataset.Matrix[T]) (*dataset.Matrix[T], error) {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if km.centroids == nil {
		return nil, ErrNotFitted
	}

	out, err := dataset.New[T](data.Rows(), km.k)
	if err != nil {
		return nil, err
	}

	if err := km.proj.Matrix(ctx, data, km.centroids, out.Data()); err != nil {
		return nil, translateError(err)
	}

	return out, nil
}

// FitPredict fits the model and returns the training labels.
func (km *KMeans[T]) FitPredict(ctx context.Context, data *dataset.Matrix[T]) ([]int, error) {
	res, err := km.Fit(ctx, data)
	if err != nil {
		return nil, err
	}
	return res.Labels, nil
}

// FitTransform fits the model and returns the distance-space projection of
// the training data.
func (km *KMeans[T]) FitTransform(ctx context.Context, data *dataset.Matrix[T]) (*dataset.Matrix[T], error) {
	if _, err := km.Fit(ctx, data); err != nil {
		return nil, err
	}
	return km.Transform(ctx, data)
}

// Score returns the negated inertia of data under the fitted centroids.
// Higher is better, consistent with the maximization convention.
func (km *KMeans[T]) Score(ctx context.Context, data *dataset.Matrix[T]) (T, error) {
	_, inertia, err := km.Predict(ctx, data)
	if err != nil {
		return 0, err
	}
	return -inertia, nil
}
