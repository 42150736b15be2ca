package kmeansgo

import (
	"log/slog"

	"github.com/hupe1980/kmeansgo/codec"
	"github.com/hupe1980/kmeansgo/dataset"
	"github.com/hupe1980/kmeansgo/distance"
	"github.com/hupe1980/kmeansgo/persistence"
	"github.com/hupe1980/kmeansgo/resource"
)

// Init selects the centroid initialization strategy. The set is closed and
// chosen once at construction time.
type Init int

const (
	// InitScalableKMeansParallel is k-means‖ (scalable k-means++), the
	// default: oversampled, weighted, multi-round sampling followed by a
	// reduction to exactly K centroids.
	InitScalableKMeansParallel Init = iota
	// InitRandom samples K dataset rows uniformly at random.
	InitRandom
	// InitArray uses centroids supplied via WithInitCentroids.
	InitArray
)

func (i Init) String() string {
	switch i {
	case InitScalableKMeansParallel:
		return "ScalableKMeansParallel"
	case InitRandom:
		return "Random"
	case InitArray:
		return "Array"
	default:
		return "Unknown"
	}
}

type options[T dataset.Float] struct {
	init               Init
	initCentroids      *dataset.Matrix[T]
	maxIter            int
	tol                float64
	seed               int64
	oversamplingFactor float64
	batchSize          int
	inertiaCheck       bool
	metric             distance.Metric
	logger             *Logger
	metricsCollector   MetricsCollector
	res                *resource.Controller
	snapshotCodec      codec.Codec
	snapshotCompress   persistence.Compression
}

// Option configures a KMeans model at construction time.
// All options are validated eagerly by New; computation never starts with an
// invalid configuration.
type Option[T dataset.Float] func(*options[T])

// WithInit selects the initialization strategy.
// InitArray additionally requires WithInitCentroids.
func WithInit[T dataset.Float](init Init) Option[T] {
	return func(o *options[T]) {
		o.init = init
	}
}

// WithInitCentroids supplies the initial centroid set directly and implies
// InitArray. The matrix must have exactly K rows; its feature count must
// match the dataset passed to Fit.
func WithInitCentroids[T dataset.Float](m *dataset.Matrix[T]) Option[T] {
	return func(o *options[T]) {
		o.init = InitArray
		o.initCentroids = m
	}
}

// WithMaxIter sets the hard cap on refinement iterations. Default 300.
func WithMaxIter[T dataset.Float](maxIter int) Option[T] {
	return func(o *options[T]) {
		o.maxIter = maxIter
	}
}

// WithTol sets the convergence threshold on inertia improvement. Default 1e-4.
func WithTol[T dataset.Float](tol float64) Option[T] {
	return func(o *options[T]) {
		o.tol = tol
	}
}

// WithSeed sets the seed for all randomized sampling. Runs with the same
// seed, data and configuration produce identical results. Default 1.
func WithSeed[T dataset.Float](seed int64) Option[T] {
	return func(o *options[T]) {
		o.seed = seed
	}
}

// WithOversamplingFactor controls the k-means‖ candidate growth rate: each
// sampling round draws about factor × K candidates. Default 2.0.
func WithOversamplingFactor[T dataset.Float](factor float64) Option[T] {
	return func(o *options[T]) {
		o.oversamplingFactor = factor
	}
}

// WithBatchSize bounds the rows processed per distance-computation batch.
// Batching caps peak scratch memory at O(batchSize × K) and never changes
// results. Default 32768.
func WithBatchSize[T dataset.Float](batchSize int) Option[T] {
	return func(o *options[T]) {
		o.batchSize = batchSize
	}
}

// WithInertiaCheck toggles inertia-driven convergence. When disabled the
// refinement loop always runs to the iteration budget. Default enabled.
func WithInertiaCheck[T dataset.Float](enabled bool) Option[T] {
	return func(o *options[T]) {
		o.inertiaCheck = enabled
	}
}

// WithMetric selects the distance metric. Only distance.MetricSquaredL2 is
// supported today; the selector exists for future extension.
func WithMetric[T dataset.Float](m distance.Metric) Option[T] {
	return func(o *options[T]) {
		o.metric = m
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger[T dataset.Float](logger *Logger) Option[T] {
	return func(o *options[T]) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel[T dataset.Float](level slog.Level) Option[T] {
	return func(o *options[T]) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector[T dataset.Float](mc MetricsCollector) Option[T] {
	return func(o *options[T]) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithSnapshotCodec selects the codec for snapshot metadata blocks.
// Snapshots are self-describing, so loading never depends on this setting.
// Defaults to codec.Default.
func WithSnapshotCodec[T dataset.Float](c codec.Codec) Option[T] {
	return func(o *options[T]) {
		o.snapshotCodec = c
	}
}

// WithSnapshotCompression selects the compression applied to snapshot
// centroid payloads. Default persistence.CompressionZSTD.
func WithSnapshotCompression[T dataset.Float](c persistence.Compression) Option[T] {
	return func(o *options[T]) {
		o.snapshotCompress = c
	}
}

// WithResourceController attaches a resource controller that accounts for
// (and may deny) scratch and candidate buffer reservations and throttles
// snapshot IO.
func WithResourceController[T dataset.Float](rc *resource.Controller) Option[T] {
	return func(o *options[T]) {
		o.res = rc
	}
}

func applyOptions[T dataset.Float](optFns []Option[T]) options[T] {
	o := options[T]{
		init:               InitScalableKMeansParallel,
		maxIter:            300,
		tol:                1e-4,
		seed:               1,
		oversamplingFactor: 2.0,
		batchSize:          32768,
		inertiaCheck:       true,
		metric:             distance.MetricSquaredL2,
		logger:             NoopLogger(),
		metricsCollector:   NoopMetricsCollector{},
		snapshotCompress:   persistence.CompressionZSTD,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
