package kmeansgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordFit is called after each fit operation.
	// iterations is the number of refinement iterations performed,
	// duration the total time taken, err is nil if successful.
	RecordFit(iterations int, duration time.Duration, err error)

	// RecordPredict is called after each predict/score operation.
	RecordPredict(duration time.Duration, err error)

	// RecordTransform is called after each transform operation.
	RecordTransform(duration time.Duration, err error)

	// RecordSnapshot is called after each snapshot save/load.
	RecordSnapshot(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFit(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordPredict(time.Duration, error)   {}
func (NoopMetricsCollector) RecordTransform(time.Duration, error) {}
func (NoopMetricsCollector) RecordSnapshot(time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	FitCount            atomic.Int64
	FitErrors           atomic.Int64
	FitIterations       atomic.Int64
	FitTotalNanos       atomic.Int64
	PredictCount        atomic.Int64
	PredictErrors       atomic.Int64
	PredictTotalNanos   atomic.Int64
	TransformCount      atomic.Int64
	TransformErrors     atomic.Int64
	TransformTotalNanos atomic.Int64
	SnapshotCount       atomic.Int64
	SnapshotErrors      atomic.Int64
}

// RecordFit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFit(iterations int, duration time.Duration, err error) {
	b.FitCount.Add(1)
	b.FitIterations.Add(int64(iterations))
	b.FitTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FitErrors.Add(1)
	}
}

// RecordPredict implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPredict(duration time.Duration, err error) {
	b.PredictCount.Add(1)
	b.PredictTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PredictErrors.Add(1)
	}
}

// RecordTransform implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTransform(duration time.Duration, err error) {
	b.TransformCount.Add(1)
	b.TransformTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.TransformErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(duration time.Duration, err error) {
	b.SnapshotCount.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
	}
}
