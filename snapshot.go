package kmeansgo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/kmeansgo/blobstore"
	"github.com/hupe1980/kmeansgo/dataset"
	"github.com/hupe1980/kmeansgo/persistence"
	"github.com/hupe1980/kmeansgo/resource"
)

// SaveSnapshot serializes the fitted model to w. The stream carries a
// checksum, so corruption is detected when the snapshot is loaded. Snapshot
// IO honors the model's resource controller throughput limit.
func (km *KMeans[T]) SaveSnapshot(ctx context.Context, w io.Writer) error {
	start := time.Now()
	err := km.saveSnapshot(ctx, w)
	km.opts.metricsCollector.RecordSnapshot(time.Since(start), err)
	km.opts.logger.LogSnapshot(ctx, "save", err)
	return err
}

func (km *KMeans[T]) saveSnapshot(ctx context.Context, w io.Writer) error {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if km.centroids == nil {
		return ErrNotFitted
	}

	if km.opts.res != nil {
		w = resource.NewRateLimitedWriter(ctx, w, km.opts.res)
	}

	meta := persistence.Meta{
		K:         km.k,
		Cols:      km.centroids.Cols(),
		Metric:    km.opts.metric.String(),
		Seed:      km.opts.seed,
		CreatedAt: time.Now().UTC(),
	}

	return persistence.Write(w, meta, km.centroids, persistence.WriteOptions{
		Codec:       km.opts.snapshotCodec,
		Compression: km.opts.snapshotCompress,
	})
}

// SaveSnapshotTo writes the snapshot to a blob store under the given name.
func (km *KMeans[T]) SaveSnapshotTo(ctx context.Context, store blobstore.Store, name string) error {
	var buf bytes.Buffer
	if err := km.SaveSnapshot(ctx, &buf); err != nil {
		return err
	}
	if err := store.Put(ctx, name, buf.Bytes()); err != nil {
		return fmt.Errorf("put snapshot %q: %w", name, err)
	}
	return nil
}

// LoadSnapshot restores a fitted model from r. The restored model predicts
// and transforms exactly like the one that was saved; optFns configure the
// ambient pieces (logging, metrics, resource controller, batch size) that are
// not part of the snapshot.
func LoadSnapshot[T dataset.Float](ctx context.Context, r io.Reader, optFns ...Option[T]) (*KMeans[T], error) {
	start := time.Now()

	km, err := loadSnapshot(ctx, r, optFns)
	if km != nil {
		km.opts.metricsCollector.RecordSnapshot(time.Since(start), err)
		km.opts.logger.LogSnapshot(ctx, "load", err)
	}

	return km, err
}

func loadSnapshot[T dataset.Float](ctx context.Context, r io.Reader, optFns []Option[T]) (*KMeans[T], error) {
	opts := applyOptions(optFns)
	if opts.res != nil {
		r = resource.NewRateLimitedReader(ctx, r, opts.res)
	}

	meta, centroids, err := persistence.Read[T](r)
	if err != nil {
		return nil, err
	}

	km, err := New[T](meta.K, optFns...)
	if err != nil {
		return nil, err
	}
	if got := km.opts.metric.String(); got != meta.Metric {
		return nil, fmt.Errorf("%w: snapshot metric %q, model configured for %q", ErrInvalidConfig, meta.Metric, got)
	}
	km.centroids = centroids

	return km, nil
}

// LoadSnapshotFrom reads a snapshot from a blob store.
func LoadSnapshotFrom[T dataset.Float](ctx context.Context, store blobstore.Store, name string, optFns ...Option[T]) (*KMeans[T], error) {
	rc, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %q: %w", name, err)
	}
	defer rc.Close()

	return LoadSnapshot[T](ctx, rc, optFns...)
}
