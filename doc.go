// Package kmeansgo provides a batched K-Means clustering engine for Go.
//
// Kmeansgo fits K cluster centroids to dense row-major datasets, assigns rows
// to their nearest centroid and projects rows into centroid-distance space.
// Datasets are processed in bounded batches, so peak scratch memory depends
// on the batch size and K rather than on the number of rows, and results are
// bit-for-bit independent of the chosen batch size.
//
// # Quick Start
//
//	ctx := context.Background()
//
//	data, _ := dataset.FromRows([][]float32{
//		{1, 1}, {1, 2}, {3, 2}, {4, 3},
//	})
//	defer data.Close()
//
//	km, _ := kmeansgo.New[float32](2, kmeansgo.WithSeed[float32](42))
//	res, _ := km.Fit(ctx, data)
//	fmt.Println(res.Labels, res.Inertia)
//
//	labels, inertia, _ := km.Predict(ctx, data)
//	dists, _ := km.Transform(ctx, data)
//
// # Initialization
//
// Three strategies are available, selected at construction time:
//
//	// 1. k-means‖ (scalable k-means++) — the default.
//	kmeansgo.New[float32](k)
//
//	// 2. Uniform random sampling of dataset rows.
//	kmeansgo.New[float32](k, kmeansgo.WithInit[float32](kmeansgo.InitRandom))
//
//	// 3. Caller-supplied centroids (implies InitArray).
//	kmeansgo.New[float32](k, kmeansgo.WithInitCentroids(init))
//
// All randomized sampling derives from a single seed: the same seed, data and
// configuration always produce the same model.
//
// # Model State
//
// The fitted centroid set is the model's only learned state. It can be copied
// out with Centroids, snapshotted to any io.Writer or blob store and restored
// later; a restored model predicts and transforms exactly like the original.
//
// # Key Features
//
//   - float32 and float64 datasets via generics
//   - k-means‖ initialization with bounded, batched passes
//   - Batch-size invariant results
//   - Memory-mapped dataset files for data larger than RAM
//   - Compressed, checksummed model snapshots (S3/MinIO/DynamoDB-backed registries)
//   - Resource controller for scratch-memory and IO budgets
package kmeansgo
