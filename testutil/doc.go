// Package testutil provides helpers for tests and benchmarks.
//
// It generates synthetic clustering datasets and computes exact brute-force
// assignments to verify engine output against ground truth.
//
//	rng := testutil.NewRNG(seed)
//	data := testutil.Blobs(rng, 1000, 16, 8)   // 8 Gaussian blobs
//	labels, inertia := testutil.ExactAssign(data, centroids)
package testutil
