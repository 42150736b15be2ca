package testutil

import (
	"math/rand"

	"github.com/hupe1980/kmeansgo/dataset"
)

// NewRNG returns a deterministic random source for test data generation.
func NewRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Blobs generates n rows of d features grouped around k well-separated
// Gaussian centers. Row i belongs to center i % k, so expected cluster sizes
// are balanced.
func Blobs[T dataset.Float](rng *rand.Rand, n, d, k int) *dataset.Matrix[T] {
	m, err := dataset.New[T](n, d)
	if err != nil {
		panic(err)
	}

	for i := 0; i < n; i++ {
		row := m.Row(i)
		center := i % k
		for j := 0; j < d; j++ {
			row[j] = T(float64(center*10) + rng.NormFloat64())
		}
	}

	return m
}

// Uniform generates n rows of d features drawn uniformly from [0, 1).
func Uniform[T dataset.Float](rng *rand.Rand, n, d int) *dataset.Matrix[T] {
	m, err := dataset.New[T](n, d)
	if err != nil {
		panic(err)
	}

	for i := range m.Data() {
		m.Data()[i] = T(rng.Float64())
	}

	return m
}

// ExactAssign computes ground-truth nearest-centroid labels and total inertia
// by brute force, breaking distance ties toward the lowest centroid index.
func ExactAssign[T dataset.Float](data, centroids *dataset.Matrix[T]) ([]int, T) {
	labels := make([]int, data.Rows())
	var inertia T

	for i := 0; i < data.Rows(); i++ {
		row := data.Row(i)
		best := 0
		bestDist := squaredL2(row, centroids.Row(0))
		for c := 1; c < centroids.Rows(); c++ {
			if dist := squaredL2(row, centroids.Row(c)); dist < bestDist {
				best = c
				bestDist = dist
			}
		}
		labels[i] = best
		inertia += bestDist
	}

	return labels, inertia
}

func squaredL2[T dataset.Float](a, b []T) T {
	var sum T
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
