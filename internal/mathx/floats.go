// Package mathx provides generic floating-point vector kernels.
// This is an internal package - external users should use the distance package.
package mathx

import "math"

// Float constrains the element types the engine operates on.
// The whole pipeline is generic over the dataset's element width; there is no
// mixed-precision accumulation.
type Float interface {
	~float32 | ~float64
}

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot[T Float](a, b []T) T {
	var ret T
	for i := range a {
		ret += a[i] * b[i]
	}

	return ret
}

// SquaredL2 calculates the squared L2 (Euclidean) distance.
// Assumes vectors are the same length (caller's responsibility).
//
// Accumulation happens in the input width; for very high-dimensional float32
// inputs catastrophic cancellation is a known limitation.
func SquaredL2[T Float](a, b []T) T {
	var distance T
	for i := range a {
		distance += (a[i] - b[i]) * (a[i] - b[i])
	}

	return distance
}

// AddInPlace adds src to dst element-wise.
// Used by the centroid update accumulation.
func AddInPlace[T Float](dst, src []T) {
	for i := range dst {
		dst[i] += src[i]
	}
}

// AxpyInPlace adds alpha*src to dst element-wise.
// Used by the weighted centroid update accumulation.
func AxpyInPlace[T Float](dst []T, alpha T, src []T) {
	for i := range dst {
		dst[i] += alpha * src[i]
	}
}

// ScaleInPlace multiplies all elements of a by scalar.
func ScaleInPlace[T Float](a []T, scalar T) {
	for i := range a {
		a[i] *= scalar
	}
}

// Sqrt returns the square root of v in the input width.
func Sqrt[T Float](v T) T {
	return T(math.Sqrt(float64(v)))
}
