// Package distance provides public API for point/centroid distance
// calculations. Functions are generic over float32 and float64 and accumulate
// in the input width.
package distance

import (
	"fmt"

	"github.com/hupe1980/kmeansgo/internal/mathx"
)

// Float constrains the supported element types.
type Float interface {
	~float32 | ~float64
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2[T Float](a, b []T) T {
	return mathx.SquaredL2(a, b)
}

// L2 calculates the true (square-rooted) Euclidean distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func L2[T Float](a, b []T) T {
	return mathx.Sqrt(mathx.SquaredL2(a, b))
}

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot[T Float](a, b []T) T {
	return mathx.Dot(a, b)
}

// Metric represents the distance metric used for point/centroid comparison.
//
// Only MetricSquaredL2 is supported for clustering today; MetricL2 is used
// internally for distance-space projection. MetricCosine exists so the
// selector can grow without an API break.
type Metric int

const (
	MetricSquaredL2 Metric = iota
	MetricL2
	MetricCosine
)

func (m Metric) String() string {
	switch m {
	case MetricSquaredL2:
		return "SquaredL2"
	case MetricL2:
		return "L2"
	case MetricCosine:
		return "Cosine"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Func is a function type for distance calculation.
type Func[T Float] func(a, b []T) T

// Provider returns the distance function for the given metric.
func Provider[T Float](m Metric) (Func[T], error) {
	switch m {
	case MetricSquaredL2:
		return SquaredL2[T], nil
	case MetricL2:
		return L2[T], nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
