package benchmark_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/hupe1980/kmeansgo"
	"github.com/hupe1980/kmeansgo/dataset"
	"github.com/hupe1980/kmeansgo/testutil"
)

func fitted(b *testing.B, data *dataset.Matrix[float32], k int) *kmeansgo.KMeans[float32] {
	b.Helper()

	km, err := kmeansgo.New[float32](k, kmeansgo.WithSeed[float32](42))
	if err != nil {
		b.Fatal(err)
	}
	if _, err := km.Fit(context.Background(), data); err != nil {
		b.Fatal(err)
	}
	return km
}

func BenchmarkFit(b *testing.B) {
	for _, bc := range []struct {
		n, d, k int
	}{
		{1000, 16, 8},
		{10000, 32, 16},
		{10000, 128, 16},
	} {
		b.Run(fmt.Sprintf("n%d_d%d_k%d", bc.n, bc.d, bc.k), func(b *testing.B) {
			rng := testutil.NewRNG(1)
			data := testutil.Blobs[float32](rng, bc.n, bc.d, bc.k)
			defer data.Close()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				km, err := kmeansgo.New[float32](bc.k, kmeansgo.WithSeed[float32](42))
				if err != nil {
					b.Fatal(err)
				}
				if _, err := km.Fit(context.Background(), data); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkFitBatchSize(b *testing.B) {
	rng := testutil.NewRNG(1)
	data := testutil.Blobs[float32](rng, 10000, 32, 8)
	defer data.Close()

	for _, batchSize := range []int{256, 4096, 32768} {
		b.Run(fmt.Sprintf("batch%d", batchSize), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				km, err := kmeansgo.New[float32](8,
					kmeansgo.WithSeed[float32](42),
					kmeansgo.WithBatchSize[float32](batchSize),
				)
				if err != nil {
					b.Fatal(err)
				}
				if _, err := km.Fit(context.Background(), data); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkPredict(b *testing.B) {
	rng := testutil.NewRNG(1)
	data := testutil.Blobs[float32](rng, 10000, 32, 16)
	defer data.Close()

	km := fitted(b, data, 16)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := km.Predict(context.Background(), data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTransform(b *testing.B) {
	rng := testutil.NewRNG(1)
	data := testutil.Blobs[float32](rng, 10000, 32, 16)
	defer data.Close()

	km := fitted(b, data, 16)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out, err := km.Transform(context.Background(), data)
		if err != nil {
			b.Fatal(err)
		}
		_ = out.Close()
	}
}
