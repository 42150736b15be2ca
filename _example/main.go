package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hupe1980/kmeansgo"
	"github.com/hupe1980/kmeansgo/testutil"
)

func main() {
	seed := int64(4711)
	n := 50000
	d := 32
	k := 10

	rng := testutil.NewRNG(seed)
	data := testutil.Blobs[float32](rng, n, d, k)
	defer data.Close()

	km, err := kmeansgo.New[float32](k, kmeansgo.WithSeed[float32](seed))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("--- Fit ---")
	fmt.Println("Rows:", n)
	fmt.Println("Dimension:", d)
	fmt.Println("Clusters:", k)

	start := time.Now()
	res, err := km.Fit(context.Background(), data)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Duration:", time.Since(start))
	fmt.Println("Iterations:", res.Iterations)
	fmt.Println("Converged:", res.Converged)
	fmt.Println("Inertia:", res.Inertia)

	fmt.Println("--- Predict ---")
	start = time.Now()
	labels, inertia, err := km.Predict(context.Background(), data)
	if err != nil {
		log.Fatal(err)
	}

	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}

	fmt.Println("Duration:", time.Since(start))
	fmt.Println("Inertia:", inertia)
	fmt.Println("Cluster sizes:", counts)
}
