package resource

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimit(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	assert.True(t, c.TryAcquireMemory(60))
	assert.Equal(t, int64(60), c.MemoryUsage())

	assert.False(t, c.TryAcquireMemory(50))

	c.ReleaseMemory(60)
	assert.Equal(t, int64(0), c.MemoryUsage())

	assert.True(t, c.TryAcquireMemory(100))
	c.ReleaseMemory(100)
}

func TestMemoryTrackingOnly(t *testing.T) {
	c := NewController(Config{})

	assert.True(t, c.TryAcquireMemory(1 << 40))
	assert.Equal(t, int64(1<<40), c.MemoryUsage())
	c.ReleaseMemory(1 << 40)
}

func TestNilController(t *testing.T) {
	var c *Controller

	assert.True(t, c.TryAcquireMemory(42))
	c.ReleaseMemory(42)
	assert.Equal(t, int64(0), c.MemoryUsage())
	assert.Equal(t, 0, c.MaxWorkers())
	require.NoError(t, c.AcquireWorker(context.Background()))
	c.ReleaseWorker()
	require.NoError(t, c.AcquireIO(context.Background(), 1024))
}

func TestMaxWorkers(t *testing.T) {
	assert.Equal(t, 4, NewController(Config{MaxWorkers: 4}).MaxWorkers())
	assert.Equal(t, 1, NewController(Config{}).MaxWorkers())
}

func TestWorkerSlots(t *testing.T) {
	c := NewController(Config{MaxWorkers: 2})

	require.NoError(t, c.AcquireWorker(context.Background()))
	require.NoError(t, c.AcquireWorker(context.Background()))
	assert.False(t, c.TryAcquireWorker())

	c.ReleaseWorker()
	assert.True(t, c.TryAcquireWorker())

	c.ReleaseWorker()
	c.ReleaseWorker()
}

func TestRateLimitedWriter(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	var buf bytes.Buffer
	w := NewRateLimitedWriter(context.Background(), &buf, c)

	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", buf.String())
}

func TestRateLimitedReader_Canceled(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRateLimitedReader(ctx, bytes.NewReader(make([]byte, 10)), c)
	_, err := r.Read(make([]byte, 10))
	assert.Error(t, err)
}
