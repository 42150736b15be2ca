package persistence

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kmeansgo/codec"
	"github.com/hupe1980/kmeansgo/dataset"
)

func testCentroids(t *testing.T) *dataset.Matrix[float32] {
	t.Helper()

	m, err := dataset.FromRows([][]float32{
		{1.0, 1.5, -2.25},
		{3.5, 2.5, 0.125},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	return m
}

func testMeta() Meta {
	return Meta{
		K:         2,
		Cols:      3,
		Metric:    "SquaredL2",
		Seed:      42,
		CreatedAt: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	}
}

func TestRoundTrip(t *testing.T) {
	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(compression.String(), func(t *testing.T) {
			centroids := testCentroids(t)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, testMeta(), centroids, WriteOptions{
				Compression: compression,
			}))

			meta, restored, err := Read[float32](&buf)
			require.NoError(t, err)
			defer restored.Close()

			assert.Equal(t, testMeta(), meta)
			assert.Equal(t, centroids.Data(), restored.Data())
			assert.Equal(t, 2, restored.Rows())
			assert.Equal(t, 3, restored.Cols())
		})
	}
}

func TestRoundTripCodecs(t *testing.T) {
	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			centroids := testCentroids(t)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, testMeta(), centroids, WriteOptions{Codec: c}))

			meta, restored, err := Read[float32](&buf)
			require.NoError(t, err)
			defer restored.Close()
			assert.Equal(t, testMeta(), meta)
		})
	}
}

func TestRoundTripFloat64(t *testing.T) {
	m, err := dataset.FromRows([][]float64{{0.5, -1.5}, {2.0, 3.0}})
	require.NoError(t, err)
	defer m.Close()

	meta := Meta{K: 2, Cols: 2, Metric: "SquaredL2"}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, meta, m, WriteOptions{Compression: CompressionZSTD}))

	_, restored, err := Read[float64](&buf)
	require.NoError(t, err)
	defer restored.Close()
	assert.Equal(t, m.Data(), restored.Data())
}

func TestElementWidthMismatch(t *testing.T) {
	centroids := testCentroids(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testMeta(), centroids, WriteOptions{}))

	_, _, err := Read[float64](&buf)
	require.ErrorIs(t, err, ErrElementWidth)
}

func TestInvalidMagic(t *testing.T) {
	_, _, err := Read[float32](bytes.NewReader(make([]byte, 64)))
	require.ErrorIs(t, err, ErrInvalidMagic)
}

func TestCorruptedPayload(t *testing.T) {
	centroids := testCentroids(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testMeta(), centroids, WriteOptions{}))

	raw := buf.Bytes()
	raw[len(raw)-8] ^= 0xFF // flip a payload byte, leaving the trailer intact

	_, _, err := Read[float32](bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrCorruptedSnapshot)

	var mismatch *ChecksumMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestTruncatedSnapshot(t *testing.T) {
	centroids := testCentroids(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testMeta(), centroids, WriteOptions{}))

	raw := buf.Bytes()
	_, _, err := Read[float32](bytes.NewReader(raw[:len(raw)/2]))
	require.Error(t, err)
}

func TestCompressionShrinksRedundantPayload(t *testing.T) {
	// Highly redundant centroids compress well.
	m, err := dataset.New[float32](64, 128)
	require.NoError(t, err)
	defer m.Close()

	var plain, packed bytes.Buffer
	meta := Meta{K: 64, Cols: 128}
	require.NoError(t, Write(&plain, meta, m, WriteOptions{Compression: CompressionNone}))
	require.NoError(t, Write(&packed, meta, m, WriteOptions{Compression: CompressionZSTD}))

	assert.Less(t, packed.Len(), plain.Len())
}
