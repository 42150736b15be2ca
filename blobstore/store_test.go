package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	local, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	return map[string]Store{
		"memory": NewMemoryStore(),
		"local":  local,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, "models/a.snap", []byte("alpha")))

			r, err := store.Open(ctx, "models/a.snap")
			require.NoError(t, err)
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, []byte("alpha"), data)
		})
	}
}

func TestStoreOpenMissing(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Open(ctx, "missing")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStorePutReplaces(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, "m", []byte("v1")))
			require.NoError(t, store.Put(ctx, "m", []byte("v2")))

			r, err := store.Open(ctx, "m")
			require.NoError(t, err)
			defer r.Close()

			data, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), data)
		})
	}
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, "m", []byte("v")))
			require.NoError(t, store.Delete(ctx, "m"))

			_, err := store.Open(ctx, "m")
			require.ErrorIs(t, err, ErrNotFound)

			// Deleting a missing blob is not an error.
			require.NoError(t, store.Delete(ctx, "m"))
		})
	}
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, "models/b", []byte("b")))
			require.NoError(t, store.Put(ctx, "models/a", []byte("a")))
			require.NoError(t, store.Put(ctx, "other/c", []byte("c")))

			names, err := store.List(ctx, "models/")
			require.NoError(t, err)
			assert.Equal(t, []string{"models/a", "models/b"}, names)
		})
	}
}
