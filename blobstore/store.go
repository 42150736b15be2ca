package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for accessing named immutable blobs.
type Store interface {
	// Open opens a blob for reading. The caller owns the returned reader
	// and must close it.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Put writes a blob, replacing any existing blob of the same name.
	// The write is atomic: readers never observe a partially-written blob.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the blob names under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}
