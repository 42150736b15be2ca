package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenReadClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello mmap"), 0o600))

	m, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, []byte("hello mmap"), m.Data)

	full := make([]byte, 5)
	n, err := m.ReadAt(full, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("hello"), full)

	// A read running past the end returns the available bytes and io.EOF.
	p := make([]byte, 5)
	n, err = m.ReadAt(p, 6)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("mmap"), p[:n])

	require.NoError(t, m.Close())
	require.NoError(t, m.Close()) // double close is a no-op
}

func TestOpenEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	m, err := Open(path)
	require.NoError(t, err)
	assert.Nil(t, m.Data)
	require.NoError(t, m.Close())
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)
}
