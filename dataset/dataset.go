// Package dataset provides the dense row-major matrix type consumed and
// produced by the clustering engine.
//
// A Matrix is either backed by an in-memory slice or by a read-only
// memory-mapped file, so datasets larger than available RAM can be clustered
// without loading them wholesale.
package dataset

import (
	"fmt"
	"io"
	"slices"
)

// Float constrains the supported element types. A matrix is homogeneous: all
// elements share one width, chosen by the type parameter.
type Float interface {
	~float32 | ~float64
}

// Matrix is a dense row-major matrix of rows × cols elements.
type Matrix[T Float] struct {
	data   []T
	rows   int
	cols   int
	closer io.Closer // non-nil for file-backed matrices
}

// New creates a zeroed rows × cols matrix.
func New[T Float](rows, cols int) (*Matrix[T], error) {
	if rows < 0 || cols <= 0 {
		return nil, fmt.Errorf("dataset: invalid shape %dx%d", rows, cols)
	}
	return &Matrix[T]{
		data: make([]T, rows*cols),
		rows: rows,
		cols: cols,
	}, nil
}

// FromSlice wraps a flat row-major slice as a rows × cols matrix.
// The matrix takes ownership of data; it is not copied.
func FromSlice[T Float](data []T, rows, cols int) (*Matrix[T], error) {
	if rows < 0 || cols <= 0 {
		return nil, fmt.Errorf("dataset: invalid shape %dx%d", rows, cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("dataset: slice length %d does not match shape %dx%d", len(data), rows, cols)
	}
	return &Matrix[T]{data: data, rows: rows, cols: cols}, nil
}

// FromRows copies a slice of equal-length rows into a new matrix.
func FromRows[T Float](rows [][]T) (*Matrix[T], error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset: no rows")
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("dataset: empty rows")
	}

	data := make([]T, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("dataset: row %d has %d columns, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}

	return &Matrix[T]{data: data, rows: len(rows), cols: cols}, nil
}

// Rows returns the number of rows (samples).
func (m *Matrix[T]) Rows() int { return m.rows }

// Cols returns the number of columns (features).
func (m *Matrix[T]) Cols() int { return m.cols }

// Row returns a view of row i. The slice aliases the matrix storage.
func (m *Matrix[T]) Row(i int) []T {
	return m.data[i*m.cols : (i+1)*m.cols : (i+1)*m.cols]
}

// Data returns the flat row-major storage. The slice aliases the matrix.
func (m *Matrix[T]) Data() []T { return m.data }

// Clone returns a deep, heap-backed copy of the matrix.
// Cloning a file-backed matrix detaches it from the mapping.
func (m *Matrix[T]) Clone() *Matrix[T] {
	return &Matrix[T]{
		data: slices.Clone(m.data),
		rows: m.rows,
		cols: m.cols,
	}
}

// Close releases the underlying mapping for file-backed matrices.
// It is a no-op for heap-backed matrices.
func (m *Matrix[T]) Close() error {
	if m.closer == nil {
		return nil
	}
	c := m.closer
	m.closer = nil
	m.data = nil
	return c.Close()
}
