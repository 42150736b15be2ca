package dataset

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"unsafe"

	"github.com/hupe1980/kmeansgo/internal/mmap"
)

const (
	// fileMagic identifies dataset files (ASCII: "KMD1").
	fileMagic = 0x4B4D4431
	// fileVersion is the current file format version.
	fileVersion = 0x00010000

	// headerSize keeps the payload 8-byte aligned for zero-copy float64 views.
	headerSize = 32
)

var (
	// ErrInvalidMagic is returned when a file is not a dataset file.
	ErrInvalidMagic = errors.New("dataset: invalid magic number")
	// ErrInvalidVersion is returned for unsupported format versions.
	ErrInvalidVersion = errors.New("dataset: unsupported version")
	// ErrElementWidth is returned when the on-disk element width does not
	// match the requested element type.
	ErrElementWidth = errors.New("dataset: element width mismatch")
)

// fileHeader is the fixed-size header at the start of every dataset file.
// The payload that follows is the raw row-major element data in host byte
// order (little-endian on all supported platforms, matching the mmap path).
type fileHeader struct {
	Magic     uint32
	Version   uint32
	ElemWidth uint32
	Cols      uint32
	Rows      uint64
	Reserved  [8]byte
}

func elemWidth[T Float]() uint32 {
	var zero T
	return uint32(unsafe.Sizeof(zero))
}

// WriteFile writes the matrix to path in the dataset file format.
func WriteFile[T Float](path string, m *Matrix[T]) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)

	hdr := fileHeader{
		Magic:     fileMagic,
		Version:   fileVersion,
		ElemWidth: elemWidth[T](),
		Cols:      uint32(m.cols),
		Rows:      uint64(m.rows),
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		f.Close()
		return err
	}

	payload := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(m.data))), len(m.data)*int(hdr.ElemWidth))
	if _, err := w.Write(payload); err != nil {
		f.Close()
		return err
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// OpenFile memory-maps the dataset file at path and returns a zero-copy,
// read-only matrix view over it. The caller must Close the matrix to release
// the mapping.
//
// Opening a file whose element width differs from T fails with
// ErrElementWidth before any data is touched.
func OpenFile[T Float](path string) (*Matrix[T], error) {
	mf, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	m, err := fromMapped[T](mf.Data)
	if err != nil {
		mf.Close()
		return nil, err
	}
	m.closer = mf

	return m, nil
}

func fromMapped[T Float](b []byte) (*Matrix[T], error) {
	if len(b) < headerSize {
		return nil, ErrInvalidMagic
	}

	var hdr fileHeader
	if _, err := binary.Decode(b[:headerSize], binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}

	if hdr.Magic != fileMagic {
		return nil, ErrInvalidMagic
	}
	if hdr.Version != fileVersion {
		return nil, ErrInvalidVersion
	}
	if hdr.ElemWidth != elemWidth[T]() {
		return nil, fmt.Errorf("%w: file has %d-byte elements, requested %d-byte", ErrElementWidth, hdr.ElemWidth, elemWidth[T]())
	}
	if hdr.Cols == 0 {
		return nil, fmt.Errorf("dataset: invalid shape %dx%d", hdr.Rows, hdr.Cols)
	}

	// Bound the declared shape by the mapped size before multiplying, so a
	// corrupt header cannot overflow the element count.
	avail := uint64(len(b) - headerSize)
	if hdr.Rows > avail/(uint64(hdr.Cols)*uint64(hdr.ElemWidth)) {
		return nil, fmt.Errorf("dataset: truncated file: %d bytes cannot hold %dx%d elements of width %d", len(b), hdr.Rows, hdr.Cols, hdr.ElemWidth)
	}
	n := int(hdr.Rows) * int(hdr.Cols)

	var data []T
	if n > 0 {
		data = unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b[headerSize:]))), n)
	}

	return &Matrix[T]{
		data: data,
		rows: int(hdr.Rows),
		cols: int(hdr.Cols),
	}, nil
}
