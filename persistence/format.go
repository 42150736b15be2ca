package persistence

import "errors"

const (
	// MagicNumber identifies snapshot files (ASCII: "KMS1").
	MagicNumber = 0x4B4D5331
	// Version is the current snapshot format version (v1.0.0).
	Version = 0x00010000
)

var (
	ErrInvalidMagic      = errors.New("invalid magic number")
	ErrInvalidVersion    = errors.New("unsupported version")
	ErrUnknownCodec      = errors.New("unknown codec")
	ErrElementWidth      = errors.New("element width mismatch")
	ErrCorruptedSnapshot = errors.New("corrupted snapshot")
)

// preamble is the fixed-size section at the start of every snapshot, written
// before any codec-encoded bytes so the decoder can be selected on load.
//
// Layout (little endian):
//
//	Magic        uint32
//	Version      uint32
//	Compression  uint8
//	ElemWidth    uint8   // bytes per centroid element (4 or 8)
//	CodecNameLen uint8
//	Reserved     uint8
//
// The codec name bytes follow immediately, then the codec-encoded metadata
// block, then the (possibly compressed) centroid payload and the CRC32
// trailer.
type preamble struct {
	Magic        uint32
	Version      uint32
	Compression  uint8
	ElemWidth    uint8
	CodecNameLen uint8
	Reserved     uint8
}
