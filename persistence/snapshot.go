package persistence

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
	"unsafe"

	"github.com/hupe1980/kmeansgo/codec"
	"github.com/hupe1980/kmeansgo/dataset"
)

// Meta is the model metadata stored alongside the centroid payload. It is
// codec-encoded, so forward-compatible fields can be added without a format
// version bump.
type Meta struct {
	// K is the number of centroids.
	K int `json:"k"`

	// Cols is the feature count per centroid.
	Cols int `json:"cols"`

	// Metric names the distance metric the model was fitted under.
	Metric string `json:"metric"`

	// Seed is the sampling seed the model was fitted with.
	Seed int64 `json:"seed"`

	// CreatedAt records when the snapshot was written.
	CreatedAt time.Time `json:"created_at"`
}

// WriteOptions control the snapshot encoding.
type WriteOptions struct {
	// Codec encodes the metadata block. Defaults to codec.Default.
	Codec codec.Codec

	// Compression is applied to the centroid payload.
	Compression Compression
}

// Write serializes a fitted centroid set to w.
//
// The stream is: preamble, codec name, metadata block, centroid payload
// block, CRC32 trailer over everything before it.
func Write[T dataset.Float](w io.Writer, meta Meta, centroids *dataset.Matrix[T], opts WriteOptions) error {
	c := opts.Codec
	if c == nil {
		c = codec.Default
	}
	name := c.Name()
	if len(name) == 0 || len(name) > 255 {
		return fmt.Errorf("persistence: invalid codec name %q", name)
	}

	cw := NewChecksumWriter(w)

	var zero T
	pre := preamble{
		Magic:        MagicNumber,
		Version:      Version,
		Compression:  uint8(opts.Compression),
		ElemWidth:    uint8(unsafe.Sizeof(zero)),
		CodecNameLen: uint8(len(name)),
	}
	if err := binary.Write(cw, binary.LittleEndian, pre); err != nil {
		return fmt.Errorf("write preamble: %w", err)
	}
	if _, err := io.WriteString(cw, name); err != nil {
		return fmt.Errorf("write codec name: %w", err)
	}

	metaBytes, err := c.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := binary.Write(cw, binary.LittleEndian, uint32(len(metaBytes))); err != nil {
		return fmt.Errorf("write meta length: %w", err)
	}
	if _, err := cw.Write(metaBytes); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}

	block, err := compressBlock(byteView(centroids.Data()), opts.Compression)
	if err != nil {
		return fmt.Errorf("compress payload: %w", err)
	}
	if err := binary.Write(cw, binary.LittleEndian, uint64(len(block))); err != nil {
		return fmt.Errorf("write payload length: %w", err)
	}
	if _, err := cw.Write(block); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}

	// Trailer bypasses the checksum writer: the sum covers everything
	// written so far, not itself.
	if err := binary.Write(w, binary.LittleEndian, cw.Sum()); err != nil {
		return fmt.Errorf("write checksum: %w", err)
	}

	return nil
}

// Read deserializes a snapshot from r, verifying the checksum before any of
// the decoded content is returned.
func Read[T dataset.Float](r io.Reader) (Meta, *dataset.Matrix[T], error) {
	cr := NewChecksumReader(r)

	var pre preamble
	if err := binary.Read(cr, binary.LittleEndian, &pre); err != nil {
		return Meta{}, nil, fmt.Errorf("read preamble: %w", err)
	}
	if pre.Magic != MagicNumber {
		return Meta{}, nil, fmt.Errorf("%w: 0x%08x", ErrInvalidMagic, pre.Magic)
	}
	if pre.Version != Version {
		return Meta{}, nil, fmt.Errorf("%w: 0x%08x", ErrInvalidVersion, pre.Version)
	}

	var zero T
	if pre.ElemWidth != uint8(unsafe.Sizeof(zero)) {
		return Meta{}, nil, fmt.Errorf("%w: file has %d-byte elements, want %d", ErrElementWidth, pre.ElemWidth, unsafe.Sizeof(zero))
	}

	nameBytes := make([]byte, pre.CodecNameLen)
	if _, err := io.ReadFull(cr, nameBytes); err != nil {
		return Meta{}, nil, fmt.Errorf("read codec name: %w", err)
	}
	c, ok := codec.ByName(string(nameBytes))
	if !ok {
		return Meta{}, nil, fmt.Errorf("%w: %q", ErrUnknownCodec, nameBytes)
	}

	var metaLen uint32
	if err := binary.Read(cr, binary.LittleEndian, &metaLen); err != nil {
		return Meta{}, nil, fmt.Errorf("read meta length: %w", err)
	}
	metaBytes := make([]byte, metaLen)
	if _, err := io.ReadFull(cr, metaBytes); err != nil {
		return Meta{}, nil, fmt.Errorf("read meta: %w", err)
	}

	var payloadLen uint64
	if err := binary.Read(cr, binary.LittleEndian, &payloadLen); err != nil {
		return Meta{}, nil, fmt.Errorf("read payload length: %w", err)
	}
	block := make([]byte, payloadLen)
	if _, err := io.ReadFull(cr, block); err != nil {
		return Meta{}, nil, fmt.Errorf("read payload: %w", err)
	}

	// The trailer is not part of its own sum; read it from the raw stream.
	var sum uint32
	if err := binary.Read(r, binary.LittleEndian, &sum); err != nil {
		return Meta{}, nil, fmt.Errorf("read checksum: %w", err)
	}
	if err := cr.Verify(sum); err != nil {
		return Meta{}, nil, err
	}

	var meta Meta
	if err := c.Unmarshal(metaBytes, &meta); err != nil {
		return Meta{}, nil, fmt.Errorf("decode meta: %w", err)
	}
	if meta.K <= 0 || meta.Cols <= 0 {
		return Meta{}, nil, fmt.Errorf("%w: invalid shape %dx%d", ErrCorruptedSnapshot, meta.K, meta.Cols)
	}

	payload, err := decompressBlock(block, Compression(pre.Compression))
	if err != nil {
		return Meta{}, nil, fmt.Errorf("%w: %w", ErrCorruptedSnapshot, err)
	}
	want := meta.K * meta.Cols * int(unsafe.Sizeof(zero))
	if len(payload) != want {
		return Meta{}, nil, fmt.Errorf("%w: payload has %d bytes, want %d", ErrCorruptedSnapshot, len(payload), want)
	}

	centroids, err := dataset.New[T](meta.K, meta.Cols)
	if err != nil {
		return Meta{}, nil, err
	}
	copy(byteView(centroids.Data()), payload)

	return meta, centroids, nil
}

// byteView reinterprets a numeric slice as its raw bytes without copying.
func byteView[T dataset.Float](s []T) []byte {
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(unsafe.Sizeof(zero)))
}
