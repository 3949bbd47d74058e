package lef

import (
	"encoding/binary"
	"fmt"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
)

// LayerKind identifies what operator a layer's tensor belongs to.
type LayerKind uint8

const (
	LayerLinear     LayerKind = 0
	LayerConv1D     LayerKind = 1
	LayerAttention  LayerKind = 2
	LayerSTFT       LayerKind = 3
	LayerMelScale   LayerKind = 4
	LayerVocoder    LayerKind = 5
	LayerActivation LayerKind = 6
	LayerNorm       LayerKind = 7
	LayerCustom     LayerKind = 255
)

// QuantizationKind identifies how a layer's raw bytes decode into
// values.
type QuantizationKind uint8

const (
	QuantNone QuantizationKind = 0
	QuantFP16 QuantizationKind = 1
	QuantBF16 QuantizationKind = 2
	QuantInt8 QuantizationKind = 3
	QuantInt4 QuantizationKind = 4
	QuantMixed QuantizationKind = 5
)

// Per-layer flags (u16), OR-combined in LayerHeader.Flags.
const (
	LayerFlagCompressed uint16 = 1 << 0
)

// IndexEntrySize is the packed size of one layer-index entry.
const IndexEntrySize = 14

// IndexEntry locates one layer's record within the layer-data region.
type IndexEntry struct {
	LayerID uint16
	Offset  uint64
	Size    uint32
}

func encodeIndexEntry(e IndexEntry) []byte {
	buf := make([]byte, IndexEntrySize)
	binary.LittleEndian.PutUint16(buf[0:2], e.LayerID)
	binary.LittleEndian.PutUint64(buf[2:10], e.Offset)
	binary.LittleEndian.PutUint32(buf[10:14], e.Size)
	return buf
}

func decodeIndexEntry(buf []byte) IndexEntry {
	return IndexEntry{
		LayerID: binary.LittleEndian.Uint16(buf[0:2]),
		Offset:  binary.LittleEndian.Uint64(buf[2:10]),
		Size:    binary.LittleEndian.Uint32(buf[10:14]),
	}
}

// LayerHeaderSize is the packed size of LayerHeader, not counting the
// variable-length quantization-params / metadata blobs or tensor bytes
// that follow it.
const LayerHeaderSize = 26

// LayerHeader precedes every layer's stored bytes.
type LayerHeader struct {
	LayerID          uint16
	LayerKind        LayerKind
	QuantizationType QuantizationKind
	Flags            uint16
	DataSize         uint32 // uncompressed size
	CompressedSize   uint32 // size actually stored; == DataSize when not compressed
	DataOffset       uint64 // absolute file offset of the stored bytes
	Checksum         uint32 // CRC-32 of the stored (pre-decompression) bytes
}

func encodeLayerHeader(h LayerHeader) []byte {
	buf := make([]byte, LayerHeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.LayerID)
	buf[2] = byte(h.LayerKind)
	buf[3] = byte(h.QuantizationType)
	binary.LittleEndian.PutUint16(buf[4:6], h.Flags)
	binary.LittleEndian.PutUint32(buf[6:10], h.DataSize)
	binary.LittleEndian.PutUint32(buf[10:14], h.CompressedSize)
	binary.LittleEndian.PutUint64(buf[14:22], h.DataOffset)
	binary.LittleEndian.PutUint32(buf[22:26], h.Checksum)
	return buf
}

func decodeLayerHeader(buf []byte) (LayerHeader, error) {
	if len(buf) < LayerHeaderSize {
		return LayerHeader{}, fmt.Errorf("lef: layer header truncated (%d bytes): %w", len(buf), errs.ErrFormat)
	}
	h := LayerHeader{
		LayerID:          binary.LittleEndian.Uint16(buf[0:2]),
		LayerKind:        LayerKind(buf[2]),
		QuantizationType: QuantizationKind(buf[3]),
		Flags:            binary.LittleEndian.Uint16(buf[4:6]),
		DataSize:         binary.LittleEndian.Uint32(buf[6:10]),
		CompressedSize:   binary.LittleEndian.Uint32(buf[10:14]),
		DataOffset:       binary.LittleEndian.Uint64(buf[14:22]),
		Checksum:         binary.LittleEndian.Uint32(buf[22:26]),
	}
	if h.CompressedSize > h.DataSize && h.DataSize != 0 {
		return LayerHeader{}, fmt.Errorf("lef: layer %d compressed_size %d exceeds data_size %d: %w", h.LayerID, h.CompressedSize, h.DataSize, errs.ErrFormat)
	}
	return h, nil
}
