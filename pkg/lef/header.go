// Package lef implements the LEF binary model-container format: a
// fixed header, model metadata block, layer index, and per-layer
// records carrying (optionally compressed, optionally quantized) tensor
// bytes with CRC-32 integrity checks.
//
// Every multi-byte integer is little-endian; every string field is a
// fixed-length, null-padded byte array. The format is versioned and
// hashed but not self-describing beyond that — callers decide how to
// interpret layer bytes using LayerKind and QuantizationKind.
package lef

import (
	"encoding/binary"
	"fmt"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
)

// Magic identifies a LEF file: ASCII "LEF\0".
const Magic uint32 = 0x46454C00

// HeaderSize is the fixed, packed size of Header on disk.
const HeaderSize = 56

// File flags (u32), packed into Header.Flags. The low two bits carry the
// file-wide CompressionKind (0=none, 1=zstd, 2=lz4-class) rather than a
// bare on/off bit, so Reader never has to guess which codec a compressed
// layer used.
const (
	flagCompressionMask uint32 = 0x3
	FlagQuantized       uint32 = 1 << 2
	FlagExtended        uint32 = 1 << 3
)

func encodeCompressionFlag(kind CompressionKind) uint32 {
	return uint32(kind) & flagCompressionMask
}

func decodeCompressionFlag(flags uint32) CompressionKind {
	return CompressionKind(flags & flagCompressionMask)
}

// Header is the first HeaderSize bytes of a LEF file.
type Header struct {
	Magic            uint32
	VersionMajor     uint16
	VersionMinor     uint16
	Flags            uint32
	Timestamp        uint64
	FileSize         uint64
	ModelHash        uint32
	LayerIndexOffset uint64
	LayerDataOffset  uint64
}

// currentVersion is written by Writer.Finalize; see CompatRange for the
// reader's acceptance window.
const (
	currentVersionMajor = 1
	currentVersionMinor = 0
)

// CompatRange gates which versions a Reader accepts. A real deployment
// widens MaxMajor/MaxMinor as the format evolves; this runtime accepts
// exactly the version it writes.
type CompatRange struct {
	MinMajor, MinMinor uint16
	MaxMajor, MaxMinor uint16
}

// DefaultCompatRange accepts only the version this package currently
// writes.
func DefaultCompatRange() CompatRange {
	return CompatRange{MinMajor: 1, MinMinor: 0, MaxMajor: 1, MaxMinor: 0}
}

func (c CompatRange) accepts(major, minor uint16) bool {
	if major < c.MinMajor || major > c.MaxMajor {
		return false
	}
	if major == c.MinMajor && minor < c.MinMinor {
		return false
	}
	if major == c.MaxMajor && minor > c.MaxMinor {
		return false
	}
	return true
}

func encodeHeader(h *Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.VersionMajor)
	binary.LittleEndian.PutUint16(buf[6:8], h.VersionMinor)
	binary.LittleEndian.PutUint32(buf[8:12], h.Flags)
	binary.LittleEndian.PutUint64(buf[12:20], h.Timestamp)
	binary.LittleEndian.PutUint64(buf[20:28], h.FileSize)
	binary.LittleEndian.PutUint32(buf[28:32], h.ModelHash)
	binary.LittleEndian.PutUint64(buf[32:40], h.LayerIndexOffset)
	binary.LittleEndian.PutUint64(buf[40:48], h.LayerDataOffset)
	// bytes [48:56] reserved, left zero.
	return buf
}

func decodeHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("lef: header truncated (%d bytes): %w", len(buf), errs.ErrFormat)
	}
	h := &Header{
		Magic:            binary.LittleEndian.Uint32(buf[0:4]),
		VersionMajor:     binary.LittleEndian.Uint16(buf[4:6]),
		VersionMinor:     binary.LittleEndian.Uint16(buf[6:8]),
		Flags:            binary.LittleEndian.Uint32(buf[8:12]),
		Timestamp:        binary.LittleEndian.Uint64(buf[12:20]),
		FileSize:         binary.LittleEndian.Uint64(buf[20:28]),
		ModelHash:        binary.LittleEndian.Uint32(buf[28:32]),
		LayerIndexOffset: binary.LittleEndian.Uint64(buf[32:40]),
		LayerDataOffset:  binary.LittleEndian.Uint64(buf[40:48]),
	}
	if h.Magic != Magic {
		return nil, fmt.Errorf("lef: bad magic %#x: %w", h.Magic, errs.ErrFormat)
	}
	return h, nil
}
