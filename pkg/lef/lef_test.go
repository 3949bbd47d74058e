package lef

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
)

// seekBuffer is a minimal in-memory io.WriteSeeker for exercising Writer
// without touching the filesystem.
type seekBuffer struct {
	buf []byte
	pos int64
}

func newSeekBuffer() *seekBuffer { return &seekBuffer{} }

func (s *seekBuffer) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[s.pos:end], p)
	s.pos = end
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		s.pos = offset
	case io.SeekCurrent:
		s.pos += offset
	case io.SeekEnd:
		s.pos = int64(len(s.buf)) + offset
	}
	return s.pos, nil
}

func (s *seekBuffer) Bytes() []byte { return s.buf }

func sampleMetadata() Metadata {
	return Metadata{
		Name:                "voice-model",
		Version:             "0.1.0",
		Author:              "libetude",
		Description:         "test fixture model",
		InputDim:            80,
		OutputDim:           256,
		HiddenDim:           512,
		NumHeads:            8,
		VocabSize:           0,
		SampleRate:          22050,
		MelChannels:         80,
		HopLength:           256,
		WinLength:           1024,
		DefaultQuantization: QuantNone,
	}
}

func writeSample(t *testing.T, compression CompressionKind) []byte {
	t.Helper()
	w := NewWriter(sampleMetadata(), compression, 3)
	require.NoError(t, w.AddLayer(0, LayerLinear, QuantNone, bytes.Repeat([]byte{0xAB}, 256), nil, nil))
	require.NoError(t, w.AddLayer(1, LayerConv1D, QuantNone, bytes.Repeat([]byte{0xCD}, 128), nil, nil))

	buf := newSeekBuffer()
	require.NoError(t, w.Finalize(buf))
	return buf.Bytes()
}

func TestRoundTripUncompressed(t *testing.T) {
	data := writeSample(t, CompressionNone)
	r, err := NewReader(bytes.NewReader(data), DefaultCompatRange())
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 2, r.NumLayers())
	assert.ElementsMatch(t, []uint16{0, 1}, r.LayerIDs())
	assert.Equal(t, "voice-model", r.Metadata().Name)
	assert.Equal(t, uint32(22050), r.Metadata().SampleRate)

	got0, err := r.GetLayerData(0)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xAB}, 256), got0)

	got1, err := r.GetLayerData(1)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xCD}, 128), got1)
}

func TestRoundTripZstdCompressed(t *testing.T) {
	data := writeSample(t, CompressionZstd)
	r, err := NewReader(bytes.NewReader(data), DefaultCompatRange())
	require.NoError(t, err)
	defer r.Close()

	got0, err := r.GetLayerData(0)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xAB}, 256), got0)
}

func TestGetLayerDataDetectsFlippedByte(t *testing.T) {
	raw := append([]byte(nil), writeSample(t, CompressionNone)...)

	// Flip a byte inside layer 0's stored payload region.
	r, err := NewReader(bytes.NewReader(raw), DefaultCompatRange())
	require.NoError(t, err)
	hdr, err := r.GetLayerHeader(0)
	require.NoError(t, err)
	raw[hdr.DataOffset] ^= 0xFF

	corrupted, err := NewReader(bytes.NewReader(raw), DefaultCompatRange())
	require.NoError(t, err)
	_, err = corrupted.GetLayerData(0)
	assert.ErrorIs(t, err, errs.ErrIntegrity)
}

func TestGetLayerDataUnknownLayerReturnsNotFound(t *testing.T) {
	data := writeSample(t, CompressionNone)
	r, err := NewReader(bytes.NewReader(data), DefaultCompatRange())
	require.NoError(t, err)
	_, err = r.GetLayerData(99)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestReaderRejectsIncompatibleVersion(t *testing.T) {
	data := writeSample(t, CompressionNone)
	narrow := CompatRange{MinMajor: 2, MinMinor: 0, MaxMajor: 2, MaxMinor: 0}
	_, err := NewReader(bytes.NewReader(data), narrow)
	assert.Error(t, err)
}

func TestZeroLayerModel(t *testing.T) {
	w := NewWriter(sampleMetadata(), CompressionNone, 0)
	buf := newSeekBuffer()
	require.NoError(t, w.Finalize(buf))

	r, err := NewReader(bytes.NewReader(buf.Bytes()), DefaultCompatRange())
	require.NoError(t, err)
	assert.Equal(t, 0, r.NumLayers())
}

func TestAddLayerRejectsDuplicateID(t *testing.T) {
	w := NewWriter(sampleMetadata(), CompressionNone, 0)
	require.NoError(t, w.AddLayer(0, LayerLinear, QuantNone, []byte{1, 2, 3}, nil, nil))
	err := w.AddLayer(0, LayerLinear, QuantNone, []byte{4, 5, 6}, nil, nil)
	assert.Error(t, err)
}

func TestFinalizeIsByteIdenticalWithPinnedTimestamp(t *testing.T) {
	build := func() []byte {
		w := NewWriter(sampleMetadata(), CompressionNone, 0)
		w.SetTimestamp(1700000000)
		require.NoError(t, w.AddLayer(0, LayerLinear, QuantNone, bytes.Repeat([]byte{0xAB}, 256), nil, nil))
		require.NoError(t, w.AddLayer(1, LayerConv1D, QuantNone, bytes.Repeat([]byte{0xCD}, 128), nil, nil))
		buf := newSeekBuffer()
		require.NoError(t, w.Finalize(buf))
		return buf.Bytes()
	}

	first := build()
	second := build()
	assert.Equal(t, first, second)

	r, err := NewReader(bytes.NewReader(first), DefaultCompatRange())
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, uint64(1700000000), r.Header().Timestamp)
}

func TestFinalizeWithoutPinnedTimestampUsesWallClock(t *testing.T) {
	w := NewWriter(sampleMetadata(), CompressionNone, 0)
	require.NoError(t, w.AddLayer(0, LayerLinear, QuantNone, []byte{1, 2, 3}, nil, nil))
	buf := newSeekBuffer()
	require.NoError(t, w.Finalize(buf))

	r, err := NewReader(bytes.NewReader(buf.Bytes()), DefaultCompatRange())
	require.NoError(t, err)
	defer r.Close()
	assert.NotZero(t, r.Header().Timestamp)
}
