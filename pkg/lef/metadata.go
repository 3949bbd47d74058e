package lef

import (
	"encoding/binary"
	"fmt"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
)

// MetadataSize is the fixed, packed size of Metadata on disk.
const MetadataSize = 296

const (
	nameLen        = 64
	versionLen     = 16
	authorLen      = 32
	descriptionLen = 128
)

// Metadata is the model-description block immediately following Header.
type Metadata struct {
	Name                string
	Version             string
	Author              string
	Description         string
	InputDim            uint32
	OutputDim           uint32
	HiddenDim           uint32
	NumLayers           uint32
	NumHeads            uint32
	VocabSize           uint32
	SampleRate          uint32
	MelChannels         uint32
	HopLength           uint32
	WinLength           uint32
	DefaultQuantization QuantizationKind
}

func putFixedString(buf []byte, s string) {
	n := copy(buf, s)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
}

func getFixedString(buf []byte) string {
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n])
}

func encodeMetadata(m *Metadata) []byte {
	buf := make([]byte, MetadataSize)
	off := 0
	putFixedString(buf[off:off+nameLen], m.Name)
	off += nameLen
	putFixedString(buf[off:off+versionLen], m.Version)
	off += versionLen
	putFixedString(buf[off:off+authorLen], m.Author)
	off += authorLen
	putFixedString(buf[off:off+descriptionLen], m.Description)
	off += descriptionLen

	fields := []uint32{
		m.InputDim, m.OutputDim, m.HiddenDim, m.NumLayers, m.NumHeads,
		m.VocabSize, m.SampleRate, m.MelChannels, m.HopLength, m.WinLength,
	}
	for _, f := range fields {
		binary.LittleEndian.PutUint32(buf[off:off+4], f)
		off += 4
	}
	buf[off] = byte(m.DefaultQuantization)
	off++
	// Remaining bytes (padding out to MetadataSize) stay zero.
	return buf
}

func decodeMetadata(buf []byte) (*Metadata, error) {
	if len(buf) < MetadataSize {
		return nil, fmt.Errorf("lef: metadata truncated (%d bytes): %w", len(buf), errs.ErrFormat)
	}
	off := 0
	m := &Metadata{}
	m.Name = getFixedString(buf[off : off+nameLen])
	off += nameLen
	m.Version = getFixedString(buf[off : off+versionLen])
	off += versionLen
	m.Author = getFixedString(buf[off : off+authorLen])
	off += authorLen
	m.Description = getFixedString(buf[off : off+descriptionLen])
	off += descriptionLen

	read := func() uint32 {
		v := binary.LittleEndian.Uint32(buf[off : off+4])
		off += 4
		return v
	}
	m.InputDim = read()
	m.OutputDim = read()
	m.HiddenDim = read()
	m.NumLayers = read()
	m.NumHeads = read()
	m.VocabSize = read()
	m.SampleRate = read()
	m.MelChannels = read()
	m.HopLength = read()
	m.WinLength = read()
	m.DefaultQuantization = QuantizationKind(buf[off])
	return m, nil
}
