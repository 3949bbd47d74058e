package lef

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"time"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
)

// stagedLayer holds a layer's raw bytes until Finalize writes them out.
type stagedLayer struct {
	id          uint16
	kind        LayerKind
	quant       QuantizationKind
	data        []byte
	quantParams []byte
	layerMeta   []byte
}

// Writer stages model metadata and layers, then serializes the whole
// file on Finalize. The two-pass design (stage everything, then compute
// offsets and write) is what lets Finalize know every layer's final
// compressed size before it has to write the layer index, which
// precedes the layer records it describes.
type Writer struct {
	meta        Metadata
	compression CompressionKind
	level       int
	layers      []stagedLayer
	timestamp   uint64 // pinned via SetTimestamp; 0 means use the wall clock at Finalize
}

// NewWriter creates a Writer that will compress layer bytes with kind at
// the given level (codec-specific; ignored for CompressionNone).
func NewWriter(meta Metadata, compression CompressionKind, level int) *Writer {
	return &Writer{meta: meta, compression: compression, level: level}
}

// SetTimestamp pins the header's Timestamp field to ts instead of taking
// the wall clock at Finalize time. Two Finalize calls over the same
// staged metadata and layers, both with the same pinned timestamp,
// produce byte-identical output; without it, Timestamp (and therefore
// the file bytes) differs between calls even when nothing else changed.
func (wr *Writer) SetTimestamp(ts uint64) {
	wr.timestamp = ts
}

// AddLayer stages a layer record. quantParams and layerMeta may be nil.
func (w *Writer) AddLayer(id uint16, kind LayerKind, quant QuantizationKind, data, quantParams, layerMeta []byte) error {
	if data == nil {
		return fmt.Errorf("lef: layer %d has nil data: %w", id, errs.ErrInvalidArgument)
	}
	for _, l := range w.layers {
		if l.id == id {
			return fmt.Errorf("lef: layer id %d already staged: %w", id, errs.ErrInvalidArgument)
		}
	}
	w.layers = append(w.layers, stagedLayer{id: id, kind: kind, quant: quant, data: data, quantParams: quantParams, layerMeta: layerMeta})
	return nil
}

// Finalize writes the complete LEF file to w2, in layer-id order. Two
// calls over identically staged metadata and layers produce byte-
// identical output only if the timestamp is pinned via SetTimestamp;
// otherwise the header's Timestamp field takes the wall clock and
// differs between calls.
func (wr *Writer) Finalize(w2 io.WriteSeeker) error {
	layers := append([]stagedLayer(nil), wr.layers...)
	sortLayersByID(layers)

	wr.meta.NumLayers = uint32(len(layers))

	layerIndexOffset := uint64(HeaderSize + MetadataSize)
	layerDataOffset := layerIndexOffset + uint64(len(layers))*IndexEntrySize

	type built struct {
		headerBytes []byte
		quantParams []byte
		layerMeta   []byte
		payload     []byte
	}

	builtLayers := make([]built, len(layers))
	indexEntries := make([]IndexEntry, len(layers))
	offset := layerDataOffset
	for i, l := range layers {
		compressed, err := compress(wr.compression, wr.level, l.data)
		if err != nil {
			return fmt.Errorf("lef: compress layer %d: %w", l.id, err)
		}
		flags := uint16(0)
		if wr.compression != CompressionNone {
			flags |= LayerFlagCompressed
		}
		h := LayerHeader{
			LayerID:          l.id,
			LayerKind:        l.kind,
			QuantizationType: l.quant,
			Flags:            flags,
			DataSize:         uint32(len(l.data)),
			CompressedSize:   uint32(len(compressed)),
			Checksum:         crc32.ChecksumIEEE(compressed),
		}
		recordSize := uint64(LayerHeaderSize + len(l.quantParams) + len(l.layerMeta) + len(compressed))
		h.DataOffset = offset + uint64(LayerHeaderSize+len(l.quantParams)+len(l.layerMeta))
		builtLayers[i] = built{
			headerBytes: nil, // filled below once DataOffset is final
			quantParams: l.quantParams,
			layerMeta:   l.layerMeta,
			payload:     compressed,
		}
		builtLayers[i].headerBytes = encodeLayerHeader(h)
		indexEntries[i] = IndexEntry{LayerID: l.id, Offset: offset, Size: uint32(recordSize)}
		offset += recordSize
	}
	fileSize := offset

	ts := wr.timestamp
	if ts == 0 {
		ts = uint64(time.Now().Unix())
	}

	header := &Header{
		Magic:            Magic,
		VersionMajor:     currentVersionMajor,
		VersionMinor:     currentVersionMinor,
		Flags:            wr.fileFlags(),
		Timestamp:        ts,
		FileSize:         fileSize,
		ModelHash:        modelHash(&wr.meta),
		LayerIndexOffset: layerIndexOffset,
		LayerDataOffset:  layerDataOffset,
	}

	var out bytes.Buffer
	out.Write(encodeHeader(header))
	out.Write(encodeMetadata(&wr.meta))
	for _, e := range indexEntries {
		out.Write(encodeIndexEntry(e))
	}
	for _, b := range builtLayers {
		out.Write(b.headerBytes)
		out.Write(b.quantParams)
		out.Write(b.layerMeta)
		out.Write(b.payload)
	}

	if _, err := w2.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("lef: seek to start: %w", err)
	}
	if _, err := w2.Write(out.Bytes()); err != nil {
		return fmt.Errorf("lef: write file: %w", err)
	}
	return nil
}

func (wr *Writer) fileFlags() uint32 {
	f := encodeCompressionFlag(wr.compression)
	for _, l := range wr.layers {
		if l.quant != QuantNone {
			f |= FlagQuantized
			break
		}
	}
	return f
}

func sortLayersByID(layers []stagedLayer) {
	for i := 1; i < len(layers); i++ {
		for j := i; j > 0 && layers[j-1].id > layers[j].id; j-- {
			layers[j-1], layers[j] = layers[j], layers[j-1]
		}
	}
}

// WriteFile is a convenience wrapper that creates path and calls
// Finalize against it.
func (wr *Writer) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("lef: create %s: %w", path, err)
	}
	defer f.Close()
	return wr.Finalize(f)
}
