package lef

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
)

// Reader opens a LEF file and serves metadata and layer bytes on demand.
// It reads the header, metadata block, and layer index eagerly on Open;
// layer payloads are only decompressed and checksummed when requested
// through GetLayerData, so inspecting a large model's metadata never
// requires touching its tensor bytes.
type Reader struct {
	r      io.ReaderAt
	closer io.Closer

	header *Header
	meta   *Metadata
	index  []IndexEntry
	byID   map[uint16]IndexEntry
	compat CompatRange
}

// OpenReader opens path and validates its header and version against
// compat.
func OpenReader(path string, compat CompatRange) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lef: open %s: %w", path, err)
	}
	r, err := NewReader(f, compat)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader wraps an already-open ReaderAt (a file, or an in-memory
// bytes.Reader in tests) and validates it against compat.
func NewReader(r io.ReaderAt, compat CompatRange) (*Reader, error) {
	headerBuf := make([]byte, HeaderSize)
	if _, err := r.ReadAt(headerBuf, 0); err != nil {
		return nil, fmt.Errorf("lef: read header: %w", err)
	}
	header, err := decodeHeader(headerBuf)
	if err != nil {
		return nil, err
	}
	if !compat.accepts(header.VersionMajor, header.VersionMinor) {
		return nil, fmt.Errorf("lef: version %d.%d not in accepted range [%d.%d, %d.%d]: %w",
			header.VersionMajor, header.VersionMinor, compat.MinMajor, compat.MinMinor, compat.MaxMajor, compat.MaxMinor, errs.ErrUnsupported)
	}
	if header.FileSize < HeaderSize+MetadataSize || header.LayerIndexOffset > header.FileSize || header.LayerDataOffset > header.FileSize {
		return nil, fmt.Errorf("lef: file_size %d inconsistent with layout offsets: %w", header.FileSize, errs.ErrFormat)
	}
	lastByte := make([]byte, 1)
	if _, err := r.ReadAt(lastByte, int64(header.FileSize)-1); err != nil {
		return nil, fmt.Errorf("lef: file shorter than recorded file_size %d: %w", header.FileSize, errs.ErrFormat)
	}

	metaBuf := make([]byte, MetadataSize)
	if _, err := r.ReadAt(metaBuf, int64(HeaderSize)); err != nil {
		return nil, fmt.Errorf("lef: read metadata: %w", err)
	}
	meta, err := decodeMetadata(metaBuf)
	if err != nil {
		return nil, err
	}
	if modelHash(meta) != header.ModelHash {
		return nil, fmt.Errorf("lef: model hash mismatch (header %#x, computed %#x): %w", header.ModelHash, modelHash(meta), errs.ErrIntegrity)
	}

	index := make([]IndexEntry, meta.NumLayers)
	byID := make(map[uint16]IndexEntry, meta.NumLayers)
	entryBuf := make([]byte, IndexEntrySize)
	base := int64(header.LayerIndexOffset)
	for i := range index {
		if _, err := r.ReadAt(entryBuf, base+int64(i)*IndexEntrySize); err != nil {
			return nil, fmt.Errorf("lef: read layer index entry %d: %w", i, err)
		}
		e := decodeIndexEntry(entryBuf)
		index[i] = e
		byID[e.LayerID] = e
	}

	return &Reader{r: r, header: header, meta: meta, index: index, byID: byID, compat: compat}, nil
}

// Close releases the underlying file, if Reader opened one itself.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Header returns the decoded file header.
func (r *Reader) Header() *Header { return r.header }

// Metadata returns the decoded model metadata.
func (r *Reader) Metadata() *Metadata { return r.meta }

// NumLayers returns the number of layers recorded in the layer index.
func (r *Reader) NumLayers() int { return len(r.index) }

// LayerIDs returns every layer id present, in index order.
func (r *Reader) LayerIDs() []uint16 {
	ids := make([]uint16, len(r.index))
	for i, e := range r.index {
		ids[i] = e.LayerID
	}
	return ids
}

func (r *Reader) entry(layerID uint16) (IndexEntry, error) {
	e, ok := r.byID[layerID]
	if !ok {
		return IndexEntry{}, fmt.Errorf("lef: layer %d: %w", layerID, errs.ErrNotFound)
	}
	return e, nil
}

// GetLayerHeader reads and decodes layer layerID's LayerHeader without
// touching its tensor bytes.
func (r *Reader) GetLayerHeader(layerID uint16) (LayerHeader, error) {
	e, err := r.entry(layerID)
	if err != nil {
		return LayerHeader{}, err
	}
	buf := make([]byte, LayerHeaderSize)
	if _, err := r.r.ReadAt(buf, int64(e.Offset)); err != nil {
		return LayerHeader{}, fmt.Errorf("lef: read layer %d header: %w", layerID, err)
	}
	return decodeLayerHeader(buf)
}

// GetLayerData returns layer layerID's decompressed tensor bytes,
// verifying the stored CRC-32 before decompression. A checksum mismatch
// returns an error wrapping errs.ErrIntegrity.
func (r *Reader) GetLayerData(layerID uint16) ([]byte, error) {
	e, err := r.entry(layerID)
	if err != nil {
		return nil, err
	}
	headerBuf := make([]byte, LayerHeaderSize)
	if _, err := r.r.ReadAt(headerBuf, int64(e.Offset)); err != nil {
		return nil, fmt.Errorf("lef: read layer %d header: %w", layerID, err)
	}
	lh, err := decodeLayerHeader(headerBuf)
	if err != nil {
		return nil, err
	}

	quantParamsLen, layerMetaLen := r.layerBlobLens(layerID, e, lh)
	payloadOffset := int64(e.Offset) + LayerHeaderSize + int64(quantParamsLen) + int64(layerMetaLen)
	payload := make([]byte, lh.CompressedSize)
	if _, err := r.r.ReadAt(payload, payloadOffset); err != nil {
		return nil, fmt.Errorf("lef: read layer %d payload: %w", layerID, err)
	}

	if crc32.ChecksumIEEE(payload) != lh.Checksum {
		return nil, fmt.Errorf("lef: layer %d checksum mismatch: %w", layerID, errs.ErrIntegrity)
	}

	kind := CompressionNone
	if lh.Flags&LayerFlagCompressed != 0 {
		kind = decodeCompressionFlag(r.header.Flags)
	}
	return decompress(kind, payload, lh.DataSize)
}

// layerBlobLens derives the quant-params/metadata blob lengths that
// precede a layer's payload from the index entry's recorded record size.
func (r *Reader) layerBlobLens(_ uint16, e IndexEntry, lh LayerHeader) (quantParamsLen, layerMetaLen int) {
	remaining := int(e.Size) - LayerHeaderSize - int(lh.CompressedSize)
	if remaining < 0 {
		remaining = 0
	}
	// Writer never emits quant-params/metadata blobs independently of
	// CompressionNone inline sizing today, so the remainder is treated
	// as the combined quant-params+metadata region with no further
	// subdivision available from the on-disk format alone.
	return remaining, 0
}
