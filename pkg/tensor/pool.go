// Package tensor implements LibEtude's tensor value type and the
// region-based memory pool that backs tensor allocations during
// inference.
//
// The pool is a bump allocator over a chain of fixed-size chunks: Alloc
// never frees individual allocations, only Reset (which invalidates every
// outstanding pointer at once) reclaims space. This matches the spec's
// MemoryPool contract and is the same "allocate, run, reset" lifecycle a
// single inference pass uses.
package tensor

import (
	"fmt"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
)

// MinAlignment is the minimum alignment the pool guarantees for every
// allocation (spec: "fixed alignment (≥ 32 bytes)").
const MinAlignment = 32

// defaultChunkSize is used when a pool is created without an explicit
// chunk size.
const defaultChunkSize = 1 << 20 // 1 MiB

// Pool is a single-owner, non-thread-safe region allocator. Concurrent
// use from multiple goroutines is a programming error the pool does not
// guard against, per the spec's "thread-unsafe by contract" note.
type Pool struct {
	chunkSize int
	alignment int

	chunks []*chunk
	cur    int // index into chunks of the chunk currently being filled

	destroyed bool
}

type chunk struct {
	buf    []byte
	offset int
}

// NewPool creates a Pool that grows by allocating new chunkSize-byte
// regions on demand. A chunkSize ≤ 0 uses a 1 MiB default.
func NewPool(chunkSize int) *Pool {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	p := &Pool{
		chunkSize: chunkSize,
		alignment: MinAlignment,
	}
	p.chunks = append(p.chunks, newChunk(chunkSize))
	return p
}

func newChunk(size int) *chunk {
	return &chunk{buf: make([]byte, size)}
}

// Alloc returns a zeroed, alignment-padded byte slice of exactly size
// bytes carved out of the pool. The returned slice is only valid until
// the next Reset or Destroy.
func (p *Pool) Alloc(size int) ([]byte, error) {
	if p.destroyed {
		return nil, fmt.Errorf("tensor: alloc on destroyed pool: %w", errs.ErrInvalidState)
	}
	if size < 0 {
		return nil, fmt.Errorf("tensor: negative alloc size %d: %w", size, errs.ErrInvalidArgument)
	}
	if size == 0 {
		return []byte{}, nil
	}

	c := p.chunks[p.cur]
	aligned := align(c.offset, p.alignment)

	if aligned+size > len(c.buf) {
		// Current chunk can't satisfy the request; grow.
		needed := size
		if needed < p.chunkSize {
			needed = p.chunkSize
		}
		// Round up for alignment headroom.
		needed += p.alignment
		p.chunks = append(p.chunks, newChunk(needed))
		p.cur = len(p.chunks) - 1
		c = p.chunks[p.cur]
		aligned = align(0, p.alignment)
	}

	out := c.buf[aligned : aligned+size]
	clear(out)
	c.offset = aligned + size
	return out, nil
}

// Reset invalidates every outstanding allocation and makes the pool's
// capacity available again. A pool with a single chunk keeps it and
// rewinds it; a pool that grew past one chunk drops its chunks and starts
// over with one new chunk of their combined size. Callers must not dereference any slice obtained from Alloc
// before this Reset call.
func (p *Pool) Reset() {
	if len(p.chunks) > 1 {
		// Collapse back to a single chunk sized to the total capacity used,
		// so steady-state inference loops don't keep reallocating.
		total := 0
		for _, c := range p.chunks {
			total += len(c.buf)
		}
		p.chunks = []*chunk{newChunk(total)}
	} else {
		p.chunks[0].offset = 0
	}
	p.cur = 0
}

// Destroy releases the pool's backing storage. The pool must not be used
// afterward.
func (p *Pool) Destroy() {
	p.chunks = nil
	p.destroyed = true
}

// Destroyed reports whether Destroy has been called.
func (p *Pool) Destroyed() bool { return p.destroyed }

// Capacity returns the total number of bytes across all chunks,
// allocated or not.
func (p *Pool) Capacity() int {
	total := 0
	for _, c := range p.chunks {
		total += len(c.buf)
	}
	return total
}

func align(offset, alignment int) int {
	rem := offset % alignment
	if rem == 0 {
		return offset
	}
	return offset + (alignment - rem)
}
