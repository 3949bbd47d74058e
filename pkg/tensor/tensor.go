package tensor

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
)

// DType is a tensor element type.
type DType uint8

const (
	F32 DType = iota
	BF16
	Int8
	Int4
	MixedQuantized
)

// byteWidth returns the per-element storage width for fixed-width
// dtypes; MixedQuantized has no fixed width and must be sized by the
// caller from the LEF layer header instead.
func (d DType) byteWidth() (int, bool) {
	switch d {
	case F32:
		return 4, true
	case BF16:
		return 2, true
	case Int8:
		return 1, true
	case Int4:
		return 1, false // packed two-per-byte; caller must special-case
	default:
		return 0, false
	}
}

// Tensor is an N-dimensional array view over memory owned either by a
// Pool or by the caller (external buffers are never freed by a Tensor).
type Tensor struct {
	Dtype   DType
	Shape   []int
	Data    []byte
	Pool    *Pool
	Owned   bool // true when Data was carved out of Pool
	numElem int
}

// New allocates a tensor of the given dtype and shape from pool. Pool
// must not be nil; use Wrap to build a tensor over externally-owned
// memory.
func New(pool *Pool, dtype DType, shape []int) (*Tensor, error) {
	if pool == nil {
		return nil, fmt.Errorf("tensor: New requires a non-nil pool: %w", errs.ErrInvalidArgument)
	}
	n, err := elementCount(shape)
	if err != nil {
		return nil, err
	}
	width, fixed := dtype.byteWidth()
	if !fixed {
		return nil, fmt.Errorf("tensor: New does not support dtype %v without explicit byte size: %w", dtype, errs.ErrInvalidArgument)
	}
	data, err := pool.Alloc(n * width)
	if err != nil {
		return nil, fmt.Errorf("tensor: alloc %d elements: %w", n, err)
	}
	return &Tensor{
		Dtype:   dtype,
		Shape:   append([]int(nil), shape...),
		Data:    data,
		Pool:    pool,
		Owned:   true,
		numElem: n,
	}, nil
}

// Wrap builds a Tensor over externally-owned memory. The returned
// Tensor never frees data, even when its owning Pool is reset or
// destroyed.
func Wrap(dtype DType, shape []int, data []byte) (*Tensor, error) {
	n, err := elementCount(shape)
	if err != nil {
		return nil, err
	}
	return &Tensor{
		Dtype:   dtype,
		Shape:   append([]int(nil), shape...),
		Data:    data,
		Owned:   false,
		numElem: n,
	}, nil
}

// ElementCount returns product(shape).
func (t *Tensor) ElementCount() int { return t.numElem }

// Rank returns len(shape).
func (t *Tensor) Rank() int { return len(t.Shape) }

// Float32 views t.Data as a []float32. t.Dtype must be F32.
func (t *Tensor) Float32() ([]float32, error) {
	if t.Dtype != F32 {
		return nil, fmt.Errorf("tensor: Float32 called on dtype %v: %w", t.Dtype, errs.ErrInvalidArgument)
	}
	out := make([]float32, t.numElem)
	for i := 0; i < t.numElem; i++ {
		bits := binary.LittleEndian.Uint32(t.Data[i*4 : i*4+4])
		out[i] = math.Float32frombits(bits)
	}
	return out, nil
}

// SetFloat32 writes vals into t.Data as little-endian IEEE-754 f32.
// len(vals) must equal t.ElementCount().
func (t *Tensor) SetFloat32(vals []float32) error {
	if t.Dtype != F32 {
		return fmt.Errorf("tensor: SetFloat32 called on dtype %v: %w", t.Dtype, errs.ErrInvalidArgument)
	}
	if len(vals) != t.numElem {
		return fmt.Errorf("tensor: SetFloat32 expected %d elements, got %d: %w", t.numElem, len(vals), errs.ErrInvalidArgument)
	}
	if len(t.Data) < t.numElem*4 {
		return fmt.Errorf("tensor: backing buffer too small: %w", errs.ErrInvalidState)
	}
	for i, v := range vals {
		binary.LittleEndian.PutUint32(t.Data[i*4:i*4+4], math.Float32bits(v))
	}
	return nil
}

func elementCount(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, fmt.Errorf("tensor: shape must have rank ≥ 1: %w", errs.ErrInvalidArgument)
	}
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("tensor: negative shape dimension %d: %w", d, errs.ErrInvalidArgument)
		}
		n *= d
	}
	return n, nil
}
