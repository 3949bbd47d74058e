package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolAllocAlignment(t *testing.T) {
	p := NewPool(4096)
	a, err := p.Alloc(7)
	require.NoError(t, err)
	b, err := p.Alloc(7)
	require.NoError(t, err)
	assert.Len(t, a, 7)
	assert.Len(t, b, 7)
	// a ends at offset 7, so b starts at the next MinAlignment boundary.
	assert.Equal(t, MinAlignment+7, p.chunks[0].offset)
}

func TestPoolAllocZero(t *testing.T) {
	p := NewPool(4096)
	out, err := p.Alloc(0)
	require.NoError(t, err)
	assert.Len(t, out, 0)
}

func TestPoolAllocNegativeRejected(t *testing.T) {
	p := NewPool(4096)
	_, err := p.Alloc(-1)
	require.Error(t, err)
}

func TestPoolGrowsAcrossChunks(t *testing.T) {
	p := NewPool(64)
	_, err := p.Alloc(1000)
	require.NoError(t, err)
	assert.Greater(t, p.Capacity(), 64)
}

func TestPoolResetReclaimsSpace(t *testing.T) {
	p := NewPool(1024)
	_, err := p.Alloc(900)
	require.NoError(t, err)
	p.Reset()
	out, err := p.Alloc(900)
	require.NoError(t, err)
	assert.Len(t, out, 900)
}

func TestPoolDestroyRejectsFurtherAlloc(t *testing.T) {
	p := NewPool(1024)
	p.Destroy()
	assert.True(t, p.Destroyed())
	_, err := p.Alloc(8)
	require.Error(t, err)
}

func TestPoolAllocationsDoNotOverlap(t *testing.T) {
	p := NewPool(4096)
	a, err := p.Alloc(100)
	require.NoError(t, err)
	b, err := p.Alloc(100)
	require.NoError(t, err)

	for i := range a {
		a[i] = 0xAA
	}
	for i := range b {
		b[i] = 0xBB
	}
	for i := range a {
		assert.Equal(t, byte(0xAA), a[i])
	}
}
