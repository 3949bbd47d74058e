package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crlotwhite/libetude-sub008/pkg/isa"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	r := NewDefaultRegistry(isa.None, 0)
	cache, err := NewSelectionCache(64)
	require.NoError(t, err)
	t.Cleanup(cache.Close)
	return NewDispatcher(r, cache)
}

func TestVectorAddOptimal(t *testing.T) {
	d := newTestDispatcher(t)
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}
	out := make([]float32, 3)
	require.NoError(t, d.VectorAddOptimal(a, b, out))
	assert.Equal(t, []float32{5, 7, 9}, out)
}

func TestMatmulOptimalIdentity(t *testing.T) {
	d := newTestDispatcher(t)
	a := []float32{1, 0, 0, 1}
	b := []float32{5, 6, 7, 8}
	out := make([]float32, 4)
	require.NoError(t, d.MatmulOptimal(a, b, out, 2, 2, 2))
	assert.Equal(t, []float32{5, 6, 7, 8}, out)
}

func TestReLUOptimal(t *testing.T) {
	d := newTestDispatcher(t)
	in := []float32{-1, 0, 2}
	out := make([]float32, 3)
	require.NoError(t, d.ReLUOptimal(in, out))
	assert.Equal(t, []float32{0, 0, 2}, out)
}

func TestSoftmaxOptimalSumsToOne(t *testing.T) {
	d := newTestDispatcher(t)
	in := []float32{1, 2, 3}
	out := make([]float32, 3)
	require.NoError(t, d.SoftmaxOptimal(in, out))
	var sum float32
	for _, v := range out {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestDotProductOptimal(t *testing.T) {
	d := newTestDispatcher(t)
	v, err := d.DotProductOptimal([]float32{1, 2, 3}, []float32{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, float32(32), v)
}

func TestBF16RoundTripApprox(t *testing.T) {
	d := newTestDispatcher(t)
	in := []float32{1.0, -2.5, 3.14159}
	bf := make([]uint16, 3)
	require.NoError(t, d.BF16ConvertOptimal(in, bf))

	for i, v := range in {
		got := bf16ToF32(bf[i])
		assert.InDelta(t, v, got, 0.03)
	}
}

func TestSelectionCacheHitReturnsSameEntry(t *testing.T) {
	r := NewDefaultRegistry(isa.None, 0)
	cache, err := NewSelectionCache(16)
	require.NoError(t, err)
	defer cache.Close()

	e1, err := r.SelectCached(cache, FamilyVectorBinary, "add", 64)
	require.NoError(t, err)
	e2, err := r.SelectCached(cache, FamilyVectorBinary, "add", 64)
	require.NoError(t, err)
	assert.Same(t, e1, e2)
}

func TestDispatchFallsBackToNaiveOnEmptyRegistry(t *testing.T) {
	r := NewRegistry(isa.None, 0) // deliberately empty: no entries registered
	d := NewDispatcher(r, nil)

	out := make([]float32, 3)
	require.NoError(t, d.VectorAddOptimal([]float32{1, 2, 3}, []float32{4, 5, 6}, out))
	assert.Equal(t, []float32{5, 7, 9}, out)

	v, err := d.DotProductOptimal([]float32{1, 2, 3}, []float32{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, float32(32), v)
}

func TestGPUStubReportsUnavailable(t *testing.T) {
	assert.False(t, GPUAvailable())
	assert.Equal(t, 0, GPUDeviceCount())
	_, err := NewGPUDevice(0)
	require.Error(t, err)
}
