package operator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crlotwhite/libetude-sub008/pkg/isa"
	"github.com/crlotwhite/libetude-sub008/pkg/kernel"
	"github.com/crlotwhite/libetude-sub008/pkg/tensor"
)

func newTestDispatch(t *testing.T) *kernel.Dispatcher {
	t.Helper()
	reg := kernel.NewDefaultRegistry(isa.None, 0)
	return kernel.NewDispatcher(reg, nil)
}

func tensorOf(t *testing.T, pool *tensor.Pool, shape []int, vals []float32) *tensor.Tensor {
	t.Helper()
	ts, err := tensor.New(pool, tensor.F32, shape)
	require.NoError(t, err)
	require.NoError(t, ts.SetFloat32(vals))
	return ts
}

func TestReLUOperatorForward(t *testing.T) {
	d := newTestDispatch(t)
	reg := NewRegistry(d)
	op, err := reg.Build("relu", nil)
	require.NoError(t, err)

	pool := tensor.NewPool(4096)
	in := tensorOf(t, pool, []int{3}, []float32{-1, 0, 2})
	out, err := tensor.New(pool, tensor.F32, []int{3})
	require.NoError(t, err)

	require.NoError(t, op.Forward([]*tensor.Tensor{in}, []*tensor.Tensor{out}))
	vals, err := out.Float32()
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 2}, vals)
}

func TestLinearOperatorForward(t *testing.T) {
	d := newTestDispatch(t)
	reg := NewRegistry(d)
	op, err := reg.Build("linear", map[string]any{"in_features": 2, "out_features": 2})
	require.NoError(t, err)

	pool := tensor.NewPool(4096)
	x := tensorOf(t, pool, []int{1, 2}, []float32{1, 2})
	w := tensorOf(t, pool, []int{2, 2}, []float32{1, 0, 0, 1})
	out, err := tensor.New(pool, tensor.F32, []int{1, 2})
	require.NoError(t, err)

	require.NoError(t, op.Forward([]*tensor.Tensor{x, w}, []*tensor.Tensor{out}))
	vals, err := out.Float32()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, vals)
}

func TestMelScaleFilterbankShape(t *testing.T) {
	filters := buildMelFilterbank(4, 16, 8000, 0, 4000)
	assert.Len(t, filters, 4*(16/2+1))
}

func TestUnknownOperatorTypeErrors(t *testing.T) {
	d := newTestDispatch(t)
	reg := NewRegistry(d)
	_, err := reg.Build("does_not_exist", nil)
	require.Error(t, err)
}

func TestSTFTOperatorForwardProducesMagnitudeAndPhase(t *testing.T) {
	d := newTestDispatch(t)
	reg := NewRegistry(d)
	op, err := reg.Build("stft", map[string]any{"fft_size": 8, "hop_size": 4})
	require.NoError(t, err)

	pool := tensor.NewPool(4096)
	wave := make([]float32, 16)
	for i := range wave {
		wave[i] = float32(i)
	}
	in := tensorOf(t, pool, []int{len(wave)}, wave)

	bins := 8/2 + 1
	nFrames := (len(wave)-8)/4 + 1
	mag, err := tensor.New(pool, tensor.F32, []int{nFrames, bins})
	require.NoError(t, err)
	phase, err := tensor.New(pool, tensor.F32, []int{nFrames, bins})
	require.NoError(t, err)

	require.NoError(t, op.Forward([]*tensor.Tensor{in}, []*tensor.Tensor{mag, phase}))

	magVals, err := mag.Float32()
	require.NoError(t, err)
	phaseVals, err := phase.Float32()
	require.NoError(t, err)
	assert.Len(t, magVals, nFrames*bins)
	assert.Len(t, phaseVals, nFrames*bins)

	// too few outputs must be rejected rather than silently dropping phase
	_, err = tensor.New(pool, tensor.F32, []int{nFrames, bins})
	require.NoError(t, err)
	require.Error(t, op.Forward([]*tensor.Tensor{in}, []*tensor.Tensor{mag}))
}

func TestSTFTMelScaleFusedOperatorForward(t *testing.T) {
	d := newTestDispatch(t)
	reg := NewRegistry(d)
	op, err := reg.Build("stft_mel_scale_fused", map[string]any{
		"producer_fft_size": 8, "producer_hop_size": 4,
		"n_mels": 4, "sample_rate": 8000,
	})
	require.NoError(t, err)

	pool := tensor.NewPool(4096)
	wave := make([]float32, 16)
	for i := range wave {
		wave[i] = float32(i)
	}
	in := tensorOf(t, pool, []int{len(wave)}, wave)
	nFrames := (len(wave)-8)/4 + 1
	out, err := tensor.New(pool, tensor.F32, []int{nFrames, 4})
	require.NoError(t, err)

	require.NoError(t, op.Forward([]*tensor.Tensor{in}, []*tensor.Tensor{out}))
	vals, err := out.Float32()
	require.NoError(t, err)
	assert.Len(t, vals, nFrames*4)
}

func TestAttentionCausalMaskZeroesFutureWeights(t *testing.T) {
	d := newTestDispatch(t)
	reg := NewRegistry(d)
	op, err := reg.Build("attention", map[string]any{"d_model": 2, "causal": true})
	require.NoError(t, err)

	pool := tensor.NewPool(4096)
	// 3 positions, d_model 2; values chosen so attention to the future
	// would change position 0's output if the mask were not applied.
	q := tensorOf(t, pool, []int{3, 2}, []float32{1, 0, 1, 0, 1, 0})
	k := tensorOf(t, pool, []int{3, 2}, []float32{1, 0, 1, 0, 1, 0})
	v := tensorOf(t, pool, []int{3, 2}, []float32{1, 1, 2, 2, 3, 3})
	out, err := tensor.New(pool, tensor.F32, []int{3, 2})
	require.NoError(t, err)

	require.NoError(t, op.Forward([]*tensor.Tensor{q, k, v}, []*tensor.Tensor{out}))
	vals, err := out.Float32()
	require.NoError(t, err)
	// position 0 can only attend to itself, so its output must equal v[0].
	assert.InDelta(t, 1, vals[0], 1e-4)
	assert.InDelta(t, 1, vals[1], 1e-4)
}

func TestConv1DDilationAndBias(t *testing.T) {
	d := newTestDispatch(t)
	reg := NewRegistry(d)
	op, err := reg.Build("conv1d", map[string]any{
		"in_channels": 1, "out_channels": 1, "kernel_size": 2, "dilation": 2,
	})
	require.NoError(t, err)

	pool := tensor.NewPool(4096)
	// length 5, kernel_size 2, dilation 2, stride 1, padding 0:
	// outLen = (5 - 2*(2-1) - 1)/1 + 1 = 3
	x := tensorOf(t, pool, []int{1, 5}, []float32{1, 2, 3, 4, 5})
	w := tensorOf(t, pool, []int{1, 2}, []float32{1, 1})
	bias := tensorOf(t, pool, []int{1}, []float32{10})
	out, err := tensor.New(pool, tensor.F32, []int{1, 3})
	require.NoError(t, err)

	require.NoError(t, op.Forward([]*tensor.Tensor{x, w, bias}, []*tensor.Tensor{out}))
	vals, err := out.Float32()
	require.NoError(t, err)
	// taps are x[t] and x[t+dilation]: (1+3)+10, (2+4)+10, (3+5)+10
	assert.Equal(t, []float32{14, 16, 18}, vals)
}

func TestLayerNormOperatorForward(t *testing.T) {
	d := newTestDispatch(t)
	reg := NewRegistry(d)
	op, err := reg.Build("layer_norm", map[string]any{"eps": 1e-5})
	require.NoError(t, err)

	pool := tensor.NewPool(4096)
	in := tensorOf(t, pool, []int{4}, []float32{1, 2, 3, 4})
	gamma := tensorOf(t, pool, []int{4}, []float32{1, 1, 1, 1})
	beta := tensorOf(t, pool, []int{4}, []float32{0, 0, 0, 0})
	out, err := tensor.New(pool, tensor.F32, []int{4})
	require.NoError(t, err)

	require.NoError(t, op.Forward([]*tensor.Tensor{in, gamma, beta}, []*tensor.Tensor{out}))
	vals, err := out.Float32()
	require.NoError(t, err)
	var mean float32
	for _, v := range vals {
		mean += v
	}
	assert.InDelta(t, 0, mean/float32(len(vals)), 1e-4)
}
