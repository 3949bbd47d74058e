package kernel

import (
	"errors"
	"fmt"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
)

// Dispatcher is the public call surface inference code uses instead of
// reaching into a Registry directly: one *Optimal method per primitive,
// each resolving to the best registered kernel for the call's data size
// and invoking it. Every method is safe to call from multiple goroutines
// as long as the underlying Registry and SelectionCache are (both are).
type Dispatcher struct {
	reg   *Registry
	cache *SelectionCache
}

// NewDispatcher builds a Dispatcher over reg, optionally memoizing
// selections in cache (nil disables memoization).
func NewDispatcher(reg *Registry, cache *SelectionCache) *Dispatcher {
	return &Dispatcher{reg: reg, cache: cache}
}

func (d *Dispatcher) selectFamily(family Family, hint string, size int) (*Entry, error) {
	e, err := d.reg.SelectCached(d.cache, family, hint, size)
	if err != nil {
		return nil, fmt.Errorf("kernel: dispatch: %w", err)
	}
	return e, nil
}

// withFallback resolves family/hint/size to a registered kernel and hands
// it to use. When the registry has nothing registered for that family
// (a pruned or custom registry, typically), it runs naive instead of
// failing the call outright — naive is the same reference computation
// the scalar kernels in this package implement, just invoked directly
// rather than through a registry entry. Any other selection error (a
// malformed hint, an exhausted kernel budget) still propagates.
func (d *Dispatcher) withFallback(family Family, hint string, size int, naive func(), use func(*Entry)) error {
	e, err := d.selectFamily(family, hint, size)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			naive()
			return nil
		}
		return err
	}
	use(e)
	return nil
}

// VectorAddOptimal computes out = a + b using the best available
// VectorBinary kernel.
func (d *Dispatcher) VectorAddOptimal(a, b, out []float32) error {
	return d.withFallback(FamilyVectorBinary, "add", len(a),
		func() { scalarVectorAdd(a, b, out) },
		func(e *Entry) { e.Handle.VectorBinary(a, b, out) })
}

// VectorMulOptimal computes out = a * b (elementwise).
func (d *Dispatcher) VectorMulOptimal(a, b, out []float32) error {
	return d.withFallback(FamilyVectorBinary, "mul", len(a),
		func() { scalarVectorMul(a, b, out) },
		func(e *Entry) { e.Handle.VectorBinary(a, b, out) })
}

// VectorScaleOptimal computes out = in * s.
func (d *Dispatcher) VectorScaleOptimal(in []float32, s float32, out []float32) error {
	return d.withFallback(FamilyVectorScale, "", len(in),
		func() { scalarVectorScale(in, s, out) },
		func(e *Entry) { e.Handle.VectorScale(in, s, out) })
}

// DotProductOptimal computes the dot product of a and b.
func (d *Dispatcher) DotProductOptimal(a, b []float32) (float32, error) {
	e, err := d.selectFamily(FamilyDotProduct, "", len(a))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return scalarDotProduct(a, b), nil
		}
		return 0, err
	}
	return e.Handle.DotProduct(a, b), nil
}

// MatmulOptimal computes c[m,n] = a[m,k] * b[k,n].
func (d *Dispatcher) MatmulOptimal(a, b, c []float32, m, k, n int) error {
	return d.withFallback(FamilyMatmul, "", m*k*n,
		func() { scalarMatmul(a, b, c, m, k, n) },
		func(e *Entry) { e.Handle.Matmul(a, b, c, m, k, n) })
}

// ReLUOptimal applies ReLU elementwise.
func (d *Dispatcher) ReLUOptimal(in, out []float32) error {
	return d.withFallback(FamilyActivation, "relu", len(in),
		func() { scalarReLU(in, out) },
		func(e *Entry) { e.Handle.Activation(in, out) })
}

// SigmoidOptimal applies the logistic sigmoid elementwise.
func (d *Dispatcher) SigmoidOptimal(in, out []float32) error {
	return d.withFallback(FamilyActivation, "sigmoid", len(in),
		func() { scalarSigmoid(in, out) },
		func(e *Entry) { e.Handle.Activation(in, out) })
}

// TanhOptimal applies tanh elementwise.
func (d *Dispatcher) TanhOptimal(in, out []float32) error {
	return d.withFallback(FamilyActivation, "tanh", len(in),
		func() { scalarTanh(in, out) },
		func(e *Entry) { e.Handle.Activation(in, out) })
}

// GELUOptimal applies the tanh-approximated GELU elementwise.
func (d *Dispatcher) GELUOptimal(in, out []float32) error {
	return d.withFallback(FamilyActivation, "gelu", len(in),
		func() { scalarGELU(in, out) },
		func(e *Entry) { e.Handle.Activation(in, out) })
}

// SoftmaxOptimal applies softmax over in.
func (d *Dispatcher) SoftmaxOptimal(in, out []float32) error {
	return d.withFallback(FamilySoftmax, "", len(in),
		func() { scalarSoftmax(in, out) },
		func(e *Entry) { e.Handle.Softmax(in, out) })
}

// LayerNormOptimal applies layer normalization with affine gamma/beta.
func (d *Dispatcher) LayerNormOptimal(in, out, gamma, beta []float32, eps float32) error {
	return d.withFallback(FamilyNorm, "layernorm", len(in),
		func() { scalarLayerNorm(in, out, gamma, beta, eps) },
		func(e *Entry) { e.Handle.Norm(in, out, gamma, beta, eps) })
}

// BatchNormOptimal applies inference-mode batch normalization.
func (d *Dispatcher) BatchNormOptimal(in, out, gamma, beta []float32, eps float32) error {
	return d.withFallback(FamilyNorm, "batchnorm", len(in),
		func() { scalarBatchNorm(in, out, gamma, beta, eps) },
		func(e *Entry) { e.Handle.Norm(in, out, gamma, beta, eps) })
}

// WindowApplyOptimal multiplies in by window elementwise.
func (d *Dispatcher) WindowApplyOptimal(in, window, out []float32) error {
	return d.withFallback(FamilyWindow, "", len(in),
		func() { scalarWindowApply(in, window, out) },
		func(e *Entry) { e.Handle.Window(in, window, out) })
}

// MelFilterbankOptimal projects spec through the mel filter matrix.
func (d *Dispatcher) MelFilterbankOptimal(filters, spec []float32, nMels, nFFT, nFrames int, out []float32) error {
	return d.withFallback(FamilyMelFilterbank, "", nMels*nFrames,
		func() { scalarMelFilterbank(filters, spec, nMels, nFFT, nFrames, out) },
		func(e *Entry) { e.Handle.MelFilterbank(filters, spec, nMels, nFFT, nFrames, out) })
}

// ComplexMulOptimal multiplies two complex vectors given as separate
// real/imaginary planes.
func (d *Dispatcher) ComplexMulOptimal(reA, imA, reB, imB, outRe, outIm []float32) error {
	return d.withFallback(FamilyComplexBinary, "mul", len(reA),
		func() { scalarComplexMul(reA, imA, reB, imB, outRe, outIm) },
		func(e *Entry) { e.Handle.ComplexBinary(reA, imA, reB, imB, outRe, outIm) })
}

// ComplexMagnitudeOptimal computes |re + i*im| into outMagnitude.
func (d *Dispatcher) ComplexMagnitudeOptimal(re, im, outMagnitude []float32) error {
	return d.withFallback(FamilyComplexBinary, "magnitude", len(re),
		func() { scalarComplexMagnitude(re, im, nil, nil, outMagnitude, nil) },
		func(e *Entry) { e.Handle.ComplexBinary(re, im, nil, nil, outMagnitude, nil) })
}

// ComplexPhaseOptimal computes atan2(im, re) into outPhase.
func (d *Dispatcher) ComplexPhaseOptimal(re, im, outPhase []float32) error {
	return d.withFallback(FamilyComplexBinary, "phase", len(re),
		func() { scalarComplexPhase(re, im, nil, nil, outPhase, nil) },
		func(e *Entry) { e.Handle.ComplexBinary(re, im, nil, nil, outPhase, nil) })
}

// LogSpectrumOptimal computes log(max(in, eps)) elementwise.
func (d *Dispatcher) LogSpectrumOptimal(in, out []float32) error {
	return d.withFallback(FamilyLogSpectrum, "", len(in),
		func() { scalarLogSpectrum(in, out) },
		func(e *Entry) { e.Handle.LogSpectrum(in, out) })
}

// BF16ConvertOptimal converts f32 values to bf16, rounding to nearest
// even.
func (d *Dispatcher) BF16ConvertOptimal(in []float32, out []uint16) error {
	return d.withFallback(FamilyBF16Convert, "", len(in),
		func() { scalarBF16Convert(in, out) },
		func(e *Entry) { e.Handle.BF16Convert(in, out) })
}

// BF16AddOptimal adds two bf16 vectors.
func (d *Dispatcher) BF16AddOptimal(a, b, out []uint16) error {
	return d.withFallback(FamilyBF16Binary, "add", len(a),
		func() { scalarBF16Add(a, b, out) },
		func(e *Entry) { e.Handle.BF16Binary(a, b, out) })
}

// BF16MulOptimal multiplies two bf16 vectors.
func (d *Dispatcher) BF16MulOptimal(a, b, out []uint16) error {
	return d.withFallback(FamilyBF16Binary, "mul", len(a),
		func() { scalarBF16Mul(a, b, out) },
		func(e *Entry) { e.Handle.BF16Binary(a, b, out) })
}
