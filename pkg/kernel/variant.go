// Package kernel implements the SIMD-kernel registry, dispatch façade,
// and the scalar/SSE/AVX/NEON/GPU-stub kernel implementations themselves.
//
// Kernel entries do not store a bare function pointer. Per the design
// note "function pointers → variant dispatch", each entry carries a
// Handle — a tagged union over one function-typed field per primitive
// family — so the registry API stays fully type-checked: a caller that
// asks the registry to Select a VectorBinary kernel gets back something
// it can type-assert to a VectorBinaryFunc, never a void*.
package kernel

// Family identifies which function signature a KernelEntry's Handle
// carries.
type Family uint8

const (
	FamilyVectorBinary Family = iota // add, mul: (a, b, out []float32)
	FamilyVectorScale                // scale: (in []float32, s float32, out []float32)
	FamilyDotProduct                 // dot: (a, b []float32) float32
	FamilyMatmul                     // gemm: (a, b, c []float32, m, k, n int)
	FamilyActivation                 // relu/sigmoid/tanh/gelu: (in, out []float32)
	FamilySoftmax                    // softmax: (in, out []float32)
	FamilyNorm                       // layernorm/batchnorm: (in, out []float32, gamma, beta []float32, eps float32)
	FamilyWindow                     // window apply: (in, window, out []float32)
	FamilyMelFilterbank              // mel: (filters, spec []float32, nMels, nFFT, nFrames int, out []float32)
	FamilyComplexBinary              // complex mul/magnitude: (reA, imA, reB, imB []float32, outRe, outIm []float32)
	FamilyLogSpectrum                // log-spectrum: (in, out []float32)
	FamilyBF16Convert                // bf16 convert: (in []float32, out []uint16)
	FamilyBF16Binary                 // bf16 add/mul: (a, b []uint16, out []uint16)
)

func (f Family) String() string {
	switch f {
	case FamilyVectorBinary:
		return "VectorBinary"
	case FamilyVectorScale:
		return "VectorScale"
	case FamilyDotProduct:
		return "DotProduct"
	case FamilyMatmul:
		return "Matmul"
	case FamilyActivation:
		return "Activation"
	case FamilySoftmax:
		return "Softmax"
	case FamilyNorm:
		return "Norm"
	case FamilyWindow:
		return "Window"
	case FamilyMelFilterbank:
		return "MelFilterbank"
	case FamilyComplexBinary:
		return "ComplexBinary"
	case FamilyLogSpectrum:
		return "LogSpectrum"
	case FamilyBF16Convert:
		return "BF16Convert"
	case FamilyBF16Binary:
		return "BF16Binary"
	default:
		return "Unknown"
	}
}

// Function signatures, one per Family. A Handle is exactly one of these,
// selected by the KernelEntry's Family tag.
type (
	VectorBinaryFunc func(a, b, out []float32)
	VectorScaleFunc  func(in []float32, s float32, out []float32)
	DotProductFunc   func(a, b []float32) float32
	MatmulFunc       func(a, b, c []float32, m, k, n int)
	ActivationFunc   func(in, out []float32)
	SoftmaxFunc      func(in, out []float32)
	NormFunc         func(in, out []float32, gamma, beta []float32, eps float32)
	WindowFunc       func(in, window, out []float32)
	MelFilterbankFunc func(filters, spec []float32, nMels, nFFT, nFrames int, out []float32)
	ComplexBinaryFunc func(reA, imA, reB, imB, outRe, outIm []float32)
	LogSpectrumFunc  func(in, out []float32)
	BF16ConvertFunc  func(in []float32, out []uint16)
	BF16BinaryFunc   func(a, b, out []uint16)
)

// Handle is the tagged variant a KernelEntry carries. Exactly one field
// matching the entry's Family is non-nil.
type Handle struct {
	VectorBinary  VectorBinaryFunc
	VectorScale   VectorScaleFunc
	DotProduct    DotProductFunc
	Matmul        MatmulFunc
	Activation    ActivationFunc
	Softmax       SoftmaxFunc
	Norm          NormFunc
	Window        WindowFunc
	MelFilterbank MelFilterbankFunc
	ComplexBinary ComplexBinaryFunc
	LogSpectrum   LogSpectrumFunc
	BF16Convert   BF16ConvertFunc
	BF16Binary    BF16BinaryFunc
}
