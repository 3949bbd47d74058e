package kernel

import "github.com/crlotwhite/libetude-sub008/pkg/isa"

// NewDefaultRegistry builds a Registry gated to mask and populates it
// with every scalar kernel plus every SIMD variant whose RequiredISA
// mask is non-empty, skipped automatically by Register when the host
// doesn't support it. Scalar entries always register since their
// RequiredISA is isa.None.
func NewDefaultRegistry(mask isa.Mask, cacheSize int) *Registry {
	r := NewRegistry(mask, cacheSize)
	for _, e := range defaultEntries() {
		// Unsupported-ISA registrations are expected and silently
		// skipped: a host without AVX2 simply never gets avx2Matmul.
		_ = r.Register(e)
	}
	return r
}

func defaultEntries() []*Entry {
	return []*Entry{
		// Scalar reference kernels: always available.
		{Name: "vector_add_scalar", Family: FamilyVectorBinary, RequiredISA: isa.None, OptimalSize: 64, PerformanceScore: 1, Handle: Handle{VectorBinary: scalarVectorAdd}},
		{Name: "vector_mul_scalar", Family: FamilyVectorBinary, RequiredISA: isa.None, OptimalSize: 64, PerformanceScore: 1, Handle: Handle{VectorBinary: scalarVectorMul}},
		{Name: "vector_scale_scalar", Family: FamilyVectorScale, RequiredISA: isa.None, OptimalSize: 64, PerformanceScore: 1, Handle: Handle{VectorScale: scalarVectorScale}},
		{Name: "dot_product_scalar", Family: FamilyDotProduct, RequiredISA: isa.None, OptimalSize: 64, PerformanceScore: 1, Handle: Handle{DotProduct: scalarDotProduct}},
		{Name: "matmul_scalar", Family: FamilyMatmul, RequiredISA: isa.None, OptimalSize: 64, PerformanceScore: 1, Handle: Handle{Matmul: scalarMatmul}},
		{Name: "relu_scalar", Family: FamilyActivation, RequiredISA: isa.None, OptimalSize: 64, PerformanceScore: 1, Handle: Handle{Activation: scalarReLU}},
		{Name: "sigmoid_scalar", Family: FamilyActivation, RequiredISA: isa.None, OptimalSize: 64, PerformanceScore: 1, Handle: Handle{Activation: scalarSigmoid}},
		{Name: "tanh_scalar", Family: FamilyActivation, RequiredISA: isa.None, OptimalSize: 64, PerformanceScore: 1, Handle: Handle{Activation: scalarTanh}},
		{Name: "gelu_scalar", Family: FamilyActivation, RequiredISA: isa.None, OptimalSize: 64, PerformanceScore: 1, Handle: Handle{Activation: scalarGELU}},
		{Name: "softmax_scalar", Family: FamilySoftmax, RequiredISA: isa.None, OptimalSize: 64, PerformanceScore: 1, Handle: Handle{Softmax: scalarSoftmax}},
		{Name: "layernorm_scalar", Family: FamilyNorm, RequiredISA: isa.None, OptimalSize: 64, PerformanceScore: 1, Handle: Handle{Norm: scalarLayerNorm}},
		{Name: "batchnorm_scalar", Family: FamilyNorm, RequiredISA: isa.None, OptimalSize: 64, PerformanceScore: 1, Handle: Handle{Norm: scalarBatchNorm}},
		{Name: "window_apply_scalar", Family: FamilyWindow, RequiredISA: isa.None, OptimalSize: 1024, PerformanceScore: 1, Handle: Handle{Window: scalarWindowApply}},
		{Name: "mel_filterbank_scalar", Family: FamilyMelFilterbank, RequiredISA: isa.None, OptimalSize: 80, PerformanceScore: 1, Handle: Handle{MelFilterbank: scalarMelFilterbank}},
		{Name: "complex_mul_scalar", Family: FamilyComplexBinary, RequiredISA: isa.None, OptimalSize: 512, PerformanceScore: 1, Handle: Handle{ComplexBinary: scalarComplexMul}},
		{Name: "complex_magnitude_scalar", Family: FamilyComplexBinary, RequiredISA: isa.None, OptimalSize: 512, PerformanceScore: 1, Handle: Handle{ComplexBinary: scalarComplexMagnitude}},
		{Name: "complex_phase_scalar", Family: FamilyComplexBinary, RequiredISA: isa.None, OptimalSize: 512, PerformanceScore: 1, Handle: Handle{ComplexBinary: scalarComplexPhase}},
		{Name: "log_spectrum_scalar", Family: FamilyLogSpectrum, RequiredISA: isa.None, OptimalSize: 512, PerformanceScore: 1, Handle: Handle{LogSpectrum: scalarLogSpectrum}},
		{Name: "bf16_convert_scalar", Family: FamilyBF16Convert, RequiredISA: isa.None, OptimalSize: 64, PerformanceScore: 1, Handle: Handle{BF16Convert: scalarBF16Convert}},
		{Name: "bf16_add_scalar", Family: FamilyBF16Binary, RequiredISA: isa.None, OptimalSize: 64, PerformanceScore: 1, Handle: Handle{BF16Binary: scalarBF16Add}},
		{Name: "bf16_mul_scalar", Family: FamilyBF16Binary, RequiredISA: isa.None, OptimalSize: 64, PerformanceScore: 1, Handle: Handle{BF16Binary: scalarBF16Mul}},

		// SSE: modest vector width, registered with a conservative score.
		{Name: "vector_add_sse", Family: FamilyVectorBinary, RequiredISA: isa.SSE2, OptimalSize: 128, PerformanceScore: 2, Handle: Handle{VectorBinary: sseVectorAdd}},
		{Name: "vector_mul_sse", Family: FamilyVectorBinary, RequiredISA: isa.SSE2, OptimalSize: 128, PerformanceScore: 2, Handle: Handle{VectorBinary: sseVectorMul}},
		{Name: "dot_product_sse", Family: FamilyDotProduct, RequiredISA: isa.SSE2, OptimalSize: 128, PerformanceScore: 2, Handle: Handle{DotProduct: sseDotProduct}},

		// AVX / AVX2: wider vectors, higher score.
		{Name: "vector_add_avx", Family: FamilyVectorBinary, RequiredISA: isa.AVX, OptimalSize: 256, PerformanceScore: 3, Handle: Handle{VectorBinary: avxVectorAdd}},
		{Name: "vector_mul_avx", Family: FamilyVectorBinary, RequiredISA: isa.AVX, OptimalSize: 256, PerformanceScore: 3, Handle: Handle{VectorBinary: avxVectorMul}},
		{Name: "dot_product_avx", Family: FamilyDotProduct, RequiredISA: isa.AVX, OptimalSize: 256, PerformanceScore: 3, Handle: Handle{DotProduct: avxDotProduct}},
		{Name: "matmul_avx", Family: FamilyMatmul, RequiredISA: isa.AVX, OptimalSize: 256, PerformanceScore: 3, Handle: Handle{Matmul: avxMatmul}},
		{Name: "vector_add_avx2", Family: FamilyVectorBinary, RequiredISA: isa.AVX2, OptimalSize: 512, PerformanceScore: 4, Handle: Handle{VectorBinary: avx2VectorAdd}},
		{Name: "matmul_avx2", Family: FamilyMatmul, RequiredISA: isa.AVX2, OptimalSize: 512, PerformanceScore: 4, Handle: Handle{Matmul: avx2Matmul}},
		{Name: "softmax_avx2", Family: FamilySoftmax, RequiredISA: isa.AVX2, OptimalSize: 512, PerformanceScore: 4, Handle: Handle{Softmax: avx2Softmax}},

		// AVX-512: widest x86 vectors, top desktop score.
		{Name: "matmul_avx512", Family: FamilyMatmul, RequiredISA: isa.AVX512F, OptimalSize: 1024, PerformanceScore: 5, Handle: Handle{Matmul: avx512Matmul}},
		{Name: "vector_add_avx512", Family: FamilyVectorBinary, RequiredISA: isa.AVX512F, OptimalSize: 1024, PerformanceScore: 5, Handle: Handle{VectorBinary: avx512VectorAdd}},

		// NEON: mobile/ARM baseline.
		{Name: "vector_add_neon", Family: FamilyVectorBinary, RequiredISA: isa.NEON, OptimalSize: 128, PerformanceScore: 3, Handle: Handle{VectorBinary: neonVectorAdd}},
		{Name: "vector_mul_neon", Family: FamilyVectorBinary, RequiredISA: isa.NEON, OptimalSize: 128, PerformanceScore: 3, Handle: Handle{VectorBinary: neonVectorMul}},
		{Name: "matmul_neon", Family: FamilyMatmul, RequiredISA: isa.NEON, OptimalSize: 256, PerformanceScore: 3, Handle: Handle{Matmul: neonMatmul}},
		{Name: "dot_product_neon", Family: FamilyDotProduct, RequiredISA: isa.NEON, OptimalSize: 128, PerformanceScore: 3, Handle: Handle{DotProduct: neonDotProduct}},

		// Mobile-specialized NEON variants: same compute, named so a
		// battery-constrained caller can select them by substring.
		{Name: "matmul_neon_power_efficient", Family: FamilyMatmul, RequiredISA: isa.NEON, OptimalSize: 256, PerformanceScore: 2.5, Handle: Handle{Matmul: neonMatmulPowerEfficient}},
		{Name: "matmul_neon_thermal_aware", Family: FamilyMatmul, RequiredISA: isa.NEON, OptimalSize: 256, PerformanceScore: 2.5, Handle: Handle{Matmul: neonMatmulThermalAware}},
		{Name: "vector_add_neon_low_power", Family: FamilyVectorBinary, RequiredISA: isa.NEON, OptimalSize: 128, PerformanceScore: 2, Handle: Handle{VectorBinary: neonVectorAddLowPower}},
		{Name: "matmul_neon_adaptive", Family: FamilyMatmul, RequiredISA: isa.NEON, OptimalSize: 256, PerformanceScore: 2.8, Handle: Handle{Matmul: neonMatmulAdaptive}},

		// BF16 conversion has no ISA-gated fast path in this runtime; it
		// is listed once under the scalar entries above.
	}
}
