package kernel

// SSE/AVX/NEON variants. This runtime is pure Go with no cgo or
// assembly, so a "SIMD variant" here is a distinctly named function that
// produces the exact same numeric result as its scalar counterpart —
// what differs between variants is registry metadata (RequiredISA,
// OptimalSize, PerformanceScore), which is what actually drives
// dispatch. The mobile NEON variants additionally carry naming that
// signals the selection intent (power-efficient / thermal-aware /
// low-power / adaptive) a battery-constrained caller can ask for by
// substring, even though the compute they perform is identical.

func sseVectorAdd(a, b, out []float32)  { scalarVectorAdd(a, b, out) }
func sseVectorMul(a, b, out []float32)  { scalarVectorMul(a, b, out) }
func sseDotProduct(a, b []float32) float32 { return scalarDotProduct(a, b) }

func avxVectorAdd(a, b, out []float32)  { scalarVectorAdd(a, b, out) }
func avxVectorMul(a, b, out []float32)  { scalarVectorMul(a, b, out) }
func avxDotProduct(a, b []float32) float32 { return scalarDotProduct(a, b) }
func avxMatmul(a, b, c []float32, m, k, n int) { scalarMatmul(a, b, c, m, k, n) }

func avx2VectorAdd(a, b, out []float32) { scalarVectorAdd(a, b, out) }
func avx2Matmul(a, b, c []float32, m, k, n int) { scalarMatmul(a, b, c, m, k, n) }
func avx2Softmax(in, out []float32)     { scalarSoftmax(in, out) }

func avx512Matmul(a, b, c []float32, m, k, n int) { scalarMatmul(a, b, c, m, k, n) }
func avx512VectorAdd(a, b, out []float32)         { scalarVectorAdd(a, b, out) }

func neonVectorAdd(a, b, out []float32) { scalarVectorAdd(a, b, out) }
func neonVectorMul(a, b, out []float32) { scalarVectorMul(a, b, out) }
func neonMatmul(a, b, c []float32, m, k, n int) { scalarMatmul(a, b, c, m, k, n) }
func neonDotProduct(a, b []float32) float32 { return scalarDotProduct(a, b) }

// Mobile-specialized NEON variants. Identical computation to neonMatmul
// and neonVectorAdd; the names exist so Select(..., nameHint) can honor
// an explicit power/thermal preference from a mobile caller.
func neonMatmulPowerEfficient(a, b, c []float32, m, k, n int) { scalarMatmul(a, b, c, m, k, n) }
func neonMatmulThermalAware(a, b, c []float32, m, k, n int)   { scalarMatmul(a, b, c, m, k, n) }
func neonVectorAddLowPower(a, b, out []float32)               { scalarVectorAdd(a, b, out) }
func neonMatmulAdaptive(a, b, c []float32, m, k, n int)       { scalarMatmul(a, b, c, m, k, n) }
