package kernel

import "math"

// Scalar reference implementations. These are always correct and always
// selectable (RequiredISA: isa.None), so the registry never ends up with
// zero candidates for a primitive even on a host with no detected SIMD
// features. SIMD variants in variants_simd.go must be numerically
// identical to these — they differ only in registry metadata, not in the
// result they compute, since this runtime targets portable Go rather
// than hand-written assembly.

func scalarVectorAdd(a, b, out []float32) {
	n := min3(len(a), len(b), len(out))
	for i := 0; i < n; i++ {
		out[i] = a[i] + b[i]
	}
}

func scalarVectorMul(a, b, out []float32) {
	n := min3(len(a), len(b), len(out))
	for i := 0; i < n; i++ {
		out[i] = a[i] * b[i]
	}
}

func scalarVectorScale(in []float32, s float32, out []float32) {
	n := len(in)
	if len(out) < n {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		out[i] = in[i] * s
	}
}

func scalarDotProduct(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// scalarMatmul computes c[m,n] = a[m,k] * b[k,n] in row-major layout.
func scalarMatmul(a, b, c []float32, m, k, n int) {
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum float32
			for p := 0; p < k; p++ {
				sum += a[i*k+p] * b[p*n+j]
			}
			c[i*n+j] = sum
		}
	}
}

func scalarReLU(in, out []float32) {
	n := min2(len(in), len(out))
	for i := 0; i < n; i++ {
		if in[i] > 0 {
			out[i] = in[i]
		} else {
			out[i] = 0
		}
	}
}

func scalarSigmoid(in, out []float32) {
	n := min2(len(in), len(out))
	for i := 0; i < n; i++ {
		out[i] = float32(1 / (1 + math.Exp(-float64(in[i]))))
	}
}

func scalarTanh(in, out []float32) {
	n := min2(len(in), len(out))
	for i := 0; i < n; i++ {
		out[i] = float32(math.Tanh(float64(in[i])))
	}
}

// scalarGELU uses the tanh approximation, matching common inference
// runtimes' default activation kernel rather than the exact erf form.
func scalarGELU(in, out []float32) {
	const c = 0.7978845608028654 // sqrt(2/pi)
	n := min2(len(in), len(out))
	for i := 0; i < n; i++ {
		x := float64(in[i])
		inner := c * (x + 0.044715*x*x*x)
		out[i] = float32(0.5 * x * (1 + math.Tanh(inner)))
	}
}

func scalarSoftmax(in, out []float32) {
	n := min2(len(in), len(out))
	if n == 0 {
		return
	}
	max := in[0]
	for i := 1; i < n; i++ {
		if in[i] > max {
			max = in[i]
		}
	}
	var sum float32
	for i := 0; i < n; i++ {
		e := float32(math.Exp(float64(in[i] - max)))
		out[i] = e
		sum += e
	}
	if sum == 0 {
		return
	}
	for i := 0; i < n; i++ {
		out[i] /= sum
	}
}

// scalarLayerNorm normalizes in across its whole length using gamma/beta
// affine parameters, matching per-timestep layer normalization.
func scalarLayerNorm(in, out []float32, gamma, beta []float32, eps float32) {
	n := min2(len(in), len(out))
	if n == 0 {
		return
	}
	var mean float32
	for i := 0; i < n; i++ {
		mean += in[i]
	}
	mean /= float32(n)

	var variance float32
	for i := 0; i < n; i++ {
		d := in[i] - mean
		variance += d * d
	}
	variance /= float32(n)

	invStd := float32(1 / math.Sqrt(float64(variance+eps)))
	for i := 0; i < n; i++ {
		g, b := float32(1), float32(0)
		if i < len(gamma) {
			g = gamma[i]
		}
		if i < len(beta) {
			b = beta[i]
		}
		out[i] = (in[i]-mean)*invStd*g + b
	}
}

// scalarBatchNorm applies precomputed per-channel gamma/beta (already
// folded with running mean/variance), i.e. inference-mode batch norm.
func scalarBatchNorm(in, out []float32, gamma, beta []float32, eps float32) {
	n := min2(len(in), len(out))
	for i := 0; i < n; i++ {
		g, b := float32(1), float32(0)
		if i < len(gamma) {
			g = gamma[i]
		}
		if i < len(beta) {
			b = beta[i]
		}
		_ = eps
		out[i] = in[i]*g + b
	}
}

func scalarWindowApply(in, window, out []float32) {
	n := min3(len(in), len(window), len(out))
	for i := 0; i < n; i++ {
		out[i] = in[i] * window[i]
	}
}

// scalarMelFilterbank projects a power/magnitude spectrogram of nFFT/2+1
// bins per frame through an nMels x (nFFT/2+1) filter matrix, for
// nFrames frames, writing nFrames x nMels mel-band energies (frame-major)
// to out.
func scalarMelFilterbank(filters, spec []float32, nMels, nFFT, nFrames int, out []float32) {
	bins := nFFT/2 + 1
	for f := 0; f < nFrames; f++ {
		frameSpec := spec[f*bins : (f+1)*bins]
		for m := 0; m < nMels; m++ {
			row := filters[m*bins : (m+1)*bins]
			var sum float32
			for k := 0; k < bins; k++ {
				sum += row[k] * frameSpec[k]
			}
			out[f*nMels+m] = sum
		}
	}
}

func scalarComplexMul(reA, imA, reB, imB, outRe, outIm []float32) {
	n := len(reA)
	for i := 0; i < n; i++ {
		outRe[i] = reA[i]*reB[i] - imA[i]*imB[i]
		outIm[i] = reA[i]*imB[i] + imA[i]*reB[i]
	}
}

func scalarComplexMagnitude(reA, imA, _, _, outRe, _ []float32) {
	n := len(reA)
	for i := 0; i < n; i++ {
		outRe[i] = float32(math.Hypot(float64(reA[i]), float64(imA[i])))
	}
}

func scalarComplexPhase(reA, imA, _, _, outRe, _ []float32) {
	n := len(reA)
	for i := 0; i < n; i++ {
		outRe[i] = float32(math.Atan2(float64(imA[i]), float64(reA[i])))
	}
}

func scalarLogSpectrum(in, out []float32) {
	n := min2(len(in), len(out))
	for i := 0; i < n; i++ {
		v := in[i]
		if v < 1e-10 {
			v = 1e-10
		}
		out[i] = float32(math.Log(float64(v)))
	}
}

func min2(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func min3(a, b, c int) int {
	return min2(min2(a, b), c)
}
