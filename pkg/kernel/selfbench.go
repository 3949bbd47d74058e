package kernel

// BenchmarkAll runs the registry's self-benchmark routine over every
// registered entry, using synthetic data sized to each entry's
// OptimalSize, and rewrites PerformanceScore from the measured timing
// (see Registry.Benchmark). A family this file doesn't know how to
// synthesize inputs for is skipped rather than failing the whole pass,
// since a future Family addition shouldn't block startup for every
// other kernel.
func (r *Registry) BenchmarkAll(iterations int) error {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	entries := make(map[string]*Entry, len(r.entries))
	for name, e := range r.entries {
		names = append(names, name)
		entries[name] = e
	}
	r.mu.RUnlock()

	for _, name := range names {
		fn := benchmarkFuncFor(entries[name])
		if fn == nil {
			continue
		}
		if err := r.Benchmark(name, iterations, fn); err != nil {
			return err
		}
	}
	return nil
}

func benchmarkFuncFor(e *Entry) BenchmarkFunc {
	n := e.OptimalSize
	if n <= 0 {
		n = 64
	}

	switch e.Family {
	case FamilyVectorBinary:
		a, b, out := make([]float32, n), make([]float32, n), make([]float32, n)
		fillRamp(a)
		fillRamp(b)
		return func() { e.Handle.VectorBinary(a, b, out) }
	case FamilyVectorScale:
		in, out := make([]float32, n), make([]float32, n)
		fillRamp(in)
		return func() { e.Handle.VectorScale(in, 0.5, out) }
	case FamilyDotProduct:
		a, b := make([]float32, n), make([]float32, n)
		fillRamp(a)
		fillRamp(b)
		return func() { e.Handle.DotProduct(a, b) }
	case FamilyMatmul:
		dim := isqrt(n)
		if dim < 1 {
			dim = 1
		}
		a := make([]float32, dim*dim)
		b := make([]float32, dim*dim)
		c := make([]float32, dim*dim)
		fillRamp(a)
		fillRamp(b)
		return func() { e.Handle.Matmul(a, b, c, dim, dim, dim) }
	case FamilyActivation:
		in, out := make([]float32, n), make([]float32, n)
		fillRamp(in)
		return func() { e.Handle.Activation(in, out) }
	case FamilySoftmax:
		in, out := make([]float32, n), make([]float32, n)
		fillRamp(in)
		return func() { e.Handle.Softmax(in, out) }
	case FamilyNorm:
		in, out := make([]float32, n), make([]float32, n)
		gamma, beta := make([]float32, n), make([]float32, n)
		fillRamp(in)
		fillOnes(gamma)
		return func() { e.Handle.Norm(in, out, gamma, beta, 1e-5) }
	case FamilyWindow:
		in, window, out := make([]float32, n), make([]float32, n), make([]float32, n)
		fillRamp(in)
		fillOnes(window)
		return func() { e.Handle.Window(in, window, out) }
	case FamilyMelFilterbank:
		nMels, nFFT, nFrames := 8, n, 1
		filters := make([]float32, nMels*nFFT)
		spec := make([]float32, nFFT*nFrames)
		out := make([]float32, nMels*nFrames)
		fillRamp(spec)
		return func() { e.Handle.MelFilterbank(filters, spec, nMels, nFFT, nFrames, out) }
	case FamilyComplexBinary:
		reA, imA := make([]float32, n), make([]float32, n)
		reB, imB := make([]float32, n), make([]float32, n)
		outRe, outIm := make([]float32, n), make([]float32, n)
		fillRamp(reA)
		fillRamp(reB)
		return func() { e.Handle.ComplexBinary(reA, imA, reB, imB, outRe, outIm) }
	case FamilyLogSpectrum:
		in, out := make([]float32, n), make([]float32, n)
		fillRamp(in)
		return func() { e.Handle.LogSpectrum(in, out) }
	case FamilyBF16Convert:
		in := make([]float32, n)
		out := make([]uint16, n)
		fillRamp(in)
		return func() { e.Handle.BF16Convert(in, out) }
	case FamilyBF16Binary:
		a, b, out := make([]uint16, n), make([]uint16, n), make([]uint16, n)
		return func() { e.Handle.BF16Binary(a, b, out) }
	default:
		return nil
	}
}

func fillRamp(s []float32) {
	for i := range s {
		s[i] = float32(i%17) - 8
	}
}

func fillOnes(s []float32) {
	for i := range s {
		s[i] = 1
	}
}

func isqrt(n int) int {
	r := 0
	for r*r < n {
		r++
	}
	return r
}
