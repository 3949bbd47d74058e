// Package isa detects the instruction-set extensions and CPU topology of
// the host process. Detection is best-effort and never hard-fails: a
// feature that cannot be confirmed present is reported absent, so the
// kernel registry always has a safe scalar fallback to select.
//
// Feature bits come from golang.org/x/sys/cpu, which already does the
// leaf-1/leaf-7 CPUID probing intersected with the OS's XCR0 state-save
// report on x86, and the platform-probe equivalent on arm64 — there is no
// reason to hand-roll CPUID here.
package isa

import (
	"strings"
	"sync"

	"golang.org/x/sys/cpu"
)

// Mask is a bitmask of ISA extensions available in this process.
type Mask uint32

const (
	None Mask = 0

	SSE Mask = 1 << iota
	SSE2
	SSE3
	SSSE3
	SSE41
	SSE42
	AVX
	AVX2
	AVX512F
	AVX512DQ
	AVX512BW
	AVX512VL
	NEON
	FMA
)

var bitNames = []struct {
	bit  Mask
	name string
}{
	{SSE, "SSE"},
	{SSE2, "SSE2"},
	{SSE3, "SSE3"},
	{SSSE3, "SSSE3"},
	{SSE41, "SSE4.1"},
	{SSE42, "SSE4.2"},
	{AVX, "AVX"},
	{AVX2, "AVX2"},
	{AVX512F, "AVX-512F"},
	{AVX512DQ, "AVX-512DQ"},
	{AVX512BW, "AVX-512BW"},
	{AVX512VL, "AVX-512VL"},
	{NEON, "NEON"},
	{FMA, "FMA"},
}

// Has reports whether every bit set in required is also set in m.
func (m Mask) Has(required Mask) bool {
	return m&required == required
}

// String renders the mask as a space-separated list of feature names, or
// "none" when empty.
func (m Mask) String() string {
	if m == None {
		return "none"
	}
	var parts []string
	for _, bn := range bitNames {
		if m.Has(bn.bit) {
			parts = append(parts, bn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

var (
	once       sync.Once
	cachedMask Mask
)

// Detect returns the process-wide ISA bitmask, probing hardware on first
// call and caching the result for the lifetime of the process (spec 4.1:
// "cached process-globally after first call").
//
// Detect never returns an error: any probing failure degrades to the
// empty mask, which causes every subsequent kernel-registry lookup to
// fall through to a scalar implementation.
func Detect() Mask {
	once.Do(func() {
		cachedMask = detect()
	})
	return cachedMask
}

// reset is a test helper that clears the cached mask so Detect can be
// re-probed within the same process.
func reset() {
	once = sync.Once{}
	cachedMask = None
}

func detect() Mask {
	var m Mask

	x := cpu.X86
	if x.HasSSE2 {
		m |= SSE | SSE2
	}
	if x.HasSSE3 {
		m |= SSE3
	}
	if x.HasSSSE3 {
		m |= SSSE3
	}
	if x.HasSSE41 {
		m |= SSE41
	}
	if x.HasSSE42 {
		m |= SSE42
	}
	if x.HasAVX {
		m |= AVX
	}
	if x.HasAVX2 {
		m |= AVX2
	}
	if x.HasAVX512F {
		m |= AVX512F
	}
	if x.HasAVX512DQ {
		m |= AVX512DQ
	}
	if x.HasAVX512BW {
		m |= AVX512BW
	}
	if x.HasAVX512VL {
		m |= AVX512VL
	}
	if x.HasFMA {
		m |= FMA
	}

	if cpu.ARM64.HasASIMD {
		m |= NEON
	}
	if cpu.ARM.HasNEON {
		m |= NEON
	}

	return m
}
