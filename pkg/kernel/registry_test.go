package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
	"github.com/crlotwhite/libetude-sub008/pkg/isa"
)

func TestRegisterRejectsUnsupportedISA(t *testing.T) {
	r := NewRegistry(isa.None, 8)
	err := r.Register(&Entry{Name: "needs_avx2", Family: FamilyVectorBinary, RequiredISA: isa.AVX2, Handle: Handle{VectorBinary: scalarVectorAdd}})
	require.Error(t, err)
}

func TestRegisterAcceptsSupportedISA(t *testing.T) {
	r := NewRegistry(isa.SSE2|isa.AVX, 8)
	err := r.Register(&Entry{Name: "vec_add_sse", Family: FamilyVectorBinary, RequiredISA: isa.SSE2, Handle: Handle{VectorBinary: scalarVectorAdd}})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryFullRejectsBeyondMax(t *testing.T) {
	r := NewRegistry(isa.None, 1)
	require.NoError(t, r.Register(&Entry{Name: "a", Family: FamilyVectorBinary, Handle: Handle{VectorBinary: scalarVectorAdd}}))
	err := r.Register(&Entry{Name: "b", Family: FamilyVectorBinary, Handle: Handle{VectorBinary: scalarVectorAdd}})
	require.Error(t, err)
}

func TestSelectPrefersHigherScore(t *testing.T) {
	r := NewRegistry(isa.None, 8)
	require.NoError(t, r.Register(&Entry{Name: "slow", Family: FamilyVectorBinary, OptimalSize: 64, PerformanceScore: 1, Handle: Handle{VectorBinary: scalarVectorAdd}}))
	require.NoError(t, r.Register(&Entry{Name: "fast", Family: FamilyVectorBinary, OptimalSize: 64, PerformanceScore: 10, Handle: Handle{VectorBinary: scalarVectorAdd}}))

	e, err := r.Select(FamilyVectorBinary, "", 64)
	require.NoError(t, err)
	assert.Equal(t, "fast", e.Name)
}

func TestSelectHonorsNameHint(t *testing.T) {
	r := NewDefaultRegistry(isa.None, 0)
	e, err := r.Select(FamilyVectorBinary, "mul", 64)
	require.NoError(t, err)
	assert.Contains(t, e.Name, "mul")
}

func TestSelectReturnsNotFoundForUnknownFamilyHint(t *testing.T) {
	r := NewRegistry(isa.None, 8)
	_, err := r.Select(FamilyMatmul, "nonexistent", 64)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestBenchmarkUpdatesScore(t *testing.T) {
	r := NewRegistry(isa.None, 8)
	require.NoError(t, r.Register(&Entry{Name: "k", Family: FamilyVectorBinary, PerformanceScore: 1, Handle: Handle{VectorBinary: scalarVectorAdd}}))
	err := r.Benchmark("k", 3, func() {})
	require.NoError(t, err)
	e, _ := r.Get("k")
	assert.Greater(t, e.PerformanceScore, 0.0)
}

func TestSizeFactorMatchesSpecThresholds(t *testing.T) {
	e := &Entry{OptimalSize: 128, PerformanceScore: 1}
	assert.Equal(t, 0.5, sizeFactor(e, 16))  // < optimal/4
	assert.Equal(t, 1.0, sizeFactor(e, 100)) // between optimal/4 and optimal
	assert.Equal(t, 2.0, sizeFactor(e, 128)) // >= optimal
	assert.Equal(t, 2.0, sizeFactor(e, 1024))
}

func TestSelectOnAVXOnlyHostPrefersAVX(t *testing.T) {
	r := NewRegistry(isa.AVX|isa.AVX2, 8)
	// The host mask lacks SSE/SSE2, so Register rejects the SSE entry.
	require.Error(t, r.Register(&Entry{Name: "vector_add_sse", Family: FamilyVectorBinary, RequiredISA: isa.SSE2 | isa.SSE, OptimalSize: 128, PerformanceScore: 2.5, Handle: Handle{VectorBinary: scalarVectorAdd}}))
	require.NoError(t, r.Register(&Entry{Name: "vector_add_avx", Family: FamilyVectorBinary, RequiredISA: isa.AVX, OptimalSize: 128, PerformanceScore: 4.0, Handle: Handle{VectorBinary: scalarVectorAdd}}))

	e, err := r.Select(FamilyVectorBinary, "vector_add", 1024)
	require.NoError(t, err)
	assert.Equal(t, "vector_add_avx", e.Name)
}

func TestSelectWithoutSIMDFallsBackToScalarOnly(t *testing.T) {
	r := NewRegistry(isa.None, 8)
	require.NoError(t, r.Register(&Entry{Name: "vector_add_cpu", Family: FamilyVectorBinary, OptimalSize: 0, PerformanceScore: 1, Handle: Handle{VectorBinary: scalarVectorAdd}}))
	// vector_add_avx is never registered because the host has no AVX.
	err := r.Register(&Entry{Name: "vector_add_avx", Family: FamilyVectorBinary, RequiredISA: isa.AVX, Handle: Handle{VectorBinary: scalarVectorAdd}})
	require.Error(t, err)

	e, err := r.Select(FamilyVectorBinary, "vector_add", 100)
	require.NoError(t, err)
	assert.Equal(t, "vector_add_cpu", e.Name)
}

func TestNewDefaultRegistryHasScalarFallbacks(t *testing.T) {
	r := NewDefaultRegistry(isa.None, 0)
	_, err := r.Select(FamilyMatmul, "", 64)
	require.NoError(t, err)
}
