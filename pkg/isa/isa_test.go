package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskHasSubset(t *testing.T) {
	m := AVX | AVX2 | FMA
	assert.True(t, m.Has(AVX))
	assert.True(t, m.Has(AVX|AVX2))
	assert.False(t, m.Has(NEON))
	assert.False(t, m.Has(AVX512F))
}

func TestMaskStringEmpty(t *testing.T) {
	assert.Equal(t, "none", None.String())
}

func TestMaskStringListsFeatures(t *testing.T) {
	m := SSE | SSE2 | AVX
	s := m.String()
	assert.Contains(t, s, "SSE")
	assert.Contains(t, s, "AVX")
}

func TestDetectIsCachedAcrossCalls(t *testing.T) {
	reset()
	first := Detect()
	second := Detect()
	assert.Equal(t, first, second)
}

func TestDetectNeverPanics(t *testing.T) {
	reset()
	assert.NotPanics(t, func() {
		Detect()
	})
}

func TestDetectTopologyHasAtLeastOneCore(t *testing.T) {
	topo := DetectTopology()
	assert.GreaterOrEqual(t, topo.LogicalCores, 1)
	assert.GreaterOrEqual(t, topo.PhysicalCores, 1)
	assert.LessOrEqual(t, topo.PhysicalCores, topo.LogicalCores)
}

func TestOptimalThreadCount(t *testing.T) {
	assert.Equal(t, 1, OptimalThreadCount(Topology{PhysicalCores: 1, LogicalCores: 1}))
	assert.Equal(t, 2, OptimalThreadCount(Topology{PhysicalCores: 2, LogicalCores: 2}))
	assert.Equal(t, 3, OptimalThreadCount(Topology{PhysicalCores: 4, LogicalCores: 8}))
}

func TestParseCacheSize(t *testing.T) {
	n, ok := parseCacheSize("8192 KB")
	assert.True(t, ok)
	assert.Equal(t, int64(8192*1024), n)

	n, ok = parseCacheSize("16 MB")
	assert.True(t, ok)
	assert.Equal(t, int64(16*1024*1024), n)

	_, ok = parseCacheSize("")
	assert.False(t, ok)
}
