package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crlotwhite/libetude-sub008/pkg/config"
	"github.com/crlotwhite/libetude-sub008/pkg/kernel"
)

func testConfig() *config.Config {
	cfg := config.LoadFromEnv()
	cfg.Kernel.BenchmarkOnInit = false
	cfg.Kernel.ScoreCacheDir = ""
	cfg.Kernel.SelectionCacheSize = 256
	return cfg
}

func TestOpenBuildsUsableRuntime(t *testing.T) {
	rt, err := Open(testConfig())
	require.NoError(t, err)
	defer rt.Close()

	assert.True(t, rt.Kernels().Len() > 0)
	assert.NotNil(t, rt.Dispatch())
	assert.Contains(t, rt.Operators().Types(), "linear")
}

func TestOpenNilConfigFallsBackToEnv(t *testing.T) {
	rt, err := Open(nil)
	require.NoError(t, err)
	defer rt.Close()
	assert.Equal(t, config.QualityBalanced, rt.Config().Quality)
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Kernel.MaxKernels = -1
	_, err := Open(cfg)
	assert.Error(t, err)
}

func TestOpenRunsSelfBenchmarkWhenRequested(t *testing.T) {
	cfg := testConfig()
	cfg.Kernel.BenchmarkOnInit = true
	rt, err := Open(cfg)
	require.NoError(t, err)
	defer rt.Close()

	scores := rt.Kernels().Scores()
	assert.NotEmpty(t, scores)
	// measured scores replace the registry's static defaults
	assert.NotEqual(t, kernel.NewDefaultRegistry(rt.ISA(), cfg.Kernel.MaxKernels).Scores(), scores)
}

func TestCloseIsIdempotent(t *testing.T) {
	rt, err := Open(testConfig())
	require.NoError(t, err)
	require.NoError(t, rt.Close())
	require.NoError(t, rt.Close())
}

func TestPersistScoresNoopWithoutStore(t *testing.T) {
	rt, err := Open(testConfig())
	require.NoError(t, err)
	defer rt.Close()
	assert.NoError(t, rt.PersistScores())
}
