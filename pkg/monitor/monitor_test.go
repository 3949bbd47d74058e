package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crlotwhite/libetude-sub008/pkg/config"
	rt "github.com/crlotwhite/libetude-sub008/pkg/runtime"
)

func newTestRuntime(t *testing.T) *rt.Runtime {
	t.Helper()
	cfg := config.LoadFromEnv()
	engine, err := rt.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestMonitorPublishesSamples(t *testing.T) {
	engine := newTestRuntime(t)
	m := Start(context.Background(), engine, 10*time.Millisecond)
	defer m.Stop()

	require.Eventually(t, func() bool {
		return !m.Latest().Timestamp.IsZero()
	}, time.Second, 5*time.Millisecond)
}

func TestMonitorInvokesCallbackWithoutDeadlock(t *testing.T) {
	engine := newTestRuntime(t)
	m := Start(context.Background(), engine, 10*time.Millisecond)
	defer m.Stop()

	var mu sync.Mutex
	calls := 0
	m.OnSample(func(ResourceSample) {
		mu.Lock()
		calls++
		mu.Unlock()
		// A callback that itself reads Latest() must not deadlock, since
		// the snapshot publish is a lock-free atomic swap.
		_ = m.Latest()
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls > 0
	}, time.Second, 5*time.Millisecond)
}

func TestMonitorStopIsIdempotentAndSynchronous(t *testing.T) {
	engine := newTestRuntime(t)
	m := Start(context.Background(), engine, 10*time.Millisecond)
	m.Stop()
	assert.NotPanics(t, func() { m.Stop() })
}

func TestMonitorRespectsParentContextCancellation(t *testing.T) {
	engine := newTestRuntime(t)
	ctx, cancel := context.WithCancel(context.Background())
	m := Start(ctx, engine, 10*time.Millisecond)
	cancel()
	m.wg.Wait()
}
