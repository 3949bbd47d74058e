// Package runtime assembles the kernel registry, operator registry, and
// ISA detection into a single owned context instead of relying on
// package-level globals, so a process can host more than one
// independently configured runtime (for example, one per loaded model)
// and so tests never leak state between cases.
package runtime

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"sync"

	"github.com/crlotwhite/libetude-sub008/pkg/config"
	"github.com/crlotwhite/libetude-sub008/pkg/errs"
	"github.com/crlotwhite/libetude-sub008/pkg/isa"
	"go.opentelemetry.io/otel/metric"

	"github.com/crlotwhite/libetude-sub008/pkg/kernel"
	"github.com/crlotwhite/libetude-sub008/pkg/operator"
)

// selfBenchmarkIterations bounds how many timed iterations the self-
// benchmark pass runs per kernel during Open.
const selfBenchmarkIterations = 50

// Runtime owns the kernel registry, dispatcher, operator factory
// registry, and ISA mask for a single LibEtude process or test. All
// blocking/mutating operations take it by reference; there is no
// package-level registry to reach for instead.
type Runtime struct {
	mu     sync.RWMutex
	closed bool

	cfg *config.Config
	isa isa.Mask

	kernels    *kernel.Registry
	dispatch   *kernel.Dispatcher
	operators  *operator.Registry
	selCache   *kernel.SelectionCache
	scoreStore *kernel.ScoreStore
	meter      metric.Meter
}

// SetMeter attaches an OpenTelemetry meter that pkg/monitor uses to
// export resource samples as async gauges. A nil meter (the default)
// leaves the monitor local-only.
func (rt *Runtime) SetMeter(m metric.Meter) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.meter = m
}

// Meter returns the currently configured OpenTelemetry meter, or nil.
func (rt *Runtime) Meter() metric.Meter {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.meter
}

// Open builds a Runtime from cfg, detecting the host ISA, constructing
// the kernel registry (optionally warmed from a persisted score store)
// and running the self-benchmark pass when cfg.Kernel.BenchmarkOnInit is
// set and the store changed no score from its static default. A nil cfg is replaced with config.LoadFromEnv().
func Open(cfg *config.Config) (*Runtime, error) {
	if cfg == nil {
		cfg = config.LoadFromEnv()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("runtime: %w", err)
	}

	mask := isa.Detect()
	kernels := kernel.NewDefaultRegistry(mask, cfg.Kernel.MaxKernels)

	rt := &Runtime{cfg: cfg, isa: mask, kernels: kernels}

	warmedFromStore := false
	if cfg.Kernel.ScoreCacheDir != "" {
		store, err := kernel.OpenScoreStore(cfg.Kernel.ScoreCacheDir, hostTag())
		if err != nil {
			return nil, fmt.Errorf("runtime: open score store: %w", err)
		}
		rt.scoreStore = store
		defaults := kernels.Scores()
		if err := kernels.WarmFromStore(store); err != nil {
			store.Close()
			return nil, fmt.Errorf("runtime: warm kernel scores: %w", err)
		}
		warmedFromStore = !maps.Equal(defaults, kernels.Scores())
	}

	// Re-benchmarking when scores were already warmed from a persisted
	// store defeats the point of persisting them, so only run the
	// self-benchmark pass when starting from the registry's static
	// PerformanceScore defaults.
	if cfg.Kernel.BenchmarkOnInit && !warmedFromStore {
		if err := kernels.BenchmarkAll(selfBenchmarkIterations); err != nil {
			return nil, fmt.Errorf("runtime: self-benchmark: %w", err)
		}
	}

	selCache, err := kernel.NewSelectionCache(cfg.Kernel.SelectionCacheSize)
	if err != nil {
		if rt.scoreStore != nil {
			rt.scoreStore.Close()
		}
		return nil, fmt.Errorf("runtime: create selection cache: %w", err)
	}
	rt.selCache = selCache
	rt.dispatch = kernel.NewDispatcher(kernels, selCache)
	rt.operators = operator.NewRegistry(rt.dispatch)

	return rt, nil
}

// Kernels returns the kernel registry.
func (rt *Runtime) Kernels() *kernel.Registry { return rt.kernels }

// Dispatch returns the kernel dispatcher operators are built against.
func (rt *Runtime) Dispatch() *kernel.Dispatcher { return rt.dispatch }

// Operators returns the operator factory registry.
func (rt *Runtime) Operators() *operator.Registry { return rt.operators }

// ISA returns the detected host instruction-set mask.
func (rt *Runtime) ISA() isa.Mask { return rt.isa }

// Config returns the configuration the Runtime was opened with.
func (rt *Runtime) Config() *config.Config { return rt.cfg }

// PersistScores saves the registry's current benchmark scores to the
// score store opened from cfg.Kernel.ScoreCacheDir. It is a no-op if no
// score-cache directory was configured.
func (rt *Runtime) PersistScores() error {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	if rt.closed {
		return fmt.Errorf("runtime: %w", errs.ErrInvalidState)
	}
	if rt.scoreStore == nil {
		return nil
	}
	return rt.kernels.PersistToStore(rt.scoreStore)
}

// Close releases the selection cache and score store. It is safe to
// call more than once.
func (rt *Runtime) Close() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return nil
	}
	rt.closed = true

	var errList []error
	if rt.scoreStore != nil {
		if err := rt.scoreStore.Close(); err != nil {
			errList = append(errList, fmt.Errorf("score store close: %w", err))
		}
	}
	if rt.selCache != nil {
		rt.selCache.Close()
	}
	return errors.Join(errList...)
}

func hostTag() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "default"
}
