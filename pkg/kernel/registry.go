package kernel

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
	"github.com/crlotwhite/libetude-sub008/pkg/isa"
)

// MaxKernels bounds how many entries a Registry holds, mirroring the
// fixed-capacity kernel table of the reference runtime.
const MaxKernels = 256

// Registry holds every registered kernel Entry and picks the best one for
// a given name/family/size/ISA combination at dispatch time.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string // insertion order, for deterministic iteration/listing
	isaMask isa.Mask
	maxSize int
}

// NewRegistry creates a Registry gated to the given detected ISA mask.
// maxSize ≤ 0 uses MaxKernels.
func NewRegistry(mask isa.Mask, maxSize int) *Registry {
	if maxSize <= 0 {
		maxSize = MaxKernels
	}
	return &Registry{
		entries: make(map[string]*Entry),
		isaMask: mask,
		maxSize: maxSize,
	}
}

// Register adds or replaces an Entry. It rejects entries whose
// RequiredISA the registry's detected mask does not satisfy, so
// unsupported variants never become selectable.
func (r *Registry) Register(e *Entry) error {
	if e == nil || e.Name == "" {
		return fmt.Errorf("kernel: entry must have a name: %w", errs.ErrInvalidArgument)
	}
	if !r.isaMask.Has(e.RequiredISA) {
		return fmt.Errorf("kernel: %s requires ISA %s, host has %s: %w", e.Name, e.RequiredISA, r.isaMask, errs.ErrUnsupported)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[e.Name]; !exists {
		if len(r.entries) >= r.maxSize {
			return fmt.Errorf("kernel: registry full (%d entries): %w", r.maxSize, errs.ErrOutOfMemory)
		}
		r.order = append(r.order, e.Name)
	}
	r.entries[e.Name] = e
	return nil
}

// Select returns the highest-scoring registered Entry whose Family
// matches and whose name contains nameHint as a substring, its
// PerformanceScore weighted by sizeFactor(entry, dataSize). nameHint may be empty to
// match every entry in the family.
func (r *Registry) Select(family Family, nameHint string, dataSize int) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Entry
	var bestScore float64
	for _, name := range r.order {
		e := r.entries[name]
		if e.Family != family {
			continue
		}
		if nameHint != "" && !strings.Contains(e.Name, nameHint) {
			continue
		}
		score := e.PerformanceScore * sizeFactor(e, dataSize)
		if best == nil || score > bestScore {
			best = e
			bestScore = score
		}
	}
	if best == nil {
		return nil, fmt.Errorf("kernel: no %s kernel registered matching %q: %w", family, nameHint, errs.ErrNotFound)
	}
	return best, nil
}

// Get looks up an entry by exact name.
func (r *Registry) Get(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// List returns every registered entry's name in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len reports how many entries are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// BenchmarkFunc runs one timed iteration of a kernel over representative
// data; Benchmark uses it to derive a PerformanceScore.
type BenchmarkFunc func()

// Benchmark times fn over iterations runs and rewrites entry's
// PerformanceScore to the inverse of its average latency, so faster
// kernels always score higher regardless of absolute units. A
// zero-duration measurement (unrealistically fast, or a no-op stub) is
// treated as a 1ns average, i.e. a score of 1e9, instead of dividing by
// zero.
func (r *Registry) Benchmark(name string, iterations int, fn BenchmarkFunc) error {
	if iterations <= 0 {
		iterations = 1
	}
	start := time.Now()
	for i := 0; i < iterations; i++ {
		fn()
	}
	elapsed := time.Since(start)

	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return fmt.Errorf("kernel: benchmark target %q not registered: %w", name, errs.ErrNotFound)
	}
	avg := elapsed / time.Duration(iterations)
	if avg <= 0 {
		e.PerformanceScore = 1e9
		return nil
	}
	e.PerformanceScore = float64(time.Second) / float64(avg)
	return nil
}

// Scores returns a snapshot map from entry name to current
// PerformanceScore, primarily for CLI/diagnostic reporting. The map is
// unordered; callers that print it sort the names themselves.
func (r *Registry) Scores() map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]float64, len(r.entries))
	for name, e := range r.entries {
		out[name] = e.PerformanceScore
	}
	return out
}

// sortedNames returns every registered entry's name in lexical order,
// independent of registration order.
func (r *Registry) sortedNames() []string {
	names := r.List()
	sort.Strings(names)
	return names
}
