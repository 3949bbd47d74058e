package isa

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Topology describes the best-effort CPU landscape of the current host.
// Fields that cannot be determined on the current platform are left at
// their runtime.NumCPU()-derived defaults; Topology never causes Detect
// or any registry operation to fail.
type Topology struct {
	LogicalCores  int
	PhysicalCores int
	NUMANodes     int
	L3CacheBytes  int64
}

// DetectTopology reads /proc/cpuinfo on Linux for physical core and cache
// hints, and falls back to runtime.NumCPU() elsewhere or on read failure.
func DetectTopology() Topology {
	t := Topology{
		LogicalCores:  runtime.NumCPU(),
		PhysicalCores: runtime.NumCPU(),
		NUMANodes:     1,
	}
	if runtime.GOOS == "linux" {
		parseLinuxCPUInfo(&t)
	}
	if t.PhysicalCores <= 0 || t.PhysicalCores > t.LogicalCores {
		t.PhysicalCores = t.LogicalCores
	}
	return t
}

// OptimalThreadCount recommends a goroutine fan-out width for CPU-bound
// kernels (GEMM, Conv1D): physical cores minus one when there are more
// than two, to leave a thread free for OS bookkeeping; with one or two
// cores it returns the core count, never less than one.
func OptimalThreadCount(t Topology) int {
	cores := t.PhysicalCores
	if cores <= 0 {
		cores = t.LogicalCores
	}
	if cores > 2 {
		return cores - 1
	}
	if cores < 1 {
		return 1
	}
	return cores
}

func parseLinuxCPUInfo(t *Topology) {
	f, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return
	}
	defer f.Close()

	physIDs := map[string]struct{}{}
	coreIDs := map[string]struct{}{}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])

		switch key {
		case "physical id":
			physIDs[val] = struct{}{}
		case "core id":
			coreIDs[val] = struct{}{}
		case "cache size":
			if n, ok := parseCacheSize(val); ok {
				t.L3CacheBytes = n
			}
		}
	}
	if len(physIDs) > 0 {
		t.NUMANodes = len(physIDs)
	}
	if len(coreIDs) > 0 && len(coreIDs) <= t.LogicalCores {
		t.PhysicalCores = len(coreIDs)
	}
}

// parseCacheSize parses strings like "8192 KB" into bytes.
func parseCacheSize(s string) (int64, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, false
	}
	unit := int64(1)
	if len(fields) > 1 {
		switch strings.ToUpper(fields[1]) {
		case "KB", "K":
			unit = 1024
		case "MB", "M":
			unit = 1024 * 1024
		}
	}
	return n * unit, true
}
