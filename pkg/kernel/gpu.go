package kernel

import (
	"fmt"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
)

// GPU backend stub. The teacher repo gates its CUDA/Vulkan bridges
// behind cgo build tags (`//go:build cuda && (linux || windows)`) that
// link against vendor SDKs present only on a machine with that hardware
// and toolchain installed. Since this build can never be compiled here
// to confirm a cgo bridge still links, the GPU backend is a pure-Go stub
// that always reports unavailable — it keeps the Device/IsAvailable
// shape the CUDA and Vulkan bridges exposed, so a future cgo-gated
// implementation can drop in behind the same interface without
// reshaping callers.

// GPUDevice mirrors the device handle shape of the CUDA/Vulkan bridges
// without owning any native resources.
type GPUDevice struct {
	id     int
	name   string
	memory uint64
}

// GPUAvailable reports whether a GPU backend is compiled in. The stub
// backend always returns false.
func GPUAvailable() bool { return false }

// GPUDeviceCount returns the number of usable GPU devices. The stub
// backend always returns 0.
func GPUDeviceCount() int { return 0 }

// NewGPUDevice opens a GPU device handle. The stub backend always
// returns errs.ErrUnsupported, which callers should treat as "fall back
// to CPU kernels", mirroring how the reference runtime degrades when
// HasGPUHardware() is false.
func NewGPUDevice(deviceID int) (*GPUDevice, error) {
	return nil, fmt.Errorf("kernel: no GPU backend compiled in (device %d requested): %w", deviceID, errs.ErrUnsupported)
}

// ID returns the device index.
func (d *GPUDevice) ID() int { return d.id }

// Name returns the device's reported name.
func (d *GPUDevice) Name() string { return d.name }

// MemoryBytes returns the device's reported memory size.
func (d *GPUDevice) MemoryBytes() uint64 { return d.memory }

// Matmul computes c = a*b on this device. The stub backend always
// returns errs.ErrUnsupported.
func (d *GPUDevice) Matmul(a, b, c []float32, m, k, n int) error {
	return fmt.Errorf("kernel: GPU matmul unavailable: %w", errs.ErrUnsupported)
}
