//go:build !nogpu

// Package gpu registers the GPU compute device for distance field
// generation.
//
// Import this package to run the seed and flood passes as wgpu/hal
// compute shaders instead of on the CPU:
//
//	import _ "github.com/gogpu/distfield/gpu"
//
// Registration only makes the device available; it is instantiated
// lazily the first time a generator asks for it. If no usable GPU is
// present, device creation fails and generators fall back to the
// software device.
package gpu

import (
	"github.com/gogpu/distfield"
	gpuimpl "github.com/gogpu/distfield/internal/gpu"
)

func init() {
	distfield.RegisterDevice(distfield.DeviceGPU, func() (distfield.Device, error) {
		return gpuimpl.New()
	})
}

// NewWithProvider creates a GPU device on a shared HAL device from a
// host application, such as a gogpu window context. The handle must
// also expose HalDevice()/HalQueue() for direct HAL access.
//
// The returned device is not registered; pass it to a generator with
// distfield.WithDevice.
func NewWithProvider(handle distfield.DeviceHandle) (distfield.Device, error) {
	return gpuimpl.NewWithProvider(handle)
}
