package distfield

import (
	"errors"
	"fmt"
	"sync"
)

// Device name constants.
const (
	// DeviceSoftware is the name of the CPU-based software device.
	DeviceSoftware = "software"
	// DeviceGPU is the name of the WebGPU compute device
	// (github.com/gogpu/distfield/gpu).
	DeviceGPU = "gpu"
)

// ErrNoDevice is returned when a requested device is not registered or
// cannot be constructed.
var ErrNoDevice = errors.New("distfield: device not available")

// DeviceFactory creates a new device instance.
type DeviceFactory func() (Device, error)

// registry holds registered device factories.
var (
	registryMu      sync.RWMutex
	deviceFactories = make(map[string]DeviceFactory)
	// Priority order for default device selection (first available wins).
	devicePriority = []string{DeviceGPU, DeviceSoftware}
)

// RegisterDevice registers a device factory with the given name.
// This is typically called from init() functions in device packages.
// If a device with the same name is already registered, it is replaced.
func RegisterDevice(name string, factory DeviceFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	deviceFactories[name] = factory
}

// AvailableDevices returns the names of all registered devices.
func AvailableDevices() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(deviceFactories))
	for name := range deviceFactories {
		names = append(names, name)
	}
	return names
}

// NewDevice constructs a registered device by name.
func NewDevice(name string) (Device, error) {
	registryMu.RLock()
	factory, ok := deviceFactories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q not registered", ErrNoDevice, name)
	}
	dev, err := factory()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrNoDevice, name, err)
	}
	return dev, nil
}

// DefaultDevice constructs the highest-priority available device.
// The software device is always registered, so DefaultDevice never
// returns nil; a GPU device takes priority when its package has been
// imported and a GPU is present.
func DefaultDevice() Device {
	for _, name := range devicePriority {
		if !IsRegisteredDevice(name) {
			continue
		}
		dev, err := NewDevice(name)
		if err == nil {
			return dev
		}
		Logger().Warn("device unavailable", "device", name, "err", err)
	}
	// Unreachable while the software factory stays registered.
	return NewSoftwareDevice()
}

// IsRegisteredDevice checks whether a device with the given name is
// registered.
func IsRegisteredDevice(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := deviceFactories[name]
	return ok
}
