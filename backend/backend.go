package backend

import "errors"

// Well-known backend names.
const (
	// Native is the gogpu/wgpu HAL driver (Vulkan).
	Native = "native"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a registered backend fails to initialize.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotRegistered is returned when a requested backend is not registered.
	ErrNotRegistered = errors.New("backend: not registered")
)
