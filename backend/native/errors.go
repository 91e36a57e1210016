//go:build !nogpu

package native

import "errors"

// Package errors for the native driver.
var (
	// ErrVulkanUnavailable is returned when the hal Vulkan backend is not linked or cannot load.
	ErrVulkanUnavailable = errors.New("native: vulkan backend not available")

	// ErrNoHALDevice is returned when a device provider does not expose hal types.
	ErrNoHALDevice = errors.New("native: provider does not expose a hal device")

	// ErrWaitTimeout is returned when the GPU does not signal a fence in time.
	ErrWaitTimeout = errors.New("native: timed out waiting for GPU")

	// ErrDeviceDestroyed is returned for calls on a destroyed device.
	ErrDeviceDestroyed = errors.New("native: device destroyed")

	// ErrForeignCommandBuffer is returned when a command buffer from another driver is submitted.
	ErrForeignCommandBuffer = errors.New("native: command buffer not created by this device")
)
