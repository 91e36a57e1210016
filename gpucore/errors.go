// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "errors"

// Driver-level error classes. Drivers and the sub-systems above them wrap
// these with fmt.Errorf("...: %w", ...) so callers can use errors.Is.
var (
	// ErrDeviceCreation is returned when a logical device or its queue
	// cannot be created. No compute context can exist without one.
	ErrDeviceCreation = errors.New("gpucore: device creation failed")

	// ErrObjectCreation is returned when a GPU object (layout, pipeline,
	// descriptor set, buffer...) fails to materialize.
	ErrObjectCreation = errors.New("gpucore: GPU object creation failed")

	// ErrUnknownObject is returned when an ID does not name a live object.
	ErrUnknownObject = errors.New("gpucore: unknown object")

	// ErrUnsupported is returned when a driver cannot express a request.
	ErrUnsupported = errors.New("gpucore: unsupported by driver")
)
