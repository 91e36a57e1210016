// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/compute/gpucore"
)

// Sentinel errors for shader operations.
var (
	// ErrInvalidSignature is returned when a signature contains an unknown binding type.
	ErrInvalidSignature = errors.New("shader: invalid signature")

	// ErrEmptySource is returned when a descriptor carries no shader source.
	ErrEmptySource = errors.New("shader: empty source")

	// ErrNoEntryPoint is returned when a descriptor carries no entry point.
	ErrNoEntryPoint = errors.New("shader: missing entry point")
)

// SignatureError reports the first invalid slot of a signature.
type SignatureError struct {
	Slot int
	Type gpucore.BindingType
}

// Error implements the error interface.
func (e *SignatureError) Error() string {
	return fmt.Sprintf("shader: invalid signature: slot %d has binding type %s", e.Slot, e.Type)
}

// Unwrap returns ErrInvalidSignature.
func (e *SignatureError) Unwrap() error {
	return ErrInvalidSignature
}
