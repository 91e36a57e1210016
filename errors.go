package compute

import "errors"

// Dispatch and lifecycle errors.
var (
	// ErrInvalidParams is returned when the params value has no fixed binary size.
	ErrInvalidParams = errors.New("compute: params must be a fixed-size value")

	// ErrPushConstantsTooLarge is returned when params exceed the device push-constant budget.
	ErrPushConstantsTooLarge = errors.New("compute: params exceed push-constant budget")

	// ErrInvalidWorkGroup is returned when a work group has a zero dimension or exceeds device limits.
	ErrInvalidWorkGroup = errors.New("compute: invalid work group")

	// ErrNilBuffer is returned when Dispatch is given no command buffer.
	ErrNilBuffer = errors.New("compute: nil command buffer")

	// ErrDestroyed is returned when using a destroyed Context.
	ErrDestroyed = errors.New("compute: context destroyed")
)
