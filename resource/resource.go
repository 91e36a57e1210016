// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"errors"
	"log/slog"

	"github.com/gogpu/compute/gpucore"
)

// Sentinel errors for resource operations.
var (
	// ErrReleased is returned when a released resource is used.
	ErrReleased = errors.New("resource: use after release")

	// ErrOutOfRange is returned when a read or write exceeds the buffer.
	ErrOutOfRange = errors.New("resource: access out of range")

	// ErrPoolDestroyed is returned when allocating from a destroyed pool.
	ErrPoolDestroyed = errors.New("resource: pool destroyed")
)

// Bindable is a resource that can be bound to a descriptor-set slot.
type Bindable interface {
	// Entry returns the bind group entry for binding the resource at slot.
	Entry(slot uint32) gpucore.BindGroupEntry

	// Supports reports whether the resource can be bound as t.
	Supports(t gpucore.BindingType) bool

	// Released reports whether the resource has been released.
	Released() bool

	// Label returns the debug label.
	Label() string
}

// Args is an ordered list of dispatch arguments.
// The argument at index i binds to descriptor slot i.
type Args []Bindable

// List builds an Args list from resources, preserving order.
func List(items ...Bindable) Args {
	return Args(items)
}

// Len returns the number of arguments.
func (a Args) Len() int {
	return len(a)
}

// Resource owns the resource pool of a context.
type Resource struct {
	Pool *Pool
}

// New creates the resource sub-system on device and queue.
func New(device gpucore.Device, queue gpucore.Queue, logger *slog.Logger) *Resource {
	return &Resource{Pool: NewPool(device, queue, logger)}
}

// Destroy releases every object owned by the sub-system.
func (r *Resource) Destroy() {
	r.Pool.Destroy()
}
