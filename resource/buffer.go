// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/compute/gpucore"
)

// BufferDesc describes a buffer allocation.
type BufferDesc = gpucore.BufferDesc

// Buffer is a device buffer allocated from a Pool.
type Buffer struct {
	pool     *Pool
	id       gpucore.BufferID
	size     uint64
	usage    gpucore.BufferUsage
	label    string
	released atomic.Bool
}

// ID returns the driver buffer ID.
func (b *Buffer) ID() gpucore.BufferID {
	return b.id
}

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 {
	return b.size
}

// Usage returns the buffer usage flags.
func (b *Buffer) Usage() gpucore.BufferUsage {
	return b.usage
}

// Label implements Bindable.
func (b *Buffer) Label() string {
	return b.label
}

// Released implements Bindable.
func (b *Buffer) Released() bool {
	return b.released.Load()
}

// Supports implements Bindable.
func (b *Buffer) Supports(t gpucore.BindingType) bool {
	switch t {
	case gpucore.BindingTypeUniformBuffer:
		return b.usage&gpucore.BufferUsageUniform != 0
	case gpucore.BindingTypeStorageBuffer, gpucore.BindingTypeReadOnlyStorageBuffer:
		return b.usage&gpucore.BufferUsageStorage != 0
	default:
		return false
	}
}

// Entry implements Bindable. The whole buffer is bound.
func (b *Buffer) Entry(slot uint32) gpucore.BindGroupEntry {
	return gpucore.BindGroupEntry{Binding: slot, Buffer: b.id, Size: b.size}
}

// Range returns a bindable view of size bytes starting at offset.
func (b *Buffer) Range(offset, size uint64) (BufferRange, error) {
	if offset+size > b.size || size == 0 {
		return BufferRange{}, fmt.Errorf("%w: range [%d,+%d) of %d-byte buffer %q", ErrOutOfRange, offset, size, b.size, b.label)
	}
	return BufferRange{buf: b, offset: offset, size: size}, nil
}

// Write uploads data at offset.
func (b *Buffer) Write(offset uint64, data []byte) error {
	if b.Released() {
		return fmt.Errorf("%w: buffer %q", ErrReleased, b.label)
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("%w: write [%d,+%d) to %d-byte buffer %q", ErrOutOfRange, offset, len(data), b.size, b.label)
	}
	return b.pool.queue.WriteBuffer(b.id, offset, data)
}

// Read copies len(dst) bytes at offset into dst.
// It stalls until the GPU has finished writing the buffer.
func (b *Buffer) Read(offset uint64, dst []byte) error {
	if b.Released() {
		return fmt.Errorf("%w: buffer %q", ErrReleased, b.label)
	}
	if offset+uint64(len(dst)) > b.size {
		return fmt.Errorf("%w: read [%d,+%d) from %d-byte buffer %q", ErrOutOfRange, offset, len(dst), b.size, b.label)
	}
	return b.pool.queue.ReadBuffer(b.id, offset, dst)
}

// Release marks the buffer for destruction. The driver object is freed by
// the next Pool.Purge, after in-flight work that may reference it is done.
// Release is idempotent.
func (b *Buffer) Release() {
	if b.released.CompareAndSwap(false, true) {
		b.pool.retire(b)
	}
}

func (b *Buffer) destroy(d gpucore.Device) {
	d.DestroyBuffer(b.id)
}

// BufferRange is a sub-range of a Buffer bound as a single argument.
type BufferRange struct {
	buf    *Buffer
	offset uint64
	size   uint64
}

// Buffer returns the underlying buffer.
func (r BufferRange) Buffer() *Buffer {
	return r.buf
}

// Label implements Bindable.
func (r BufferRange) Label() string {
	return fmt.Sprintf("%s[%d:%d]", r.buf.label, r.offset, r.offset+r.size)
}

// Released implements Bindable.
func (r BufferRange) Released() bool {
	return r.buf.Released()
}

// Supports implements Bindable.
func (r BufferRange) Supports(t gpucore.BindingType) bool {
	return r.buf.Supports(t)
}

// Entry implements Bindable.
func (r BufferRange) Entry(slot uint32) gpucore.BindGroupEntry {
	return gpucore.BindGroupEntry{Binding: slot, Buffer: r.buf.id, Offset: r.offset, Size: r.size}
}

var (
	_ Bindable = (*Buffer)(nil)
	_ Bindable = BufferRange{}
)
