// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package descriptor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/shader"
)

// Sentinel errors for descriptor operations.
var (
	// ErrStaleSet is returned when a set allocated in an earlier pool epoch is used.
	ErrStaleSet = errors.New("descriptor: set belongs to a purged epoch")

	// ErrSlotOutOfRange is returned when binding past the last slot of the layout.
	ErrSlotOutOfRange = errors.New("descriptor: slot out of range")

	// ErrBindingMismatch is returned when a resource cannot be bound as the slot's type.
	ErrBindingMismatch = errors.New("descriptor: resource does not match slot type")

	// ErrIncompleteSet is returned when committing a set with unbound slots.
	ErrIncompleteSet = errors.New("descriptor: set has unbound slots")

	// ErrSetCommitted is returned when binding into a set that was already committed.
	ErrSetCommitted = errors.New("descriptor: set already committed")

	// ErrInvalidLayout is returned when allocating with a zero layout.
	ErrInvalidLayout = errors.New("descriptor: invalid layout")

	// ErrPoolDestroyed is returned when allocating from a destroyed pool.
	ErrPoolDestroyed = errors.New("descriptor: pool destroyed")
)

// Pool allocates descriptor sets. Sets live for one pool epoch: Purge
// destroys every set materialized in the current epoch and starts the next.
//
// Pool is safe for concurrent use.
type Pool struct {
	device gpucore.Device
	logger *slog.Logger

	mu        sync.Mutex
	epoch     uint64
	groups    []gpucore.BindGroupID
	allocated int
	destroyed bool
}

// NewPool creates a descriptor pool on device.
func NewPool(device gpucore.Device, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pool{device: device, logger: logger}
}

// Allocate returns an empty set matching layout.
func (p *Pool) Allocate(layout shader.Layout) (*Set, error) {
	if layout.Handle == gpucore.InvalidID {
		return nil, ErrInvalidLayout
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return nil, ErrPoolDestroyed
	}
	p.allocated++
	return &Set{
		pool:   p,
		epoch:  p.epoch,
		layout: layout,
		slots:  make([]slot, len(layout.Signature)),
	}, nil
}

// Epoch returns the current allocation epoch.
func (p *Pool) Epoch() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.epoch
}

// Allocated returns the number of sets allocated in the current epoch.
func (p *Pool) Allocated() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocated
}

// Committed returns the number of sets materialized in the current epoch.
func (p *Pool) Committed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.groups)
}

// commit creates the bind group for s unless its epoch has ended.
func (p *Pool) commit(s *Set, entries []gpucore.BindGroupEntry) (gpucore.BindGroupID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed || s.epoch != p.epoch {
		return gpucore.InvalidID, fmt.Errorf("%w (set epoch %d, pool epoch %d)", ErrStaleSet, s.epoch, p.epoch)
	}
	id, err := p.device.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:   "set" + s.layout.Signature.Key(),
		Layout:  s.layout.Handle,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("descriptor: create set %s: %w: %w", s.layout.Signature.Key(), gpucore.ErrObjectCreation, err)
	}
	p.groups = append(p.groups, id)
	return id, nil
}

// Purge destroys every set of the current epoch and begins a new epoch.
// The GPU must be idle; sets from the ended epoch can no longer be bound.
func (p *Pool) Purge() {
	p.mu.Lock()
	groups := p.groups
	p.groups = nil
	p.allocated = 0
	p.epoch++
	p.mu.Unlock()

	for i := len(groups) - 1; i >= 0; i-- {
		p.device.DestroyBindGroup(groups[i])
	}
	if len(groups) > 0 {
		p.logger.Debug("descriptor: pool purged", "sets", len(groups))
	}
}

// Destroy purges the pool and rejects further allocations.
func (p *Pool) Destroy() {
	p.Purge()
	p.mu.Lock()
	p.destroyed = true
	p.mu.Unlock()
}

// Descriptor owns the descriptor pool of a context.
type Descriptor struct {
	Pool *Pool
}

// New creates the descriptor sub-system on device.
func New(device gpucore.Device, logger *slog.Logger) *Descriptor {
	return &Descriptor{Pool: NewPool(device, logger)}
}

// Destroy releases every object owned by the sub-system.
func (d *Descriptor) Destroy() {
	d.Pool.Destroy()
}
