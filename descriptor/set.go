// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package descriptor

import (
	"fmt"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/resource"
	"github.com/gogpu/compute/shader"
)

type slot struct {
	res   resource.Bindable
	entry gpucore.BindGroupEntry
	bound bool
}

// Set is a descriptor set being populated for one dispatch.
//
// Resources are bound by slot index. The driver bind group is created on
// Commit, which command buffers call when the set is bound.
// A Set is not safe for concurrent use.
type Set struct {
	pool   *Pool
	epoch  uint64
	layout shader.Layout
	slots  []slot
	group  gpucore.BindGroupID
}

// Layout returns the layout the set was allocated for.
func (s *Set) Layout() shader.Layout {
	return s.layout
}

// Epoch returns the pool epoch the set was allocated in.
func (s *Set) Epoch() uint64 {
	return s.epoch
}

// Len returns the number of slots.
func (s *Set) Len() int {
	return len(s.slots)
}

// Bind binds r at slot. Binding a slot twice replaces the earlier resource.
func (s *Set) Bind(index int, r resource.Bindable) error {
	if s.group != gpucore.InvalidID {
		return ErrSetCommitted
	}
	if index < 0 || index >= len(s.slots) {
		return fmt.Errorf("%w: slot %d of %d-slot set %s", ErrSlotOutOfRange, index, len(s.slots), s.layout.Signature)
	}
	want := s.layout.Signature[index]
	if r == nil {
		return fmt.Errorf("%w: slot %d (%s) bound to nil", ErrBindingMismatch, index, want)
	}
	if r.Released() {
		return fmt.Errorf("descriptor: slot %d: %q: %w", index, r.Label(), resource.ErrReleased)
	}
	if !r.Supports(want) {
		return fmt.Errorf("%w: slot %d wants %s, %q cannot bind as it", ErrBindingMismatch, index, want, r.Label())
	}
	s.slots[index] = slot{
		res:   r,
		entry: r.Entry(uint32(index)), //nolint:gosec // index checked against slot count
		bound: true,
	}
	return nil
}

// Bound returns the resource bound at slot, or nil.
func (s *Set) Bound(index int) resource.Bindable {
	if index < 0 || index >= len(s.slots) {
		return nil
	}
	return s.slots[index].res
}

// Entries returns the bind group entries in slot order.
// Unbound slots are reported with a zero entry.
func (s *Set) Entries() []gpucore.BindGroupEntry {
	entries := make([]gpucore.BindGroupEntry, len(s.slots))
	for i, sl := range s.slots {
		entries[i] = sl.entry
	}
	return entries
}

// Commit materializes the set into a driver bind group and returns it.
// Commit is idempotent within the set's epoch.
func (s *Set) Commit() (gpucore.BindGroupID, error) {
	if s.group != gpucore.InvalidID {
		if s.pool.Epoch() != s.epoch {
			return gpucore.InvalidID, fmt.Errorf("%w (set epoch %d)", ErrStaleSet, s.epoch)
		}
		return s.group, nil
	}
	for i, sl := range s.slots {
		if !sl.bound {
			return gpucore.InvalidID, fmt.Errorf("%w: slot %d (%s) of %s", ErrIncompleteSet, i, s.layout.Signature[i], s.layout.Signature)
		}
	}
	id, err := s.pool.commit(s, s.Entries())
	if err != nil {
		return gpucore.InvalidID, err
	}
	s.group = id
	return id, nil
}

// Handle returns the driver bind group, or InvalidID before Commit.
func (s *Set) Handle() gpucore.BindGroupID {
	return s.group
}
