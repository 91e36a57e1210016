// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"errors"
	"fmt"

	"github.com/gogpu/compute/descriptor"
	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/pipeline"
	"github.com/gogpu/compute/shader"
)

// Command buffer errors.
var (
	// ErrBufferSubmitted is returned when recording into a submitted buffer.
	ErrBufferSubmitted = errors.New("command: buffer already submitted")

	// ErrBufferFailed is returned when using a buffer after a recording failure.
	ErrBufferFailed = errors.New("command: buffer failed")

	// ErrNoPipeline is returned when dispatching or pushing constants without a bound pipeline.
	ErrNoPipeline = errors.New("command: no pipeline bound")

	// ErrPushConstantSize is returned when the payload size differs from the layout's range.
	ErrPushConstantSize = errors.New("command: push constant size does not match pipeline layout")

	// ErrLayoutMismatch is returned when pushing constants for a layout other than the bound pipeline's.
	ErrLayoutMismatch = errors.New("command: pipeline layout does not match bound pipeline")

	// ErrInvalidGroupCount is returned when dispatching zero groups in any dimension.
	ErrInvalidGroupCount = errors.New("command: invalid group count")

	// ErrPoolDestroyed is returned when allocating from a destroyed pool.
	ErrPoolDestroyed = errors.New("command: pool destroyed")
)

// State is the lifecycle state of a Buffer.
type State int

// Buffer states.
const (
	// StateRecording accepts commands.
	StateRecording State = iota

	// StateSubmitted has been handed to the queue.
	StateSubmitted

	// StateFailed recorded an error and can only be discarded.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateRecording:
		return "Recording"
	case StateSubmitted:
		return "Submitted"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Buffer records compute commands for one submission.
//
// State machine:
//
//	Recording -> (Pool.Submit)          -> Submitted
//	Recording -> (any recording error)  -> Failed
//
// A Buffer is NOT safe for concurrent use. Distinct buffers may be
// recorded from distinct goroutines.
type Buffer struct {
	pool    *Pool
	label   string
	encoder gpucore.CommandEncoder

	state State
	err   error

	pipeline    pipeline.Object
	hasPipeline bool
	sets        []*descriptor.Set
	dispatches  int
}

// Label returns the debug label.
func (b *Buffer) Label() string {
	return b.label
}

// State returns the current state.
func (b *Buffer) State() State {
	return b.state
}

// Err returns the error that failed the buffer, or nil.
func (b *Buffer) Err() error {
	return b.err
}

// Dispatches returns the number of dispatches recorded.
func (b *Buffer) Dispatches() int {
	return b.dispatches
}

// Handle returns the driver encoder for native recording calls.
func (b *Buffer) Handle() gpucore.CommandEncoder {
	return b.encoder
}

// Fail marks the buffer failed with err. A failed buffer rejects further
// recording and cannot be submitted. Fail on a failed or submitted buffer
// is a no-op.
func (b *Buffer) Fail(err error) {
	if b.state != StateRecording || err == nil {
		return
	}
	b.state = StateFailed
	b.err = err
	b.encoder.Discard()
	b.pool.logger.Debug("command: buffer failed", "label", b.label, "err", err)
}

func (b *Buffer) recording() error {
	switch b.state {
	case StateRecording:
		return nil
	case StateSubmitted:
		return ErrBufferSubmitted
	default:
		return fmt.Errorf("%w: %w", ErrBufferFailed, b.err)
	}
}

// BindPipeline makes p the active compute pipeline.
func (b *Buffer) BindPipeline(p pipeline.Object) error {
	if err := b.recording(); err != nil {
		return err
	}
	b.encoder.SetPipeline(p.Handle)
	b.pipeline = p
	b.hasPipeline = true
	return nil
}

// PushConstants records a push-constant update of data at offset zero,
// visible to the compute stage. len(data) must equal the layout's
// push-constant size and layout must be the bound pipeline's layout.
// A zero-sized update records nothing.
func (b *Buffer) PushConstants(layout pipeline.Layout, data []byte) error {
	if err := b.recording(); err != nil {
		return err
	}
	if !b.hasPipeline {
		return ErrNoPipeline
	}
	if layout.Handle != b.pipeline.Key.Layout {
		return fmt.Errorf("%w: layout %d, pipeline uses %d", ErrLayoutMismatch, layout.Handle, b.pipeline.Key.Layout)
	}
	if uint64(len(data)) != uint64(layout.PushConstantSize) {
		return fmt.Errorf("%w: %d bytes for a %d-byte range", ErrPushConstantSize, len(data), layout.PushConstantSize)
	}
	if len(data) == 0 {
		return nil
	}
	b.encoder.SetPushConstants(layout.Handle, 0, data)
	return nil
}

// BindDescriptorSet commits set and binds it at index 0.
// The set must match the bound pipeline's set layout when a pipeline is bound.
func (b *Buffer) BindDescriptorSet(set *descriptor.Set) error {
	if err := b.recording(); err != nil {
		return err
	}
	id, err := set.Commit()
	if err != nil {
		return err
	}
	b.encoder.SetBindGroup(0, id)
	b.sets = append(b.sets, set)
	return nil
}

// Dispatch records a dispatch of groups work groups.
func (b *Buffer) Dispatch(groups shader.WorkGroup) error {
	if err := b.recording(); err != nil {
		return err
	}
	if !b.hasPipeline {
		return ErrNoPipeline
	}
	if !groups.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidGroupCount, groups)
	}
	b.encoder.Dispatch(groups.X, groups.Y, groups.Z)
	b.dispatches++
	return nil
}
