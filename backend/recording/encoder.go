// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"fmt"

	"github.com/gogpu/compute/gpucore"
)

// CommandOp identifies a recorded command.
type CommandOp string

// Recorded command operations.
const (
	CmdSetPipeline      CommandOp = "SetPipeline"
	CmdSetPushConstants CommandOp = "SetPushConstants"
	CmdSetBindGroup     CommandOp = "SetBindGroup"
	CmdDispatch         CommandOp = "Dispatch"
)

// Command is one recorded encoder call. Only the fields relevant to Op are set.
type Command struct {
	Op CommandOp

	// SetPipeline
	Pipeline gpucore.ComputePipelineID

	// SetPushConstants
	Layout gpucore.PipelineLayoutID
	Offset uint32
	Data   []byte

	// SetBindGroup
	Index uint32
	Group gpucore.BindGroupID

	// Dispatch
	X, Y, Z uint32
}

// String returns a short description of the command.
func (c Command) String() string {
	switch c.Op {
	case CmdSetPipeline:
		return fmt.Sprintf("SetPipeline(%d)", c.Pipeline)
	case CmdSetPushConstants:
		return fmt.Sprintf("SetPushConstants(%d, off=%d, %d bytes)", c.Layout, c.Offset, len(c.Data))
	case CmdSetBindGroup:
		return fmt.Sprintf("SetBindGroup(%d, %d)", c.Index, c.Group)
	case CmdDispatch:
		return fmt.Sprintf("Dispatch(%d, %d, %d)", c.X, c.Y, c.Z)
	default:
		return string(c.Op)
	}
}

// Encoder is an in-memory gpucore.CommandEncoder.
type Encoder struct {
	device    *Device
	label     string
	commands  []Command
	pipeline  gpucore.ComputePipelineID
	finished  bool
	discarded bool
	err       error
}

func (e *Encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// SetPipeline implements gpucore.CommandEncoder.
func (e *Encoder) SetPipeline(pipeline gpucore.ComputePipelineID) {
	if _, ok := e.device.Pipeline(pipeline); !ok {
		e.fail(fmt.Errorf("recording: set pipeline %d: %w", pipeline, gpucore.ErrUnknownObject))
	}
	e.pipeline = pipeline
	e.commands = append(e.commands, Command{Op: CmdSetPipeline, Pipeline: pipeline})
}

// SetPushConstants implements gpucore.CommandEncoder.
func (e *Encoder) SetPushConstants(layout gpucore.PipelineLayoutID, offset uint32, data []byte) {
	desc, ok := e.device.PipelineLayout(layout)
	switch {
	case !ok:
		e.fail(fmt.Errorf("recording: push constants: layout %d: %w", layout, gpucore.ErrUnknownObject))
	case uint64(offset)+uint64(len(data)) > uint64(desc.PushConstantSize):
		e.fail(fmt.Errorf("recording: push constants [%d,+%d) exceed layout range %d", offset, len(data), desc.PushConstantSize))
	}
	e.commands = append(e.commands, Command{
		Op:     CmdSetPushConstants,
		Layout: layout,
		Offset: offset,
		Data:   append([]byte(nil), data...),
	})
}

// SetBindGroup implements gpucore.CommandEncoder.
func (e *Encoder) SetBindGroup(index uint32, group gpucore.BindGroupID) {
	if _, ok := e.device.BindGroup(group); !ok {
		e.fail(fmt.Errorf("recording: set bind group %d: %w", group, gpucore.ErrUnknownObject))
	}
	e.commands = append(e.commands, Command{Op: CmdSetBindGroup, Index: index, Group: group})
}

// Dispatch implements gpucore.CommandEncoder.
func (e *Encoder) Dispatch(x, y, z uint32) {
	if e.pipeline == gpucore.InvalidID {
		e.fail(fmt.Errorf("recording: dispatch without pipeline"))
	}
	e.commands = append(e.commands, Command{Op: CmdDispatch, X: x, Y: y, Z: z})
}

// Commands returns the commands recorded so far.
func (e *Encoder) Commands() []Command {
	return append([]Command(nil), e.commands...)
}

// Finish implements gpucore.CommandEncoder.
func (e *Encoder) Finish() (gpucore.CommandBuffer, error) {
	if e.finished {
		return nil, fmt.Errorf("recording: encoder %q already finished", e.label)
	}
	e.finished = true
	if e.err != nil {
		return nil, e.err
	}

	d := e.device
	d.mu.Lock()
	id, err := d.create(KindCommandBuffer)
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &CommandBuffer{device: d, id: id, label: e.label, commands: e.commands}, nil
}

// Discard implements gpucore.CommandEncoder.
func (e *Encoder) Discard() {
	if e.finished {
		return
	}
	e.finished = true
	e.discarded = true
}

// Discarded reports whether the recording was abandoned.
func (e *Encoder) Discarded() bool {
	return e.discarded
}

// CommandBuffer is a finished in-memory recording.
type CommandBuffer struct {
	device   *Device
	id       uint64
	label    string
	commands []Command
}

// Label returns the encoder label.
func (c *CommandBuffer) Label() string {
	return c.label
}

// Commands returns the recorded commands.
func (c *CommandBuffer) Commands() []Command {
	return append([]Command(nil), c.commands...)
}

// Release implements gpucore.CommandBuffer.
func (c *CommandBuffer) Release() {
	c.device.mu.Lock()
	defer c.device.mu.Unlock()
	c.device.destroy(KindCommandBuffer, c.id)
}

var (
	_ gpucore.CommandEncoder = (*Encoder)(nil)
	_ gpucore.CommandBuffer  = (*CommandBuffer)(nil)
)
