//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

type opKind uint8

const (
	opSetPipeline opKind = iota
	opPushConstants
	opSetBindGroup
	opDispatch
)

// op is one recorded command with its objects already resolved.
type op struct {
	kind     opKind
	pipeline *computePipeline
	layout   *pipelineLayout
	offset   uint32
	data     []byte
	index    uint32
	group    hal.BindGroup
	x, y, z  uint32
}

// Encoder implements gpucore.CommandEncoder.
//
// Commands are validated and resolved as they are recorded, then replayed
// into a single hal compute pass by Finish. Push constants become a
// uniform buffer and bind group per dispatch, owned by the command buffer.
type Encoder struct {
	device *Device
	label  string
	ops    []op
	bound  *computePipeline
	done   bool
	err    error
}

func (e *Encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// SetPipeline implements gpucore.CommandEncoder.
func (e *Encoder) SetPipeline(pipeline gpucore.ComputePipelineID) {
	e.device.mu.RLock()
	cp, ok := e.device.computePipelines[pipeline]
	e.device.mu.RUnlock()
	if !ok {
		e.fail(fmt.Errorf("native: set pipeline %d: %w", pipeline, gpucore.ErrUnknownObject))
		return
	}
	e.bound = cp
	e.ops = append(e.ops, op{kind: opSetPipeline, pipeline: cp})
}

// SetPushConstants implements gpucore.CommandEncoder.
func (e *Encoder) SetPushConstants(layout gpucore.PipelineLayoutID, offset uint32, data []byte) {
	e.device.mu.RLock()
	pl, ok := e.device.pipelineLayouts[layout]
	e.device.mu.RUnlock()
	switch {
	case !ok:
		e.fail(fmt.Errorf("native: push constants: layout %d: %w", layout, gpucore.ErrUnknownObject))
		return
	case uint64(offset)+uint64(len(data)) > uint64(pl.pushSize):
		e.fail(fmt.Errorf("native: push constants [%d,+%d) exceed layout range %d", offset, len(data), pl.pushSize))
		return
	}
	e.ops = append(e.ops, op{
		kind:   opPushConstants,
		layout: pl,
		offset: offset,
		data:   append([]byte(nil), data...),
	})
}

// SetBindGroup implements gpucore.CommandEncoder. Index 1 is reserved for
// emulated push constants.
func (e *Encoder) SetBindGroup(index uint32, group gpucore.BindGroupID) {
	if index >= paramsGroupIndex {
		e.fail(fmt.Errorf("native: bind group index %d: %w", index, gpucore.ErrUnsupported))
		return
	}
	e.device.mu.RLock()
	g, ok := e.device.bindGroups[group]
	e.device.mu.RUnlock()
	if !ok {
		e.fail(fmt.Errorf("native: set bind group %d: %w", group, gpucore.ErrUnknownObject))
		return
	}
	e.ops = append(e.ops, op{kind: opSetBindGroup, index: index, group: g})
}

// Dispatch implements gpucore.CommandEncoder.
func (e *Encoder) Dispatch(x, y, z uint32) {
	if e.bound == nil {
		e.fail(fmt.Errorf("native: dispatch without pipeline"))
		return
	}
	e.ops = append(e.ops, op{kind: opDispatch, x: x, y: y, z: z})
}

// Finish implements gpucore.CommandEncoder.
func (e *Encoder) Finish() (gpucore.CommandBuffer, error) {
	if e.done {
		return nil, fmt.Errorf("native: encoder %q already finished", e.label)
	}
	e.done = true
	if e.err != nil {
		return nil, e.err
	}

	d := e.device
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: e.label})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(e.label); err != nil {
		return nil, fmt.Errorf("native: begin encoding: %w", err)
	}

	cb := &CommandBuffer{device: d, label: e.label}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: e.label})
	err = e.replay(pass, cb)
	pass.End()
	if err != nil {
		encoder.DiscardEncoding()
		cb.releaseTransients()
		return nil, err
	}

	raw, err := encoder.EndEncoding()
	if err != nil {
		cb.releaseTransients()
		return nil, fmt.Errorf("native: end encoding: %w", err)
	}
	cb.raw = raw
	e.ops = nil
	return cb, nil
}

// replay encodes the recorded ops into pass.
func (e *Encoder) replay(pass hal.ComputePassEncoder, cb *CommandBuffer) error {
	push := make(map[*pipelineLayout][]byte)
	var current *computePipeline
	for _, o := range e.ops {
		switch o.kind {
		case opSetPipeline:
			pass.SetPipeline(o.pipeline.handle)
			current = o.pipeline
		case opPushConstants:
			data, ok := push[o.layout]
			if !ok {
				data = make([]byte, o.layout.pushSize)
				push[o.layout] = data
			}
			copy(data[o.offset:], o.data)
		case opSetBindGroup:
			pass.SetBindGroup(o.index, o.group, nil)
		case opDispatch:
			if l := current.layout; l.pushSize > 0 {
				group, err := e.device.paramsGroup(cb, l, push[l])
				if err != nil {
					return err
				}
				pass.SetBindGroup(paramsGroupIndex, group, nil)
			}
			pass.Dispatch(o.x, o.y, o.z)
		}
	}
	return nil
}

// paramsGroup uploads push constant data into a fresh uniform buffer and
// binds it with the layout's params group layout. Both objects are owned
// by cb.
func (d *Device) paramsGroup(cb *CommandBuffer, l *pipelineLayout, data []byte) (hal.BindGroup, error) {
	size := uint64(l.pushSize)
	padded := make([]byte, (size+15)&^15)
	copy(padded, data)
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: cb.label + "_params",
		Size:  uint64(len(padded)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create params buffer: %w", err)
	}
	cb.buffers = append(cb.buffers, buf)
	d.queue.queue.WriteBuffer(buf, 0, padded)

	group, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  cb.label + "_params",
		Layout: l.params,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: size}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create params bind group: %w", err)
	}
	cb.groups = append(cb.groups, group)
	return group, nil
}

// Discard implements gpucore.CommandEncoder.
func (e *Encoder) Discard() {
	if e.done {
		return
	}
	e.done = true
	e.ops = nil
}

// CommandBuffer is an encoded hal command buffer plus the transient
// objects its dispatches reference.
type CommandBuffer struct {
	device   *Device
	label    string
	raw      hal.CommandBuffer
	buffers  []hal.Buffer
	groups   []hal.BindGroup
	released bool
}

// Release implements gpucore.CommandBuffer.
func (c *CommandBuffer) Release() {
	if c.released {
		return
	}
	c.released = true
	if c.raw != nil {
		c.device.device.FreeCommandBuffer(c.raw)
		c.raw = nil
	}
	c.releaseTransients()
}

func (c *CommandBuffer) releaseTransients() {
	for _, g := range c.groups {
		c.device.device.DestroyBindGroup(g)
	}
	for _, b := range c.buffers {
		c.device.device.DestroyBuffer(b)
	}
	c.groups, c.buffers = nil, nil
}

var (
	_ gpucore.CommandEncoder = (*Encoder)(nil)
	_ gpucore.CommandBuffer  = (*CommandBuffer)(nil)
)
