package compute

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/compute/command"
	"github.com/gogpu/compute/pipeline"
	"github.com/gogpu/compute/resource"
	"github.com/gogpu/compute/shader"
)

// Dispatch records one compute invocation into buf.
//
// sig describes the descriptor-set slots the kernel declares and desc
// identifies the kernel. global is an element count per dimension; the
// recorded group count is global divided by local, rounded up. params is
// a fixed-size value (see encoding/binary) uploaded as push constants, or
// nil for none. args are bound in order: args[i] goes to slot i.
//
// Dispatch records but does not submit or wait. Any failure marks buf as
// failed so it cannot be submitted half-recorded; object creation
// failures wrap gpucore.ErrObjectCreation.
//
// Dispatch may be called concurrently on distinct command buffers.
func (c *Context) Dispatch(
	buf *command.Buffer,
	sig shader.Signature,
	desc shader.Descriptor,
	global, local shader.WorkGroup,
	params any,
	args resource.Args,
) error {
	if buf == nil {
		return ErrNilBuffer
	}
	if c.Destroyed() {
		return ErrDestroyed
	}
	if err := c.dispatch(buf, sig, desc, global, local, params, args); err != nil {
		buf.Fail(err)
		c.logger.Debug("compute: dispatch failed", "kernel", desc.Name, "buffer", buf.Label(), "err", err)
		return err
	}
	return nil
}

func (c *Context) dispatch(
	buf *command.Buffer,
	sig shader.Signature,
	desc shader.Descriptor,
	global, local shader.WorkGroup,
	params any,
	args resource.Args,
) error {
	data, err := c.encodeParams(params)
	if err != nil {
		return err
	}
	groups, err := c.groups(global, local)
	if err != nil {
		return err
	}

	setLayout, err := c.shader.Layout.Cache.Retrieve(sig)
	if err != nil {
		return fmt.Errorf("compute: %s: %w", desc.Name, err)
	}
	layout, err := c.pipeline.Layout.Cache.Retrieve(pipeline.LayoutKey{
		SetLayout:        setLayout.Handle,
		PushConstantSize: uint32(len(data)), //nolint:gosec // bounded by MaxPushConstantSize
	})
	if err != nil {
		return fmt.Errorf("compute: %s: %w", desc.Name, err)
	}
	module, err := c.shader.Cache.Retrieve(desc)
	if err != nil {
		return fmt.Errorf("compute: %s: %w", desc.Name, err)
	}
	pipe, err := c.pipeline.Cache.Retrieve(pipeline.Key{
		Layout:         layout.Handle,
		Module:         module.Handle,
		EntryPoint:     module.EntryPoint,
		LocalWorkGroup: local,
	})
	if err != nil {
		return fmt.Errorf("compute: %s: %w", desc.Name, err)
	}

	if err := buf.BindPipeline(pipe); err != nil {
		return err
	}
	if err := buf.PushConstants(layout, data); err != nil {
		return err
	}

	set, err := c.descriptor.Pool.Allocate(setLayout)
	if err != nil {
		return fmt.Errorf("compute: %s: %w", desc.Name, err)
	}
	for i, arg := range args {
		if err := set.Bind(i, arg); err != nil {
			return fmt.Errorf("compute: %s: arg %d: %w", desc.Name, i, err)
		}
	}
	if err := buf.BindDescriptorSet(set); err != nil {
		return fmt.Errorf("compute: %s: %w", desc.Name, err)
	}
	return buf.Dispatch(groups)
}

// encodeParams serializes params as little-endian push-constant bytes.
func (c *Context) encodeParams(params any) ([]byte, error) {
	if params == nil {
		return nil, nil
	}
	size := binary.Size(params)
	if size < 0 {
		return nil, fmt.Errorf("%w: %T", ErrInvalidParams, params)
	}
	if limit := c.limits.MaxPushConstantSize; uint64(size) > uint64(limit) {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrPushConstantsTooLarge, size, limit)
	}
	data, err := binary.Append(make([]byte, 0, size), binary.LittleEndian, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return data, nil
}

// groups validates global and local against the adapter limits and
// returns the group counts to dispatch. Zero limits are not enforced.
func (c *Context) groups(global, local shader.WorkGroup) (shader.WorkGroup, error) {
	if !global.Valid() {
		return shader.WorkGroup{}, fmt.Errorf("%w: global %s", ErrInvalidWorkGroup, global)
	}
	if !local.Valid() {
		return shader.WorkGroup{}, fmt.Errorf("%w: local %s", ErrInvalidWorkGroup, local)
	}
	l := c.limits
	for i, n := range local.Array() {
		if limit := l.MaxWorkgroupSize[i]; limit > 0 && n > limit {
			return shader.WorkGroup{}, fmt.Errorf("%w: local %s exceeds %v", ErrInvalidWorkGroup, local, l.MaxWorkgroupSize)
		}
	}
	if limit := l.MaxInvocationsPerWorkgroup; limit > 0 && local.Invocations() > uint64(limit) {
		return shader.WorkGroup{}, fmt.Errorf("%w: local %s has %d invocations, limit %d", ErrInvalidWorkGroup, local, local.Invocations(), limit)
	}
	groups := global.Groups(local)
	if limit := l.MaxWorkgroupsPerDimension; limit > 0 {
		for _, n := range groups.Array() {
			if n > limit {
				return shader.WorkGroup{}, fmt.Errorf("%w: %s groups, limit %d per dimension", ErrInvalidWorkGroup, groups, limit)
			}
		}
	}
	return groups, nil
}
