package compute

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/compute/adapter"
	"github.com/gogpu/compute/command"
	"github.com/gogpu/compute/descriptor"
	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/pipeline"
	"github.com/gogpu/compute/resource"
	"github.com/gogpu/compute/shader"
)

// GPU is a read-only view of the handles a Context owns.
type GPU struct {
	Adapter *adapter.Adapter
	Device  gpucore.Device
	Queue   gpucore.Queue
}

// noCopy may be embedded into structs which must not be copied after
// first use. See https://golang.org/issues/8005#issuecomment-190753527.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Context owns the logical device and compute queue of one adapter, plus
// the sub-systems built on them:
//
//	device -> Command -> Shader -> Pipeline -> Descriptor -> Resource
//
// Sub-systems are created in that order and released in reverse, device
// last. A Context must not be copied; pass *Context.
//
// Dispatch may be called concurrently with distinct command buffers: the
// caches and pools it touches are synchronized. Flush and Destroy require
// that no other call is in progress.
type Context struct {
	_ noCopy

	adapter *adapter.Adapter
	dev     gpucore.Device
	q       gpucore.Queue
	limits  gpucore.Limits
	logger  *slog.Logger

	command    *command.Command
	shader     *shader.Shader
	pipeline   *pipeline.Pipeline
	descriptor *descriptor.Descriptor
	resource   *resource.Resource

	mu        sync.Mutex
	teardown  releaseStack
	destroyed bool
}

// New opens a logical device with one compute queue on a and builds the
// sub-systems. If the device cannot be created the error wraps
// gpucore.ErrDeviceCreation and no Context is returned.
func New(a *adapter.Adapter, opts ...Option) (*Context, error) {
	if a == nil {
		return nil, fmt.Errorf("compute: %w: nil adapter", gpucore.ErrDeviceCreation)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = Logger()
	}

	dev, q, err := a.Open(o.label)
	if err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}

	c := &Context{
		adapter: a,
		dev:     dev,
		q:       q,
		limits:  a.Limits(),
		logger:  logger,
	}
	c.teardown.push("device", dev.Destroy)

	c.command = command.New(dev, q, logger)
	c.teardown.push("command", c.command.Destroy)

	c.shader = shader.New(dev, logger)
	c.teardown.push("shader", c.shader.Destroy)

	c.pipeline = pipeline.New(dev, logger)
	c.teardown.push("pipeline", c.pipeline.Destroy)

	c.descriptor = descriptor.New(dev, logger)
	c.teardown.push("descriptor", c.descriptor.Destroy)

	c.resource = resource.New(dev, q, logger)
	c.teardown.push("resource", c.resource.Destroy)

	logger.Info("compute: context created", "adapter", a.String(), "label", o.label)
	return c, nil
}

// device returns the logical device.
func (c *Context) device() gpucore.Device {
	assert(c.dev != nil, "nil device")
	return c.dev
}

// queue returns the compute queue.
func (c *Context) queue() gpucore.Queue {
	assert(c.q != nil, "nil queue")
	return c.q
}

// GPU returns the adapter, device and queue of the Context.
func (c *Context) GPU() GPU {
	return GPU{Adapter: c.adapter, Device: c.device(), Queue: c.queue()}
}

// Limits returns the limits of the adapter.
func (c *Context) Limits() gpucore.Limits {
	return c.limits
}

// Command returns the command sub-system.
func (c *Context) Command() *command.Command {
	return c.command
}

// Shader returns the shader sub-system.
func (c *Context) Shader() *shader.Shader {
	return c.shader
}

// Pipeline returns the pipeline sub-system.
func (c *Context) Pipeline() *pipeline.Pipeline {
	return c.pipeline
}

// Descriptor returns the descriptor sub-system.
func (c *Context) Descriptor() *descriptor.Descriptor {
	return c.descriptor
}

// Resource returns the resource sub-system.
func (c *Context) Resource() *resource.Resource {
	return c.resource
}

// Flush blocks until all submitted work has completed, then releases
// transient state: completed command buffers, the current descriptor
// pool epoch and released resources. Shader and pipeline caches survive.
//
// Flush is expensive. Use it for debugging or at coarse synchronization
// points, never per dispatch.
func (c *Context) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	// Purging before the queue is idle would free objects still in use.
	if err := c.command.Pool.Flush(); err != nil {
		return fmt.Errorf("compute: flush: %w", err)
	}
	c.descriptor.Pool.Purge()
	c.resource.Pool.Purge()
	return nil
}

// Destroy waits for outstanding work and releases the sub-systems in
// reverse creation order, then the device. Destroy is idempotent.
func (c *Context) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	c.destroyed = true
	if err := c.command.Pool.Flush(); err != nil {
		c.logger.Warn("compute: wait on destroy failed", "err", err)
	}
	c.teardown.unwind(c.logger)
	c.logger.Info("compute: context destroyed", "adapter", c.adapter.String())
}

// Destroyed reports whether Destroy has been called.
func (c *Context) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}
