// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/compute/gpucore"
)

// Pool hands out command buffers and tracks submitted work until the
// queue is known to be idle.
//
// Pool is safe for concurrent use.
type Pool struct {
	device gpucore.Device
	queue  gpucore.Queue
	logger *slog.Logger

	mu        sync.Mutex
	inFlight  []gpucore.CommandBuffer
	submits   uint64
	destroyed bool
}

// NewPool creates a command pool on device and queue.
func NewPool(device gpucore.Device, queue gpucore.Queue, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pool{device: device, queue: queue, logger: logger}
}

// Allocate begins a new command buffer.
func (p *Pool) Allocate(label string) (*Buffer, error) {
	p.mu.Lock()
	destroyed := p.destroyed
	p.mu.Unlock()
	if destroyed {
		return nil, ErrPoolDestroyed
	}
	enc, err := p.device.CreateCommandEncoder(label)
	if err != nil {
		return nil, fmt.Errorf("command: begin %q: %w: %w", label, gpucore.ErrObjectCreation, err)
	}
	return &Buffer{pool: p, label: label, encoder: enc}, nil
}

// Submit finishes bufs and submits them to the queue in order. It does not
// wait for completion. On error no buffer is submitted and every buffer
// that was still recording is marked failed.
func (p *Pool) Submit(bufs ...*Buffer) error {
	if len(bufs) == 0 {
		return nil
	}
	for _, b := range bufs {
		if b.pool != p {
			return fmt.Errorf("command: buffer %q belongs to another pool", b.label)
		}
		if err := b.recording(); err != nil {
			return fmt.Errorf("command: submit %q: %w", b.label, err)
		}
	}

	finished := make([]gpucore.CommandBuffer, 0, len(bufs))
	abort := func(err error) error {
		for _, cb := range finished {
			cb.Release()
		}
		for _, b := range bufs {
			b.Fail(err)
		}
		return err
	}

	for _, b := range bufs {
		cb, err := b.encoder.Finish()
		if err != nil {
			return abort(fmt.Errorf("command: finish %q: %w", b.label, err))
		}
		finished = append(finished, cb)
	}
	if err := p.queue.Submit(finished...); err != nil {
		return abort(fmt.Errorf("command: submit: %w", err))
	}

	for _, b := range bufs {
		b.state = StateSubmitted
	}
	p.mu.Lock()
	p.inFlight = append(p.inFlight, finished...)
	p.submits++
	p.mu.Unlock()
	return nil
}

// InFlight returns the number of submitted command buffers not yet reclaimed.
func (p *Pool) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inFlight)
}

// Submits returns the number of successful Submit calls.
func (p *Pool) Submits() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.submits
}

// Flush blocks until the queue is idle, then releases every submitted
// command buffer. This is expensive.
func (p *Pool) Flush() error {
	if err := p.queue.WaitIdle(); err != nil {
		return fmt.Errorf("command: wait idle: %w", err)
	}
	p.mu.Lock()
	done := p.inFlight
	p.inFlight = nil
	p.mu.Unlock()

	for _, cb := range done {
		cb.Release()
	}
	return nil
}

// Destroy flushes the pool and rejects further allocations.
func (p *Pool) Destroy() {
	if err := p.Flush(); err != nil {
		p.logger.Warn("command: flush on destroy failed", "err", err)
	}
	p.mu.Lock()
	p.destroyed = true
	p.mu.Unlock()
}

// Command owns the command pool of a context.
type Command struct {
	Pool *Pool
}

// New creates the command sub-system on device and queue.
func New(device gpucore.Device, queue gpucore.Queue, logger *slog.Logger) *Command {
	return &Command{Pool: NewPool(device, queue, logger)}
}

// Buffer begins a new command buffer. It is shorthand for Pool.Allocate.
func (c *Command) Buffer(label string) (*Buffer, error) {
	return c.Pool.Allocate(label)
}

// Submit submits bufs. It is shorthand for Pool.Submit.
func (c *Command) Submit(bufs ...*Buffer) error {
	return c.Pool.Submit(bufs...)
}

// Destroy releases every object owned by the sub-system.
func (c *Command) Destroy() {
	c.Pool.Destroy()
}
