// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/compute/gpucore"
)

type object interface {
	destroy(d gpucore.Device)
}

// Pool allocates buffers and images and defers their destruction until
// the GPU can no longer reference them.
//
// Pool is safe for concurrent use.
type Pool struct {
	device gpucore.Device
	queue  gpucore.Queue
	logger *slog.Logger

	mu        sync.Mutex
	live      map[object]struct{}
	retired   []object
	destroyed bool
}

// NewPool creates a resource pool on device and queue.
func NewPool(device gpucore.Device, queue gpucore.Queue, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pool{
		device: device,
		queue:  queue,
		logger: logger,
		live:   make(map[object]struct{}),
	}
}

// Buffer allocates a buffer.
func (p *Pool) Buffer(desc BufferDesc) (*Buffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return nil, ErrPoolDestroyed
	}
	id, err := p.device.CreateBuffer(&desc)
	if err != nil {
		return nil, fmt.Errorf("resource: create buffer %q (%d bytes): %w: %w", desc.Label, desc.Size, gpucore.ErrObjectCreation, err)
	}
	b := &Buffer{pool: p, id: id, size: desc.Size, usage: desc.Usage, label: desc.Label}
	p.live[b] = struct{}{}
	p.logger.Debug("resource: buffer allocated", "label", desc.Label, "size", desc.Size, "id", id)
	return b, nil
}

// BufferWithData allocates a buffer sized to data and uploads it.
// CopyDst is added to usage.
func (p *Pool) BufferWithData(label string, usage gpucore.BufferUsage, data []byte) (*Buffer, error) {
	b, err := p.Buffer(BufferDesc{Label: label, Size: uint64(len(data)), Usage: usage | gpucore.BufferUsageCopyDst})
	if err != nil {
		return nil, err
	}
	if err := b.Write(0, data); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

// Image allocates a 2D image.
func (p *Pool) Image(desc ImageDesc) (*Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return nil, ErrPoolDestroyed
	}
	id, err := p.device.CreateTexture(&desc)
	if err != nil {
		return nil, fmt.Errorf("resource: create image %q (%dx%d): %w: %w", desc.Label, desc.Width, desc.Height, gpucore.ErrObjectCreation, err)
	}
	img := &Image{pool: p, id: id, desc: desc}
	p.live[img] = struct{}{}
	p.logger.Debug("resource: image allocated", "label", desc.Label, "width", desc.Width, "height", desc.Height, "id", id)
	return img, nil
}

func (p *Pool) retire(o object) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.live[o]; !ok {
		return
	}
	delete(p.live, o)
	p.retired = append(p.retired, o)
}

// Live returns the number of allocated, unreleased resources.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

// Pending returns the number of released resources awaiting Purge.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.retired)
}

// Purge destroys every released resource. Callers must ensure the GPU is
// idle; the context calls Purge from Flush after waiting on the queue.
func (p *Pool) Purge() {
	p.mu.Lock()
	retired := p.retired
	p.retired = nil
	p.mu.Unlock()

	for i := len(retired) - 1; i >= 0; i-- {
		retired[i].destroy(p.device)
	}
	if len(retired) > 0 {
		p.logger.Debug("resource: purged", "count", len(retired))
	}
}

// Destroy releases and destroys every resource, including live ones.
// The pool rejects allocations afterwards.
func (p *Pool) Destroy() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	leaked := len(p.live)
	for o := range p.live {
		switch r := o.(type) {
		case *Buffer:
			r.released.Store(true)
		case *Image:
			r.released.Store(true)
		}
		p.retired = append(p.retired, o)
	}
	p.live = make(map[object]struct{})
	p.mu.Unlock()

	if leaked > 0 {
		p.logger.Warn("resource: destroying unreleased resources", "count", leaked)
	}
	p.Purge()
}
