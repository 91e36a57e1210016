// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/internal/cache"
)

// DefaultEntryPoint is used when a Descriptor leaves EntryPoint empty.
const DefaultEntryPoint = "main"

// Descriptor identifies a compute kernel. Descriptors are compared by
// value; two descriptors with equal fields share one compiled module.
//
// Source is WGSL. If it contains the WORKGROUP_SIZE token, drivers
// replace it with the local work group of each pipeline built from it.
type Descriptor struct {
	// Name is a debug label.
	Name string

	// Source is the WGSL source.
	Source string

	// EntryPoint is the compute entry point. Empty means DefaultEntryPoint.
	EntryPoint string
}

// Entry returns the effective entry point name.
func (d Descriptor) Entry() string {
	if d.EntryPoint == "" {
		return DefaultEntryPoint
	}
	return d.EntryPoint
}

func (d Descriptor) normalized() Descriptor {
	d.EntryPoint = d.Entry()
	return d
}

// Module is a cached shader module.
type Module struct {
	// Handle is the driver module object.
	Handle gpucore.ShaderModuleID

	// EntryPoint is the compute entry point inside the module.
	EntryPoint string

	// Name is the descriptor name.
	Name string
}

// ModuleCache maps descriptors to shader modules.
// ModuleCache is safe for concurrent use.
type ModuleCache struct {
	device gpucore.Device
	logger *slog.Logger
	store  *cache.Store[Descriptor, Module]
}

// NewModuleCache creates an empty module cache on device.
func NewModuleCache(device gpucore.Device, logger *slog.Logger) *ModuleCache {
	return &ModuleCache{
		device: device,
		logger: orDiscard(logger),
		store:  cache.New[Descriptor, Module](),
	}
}

// Retrieve returns the module for desc, compiling it on first use.
func (c *ModuleCache) Retrieve(desc Descriptor) (Module, error) {
	if desc.Source == "" {
		return Module{}, fmt.Errorf("%w: %q", ErrEmptySource, desc.Name)
	}
	key := desc.normalized()
	return c.store.GetOrCreate(key, func() (Module, error) {
		id, err := c.device.CreateShaderModule(&gpucore.ShaderModuleDesc{
			Label: key.Name,
			WGSL:  key.Source,
		})
		if err != nil {
			return Module{}, fmt.Errorf("shader: create module %q: %w: %w", key.Name, gpucore.ErrObjectCreation, err)
		}
		c.logger.Debug("shader: module created", "name", key.Name, "entry", key.EntryPoint, "id", id)
		return Module{Handle: id, EntryPoint: key.EntryPoint, Name: key.Name}, nil
	})
}

// Len returns the number of cached modules.
func (c *ModuleCache) Len() int {
	return c.store.Len()
}

// Stats returns cache statistics.
func (c *ModuleCache) Stats() CacheStats {
	return c.store.Stats()
}

// Purge destroys every cached module, newest first.
func (c *ModuleCache) Purge() {
	c.store.Drain(func(_ Descriptor, m Module) {
		c.device.DestroyShaderModule(m.Handle)
	})
}
