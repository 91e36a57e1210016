// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/internal/cache"
	"github.com/gogpu/compute/shader"
)

// CacheStats reports cache effectiveness.
type CacheStats = cache.Stats

// Key identifies a compute pipeline. Every field takes part in equality;
// changing any one of them selects a different pipeline.
type Key struct {
	Layout         gpucore.PipelineLayoutID
	Module         gpucore.ShaderModuleID
	EntryPoint     string
	LocalWorkGroup shader.WorkGroup
}

// String returns a compact description of the key.
func (k Key) String() string {
	return fmt.Sprintf("layout=%d module=%d entry=%s local=%s", k.Layout, k.Module, k.EntryPoint, k.LocalWorkGroup)
}

// Object is a cached compute pipeline.
type Object struct {
	Handle gpucore.ComputePipelineID
	Key    Key
}

// Cache maps pipeline keys to compute pipelines.
// Cache is safe for concurrent use.
type Cache struct {
	device gpucore.Device
	logger *slog.Logger
	store  *cache.Store[Key, Object]
}

// NewCache creates an empty pipeline cache on device.
func NewCache(device gpucore.Device, logger *slog.Logger) *Cache {
	return &Cache{
		device: device,
		logger: orDiscard(logger),
		store:  cache.New[Key, Object](),
	}
}

// Retrieve returns the pipeline for key, creating it on first use.
// An empty entry point means shader.DefaultEntryPoint.
func (c *Cache) Retrieve(key Key) (Object, error) {
	if key.EntryPoint == "" {
		key.EntryPoint = shader.DefaultEntryPoint
	}
	if key.Layout == gpucore.InvalidID || key.Module == gpucore.InvalidID {
		return Object{}, ErrInvalidKey
	}
	if !key.LocalWorkGroup.Valid() {
		return Object{}, fmt.Errorf("%w: local work group %s", ErrInvalidKey, key.LocalWorkGroup)
	}
	return c.store.GetOrCreate(key, func() (Object, error) {
		id, err := c.device.CreateComputePipeline(&gpucore.ComputePipelineDesc{
			Label:         key.EntryPoint,
			Layout:        key.Layout,
			ShaderModule:  key.Module,
			EntryPoint:    key.EntryPoint,
			WorkgroupSize: key.LocalWorkGroup.Array(),
		})
		if err != nil {
			return Object{}, fmt.Errorf("pipeline: create (%s): %w: %w", key, gpucore.ErrObjectCreation, err)
		}
		c.logger.Debug("pipeline: created", "key", key.String(), "id", id)
		return Object{Handle: id, Key: key}, nil
	})
}

// Len returns the number of cached pipelines.
func (c *Cache) Len() int {
	return c.store.Len()
}

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	return c.store.Stats()
}

// Purge destroys every cached pipeline, newest first.
func (c *Cache) Purge() {
	c.store.Drain(func(_ Key, o Object) {
		c.device.DestroyComputePipeline(o.Handle)
	})
}
