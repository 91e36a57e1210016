// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"errors"
	"log/slog"

	"github.com/gogpu/compute/gpucore"
)

// ErrInvalidKey is returned when a cache key names no object or an empty work group.
var ErrInvalidKey = errors.New("pipeline: invalid key")

// Layouts groups the pipeline layout cache.
type Layouts struct {
	Cache *LayoutCache
}

// Pipeline owns the pipeline layout cache and the compute pipeline cache.
type Pipeline struct {
	// Layout holds the pipeline layout cache.
	Layout Layouts

	// Cache is the compute pipeline cache.
	Cache *Cache
}

// Stats reports both caches.
type Stats struct {
	Layouts   CacheStats
	Pipelines CacheStats
}

// New creates the pipeline sub-system on device.
func New(device gpucore.Device, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		Layout: Layouts{Cache: NewLayoutCache(device, logger)},
		Cache:  NewCache(device, logger),
	}
}

// Stats returns statistics for both caches.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Layouts:   p.Layout.Cache.Stats(),
		Pipelines: p.Cache.Stats(),
	}
}

// Purge destroys every cached pipeline, then every pipeline layout.
func (p *Pipeline) Purge() {
	p.Cache.Purge()
	p.Layout.Cache.Purge()
}

// Destroy releases every object owned by the sub-system.
func (p *Pipeline) Destroy() {
	p.Purge()
}
