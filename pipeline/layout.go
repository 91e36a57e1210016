// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/internal/cache"
)

// LayoutKey identifies a pipeline layout.
type LayoutKey struct {
	// SetLayout is the descriptor-set layout at group 0.
	SetLayout gpucore.BindGroupLayoutID

	// PushConstantSize is the push-constant range in bytes.
	PushConstantSize uint32
}

// Layout is a cached pipeline layout.
type Layout struct {
	Handle           gpucore.PipelineLayoutID
	SetLayout        gpucore.BindGroupLayoutID
	PushConstantSize uint32
}

// LayoutCache maps {set layout, push-constant size} to pipeline layouts.
// LayoutCache is safe for concurrent use.
type LayoutCache struct {
	device gpucore.Device
	logger *slog.Logger
	store  *cache.Store[LayoutKey, Layout]
}

// NewLayoutCache creates an empty pipeline layout cache on device.
func NewLayoutCache(device gpucore.Device, logger *slog.Logger) *LayoutCache {
	return &LayoutCache{
		device: device,
		logger: orDiscard(logger),
		store:  cache.New[LayoutKey, Layout](),
	}
}

// Retrieve returns the pipeline layout for key, creating it on first use.
func (c *LayoutCache) Retrieve(key LayoutKey) (Layout, error) {
	if key.SetLayout == gpucore.InvalidID {
		return Layout{}, ErrInvalidKey
	}
	return c.store.GetOrCreate(key, func() (Layout, error) {
		id, err := c.device.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{
			Label:            fmt.Sprintf("pipeline-layout(set=%d,push=%d)", key.SetLayout, key.PushConstantSize),
			SetLayout:        key.SetLayout,
			PushConstantSize: key.PushConstantSize,
		})
		if err != nil {
			return Layout{}, fmt.Errorf("pipeline: create layout (set=%d, push=%d): %w: %w",
				key.SetLayout, key.PushConstantSize, gpucore.ErrObjectCreation, err)
		}
		c.logger.Debug("pipeline: layout created",
			"set_layout", key.SetLayout, "push_constant_size", key.PushConstantSize, "id", id)
		return Layout{Handle: id, SetLayout: key.SetLayout, PushConstantSize: key.PushConstantSize}, nil
	})
}

// Len returns the number of cached layouts.
func (c *LayoutCache) Len() int {
	return c.store.Len()
}

// Stats returns cache statistics.
func (c *LayoutCache) Stats() CacheStats {
	return c.store.Stats()
}

// Purge destroys every cached layout, newest first.
func (c *LayoutCache) Purge() {
	c.store.Drain(func(_ LayoutKey, l Layout) {
		c.device.DestroyPipelineLayout(l.Handle)
	})
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
