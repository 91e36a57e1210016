// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/internal/cache"
)

// CacheStats reports cache effectiveness.
type CacheStats = cache.Stats

// Layout is a cached descriptor-set layout and the signature it was built from.
type Layout struct {
	// Handle is the driver layout object.
	Handle gpucore.BindGroupLayoutID

	// Signature is a private copy of the signature; do not modify.
	Signature Signature
}

// LayoutCache maps signatures to descriptor-set layouts.
//
// LayoutCache is safe for concurrent use. Equal signatures resolve to the
// same layout and the driver object is created once.
type LayoutCache struct {
	device gpucore.Device
	logger *slog.Logger
	store  *cache.Store[string, Layout]
}

// NewLayoutCache creates an empty layout cache on device.
func NewLayoutCache(device gpucore.Device, logger *slog.Logger) *LayoutCache {
	return &LayoutCache{
		device: device,
		logger: orDiscard(logger),
		store:  cache.New[string, Layout](),
	}
}

// Retrieve returns the layout for sig, creating it on first use.
func (c *LayoutCache) Retrieve(sig Signature) (Layout, error) {
	if err := sig.Validate(); err != nil {
		return Layout{}, err
	}
	key := sig.Key()
	return c.store.GetOrCreate(key, func() (Layout, error) {
		id, err := c.device.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
			Label:   "layout" + key,
			Entries: sig.Entries(),
		})
		if err != nil {
			return Layout{}, fmt.Errorf("shader: create set layout %s: %w: %w", key, gpucore.ErrObjectCreation, err)
		}
		c.logger.Debug("shader: set layout created", "signature", key, "id", id)
		return Layout{Handle: id, Signature: sig.Clone()}, nil
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
	c.store.Drain(func(_ string, l Layout) {
		c.device.DestroyBindGroupLayout(l.Handle)
	})
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
