// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"log/slog"

	"github.com/gogpu/compute/gpucore"
)

// Layouts groups the descriptor-set layout cache.
type Layouts struct {
	Cache *LayoutCache
}

// Shader owns the shader module cache and the descriptor-set layout cache.
type Shader struct {
	// Layout holds the signature-keyed set layout cache.
	Layout Layouts

	// Cache is the descriptor-keyed module cache.
	Cache *ModuleCache
}

// New creates the shader sub-system on device.
func New(device gpucore.Device, logger *slog.Logger) *Shader {
	return &Shader{
		Layout: Layouts{Cache: NewLayoutCache(device, logger)},
		Cache:  NewModuleCache(device, logger),
	}
}

// Purge destroys every cached module and layout.
// Pipelines built from them must be purged first.
func (s *Shader) Purge() {
	s.Cache.Purge()
	s.Layout.Cache.Purge()
}

// Destroy releases every object owned by the sub-system.
func (s *Shader) Destroy() {
	s.Purge()
}
