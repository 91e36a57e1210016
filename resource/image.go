// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"sync/atomic"

	"github.com/gogpu/compute/gpucore"
)

// ImageDesc describes an image allocation.
type ImageDesc = gpucore.TextureDesc

// Image is a 2D device image allocated from a Pool.
type Image struct {
	pool     *Pool
	id       gpucore.TextureID
	desc     ImageDesc
	released atomic.Bool
}

// ID returns the driver texture ID.
func (i *Image) ID() gpucore.TextureID {
	return i.id
}

// Width returns the image width in texels.
func (i *Image) Width() uint32 {
	return i.desc.Width
}

// Height returns the image height in texels.
func (i *Image) Height() uint32 {
	return i.desc.Height
}

// Format returns the texel format.
func (i *Image) Format() gpucore.TextureFormat {
	return i.desc.Format
}

// Label implements Bindable.
func (i *Image) Label() string {
	return i.desc.Label
}

// Released implements Bindable.
func (i *Image) Released() bool {
	return i.released.Load()
}

// Supports implements Bindable.
func (i *Image) Supports(t gpucore.BindingType) bool {
	switch t {
	case gpucore.BindingTypeSampledTexture:
		return i.desc.Usage&gpucore.TextureUsageTextureBinding != 0
	case gpucore.BindingTypeStorageTexture:
		return i.desc.Usage&gpucore.TextureUsageStorageBinding != 0
	default:
		return false
	}
}

// Entry implements Bindable.
func (i *Image) Entry(slot uint32) gpucore.BindGroupEntry {
	return gpucore.BindGroupEntry{Binding: slot, Texture: i.id}
}

// Release marks the image for destruction at the next Pool.Purge.
// Release is idempotent.
func (i *Image) Release() {
	if i.released.CompareAndSwap(false, true) {
		i.pool.retire(i)
	}
}

func (i *Image) destroy(d gpucore.Device) {
	d.DestroyTexture(i.id)
}

var _ Bindable = (*Image)(nil)
