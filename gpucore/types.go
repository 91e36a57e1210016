// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"fmt"
	"strings"
)

// Object IDs
//
// These opaque IDs represent GPU objects. Each driver maintains a mapping
// between IDs and its native handles. IDs are uint64 to accommodate
// various backend handle sizes.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture (image).
type TextureID uint64

// ShaderModuleID is an opaque handle to a compiled shader module.
type ShaderModuleID uint64

// ComputePipelineID is an opaque handle to a compute pipeline.
type ComputePipelineID uint64

// BindGroupLayoutID is an opaque handle to a descriptor-set (bind group) layout.
type BindGroupLayoutID uint64

// BindGroupID is an opaque handle to a descriptor set (bind group).
type BindGroupID uint64

// PipelineLayoutID is an opaque handle to a pipeline layout.
type PipelineLayoutID uint64

// InvalidID is the zero value, representing an invalid/null object.
const InvalidID = 0

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageMapRead indicates the buffer can be mapped for reading.
	BufferUsageMapRead BufferUsage = 1 << 0

	// BufferUsageMapWrite indicates the buffer can be mapped for writing.
	BufferUsageMapWrite BufferUsage = 1 << 1

	// BufferUsageCopySrc indicates the buffer can be used as a copy source.
	BufferUsageCopySrc BufferUsage = 1 << 2

	// BufferUsageCopyDst indicates the buffer can be used as a copy destination.
	BufferUsageCopyDst BufferUsage = 1 << 3

	// BufferUsageUniform indicates the buffer can be bound as a uniform buffer.
	BufferUsageUniform BufferUsage = 1 << 6

	// BufferUsageStorage indicates the buffer can be bound as a storage buffer.
	BufferUsageStorage BufferUsage = 1 << 7

	// BufferUsageIndirect indicates the buffer can be used for indirect dispatch.
	BufferUsageIndirect BufferUsage = 1 << 8
)

// TextureFormat specifies the format of texture data.
type TextureFormat uint32

// Texture formats.
const (
	// TextureFormatRGBA8Unorm is 8-bit RGBA, normalized unsigned integer.
	TextureFormatRGBA8Unorm TextureFormat = iota + 1

	// TextureFormatBGRA8Unorm is 8-bit BGRA, normalized unsigned integer.
	TextureFormatBGRA8Unorm

	// TextureFormatR32Float is 32-bit red channel only, floating point.
	TextureFormatR32Float

	// TextureFormatRGBA32Float is 32-bit RGBA, floating point.
	TextureFormatRGBA32Float
)

// BytesPerPixel returns the texel size of the format, or 0 if unknown.
func (f TextureFormat) BytesPerPixel() uint32 {
	switch f {
	case TextureFormatRGBA8Unorm, TextureFormatBGRA8Unorm, TextureFormatR32Float:
		return 4
	case TextureFormatRGBA32Float:
		return 16
	default:
		return 0
	}
}

// TextureUsage is a bitmask specifying how a texture will be used.
type TextureUsage uint32

// Texture usage flags.
const (
	// TextureUsageCopySrc indicates the texture can be used as a copy source.
	TextureUsageCopySrc TextureUsage = 1 << 0

	// TextureUsageCopyDst indicates the texture can be used as a copy destination.
	TextureUsageCopyDst TextureUsage = 1 << 1

	// TextureUsageTextureBinding indicates the texture can be bound as a sampled texture.
	TextureUsageTextureBinding TextureUsage = 1 << 2

	// TextureUsageStorageBinding indicates the texture can be bound as a storage texture.
	TextureUsageStorageBinding TextureUsage = 1 << 3
)

// BindingType specifies the type of a shader binding.
type BindingType uint32

// Binding types.
const (
	// BindingTypeUniformBuffer is a uniform buffer binding.
	BindingTypeUniformBuffer BindingType = iota + 1

	// BindingTypeStorageBuffer is a storage buffer binding (read-write).
	BindingTypeStorageBuffer

	// BindingTypeReadOnlyStorageBuffer is a read-only storage buffer binding.
	BindingTypeReadOnlyStorageBuffer

	// BindingTypeSampledTexture is a sampled texture binding.
	BindingTypeSampledTexture

	// BindingTypeStorageTexture is a storage texture binding.
	BindingTypeStorageTexture
)

// Valid reports whether t is one of the defined binding types.
func (t BindingType) Valid() bool {
	return t >= BindingTypeUniformBuffer && t <= BindingTypeStorageTexture
}

// IsBuffer reports whether t binds a buffer.
func (t BindingType) IsBuffer() bool {
	return t >= BindingTypeUniformBuffer && t <= BindingTypeReadOnlyStorageBuffer
}

// String returns the string representation of BindingType.
func (t BindingType) String() string {
	switch t {
	case BindingTypeUniformBuffer:
		return "uniform"
	case BindingTypeStorageBuffer:
		return "storage"
	case BindingTypeReadOnlyStorageBuffer:
		return "read-only-storage"
	case BindingTypeSampledTexture:
		return "sampled-texture"
	case BindingTypeStorageTexture:
		return "storage-texture"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(t))
	}
}

// DeviceType classifies a physical adapter.
type DeviceType int

// Device types.
const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegratedGPU
	DeviceTypeDiscreteGPU
	DeviceTypeVirtualGPU
	DeviceTypeCPU
)

// String returns the string representation of DeviceType.
func (t DeviceType) String() string {
	switch t {
	case DeviceTypeIntegratedGPU:
		return "IntegratedGPU"
	case DeviceTypeDiscreteGPU:
		return "DiscreteGPU"
	case DeviceTypeVirtualGPU:
		return "VirtualGPU"
	case DeviceTypeCPU:
		return "CPU"
	default:
		return "Other"
	}
}

// AdapterInfo describes a physical adapter.
type AdapterInfo struct {
	// Name is the human-readable device name.
	Name string

	// Vendor is the device vendor, if known.
	Vendor string

	// DeviceType classifies the device.
	DeviceType DeviceType

	// Backend is the name of the driver backend that exposed the adapter.
	Backend string
}

// String returns a one-line description of the adapter.
func (i AdapterInfo) String() string {
	var sb strings.Builder
	sb.WriteString(i.Name)
	if i.Vendor != "" {
		sb.WriteString(" (")
		sb.WriteString(i.Vendor)
		sb.WriteString(")")
	}
	sb.WriteString(" [")
	sb.WriteString(i.DeviceType.String())
	if i.Backend != "" {
		sb.WriteString(", ")
		sb.WriteString(i.Backend)
	}
	sb.WriteString("]")
	return sb.String()
}

// Limits describes the compute capabilities of an adapter.
type Limits struct {
	// SupportsCompute indicates compute shader support.
	SupportsCompute bool

	// MaxWorkgroupSize is the maximum local work group size per dimension.
	MaxWorkgroupSize [3]uint32

	// MaxInvocationsPerWorkgroup is the maximum product of the local work group dimensions.
	MaxInvocationsPerWorkgroup uint32

	// MaxWorkgroupsPerDimension is the maximum dispatch group count per dimension.
	MaxWorkgroupsPerDimension uint32

	// MaxPushConstantSize is the push-constant budget in bytes.
	MaxPushConstantSize uint32

	// MaxBindingsPerSet is the maximum number of bindings in one descriptor set.
	MaxBindingsPerSet uint32

	// MaxBufferSize is the maximum buffer size in bytes.
	MaxBufferSize uint64
}

// DefaultLimits returns the limits every compute-capable adapter is
// expected to meet.
func DefaultLimits() Limits {
	return Limits{
		SupportsCompute:            true,
		MaxWorkgroupSize:           [3]uint32{256, 256, 64},
		MaxInvocationsPerWorkgroup: 256,
		MaxWorkgroupsPerDimension:  65535,
		MaxPushConstantSize:        128,
		MaxBindingsPerSet:          16,
		MaxBufferSize:              256 << 20,
	}
}

// ShaderModuleDesc describes a shader module.
type ShaderModuleDesc struct {
	// Label is an optional debug label.
	Label string

	// WGSL is the shader source.
	WGSL string
}

// BindGroupLayoutDesc describes a bind group layout.
type BindGroupLayoutDesc struct {
	// Label is an optional debug label.
	Label string

	// Entries defines the bindings in this layout.
	Entries []BindGroupLayoutEntry
}

// BindGroupLayoutEntry describes a single binding in a bind group layout.
type BindGroupLayoutEntry struct {
	// Binding is the binding index.
	Binding uint32

	// Type is the type of resource bound at this index.
	Type BindingType

	// MinBindingSize is the minimum buffer size for buffer bindings.
	// Set to 0 for non-buffer bindings.
	MinBindingSize uint64
}

// PipelineLayoutDesc describes a pipeline layout.
type PipelineLayoutDesc struct {
	// Label is an optional debug label.
	Label string

	// SetLayout is the descriptor-set layout used by the pipeline.
	SetLayout BindGroupLayoutID

	// PushConstantSize is the push-constant range in bytes, visible to
	// the compute stage at offset zero. Zero means no push constants.
	PushConstantSize uint32
}

// ComputePipelineDesc describes a compute pipeline.
type ComputePipelineDesc struct {
	// Label is an optional debug label.
	Label string

	// Layout is the pipeline layout.
	Layout PipelineLayoutID

	// ShaderModule contains the compute shader.
	ShaderModule ShaderModuleID

	// EntryPoint is the name of the shader entry point function.
	EntryPoint string

	// WorkgroupSize is the local work group shape the pipeline is specialized for.
	WorkgroupSize [3]uint32
}

// BindGroupEntry describes a single binding in a bind group.
type BindGroupEntry struct {
	// Binding is the binding index.
	Binding uint32

	// Buffer is the buffer to bind (for buffer bindings).
	Buffer BufferID

	// Offset is the offset into the buffer.
	Offset uint64

	// Size is the size of the buffer range to bind.
	// Use 0 to bind the entire buffer from offset.
	Size uint64

	// Texture is the texture to bind (for texture bindings).
	Texture TextureID
}

// BindGroupDesc describes a bind group.
type BindGroupDesc struct {
	// Label is an optional debug label.
	Label string

	// Layout is the bind group layout.
	Layout BindGroupLayoutID

	// Entries are the resource bindings.
	Entries []BindGroupEntry
}

// BufferDesc describes a buffer.
type BufferDesc struct {
	// Label is an optional debug label.
	Label string

	// Size is the buffer size in bytes.
	Size uint64

	// Usage is a bitmask of BufferUsage flags.
	Usage BufferUsage
}

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	// Label is an optional debug label.
	Label string

	// Width is the texture width in texels.
	Width uint32

	// Height is the texture height in texels.
	Height uint32

	// Format is the texel format.
	Format TextureFormat

	// Usage is a bitmask of TextureUsage flags.
	Usage TextureUsage
}
