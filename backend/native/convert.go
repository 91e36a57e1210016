//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/gputypes"
)

// convertBufferUsage converts gpucore.BufferUsage to gputypes.BufferUsage.
func convertBufferUsage(usage gpucore.BufferUsage) gputypes.BufferUsage {
	var result gputypes.BufferUsage
	if usage&gpucore.BufferUsageMapRead != 0 {
		result |= gputypes.BufferUsageMapRead
	}
	if usage&gpucore.BufferUsageMapWrite != 0 {
		result |= gputypes.BufferUsageMapWrite
	}
	if usage&gpucore.BufferUsageCopySrc != 0 {
		result |= gputypes.BufferUsageCopySrc
	}
	if usage&gpucore.BufferUsageCopyDst != 0 {
		result |= gputypes.BufferUsageCopyDst
	}
	if usage&gpucore.BufferUsageUniform != 0 {
		result |= gputypes.BufferUsageUniform
	}
	if usage&gpucore.BufferUsageStorage != 0 {
		result |= gputypes.BufferUsageStorage
	}
	if usage&gpucore.BufferUsageIndirect != 0 {
		result |= gputypes.BufferUsageIndirect
	}
	return result
}

// convertTextureUsage converts gpucore.TextureUsage to gputypes.TextureUsage.
func convertTextureUsage(usage gpucore.TextureUsage) gputypes.TextureUsage {
	var result gputypes.TextureUsage
	if usage&gpucore.TextureUsageCopySrc != 0 {
		result |= gputypes.TextureUsageCopySrc
	}
	if usage&gpucore.TextureUsageCopyDst != 0 {
		result |= gputypes.TextureUsageCopyDst
	}
	if usage&gpucore.TextureUsageTextureBinding != 0 {
		result |= gputypes.TextureUsageTextureBinding
	}
	if usage&gpucore.TextureUsageStorageBinding != 0 {
		result |= gputypes.TextureUsageStorageBinding
	}
	return result
}

// convertTextureFormat converts gpucore.TextureFormat to gputypes.TextureFormat.
func convertTextureFormat(format gpucore.TextureFormat) (gputypes.TextureFormat, error) {
	switch format {
	case gpucore.TextureFormatRGBA8Unorm:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case gpucore.TextureFormatBGRA8Unorm:
		return gputypes.TextureFormatBGRA8Unorm, nil
	case gpucore.TextureFormatR32Float:
		return gputypes.TextureFormatR32Float, nil
	case gpucore.TextureFormatRGBA32Float:
		return gputypes.TextureFormatRGBA32Float, nil
	default:
		return gputypes.TextureFormatUndefined, fmt.Errorf("native: texture format %d: %w", format, gpucore.ErrUnsupported)
	}
}

// convertLayoutEntry converts one set layout entry. Only buffer bindings
// are expressible; texture bindings report gpucore.ErrUnsupported.
func convertLayoutEntry(entry gpucore.BindGroupLayoutEntry) (gputypes.BindGroupLayoutEntry, error) {
	result := gputypes.BindGroupLayoutEntry{
		Binding:    entry.Binding,
		Visibility: gputypes.ShaderStageCompute,
	}
	var typ gputypes.BufferBindingType
	switch entry.Type {
	case gpucore.BindingTypeUniformBuffer:
		typ = gputypes.BufferBindingTypeUniform
	case gpucore.BindingTypeStorageBuffer:
		typ = gputypes.BufferBindingTypeStorage
	case gpucore.BindingTypeReadOnlyStorageBuffer:
		typ = gputypes.BufferBindingTypeReadOnlyStorage
	default:
		return result, fmt.Errorf("native: binding %d of type %s: %w", entry.Binding, entry.Type, gpucore.ErrUnsupported)
	}
	result.Buffer = &gputypes.BufferBindingLayout{Type: typ, MinBindingSize: entry.MinBindingSize}
	return result, nil
}

// convertDeviceType maps the hal adapter classification.
func convertDeviceType(t gputypes.DeviceType) gpucore.DeviceType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucore.DeviceTypeDiscreteGPU
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucore.DeviceTypeIntegratedGPU
	default:
		return gpucore.DeviceTypeOther
	}
}

// convertLimits derives compute limits from hal device limits.
// Push constants are emulated, so their budget is the gpucore default.
func convertLimits(l gputypes.Limits) gpucore.Limits {
	limits := gpucore.DefaultLimits()
	if l.MaxComputeWorkgroupSizeX > 0 {
		limits.MaxWorkgroupSize = [3]uint32{
			l.MaxComputeWorkgroupSizeX,
			l.MaxComputeWorkgroupSizeY,
			l.MaxComputeWorkgroupSizeZ,
		}
	}
	if l.MaxBufferSize > 0 {
		limits.MaxBufferSize = l.MaxBufferSize
	}
	return limits
}
