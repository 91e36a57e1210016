// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

// Backend enumerates the physical adapters of one driver implementation
// (for example the Vulkan HAL driver, or an in-memory recorder).
type Backend interface {
	// Name returns the backend identifier used by the registry.
	Name() string

	// Adapters returns the physical adapters exposed by the backend.
	// An empty slice with a nil error means the driver loaded but found no device.
	Adapters() ([]PhysicalAdapter, error)
}

// PhysicalAdapter is one physical GPU and its capabilities.
// It is never mutated after enumeration.
type PhysicalAdapter interface {
	// Info describes the adapter.
	Info() AdapterInfo

	// Limits returns the compute limits of the adapter.
	Limits() Limits

	// Open creates a logical device exposing exactly one compute queue.
	// The queue is owned by the device and released with it.
	Open(label string) (Device, Queue, error)
}

// Device abstracts over a logical device of a GPU backend.
//
// Object lifecycle:
//   - Objects are created via Create* methods
//   - Objects must be explicitly destroyed via Destroy* methods
//   - Destroying an object while in use by pending GPU work is undefined behavior
//   - IDs become invalid after destruction and are never reused
//
// Implementations must be safe for concurrent use; the caches above
// this layer create objects from several goroutines.
type Device interface {
	// === Shaders ===

	// CreateShaderModule compiles a shader module.
	CreateShaderModule(desc *ShaderModuleDesc) (ShaderModuleID, error)

	// DestroyShaderModule releases a shader module.
	DestroyShaderModule(id ShaderModuleID)

	// === Layouts and pipelines ===

	// CreateBindGroupLayout creates a descriptor-set layout.
	CreateBindGroupLayout(desc *BindGroupLayoutDesc) (BindGroupLayoutID, error)

	// DestroyBindGroupLayout releases a descriptor-set layout.
	DestroyBindGroupLayout(id BindGroupLayoutID)

	// CreatePipelineLayout creates a pipeline layout from one set layout
	// and a push-constant range.
	CreatePipelineLayout(desc *PipelineLayoutDesc) (PipelineLayoutID, error)

	// DestroyPipelineLayout releases a pipeline layout.
	DestroyPipelineLayout(id PipelineLayoutID)

	// CreateComputePipeline creates a compute pipeline.
	CreateComputePipeline(desc *ComputePipelineDesc) (ComputePipelineID, error)

	// DestroyComputePipeline releases a compute pipeline.
	DestroyComputePipeline(id ComputePipelineID)

	// === Descriptor sets ===

	// CreateBindGroup creates a descriptor set populated with entries.
	CreateBindGroup(desc *BindGroupDesc) (BindGroupID, error)

	// DestroyBindGroup releases a descriptor set.
	DestroyBindGroup(id BindGroupID)

	// === Memory ===

	// CreateBuffer allocates a GPU buffer.
	CreateBuffer(desc *BufferDesc) (BufferID, error)

	// DestroyBuffer releases a GPU buffer.
	DestroyBuffer(id BufferID)

	// CreateTexture allocates a GPU texture.
	CreateTexture(desc *TextureDesc) (TextureID, error)

	// DestroyTexture releases a GPU texture.
	DestroyTexture(id TextureID)

	// === Commands ===

	// CreateCommandEncoder begins recording a new command buffer.
	CreateCommandEncoder(label string) (CommandEncoder, error)

	// Destroy releases the logical device and its queue.
	// All objects created from the device must be destroyed first.
	Destroy()
}

// Queue is the single compute queue of a Device.
type Queue interface {
	// WriteBuffer uploads data into a buffer.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	// ReadBuffer copies len(dst) bytes from a buffer into dst.
	// This causes a GPU-CPU synchronization stall.
	ReadBuffer(id BufferID, offset uint64, dst []byte) error

	// Submit submits finished command buffers for execution.
	// It does not wait for completion.
	Submit(cmds ...CommandBuffer) error

	// WaitIdle blocks until all submitted work has completed.
	WaitIdle() error
}

// CommandEncoder records compute commands into one command buffer.
//
// Recording methods do not return errors; a driver records the first
// failure and reports it from Finish. The encoder is single-use and
// is not safe for concurrent use.
type CommandEncoder interface {
	// SetPipeline sets the active compute pipeline.
	SetPipeline(pipeline ComputePipelineID)

	// SetPushConstants updates the push-constant range of layout,
	// visible to the compute stage.
	SetPushConstants(layout PipelineLayoutID, offset uint32, data []byte)

	// SetBindGroup binds a descriptor set at the specified index.
	SetBindGroup(index uint32, group BindGroupID)

	// Dispatch records a dispatch of x*y*z work groups.
	Dispatch(x, y, z uint32)

	// Finish ends recording and returns the command buffer.
	Finish() (CommandBuffer, error)

	// Discard abandons the recording. It is a no-op after Finish.
	Discard()
}

// CommandBuffer is a finished recording ready for submission.
type CommandBuffer interface {
	// Release frees the command buffer and any transient objects it holds.
	// It must only be called once the GPU has finished executing it.
	Release()
}
