// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucore defines the driver contract the compute context is built on.
//
// The contract abstracts over different GPU backend implementations, so the
// same caching and dispatch logic works with:
//   - gogpu/wgpu HAL (backend/native, Vulkan)
//   - an in-memory recorder (backend/recording) used as a test double
//
// # Architecture
//
//	                 +-------------------+
//	                 |  compute.Context  |
//	                 | (caches, dispatch)|
//	                 +---------+---------+
//	                           |
//	              gpucore.Device / Queue / CommandEncoder
//	                           |
//	         +-----------------+-----------------+
//	         |                                   |
//	+--------v--------+                 +--------v--------+
//	| backend/native  |                 |backend/recording|
//	|  (hal.Device)   |                 |   (in-memory)   |
//	+-----------------+                 +-----------------+
//
// # Object Management
//
// GPU objects are managed via opaque IDs ([BufferID], [ComputePipelineID],
// etc.). The [Device] interface provides creation and destruction methods
// for each object type. Drivers are responsible for tracking the mapping
// between IDs and native handles.
//
// # Commands
//
// A [CommandEncoder] records pipeline binds, push-constant updates,
// descriptor-set binds and dispatches. [CommandEncoder.Finish] produces a
// [CommandBuffer] that is submitted on the device's single [Queue].
package gpucore
