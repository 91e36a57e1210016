// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native implements the gpucore driver contract on top of
// gogpu/wgpu/hal, the Pure Go WebGPU hardware abstraction layer.
//
// Importing the package registers the Vulkan-backed driver under
// backend.Native:
//
//	import _ "github.com/gogpu/compute/backend/native"
//
// WGSL kernels are compiled to SPIR-V with gogpu/naga when a pipeline is
// created. The literal token WORKGROUP_SIZE in the source is replaced by the
// pipeline's local work group, so one module serves every specialization:
//
//	@compute @workgroup_size(WORKGROUP_SIZE)
//	fn main(@builtin(global_invocation_id) id: vec3<u32>) { ... }
//
// WebGPU has no push constants. A pipeline layout with a non-zero push
// constant range gets a second bind group holding one uniform buffer, so
// kernels declare their parameters as
//
//	@group(1) @binding(0) var<uniform> params: Params;
//
// Host applications that already own a device (for example a gogpu window)
// share it through [FromProvider]; the shared device is never destroyed by
// this package.
//
// Building with the nogpu tag leaves only SetLogger and nothing is
// registered.
package native
