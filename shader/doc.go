// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader caches compiled shader modules and descriptor-set layouts.
//
// A [Signature] lists the binding types a kernel declares, slot by slot.
// The layout cache maps structurally equal signatures to one driver layout:
//
//	sig := shader.Sig(gpucore.BindingTypeReadOnlyStorageBuffer, gpucore.BindingTypeStorageBuffer)
//	layout, err := sh.Layout.Cache.Retrieve(sig)
//
// A [Descriptor] names a WGSL kernel and its entry point; the module cache
// compiles each distinct descriptor once.
//
// [WorkGroup] describes both local work-group shapes and global element
// counts. [WorkGroup.Groups] rounds a global shape up to whole groups.
package shader
