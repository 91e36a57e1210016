// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package resource owns the device memory passed to compute dispatches.
//
// Buffers and images come from a [Pool]. Both implement [Bindable], the
// capability the descriptor layer needs to bind them into a set. Dispatch
// arguments travel as an ordered [Args] list: the argument at index i is
// bound at slot i, with no name or type matching.
//
//	in, _ := pool.BufferWithData("in", gpucore.BufferUsageStorage, data)
//	out, _ := pool.Buffer(resource.BufferDesc{Label: "out", Size: n, Usage: usage})
//	args := resource.List(in, out)
//
// Release is deferred: a released resource is destroyed by the next
// [Pool.Purge], which the context runs from Flush once the queue is idle.
package resource
