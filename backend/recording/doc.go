// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package recording provides a deterministic in-memory compute driver.
//
// Every device call is logged as an [Event] and counted per object [Kind],
// so tests can assert how many driver objects a cache created, in what
// order a context released them, and which commands reached the queue.
// Buffers are backed by host memory; dispatches are recorded, not executed.
//
//	b := recording.New()
//	a, _ := adapter.Select(b)
//	ctx, err := compute.New(a)
//	...
//	dev := b.Adapter(0).LastDevice()
//	dev.Created(recording.KindComputePipeline)
//
// Failures can be injected per kind with [Device.FailNext].
package recording
