// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pipeline caches pipeline layouts and compute pipelines.
//
// Pipeline layouts are keyed by {descriptor-set layout, push-constant size};
// compute pipelines by {pipeline layout, shader module, entry point, local
// work group}. Both caches create each distinct key once, even under
// concurrent lookups, and never mutate an object once returned.
//
// Two parameter blocks of different sizes used with the same signature
// resolve to two distinct pipeline layouts.
package pipeline
