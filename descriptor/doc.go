// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package descriptor allocates descriptor sets and binds resources into them.
//
// A [Set] is allocated from a [Pool] for one descriptor-set layout, filled
// with [Set.Bind] by slot index, and materialized into a driver bind group
// by [Set.Commit] when a command buffer binds it. A slot accepts a resource
// only if the resource supports the slot's binding type.
//
// Sets belong to the pool epoch they were allocated in. [Pool.Purge]
// destroys the epoch's bind groups, so it must only run once the GPU is
// idle; sets from an ended epoch fail with [ErrStaleSet].
package descriptor
