// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package adapter selects a physical GPU and opens logical devices on it.
//
// [Select] ranks the adapters of every given backend and returns the best
// compute-capable one:
//
//	a, err := adapter.Select(backend.All()...)
//	if errors.Is(err, adapter.ErrNoAdapter) {
//		// fall back to a CPU path
//	}
//	dev, queue, err := a.Open("compute")
package adapter
