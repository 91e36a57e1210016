// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package adapter

import (
	"errors"
	"fmt"

	"github.com/gogpu/compute/gpucore"
)

// ErrNoAdapter is returned when no compute-capable adapter is found.
var ErrNoAdapter = errors.New("adapter: no compute-capable adapter found")

// Adapter is one physical GPU and its capabilities.
// An Adapter is immutable and safe for concurrent use.
type Adapter struct {
	physical gpucore.PhysicalAdapter
	info     gpucore.AdapterInfo
	limits   gpucore.Limits
}

// New wraps a driver physical adapter.
func New(p gpucore.PhysicalAdapter) *Adapter {
	return &Adapter{physical: p, info: p.Info(), limits: p.Limits()}
}

// Info describes the adapter.
func (a *Adapter) Info() gpucore.AdapterInfo {
	return a.info
}

// Limits returns the adapter's compute limits.
func (a *Adapter) Limits() gpucore.Limits {
	return a.limits
}

// Backend returns the name of the driver backend.
func (a *Adapter) Backend() string {
	return a.info.Backend
}

// Physical returns the driver physical adapter.
func (a *Adapter) Physical() gpucore.PhysicalAdapter {
	return a.physical
}

// String returns a one-line description of the adapter.
func (a *Adapter) String() string {
	return a.info.String()
}

// Open creates a logical device with one compute queue.
// Failures wrap gpucore.ErrDeviceCreation.
func (a *Adapter) Open(label string) (gpucore.Device, gpucore.Queue, error) {
	dev, q, err := a.physical.Open(label)
	if err != nil {
		return nil, nil, fmt.Errorf("adapter: open %s: %w: %w", a.info.Name, gpucore.ErrDeviceCreation, err)
	}
	if dev == nil || q == nil {
		return nil, nil, fmt.Errorf("adapter: open %s: %w: driver returned no device or queue", a.info.Name, gpucore.ErrDeviceCreation)
	}
	return dev, q, nil
}

// rank orders device types for selection; higher is preferred.
func rank(t gpucore.DeviceType) int {
	switch t {
	case gpucore.DeviceTypeDiscreteGPU:
		return 4
	case gpucore.DeviceTypeIntegratedGPU:
		return 3
	case gpucore.DeviceTypeVirtualGPU:
		return 2
	case gpucore.DeviceTypeCPU:
		return 1
	default:
		return 0
	}
}

// Select picks the preferred compute-capable adapter across backends.
//
// Discrete GPUs are preferred over integrated, then virtual, then CPU
// adapters. Ties keep enumeration order, backends first to last.
// Backends that fail to enumerate are skipped; if nothing qualifies the
// error wraps ErrNoAdapter and every enumeration failure.
func Select(backends ...gpucore.Backend) (*Adapter, error) {
	var (
		best     gpucore.PhysicalAdapter
		bestRank = -1
		errs     []error
	)
	for _, b := range backends {
		if b == nil {
			continue
		}
		adapters, err := b.Adapters()
		if err != nil {
			errs = append(errs, fmt.Errorf("backend %s: %w", b.Name(), err))
			continue
		}
		for _, p := range adapters {
			if !p.Limits().SupportsCompute {
				continue
			}
			if r := rank(p.Info().DeviceType); r > bestRank {
				best, bestRank = p, r
			}
		}
	}
	if best == nil {
		return nil, errors.Join(append([]error{ErrNoAdapter}, errs...)...)
	}
	return New(best), nil
}
