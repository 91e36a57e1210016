// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"fmt"
	"sync"

	"github.com/gogpu/compute/gpucore"
)

// Name is the default backend name.
const Name = "recording"

// Backend is an in-memory gpucore.Backend.
type Backend struct {
	name     string
	adapters []*Adapter
	enumErr  error
}

// New returns a backend exposing one discrete adapter with default limits.
func New() *Backend {
	return NewBackend(Name, NewAdapter(gpucore.AdapterInfo{
		Name:       "Recording Device",
		Vendor:     "gogpu",
		DeviceType: gpucore.DeviceTypeDiscreteGPU,
	}, gpucore.DefaultLimits()))
}

// NewBackend returns a backend exposing the given adapters in order.
// With no adapters, the backend models a host without a usable GPU.
func NewBackend(name string, adapters ...*Adapter) *Backend {
	for _, a := range adapters {
		a.info.Backend = name
	}
	return &Backend{name: name, adapters: adapters}
}

// WithEnumerateError makes Adapters fail with err.
func (b *Backend) WithEnumerateError(err error) *Backend {
	b.enumErr = err
	return b
}

// Name implements gpucore.Backend.
func (b *Backend) Name() string {
	return b.name
}

// Adapters implements gpucore.Backend.
func (b *Backend) Adapters() ([]gpucore.PhysicalAdapter, error) {
	if b.enumErr != nil {
		return nil, b.enumErr
	}
	out := make([]gpucore.PhysicalAdapter, len(b.adapters))
	for i, a := range b.adapters {
		out[i] = a
	}
	return out, nil
}

// Adapter returns the i-th adapter of the backend.
func (b *Backend) Adapter(i int) *Adapter {
	return b.adapters[i]
}

// Adapter is an in-memory physical adapter.
type Adapter struct {
	info   gpucore.AdapterInfo
	limits gpucore.Limits

	mu      sync.Mutex
	openErr error
	devices []*Device
}

// NewAdapter returns an adapter with the given description and limits.
func NewAdapter(info gpucore.AdapterInfo, limits gpucore.Limits) *Adapter {
	return &Adapter{info: info, limits: limits}
}

// FailOpen makes subsequent Open calls fail with err.
func (a *Adapter) FailOpen(err error) {
	a.mu.Lock()
	a.openErr = err
	a.mu.Unlock()
}

// Info implements gpucore.PhysicalAdapter.
func (a *Adapter) Info() gpucore.AdapterInfo {
	return a.info
}

// Limits implements gpucore.PhysicalAdapter.
func (a *Adapter) Limits() gpucore.Limits {
	return a.limits
}

// Open implements gpucore.PhysicalAdapter.
func (a *Adapter) Open(label string) (gpucore.Device, gpucore.Queue, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.openErr != nil {
		return nil, nil, fmt.Errorf("recording: open %q: %w", label, a.openErr)
	}
	d := newDevice(label, a.limits)
	a.devices = append(a.devices, d)
	return d, d.queue, nil
}

// Devices returns every device opened from the adapter.
func (a *Adapter) Devices() []*Device {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Device, len(a.devices))
	copy(out, a.devices)
	return out
}

// LastDevice returns the most recently opened device, or nil.
func (a *Adapter) LastDevice() *Device {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.devices) == 0 {
		return nil
	}
	return a.devices[len(a.devices)-1]
}

var (
	_ gpucore.Backend         = (*Backend)(nil)
	_ gpucore.PhysicalAdapter = (*Adapter)(nil)
)
