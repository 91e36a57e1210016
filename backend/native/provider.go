//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/compute/backend"
	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// halProvider is implemented by device providers that expose their hal
// device and queue (gogpu does).
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// ProviderAdapter is a gpucore.PhysicalAdapter over a device owned by a
// host application. Devices it opens share the host's hal device and
// never destroy it.
type ProviderAdapter struct {
	device hal.Device
	queue  hal.Queue
	info   gpucore.AdapterInfo
	limits gpucore.Limits
	opts   options
}

// FromProvider wraps a gpucontext.DeviceProvider. The provider must
// implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue; otherwise the error wraps ErrNoHALDevice.
func FromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*ProviderAdapter, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: nil provider", ErrNoHALDevice)
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: %T has no HalDevice/HalQueue", ErrNoHALDevice, provider)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALDevice)
	}
	return &ProviderAdapter{
		device: device,
		queue:  queue,
		info: gpucore.AdapterInfo{
			Name:       "shared device",
			DeviceType: gpucore.DeviceTypeOther,
			Backend:    backend.Native,
		},
		limits: convertLimits(gputypes.DefaultLimits()),
		opts:   newOptions(opts),
	}, nil
}

// Info implements gpucore.PhysicalAdapter.
func (p *ProviderAdapter) Info() gpucore.AdapterInfo {
	return p.info
}

// Limits implements gpucore.PhysicalAdapter.
func (p *ProviderAdapter) Limits() gpucore.Limits {
	return p.limits
}

// Open implements gpucore.PhysicalAdapter. Each call returns a fresh
// object namespace over the same shared hal device.
func (p *ProviderAdapter) Open(label string) (gpucore.Device, gpucore.Queue, error) {
	d := newDevice(p.device, p.queue, p.limits, false, label, p.opts)
	slogger().Debug("native: switched to shared GPU device", "label", label)
	return d, d.queue, nil
}

var _ gpucore.PhysicalAdapter = (*ProviderAdapter)(nil)
