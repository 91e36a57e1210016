//go:build !nogpu

package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/compute/backend"
	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// The registered factory creates one Vulkan instance per process; it lives
// until the process exits.
var defaultBackend = sync.OnceValues(func() (gpucore.Backend, error) {
	b, err := NewBackend()
	if err != nil {
		return nil, err
	}
	return b, nil
})

func init() {
	backend.Register(backend.Native, defaultBackend)
}

// Backend exposes the adapters of one hal instance.
type Backend struct {
	mu       sync.Mutex
	instance hal.Instance
	owned    bool
	opts     options
}

// NewBackend creates a hal Vulkan instance owned by the returned Backend.
func NewBackend(opts ...Option) (*Backend, error) {
	api, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, ErrVulkanUnavailable
	}
	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrVulkanUnavailable, err)
	}
	b := &Backend{instance: instance, owned: true, opts: newOptions(opts)}
	slogger().Debug("native: instance created")
	return b, nil
}

// NewWithInstance wraps an existing hal instance. The caller keeps
// ownership; Close does not destroy it.
func NewWithInstance(instance hal.Instance, opts ...Option) *Backend {
	return &Backend{instance: instance, opts: newOptions(opts)}
}

// Name implements gpucore.Backend.
func (b *Backend) Name() string {
	return backend.Native
}

// Adapters implements gpucore.Backend.
func (b *Backend) Adapters() ([]gpucore.PhysicalAdapter, error) {
	b.mu.Lock()
	instance := b.instance
	b.mu.Unlock()
	if instance == nil {
		return nil, fmt.Errorf("native: backend closed")
	}

	exposed := instance.EnumerateAdapters(nil)
	adapters := make([]gpucore.PhysicalAdapter, 0, len(exposed))
	for i := range exposed {
		adapters = append(adapters, newAdapter(exposed[i], b.opts))
	}
	slogger().Debug("native: adapters enumerated", "count", len(adapters))
	return adapters, nil
}

// Close destroys the instance if the Backend owns it.
// Devices opened from its adapters must be destroyed first.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.instance == nil {
		return
	}
	if b.owned {
		b.instance.Destroy()
	}
	b.instance = nil
}

// Adapter is one hal adapter.
type Adapter struct {
	exposed hal.ExposedAdapter
	info    gpucore.AdapterInfo
	limits  gpucore.Limits
	opts    options
}

func newAdapter(exposed hal.ExposedAdapter, opts options) *Adapter {
	return &Adapter{
		exposed: exposed,
		info: gpucore.AdapterInfo{
			Name:       exposed.Info.Name,
			DeviceType: convertDeviceType(exposed.Info.DeviceType),
			Backend:    backend.Native,
		},
		limits: convertLimits(gputypes.DefaultLimits()),
		opts:   opts,
	}
}

// Info implements gpucore.PhysicalAdapter.
func (a *Adapter) Info() gpucore.AdapterInfo {
	return a.info
}

// Limits implements gpucore.PhysicalAdapter.
func (a *Adapter) Limits() gpucore.Limits {
	return a.limits
}

// Open implements gpucore.PhysicalAdapter. The device is owned by the
// caller and released with Device.Destroy.
func (a *Adapter) Open(label string) (gpucore.Device, gpucore.Queue, error) {
	openDev, err := a.exposed.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return nil, nil, fmt.Errorf("native: open device on %s: %w", a.info.Name, err)
	}
	d := newDevice(openDev.Device, openDev.Queue, a.limits, true, label, a.opts)
	slogger().Info("native: device opened", "adapter", a.info.Name, "label", label)
	return d, d.queue, nil
}

var (
	_ gpucore.Backend         = (*Backend)(nil)
	_ gpucore.PhysicalAdapter = (*Adapter)(nil)
)
