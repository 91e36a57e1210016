//go:build !nogpu

package native

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// paramsGroupIndex is the bind group carrying emulated push constants.
const paramsGroupIndex = 1

type shaderModule struct {
	label string
	wgsl  string
}

type setLayout struct {
	handle  hal.BindGroupLayout
	entries int
}

type pipelineLayout struct {
	handle    hal.PipelineLayout
	setLayout gpucore.BindGroupLayoutID
	pushSize  uint32

	// params is the uniform layout at paramsGroupIndex; nil when pushSize is 0.
	params hal.BindGroupLayout
}

type computePipeline struct {
	handle hal.ComputePipeline
	module hal.ShaderModule
	layout *pipelineLayout
}

type buffer struct {
	handle hal.Buffer
	size   uint64
}

// Device implements gpucore.Device on a hal device.
//
// Thread Safety: Device is safe for concurrent use. Object maps are
// guarded by a mutex; hal calls are made outside it.
type Device struct {
	mu       sync.RWMutex
	device   hal.Device
	queue    *Queue
	limits   gpucore.Limits
	label    string
	owned    bool
	compiler *compiler

	// ID generation; 0 is gpucore.InvalidID.
	nextID atomic.Uint64

	modules          map[gpucore.ShaderModuleID]*shaderModule
	setLayouts       map[gpucore.BindGroupLayoutID]*setLayout
	pipelineLayouts  map[gpucore.PipelineLayoutID]*pipelineLayout
	computePipelines map[gpucore.ComputePipelineID]*computePipeline
	bindGroups       map[gpucore.BindGroupID]hal.BindGroup
	buffers          map[gpucore.BufferID]*buffer
	textures         map[gpucore.TextureID]hal.Texture

	destroyed bool
}

func newDevice(device hal.Device, queue hal.Queue, limits gpucore.Limits, owned bool, label string, opts options) *Device {
	d := &Device{
		device:           device,
		limits:           limits,
		label:            label,
		owned:            owned,
		compiler:         newCompiler(opts.spirvCacheSize),
		modules:          make(map[gpucore.ShaderModuleID]*shaderModule),
		setLayouts:       make(map[gpucore.BindGroupLayoutID]*setLayout),
		pipelineLayouts:  make(map[gpucore.PipelineLayoutID]*pipelineLayout),
		computePipelines: make(map[gpucore.ComputePipelineID]*computePipeline),
		bindGroups:       make(map[gpucore.BindGroupID]hal.BindGroup),
		buffers:          make(map[gpucore.BufferID]*buffer),
		textures:         make(map[gpucore.TextureID]hal.Texture),
	}
	d.queue = &Queue{device: d, queue: queue, timeout: opts.waitTimeout}
	d.nextID.Store(1)
	return d
}

// newID generates a unique object ID.
func (d *Device) newID() uint64 {
	return d.nextID.Add(1) - 1
}

// Queue returns the device's compute queue.
func (d *Device) Queue() *Queue {
	return d.queue
}

// Limits returns the limits the device was opened with.
func (d *Device) Limits() gpucore.Limits {
	return d.limits
}

// Shared reports whether the hal device belongs to a host application.
func (d *Device) Shared() bool {
	return !d.owned
}

func (d *Device) checkAlive() error {
	if d.destroyed {
		return ErrDeviceDestroyed
	}
	return nil
}

// === Shaders ===

// CreateShaderModule implements gpucore.Device. The WGSL is compiled per
// pipeline, once the local work group is known.
func (d *Device) CreateShaderModule(desc *gpucore.ShaderModuleDesc) (gpucore.ShaderModuleID, error) {
	if desc == nil || desc.WGSL == "" {
		return gpucore.InvalidID, fmt.Errorf("native: empty shader source")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.ShaderModuleID(d.newID())
	d.modules[id] = &shaderModule{label: desc.Label, wgsl: desc.WGSL}
	return id, nil
}

// DestroyShaderModule implements gpucore.Device.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	delete(d.modules, id)
	d.mu.Unlock()
}

// === Layouts and pipelines ===

// CreateBindGroupLayout implements gpucore.Device.
func (d *Device) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	if uint32(len(desc.Entries)) > d.limits.MaxBindingsPerSet {
		return gpucore.InvalidID, fmt.Errorf("native: %d bindings exceed limit %d", len(desc.Entries), d.limits.MaxBindingsPerSet)
	}
	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		entry, err := convertLayoutEntry(e)
		if err != nil {
			return gpucore.InvalidID, err
		}
		entries = append(entries, entry)
	}

	layout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create bind group layout %q: %w", desc.Label, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		d.device.DestroyBindGroupLayout(layout)
		return gpucore.InvalidID, err
	}
	id := gpucore.BindGroupLayoutID(d.newID())
	d.setLayouts[id] = &setLayout{handle: layout, entries: len(entries)}
	return id, nil
}

// DestroyBindGroupLayout implements gpucore.Device.
func (d *Device) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	d.mu.Lock()
	layout, ok := d.setLayouts[id]
	if ok {
		delete(d.setLayouts, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyBindGroupLayout(layout.handle)
	}
}

// CreatePipelineLayout implements gpucore.Device. A non-zero push constant
// range adds a uniform bind group at index 1.
func (d *Device) CreatePipelineLayout(desc *gpucore.PipelineLayoutDesc) (gpucore.PipelineLayoutID, error) {
	if desc.PushConstantSize > d.limits.MaxPushConstantSize {
		return gpucore.InvalidID, fmt.Errorf("native: push constant range %d exceeds limit %d", desc.PushConstantSize, d.limits.MaxPushConstantSize)
	}
	d.mu.RLock()
	set, ok := d.setLayouts[desc.SetLayout]
	d.mu.RUnlock()
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("native: set layout %d: %w", desc.SetLayout, gpucore.ErrUnknownObject)
	}

	pl := &pipelineLayout{setLayout: desc.SetLayout, pushSize: desc.PushConstantSize}
	groups := []hal.BindGroupLayout{set.handle}
	if desc.PushConstantSize > 0 {
		params, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label: desc.Label + "_params",
			Entries: []gputypes.BindGroupLayoutEntry{{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer: &gputypes.BufferBindingLayout{
					Type:           gputypes.BufferBindingTypeUniform,
					MinBindingSize: uint64(desc.PushConstantSize),
				},
			}},
		})
		if err != nil {
			return gpucore.InvalidID, fmt.Errorf("native: create params layout %q: %w", desc.Label, err)
		}
		pl.params = params
		groups = append(groups, params)
	}

	handle, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: groups,
	})
	if err != nil {
		if pl.params != nil {
			d.device.DestroyBindGroupLayout(pl.params)
		}
		return gpucore.InvalidID, fmt.Errorf("native: create pipeline layout %q: %w", desc.Label, err)
	}
	pl.handle = handle

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		d.destroyPipelineLayout(pl)
		return gpucore.InvalidID, err
	}
	id := gpucore.PipelineLayoutID(d.newID())
	d.pipelineLayouts[id] = pl
	return id, nil
}

// DestroyPipelineLayout implements gpucore.Device.
func (d *Device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	d.mu.Lock()
	pl, ok := d.pipelineLayouts[id]
	if ok {
		delete(d.pipelineLayouts, id)
	}
	d.mu.Unlock()

	if ok {
		d.destroyPipelineLayout(pl)
	}
}

func (d *Device) destroyPipelineLayout(pl *pipelineLayout) {
	d.device.DestroyPipelineLayout(pl.handle)
	if pl.params != nil {
		d.device.DestroyBindGroupLayout(pl.params)
	}
}

// CreateComputePipeline implements gpucore.Device. The module's WGSL is
// specialized to desc.WorkgroupSize and compiled to SPIR-V here.
func (d *Device) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	d.mu.RLock()
	layout, okLayout := d.pipelineLayouts[desc.Layout]
	module, okModule := d.modules[desc.ShaderModule]
	d.mu.RUnlock()
	switch {
	case !okLayout:
		return gpucore.InvalidID, fmt.Errorf("native: pipeline layout %d: %w", desc.Layout, gpucore.ErrUnknownObject)
	case !okModule:
		return gpucore.InvalidID, fmt.Errorf("native: shader module %d: %w", desc.ShaderModule, gpucore.ErrUnknownObject)
	}

	spirv, err := d.compiler.spirv(module.wgsl, desc.WorkgroupSize)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: pipeline %q: %w", desc.Label, err)
	}
	shader, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  module.label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create shader module %q: %w", module.label, err)
	}
	handle, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   desc.Label,
		Layout:  layout.handle,
		Compute: hal.ComputeState{Module: shader, EntryPoint: desc.EntryPoint},
	})
	if err != nil {
		d.device.DestroyShaderModule(shader)
		return gpucore.InvalidID, fmt.Errorf("native: create compute pipeline %q: %w", desc.Label, err)
	}
	cp := &computePipeline{handle: handle, module: shader, layout: layout}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		d.destroyComputePipeline(cp)
		return gpucore.InvalidID, err
	}
	id := gpucore.ComputePipelineID(d.newID())
	d.computePipelines[id] = cp
	slogger().Debug("native: pipeline created", "label", desc.Label, "workgroup", desc.WorkgroupSize)
	return id, nil
}

// DestroyComputePipeline implements gpucore.Device.
func (d *Device) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	d.mu.Lock()
	cp, ok := d.computePipelines[id]
	if ok {
		delete(d.computePipelines, id)
	}
	d.mu.Unlock()

	if ok {
		d.destroyComputePipeline(cp)
	}
}

func (d *Device) destroyComputePipeline(cp *computePipeline) {
	d.device.DestroyComputePipeline(cp.handle)
	d.device.DestroyShaderModule(cp.module)
}

// === Descriptor sets ===

// CreateBindGroup implements gpucore.Device. Only buffer entries are
// supported; a zero Size binds the rest of the buffer.
func (d *Device) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	d.mu.RLock()
	layout, ok := d.setLayouts[desc.Layout]
	if !ok {
		d.mu.RUnlock()
		return gpucore.InvalidID, fmt.Errorf("native: set layout %d: %w", desc.Layout, gpucore.ErrUnknownObject)
	}
	entries := make([]gputypes.BindGroupEntry, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		entry, err := d.convertBindGroupEntry(e)
		if err != nil {
			d.mu.RUnlock()
			return gpucore.InvalidID, err
		}
		entries = append(entries, entry)
	}
	d.mu.RUnlock()

	if len(entries) != layout.entries {
		return gpucore.InvalidID, fmt.Errorf("native: bind group %q has %d entries, layout expects %d", desc.Label, len(entries), layout.entries)
	}

	group, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout.handle,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create bind group %q: %w", desc.Label, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		d.device.DestroyBindGroup(group)
		return gpucore.InvalidID, err
	}
	id := gpucore.BindGroupID(d.newID())
	d.bindGroups[id] = group
	return id, nil
}

// convertBindGroupEntry resolves one entry. Must be called with mu held.
func (d *Device) convertBindGroupEntry(e gpucore.BindGroupEntry) (gputypes.BindGroupEntry, error) {
	result := gputypes.BindGroupEntry{Binding: e.Binding}
	if e.Buffer == gpucore.InvalidID {
		if e.Texture != gpucore.InvalidID {
			return result, fmt.Errorf("native: texture binding %d: %w", e.Binding, gpucore.ErrUnsupported)
		}
		return result, fmt.Errorf("native: binding %d has no resource", e.Binding)
	}
	buf, ok := d.buffers[e.Buffer]
	if !ok {
		return result, fmt.Errorf("native: buffer %d: %w", e.Buffer, gpucore.ErrUnknownObject)
	}
	if e.Offset > buf.size {
		return result, fmt.Errorf("native: binding %d offset %d beyond buffer size %d", e.Binding, e.Offset, buf.size)
	}
	size := e.Size
	if size == 0 {
		size = buf.size - e.Offset
	}
	result.Resource = gputypes.BufferBinding{Buffer: buf.handle.NativeHandle(), Offset: e.Offset, Size: size}
	return result, nil
}

// DestroyBindGroup implements gpucore.Device.
func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	d.mu.Lock()
	group, ok := d.bindGroups[id]
	if ok {
		delete(d.bindGroups, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyBindGroup(group)
	}
}

// === Memory ===

// CreateBuffer implements gpucore.Device.
func (d *Device) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	if desc.Size == 0 {
		return gpucore.InvalidID, fmt.Errorf("native: buffer %q: size must be positive", desc.Label)
	}
	if desc.Size > d.limits.MaxBufferSize {
		return gpucore.InvalidID, fmt.Errorf("native: buffer %q: size %d exceeds limit %d", desc.Label, desc.Size, d.limits.MaxBufferSize)
	}
	handle, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: convertBufferUsage(desc.Usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create buffer %q: %w", desc.Label, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		d.device.DestroyBuffer(handle)
		return gpucore.InvalidID, err
	}
	id := gpucore.BufferID(d.newID())
	d.buffers[id] = &buffer{handle: handle, size: desc.Size}
	return id, nil
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	buf, ok := d.buffers[id]
	if ok {
		delete(d.buffers, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyBuffer(buf.handle)
	}
}

func (d *Device) lookupBuffer(id gpucore.BufferID) (*buffer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	buf, ok := d.buffers[id]
	if !ok {
		return nil, fmt.Errorf("native: buffer %d: %w", id, gpucore.ErrUnknownObject)
	}
	return buf, nil
}

// CreateTexture implements gpucore.Device.
func (d *Device) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return gpucore.InvalidID, fmt.Errorf("native: texture %q: dimensions must be positive", desc.Label)
	}
	format, err := convertTextureFormat(desc.Format)
	if err != nil {
		return gpucore.InvalidID, err
	}
	texture, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         convertTextureUsage(desc.Usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create texture %q: %w", desc.Label, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		d.device.DestroyTexture(texture)
		return gpucore.InvalidID, err
	}
	id := gpucore.TextureID(d.newID())
	d.textures[id] = texture
	return id, nil
}

// DestroyTexture implements gpucore.Device.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	texture, ok := d.textures[id]
	if ok {
		delete(d.textures, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyTexture(texture)
	}
}

// === Commands ===

// CreateCommandEncoder implements gpucore.Device. Commands are recorded in
// memory and encoded into a hal compute pass by Finish.
func (d *Device) CreateCommandEncoder(label string) (gpucore.CommandEncoder, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.checkAlive(); err != nil {
		return nil, err
	}
	return &Encoder{device: d, label: label}, nil
}

// Destroy implements gpucore.Device. It waits for the queue, releases any
// objects still alive and destroys the hal device unless it is shared.
func (d *Device) Destroy() {
	if err := d.queue.WaitIdle(); err != nil {
		slogger().Warn("native: wait idle before destroy failed", "device", d.label, "error", err)
	}

	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.destroyed = true
	groups, pipelines, layouts := d.bindGroups, d.computePipelines, d.pipelineLayouts
	sets, buffers, textures := d.setLayouts, d.buffers, d.textures
	leaked := len(groups) + len(pipelines) + len(layouts) + len(sets) + len(buffers) + len(textures)
	d.bindGroups = nil
	d.computePipelines = nil
	d.pipelineLayouts = nil
	d.setLayouts = nil
	d.buffers = nil
	d.textures = nil
	d.modules = nil
	d.mu.Unlock()

	if leaked > 0 {
		slogger().Warn("native: destroying device with live objects", "device", d.label, "count", leaked)
	}
	for _, g := range groups {
		d.device.DestroyBindGroup(g)
	}
	for _, cp := range pipelines {
		d.destroyComputePipeline(cp)
	}
	for _, pl := range layouts {
		d.destroyPipelineLayout(pl)
	}
	for _, s := range sets {
		d.device.DestroyBindGroupLayout(s.handle)
	}
	for _, b := range buffers {
		d.device.DestroyBuffer(b.handle)
	}
	for _, t := range textures {
		d.device.DestroyTexture(t)
	}
	d.compiler.purge()

	if d.owned {
		d.device.Destroy()
	}
	slogger().Debug("native: device destroyed", "device", d.label, "shared", !d.owned)
}

var _ gpucore.Device = (*Device)(nil)
