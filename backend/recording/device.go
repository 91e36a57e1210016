// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/compute/gpucore"
)

// Kind names a class of driver object.
type Kind string

// Object kinds.
const (
	KindShaderModule    Kind = "shader-module"
	KindBindGroupLayout Kind = "bind-group-layout"
	KindPipelineLayout  Kind = "pipeline-layout"
	KindComputePipeline Kind = "compute-pipeline"
	KindBindGroup       Kind = "bind-group"
	KindBuffer          Kind = "buffer"
	KindTexture         Kind = "texture"
	KindCommandBuffer   Kind = "command-buffer"
	KindDevice          Kind = "device"
	KindQueue           Kind = "queue"
)

// Op is the action of an Event.
type Op string

// Event operations.
const (
	OpCreate  Op = "create"
	OpDestroy Op = "destroy"
	OpWait    Op = "wait"
)

// Event is one create or destroy call on the device, or a queue wait.
type Event struct {
	Op   Op
	Kind Kind
	ID   uint64
}

// String returns "op kind#id".
func (e Event) String() string {
	return fmt.Sprintf("%s %s#%d", e.Op, e.Kind, e.ID)
}

// ErrInjected is the default error returned by FailNext.
var ErrInjected = errors.New("recording: injected failure")

// Device is an in-memory gpucore.Device.
// Device is safe for concurrent use.
type Device struct {
	label  string
	limits gpucore.Limits
	queue  *Queue

	mu        sync.Mutex
	nextID    uint64
	events    []Event
	created   map[Kind]int
	destroyed map[Kind]int
	live      map[uint64]Kind
	failNext  map[Kind]error
	invalid   int
	gone      bool
	leaked    int

	modules         map[gpucore.ShaderModuleID]gpucore.ShaderModuleDesc
	setLayouts      map[gpucore.BindGroupLayoutID]gpucore.BindGroupLayoutDesc
	pipelineLayouts map[gpucore.PipelineLayoutID]gpucore.PipelineLayoutDesc
	pipelines       map[gpucore.ComputePipelineID]gpucore.ComputePipelineDesc
	bindGroups      map[gpucore.BindGroupID]gpucore.BindGroupDesc
	buffers         map[gpucore.BufferID][]byte
	textures        map[gpucore.TextureID]gpucore.TextureDesc
}

func newDevice(label string, limits gpucore.Limits) *Device {
	d := &Device{
		label:           label,
		limits:          limits,
		created:         make(map[Kind]int),
		destroyed:       make(map[Kind]int),
		live:            make(map[uint64]Kind),
		failNext:        make(map[Kind]error),
		modules:         make(map[gpucore.ShaderModuleID]gpucore.ShaderModuleDesc),
		setLayouts:      make(map[gpucore.BindGroupLayoutID]gpucore.BindGroupLayoutDesc),
		pipelineLayouts: make(map[gpucore.PipelineLayoutID]gpucore.PipelineLayoutDesc),
		pipelines:       make(map[gpucore.ComputePipelineID]gpucore.ComputePipelineDesc),
		bindGroups:      make(map[gpucore.BindGroupID]gpucore.BindGroupDesc),
		buffers:         make(map[gpucore.BufferID][]byte),
		textures:        make(map[gpucore.TextureID]gpucore.TextureDesc),
	}
	d.queue = &Queue{device: d}
	return d
}

// Label returns the label the device was opened with.
func (d *Device) Label() string {
	return d.label
}

// Queue returns the device queue.
func (d *Device) Queue() *Queue {
	return d.queue
}

// FailNext makes the next creation of kind fail with err (ErrInjected if nil).
// For KindCommandBuffer the failure is reported by the encoder's Finish.
func (d *Device) FailNext(kind Kind, err error) {
	if err == nil {
		err = ErrInjected
	}
	d.mu.Lock()
	d.failNext[kind] = err
	d.mu.Unlock()
}

// create allocates an ID for kind or returns the injected failure.
// Caller must hold d.mu.
func (d *Device) create(kind Kind) (uint64, error) {
	if d.gone {
		return 0, fmt.Errorf("recording: create %s on destroyed device", kind)
	}
	if err, ok := d.failNext[kind]; ok {
		delete(d.failNext, kind)
		return 0, err
	}
	d.nextID++
	id := d.nextID
	d.live[id] = kind
	d.created[kind]++
	d.events = append(d.events, Event{Op: OpCreate, Kind: kind, ID: id})
	return id, nil
}

// destroy releases id. Caller must hold d.mu.
func (d *Device) destroy(kind Kind, id uint64) bool {
	if k, ok := d.live[id]; !ok || k != kind {
		d.invalid++
		return false
	}
	delete(d.live, id)
	d.destroyed[kind]++
	d.events = append(d.events, Event{Op: OpDestroy, Kind: kind, ID: id})
	return true
}

// CreateShaderModule implements gpucore.Device.
func (d *Device) CreateShaderModule(desc *gpucore.ShaderModuleDesc) (gpucore.ShaderModuleID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.create(KindShaderModule)
	if err != nil {
		return gpucore.InvalidID, err
	}
	d.modules[gpucore.ShaderModuleID(id)] = *desc
	return gpucore.ShaderModuleID(id), nil
}

// DestroyShaderModule implements gpucore.Device.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroy(KindShaderModule, uint64(id)) {
		delete(d.modules, id)
	}
}

// CreateBindGroupLayout implements gpucore.Device.
func (d *Device) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if uint32(len(desc.Entries)) > d.limits.MaxBindingsPerSet { //nolint:gosec // test double
		return gpucore.InvalidID, fmt.Errorf("recording: %d bindings exceed limit %d", len(desc.Entries), d.limits.MaxBindingsPerSet)
	}
	id, err := d.create(KindBindGroupLayout)
	if err != nil {
		return gpucore.InvalidID, err
	}
	cp := *desc
	cp.Entries = append([]gpucore.BindGroupLayoutEntry(nil), desc.Entries...)
	d.setLayouts[gpucore.BindGroupLayoutID(id)] = cp
	return gpucore.BindGroupLayoutID(id), nil
}

// DestroyBindGroupLayout implements gpucore.Device.
func (d *Device) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroy(KindBindGroupLayout, uint64(id)) {
		delete(d.setLayouts, id)
	}
}

// CreatePipelineLayout implements gpucore.Device.
func (d *Device) CreatePipelineLayout(desc *gpucore.PipelineLayoutDesc) (gpucore.PipelineLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.setLayouts[desc.SetLayout]; !ok {
		return gpucore.InvalidID, fmt.Errorf("recording: pipeline layout: set layout %d: %w", desc.SetLayout, gpucore.ErrUnknownObject)
	}
	if desc.PushConstantSize > d.limits.MaxPushConstantSize {
		return gpucore.InvalidID, fmt.Errorf("recording: push constant size %d exceeds limit %d", desc.PushConstantSize, d.limits.MaxPushConstantSize)
	}
	id, err := d.create(KindPipelineLayout)
	if err != nil {
		return gpucore.InvalidID, err
	}
	d.pipelineLayouts[gpucore.PipelineLayoutID(id)] = *desc
	return gpucore.PipelineLayoutID(id), nil
}

// DestroyPipelineLayout implements gpucore.Device.
func (d *Device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroy(KindPipelineLayout, uint64(id)) {
		delete(d.pipelineLayouts, id)
	}
}

// CreateComputePipeline implements gpucore.Device.
func (d *Device) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pipelineLayouts[desc.Layout]; !ok {
		return gpucore.InvalidID, fmt.Errorf("recording: pipeline: layout %d: %w", desc.Layout, gpucore.ErrUnknownObject)
	}
	if _, ok := d.modules[desc.ShaderModule]; !ok {
		return gpucore.InvalidID, fmt.Errorf("recording: pipeline: module %d: %w", desc.ShaderModule, gpucore.ErrUnknownObject)
	}
	id, err := d.create(KindComputePipeline)
	if err != nil {
		return gpucore.InvalidID, err
	}
	d.pipelines[gpucore.ComputePipelineID(id)] = *desc
	return gpucore.ComputePipelineID(id), nil
}

// DestroyComputePipeline implements gpucore.Device.
func (d *Device) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroy(KindComputePipeline, uint64(id)) {
		delete(d.pipelines, id)
	}
}

// CreateBindGroup implements gpucore.Device.
func (d *Device) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	layout, ok := d.setLayouts[desc.Layout]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("recording: bind group: layout %d: %w", desc.Layout, gpucore.ErrUnknownObject)
	}
	if len(desc.Entries) != len(layout.Entries) {
		return gpucore.InvalidID, fmt.Errorf("recording: bind group has %d entries, layout wants %d", len(desc.Entries), len(layout.Entries))
	}
	for i, e := range desc.Entries {
		want := layout.Entries[i].Type
		if want.IsBuffer() {
			if _, ok := d.buffers[e.Buffer]; !ok {
				return gpucore.InvalidID, fmt.Errorf("recording: bind group entry %d: buffer %d: %w", i, e.Buffer, gpucore.ErrUnknownObject)
			}
		} else if _, ok := d.textures[e.Texture]; !ok {
			return gpucore.InvalidID, fmt.Errorf("recording: bind group entry %d: texture %d: %w", i, e.Texture, gpucore.ErrUnknownObject)
		}
	}
	id, err := d.create(KindBindGroup)
	if err != nil {
		return gpucore.InvalidID, err
	}
	cp := *desc
	cp.Entries = append([]gpucore.BindGroupEntry(nil), desc.Entries...)
	d.bindGroups[gpucore.BindGroupID(id)] = cp
	return gpucore.BindGroupID(id), nil
}

// DestroyBindGroup implements gpucore.Device.
func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroy(KindBindGroup, uint64(id)) {
		delete(d.bindGroups, id)
	}
}

// CreateBuffer implements gpucore.Device.
func (d *Device) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if desc.Size == 0 || desc.Size > d.limits.MaxBufferSize {
		return gpucore.InvalidID, fmt.Errorf("recording: buffer size %d out of range (max %d)", desc.Size, d.limits.MaxBufferSize)
	}
	id, err := d.create(KindBuffer)
	if err != nil {
		return gpucore.InvalidID, err
	}
	d.buffers[gpucore.BufferID(id)] = make([]byte, desc.Size)
	return gpucore.BufferID(id), nil
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroy(KindBuffer, uint64(id)) {
		delete(d.buffers, id)
	}
}

// CreateTexture implements gpucore.Device.
func (d *Device) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if desc.Width == 0 || desc.Height == 0 {
		return gpucore.InvalidID, fmt.Errorf("recording: texture %dx%d is empty", desc.Width, desc.Height)
	}
	id, err := d.create(KindTexture)
	if err != nil {
		return gpucore.InvalidID, err
	}
	d.textures[gpucore.TextureID(id)] = *desc
	return gpucore.TextureID(id), nil
}

// DestroyTexture implements gpucore.Device.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroy(KindTexture, uint64(id)) {
		delete(d.textures, id)
	}
}

// CreateCommandEncoder implements gpucore.Device.
func (d *Device) CreateCommandEncoder(label string) (gpucore.CommandEncoder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gone {
		return nil, errors.New("recording: encoder on destroyed device")
	}
	return &Encoder{device: d, label: label}, nil
}

// Destroy implements gpucore.Device.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gone {
		return
	}
	d.leaked = len(d.live)
	d.gone = true
	d.events = append(d.events, Event{Op: OpDestroy, Kind: KindDevice})
}

// === Inspection ===

// Events returns a copy of the create/destroy log.
func (d *Device) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}

// Created returns how many objects of kind were created.
func (d *Device) Created(kind Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created[kind]
}

// Destroyed returns how many objects of kind were destroyed.
func (d *Device) Destroyed(kind Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed[kind]
}

// Live returns how many objects of kind are alive.
func (d *Device) Live(kind Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created[kind] - d.destroyed[kind]
}

// InvalidDestroys returns how many destroy calls named an unknown or already destroyed object.
func (d *Device) InvalidDestroys() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.invalid
}

// IsDestroyed reports whether Destroy was called.
func (d *Device) IsDestroyed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gone
}

// LeakedAtDestroy returns how many objects were still alive when the device was destroyed.
func (d *Device) LeakedAtDestroy() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.leaked
}

// BindGroup returns the descriptor a live bind group was created with.
func (d *Device) BindGroup(id gpucore.BindGroupID) (gpucore.BindGroupDesc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	desc, ok := d.bindGroups[id]
	return desc, ok
}

// PipelineLayout returns the descriptor a live pipeline layout was created with.
func (d *Device) PipelineLayout(id gpucore.PipelineLayoutID) (gpucore.PipelineLayoutDesc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	desc, ok := d.pipelineLayouts[id]
	return desc, ok
}

// Pipeline returns the descriptor a live compute pipeline was created with.
func (d *Device) Pipeline(id gpucore.ComputePipelineID) (gpucore.ComputePipelineDesc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	desc, ok := d.pipelines[id]
	return desc, ok
}

var _ gpucore.Device = (*Device)(nil)
