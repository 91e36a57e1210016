// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package descriptor

import (
	"errors"
	"testing"

	"github.com/gogpu/compute/backend/recording"
	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/resource"
	"github.com/gogpu/compute/shader"
)

type fixture struct {
	dev   *recording.Device
	sh    *shader.Shader
	pool  *Pool
	res   *resource.Pool
	a, b  *resource.Buffer
	uni   *resource.Buffer
	image *resource.Image
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dev, q, err := recording.New().Adapter(0).Open(t.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	f := &fixture{
		dev:  dev.(*recording.Device),
		sh:   shader.New(dev, nil),
		pool: NewPool(dev, nil),
		res:  resource.NewPool(dev, q, nil),
	}
	mk := func(label string, usage gpucore.BufferUsage) *resource.Buffer {
		b, err := f.res.Buffer(resource.BufferDesc{Label: label, Size: 16, Usage: usage})
		if err != nil {
			t.Fatalf("Buffer(%s): %v", label, err)
		}
		return b
	}
	f.a = mk("a", gpucore.BufferUsageStorage)
	f.b = mk("b", gpucore.BufferUsageStorage)
	f.uni = mk("u", gpucore.BufferUsageUniform)
	f.image, err = f.res.Image(resource.ImageDesc{Label: "img", Width: 2, Height: 2,
		Format: gpucore.TextureFormatRGBA8Unorm, Usage: gpucore.TextureUsageStorageBinding})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) layout(t *testing.T, types ...gpucore.BindingType) shader.Layout {
	t.Helper()
	l, err := f.sh.Layout.Cache.Retrieve(shader.Sig(types...))
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	return l
}

func TestSetBindOrder(t *testing.T) {
	f := newFixture(t)
	layout := f.layout(t, gpucore.BindingTypeStorageBuffer, gpucore.BindingTypeStorageBuffer)

	tests := []struct {
		name string
		args []*resource.Buffer
	}{
		{"a then b", []*resource.Buffer{f.a, f.b}},
		{"b then a", []*resource.Buffer{f.b, f.a}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := f.pool.Allocate(layout)
			if err != nil {
				t.Fatal(err)
			}
			for i, r := range tt.args {
				if err := set.Bind(i, r); err != nil {
					t.Fatalf("Bind(%d): %v", i, err)
				}
			}
			id, err := set.Commit()
			if err != nil {
				t.Fatalf("Commit: %v", err)
			}
			desc, ok := f.dev.BindGroup(id)
			if !ok {
				t.Fatal("bind group unknown to driver")
			}
			for i, r := range tt.args {
				e := desc.Entries[i]
				if e.Binding != uint32(i) || e.Buffer != r.ID() {
					t.Errorf("entry %d = {binding %d, buffer %d}, want {%d, %d}", i, e.Binding, e.Buffer, i, r.ID())
				}
			}
		})
	}
}

func TestSetBindErrors(t *testing.T) {
	f := newFixture(t)
	layout := f.layout(t, gpucore.BindingTypeUniformBuffer, gpucore.BindingTypeStorageTexture)

	released, _ := f.res.Buffer(resource.BufferDesc{Label: "gone", Size: 4, Usage: gpucore.BufferUsageUniform})
	released.Release()

	tests := []struct {
		name string
		slot int
		res  resource.Bindable
		want error
	}{
		{"negative slot", -1, f.uni, ErrSlotOutOfRange},
		{"past end", 2, f.uni, ErrSlotOutOfRange},
		{"storage into uniform", 0, f.a, ErrBindingMismatch},
		{"buffer into image slot", 1, f.uni, ErrBindingMismatch},
		{"nil", 0, nil, ErrBindingMismatch},
		{"released", 0, released, resource.ErrReleased},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := f.pool.Allocate(layout)
			if err != nil {
				t.Fatal(err)
			}
			if err := set.Bind(tt.slot, tt.res); !errors.Is(err, tt.want) {
				t.Errorf("Bind = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSetImageBinding(t *testing.T) {
	f := newFixture(t)
	set, err := f.pool.Allocate(f.layout(t, gpucore.BindingTypeStorageTexture))
	if err != nil {
		t.Fatal(err)
	}
	if err := set.Bind(0, f.image); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	id, err := set.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	desc, _ := f.dev.BindGroup(id)
	if desc.Entries[0].Texture != f.image.ID() {
		t.Errorf("texture = %d, want %d", desc.Entries[0].Texture, f.image.ID())
	}
}

func TestSetIncomplete(t *testing.T) {
	f := newFixture(t)
	set, err := f.pool.Allocate(f.layout(t, gpucore.BindingTypeStorageBuffer, gpucore.BindingTypeStorageBuffer))
	if err != nil {
		t.Fatal(err)
	}
	if err := set.Bind(0, f.a); err != nil {
		t.Fatal(err)
	}
	if _, err := set.Commit(); !errors.Is(err, ErrIncompleteSet) {
		t.Errorf("Commit = %v, want ErrIncompleteSet", err)
	}
	if f.dev.Created(recording.KindBindGroup) != 0 {
		t.Error("incomplete set reached the driver")
	}
}

func TestSetEmpty(t *testing.T) {
	f := newFixture(t)
	set, err := f.pool.Allocate(f.layout(t))
	if err != nil {
		t.Fatal(err)
	}
	id, err := set.Commit()
	if err != nil {
		t.Fatalf("Commit(empty): %v", err)
	}
	if id == gpucore.InvalidID {
		t.Error("empty set has no bind group")
	}
}

func TestSetCommitIdempotent(t *testing.T) {
	f := newFixture(t)
	set, _ := f.pool.Allocate(f.layout(t, gpucore.BindingTypeStorageBuffer))
	_ = set.Bind(0, f.a)

	id1, err := set.Commit()
	if err != nil {
		t.Fatal(err)
	}
	id2, err := set.Commit()
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 || f.dev.Created(recording.KindBindGroup) != 1 {
		t.Errorf("Commit twice created %d groups", f.dev.Created(recording.KindBindGroup))
	}
	if err := set.Bind(0, f.b); !errors.Is(err, ErrSetCommitted) {
		t.Errorf("Bind after Commit = %v, want ErrSetCommitted", err)
	}
}

func TestPoolPurgeEpoch(t *testing.T) {
	f := newFixture(t)
	layout := f.layout(t, gpucore.BindingTypeStorageBuffer)

	committed, _ := f.pool.Allocate(layout)
	_ = committed.Bind(0, f.a)
	if _, err := committed.Commit(); err != nil {
		t.Fatal(err)
	}
	pending, _ := f.pool.Allocate(layout)
	_ = pending.Bind(0, f.b)

	if f.pool.Allocated() != 2 || f.pool.Committed() != 1 {
		t.Errorf("Allocated=%d Committed=%d, want 2 and 1", f.pool.Allocated(), f.pool.Committed())
	}

	epoch := f.pool.Epoch()
	f.pool.Purge()

	if f.pool.Epoch() != epoch+1 {
		t.Errorf("Epoch() = %d, want %d", f.pool.Epoch(), epoch+1)
	}
	if got := f.dev.Live(recording.KindBindGroup); got != 0 {
		t.Errorf("live bind groups after Purge = %d", got)
	}
	if _, err := committed.Commit(); !errors.Is(err, ErrStaleSet) {
		t.Errorf("committed stale set: %v, want ErrStaleSet", err)
	}
	if _, err := pending.Commit(); !errors.Is(err, ErrStaleSet) {
		t.Errorf("pending stale set: %v, want ErrStaleSet", err)
	}
}

func TestPoolAllocateInvalid(t *testing.T) {
	f := newFixture(t)
	if _, err := f.pool.Allocate(shader.Layout{}); !errors.Is(err, ErrInvalidLayout) {
		t.Errorf("Allocate(zero) = %v, want ErrInvalidLayout", err)
	}
	f.pool.Destroy()
	if _, err := f.pool.Allocate(f.layout(t)); !errors.Is(err, ErrPoolDestroyed) {
		t.Errorf("Allocate after Destroy = %v, want ErrPoolDestroyed", err)
	}
}

func TestSetCommitFailure(t *testing.T) {
	f := newFixture(t)
	set, _ := f.pool.Allocate(f.layout(t, gpucore.BindingTypeStorageBuffer))
	_ = set.Bind(0, f.a)
	f.dev.FailNext(recording.KindBindGroup, nil)
	if _, err := set.Commit(); !errors.Is(err, gpucore.ErrObjectCreation) {
		t.Errorf("Commit = %v, want ErrObjectCreation", err)
	}
}
