// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/compute/backend/recording"
	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/shader"
)

const testKernel = `@compute @workgroup_size(WORKGROUP_SIZE) fn main() {}`

type fixture struct {
	dev    *recording.Device
	shader *shader.Shader
	pipe   *Pipeline
	set    shader.Layout
	module shader.Module
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dev, _, err := recording.New().Adapter(0).Open(t.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rd := dev.(*recording.Device)
	sh := shader.New(rd, nil)
	set, err := sh.Layout.Cache.Retrieve(shader.Sig(gpucore.BindingTypeStorageBuffer))
	if err != nil {
		t.Fatalf("set layout: %v", err)
	}
	mod, err := sh.Cache.Retrieve(shader.Descriptor{Name: "k", Source: testKernel})
	if err != nil {
		t.Fatalf("module: %v", err)
	}
	return &fixture{dev: rd, shader: sh, pipe: New(rd, nil), set: set, module: mod}
}

func TestLayoutCacheIdempotent(t *testing.T) {
	f := newFixture(t)

	key := LayoutKey{SetLayout: f.set.Handle, PushConstantSize: 8}
	l1, err := f.pipe.Layout.Cache.Retrieve(key)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	l2, err := f.pipe.Layout.Cache.Retrieve(key)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if l1 != l2 {
		t.Errorf("equal keys gave %+v and %+v", l1, l2)
	}
	if l1.PushConstantSize != 8 {
		t.Errorf("PushConstantSize = %d, want 8", l1.PushConstantSize)
	}
	if got := f.dev.Created(recording.KindPipelineLayout); got != 1 {
		t.Errorf("pipeline layouts created = %d, want 1", got)
	}
	desc, ok := f.dev.PipelineLayout(l1.Handle)
	if !ok || desc.PushConstantSize != 8 || desc.SetLayout != f.set.Handle {
		t.Errorf("driver saw %+v, want set=%d push=8", desc, f.set.Handle)
	}
}

func TestLayoutCachePushSizeSplitsEntries(t *testing.T) {
	f := newFixture(t)

	l8, err := f.pipe.Layout.Cache.Retrieve(LayoutKey{SetLayout: f.set.Handle, PushConstantSize: 8})
	if err != nil {
		t.Fatal(err)
	}
	l16, err := f.pipe.Layout.Cache.Retrieve(LayoutKey{SetLayout: f.set.Handle, PushConstantSize: 16})
	if err != nil {
		t.Fatal(err)
	}
	if l8.Handle == l16.Handle {
		t.Error("different push-constant sizes share a pipeline layout")
	}
	if got := f.pipe.Layout.Cache.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestLayoutCacheInvalidKey(t *testing.T) {
	f := newFixture(t)
	if _, err := f.pipe.Layout.Cache.Retrieve(LayoutKey{}); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Retrieve(zero) = %v, want ErrInvalidKey", err)
	}
}

func TestCacheKeyCompleteness(t *testing.T) {
	f := newFixture(t)

	layout, err := f.pipe.Layout.Cache.Retrieve(LayoutKey{SetLayout: f.set.Handle, PushConstantSize: 4})
	if err != nil {
		t.Fatal(err)
	}
	otherLayout, err := f.pipe.Layout.Cache.Retrieve(LayoutKey{SetLayout: f.set.Handle, PushConstantSize: 8})
	if err != nil {
		t.Fatal(err)
	}
	otherModule, err := f.shader.Cache.Retrieve(shader.Descriptor{Name: "k2", Source: testKernel + "\n"})
	if err != nil {
		t.Fatal(err)
	}

	base := Key{Layout: layout.Handle, Module: f.module.Handle, LocalWorkGroup: shader.WG(64, 1, 1)}
	first, err := f.pipe.Cache.Retrieve(base)
	if err != nil {
		t.Fatalf("Retrieve(base): %v", err)
	}

	again, err := f.pipe.Cache.Retrieve(base)
	if err != nil {
		t.Fatal(err)
	}
	if again.Handle != first.Handle {
		t.Fatal("identical key did not reuse pipeline")
	}

	tests := []struct {
		name string
		mod  func(k Key) Key
	}{
		{"layout", func(k Key) Key { k.Layout = otherLayout.Handle; return k }},
		{"module", func(k Key) Key { k.Module = otherModule.Handle; return k }},
		{"local work group", func(k Key) Key { k.LocalWorkGroup = shader.WG(32, 2, 1); return k }},
		{"entry point", func(k Key) Key { k.EntryPoint = "other"; return k }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := f.pipe.Cache.Retrieve(tt.mod(base))
			if err != nil {
				t.Fatalf("Retrieve: %v", err)
			}
			if obj.Handle == first.Handle {
				t.Errorf("changing %s reused pipeline %d", tt.name, obj.Handle)
			}
		})
	}

	// base + 4 variants
	if got := f.dev.Created(recording.KindComputePipeline); got != 5 {
		t.Errorf("pipelines created = %d, want 5", got)
	}
	st := f.pipe.Stats()
	if st.Pipelines.Hits != 1 || st.Pipelines.Misses != 5 {
		t.Errorf("pipeline stats = %+v, want 1 hit 5 misses", st.Pipelines)
	}
}

func TestCacheForwardsWorkgroupSize(t *testing.T) {
	f := newFixture(t)
	layout, err := f.pipe.Layout.Cache.Retrieve(LayoutKey{SetLayout: f.set.Handle})
	if err != nil {
		t.Fatal(err)
	}
	obj, err := f.pipe.Cache.Retrieve(Key{Layout: layout.Handle, Module: f.module.Handle, LocalWorkGroup: shader.WG(8, 8, 1)})
	if err != nil {
		t.Fatal(err)
	}
	desc, ok := f.dev.Pipeline(obj.Handle)
	if !ok {
		t.Fatal("pipeline not known to driver")
	}
	if desc.WorkgroupSize != [3]uint32{8, 8, 1} {
		t.Errorf("WorkgroupSize = %v, want [8 8 1]", desc.WorkgroupSize)
	}
	if desc.EntryPoint != shader.DefaultEntryPoint {
		t.Errorf("EntryPoint = %q, want %q", desc.EntryPoint, shader.DefaultEntryPoint)
	}
}

func TestCacheInvalidWorkGroup(t *testing.T) {
	f := newFixture(t)
	layout, err := f.pipe.Layout.Cache.Retrieve(LayoutKey{SetLayout: f.set.Handle})
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.pipe.Cache.Retrieve(Key{Layout: layout.Handle, Module: f.module.Handle, LocalWorkGroup: shader.WG(0, 1, 1)})
	if !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Retrieve = %v, want ErrInvalidKey", err)
	}
}

func TestCacheCreationFailure(t *testing.T) {
	f := newFixture(t)
	layout, err := f.pipe.Layout.Cache.Retrieve(LayoutKey{SetLayout: f.set.Handle})
	if err != nil {
		t.Fatal(err)
	}
	f.dev.FailNext(recording.KindComputePipeline, nil)
	_, err = f.pipe.Cache.Retrieve(Key{Layout: layout.Handle, Module: f.module.Handle, LocalWorkGroup: shader.WG(1, 1, 1)})
	if !errors.Is(err, gpucore.ErrObjectCreation) {
		t.Errorf("Retrieve = %v, want ErrObjectCreation", err)
	}
}

func TestCacheConcurrentCreateOnce(t *testing.T) {
	f := newFixture(t)
	layout, err := f.pipe.Layout.Cache.Retrieve(LayoutKey{SetLayout: f.set.Handle, PushConstantSize: 16})
	if err != nil {
		t.Fatal(err)
	}
	key := Key{Layout: layout.Handle, Module: f.module.Handle, LocalWorkGroup: shader.WG(16, 16, 1)}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.pipe.Cache.Retrieve(key); err != nil {
				t.Errorf("Retrieve: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := f.dev.Created(recording.KindComputePipeline); got != 1 {
		t.Errorf("pipelines created = %d, want 1", got)
	}
}

func TestPipelinePurgeOrder(t *testing.T) {
	f := newFixture(t)
	layout, err := f.pipe.Layout.Cache.Retrieve(LayoutKey{SetLayout: f.set.Handle})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.pipe.Cache.Retrieve(Key{Layout: layout.Handle, Module: f.module.Handle, LocalWorkGroup: shader.WG(1, 1, 1)}); err != nil {
		t.Fatal(err)
	}

	f.pipe.Purge()

	var destroyed []recording.Kind
	for _, e := range f.dev.Events() {
		if e.Op == recording.OpDestroy {
			destroyed = append(destroyed, e.Kind)
		}
	}
	want := []recording.Kind{recording.KindComputePipeline, recording.KindPipelineLayout}
	if len(destroyed) != len(want) {
		t.Fatalf("destroyed %v, want %v", destroyed, want)
	}
	for i := range want {
		if destroyed[i] != want[i] {
			t.Errorf("destroy[%d] = %s, want %s", i, destroyed[i], want[i])
		}
	}
}
