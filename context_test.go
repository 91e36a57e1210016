package compute

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/compute/adapter"
	"github.com/gogpu/compute/backend/recording"
	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/resource"
	"github.com/gogpu/compute/shader"
)

const testKernel = `@compute @workgroup_size(WORKGROUP_SIZE) fn main() {}`

type env struct {
	ctx   *Context
	dev   *recording.Device
	queue *recording.Queue
}

func newEnv(t *testing.T) *env {
	t.Helper()
	rb := recording.New()
	c, err := New(adapter.New(rb.Adapter(0)), WithLabel(t.Name()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Destroy)
	dev := rb.Adapter(0).LastDevice()
	return &env{ctx: c, dev: dev, queue: dev.Queue()}
}

func TestNewBuildsSubsystemsInOrder(t *testing.T) {
	e := newEnv(t)
	want := []string{"device", "command", "shader", "pipeline", "descriptor", "resource"}
	if got := e.ctx.teardown.names(); !slices.Equal(got, want) {
		t.Errorf("acquisition order = %v, want %v", got, want)
	}
	if e.dev.Label() != t.Name() {
		t.Errorf("device label = %q, want %q", e.dev.Label(), t.Name())
	}

	g := e.ctx.GPU()
	if g.Device != gpucore.Device(e.dev) || g.Queue != gpucore.Queue(e.queue) {
		t.Error("GPU() does not expose the opened device and queue")
	}
	if g.Adapter == nil || g.Adapter.Backend() != recording.Name {
		t.Errorf("GPU().Adapter = %v", g.Adapter)
	}
	for name, ok := range map[string]bool{
		"command":    e.ctx.Command() != nil,
		"shader":     e.ctx.Shader() != nil,
		"pipeline":   e.ctx.Pipeline() != nil,
		"descriptor": e.ctx.Descriptor() != nil,
		"resource":   e.ctx.Resource() != nil,
	} {
		if !ok {
			t.Errorf("%s accessor returned nil", name)
		}
	}
}

func TestNewDeviceCreationFailure(t *testing.T) {
	rb := recording.New()
	rb.Adapter(0).FailOpen(errors.New("device lost"))

	c, err := New(adapter.New(rb.Adapter(0)))
	if c != nil {
		t.Fatal("New returned a context on device creation failure")
	}
	if !errors.Is(err, gpucore.ErrDeviceCreation) {
		t.Errorf("New error = %v, want ErrDeviceCreation", err)
	}

	if _, err := New(nil); !errors.Is(err, gpucore.ErrDeviceCreation) {
		t.Errorf("New(nil) error = %v, want ErrDeviceCreation", err)
	}
}

func TestDestroyReleasesDeviceLast(t *testing.T) {
	e := newEnv(t)

	buf, err := e.ctx.Resource().Pool.Buffer(resource.BufferDesc{
		Label: "data", Size: 64, Usage: gpucore.BufferUsageStorage,
	})
	if err != nil {
		t.Fatal(err)
	}
	cb, err := e.ctx.Command().Buffer("work")
	if err != nil {
		t.Fatal(err)
	}
	err = e.ctx.Dispatch(cb,
		shader.Sig(gpucore.BindingTypeStorageBuffer),
		shader.Descriptor{Name: "k", Source: testKernel},
		shader.WG(64, 1, 1), shader.WG(64, 1, 1),
		uint32(16), resource.List(buf))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if err := e.ctx.Command().Submit(cb); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	e.ctx.Destroy()
	e.ctx.Destroy()

	events := e.dev.Events()
	if len(events) == 0 {
		t.Fatal("no events recorded")
	}
	last := events[len(events)-1]
	if last.Op != recording.OpDestroy || last.Kind != recording.KindDevice {
		t.Errorf("last event = %s, want device destroy", last)
	}
	for _, ev := range events[:len(events)-1] {
		if ev.Kind == recording.KindDevice {
			t.Errorf("device released before %s", last)
		}
	}
	if n := e.dev.LeakedAtDestroy(); n != 0 {
		t.Errorf("%d objects alive when the device was destroyed", n)
	}
	if n := e.dev.InvalidDestroys(); n != 0 {
		t.Errorf("%d invalid destroy calls", n)
	}
	wait := slices.IndexFunc(events, func(ev recording.Event) bool { return ev.Op == recording.OpWait })
	firstDestroy := slices.IndexFunc(events, func(ev recording.Event) bool { return ev.Op == recording.OpDestroy })
	if wait < 0 || firstDestroy < wait {
		t.Errorf("first wait at event %d, first destroy (%s) at %d: objects released before the queue was idle",
			wait, events[firstDestroy], firstDestroy)
	}
	if !e.ctx.Destroyed() {
		t.Error("Destroyed() = false after Destroy")
	}
}

func TestReleaseStackUnwindsInReverse(t *testing.T) {
	var (
		s   releaseStack
		got []string
	)
	for _, name := range []string{"a", "b", "c"} {
		s.push(name, func() { got = append(got, name) })
	}
	s.unwind(newNopLogger())
	if want := []string{"c", "b", "a"}; !slices.Equal(got, want) {
		t.Errorf("release order = %v, want %v", got, want)
	}
	if len(s.names()) != 0 {
		t.Error("unwind left entries on the stack")
	}
}

func TestFlush(t *testing.T) {
	e := newEnv(t)
	pool := e.ctx.Descriptor().Pool
	cmds := e.ctx.Command().Pool

	cb, err := e.ctx.Command().Buffer("flush")
	if err != nil {
		t.Fatal(err)
	}
	desc := shader.Descriptor{Name: "k", Source: testKernel}
	if err := e.ctx.Dispatch(cb, shader.Sig(), desc, shader.WG(1, 1, 1), shader.WG(1, 1, 1), nil, nil); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if err := cmds.Submit(cb); err != nil {
		t.Fatal(err)
	}
	released, err := e.ctx.Resource().Pool.Buffer(resource.BufferDesc{Label: "tmp", Size: 4, Usage: gpucore.BufferUsageStorage})
	if err != nil {
		t.Fatal(err)
	}
	released.Release()

	epoch := pool.Epoch()
	pipelines := e.dev.Live(recording.KindComputePipeline)
	if cmds.InFlight() != 1 || pool.Committed() != 1 || e.ctx.Resource().Pool.Pending() != 1 {
		t.Fatalf("before Flush: inflight=%d committed=%d pending=%d", cmds.InFlight(), pool.Committed(), e.ctx.Resource().Pool.Pending())
	}

	if err := e.ctx.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if cmds.InFlight() != 0 {
		t.Errorf("InFlight after Flush = %d, want 0", cmds.InFlight())
	}
	if pool.Committed() != 0 || pool.Epoch() != epoch+1 {
		t.Errorf("descriptor pool after Flush: committed=%d epoch=%d, want 0 and %d", pool.Committed(), pool.Epoch(), epoch+1)
	}
	if n := e.ctx.Resource().Pool.Pending(); n != 0 {
		t.Errorf("Pending after Flush = %d, want 0", n)
	}
	if n := e.dev.Live(recording.KindComputePipeline); n != pipelines {
		t.Errorf("Flush dropped cached pipelines: live %d, want %d", n, pipelines)
	}
	if e.queue.Waits() == 0 {
		t.Error("Flush did not wait for the queue")
	}

	e.ctx.Destroy()
	if err := e.ctx.Flush(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Flush after Destroy = %v, want ErrDestroyed", err)
	}
}

func TestFlushWaitFailureKeepsObjects(t *testing.T) {
	e := newEnv(t)
	cb, err := e.ctx.Command().Buffer("flush")
	if err != nil {
		t.Fatal(err)
	}
	data, err := e.ctx.Resource().Pool.Buffer(resource.BufferDesc{Label: "data", Size: 64, Usage: gpucore.BufferUsageStorage})
	if err != nil {
		t.Fatal(err)
	}
	err = e.ctx.Dispatch(cb,
		shader.Sig(gpucore.BindingTypeStorageBuffer),
		shader.Descriptor{Name: "k", Source: testKernel},
		shader.WG(64, 1, 1), shader.WG(64, 1, 1), nil, resource.List(data))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if err := e.ctx.Command().Submit(cb); err != nil {
		t.Fatal(err)
	}
	data.Release()

	timeout := errors.New("wait timeout")
	e.queue.FailNextWait(timeout)
	if err := e.ctx.Flush(); !errors.Is(err, timeout) {
		t.Fatalf("Flush = %v, want the wait error", err)
	}
	for _, kind := range []recording.Kind{recording.KindBindGroup, recording.KindBuffer, recording.KindCommandBuffer} {
		if n := e.dev.Destroyed(kind); n != 0 {
			t.Errorf("%d %s objects destroyed after a failed wait", n, kind)
		}
	}
	if e.ctx.Command().Pool.InFlight() != 1 || e.ctx.Resource().Pool.Pending() != 1 {
		t.Errorf("failed Flush dropped work: inflight=%d pending=%d",
			e.ctx.Command().Pool.InFlight(), e.ctx.Resource().Pool.Pending())
	}

	if err := e.ctx.Flush(); err != nil {
		t.Fatalf("Flush after recovery: %v", err)
	}
	if n := e.dev.Destroyed(recording.KindBuffer); n != 1 {
		t.Errorf("buffers destroyed = %d, want 1", n)
	}
}

func TestOptions(t *testing.T) {
	o := defaultOptions()
	WithLabel("")(&o)
	if o.label != "compute" {
		t.Errorf("empty label replaced default: %q", o.label)
	}
	WithLabel("x")(&o)
	if o.label != "x" {
		t.Errorf("label = %q, want x", o.label)
	}
	l := newNopLogger()
	WithLogger(l)(&o)
	if o.logger != l {
		t.Error("WithLogger not applied")
	}
}
