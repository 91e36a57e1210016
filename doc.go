// Package compute runs GPU compute kernels.
//
// A Context owns the logical device and compute queue of one adapter
// together with five sub-systems, created in dependency order:
//
//   - command: command buffer pooling and submission
//   - shader: shader modules and signature-keyed set layouts
//   - pipeline: pipeline layouts and compute pipelines
//   - descriptor: per-dispatch descriptor sets
//   - resource: buffers and images passed to kernels
//
// Destroy releases them in reverse order, device last.
//
// # Dispatch
//
// Dispatch turns a kernel, a work shape, a params value and an ordered
// list of resources into recorded commands:
//
//	c, err := compute.New(a)
//	if err != nil {
//		return err
//	}
//	defer c.Destroy()
//
//	buf, _ := c.Command().Buffer("scale")
//	err = c.Dispatch(buf,
//		shader.Sig(gpucore.BindingTypeStorageBuffer),
//		shader.Descriptor{Name: "scale", Source: scaleWGSL},
//		shader.WG(n, 1, 1), shader.WG(64, 1, 1),
//		struct{ Factor float32; N uint32 }{2, n},
//		resource.List(data),
//	)
//	if err == nil {
//		err = c.Command().Submit(buf)
//	}
//
// The global work shape counts elements; Dispatch divides it by the
// local shape, rounding up, to get the group count. Params are encoded
// with encoding/binary in little-endian order and must be fixed-size.
//
// Shader layouts, pipeline layouts, shader modules and pipelines are
// cached by value. Repeated dispatches of the same kernel create no new
// GPU objects.
//
// # Process-wide context
//
// Available and Global expose one lazily created Context bound to the
// best adapter of the registered backends. Import a backend to register
// it:
//
//	import _ "github.com/gogpu/compute/backend/native"
//
//	if compute.Available() {
//		c, _ := compute.Global()
//		...
//	}
//
// Call Shutdown at process exit. Tests and embedders should prefer New
// with an explicit adapter.
//
// # Debug assertions
//
// Build with -tags computedebug to check internal invariants at runtime.
package compute
