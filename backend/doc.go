// Package backend provides a registry of compute driver backends.
//
// Driver packages register a factory from init(), so linking a driver is
// a blank import away:
//
//	import _ "github.com/gogpu/compute/backend/native"
//
// # Backend Selection
//
// All() instantiates every registered backend in priority order, ready
// for adapter selection:
//
//	backends, _ := backend.All()
//	a, err := adapter.Select(backends...)
//
// Get() instantiates one backend by name:
//
//	b, err := backend.Get(backend.Native)
//
// # Available Backends
//
//   - native: gogpu/wgpu HAL over Vulkan, WGSL compiled with gogpu/naga
//
// The in-memory driver in backend/recording is not registered; tests pass
// it to adapter.Select directly.
package backend
