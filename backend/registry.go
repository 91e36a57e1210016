package backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/compute/gpucore"
)

// Factory creates a backend instance.
type Factory func() (gpucore.Backend, error)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for enumeration (first listed is enumerated first).
	// Unlisted backends follow in name order.
	backendPriority = []string{Native}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Names returns the registered backend names in priority order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return orderedNames()
}

// orderedNames must be called with registryMu held.
func orderedNames() []string {
	names := make([]string, 0, len(factories))
	for _, name := range backendPriority {
		if _, ok := factories[name]; ok {
			names = append(names, name)
		}
	}
	rest := make([]string, 0, len(factories))
	for name := range factories {
		if !slices.Contains(backendPriority, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(names, rest...)
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get returns a new backend instance by name.
func Get(name string) (gpucore.Backend, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	b, err := factory()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBackendNotAvailable, name, err)
	}
	return b, nil
}

// All instantiates every registered backend in priority order.
// Backends that fail to initialize are skipped; their errors are joined
// into the returned error, which is informational when the slice is
// non-empty.
func All() ([]gpucore.Backend, error) {
	registryMu.RLock()
	names := orderedNames()
	registryMu.RUnlock()

	var (
		out  []gpucore.Backend
		errs []error
	)
	for _, name := range names {
		b, err := Get(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, b)
	}
	return out, errors.Join(errs...)
}
