package compute

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/compute/adapter"
	"github.com/gogpu/compute/backend"
)

// selectAdapter picks the adapter for the process-wide Context.
// Tests replace it to inject a recording backend.
var selectAdapter = func() (*adapter.Adapter, error) {
	backends, enumErr := backend.All()
	a, err := adapter.Select(backends...)
	if err != nil {
		return nil, errors.Join(err, enumErr)
	}
	if enumErr != nil {
		Logger().Debug("compute: some backends unavailable", "err", enumErr)
	}
	return a, nil
}

var (
	globalMu   sync.Mutex
	globalInit bool
	globalCtx  *Context
	globalErr  error
)

// initGlobal builds the process-wide Context once. The outcome, success
// or failure, is kept until Shutdown.
// Must be called with globalMu held.
func initGlobal() {
	if globalInit {
		return
	}
	globalInit = true
	a, err := selectAdapter()
	if err != nil {
		globalErr = fmt.Errorf("compute: no GPU available: %w", err)
		Logger().Info("compute: GPU compute unavailable", "err", err)
		return
	}
	c, err := New(a, WithLabel("compute-global"))
	if err != nil {
		globalErr = err
		Logger().Warn("compute: global context creation failed", "adapter", a.String(), "err", err)
		return
	}
	globalCtx = c
}

// Available reports whether a usable adapter was found and the
// process-wide Context could be created. It never panics; callers use
// it to choose between GPU and CPU paths.
func Available() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	initGlobal()
	return globalCtx != nil
}

// Global returns the process-wide Context, creating it on first use with
// the highest-ranked adapter of the registered backends. Every call
// returns the same Context, or the same error when none is available.
func Global() (*Context, error) {
	globalMu.Lock()
	defer globalMu.Unlock()
	initGlobal()
	return globalCtx, globalErr
}

// Shutdown destroys the process-wide Context, if any. Call it once at
// process exit. A later Global call creates a fresh Context.
func Shutdown() {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalCtx != nil {
		globalCtx.Destroy()
	}
	globalInit = false
	globalCtx = nil
	globalErr = nil
}
