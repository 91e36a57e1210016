package compute

import (
	"errors"
	"testing"

	"github.com/gogpu/compute/adapter"
	"github.com/gogpu/compute/backend/recording"
	"github.com/gogpu/compute/gpucore"
)

// withSelector installs sel for the duration of the test and counts calls.
func withSelector(t *testing.T, sel func() (*adapter.Adapter, error)) *int {
	t.Helper()
	Shutdown()
	calls := new(int)
	prev := selectAdapter
	selectAdapter = func() (*adapter.Adapter, error) {
		*calls++
		return sel()
	}
	t.Cleanup(func() {
		Shutdown()
		selectAdapter = prev
	})
	return calls
}

func TestGlobalUnavailable(t *testing.T) {
	calls := withSelector(t, func() (*adapter.Adapter, error) {
		return adapter.Select(recording.NewBackend("empty"))
	})

	for range 3 {
		if Available() {
			t.Fatal("Available() = true without adapters")
		}
		c, err := Global()
		if c != nil {
			t.Fatal("Global returned a context without adapters")
		}
		if !errors.Is(err, adapter.ErrNoAdapter) {
			t.Fatalf("Global error = %v, want ErrNoAdapter", err)
		}
	}
	if *calls != 1 {
		t.Errorf("adapter selection ran %d times, want 1", *calls)
	}
}

func TestGlobalDeviceFailure(t *testing.T) {
	rb := recording.New()
	rb.Adapter(0).FailOpen(errors.New("device lost"))
	withSelector(t, func() (*adapter.Adapter, error) {
		return adapter.Select(rb)
	})

	if Available() {
		t.Fatal("Available() = true when device creation fails")
	}
	_, err1 := Global()
	_, err2 := Global()
	if !errors.Is(err1, gpucore.ErrDeviceCreation) || err1 != err2 {
		t.Errorf("Global errors = %v, %v, want the same ErrDeviceCreation", err1, err2)
	}
}

func TestGlobalAvailable(t *testing.T) {
	rb := recording.New()
	calls := withSelector(t, func() (*adapter.Adapter, error) {
		return adapter.Select(rb)
	})

	if !Available() {
		t.Fatal("Available() = false with a recording adapter")
	}
	c1, err := Global()
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	c2, _ := Global()
	if c1 != c2 {
		t.Error("Global returned different contexts")
	}
	if *calls != 1 {
		t.Errorf("adapter selection ran %d times, want 1", *calls)
	}

	dev := rb.Adapter(0).LastDevice()
	if dev.Label() != "compute-global" {
		t.Errorf("device label = %q", dev.Label())
	}
	Shutdown()
	if !dev.IsDestroyed() || !c1.Destroyed() {
		t.Error("Shutdown did not destroy the global context")
	}

	c3, err := Global()
	if err != nil || c3 == c1 {
		t.Errorf("Global after Shutdown = %p, %v, want a fresh context", c3, err)
	}
	if len(rb.Adapter(0).Devices()) != 2 {
		t.Errorf("opened %d devices, want 2", len(rb.Adapter(0).Devices()))
	}
}
