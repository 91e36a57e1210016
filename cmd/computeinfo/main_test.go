package main

import (
	"errors"
	"testing"

	"github.com/gogpu/compute"
	"github.com/gogpu/compute/backend"
	"github.com/gogpu/compute/backend/recording"
	"github.com/gogpu/compute/gpucore"
)

// useRecording replaces every registered driver with a recording backend.
func useRecording(t *testing.T) *recording.Backend {
	t.Helper()
	compute.Shutdown()
	rb := recording.New()
	backend.Unregister(backend.Native)
	backend.Register(recording.Name, func() (gpucore.Backend, error) { return rb, nil })
	t.Cleanup(func() {
		compute.Shutdown()
		backend.Unregister(recording.Name)
	})
	return rb
}

func TestRunReleasesDevice(t *testing.T) {
	tests := []struct {
		name    string
		smoke   bool
		wantErr error
	}{
		{"report only", false, nil},
		// The recording driver executes nothing, so the data is never doubled.
		{"smoke mismatch", true, errMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := useRecording(t)

			err := run(tt.smoke, 64, 64)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("run = %v, want %v", err, tt.wantErr)
			}
			dev := rb.Adapter(0).LastDevice()
			if dev == nil || !dev.IsDestroyed() {
				t.Error("run returned without shutting down the global context")
			}
		})
	}
}

func TestRunUnavailable(t *testing.T) {
	compute.Shutdown()
	backend.Unregister(backend.Native)
	t.Cleanup(compute.Shutdown)

	if err := run(false, 0, 0); err == nil {
		t.Error("run succeeded with no registered driver")
	}
}
