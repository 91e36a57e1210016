// Command computeinfo reports whether GPU compute is available and,
// optionally, runs a small kernel to check the device end to end.
package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/compute"
	"github.com/gogpu/compute/backend/native"
	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/compute/resource"
	"github.com/gogpu/compute/shader"
)

const doubleKernel = `
struct Params {
    n: u32,
}

@group(0) @binding(0) var<storage, read_write> data: array<u32>;
@group(1) @binding(0) var<uniform> params: Params;

@compute @workgroup_size(WORKGROUP_SIZE)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    if id.x < params.n {
        data[id.x] = data[id.x] * 2u;
    }
}
`

func main() {
	var (
		smoke   = flag.Bool("smoke", false, "run a doubling kernel on the selected device")
		n       = flag.Uint("n", 1024, "element count for -smoke")
		local   = flag.Uint("local", 64, "local work group size for -smoke")
		verbose = flag.Bool("v", false, "log at debug level")
	)
	flag.Parse()

	if *verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		compute.SetLogger(logger)
		native.SetLogger(logger)
	}
	if err := run(*smoke, uint32(*n), uint32(*local)); err != nil { //nolint:gosec // flag values
		log.Print(err)
		os.Exit(1)
	}
}

// run prints the adapter report and optionally runs the smoke kernel.
// The global context is shut down before run returns.
func run(smoke bool, n, local uint32) error {
	defer compute.Shutdown()

	c, err := compute.Global()
	if err != nil {
		return fmt.Errorf("GPU compute unavailable: %w", err)
	}

	info := c.GPU().Adapter.Info()
	limits := c.Limits()
	log.Printf("adapter:   %s", info)
	log.Printf("workgroup: max %v, %d invocations, %d groups per dimension",
		limits.MaxWorkgroupSize, limits.MaxInvocationsPerWorkgroup, limits.MaxWorkgroupsPerDimension)
	log.Printf("push:      %d bytes", limits.MaxPushConstantSize)
	log.Printf("buffers:   %d bytes max, %d bindings per set", limits.MaxBufferSize, limits.MaxBindingsPerSet)

	if !smoke {
		return nil
	}
	if err := runSmoke(c, n, local); err != nil {
		return fmt.Errorf("smoke: %w", err)
	}
	log.Printf("smoke:     %d elements doubled", n)
	return nil
}

func runSmoke(c *compute.Context, n, local uint32) error {
	src := make([]byte, 4*n)
	for i := range n {
		binary.LittleEndian.PutUint32(src[4*i:], i)
	}
	data, err := c.Resource().Pool.BufferWithData("data", gpucore.BufferUsageStorage|gpucore.BufferUsageCopySrc, src)
	if err != nil {
		return err
	}
	defer data.Release()

	buf, err := c.Command().Buffer("smoke")
	if err != nil {
		return err
	}
	err = c.Dispatch(buf,
		shader.Sig(gpucore.BindingTypeStorageBuffer),
		shader.Descriptor{Name: "double", Source: doubleKernel},
		shader.WG(n, 1, 1), shader.WG(local, 1, 1),
		struct{ N uint32 }{n},
		resource.List(data),
	)
	if err != nil {
		return err
	}
	if err := c.Command().Submit(buf); err != nil {
		return err
	}
	if err := c.Flush(); err != nil {
		return err
	}

	dst := make([]byte, len(src))
	if err := data.Read(0, dst); err != nil {
		return err
	}
	for i := range n {
		if got := binary.LittleEndian.Uint32(dst[4*i:]); got != 2*i {
			log.Printf("element %d = %d, want %d", i, got, 2*i)
			return errMismatch
		}
	}
	return nil
}

var errMismatch = errors.New("result mismatch")
