//go:build !nogpu

package native

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/compute/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Queue implements gpucore.Queue on a hal queue.
//
// Every submission signals its own fence; WaitIdle waits for and destroys
// all pending fences.
type Queue struct {
	device  *Device
	queue   hal.Queue
	timeout time.Duration

	mu      sync.Mutex
	pending []hal.Fence
}

// WriteBuffer implements gpucore.Queue.
func (q *Queue) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	buf, err := q.device.lookupBuffer(id)
	if err != nil {
		return err
	}
	if offset+uint64(len(data)) > buf.size {
		return fmt.Errorf("native: write [%d,+%d) beyond buffer size %d", offset, len(data), buf.size)
	}
	if len(data) > 0 {
		q.queue.WriteBuffer(buf.handle, offset, data)
	}
	return nil
}

// ReadBuffer implements gpucore.Queue. It waits for pending work, copies
// the range into a staging buffer and reads it back.
func (q *Queue) ReadBuffer(id gpucore.BufferID, offset uint64, dst []byte) error {
	buf, err := q.device.lookupBuffer(id)
	if err != nil {
		return err
	}
	if offset+uint64(len(dst)) > buf.size {
		return fmt.Errorf("native: read [%d,+%d) beyond buffer size %d", offset, len(dst), buf.size)
	}
	if len(dst) == 0 {
		return nil
	}
	if err := q.WaitIdle(); err != nil {
		return err
	}

	// Copies must be 4-byte aligned in size.
	size := min((uint64(len(dst))+3)&^3, buf.size-offset)
	dev := q.device.device
	staging, err := dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "staging-readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("native: create staging buffer: %w", err)
	}
	defer dev.DestroyBuffer(staging)

	encoder, err := dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "buffer-read-encoder"})
	if err != nil {
		return fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("buffer-read"); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(buf.handle, staging, []hal.BufferCopy{
		{SrcOffset: offset, DstOffset: 0, Size: size},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	defer dev.FreeCommandBuffer(cmdBuf)

	if err := q.submitAndWait(cmdBuf); err != nil {
		return err
	}

	readback := make([]byte, size)
	if err := q.queue.ReadBuffer(staging, 0, readback); err != nil {
		return fmt.Errorf("native: readback: %w", err)
	}
	copy(dst, readback)
	return nil
}

func (q *Queue) submitAndWait(cmdBuf hal.CommandBuffer) error {
	dev := q.device.device
	fence, err := dev.CreateFence()
	if err != nil {
		return fmt.Errorf("native: create fence: %w", err)
	}
	defer dev.DestroyFence(fence)
	if err := q.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	return q.wait(fence)
}

func (q *Queue) wait(fence hal.Fence) error {
	ok, err := q.device.device.Wait(fence, 1, q.timeout)
	if err != nil {
		return fmt.Errorf("native: wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w after %v", ErrWaitTimeout, q.timeout)
	}
	return nil
}

// Submit implements gpucore.Queue. Only command buffers finished by an
// encoder of the same device are accepted.
func (q *Queue) Submit(cmds ...gpucore.CommandBuffer) error {
	if len(cmds) == 0 {
		return nil
	}
	raw := make([]hal.CommandBuffer, 0, len(cmds))
	for _, c := range cmds {
		cb, ok := c.(*CommandBuffer)
		if !ok || cb.device != q.device {
			return ErrForeignCommandBuffer
		}
		if cb.released || cb.raw == nil {
			return fmt.Errorf("native: command buffer %q already released", cb.label)
		}
		raw = append(raw, cb.raw)
	}

	dev := q.device.device
	fence, err := dev.CreateFence()
	if err != nil {
		return fmt.Errorf("native: create fence: %w", err)
	}
	if err := q.queue.Submit(raw, fence, 1); err != nil {
		dev.DestroyFence(fence)
		return fmt.Errorf("native: submit: %w", err)
	}

	q.mu.Lock()
	q.pending = append(q.pending, fence)
	q.mu.Unlock()
	return nil
}

// WaitIdle implements gpucore.Queue.
func (q *Queue) WaitIdle() error {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	var errs []error
	for _, fence := range pending {
		if err := q.wait(fence); err != nil {
			errs = append(errs, err)
		}
		q.device.device.DestroyFence(fence)
	}
	return errors.Join(errs...)
}

// Pending returns the number of submissions not yet waited for.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

var _ gpucore.Queue = (*Queue)(nil)
