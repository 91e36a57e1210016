// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"fmt"

	"github.com/gogpu/compute/gpucore"
)

// Queue is the in-memory queue of a Device.
// Submitted work completes immediately; WaitIdle only logs an OpWait event.
type Queue struct {
	device *Device

	// guarded by device.mu
	submitted  []Submission
	waits      int
	submitFail error
	waitFail   error
}

// Submission is one command buffer as it reached the queue.
type Submission struct {
	Label    string
	Commands []Command
}

// FailNextSubmit makes the next Submit fail with err (ErrInjected if nil).
func (q *Queue) FailNextSubmit(err error) {
	if err == nil {
		err = ErrInjected
	}
	q.device.mu.Lock()
	q.submitFail = err
	q.device.mu.Unlock()
}

// FailNextWait makes the next WaitIdle fail with err (ErrInjected if nil).
func (q *Queue) FailNextWait(err error) {
	if err == nil {
		err = ErrInjected
	}
	q.device.mu.Lock()
	q.waitFail = err
	q.device.mu.Unlock()
}

// WriteBuffer implements gpucore.Queue.
func (q *Queue) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	d := q.device
	d.mu.Lock()
	defer d.mu.Unlock()
	mem, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("recording: write buffer %d: %w", id, gpucore.ErrUnknownObject)
	}
	if offset+uint64(len(data)) > uint64(len(mem)) {
		return fmt.Errorf("recording: write [%d,+%d) out of bounds for buffer of %d bytes", offset, len(data), len(mem))
	}
	copy(mem[offset:], data)
	return nil
}

// ReadBuffer implements gpucore.Queue.
func (q *Queue) ReadBuffer(id gpucore.BufferID, offset uint64, dst []byte) error {
	d := q.device
	d.mu.Lock()
	defer d.mu.Unlock()
	mem, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("recording: read buffer %d: %w", id, gpucore.ErrUnknownObject)
	}
	if offset+uint64(len(dst)) > uint64(len(mem)) {
		return fmt.Errorf("recording: read [%d,+%d) out of bounds for buffer of %d bytes", offset, len(dst), len(mem))
	}
	copy(dst, mem[offset:])
	return nil
}

// Submit implements gpucore.Queue.
func (q *Queue) Submit(cmds ...gpucore.CommandBuffer) error {
	d := q.device
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := q.submitFail; err != nil {
		q.submitFail = nil
		return err
	}
	batch := make([]Submission, 0, len(cmds))
	for _, c := range cmds {
		cb, ok := c.(*CommandBuffer)
		if !ok || cb.device != d {
			return fmt.Errorf("recording: submit foreign command buffer %T", c)
		}
		if _, live := d.live[cb.id]; !live {
			return fmt.Errorf("recording: submit released command buffer %d: %w", cb.id, gpucore.ErrUnknownObject)
		}
		batch = append(batch, Submission{Label: cb.label, Commands: cb.Commands()})
	}
	q.submitted = append(q.submitted, batch...)
	return nil
}

// WaitIdle implements gpucore.Queue.
func (q *Queue) WaitIdle() error {
	d := q.device
	d.mu.Lock()
	defer d.mu.Unlock()
	q.waits++
	d.events = append(d.events, Event{Op: OpWait, Kind: KindQueue})
	if err := q.waitFail; err != nil {
		q.waitFail = nil
		return err
	}
	return nil
}

// Submitted returns every command buffer submitted so far, in order.
func (q *Queue) Submitted() []Submission {
	q.device.mu.Lock()
	defer q.device.mu.Unlock()
	return append([]Submission(nil), q.submitted...)
}

// Waits returns how many times WaitIdle was called.
func (q *Queue) Waits() int {
	q.device.mu.Lock()
	defer q.device.mu.Unlock()
	return q.waits
}

var _ gpucore.Queue = (*Queue)(nil)
