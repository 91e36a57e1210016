// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package command records and submits compute command buffers.
//
// A [Buffer] is obtained from the [Pool], recorded into with
// BindPipeline, PushConstants, BindDescriptorSet and Dispatch, and handed
// back with [Pool.Submit]. Submission does not wait; [Pool.Flush] blocks
// until the queue is idle and reclaims the submitted buffers.
//
//	buf, err := cmd.Buffer("blur")
//	...
//	if err := ctx.Dispatch(buf, sig, desc, global, local, params, args); err != nil {
//		return err
//	}
//	if err := cmd.Submit(buf); err != nil {
//		return err
//	}
//
// Any recording error fails the buffer; a failed buffer is never submitted.
package command
