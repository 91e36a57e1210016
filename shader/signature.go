// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"strings"

	"github.com/gogpu/compute/gpucore"
)

// Signature is the structural description of the bindings a shader
// declares: one binding type per slot, in slot order.
//
// Two signatures with the same types in the same order resolve to the
// same cached descriptor-set layout.
type Signature []gpucore.BindingType

// Sig is a convenience constructor for a Signature.
func Sig(types ...gpucore.BindingType) Signature {
	return Signature(types)
}

// Len returns the number of slots in the signature.
func (s Signature) Len() int {
	return len(s)
}

// Key returns a value-equality key for the signature.
// Equal signatures always produce equal keys.
func (s Signature) Key() string {
	if len(s) == 0 {
		return "()"
	}
	var sb strings.Builder
	sb.WriteByte('(')
	for i, t := range s {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(t.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// String returns the signature key.
func (s Signature) String() string {
	return s.Key()
}

// Validate checks that every slot names a known binding type.
func (s Signature) Validate() error {
	for i, t := range s {
		if !t.Valid() {
			return &SignatureError{Slot: i, Type: t}
		}
	}
	return nil
}

// Entries converts the signature into layout entries, binding i for slot i.
func (s Signature) Entries() []gpucore.BindGroupLayoutEntry {
	entries := make([]gpucore.BindGroupLayoutEntry, len(s))
	for i, t := range s {
		entries[i] = gpucore.BindGroupLayoutEntry{
			Binding: uint32(i), //nolint:gosec // slot count bounded by MaxBindingsPerSet
			Type:    t,
		}
	}
	return entries
}

// Clone returns an independent copy of the signature.
func (s Signature) Clone() Signature {
	if s == nil {
		return nil
	}
	out := make(Signature, len(s))
	copy(out, s)
	return out
}
