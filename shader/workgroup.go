// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import "fmt"

// WorkGroup is a three-dimensional work shape.
//
// As a local shape it is the size of one work group in invocations.
// As a global shape it is the number of elements to process; Groups
// converts it into the group counts passed to the driver.
type WorkGroup struct {
	X, Y, Z uint32
}

// WG is a convenience constructor for a WorkGroup.
func WG(x, y, z uint32) WorkGroup {
	return WorkGroup{X: x, Y: y, Z: z}
}

// Valid reports whether every dimension is non-zero.
func (w WorkGroup) Valid() bool {
	return w.X > 0 && w.Y > 0 && w.Z > 0
}

// Invocations returns X*Y*Z.
func (w WorkGroup) Invocations() uint64 {
	return uint64(w.X) * uint64(w.Y) * uint64(w.Z)
}

// Groups returns the number of work groups of shape local needed to
// cover w elements in each dimension, rounding up.
// Both shapes must be valid.
func (w WorkGroup) Groups(local WorkGroup) WorkGroup {
	return WorkGroup{
		X: divCeil(w.X, local.X),
		Y: divCeil(w.Y, local.Y),
		Z: divCeil(w.Z, local.Z),
	}
}

// Array returns the shape as an [X, Y, Z] array.
func (w WorkGroup) Array() [3]uint32 {
	return [3]uint32{w.X, w.Y, w.Z}
}

// String returns the shape as "{x,y,z}".
func (w WorkGroup) String() string {
	return fmt.Sprintf("{%d,%d,%d}", w.X, w.Y, w.Z)
}

func divCeil(n, d uint32) uint32 {
	return (n + d - 1) / d
}
