// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputest

import (
	"fmt"
	"math"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// Binding declares one named, typed, fixed-length buffer used by a
// workload. Bindings are assigned @binding numbers sequentially in
// the order added, which must match the compiled program.
type Binding struct {
	// Name uniquely identifies this binding within the descriptor.
	Name string

	// Type is the element type of the buffer.
	Type Types

	// Count is the number of elements; must be positive.
	Count int
}

// MemSize returns the total byte size of the buffer for this binding.
func (bd *Binding) MemSize() int {
	return bd.Type.Bytes() * bd.Count
}

func (bd *Binding) String() string {
	return fmt.Sprintf("%s\t%s[%d]\t(size: %d)", bd.Name, bd.Type, bd.Count, bd.MemSize())
}

// Constant is one named, typed value in the optional constant block,
// which is passed to the shader as a single uniform struct with the
// constants laid out in declaration order.
type Constant struct {
	// Name uniquely identifies this constant within the descriptor.
	Name string

	// Type is the value type.
	Type Types

	// Value is the encoded value, exactly Type.Bytes() long.
	Value []byte
}

// WorkloadDescriptor is a validated description of one unit of
// parallel accelerator work: the buffer bindings, the optional
// constant block, and the 3D dispatch extents (workgroup counts).
// It is validated as a whole by [Harness.Allocate] before any
// allocation occurs, and must not be modified afterwards.
type WorkloadDescriptor struct {
	// Name is an optional label used on device objects.
	Name string

	// Bindings in order; @binding numbers follow this order.
	Bindings []Binding

	// Constants in order; empty if the program takes no constants.
	// When present, the block is bound after the last buffer binding.
	Constants []Constant

	// Extents is the number of workgroups dispatched per dimension.
	// All three components must be positive; use 1 for unused ones.
	Extents [3]int
}

// NewWorkloadDescriptor returns a new descriptor with given name
// and 1x1x1 extents.
func NewWorkloadDescriptor(name string) *WorkloadDescriptor {
	return &WorkloadDescriptor{Name: name, Extents: [3]int{1, 1, 1}}
}

// AddBinding appends a buffer binding declaration, returning the
// descriptor for chaining. Validation happens later, all at once.
func (wd *WorkloadDescriptor) AddBinding(name string, typ Types, count int) *WorkloadDescriptor {
	wd.Bindings = append(wd.Bindings, Binding{Name: name, Type: typ, Count: count})
	return wd
}

// SetExtents sets the 3D dispatch extents (workgroup counts).
func (wd *WorkloadDescriptor) SetExtents(x, y, z int) *WorkloadDescriptor {
	wd.Extents = [3]int{x, y, z}
	return wd
}

// AddConstant appends a typed constant to the constant block.
// The value must be a single element of the given type, e.g.,
//
//	AddConstant(wd, "a", Float32, float32(4))
func AddConstant[E any](wd *WorkloadDescriptor, name string, typ Types, value E) *WorkloadDescriptor {
	wd.Constants = append(wd.Constants, Constant{Name: name, Type: typ, Value: wgpu.ToBytes([]E{value})})
	return wd
}

// Validate checks the descriptor shape: unique binding names, unique
// constant names, positive element counts and extents, and constant
// values matching their declared types. Any violation returns an
// error wrapping [ErrConfiguration], before any allocation occurs.
func (wd *WorkloadDescriptor) Validate() error {
	if len(wd.Bindings) == 0 {
		return errConfig("workload %q has no buffer bindings", wd.Name)
	}
	names := map[string]bool{}
	for _, bd := range wd.Bindings {
		if bd.Name == "" {
			return errConfig("workload %q has a binding with an empty name", wd.Name)
		}
		if names[bd.Name] {
			return errConfig("workload %q has duplicate binding name %q", wd.Name, bd.Name)
		}
		names[bd.Name] = true
		if bd.Type.Bytes() == 0 {
			return errConfig("binding %q has undefined type", bd.Name)
		}
		if bd.Count <= 0 {
			return errConfig("binding %q has non-positive element count %d", bd.Name, bd.Count)
		}
	}
	cnames := map[string]bool{}
	for _, ct := range wd.Constants {
		if ct.Name == "" {
			return errConfig("workload %q has a constant with an empty name", wd.Name)
		}
		if cnames[ct.Name] {
			return errConfig("workload %q has duplicate constant name %q", wd.Name, ct.Name)
		}
		cnames[ct.Name] = true
		if ct.Type.Bytes() == 0 {
			return errConfig("constant %q has undefined type", ct.Name)
		}
		if len(ct.Value) != ct.Type.Bytes() {
			return errConfig("constant %q has %d value bytes, want %d", ct.Name, len(ct.Value), ct.Type.Bytes())
		}
	}
	for di, ex := range wd.Extents {
		if ex <= 0 {
			return errConfig("workload %q has non-positive extent %d in dimension %d", wd.Name, ex, di)
		}
	}
	return nil
}

// TotalInvocations returns the total number of shader invocations:
// Extents.x * Extents.y * Extents.z * localSize, where localSize is
// the per-workgroup invocation count declared by the compiled
// program. The descriptor cannot verify localSize itself: a mismatch
// surfaces only as a device error or a wrong-length result.
func (wd *WorkloadDescriptor) TotalInvocations(localSize int) int {
	return wd.Extents[0] * wd.Extents[1] * wd.Extents[2] * localSize
}

// BindingIndex returns the index of the named binding, or -1.
func (wd *WorkloadDescriptor) BindingIndex(name string) int {
	for i := range wd.Bindings {
		if wd.Bindings[i].Name == name {
			return i
		}
	}
	return -1
}

// constantBlock packs the constants into one uniform block in
// declaration order, aligning each value to its own size and padding
// the block to 16 bytes per the WGSL uniform layout rules.
// Returns nil if there are no constants.
func (wd *WorkloadDescriptor) constantBlock() []byte {
	if len(wd.Constants) == 0 {
		return nil
	}
	var blk []byte
	for _, ct := range wd.Constants {
		off := MemSizeAlign(len(blk), ct.Type.Bytes())
		blk = append(blk, make([]byte, off-len(blk))...)
		blk = append(blk, ct.Value...)
	}
	pad := MemSizeAlign(len(blk), 16)
	blk = append(blk, make([]byte, pad-len(blk))...)
	return blk
}

// Warps returns the number of workgroups sufficient to cover n
// elements at the given per-workgroup invocation count:
// Ceil(n / threads). Use for the X extent of 1D workloads.
func Warps(n, threads int) int {
	return int(math.Ceil(float64(n) / float64(threads)))
}

// StringDoc returns a description of the bindings and constants,
// for debugging binding-number contracts with the shader.
func (wd *WorkloadDescriptor) StringDoc() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Workload: %s  dispatch: %d x %d x %d\n", wd.Name, wd.Extents[0], wd.Extents[1], wd.Extents[2])
	for i := range wd.Bindings {
		fmt.Fprintf(&sb, "  @binding(%d)\t%s\n", i, wd.Bindings[i].String())
	}
	for _, ct := range wd.Constants {
		fmt.Fprintf(&sb, "  const\t%s\t%s\n", ct.Name, ct.Type)
	}
	return sb.String()
}
