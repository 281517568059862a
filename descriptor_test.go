// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptorValidate(t *testing.T) {
	wd := NewWorkloadDescriptor("ok")
	wd.AddBinding("prng", Uint32Vector2, 640000)
	wd.AddBinding("result", Uint32, 640000)
	AddConstant(wd, "a", Float32, float32(4))
	AddConstant(wd, "b", Float32, float32(10))
	wd.SetExtents(100, 100, 1)
	assert.NoError(t, wd.Validate())
}

func TestDescriptorValidateFailures(t *testing.T) {
	tests := []struct {
		name string
		wd   *WorkloadDescriptor
	}{
		{"no bindings", NewWorkloadDescriptor("t")},
		{"duplicate binding", NewWorkloadDescriptor("t").
			AddBinding("x", Float32, 4).AddBinding("x", Uint32, 4)},
		{"empty binding name", NewWorkloadDescriptor("t").AddBinding("", Float32, 4)},
		{"zero count", NewWorkloadDescriptor("t").AddBinding("x", Float32, 0)},
		{"negative count", NewWorkloadDescriptor("t").AddBinding("x", Float32, -3)},
		{"undefined type", NewWorkloadDescriptor("t").AddBinding("x", UndefinedType, 4)},
		{"zero extent", NewWorkloadDescriptor("t").
			AddBinding("x", Float32, 4).SetExtents(10, 0, 1)},
		{"negative extent", NewWorkloadDescriptor("t").
			AddBinding("x", Float32, 4).SetExtents(-1, 1, 1)},
		{"duplicate constant", AddConstant(AddConstant(
			NewWorkloadDescriptor("t").AddBinding("x", Float32, 4),
			"a", Float32, float32(1)), "a", Float32, float32(2))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.wd.Validate()
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestDescriptorConstantShape(t *testing.T) {
	wd := NewWorkloadDescriptor("t").AddBinding("x", Float32, 4)
	wd.Constants = append(wd.Constants, Constant{Name: "bad", Type: Float32, Value: []byte{1, 2}})
	assert.ErrorIs(t, wd.Validate(), ErrConfiguration)
}

func TestTotalInvocations(t *testing.T) {
	wd := NewWorkloadDescriptor("t").
		AddBinding("result", Float32, 640000).
		SetExtents(100, 100, 1)
	assert.Equal(t, 640000, wd.TotalInvocations(64))
	assert.Equal(t, 10000, wd.TotalInvocations(1))

	wd.SetExtents(10, 2, 3)
	assert.Equal(t, 10*2*3*8, wd.TotalInvocations(8))
}

func TestConstantBlockLayout(t *testing.T) {
	wd := NewWorkloadDescriptor("t").AddBinding("result", Float32, 8)
	assert.Nil(t, wd.constantBlock())

	AddConstant(wd, "a", Float32, float32(4))
	AddConstant(wd, "b", Float32, float32(10))
	blk := wd.constantBlock()
	// two packed f32 padded to the 16 byte uniform block size
	assert.Equal(t, 16, len(blk))
	a := math.Float32frombits(uint32(blk[0]) | uint32(blk[1])<<8 | uint32(blk[2])<<16 | uint32(blk[3])<<24)
	b := math.Float32frombits(uint32(blk[4]) | uint32(blk[5])<<8 | uint32(blk[6])<<16 | uint32(blk[7])<<24)
	assert.Equal(t, float32(4), a)
	assert.Equal(t, float32(10), b)
}

func TestConstantBlockAlignment(t *testing.T) {
	wd := NewWorkloadDescriptor("t").AddBinding("result", Float32, 8)
	AddConstant(wd, "scale", Float32, float32(2))
	AddConstant(wd, "offsets", Float32Vector4, [4]float32{1, 2, 3, 4})
	blk := wd.constantBlock()
	// vec4 aligns to 16, so the f32 is padded out to offset 16
	assert.Equal(t, 32, len(blk))
}

func TestBindingIndex(t *testing.T) {
	wd := NewWorkloadDescriptor("t").
		AddBinding("prng", Uint32Vector2, 10).
		AddBinding("result", Uint32, 10)
	assert.Equal(t, 0, wd.BindingIndex("prng"))
	assert.Equal(t, 1, wd.BindingIndex("result"))
	assert.Equal(t, -1, wd.BindingIndex("nope"))
}

func TestWarps(t *testing.T) {
	assert.Equal(t, 10000, Warps(640000, 64))
	assert.Equal(t, 3, Warps(17, 8))
	assert.Equal(t, 1, Warps(1, 64))
}

func TestMemSizeAlign(t *testing.T) {
	assert.Equal(t, 16, MemSizeAlign(12, 16))
	assert.Equal(t, 16, MemSizeAlign(16, 16))
	assert.Equal(t, 4, MemSizeAlign(3, 4))
}
