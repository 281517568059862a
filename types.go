// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputest

// Types is the list of supported element types for workload buffers
// and constants, which can be stored properly aligned in device
// memory and used by the shader code. Note that a Vector3 or other
// 12-byte type is deliberately absent: such types are not properly
// aligned for storage or uniform use under the std430 / WGSL rules.
type Types int32

const (
	UndefinedType Types = iota
	Bool32
	Int32
	Int32Vector2
	Int32Vector4
	Uint32
	Uint32Vector2
	Uint32Vector4
	Float32
	Float32Vector2
	Float32Vector4
)

// TypeSizes gives the data type sizes in bytes.
var TypeSizes = map[Types]int{
	Bool32: 4,

	Int32:        4,
	Int32Vector2: 8,
	Int32Vector4: 16,

	Uint32:        4,
	Uint32Vector2: 8,
	Uint32Vector4: 16,

	Float32:        4,
	Float32Vector2: 8,
	Float32Vector4: 16,
}

var typeNames = map[Types]string{
	UndefinedType:  "Undefined",
	Bool32:         "Bool32",
	Int32:          "Int32",
	Int32Vector2:   "Int32Vector2",
	Int32Vector4:   "Int32Vector4",
	Uint32:         "Uint32",
	Uint32Vector2:  "Uint32Vector2",
	Uint32Vector4:  "Uint32Vector4",
	Float32:        "Float32",
	Float32Vector2: "Float32Vector2",
	Float32Vector4: "Float32Vector4",
}

// Bytes returns the number of bytes for this type.
func (tp Types) Bytes() int {
	return TypeSizes[tp]
}

func (tp Types) String() string {
	if nm, ok := typeNames[tp]; ok {
		return nm
	}
	return "Undefined"
}

// MemSizeAlign returns the size aligned according to align byte
// increments, e.g., if align = 16 and size = 12, it returns 16.
func MemSizeAlign(size, align int) int {
	if size%align == 0 {
		return size
	}
	nb := size / align
	return (nb + 1) * align
}
