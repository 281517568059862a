// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputest

import (
	"os"

	"github.com/cogentcore/webgpu/wgpu"
)

// Program is a loaded compute program: the shader module, its entry
// point, and the per-workgroup invocation count it declares.
// The binding-number assignment and constant-block layout are an
// opaque contract between the WorkloadDescriptor and the shader:
// bindings are numbered in descriptor order, the constant block (if
// any) comes last, all in @group(0).
type Program struct {
	// Name is used as the label on device objects.
	Name string

	// Entry is the name of the compute entry point function.
	Entry string

	// LocalSize is the per-workgroup invocation count declared via
	// @workgroup_size in the shader. It scales TotalInvocations and
	// is a contract the harness cannot verify.
	LocalSize int

	module   *wgpu.ShaderModule
	pipeline *wgpu.ComputePipeline
}

// NewProgram compiles the given shader source into a Program on the
// given device. Compilation is performed by the WebGPU runtime;
// failures return an error wrapping [ErrDevice].
func NewProgram(dv *Device, name, src, entry string, localSize int) (*Program, error) {
	if localSize <= 0 {
		return nil, errConfig("program %q has non-positive local size %d", name, localSize)
	}
	md, err := dv.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src},
	})
	if err != nil {
		return nil, errDevice("program %q failed to compile: %v", name, err)
	}
	pl, err := dv.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: name,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     md,
			EntryPoint: entry,
		},
	})
	if err != nil {
		md.Release()
		return nil, errDevice("program %q failed to create pipeline for entry %q: %v", name, entry, err)
	}
	return &Program{Name: name, Entry: entry, LocalSize: localSize, module: md, pipeline: pl}, nil
}

// NewProgramFile loads shader source from the given file, typically
// a composite unit produced by the compose package, and compiles it
// as in [NewProgram].
func NewProgramFile(dv *Device, fname, entry string, localSize int) (*Program, error) {
	b, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	return NewProgram(dv, fname, string(b), entry, localSize)
}

// Release releases the pipeline and shader module.
func (pg *Program) Release() {
	if pg.pipeline != nil {
		pg.pipeline.Release()
		pg.pipeline = nil
	}
	if pg.module != nil {
		pg.module.Release()
		pg.module = nil
	}
}
