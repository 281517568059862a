// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputest

import (
	"fmt"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
)

// WorkState is the lifecycle state of one Workload.
type WorkState int32

const (
	// Unsubmitted: allocated, host-owned, not yet dispatched.
	Unsubmitted WorkState = iota

	// Submitted: dispatch enqueued; all buffers are device-owned.
	Submitted

	// Completed: the device signaled completion; buffers are back
	// under host ownership and results can be read.
	Completed

	// TimedOut: Wait exceeded its bound. Buffer ownership is
	// indeterminate and no further access is permitted.
	TimedOut

	// Lost: the device aborted mid-execution. Same access
	// prohibition as TimedOut.
	Lost
)

var workStateNames = [...]string{"Unsubmitted", "Submitted", "Completed", "TimedOut", "Lost"}

func (ws WorkState) String() string {
	if ws < 0 || int(ws) >= len(workStateNames) {
		return fmt.Sprintf("WorkState(%d)", int(ws))
	}
	return workStateNames[ws]
}

// IsTerminal reports whether the state ends the workload lifecycle.
func (ws WorkState) IsTerminal() bool {
	return ws >= Completed
}

// Workload is an allocated instance of a WorkloadDescriptor: one
// device buffer per declared binding plus the constant block.
// It is single-use: after a terminal state, build a fresh Workload
// to run again. There is no retry of a failed submit or wait.
type Workload struct {
	// Name comes from the descriptor.
	Name string

	// Descriptor this workload was allocated from; immutable here on.
	Descriptor *WorkloadDescriptor

	state WorkState

	buffers   []*WorkloadBuffer
	bufferMap map[string]*WorkloadBuffer

	// constants is the uniform buffer holding the packed constant
	// block, nil if the descriptor has none.
	constants *wgpu.Buffer

	harness *Harness

	// done is closed by the completion poller started at Submit.
	done chan struct{}
}

// State returns the current lifecycle state.
func (wl *Workload) State() WorkState {
	return wl.state
}

// poison marks the workload with a terminal failure state. The
// device buffers are deliberately not released here: the device may
// still be writing them, and release happens in Release once the
// caller discards the workload.
func (wl *Workload) poison(st WorkState) {
	wl.state = st
	for _, wb := range wl.buffers {
		wb.hostOwned = false
	}
	if wl.harness.current == wl {
		wl.harness.current = nil
	}
}

// Release frees the device buffers for this workload. For a TimedOut
// or Lost workload this waits for the device to go idle first, so
// that in-flight work cannot touch freed memory.
func (wl *Workload) Release() {
	if wl.state == TimedOut || wl.state == Lost {
		wl.harness.Device.WaitDone()
	}
	for _, wb := range wl.buffers {
		wb.release()
	}
	wl.buffers = nil
	wl.bufferMap = nil
	if wl.constants != nil {
		wl.constants.Release()
		wl.constants = nil
	}
	if wl.harness.current == wl {
		wl.harness.current = nil
	}
}

// ExecutionHandle is the single-use token for one submission.
// It is spent once Wait observes a terminal state; any further use
// is a configuration error.
type ExecutionHandle struct {
	workload *Workload
	spent    bool
}

// Workload returns the workload this handle tracks.
func (hd *ExecutionHandle) Workload() *Workload {
	return hd.workload
}

// Harness allocates workloads, dispatches them on the accelerator,
// and blocks for their completion. One workload is in flight at a
// time per harness; the driving goroutine is expected to be single,
// with Wait as the only suspension point.
type Harness struct {
	// GPU is the accelerator context, owned by the harness.
	GPU *GPU

	// Device is the logical device and queue, owned by the harness.
	Device *Device

	// current is the one workload in flight, nil if none.
	current *Workload
}

// NewHarness returns a new Harness with its own GPU context and
// logical device, or an error wrapping [ErrDevice] if no compatible
// accelerator or queue is available.
func NewHarness() (*Harness, error) {
	gp, err := NewGPU()
	if err != nil {
		return nil, err
	}
	dv, err := NewDevice(gp)
	if err != nil {
		gp.Release()
		return nil, err
	}
	return &Harness{GPU: gp, Device: dv}, nil
}

// Release waits for the device to finish and frees it along with
// the GPU context. Workloads must be released first.
func (hs *Harness) Release() {
	if hs.Device != nil {
		hs.Device.Release()
		hs.Device = nil
	}
	if hs.GPU != nil {
		hs.GPU.Release()
		hs.GPU = nil
	}
}

// Allocate validates the descriptor and creates one device buffer
// per declared binding, host-owned and uninitialized, plus the
// uniform buffer for the constant block if present. The returned
// workload is in Unsubmitted state. Allocation rejections return an
// error wrapping [ErrDevice].
func (hs *Harness) Allocate(wd *WorkloadDescriptor) (*Workload, error) {
	if err := wd.Validate(); err != nil {
		return nil, err
	}
	if Debug {
		fmt.Printf("%s\n", wd.StringDoc())
	}
	wl := &Workload{
		Name:       wd.Name,
		Descriptor: wd,
		harness:    hs,
		bufferMap:  make(map[string]*WorkloadBuffer, len(wd.Bindings)),
	}
	for i := range wd.Bindings {
		bd := wd.Bindings[i]
		sz := uint64(bd.MemSize())
		buf, err := hs.Device.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            wd.Name + "." + bd.Name,
			Size:             sz,
			Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			wl.Release()
			return nil, errDevice("allocating buffer %q (%d bytes): %v", bd.Name, sz, err)
		}
		rbuf, err := hs.Device.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            wd.Name + "." + bd.Name + ".read",
			Size:             sz,
			Usage:            wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
			MappedAtCreation: false,
		})
		if err != nil {
			buf.Release()
			wl.Release()
			return nil, errDevice("allocating readback buffer %q (%d bytes): %v", bd.Name, sz, err)
		}
		wb := &WorkloadBuffer{Binding: bd, hostOwned: true, buffer: buf, readBuffer: rbuf, workload: wl}
		wl.buffers = append(wl.buffers, wb)
		wl.bufferMap[bd.Name] = wb
	}
	if blk := wd.constantBlock(); blk != nil {
		cbuf, err := hs.Device.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    wd.Name + ".constants",
			Contents: blk,
			Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			wl.Release()
			return nil, errDevice("allocating constant block (%d bytes): %v", len(blk), err)
		}
		wl.constants = cbuf
	}
	return wl, nil
}

// Submit enqueues the workload's dispatch with the given program,
// transferring ownership of every buffer to the device and returning
// the single-use ExecutionHandle for it. The workload must be
// Unsubmitted and no other workload may be in flight on this
// harness. Buffers that were never written are dispatched with
// uninitialized content; reading such data in the shader is the
// caller's responsibility.
func (hs *Harness) Submit(wl *Workload, pg *Program) (*ExecutionHandle, error) {
	if wl.state != Unsubmitted {
		return nil, errConfig("workload %q is %s; submit requires Unsubmitted", wl.Name, wl.state)
	}
	if hs.current != nil {
		return nil, errConfig("workload %q is still in flight on this harness", hs.current.Name)
	}
	for _, wb := range wl.buffers {
		if wb.viewActive {
			return nil, errConfig("buffer %q has an outstanding view at submit", wb.Binding.Name)
		}
	}
	bg, err := wl.bindGroup(pg)
	if err != nil {
		return nil, err
	}
	defer bg.Release()

	cmd, err := hs.Device.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, errDevice("creating command encoder: %v", err)
	}
	cp := cmd.BeginComputePass(nil)
	cp.SetPipeline(pg.pipeline)
	cp.SetBindGroup(0, bg, nil)
	ex := wl.Descriptor.Extents
	cp.DispatchWorkgroups(uint32(ex[0]), uint32(ex[1]), uint32(ex[2]))
	cp.End()
	cp.Release()
	// all device writes are copied to the readback buffers within
	// the same submission, so a successful Wait makes them mappable.
	for _, wb := range wl.buffers {
		cmd.CopyBufferToBuffer(wb.buffer, 0, wb.readBuffer, 0, uint64(wb.Binding.MemSize()))
	}
	cb, err := cmd.Finish(nil)
	if err != nil {
		cmd.Release()
		return nil, errDevice("encoding dispatch for workload %q: %v", wl.Name, err)
	}
	hs.Device.Queue.Submit(cb)
	cb.Release()
	cmd.Release()

	for _, wb := range wl.buffers {
		wb.hostOwned = false
	}
	wl.state = Submitted
	hs.current = wl
	wl.done = make(chan struct{})
	go func() {
		hs.Device.Device.Poll(true, nil)
		close(wl.done)
	}()
	return &ExecutionHandle{workload: wl}, nil
}

// bindGroup builds the bind group for this workload against the
// program's layout: storage buffers at sequential bindings in
// descriptor order, then the constant block as a uniform.
func (wl *Workload) bindGroup(pg *Program) (*wgpu.BindGroup, error) {
	var entries []wgpu.BindGroupEntry
	for i, wb := range wl.buffers {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(i),
			Buffer:  wb.buffer,
			Offset:  0,
			Size:    wgpu.WholeSize,
		})
	}
	if wl.constants != nil {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(len(wl.buffers)),
			Buffer:  wl.constants,
			Offset:  0,
			Size:    wgpu.WholeSize,
		})
	}
	bg, err := wl.harness.Device.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   wl.Name,
		Layout:  pg.pipeline.GetBindGroupLayout(0),
		Entries: entries,
	})
	if err != nil {
		return nil, errDevice("creating bind group for workload %q: %v", wl.Name, err)
	}
	return bg, nil
}

// Wait blocks the calling goroutine until the accelerator signals
// completion of the handle's workload or the timeout elapses. This
// is the only suspension point in the harness.
//
// On completion, ownership of all buffers transfers back to the
// host, the workload becomes Completed, and Wait returns nil. On
// timeout the workload becomes TimedOut, its buffers permanently
// inaccessible, and Wait returns an error wrapping [ErrTimeout];
// the in-flight device work cannot be cancelled or rolled back.
// The handle is spent once a terminal state is observed; reusing it
// wraps [ErrConfiguration].
func (hs *Harness) Wait(hd *ExecutionHandle, timeout time.Duration) error {
	if hd == nil || hd.workload == nil {
		return errConfig("nil execution handle")
	}
	if hd.spent {
		return errConfig("execution handle for workload %q already observed a terminal state", hd.workload.Name)
	}
	wl := hd.workload
	if wl.state != Submitted {
		return errConfig("workload %q is %s; wait requires Submitted", wl.Name, wl.state)
	}
	select {
	case <-wl.done:
		hd.spent = true
		wl.state = Completed
		for _, wb := range wl.buffers {
			wb.hostOwned = true
		}
		hs.current = nil
		return nil
	case <-time.After(timeout):
		hd.spent = true
		wl.poison(TimedOut)
		return errTimeout("workload %q did not complete in %v", wl.Name, timeout)
	}
}
