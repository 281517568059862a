// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputest

import (
	"time"

	"github.com/cogentcore/webgpu/wgpu"
)

// note: WriteBuffer is the preferred write path, so only reads need
// a mapped host-visible buffer; each binding gets a separate
// readback buffer that the submit encoder copies into.

// WorkloadBuffer is one named, typed, fixed-length memory region of
// a Workload, owned exclusively by either the host or the device at
// any instant. The only legal mutator is the current owner; ownership
// transfers at Submit (host to device) and at a successful Wait
// (device to host).
type WorkloadBuffer struct {
	// Binding describes the buffer: name, element type, length.
	Binding Binding

	// hostOwned is true when the host owns this buffer.
	hostOwned bool

	// viewActive is true while a read or write view is outstanding.
	viewActive bool

	// buffer is the device-local storage buffer bound to the shader.
	buffer *wgpu.Buffer

	// readBuffer is the mappable readback target for this buffer.
	readBuffer *wgpu.Buffer

	workload *Workload
}

func (wb *WorkloadBuffer) release() {
	if wb.buffer != nil {
		wb.buffer.Release()
		wb.buffer = nil
	}
	if wb.readBuffer != nil {
		wb.readBuffer.Release()
		wb.readBuffer = nil
	}
}

// ReadView is a scoped, exclusive, read-only borrow of a buffer's
// contents after a completed dispatch. It is valid only until
// Release, which callers must guarantee on every exit path:
//
//	rv, err := wl.AcquireRead("result", time.Second)
//	if err != nil { ... }
//	defer rv.Release()
type ReadView struct {
	buf      *WorkloadBuffer
	data     []byte
	released bool
}

// Bytes returns the mapped buffer contents. The slice is only valid
// until Release.
func (rv *ReadView) Bytes() []byte {
	return rv.data
}

// Release unmaps the buffer and ends the borrow. Safe to call more
// than once.
func (rv *ReadView) Release() {
	if rv.released {
		return
	}
	rv.released = true
	rv.data = nil
	rv.buf.readBuffer.Unmap()
	rv.buf.viewActive = false
}

// ReadInto copies the contents of a read view into the given slice,
// which must exactly cover the buffer. The copy remains valid after
// Release.
func ReadInto[E any](rv *ReadView, dest []E) error {
	db := wgpu.ToBytes(dest)
	if len(db) != len(rv.data) {
		return errConfig("buffer %q: %d destination bytes, want %d", rv.buf.Binding.Name, len(db), len(rv.data))
	}
	copy(db, rv.data)
	return nil
}

// WriteView is a scoped, exclusive write borrow of a host-owned
// buffer. Data written into it is flushed to the device buffer on
// Release, which callers must guarantee on every exit path (defer).
type WriteView struct {
	buf      *WorkloadBuffer
	data     []byte
	released bool
}

// Bytes returns the staging bytes for the full buffer; write into
// this slice, then Release to flush.
func (wv *WriteView) Bytes() []byte {
	return wv.data
}

// Release flushes the staged bytes to the device buffer via the
// queue and ends the borrow. Safe to call more than once; only the
// first call flushes.
func (wv *WriteView) Release() error {
	if wv.released {
		return nil
	}
	wv.released = true
	wv.buf.viewActive = false
	err := wv.buf.workload.harness.Device.Queue.WriteBuffer(wv.buf.buffer, 0, wv.data)
	if err != nil {
		return errDevice("flushing write view for buffer %q: %v", wv.buf.Binding.Name, err)
	}
	return nil
}

// WriteValues copies the given elements into the write view staging
// bytes, which must exactly fill the buffer.
func WriteValues[E any](wv *WriteView, src []E) error {
	sb := wgpu.ToBytes(src)
	if len(sb) != len(wv.data) {
		return errConfig("buffer %q: %d bytes written, want %d", wv.buf.Binding.Name, len(sb), len(wv.data))
	}
	copy(wv.data, sb)
	return nil
}

// AcquireRead returns a scoped read view of the named buffer.
// The workload must be in Completed state: device results are only
// visible to the host after Wait returns successfully. Acquisition
// blocks up to timeout for the readback mapping to settle, failing
// with [ErrTimeout] (and poisoning the workload) if exceeded.
func (wl *Workload) AcquireRead(name string, timeout time.Duration) (*ReadView, error) {
	wb, err := wl.accessibleBuffer(name, Completed)
	if err != nil {
		return nil, err
	}
	sz := wb.Binding.MemSize()
	var status wgpu.BufferMapAsyncStatus
	done := false
	err = wb.readBuffer.MapAsync(wgpu.MapModeRead, 0, uint64(sz), func(s wgpu.BufferMapAsyncStatus) {
		status = s
		done = true
	})
	if err != nil {
		return nil, errDevice("mapping buffer %q: %v", name, err)
	}
	deadline := time.Now().Add(timeout)
	for !done {
		wl.harness.Device.Device.Poll(false, nil)
		if done {
			break
		}
		if time.Now().After(deadline) {
			wl.poison(TimedOut)
			return nil, errTimeout("mapping buffer %q did not settle in %v", name, timeout)
		}
		time.Sleep(50 * time.Microsecond)
	}
	if status != wgpu.BufferMapAsyncStatusSuccess {
		if status == wgpu.BufferMapAsyncStatusDeviceLost {
			wl.poison(Lost)
			return nil, errLost("device lost while mapping buffer %q", name)
		}
		return nil, errDevice("mapping buffer %q: map status %v", name, status)
	}
	wb.viewActive = true
	data := wb.readBuffer.GetMappedRange(0, uint(sz))
	return &ReadView{buf: wb, data: data}, nil
}

// AcquireWrite returns a scoped write view of the named buffer.
// The workload must be host-owned: Unsubmitted or Completed, never
// Submitted. The view stages a full buffer's worth of bytes
// (initially zero) and flushes on Release. The timeout bounds any
// wait for an outstanding transfer to settle; with the queued write
// path there is none, so acquisition does not block.
func (wl *Workload) AcquireWrite(name string, timeout time.Duration) (*WriteView, error) {
	wb, err := wl.accessibleBuffer(name, Unsubmitted, Completed)
	if err != nil {
		return nil, err
	}
	wb.viewActive = true
	return &WriteView{buf: wb, data: make([]byte, wb.Binding.MemSize())}, nil
}

// accessibleBuffer returns the named buffer after checking that the
// workload is in one of the allowed states, that the buffer is
// host-owned, and that no other view is outstanding. All violations
// wrap [ErrConfiguration], except the permanent TimedOut / Lost
// access prohibition, which reports the terminal state's own kind.
func (wl *Workload) accessibleBuffer(name string, allowed ...WorkState) (*WorkloadBuffer, error) {
	switch wl.state {
	case TimedOut:
		return nil, errTimeout("workload %q timed out; its buffers are permanently inaccessible", wl.Name)
	case Lost:
		return nil, errLost("workload %q was lost; its buffers are permanently inaccessible", wl.Name)
	}
	ok := false
	for _, st := range allowed {
		if wl.state == st {
			ok = true
			break
		}
	}
	if !ok {
		return nil, errConfig("workload %q is %s; buffer access requires one of %v", wl.Name, wl.state, allowed)
	}
	wb, has := wl.bufferMap[name]
	if !has {
		return nil, errConfig("workload %q has no buffer named %q", wl.Name, name)
	}
	if !wb.hostOwned {
		return nil, errConfig("buffer %q is device-owned", name)
	}
	if wb.viewActive {
		return nil, errConfig("buffer %q already has an outstanding view", name)
	}
	return wb, nil
}
