// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputest

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Debug enables verbose logging of harness operations.
var Debug = false

// GPU represents the physical accelerator: the WebGPU instance and
// the selected compute-capable adapter, with its limits.
// It is an explicit context object owned by the Harness and threaded
// through allocate / submit / wait; there are no package singletons.
type GPU struct {
	// Instance is the top-level WebGPU instance.
	Instance *wgpu.Instance

	// Adapter is the selected physical accelerator.
	Adapter *wgpu.Adapter

	// Limits has the properties and alignment factors of the adapter.
	Limits wgpu.SupportedLimits
}

// NewGPU returns a new GPU with the first available adapter,
// or an error wrapping [ErrDevice] if no accelerator is available.
func NewGPU() (*GPU, error) {
	gp := &GPU{}
	gp.Instance = wgpu.CreateInstance(nil)
	if gp.Instance == nil {
		return nil, errDevice("failed to create WebGPU instance")
	}
	ad, err := gp.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, errDevice("no compute adapter available: %v", err)
	}
	gp.Adapter = ad
	gp.Limits = ad.GetLimits()
	return gp, nil
}

// Release releases the adapter and instance.
func (gp *GPU) Release() {
	if gp.Adapter != nil {
		gp.Adapter.Release()
		gp.Adapter = nil
	}
	if gp.Instance != nil {
		gp.Instance.Release()
		gp.Instance = nil
	}
}

// Device holds the logical device and command queue for one Harness.
type Device struct {
	// Device is the logical WebGPU device.
	Device *wgpu.Device

	// Queue is the command queue for this device.
	Queue *wgpu.Queue
}

// NewDevice returns a new logical Device and Queue on given GPU,
// or an error wrapping [ErrDevice] if the runtime rejects it.
func NewDevice(gp *GPU) (*Device, error) {
	dev, err := gp.Adapter.RequestDevice(nil)
	if err != nil {
		return nil, errDevice("failed to create device: %v", err)
	}
	dv := &Device{Device: dev, Queue: dev.GetQueue()}
	return dv, nil
}

// WaitDone blocks until the device is done with all submitted work.
func (dv *Device) WaitDone() {
	dv.Device.Poll(true, nil)
}

// Release releases the device, after waiting for it to finish.
func (dv *Device) Release() {
	if dv.Device == nil {
		return
	}
	dv.WaitDone()
	dv.Queue.Release()
	dv.Device.Release()
	dv.Device = nil
	dv.Queue = nil
}
