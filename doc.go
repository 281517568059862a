// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gputest is a harness for testing compute shaders against
// host-computed references. It allocates host-visible buffers per a
// validated WorkloadDescriptor, dispatches the workload on the GPU
// through WebGPU, blocks until completion or timeout, and exposes
// scoped read / write views over the results, which can be compared
// element-for-element against a reference function, including
// lock-step replay of stateful generators such as PRNG streams.
//
// The companion compose package assembles multi-fragment shader
// source into a single compilation unit with location-reset
// directives, so compiler diagnostics map back to the original files.
//
// A workload moves through a fixed state sequence:
//
//	Unsubmitted -> Submitted -> {Completed | TimedOut | Lost}
//
// Each buffer is owned by either the host or the device at any
// instant, never both: Submit transfers ownership to the device,
// a successful Wait transfers it back. TimedOut and Lost are
// terminal: the workload's buffers can never be accessed again,
// and retrying means building a fresh Workload.
package gputest
