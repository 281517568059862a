// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputest

import (
	"fmt"

	"cogentcore.org/core/base/errors"
)

// Error kinds for the allocate / submit / wait / validate phases.
// Every error returned by this package wraps exactly one of these,
// so callers can report which phase failed via [errors.Is].
var (
	// ErrConfiguration indicates invalid input shape: duplicate or
	// missing binding names, non-positive counts or extents, access
	// in a disallowed state, or reuse of a spent ExecutionHandle.
	// Detected before any device interaction; correct the input and
	// build a fresh workload.
	ErrConfiguration = errors.New("gputest: invalid configuration")

	// ErrDevice indicates the accelerator runtime rejected a request:
	// no compute-capable adapter, or allocation / submission failure.
	ErrDevice = errors.New("gputest: device error")

	// ErrTimeout indicates Wait or an Acquire call exceeded the
	// caller-supplied bound. The affected workload's buffers are
	// permanently inaccessible afterwards.
	ErrTimeout = errors.New("gputest: timeout")

	// ErrLost indicates the accelerator aborted mid-execution.
	// Same access prohibition as ErrTimeout.
	ErrLost = errors.New("gputest: workload lost")

	// ErrValidation indicates a device result diverged from the
	// host reference.
	ErrValidation = errors.New("gputest: validation failed")
)

func errConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func errDevice(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDevice, fmt.Sprintf(format, args...))
}

func errTimeout(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTimeout, fmt.Sprintf(format, args...))
}

func errLost(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLost, fmt.Sprintf(format, args...))
}

func errValidation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
