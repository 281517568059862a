// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputest

import (
	"math"
)

// Tolerance is the floating-point comparison policy for CheckApprox:
// a device value d passes against host reference h iff
//
//	|d - h| <= Abs + Rel*|h|
//
// The combined absolute+relative form handles both near-zero values
// (Abs) and large magnitudes (Rel). The zero value demands exact
// equality.
type Tolerance struct {
	// Abs is the absolute error bound.
	Abs float64

	// Rel is the relative error bound, scaled by |host|.
	Rel float64
}

// Within reports whether the device value passes against the host
// reference under this tolerance. NaN never passes.
func (tl Tolerance) Within(device, host float64) bool {
	return math.Abs(device-host) <= tl.Abs+tl.Rel*math.Abs(host)
}

// Float is the constraint for floating-point element types.
type Float interface {
	~float32 | ~float64
}

// CheckExact compares every device element against the host
// reference function, in ascending index order, exactly once per
// index. Integer and other bit-exact types require exact equality.
// The first mismatch fails the check, reporting the index and both
// values, wrapping [ErrValidation].
func CheckExact[T comparable](device []T, host func(i int) T) error {
	for i, dv := range device {
		hv := host(i)
		if dv != hv {
			return errValidation("index %d: device %v != host %v", i, dv, hv)
		}
	}
	return nil
}

// CheckApprox compares every floating-point device element against
// the host reference function under the given tolerance, in
// ascending index order, exactly once per index. The first failure
// reports the index and both values, wrapping [ErrValidation].
func CheckApprox[T Float](device []T, host func(i int) T, tol Tolerance) error {
	for i, dv := range device {
		hv := host(i)
		if !tol.Within(float64(dv), float64(hv)) {
			return errValidation("index %d: device %v vs host %v exceeds tolerance (abs %g, rel %g)", i, dv, hv, tol.Abs, tol.Rel)
		}
	}
	return nil
}

// CheckLength verifies the device output has the expected element
// count, typically TotalInvocations. A mismatch usually means the
// program's declared local size disagrees with the one the harness
// was told about. Wraps [ErrValidation].
func CheckLength[T any](device []T, want int) error {
	if len(device) != want {
		return errValidation("device output has %d elements, want %d", len(device), want)
	}
	return nil
}

// CheckLockStep cross-checks a stateful, order-dependent generator:
// the host replica must have been seeded identically to the device,
// and the step function advances it exactly once per invocation
// index, in ascending order, returning that invocation's final state
// words and result.
//
// states is the device-visible state buffer read back after the
// dispatch, stateWords words per invocation; results is the device
// output, one element per invocation. Both the state words and the
// result are compared element-for-element at every index: comparing
// final outputs alone cannot distinguish a seeding or ordering bug
// from agreement. The first divergence fails the check with the
// index and both values, wrapping [ErrValidation].
func CheckLockStep[S, T comparable](states []S, stateWords int, results []T, step func(i int) ([]S, T)) error {
	if stateWords <= 0 {
		return errConfig("lock-step check requires positive state words, got %d", stateWords)
	}
	if len(states) != len(results)*stateWords {
		return errConfig("lock-step check has %d state words for %d results x %d words", len(states), len(results), stateWords)
	}
	for i := range results {
		hs, hr := step(i)
		if len(hs) != stateWords {
			return errConfig("host step returned %d state words at index %d, want %d", len(hs), i, stateWords)
		}
		off := i * stateWords
		for j := 0; j < stateWords; j++ {
			if states[off+j] != hs[j] {
				return errValidation("index %d state word %d: device %v != host %v", i, j, states[off+j], hs[j])
			}
		}
		if results[i] != hr {
			return errValidation("index %d: device %v != host %v", i, results[i], hr)
		}
	}
	return nil
}
