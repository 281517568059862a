// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gputest

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// xoroshiro128plus is the reference xoroshiro128+ step.
// For reference see: http://xoroshiro.di.unimi.it/xoroshiro128plus.c
func xoroshiro128plus(seed *[2]uint64) uint64 {
	s0 := seed[0]
	s1 := seed[1]
	result := s0 + s1

	s1 ^= s0
	seed[0] = bits.RotateLeft64(s0, 55) ^ s1 ^ (s1 << 14)
	seed[1] = bits.RotateLeft64(s1, 36)

	return result
}

// splitmix64 generates the per-invocation seed stream.
func splitmix64(x *uint64) uint64 {
	*x += 0x9E3779B97F4A7C15
	z := *x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func TestCheckExact(t *testing.T) {
	device := []uint32{0, 3, 6, 9}
	assert.NoError(t, CheckExact(device, func(i int) uint32 { return uint32(3 * i) }))

	device[2] = 7
	err := CheckExact(device, func(i int) uint32 { return uint32(3 * i) })
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorContains(t, err, "index 2")
	assert.ErrorContains(t, err, "7")
	assert.ErrorContains(t, err, "6")
}

func TestCheckExactIteratesAll(t *testing.T) {
	wd := NewWorkloadDescriptor("t").
		AddBinding("result", Uint32, 6400).
		SetExtents(10, 10, 1)
	n := wd.TotalInvocations(64)
	device := make([]uint32, n)
	for i := range device {
		device[i] = uint32(i)
	}
	require.NoError(t, CheckLength(device, n))

	visited := make([]int, n)
	assert.NoError(t, CheckExact(device, func(i int) uint32 {
		visited[i]++
		return uint32(i)
	}))
	for i, v := range visited {
		if v != 1 {
			t.Fatalf("index %d visited %d times", i, v)
		}
	}
}

func TestCheckApprox(t *testing.T) {
	const n = 640000
	const a, b = float32(4), float32(10)
	device := make([]float32, n)
	for i := range device {
		device[i] = a*float32(i) + b
	}
	host := func(i int) float32 { return a*float32(i) + b }
	assert.NoError(t, CheckApprox(device, host, Tolerance{Abs: 1e-4}))

	device[123] += 1
	err := CheckApprox(device, host, Tolerance{Abs: 1e-4})
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorContains(t, err, "index 123")
}

func TestToleranceWithin(t *testing.T) {
	tl := Tolerance{Abs: 1e-4}
	assert.True(t, tl.Within(1.00005, 1.0))
	assert.False(t, tl.Within(1.001, 1.0))

	rl := Tolerance{Rel: 1e-6}
	assert.True(t, rl.Within(1e9+500, 1e9))
	assert.False(t, rl.Within(1e9+2000, 1e9))

	// combined policy covers near-zero and large magnitudes at once
	cb := Tolerance{Abs: 1e-7, Rel: 1e-6}
	assert.True(t, cb.Within(5e-8, 0))
	assert.True(t, cb.Within(1e9+500, 1e9))

	assert.False(t, Tolerance{Abs: 1e10}.Within(nan(), 0))
}

func nan() float64 {
	z := 0.0
	return z / z
}

func TestCheckLength(t *testing.T) {
	assert.NoError(t, CheckLength(make([]float32, 64), 64))
	assert.ErrorIs(t, CheckLength(make([]float32, 63), 64), ErrValidation)
}

func TestCheckLockStep(t *testing.T) {
	const n = 10000
	// fixed seed for the per-invocation seed stream, shared by the
	// simulated device and the host replica
	const streamSeed = uint64(0x853C49E6748FEA9B)

	// device side: seed each invocation from the stream, advance the
	// generator exactly once, record final state and result
	sm := streamSeed
	states := make([]uint64, 2*n)
	results := make([]uint64, n)
	for i := 0; i < n; i++ {
		seed := [2]uint64{splitmix64(&sm), splitmix64(&sm)}
		results[i] = xoroshiro128plus(&seed)
		states[2*i] = seed[0]
		states[2*i+1] = seed[1]
	}

	// host replica: identical seeding, one advance per index
	replica := streamSeed
	step := func(i int) ([]uint64, uint64) {
		seed := [2]uint64{splitmix64(&replica), splitmix64(&replica)}
		r := xoroshiro128plus(&seed)
		return []uint64{seed[0], seed[1]}, r
	}
	assert.NoError(t, CheckLockStep(states, 2, results, step))
}

func TestCheckLockStepDivergence(t *testing.T) {
	const n = 100
	run := func(corrupt func(states []uint64, results []uint64)) error {
		sm := uint64(1)
		states := make([]uint64, 2*n)
		results := make([]uint64, n)
		for i := 0; i < n; i++ {
			seed := [2]uint64{splitmix64(&sm), splitmix64(&sm)}
			results[i] = xoroshiro128plus(&seed)
			states[2*i] = seed[0]
			states[2*i+1] = seed[1]
		}
		corrupt(states, results)
		replica := uint64(1)
		return CheckLockStep(states, 2, results, func(i int) ([]uint64, uint64) {
			seed := [2]uint64{splitmix64(&replica), splitmix64(&replica)}
			r := xoroshiro128plus(&seed)
			return []uint64{seed[0], seed[1]}, r
		})
	}

	err := run(func(states, results []uint64) { states[2*17+1] ^= 1 })
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorContains(t, err, "index 17")
	assert.ErrorContains(t, err, "state word 1")

	// an ordering bug: two invocations swapped must fail at the
	// first of the two, not at the end
	err = run(func(states, results []uint64) {
		results[40], results[41] = results[41], results[40]
		states[80], states[81], states[82], states[83] =
			states[82], states[83], states[80], states[81]
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorContains(t, err, "index 40")

	err = run(func(states, results []uint64) { results[99] ^= 0xDEAD })
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorContains(t, err, "index 99")
}

func TestCheckLockStepShape(t *testing.T) {
	step := func(i int) ([]uint64, uint64) { return []uint64{0, 0}, 0 }
	assert.ErrorIs(t, CheckLockStep(make([]uint64, 5), 2, make([]uint64, 3), step), ErrConfiguration)
	assert.ErrorIs(t, CheckLockStep(make([]uint64, 6), 0, make([]uint64, 3), step), ErrConfiguration)
}
