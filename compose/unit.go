// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compose

// Unit describes one composite compilation unit: an ordered set of
// fragments resolved to a single output path. The common shape for a
// shader test is a header fragment declaring bindings and workgroup
// size, the segments under test, and a main fragment driving them;
// Header and Main are optional so a Unit can also be a plain list.
type Unit struct {
	// Name identifies the unit, e.g., the test shader name.
	Name string

	// Header is the optional first fragment (bindings, constants).
	Header string

	// Segments are the shared source fragments under test, in order.
	Segments []string

	// Main is the optional last fragment (the entry point).
	Main string

	// Output is the path of the composite file to produce.
	Output string
}

// Fragments returns the full ordered fragment list:
// header, segments, main, skipping the optional empties.
func (un *Unit) Fragments() []string {
	fl := make([]string, 0, len(un.Segments)+2)
	if un.Header != "" {
		fl = append(fl, un.Header)
	}
	fl = append(fl, un.Segments...)
	if un.Main != "" {
		fl = append(fl, un.Main)
	}
	return fl
}

// Compose concatenates the unit's fragments into its output file
// using the given composer (nil for defaults).
func (un *Unit) Compose(cp *Composer) error {
	if cp == nil {
		cp = &Composer{}
	}
	return cp.Concatenate(un.Fragments(), un.Output)
}
