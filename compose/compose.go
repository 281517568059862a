// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compose deterministically concatenates ordered shader
// source fragments into one composite compilation unit, inserting
// line directives so that compiler diagnostics map back to the
// original files and lines instead of positions in the generated
// file. The composite is what gets handed to the external shader
// compiler; this package performs no compilation itself.
package compose

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cogentcore.org/core/base/errors"
)

// Error kinds for composition, distinguishable via [errors.Is].
var (
	// ErrNoFragments is returned when Concatenate is called with an
	// empty fragment list. No output file is created.
	ErrNoFragments = errors.New("compose: no fragments to concatenate")

	// ErrIO wraps any file I/O failure: an unreadable fragment or an
	// uncreatable output directory. Composition aborts and the
	// partial attempt is never observable at the output path.
	ErrIO = errors.New("compose: io failure")
)

// Composer concatenates fragments and reports consumed inputs to
// incremental-rebuild tooling. The zero value is ready to use.
type Composer struct {
	// DepWriter, if set, receives one build-dependency notification
	// per consumed fragment: a single line naming the fragment path.
	DepWriter io.Writer

	// OnInput, if set, is called once per consumed fragment with its
	// path. It has no other effect on composition.
	OnInput func(path string)
}

// Concatenate composes the given ordered fragments into the output
// file using a zero-value Composer.
func Concatenate(fragments []string, output string) error {
	return (&Composer{}).Concatenate(fragments, output)
}

// Concatenate writes the first fragment's content verbatim, then for
// each subsequent fragment a single line directive naming that
// fragment's original path and resetting the line counter to 1,
// followed by the fragment's verbatim content:
//
//	#line 1 "path/to/fragment.comp"
//
// So the directive count is one less than the fragment count, and
// directives appear only between fragments, never before the first.
// Given identical fragment lists and contents the output is
// byte-identical across runs, and the whole list is reprocessed on
// every call; there is no partial re-composition.
//
// The composite is written through a temporary file in the output
// directory and renamed into place, so readers never observe the
// partial bytes of a failed attempt.
func (cp *Composer) Concatenate(fragments []string, output string) error {
	if len(fragments) == 0 {
		return ErrNoFragments
	}
	dir := filepath.Dir(output)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("%w: creating output directory %q: %w", ErrIO, dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".compose-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp output in %q: %w", ErrIO, dir, err)
	}
	defer os.Remove(tmp.Name())
	for i, fr := range fragments {
		b, err := os.ReadFile(fr)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("%w: reading fragment %q: %w", ErrIO, fr, err)
		}
		if i > 0 {
			if _, err := fmt.Fprintf(tmp, "#line 1 %q\n", fr); err != nil {
				tmp.Close()
				return fmt.Errorf("%w: writing line directive for %q: %w", ErrIO, fr, err)
			}
		}
		if _, err := tmp.Write(b); err != nil {
			tmp.Close()
			return fmt.Errorf("%w: writing fragment %q: %w", ErrIO, fr, err)
		}
		cp.observe(fr)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing %q: %w", ErrIO, tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), output); err != nil {
		return fmt.Errorf("%w: renaming composite to %q: %w", ErrIO, output, err)
	}
	return nil
}

// observe emits the input-observed notification for one fragment.
func (cp *Composer) observe(path string) {
	if cp.DepWriter != nil {
		fmt.Fprintln(cp.DepWriter, path)
	}
	if cp.OnInput != nil {
		cp.OnInput(path)
	}
}
