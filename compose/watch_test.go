// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compose

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherRecompose(t *testing.T) {
	dir := t.TempDir()
	f1 := writeFragment(t, dir, "a.comp", "// v1\n")
	f2 := writeFragment(t, dir, "b.comp", "// main\n")
	un := &Unit{
		Name:     "watched",
		Segments: []string{f1, f2},
		Output:   filepath.Join(dir, "unit.comp"),
	}
	require.NoError(t, un.Compose(nil))

	wa, err := NewWatcher(nil)
	require.NoError(t, err)
	composed := make(chan struct{}, 4)
	wa.OnCompose = func(un *Unit) {
		composed <- struct{}{}
	}
	require.NoError(t, wa.Add(un))
	wa.Start()
	defer wa.Close()

	require.NoError(t, os.WriteFile(f1, []byte("// v2\n"), 0666))

	select {
	case <-composed:
	case <-time.After(5 * time.Second):
		t.Fatal("no recomposition after fragment change")
	}
	assert.Eventually(t, func() bool {
		b, err := os.ReadFile(un.Output)
		return err == nil && strings.HasPrefix(string(b), "// v2")
	}, 5*time.Second, 20*time.Millisecond)
}
