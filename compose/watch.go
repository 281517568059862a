// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compose

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-composes registered units whenever one of their
// fragments changes on disk. A change always reprocesses the unit's
// full fragment list; there is no incremental composition. Start it
// after registering units and Close it when done.
type Watcher struct {
	// OnCompose, if set, is called after a unit is re-composed.
	OnCompose func(un *Unit)

	// OnError, if set, is called when a re-composition or the
	// underlying filesystem watch fails; otherwise errors are
	// logged. The watcher keeps running either way.
	OnError func(err error)

	comp    *Composer
	watcher *fsnotify.Watcher

	// units by cleaned fragment path; one fragment can feed
	// multiple units.
	units map[string][]*Unit

	done chan struct{}
}

// NewWatcher returns a new Watcher composing through the given
// composer (nil for defaults).
func NewWatcher(cp *Composer) (*Watcher, error) {
	if cp == nil {
		cp = &Composer{}
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{comp: cp, watcher: fw, units: make(map[string][]*Unit)}, nil
}

// Add registers a unit, watching every one of its fragments.
func (wa *Watcher) Add(un *Unit) error {
	for _, fr := range un.Fragments() {
		fr = filepath.Clean(fr)
		if len(wa.units[fr]) == 0 {
			if err := wa.watcher.Add(fr); err != nil {
				return err
			}
		}
		wa.units[fr] = append(wa.units[fr], un)
	}
	return nil
}

// Start begins watching in a background goroutine.
func (wa *Watcher) Start() {
	wa.done = make(chan struct{})
	go wa.run()
}

// Close stops watching. Safe to call once after Start.
func (wa *Watcher) Close() error {
	err := wa.watcher.Close()
	if wa.done != nil {
		<-wa.done
	}
	return err
}

func (wa *Watcher) run() {
	defer close(wa.done)
	for {
		select {
		case ev, ok := <-wa.watcher.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			for _, un := range wa.units[filepath.Clean(ev.Name)] {
				if err := un.Compose(wa.comp); err != nil {
					wa.fail(err)
					continue
				}
				if wa.OnCompose != nil {
					wa.OnCompose(un)
				}
			}
		case err, ok := <-wa.watcher.Errors:
			if !ok {
				return
			}
			wa.fail(err)
		}
	}
}

func (wa *Watcher) fail(err error) {
	if wa.OnError != nil {
		wa.OnError(err)
		return
	}
	slog.Error("compose.Watcher", "err", err)
}
