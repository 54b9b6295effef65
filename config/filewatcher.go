// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher calls a handler whenever one of its watched files is written.
// Editors often replace files instead of writing them, so the containing
// directory is watched and events are filtered by name.
type Watcher struct {
	lock      sync.Mutex
	watcher   *fsnotify.Watcher
	files     map[string]bool
	onChange  func(fileName string)
	closeOnce sync.Once
}

func MakeWatcher(onChange func(fileName string), fileNames ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{watcher: fw, files: make(map[string]bool), onChange: onChange}
	dirs := make(map[string]bool)
	for _, fileName := range fileNames {
		absName, err := filepath.Abs(fileName)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[filepath.ToSlash(absName)] = true
		dirs[filepath.Dir(absName)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run blocks, dispatching events until Close is called.
func (w *Watcher) Run() {
	log.Printf("[config] starting file watcher\n")
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[config] watcher error: %v\n", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
		return
	}
	fileName := filepath.ToSlash(event.Name)
	if absName, err := filepath.Abs(event.Name); err == nil {
		fileName = filepath.ToSlash(absName)
	}
	w.lock.Lock()
	watched := w.files[fileName]
	w.lock.Unlock()
	if !watched {
		return
	}
	w.onChange(event.Name)
}

func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		w.watcher.Close()
		log.Printf("[config] file watcher closed\n")
	})
}
