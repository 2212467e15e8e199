package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/exp/slices"
)

// ShaderWatcher reports the names of shader files written in a directory.
// Events are delivered on Changed and drained by the render loop, which owns
// the GL context.
type ShaderWatcher struct {
	Changed <-chan string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

func WatchShaders(dir string) (*ShaderWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("shader watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	changed := make(chan string, 16)
	w := &ShaderWatcher{Changed: changed, watcher: watcher, done: make(chan struct{})}
	go w.run(changed)
	return w, nil
}

func isShaderFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".vert", ".frag":
		return true
	}
	return false
}

func (w *ShaderWatcher) run(changed chan<- string) {
	defer close(w.done)
	defer close(changed)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name := filepath.Base(event.Name)
			if !isShaderFile(name) {
				continue
			}
			select {
			case changed <- name:
			default:
				// a reload is already pending
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("shader watcher", "err", err)
		}
	}
}

// Poll returns the distinct names changed since the last call without
// blocking.
func (w *ShaderWatcher) Poll() []string {
	var names []string
	for {
		select {
		case name, ok := <-w.Changed:
			if !ok {
				return names
			}
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		default:
			return names
		}
	}
}

func (w *ShaderWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
