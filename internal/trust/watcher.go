// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package trust

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// ALLOW-LIST WATCHER
// =============================================================================

// DefaultDebounce coalesces rapid editor write events into one reload.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads the classifier's allow-list when the backing file changes.
type Watcher struct {
	classifier *Classifier
	path       string
	watcher    *fsnotify.Watcher
	debounce   time.Duration

	mu      sync.Mutex
	pending bool

	ctx    context.Context
	cancel context.CancelFunc

	// OnError receives reload failures; nil errors are never reported.
	OnError func(err error)
}

// NewWatcher creates a watcher for the given allow-list file.
func NewWatcher(classifier *Classifier, path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		classifier: classifier,
		path:       path,
		watcher:    fw,
		debounce:   DefaultDebounce,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Watch starts watching for allow-list changes.
// Watches the parent directory: editors commonly replace files via rename,
// which drops a watch placed on the file itself.
func (w *Watcher) Watch() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	go w.processEvents()
	return nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}

// processEvents handles fsnotify events with debounced reloads.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		}
	}
}

// scheduleReload debounces and triggers a serialized reload.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	if w.pending {
		w.mu.Unlock()
		return
	}
	w.pending = true
	w.mu.Unlock()

	time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		w.pending = false
		w.mu.Unlock()

		select {
		case <-w.ctx.Done():
			return
		default:
		}

		if err := w.classifier.ReloadFromFile(w.path); err != nil {
			w.reportError(err)
		}
	})
}

func (w *Watcher) reportError(err error) {
	if err == nil || w.OnError == nil {
		return
	}
	w.OnError(err)
}
