// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package watcher invalidates cached status when BUTT's configuration
// file changes on disk.
//
// # Description
//
// BUTT persists stream servers, recording paths, and the command port
// in ~/.buttrc. When the user edits settings through the BUTT UI the
// file is rewritten, and any cached status snapshot may describe a
// connection that no longer exists. The watcher observes the config
// file and clears the cache on change, so the next read reflects the
// new configuration.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/buttbridge/services/bridge/cache"
)

// debounceWindow collapses the burst of events an editor or BUTT
// itself produces for a single save (truncate + write + chmod).
const debounceWindow = 250 * time.Millisecond

// ConfigWatcher clears the status cache when the watched file changes.
type ConfigWatcher struct {
	path  string
	cache *cache.StatusCache
	fsw   *fsnotify.Watcher
}

// New creates a watcher for the given config file path.
//
// The parent directory is watched rather than the file itself:
// editors and BUTT replace the file on save, which would otherwise
// drop the watch after the first change.
func New(configPath string, statusCache *cache.StatusCache) (*ConfigWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(configPath)); err != nil {
		fsw.Close()
		return nil, err
	}
	return &ConfigWatcher{path: configPath, cache: statusCache, fsw: fsw}, nil
}

// Run blocks, processing filesystem events until ctx is cancelled.
func (w *ConfigWatcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	slog.Info("watching butt config", "path", w.path)

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(debounceWindow)
				fire = debounce.C
			} else {
				debounce.Reset(debounceWindow)
			}

		case <-fire:
			debounce = nil
			fire = nil
			slog.Info("butt config changed, clearing status cache", "path", w.path)
			w.cache.InvalidateAll()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", "error", err)
		}
	}
}

// relevant reports whether the event concerns the config file and is a
// content-changing operation.
func (w *ConfigWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return false
	}
	return event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Rename)
}
