// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/bureau-foundation/hookd/lib/config"
)

// configWatcher reports changes to the daemon's configuration: the
// loaded file, any file that would be found in its place, and the
// creation of the configuration directory.
type configWatcher struct {
	watcher     *fsnotify.Watcher
	projectRoot string
	source      string
}

func newConfigWatcher(projectRoot, source string) (*configWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &configWatcher{watcher: watcher, projectRoot: projectRoot}
	if source != "" {
		w.source = filepath.Clean(source)
	}

	// Directories are watched rather than files so that editors which
	// replace a file by rename are still seen.
	for _, directory := range w.directories() {
		if err := watcher.Add(directory); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watching %s: %w", directory, err)
		}
	}
	return w, nil
}

func (w *configWatcher) directories() []string {
	var directories []string
	if w.source != "" {
		directories = append(directories, filepath.Dir(w.source))
	}
	configDirectory := filepath.Join(w.projectRoot, config.Directory)
	if info, err := os.Stat(configDirectory); err == nil && info.IsDir() {
		directories = append(directories, configDirectory)
	} else {
		directories = append(directories, w.projectRoot)
	}

	unique := directories[:0]
	seen := make(map[string]bool)
	for _, directory := range directories {
		if !seen[directory] {
			seen[directory] = true
			unique = append(unique, directory)
		}
	}
	return unique
}

// relevant reports whether a change to path affects which
// configuration the daemon would load.
func (w *configWatcher) relevant(path string) bool {
	path = filepath.Clean(path)
	if w.source != "" && path == w.source {
		return true
	}
	if config.IsConfigPath(w.projectRoot, path) {
		return true
	}
	return path == filepath.Join(w.projectRoot, config.Directory)
}

// run returns ErrConfigChanged at the first relevant change, or nil
// when ctx ends.
func (w *configWatcher) run(ctx context.Context, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			if w.relevant(event.Name) {
				logger.Info("configuration changed", "path", event.Name, "op", event.Op.String())
				return ErrConfigChanged
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("configuration watch error", "error", err)
		}
	}
}

func (w *configWatcher) close() {
	w.watcher.Close()
}
