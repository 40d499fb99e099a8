// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package searchindex

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bureau-foundation/cmdsearch/lib/clock"
	"github.com/bureau-foundation/cmdsearch/lib/debounce"
)

// DefaultReloadDelay coalesces the burst of events a single save
// produces (truncate, several writes, close, or write-temp-and-rename).
const DefaultReloadDelay = 100 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	Clock  clock.Clock
	Delay  time.Duration
	Logger *slog.Logger

	// OnReload, when set, is called after every reload attempt with
	// its error (nil on success).
	OnReload func(error)
}

// Watch reloads the corpus at path into index whenever the file
// changes, until ctx is cancelled. A reload that fails to parse is
// logged and leaves the previous corpus serving.
//
// The parent directory is watched rather than the file: editors and
// atomic writers replace the file with a new inode, which a watch on
// the old inode never sees.
func Watch(ctx context.Context, path string, index *Index, options WatchOptions) error {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Delay <= 0 {
		options.Delay = DefaultReloadDelay
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}

	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving corpus path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating corpus watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(absolutePath)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(absolutePath), err)
	}

	scheduler := debounce.New(options.Clock, options.Delay)
	defer scheduler.Cancel()

	reload := func() {
		if ctx.Err() != nil {
			return
		}
		err := index.reload(absolutePath)
		if err != nil {
			options.Logger.Warn("corpus reload failed, keeping previous snapshot",
				"path", absolutePath,
				"error", err,
			)
		}
		if options.OnReload != nil {
			options.OnReload(err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absolutePath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			scheduler.Schedule(reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			options.Logger.Warn("corpus watcher error", "error", err)
		}
	}
}

// reload parses path and swaps it in, recording the outcome.
func (index *Index) reload(path string) error {
	corpus, err := LoadCorpus(path)
	if err != nil {
		if index.metrics != nil {
			index.metrics.Reloads.WithLabelValues("error").Inc()
		}
		return err
	}
	index.Replace(corpus)
	if index.metrics != nil {
		index.metrics.Reloads.WithLabelValues("ok").Inc()
	}
	return nil
}
