// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/bureau-foundation/cmdsearch/cmd/cmdsearch/cli"
	"github.com/bureau-foundation/cmdsearch/lib/blobstore"
	"github.com/bureau-foundation/cmdsearch/lib/config"
	"github.com/bureau-foundation/cmdsearch/lib/palette"
	"github.com/bureau-foundation/cmdsearch/lib/recency"
	"github.com/bureau-foundation/cmdsearch/lib/search"
	"github.com/bureau-foundation/cmdsearch/lib/searchindex"
	"github.com/bureau-foundation/cmdsearch/lib/searchservice"
)

// recentBlobName is the row the SQLite store keeps the list under.
const recentBlobName = "recent"

// backend is where searches go: an index held in process or the
// index service's socket.
type backend struct {
	gateway search.Gateway
	users   search.UserDirectory

	// local is set for the in-process index.
	local *searchindex.Index

	cancel context.CancelFunc
}

func (b *backend) Close() {
	if b.cancel != nil {
		b.cancel()
	}
}

// openBackend loads corpus in process when it is set (from the flag
// or service.corpus with no socket listening) and otherwise connects
// to the service socket. The in-process index follows the file when
// service.watch is on.
func openBackend(ctx context.Context, cfg *config.Config, corpusFlag string, logger *slog.Logger) (*backend, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	corpusPath := corpusFlag
	if corpusPath == "" && cfg.Service.Corpus != "" && !socketExists(cfg.Service.SocketPath) {
		corpusPath = cfg.Service.Corpus
	}

	if corpusPath == "" {
		if !socketExists(cfg.Service.SocketPath) {
			return nil, cli.NotFound("no index service socket at %s", cfg.Service.SocketPath).
				WithHint("Start cmdsearch-index, or pass --corpus <file> to search in process.")
		}
		client := searchservice.NewClient(cfg.Service.SocketPath)
		return &backend{gateway: client, users: client}, nil
	}

	corpus, err := searchindex.LoadCorpus(corpusPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, cli.NotFound("corpus %s does not exist", corpusPath)
	}
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	index := searchindex.New(corpus, searchindex.Options{Logger: logger})
	result := &backend{gateway: index, users: index, local: index}

	if cfg.WatchCorpus() {
		watchContext, cancel := context.WithCancel(ctx)
		result.cancel = cancel
		go func() {
			if err := searchindex.Watch(watchContext, corpusPath, index, searchindex.WatchOptions{Logger: logger}); err != nil {
				logger.Warn("corpus watch stopped", "path", corpusPath, "error", err)
			}
		}()
	}
	return result, nil
}

func socketExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode()&fs.ModeSocket != 0
}

// openRecentStore builds the persistence collaborator the recent list
// is saved through. The returned function releases it.
func openRecentStore(cfg config.RecentConfig, logger *slog.Logger) (recency.Store, func(), error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	noop := func() {}
	switch cfg.Store {
	case config.StoreMemory:
		return blobstore.NewMemory(), noop, nil

	case config.StoreFile:
		return blobstore.NewFile(cfg.Path), noop, nil

	case config.StoreSQLite:
		store, err := blobstore.OpenSQLite(cfg.Path, recentBlobName, logger)
		if err != nil {
			// Recent items are a convenience; an unreadable database
			// costs the history for this session, not the palette.
			logger.Warn("recent-items database unusable, keeping history in memory",
				"path", cfg.Path,
				"error", err,
			)
			return blobstore.NewMemory(), noop, nil
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing recent-items database", "error", err)
			}
		}, nil

	case config.StoreSealed:
		identity, err := blobstore.LoadOrCreateIdentity(cfg.IdentityFile)
		if err != nil {
			return nil, nil, cli.Validation("recent.identity_file: %w", err)
		}
		return blobstore.NewSealed(blobstore.NewFile(cfg.Path), identity), noop, nil

	default:
		return nil, nil, cli.Validation("unknown recent.store %q", cfg.Store)
	}
}

// loadQuickActions reads the catalog; nil (the built-in list) when
// none is configured.
func loadQuickActions(path string) ([]search.QuickAction, error) {
	if path == "" {
		return nil, nil
	}
	actions, err := search.LoadQuickActions(path)
	if err != nil {
		return nil, cli.Validation("quick_actions.catalog: %w", err)
	}
	return actions, nil
}

func closePolicy(name string) palette.ClosePolicy {
	if name == config.ClosePolicyRestore {
		return palette.CloseRestoreFilters
	}
	return palette.CloseResetFilters
}
