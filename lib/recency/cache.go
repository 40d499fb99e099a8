// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recency

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/bureau-foundation/cmdsearch/lib/clock"
	"github.com/bureau-foundation/cmdsearch/lib/search"
)

// DefaultCapacity is the number of entries kept when Options.Capacity
// is zero.
const DefaultCapacity = 10

// Item is a recently selected result.
type Item struct {
	ID        string            `cbor:"id" json:"id"`
	Title     string            `cbor:"title" json:"title"`
	Type      search.ResultType `cbor:"type" json:"type"`
	URL       string            `cbor:"url" json:"url"`
	Timestamp time.Time         `cbor:"timestamp" json:"timestamp"`
}

// FromResult derives an Item from a selected result.
func FromResult(result search.Result, selectedAt time.Time) Item {
	return Item{
		ID:        result.ID,
		Title:     result.Title,
		Type:      result.Type,
		URL:       result.URL,
		Timestamp: selectedAt,
	}
}

// Store persists the cache blob. Load on a store that has never been
// written returns nil, nil.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Options configures a Cache.
type Options struct {
	// Capacity bounds the list. Zero means DefaultCapacity.
	Capacity int

	// Compression applied to the persisted payload.
	Compression Compression

	// Clock stamps items recorded without a timestamp. Nil means the
	// real clock.
	Clock clock.Clock

	// Logger receives load and save failures. Nil discards them.
	Logger *slog.Logger
}

// Cache is the bounded most-recently-used list. It is safe for
// concurrent use.
type Cache struct {
	store       Store
	compression Compression
	clock       clock.Clock
	logger      *slog.Logger

	mu  sync.Mutex
	lru *simplelru.LRU[string, Item]
}

// Open creates a Cache and populates it from store. Load and decode
// failures produce an empty cache; they are logged, never returned.
// A nil store gives a purely in-memory cache.
func Open(ctx context.Context, store Store, options Options) *Cache {
	capacity := options.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}

	lru, err := simplelru.NewLRU[string, Item](capacity, nil)
	if err != nil {
		// Only possible for a non-positive size, excluded above.
		panic("recency: " + err.Error())
	}

	cache := &Cache{
		store:       store,
		compression: options.Compression,
		clock:       clk,
		logger:      logger,
		lru:         lru,
	}
	cache.load(ctx)
	return cache
}

func (c *Cache) load(ctx context.Context) {
	if c.store == nil {
		return
	}
	data, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Warn("loading recent items failed, starting empty", "error", err)
		return
	}
	if len(data) == 0 {
		return
	}
	items, err := DecodeBlob(data)
	if err != nil {
		c.logger.Warn("recent items blob unreadable, starting empty", "error", err)
		return
	}

	// Stored most recent first; the LRU wants oldest first.
	for _, item := range slices.Backward(items) {
		if item.ID == "" {
			continue
		}
		c.lru.Add(item.ID, item)
	}
	c.logger.Debug("loaded recent items", "count", c.lru.Len())
}

// Record moves item to the front of the list, dropping any older
// entry with the same ID and evicting the oldest entry beyond
// capacity, then persists the list. Items without an ID are ignored.
func (c *Cache) Record(ctx context.Context, item Item) {
	if item.ID == "" {
		return
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = c.clock.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Add on an existing key updates in place and marks it most
	// recent, which is exactly move-to-front.
	if evicted := c.lru.Add(item.ID, item); evicted {
		c.logger.Debug("evicted oldest recent item", "capacity", c.lru.Len())
	}
	c.saveLocked(ctx)
}

// Remove drops id from the list and persists the change. Returns
// whether it was present.
func (c *Cache) Remove(ctx context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lru.Remove(id) {
		return false
	}
	c.saveLocked(ctx)
	return true
}

// Clear empties the list and persists the empty state.
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Purge()
	c.saveLocked(ctx)
}

// List returns every entry, most recent first.
func (c *Cache) List() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listLocked()
}

// Latest returns at most n entries, most recent first.
func (c *Cache) Latest(n int) []Item {
	items := c.List()
	if n >= 0 && len(items) > n {
		items = items[:n]
	}
	return items
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *Cache) listLocked() []Item {
	// Values is oldest first.
	items := c.lru.Values()
	slices.Reverse(items)
	return items
}

func (c *Cache) saveLocked(ctx context.Context) {
	if c.store == nil {
		return
	}
	data, err := EncodeBlob(c.listLocked(), c.compression)
	if err != nil {
		c.logger.Warn("encoding recent items failed", "error", err)
		return
	}
	if err := c.store.Save(ctx, data); err != nil {
		c.logger.Warn("saving recent items failed", "error", err)
	}
}
