// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package searchindex

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bureau-foundation/cmdsearch/lib/bm25"
	"github.com/bureau-foundation/cmdsearch/lib/clock"
	"github.com/bureau-foundation/cmdsearch/lib/facet"
	"github.com/bureau-foundation/cmdsearch/lib/metrics"
	"github.com/bureau-foundation/cmdsearch/lib/search"
)

// Field weights for ranking.
const (
	titleWeight       = 3
	descriptionWeight = 1
)

// Options configures an Index. Every field is optional.
type Options struct {
	Clock   clock.Clock
	Logger  *slog.Logger
	Metrics *metrics.Index
}

// Status summarizes the loaded corpus.
type Status struct {
	Documents int       `json:"documents"`
	Users     int       `json:"users"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// snapshot is one immutable generation of the index. Searches read a
// snapshot pointer under the lock and work on it without holding it.
type snapshot struct {
	ranking   *bm25.Index
	documents map[string]Document

	// ordered holds documents newest first, for filter-only listings.
	ordered  []Document
	users    []search.User
	loadedAt time.Time
}

// Index serves searches and user listings from an in-memory corpus.
// Safe for concurrent use; Replace swaps the corpus atomically.
type Index struct {
	clock   clock.Clock
	logger  *slog.Logger
	metrics *metrics.Index

	mu      sync.RWMutex
	current *snapshot
}

var (
	_ search.Gateway       = (*Index)(nil)
	_ search.UserDirectory = (*Index)(nil)
)

// New builds an index over corpus.
func New(corpus Corpus, options Options) *Index {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	index := &Index{
		clock:   options.Clock,
		logger:  options.Logger,
		metrics: options.Metrics,
	}
	index.Replace(corpus)
	return index
}

// Replace swaps in a new corpus. In-flight searches finish against the
// snapshot they started with.
func (index *Index) Replace(corpus Corpus) {
	next := build(corpus, index.clock.Now())

	index.mu.Lock()
	index.current = next
	index.mu.Unlock()

	if index.metrics != nil {
		index.metrics.Documents.Set(float64(len(next.ordered)))
		index.metrics.Users.Set(float64(len(next.users)))
	}
	index.logger.Info("search corpus loaded",
		"documents", len(next.ordered),
		"users", len(next.users),
	)
}

func build(corpus Corpus, now time.Time) *snapshot {
	documents := make([]bm25.Document, len(corpus.Documents))
	byID := make(map[string]Document, len(corpus.Documents))
	for i, document := range corpus.Documents {
		documents[i] = bm25.Document{
			Name: document.Result.ID,
			Fields: []bm25.Field{
				{Text: document.Result.Title, Weight: titleWeight},
				{Text: document.Result.Description, Weight: descriptionWeight},
			},
		}
		byID[document.Result.ID] = document
	}

	ordered := slices.Clone(corpus.Documents)
	slices.SortStableFunc(ordered, func(a, b Document) int {
		return b.Result.CreatedAt.Compare(a.Result.CreatedAt)
	})

	users := slices.Clone(corpus.Users)
	slices.SortStableFunc(users, func(a, b search.User) int {
		return cmp.Compare(a.DisplayName, b.DisplayName)
	})

	return &snapshot{
		ranking:   bm25.New(documents),
		documents: byID,
		ordered:   ordered,
		users:     users,
		loadedAt:  now,
	}
}

func (index *Index) snapshot() *snapshot {
	index.mu.RLock()
	defer index.mu.RUnlock()
	return index.current
}

// Search ranks documents against query under filters. Inline facet
// terms in query are extracted and narrow filters further. When no
// free text remains but filters are active, every matching document is
// returned newest first. A non-positive limit means no limit.
func (index *Index) Search(ctx context.Context, query string, filters facet.Set, limit int) (search.Response, error) {
	if err := ctx.Err(); err != nil {
		return search.Response{}, err
	}
	current := index.snapshot()

	text, terms, dateRange := facet.ExtractInline(query)
	filters = filters.Apply(terms, dateRange)
	since, bounded := filters.DateRange().Since(index.clock.Now())

	accept := func(document Document) bool {
		for _, f := range facet.All {
			if !filters.Matches(f, document.Attribute(f)) {
				return false
			}
		}
		return !bounded || !document.Result.CreatedAt.Before(since)
	}

	var results []search.Result
	if len(bm25.Tokenize(text)) == 0 {
		if filters.IsDefault() {
			return search.Response{Results: []search.Result{}}, nil
		}
		for _, document := range current.ordered {
			if !accept(document) {
				continue
			}
			results = append(results, document.Result)
			if limit > 0 && len(results) == limit {
				break
			}
		}
	} else {
		hits := current.ranking.SearchWhere(text, limit, func(name string) bool {
			return accept(current.documents[name])
		})
		results = make([]search.Result, 0, len(hits))
		for _, hit := range hits {
			result := current.documents[hit.Name].Result
			result.RelevanceScore = hit.Score
			results = append(results, result)
		}
	}

	if results == nil {
		results = []search.Result{}
	}
	index.logger.Debug("search served",
		"query", query,
		"filters", filters.String(),
		"results", len(results),
	)
	return search.Response{Results: results}, nil
}

// ListUsers returns the user directory sorted by display name.
func (index *Index) ListUsers(ctx context.Context) ([]search.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(index.snapshot().users), nil
}

// Status reports the size and load time of the current corpus.
func (index *Index) Status() Status {
	current := index.snapshot()
	return Status{
		Documents: len(current.ordered),
		Users:     len(current.users),
		LoadedAt:  current.loadedAt,
	}
}
