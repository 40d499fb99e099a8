// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package searchservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/cmdsearch/lib/codec"
	"github.com/bureau-foundation/cmdsearch/lib/facet"
	"github.com/bureau-foundation/cmdsearch/lib/metrics"
	"github.com/bureau-foundation/cmdsearch/lib/search"
	"github.com/bureau-foundation/cmdsearch/lib/searchindex"
)

// MaxLimit caps the results one search may return. Requests asking
// for more, or for no limit, are clamped.
const MaxLimit = 200

// Backend is what the service exposes. *searchindex.Index satisfies it.
type Backend interface {
	search.Gateway
	search.UserDirectory
	Status() searchindex.Status
}

// HandlerOptions configures Register.
type HandlerOptions struct {
	Logger  *slog.Logger
	Metrics *metrics.Index
}

// Register installs the search, list-users and status actions on
// server, backed by backend.
func Register(server *SocketServer, backend Backend, options HandlerOptions) {
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	h := &handlers{backend: backend, logger: options.Logger, metrics: options.Metrics}
	server.Handle(ActionSearch, h.instrument(ActionSearch, h.search))
	server.Handle(ActionListUsers, h.instrument(ActionListUsers, h.listUsers))
	server.Handle(ActionStatus, h.instrument(ActionStatus, h.status))
}

type handlers struct {
	backend Backend
	logger  *slog.Logger
	metrics *metrics.Index
}

// instrument records request counts and latency per action.
func (h *handlers) instrument(action string, handler ActionFunc) ActionFunc {
	if h.metrics == nil {
		return handler
	}
	return func(ctx context.Context, raw []byte) (any, error) {
		start := time.Now()
		result, err := handler(ctx, raw)
		h.metrics.RequestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		h.metrics.Requests.WithLabelValues(action, outcome).Inc()
		return result, err
	}
}

func (h *handlers) search(ctx context.Context, raw []byte) (any, error) {
	var request SearchRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}
	filters, err := facet.FromSelection(request.Filters)
	if err != nil {
		return nil, fmt.Errorf("invalid search filters: %w", err)
	}
	limit := request.Limit
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}

	response, err := h.backend.Search(ctx, request.Query, filters, limit)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("search request",
		"request_id", request.RequestID,
		"query", request.Query,
		"results", len(response.Results),
	)
	return response, nil
}

func (h *handlers) listUsers(ctx context.Context, _ []byte) (any, error) {
	users, err := h.backend.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []search.User{}
	}
	return users, nil
}

func (h *handlers) status(context.Context, []byte) (any, error) {
	return h.backend.Status(), nil
}
