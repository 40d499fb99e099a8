// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package palette

import (
	"github.com/bureau-foundation/cmdsearch/lib/facet"
	"github.com/bureau-foundation/cmdsearch/lib/recency"
	"github.com/bureau-foundation/cmdsearch/lib/search"
)

// Status is the result list's lifecycle.
type Status int

const (
	// StatusIdle: nothing searched for the current query (empty,
	// too short, command mode, or waiting out the debounce window).
	StatusIdle Status = iota

	// StatusSearching: a gateway call for the current query is in
	// flight.
	StatusSearching

	// StatusReady: Results holds the answer for the current query.
	StatusReady

	// StatusFailed: the call for the current query failed. Results is
	// empty and Error says why.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSearching:
		return "searching"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is an immutable view of the controller. Slices in a State are
// never modified after publication.
type State struct {
	// Revision increases by one with every published change.
	Revision uint64

	Open    bool
	Query   string
	Filters facet.Set
	Status  Status

	// Results is the accepted server-ranked list; Groups partitions
	// it by type for display.
	Results []search.Result
	Groups  []search.Group

	// Error is the failure message when Status is StatusFailed.
	Error string

	// Recent and QuickActions are populated only for an empty query
	// (QuickActions also in ">" command mode).
	Recent       []recency.Item
	QuickActions []search.QuickAction

	// Users is the cached directory for the assignee and reporter
	// pickers, empty until the first successful fetch.
	Users []search.User

	// UsersError is the last directory fetch failure, cleared by the
	// next successful fetch.
	UsersError string
}

// CommandMode reports whether the query is a ">" quick-action filter.
func (s State) CommandMode() bool {
	return isCommand(s.Query)
}

// ActiveFilters is the badge count for the filter bar.
func (s State) ActiveFilters() int {
	return s.Filters.ActiveCount()
}
