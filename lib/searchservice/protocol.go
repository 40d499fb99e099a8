// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package searchservice

import (
	"github.com/bureau-foundation/cmdsearch/lib/codec"
	"github.com/bureau-foundation/cmdsearch/lib/facet"
)

// Action names.
const (
	ActionSearch    = "search"
	ActionListUsers = "list-users"
	ActionStatus    = "status"
)

// Response is the wire envelope for every answer.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// SearchRequest carries the fields of a "search" action.
type SearchRequest struct {
	Action    string          `cbor:"action"`
	Query     string          `cbor:"query"`
	Filters   facet.Selection `cbor:"filters"`
	Limit     int             `cbor:"limit,omitempty"`
	RequestID string          `cbor:"request_id,omitempty"`
}

// actionRequest is the body of actions that take no parameters.
type actionRequest struct {
	Action string `cbor:"action"`
}
