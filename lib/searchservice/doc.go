// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package searchservice exposes a search backend on a Unix socket and
// provides the matching client.
//
// The protocol is one CBOR request per connection. The client writes a
// map carrying an "action" field plus action-specific fields, the
// server answers with a [Response] envelope {ok, error, data} and
// closes the connection. CBOR is self-delimiting, so no framing is
// needed. Actions:
//
//   - "search": {query, filters, limit, request_id} → search.Response
//   - "list-users": → []search.User
//   - "status": → searchindex.Status
//
// [Client] implements search.Gateway and search.UserDirectory, so the
// palette talks to a remote index exactly as it would to an in-process
// one. A context deadline on the caller bounds the whole exchange.
package searchservice
