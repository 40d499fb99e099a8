// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the one place cmdsearch configures CBOR.
//
// CBOR carries two things: the search service socket protocol
// (lib/searchservice) and the persisted recency blob (lib/recency).
// JSON stays at the human-facing edges: the corpus file, the quick
// action catalog and log output.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2) so the
// same logical value always produces the same bytes, which the
// recency blob relies on for its digest. Times are encoded as RFC 3339
// strings with nanoseconds so a round trip preserves them exactly.
//
// Types that are only ever CBOR use `cbor` struct tags. Types that are
// also JSON (search results, facet selections) use `json` tags, which
// fxamacker/cbor reads as a fallback. Never put both on one field.
package codec
