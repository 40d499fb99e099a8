// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package recency keeps the palette's list of recently selected
// results.
//
// The [Cache] is bounded (ten entries by default), ordered most recent
// first and deduplicated by result ID: recording an ID that is already
// present moves it to the front instead of adding a second copy. The
// list survives process restarts through a [Store], which sees only an
// opaque blob.
//
// Persistence never fails the caller. A store that cannot be read, or
// a blob that does not decode, yields an empty cache and a warning in
// the log. A failed save is logged and the in-memory list stays
// authoritative until the next successful save.
//
// The blob is a CBOR envelope (see [EncodeBlob]) carrying a format
// version, the compression algorithm, the uncompressed payload size and
// a BLAKE3 digest of the payload. Truncated writes and bit rot surface
// as [ErrCorrupt] instead of as a half-populated list.
package recency
