// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package blobstore holds single-blob persistence backends for the
// recent-items cache. Each backend stores one opaque byte slice under
// a fixed name and satisfies the same two-method contract:
//
//   - Load returns the last saved bytes, or nil, nil when nothing has
//     been saved yet.
//   - Save replaces the stored bytes.
//
// Backends:
//
//   - [File]: a single file, replaced atomically (temp file, fsync,
//     rename) under an advisory flock so two palette processes sharing
//     a home directory do not interleave writes.
//   - [SQLite]: a row in a small key/value table, for hosts that
//     already keep their state in SQLite.
//   - [Sealed]: wraps another store and encrypts the blob with age to
//     an X25519 identity, for recent items that name private work.
//   - [Memory]: process-local, for tests and --no-persist runs.
package blobstore
