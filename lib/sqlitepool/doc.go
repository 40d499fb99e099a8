// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens SQLite databases for cmdsearch's local
// state with one fixed set of pragmas.
//
// It is a thin layer over zombiezen.com/go/sqlite's sqlitex.Pool.
// Callers [Pool.Take] a connection and [Pool.Put] it back, or use
// [Pool.With] which does both. Connections are not safe for concurrent
// use; each goroutine holds its own for the duration of its work.
//
// # Pragmas
//
//   - journal_mode=WAL: a palette process and an index process can read
//     the same file while one of them writes.
//   - synchronous=NORMAL: commits survive a process crash. The stored
//     data (recent selections) is a convenience, not a record of truth.
//   - busy_timeout=5000: wait for a write lock instead of SQLITE_BUSY.
//   - cache_size=-2048: 2 MB page cache per connection.
//   - temp_store=MEMORY.
//
// Schema setup belongs in [Config.OnConnect], which runs once per
// connection after the pragmas.
package sqlitepool
