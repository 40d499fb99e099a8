// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive], [RequireReceiveMatching], [RequireSend] and
// [RequireClosed] wrap the select-with-timeout pattern so tests never
// call time.After directly. They are the only place tests use the
// wall clock; everything else runs on clock.Fake.
//
// [SocketDir] creates a short directory under /tmp for Unix sockets,
// whose paths are limited to 108 bytes.
//
// [UniqueID] returns "prefix-N" identifiers for test disambiguation.
//
// All helpers call t.Fatalf on failure.
package testutil
