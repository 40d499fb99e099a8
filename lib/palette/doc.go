// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package palette implements the command palette's search controller:
// the single owner of the palette's interaction state.
//
// # Dispatch
//
// Every input that should produce a new search (query text, a filter
// toggle, a date range change, clearing filters) increments a dispatch
// token and schedules a debounced closure that captures the query
// text, the filter set and that token. When the closure fires it calls
// the [search.Gateway] on its own goroutine. When the call returns,
// successfully or not, its token is compared with the latest token the
// controller has issued. A mismatch means a newer question has been
// asked since, and the response is dropped without touching state. A
// slow answer to an early keystroke can therefore never overwrite a
// fast answer to a later one.
//
// Queries shorter than [Options.MinQueryLength] never reach the
// gateway. They clear the result list, cancel any pending dispatch and
// invalidate any call still in flight.
//
// Closing the palette, selecting an entry and [Controller.Shutdown]
// invalidate in-flight calls the same way.
//
// # Observation
//
// Hosts learn about state changes through [Options.Observer], called
// synchronously under the controller lock for every state revision,
// in order. Observers receive a [State] value and must not call back
// into the controller. [Controller.Snapshot] returns the current state
// at any time.
//
// # Empty query
//
// An open palette with an empty query shows the most recent selections
// and the quick actions. A query starting with ">" filters the quick
// actions locally and never reaches the gateway.
package palette
