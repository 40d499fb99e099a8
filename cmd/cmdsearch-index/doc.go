// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// cmdsearch-index serves a JSONL corpus to cmdsearch palettes over a
// unix socket. It ranks with BM25, applies facet filters, lists users
// for the assignee and reporter pickers, and reloads the corpus when
// the file changes. Prometheus metrics are exposed when
// service.metrics_listen (or --metrics-listen) is set.
package main
