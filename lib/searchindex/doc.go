// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package searchindex is an in-process search backend over a JSONL
// corpus. [Index] implements both search.Gateway and
// search.UserDirectory, so the palette can run against it directly or
// through the socket service in lib/searchservice.
//
// The corpus is one JSON object per line. Lines with "kind":"document"
// become searchable results and carry the attributes facet filters
// match against (assignee, reporter, status, priority, project,
// sprint). Lines with "kind":"user" populate the user directory:
//
//	{"kind":"document","id":"fb-12","type":"feedback","title":"SSO login fails","url":"/feedback/12","status":"open","assignee":"ana"}
//	{"kind":"user","id":"ana","display_name":"Ana Lima"}
//
// Ranking is BM25 over title (weight 3) and description (weight 1),
// with search-as-you-type prefix matching on the final query term.
// Facet filters apply before the result limit: an empty facet is no
// constraint, values within a facet are alternatives, and facets
// combine with AND. Inline terms typed into the query ("status:open
// date:week") are extracted and merged into the filters.
//
// [Watch] reloads the corpus when its file changes, coalescing bursts
// of file events through lib/debounce. A corpus that fails to parse
// leaves the previous snapshot serving.
package searchindex
