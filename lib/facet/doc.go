// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package facet holds the palette's composable filter state.
//
// A [Set] is an immutable value: six multi-value facets (assignee,
// reporter, status, priority, project, sprint) and one single-value
// facet, the [DateRange] bucket. The zero Set is the default state:
// every multi-value facet empty, meaning "no constraint", and the date
// range [DateRangeAll]. Mutating operations return a new Set, so a
// snapshot captured by a debounced closure can never change under it.
//
// [Set.Equal] is set equality per facet plus date range equality. The
// controller uses it to skip rescheduling a search when a filter
// operation did not actually change anything.
//
// [ExtractInline] parses "status:done"-style terms typed directly into
// a query. The reference search index applies them server-side; the
// controller never rewrites the user's text.
package facet
