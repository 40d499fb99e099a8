// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package search defines the vocabulary shared by the palette and its
// collaborators: the ranked [Result], the [Gateway] and
// [UserDirectory] contracts a search backend implements, the
// [Navigator] a host supplies to act on a selection, and the pure
// presentation helpers [GroupByType] and [FilterQuickActions].
//
// Result order is owned by the backend. Nothing in this package, or
// in the palette, re-sorts a result list: grouping only partitions it
// into sections while keeping relative order inside each section.
package search
