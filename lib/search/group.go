// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package search

// Group is one display section: every result of Type, in the order
// the backend ranked them.
type Group struct {
	Type    ResultType
	Results []Result
}

// GroupByType partitions a ranked list into per-type sections. Groups
// appear in the order their first member appears in results, so the
// best hit's section always comes first. Relative order inside each
// group is preserved. Returns nil for an empty input.
func GroupByType(results []Result) []Group {
	if len(results) == 0 {
		return nil
	}
	var groups []Group
	indexByType := make(map[ResultType]int)
	for _, result := range results {
		index, exists := indexByType[result.Type]
		if !exists {
			index = len(groups)
			indexByType[result.Type] = index
			groups = append(groups, Group{Type: result.Type})
		}
		groups[index].Results = append(groups[index].Results, result)
	}
	return groups
}
