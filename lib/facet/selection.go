// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package facet

import "fmt"

// Selection is the wire and persisted form of a Set: sorted value
// slices per facet. Empty slices are omitted. Used by the search
// service request envelope and by the config file's initial filters.
type Selection struct {
	Assignee  []string  `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	Reporter  []string  `json:"reporter,omitempty" yaml:"reporter,omitempty"`
	Status    []string  `json:"status,omitempty" yaml:"status,omitempty"`
	Priority  []string  `json:"priority,omitempty" yaml:"priority,omitempty"`
	Project   []string  `json:"project,omitempty" yaml:"project,omitempty"`
	Sprint    []string  `json:"sprint,omitempty" yaml:"sprint,omitempty"`
	DateRange DateRange `json:"date_range,omitempty" yaml:"date_range,omitempty"`
}

// Selection converts the set to its wire form.
func (set Set) Selection() Selection {
	selection := Selection{
		Assignee: set.Values(Assignee),
		Reporter: set.Values(Reporter),
		Status:   set.Values(Status),
		Priority: set.Values(Priority),
		Project:  set.Values(Project),
		Sprint:   set.Values(Sprint),
	}
	if set.DateRange() != DateRangeAll {
		selection.DateRange = set.DateRange()
	}
	return selection
}

// FromSelection rebuilds a Set from its wire form. Duplicate values
// collapse; empty values are rejected with ErrEmptyValue and an
// unknown date range with ErrUnknownDateRange.
func FromSelection(selection Selection) (Set, error) {
	set := Set{values: make(map[Facet]map[string]struct{})}
	for facet, values := range selection.byFacet() {
		for _, value := range values {
			if value == "" {
				return Set{}, fmt.Errorf("%s: %w", facet, ErrEmptyValue)
			}
			members := set.values[facet]
			if members == nil {
				members = make(map[string]struct{})
				set.values[facet] = members
			}
			members[value] = struct{}{}
		}
	}
	if !selection.DateRange.Valid() {
		return Set{}, fmt.Errorf("%w: %q", ErrUnknownDateRange, selection.DateRange)
	}
	set.dateRange = selection.DateRange.normalized()
	return set, nil
}

func (selection Selection) byFacet() map[Facet][]string {
	return map[Facet][]string{
		Assignee: selection.Assignee,
		Reporter: selection.Reporter,
		Status:   selection.Status,
		Priority: selection.Priority,
		Project:  selection.Project,
		Sprint:   selection.Sprint,
	}
}
