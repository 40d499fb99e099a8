// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package facet

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Facet names one multi-value filter dimension.
type Facet string

const (
	Assignee Facet = "assignee"
	Reporter Facet = "reporter"
	Status   Facet = "status"
	Priority Facet = "priority"
	Project  Facet = "project"
	Sprint   Facet = "sprint"
)

// All lists the multi-value facets in display order.
var All = []Facet{Assignee, Reporter, Status, Priority, Project, Sprint}

// Valid reports whether facet is one of the known multi-value facets.
func (facet Facet) Valid() bool {
	return slices.Contains(All, facet)
}

// DateRange is the single-value creation-date bucket.
type DateRange string

const (
	DateRangeAll     DateRange = "all"
	DateRangeToday   DateRange = "today"
	DateRangeWeek    DateRange = "week"
	DateRangeMonth   DateRange = "month"
	DateRangeQuarter DateRange = "quarter"
)

// DateRanges lists the buckets in display order.
var DateRanges = []DateRange{DateRangeAll, DateRangeToday, DateRangeWeek, DateRangeMonth, DateRangeQuarter}

// Valid reports whether r is a known bucket. The empty string is
// accepted and means DateRangeAll.
func (r DateRange) Valid() bool {
	return r == "" || slices.Contains(DateRanges, r)
}

// normalized maps the empty string to DateRangeAll.
func (r DateRange) normalized() DateRange {
	if r == "" {
		return DateRangeAll
	}
	return r
}

// Since returns the earliest creation time inside the bucket relative
// to now. The second return is false for DateRangeAll (no bound).
// "today" starts at midnight in now's location; the others are
// rolling windows of 7, 30 and 90 days.
func (r DateRange) Since(now time.Time) (time.Time, bool) {
	switch r.normalized() {
	case DateRangeToday:
		year, month, day := now.Date()
		return time.Date(year, month, day, 0, 0, 0, 0, now.Location()), true
	case DateRangeWeek:
		return now.AddDate(0, 0, -7), true
	case DateRangeMonth:
		return now.AddDate(0, 0, -30), true
	case DateRangeQuarter:
		return now.AddDate(0, 0, -90), true
	default:
		return time.Time{}, false
	}
}

var (
	// ErrUnknownFacet is returned when a facet name is not one of All.
	ErrUnknownFacet = errors.New("facet: unknown facet")

	// ErrEmptyValue is returned when toggling an empty value.
	ErrEmptyValue = errors.New("facet: empty value")

	// ErrUnknownDateRange is returned for a date range outside DateRanges.
	ErrUnknownDateRange = errors.New("facet: unknown date range")
)

// Set is the immutable filter state. The zero value is the default.
type Set struct {
	values    map[Facet]map[string]struct{}
	dateRange DateRange
}

// Toggle returns a copy of the set with value's membership in facet
// flipped. Toggling the same value twice yields a set Equal to the
// original.
func (set Set) Toggle(facet Facet, value string) (Set, error) {
	if !facet.Valid() {
		return set, fmt.Errorf("%w: %q", ErrUnknownFacet, facet)
	}
	if value == "" {
		return set, ErrEmptyValue
	}

	result := set.clone()
	members := result.values[facet]
	if _, present := members[value]; present {
		delete(members, value)
		if len(members) == 0 {
			delete(result.values, facet)
		}
		return result, nil
	}

	if members == nil {
		members = make(map[string]struct{})
		result.values[facet] = members
	}
	members[value] = struct{}{}
	return result, nil
}

// WithDateRange returns a copy of the set with the date bucket
// replaced.
func (set Set) WithDateRange(r DateRange) (Set, error) {
	if !r.Valid() {
		return set, fmt.Errorf("%w: %q", ErrUnknownDateRange, r)
	}
	result := set.clone()
	result.dateRange = r.normalized()
	return result, nil
}

// Cleared returns the default set. Present for symmetry with the
// other operations; Set{} is equivalent.
func (Set) Cleared() Set {
	return Set{}
}

// DateRange returns the date bucket, DateRangeAll by default.
func (set Set) DateRange() DateRange {
	return set.dateRange.normalized()
}

// Has reports whether value is selected in facet.
func (set Set) Has(facet Facet, value string) bool {
	_, present := set.values[facet][value]
	return present
}

// Values returns the selected values of facet in sorted order, or nil
// when the facet is unconstrained.
func (set Set) Values(facet Facet) []string {
	members := set.values[facet]
	if len(members) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(members))
}

// Matches reports whether a document attribute passes the facet: an
// empty facet accepts everything, otherwise the value must be one of
// the selected ones.
func (set Set) Matches(facet Facet, value string) bool {
	members := set.values[facet]
	if len(members) == 0 {
		return true
	}
	_, present := members[value]
	return present
}

// ActiveCount is the number of selected values across all facets,
// plus one when the date range is narrower than DateRangeAll.
func (set Set) ActiveCount() int {
	count := 0
	for _, members := range set.values {
		count += len(members)
	}
	if set.DateRange() != DateRangeAll {
		count++
	}
	return count
}

// IsDefault reports whether the set constrains nothing.
func (set Set) IsDefault() bool {
	return set.ActiveCount() == 0
}

// Equal reports per-facet set equality and date range equality.
func (set Set) Equal(other Set) bool {
	if set.DateRange() != other.DateRange() {
		return false
	}
	for _, facet := range All {
		left, right := set.values[facet], other.values[facet]
		if len(left) != len(right) {
			return false
		}
		for value := range left {
			if _, present := right[value]; !present {
				return false
			}
		}
	}
	return true
}

// String renders the active constraints as inline terms, e.g.
// "status:done status:open date:week". Empty for the default set.
func (set Set) String() string {
	var terms []string
	for _, facet := range All {
		for _, value := range set.Values(facet) {
			terms = append(terms, string(facet)+":"+value)
		}
	}
	if set.DateRange() != DateRangeAll {
		terms = append(terms, dateKey+":"+string(set.DateRange()))
	}
	return strings.Join(terms, " ")
}

// clone deep-copies the set so the receiver is never mutated.
func (set Set) clone() Set {
	result := Set{
		values:    make(map[Facet]map[string]struct{}, len(set.values)),
		dateRange: set.dateRange,
	}
	for facet, members := range set.values {
		result.values[facet] = maps.Clone(members)
	}
	return result
}
