// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package facet

import (
	"regexp"
	"strings"
)

// Term is one inline facet constraint extracted from query text.
type Term struct {
	Facet Facet
	Value string
}

// inlinePattern matches key:value and key:"quoted value". Keys may
// contain hyphens and underscores.
var inlinePattern = regexp.MustCompile(`([\w-]+):("([^"]+)"|(\S+))`)

// dateKey is the inline key for the date range bucket.
const dateKey = "date"

// ExtractInline pulls facet terms such as "status:done",
// "assignee:@ana" or "date:week" out of free text. It returns the
// remaining text with whitespace collapsed, the multi-value terms in
// order of appearance, and the last valid date range (empty when none
// was given). A leading "@" on assignee and reporter values is
// stripped. Terms whose key is not a facet, and date terms with an
// unknown bucket, stay in the text untouched.
func ExtractInline(text string) (remaining string, terms []Term, dateRange DateRange) {
	var kept strings.Builder
	last := 0
	for _, match := range inlinePattern.FindAllStringSubmatchIndex(text, -1) {
		// Only treat the match as a term at a word boundary, so that
		// "http://host:8080" is not parsed as a "http" facet.
		if match[0] > 0 && !isSpace(text[match[0]-1]) {
			continue
		}
		key := strings.ToLower(text[match[2]:match[3]])
		value := ""
		if match[6] >= 0 {
			value = text[match[6]:match[7]]
		} else {
			value = text[match[8]:match[9]]
		}

		if key == dateKey {
			candidate := DateRange(strings.ToLower(value))
			if candidate == "" || !candidate.Valid() {
				continue
			}
			dateRange = candidate
		} else {
			facet := Facet(key)
			if !facet.Valid() {
				continue
			}
			if facet == Assignee || facet == Reporter {
				value = strings.TrimPrefix(value, "@")
			}
			if value == "" {
				continue
			}
			terms = append(terms, Term{Facet: facet, Value: value})
		}

		kept.WriteString(text[last:match[0]])
		kept.WriteByte(' ')
		last = match[1]
	}
	kept.WriteString(text[last:])
	return strings.Join(strings.Fields(kept.String()), " "), terms, dateRange
}

// Apply returns a copy of set with every term added (not toggled) and,
// when dateRange is non-empty, the date bucket replaced. Inline terms
// narrow the selection the user made through the pickers.
func (set Set) Apply(terms []Term, dateRange DateRange) Set {
	result := set.clone()
	for _, term := range terms {
		if !term.Facet.Valid() || term.Value == "" {
			continue
		}
		members := result.values[term.Facet]
		if members == nil {
			members = make(map[string]struct{})
			result.values[term.Facet] = members
		}
		members[term.Value] = struct{}{}
	}
	if dateRange != "" && dateRange.Valid() {
		result.dateRange = dateRange
	}
	return result
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
