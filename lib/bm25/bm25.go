// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bm25

import (
	"math"
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Okapi parameters.
const (
	paramK1      = 1.2
	paramB       = 0.75
	paramEpsilon = 0.25
)

const (
	// prefixDiscount scales the score of a term reached by prefix
	// expansion relative to an exact match.
	prefixDiscount = 0.8

	// maxPrefixExpansions bounds how many vocabulary terms one prefix
	// may expand to. Short prefixes would otherwise touch most of the
	// vocabulary.
	maxPrefixExpansions = 32

	// minTokenLength drops one-character noise tokens.
	minTokenLength = 2
)

// Field is a weighted text field. Weight 0 or below skips the field.
type Field struct {
	Text   string
	Weight int
}

// Document is a named set of weighted fields. Name identifies the
// document in results and is not itself scored.
type Document struct {
	Name   string
	Fields []Field
}

// Result is one ranked hit.
type Result struct {
	Name string

	// Score is unbounded; higher is more relevant.
	Score float64
}

// Index is an immutable BM25 index.
type Index struct {
	documents                []Document
	documentTermFrequencies  []map[string]int
	documentLengths          []int
	averageDocumentLength    float64
	inverseDocumentFrequency map[string]float64

	// vocabulary is every indexed term, sorted, for prefix lookup.
	vocabulary []string
}

// New indexes documents. Construction is linear in the total token
// count.
func New(documents []Document) *Index {
	index := &Index{
		documents:                documents,
		documentTermFrequencies:  make([]map[string]int, len(documents)),
		documentLengths:          make([]int, len(documents)),
		inverseDocumentFrequency: make(map[string]float64),
	}

	documentFrequency := make(map[string]int)
	var totalLength int

	for i, document := range documents {
		tokens := compositeTokens(document)
		index.documentLengths[i] = len(tokens)
		totalLength += len(tokens)

		termFrequency := make(map[string]int)
		for _, token := range tokens {
			if termFrequency[token] == 0 {
				documentFrequency[token]++
			}
			termFrequency[token]++
		}
		index.documentTermFrequencies[i] = termFrequency
	}

	if len(documents) > 0 {
		index.averageDocumentLength = float64(totalLength) / float64(len(documents))
	}

	// Terms present in nearly every document would get a negative
	// IDF; clamp them to a small positive weight instead.
	documentCount := float64(len(documents))
	index.vocabulary = make([]string, 0, len(documentFrequency))
	for term, frequency := range documentFrequency {
		idf := math.Log(1 + (documentCount-float64(frequency)+0.5)/(float64(frequency)+0.5))
		if idf < 0 {
			idf = paramEpsilon
		}
		index.inverseDocumentFrequency[term] = idf
		index.vocabulary = append(index.vocabulary, term)
	}
	sort.Strings(index.vocabulary)

	return index
}

// Len returns the number of indexed documents.
func (index *Index) Len() int {
	return len(index.documents)
}

// Search returns up to limit documents ranked by relevance. A
// non-positive limit returns every match. Returns nil when the query
// has no tokens or nothing matches.
func (index *Index) Search(query string, limit int) []Result {
	return index.SearchWhere(query, limit, nil)
}

// SearchWhere is Search restricted to documents accepted by accept,
// applied before the limit so filtering never starves the result
// list. A nil accept admits every document.
func (index *Index) SearchWhere(query string, limit int, accept func(name string) bool) []Result {
	terms := index.queryTerms(Tokenize(query))
	if len(terms) == 0 {
		return nil
	}

	type scored struct {
		index int
		score float64
	}
	var hits []scored
	for i, document := range index.documents {
		if accept != nil && !accept(document.Name) {
			continue
		}
		if score := index.score(i, terms); score > 0 {
			hits = append(hits, scored{index: i, score: score})
		}
	}

	slices.SortStableFunc(hits, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]Result, len(hits))
	for i, hit := range hits {
		results[i] = Result{Name: index.documents[hit.index].Name, Score: hit.score}
	}
	return results
}

// weightedTerm is a query term with its multiplier: 1 for an exact
// token, prefixDiscount for a prefix expansion.
type weightedTerm struct {
	term   string
	weight float64
}

// queryTerms resolves query tokens to indexed terms. Every token
// matches itself; the last one also expands to the terms it prefixes.
func (index *Index) queryTerms(tokens []string) []weightedTerm {
	if len(tokens) == 0 {
		return nil
	}
	terms := make([]weightedTerm, 0, len(tokens))
	for _, token := range tokens {
		terms = append(terms, weightedTerm{term: token, weight: 1})
	}

	last := tokens[len(tokens)-1]
	start := sort.SearchStrings(index.vocabulary, last)
	expansions := 0
	for _, term := range index.vocabulary[start:] {
		if !strings.HasPrefix(term, last) || expansions == maxPrefixExpansions {
			break
		}
		if term == last {
			continue
		}
		terms = append(terms, weightedTerm{term: term, weight: prefixDiscount})
		expansions++
	}
	return terms
}

func (index *Index) score(documentIndex int, terms []weightedTerm) float64 {
	termFrequency := index.documentTermFrequencies[documentIndex]
	documentLength := float64(index.documentLengths[documentIndex])

	var score float64
	for _, query := range terms {
		frequency := float64(termFrequency[query.term])
		if frequency == 0 {
			continue
		}
		idf := index.inverseDocumentFrequency[query.term]

		// IDF * (tf * (k1 + 1)) / (tf + k1 * (1 - b + b * dl/avgdl))
		numerator := frequency * (paramK1 + 1)
		denominator := frequency + paramK1*(1-paramB+paramB*documentLength/index.averageDocumentLength)
		score += query.weight * idf * numerator / denominator
	}
	return score
}

// compositeTokens repeats each field's tokens by its weight.
func compositeTokens(document Document) []string {
	var tokens []string
	for _, field := range document.Fields {
		if field.Weight <= 0 {
			continue
		}
		fieldTokens := Tokenize(field.Text)
		for range field.Weight {
			tokens = append(tokens, fieldTokens...)
		}
	}
	return tokens
}

// Tokenize lowercases text and splits it into runs of letters and
// digits, dropping runs shorter than two characters.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, field := range fields {
		if utf8.RuneCountInString(field) >= minTokenLength {
			tokens = append(tokens, field)
		}
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}
