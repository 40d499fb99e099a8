// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bm25 ranks documents against free-text queries with Okapi
// BM25.
//
// Documents carry weighted text fields. A field's weight is the
// number of times its tokens are repeated in the document's composite
// token stream, so a title with weight 3 outranks the same words in a
// body with weight 1. This stands in for per-field BM25 and works
// well for corpora of hundreds to tens of thousands of documents.
//
// Search is built for typing: the last query token also matches any
// indexed term it is a prefix of ("authent" finds "authentication"),
// at a discount, so results appear before the user finishes a word.
// Ties are broken by document order, so identical corpora always rank
// identically.
//
// The index is immutable after [New] and safe for concurrent reads.
// Rebuild it to change the corpus.
package bm25
