// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package searchindex

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"time"

	"github.com/bureau-foundation/cmdsearch/lib/facet"
	"github.com/bureau-foundation/cmdsearch/lib/search"
)

// Record kinds.
const (
	KindDocument = "document"
	KindUser     = "user"
)

// maxLineSize bounds a single corpus line. Descriptions are expected
// to be summaries, not full documents.
const maxLineSize = 1 << 20

// record is the on-disk shape of one corpus line. Document and user
// fields share the object; Kind says which apply.
type record struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`

	Title       string            `json:"title"`
	Description string            `json:"description"`
	Type        search.ResultType `json:"type"`
	URL         string            `json:"url"`
	CreatedAt   time.Time         `json:"created_at"`
	Metadata    map[string]any    `json:"metadata"`

	Assignee string `json:"assignee"`
	Reporter string `json:"reporter"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Project  string `json:"project"`
	Sprint   string `json:"sprint"`

	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// Document is a searchable result plus the attribute values facet
// filters test. A missing attribute is the empty string.
type Document struct {
	Result     search.Result
	Attributes map[facet.Facet]string
}

// Attribute returns the document's value for a facet.
func (document Document) Attribute(f facet.Facet) string {
	return document.Attributes[f]
}

// Corpus is a parsed corpus file.
type Corpus struct {
	Documents []Document
	Users     []search.User
}

// ParseCorpus reads JSONL records from r. Blank lines are skipped.
// Any malformed line fails the whole parse, with its line number, so
// a half-written file never replaces a good snapshot.
func ParseCorpus(r io.Reader) (Corpus, error) {
	var corpus Corpus
	seenDocuments := make(map[string]struct{})
	seenUsers := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var entry record
		if err := json.Unmarshal(line, &entry); err != nil {
			return Corpus{}, fmt.Errorf("corpus line %d: %w", lineNumber, err)
		}
		if entry.ID == "" {
			return Corpus{}, fmt.Errorf("corpus line %d: missing id", lineNumber)
		}

		switch entry.Kind {
		case KindDocument:
			if _, duplicate := seenDocuments[entry.ID]; duplicate {
				return Corpus{}, fmt.Errorf("corpus line %d: duplicate document %q", lineNumber, entry.ID)
			}
			seenDocuments[entry.ID] = struct{}{}
			document, err := entry.document()
			if err != nil {
				return Corpus{}, fmt.Errorf("corpus line %d: %w", lineNumber, err)
			}
			corpus.Documents = append(corpus.Documents, document)
		case KindUser:
			if _, duplicate := seenUsers[entry.ID]; duplicate {
				return Corpus{}, fmt.Errorf("corpus line %d: duplicate user %q", lineNumber, entry.ID)
			}
			seenUsers[entry.ID] = struct{}{}
			displayName := entry.DisplayName
			if displayName == "" {
				displayName = entry.ID
			}
			corpus.Users = append(corpus.Users, search.User{
				ID:          entry.ID,
				DisplayName: displayName,
				AvatarURL:   entry.AvatarURL,
			})
		default:
			return Corpus{}, fmt.Errorf("corpus line %d: unknown kind %q", lineNumber, entry.Kind)
		}
	}
	if err := scanner.Err(); err != nil {
		return Corpus{}, fmt.Errorf("reading corpus: %w", err)
	}
	return corpus, nil
}

// LoadCorpus parses the corpus file at path.
func LoadCorpus(path string) (Corpus, error) {
	file, err := os.Open(path)
	if err != nil {
		return Corpus{}, fmt.Errorf("opening corpus: %w", err)
	}
	defer file.Close()

	corpus, err := ParseCorpus(file)
	if err != nil {
		return Corpus{}, fmt.Errorf("%s: %w", path, err)
	}
	return corpus, nil
}

func (entry record) document() (Document, error) {
	attributes := map[facet.Facet]string{
		facet.Assignee: entry.Assignee,
		facet.Reporter: entry.Reporter,
		facet.Status:   entry.Status,
		facet.Priority: entry.Priority,
		facet.Project:  entry.Project,
		facet.Sprint:   entry.Sprint,
	}

	// Attributes also travel in the result metadata, keyed by facet
	// name, so clients can offer them as filter values.
	metadata := maps.Clone(entry.Metadata)
	for f, value := range attributes {
		if value == "" {
			continue
		}
		if metadata == nil {
			metadata = make(map[string]any)
		}
		metadata[string(f)] = value
	}

	result := search.Result{
		ID:          entry.ID,
		Title:       entry.Title,
		Description: entry.Description,
		Type:        entry.Type,
		URL:         entry.URL,
		CreatedAt:   entry.CreatedAt,
		Metadata:    metadata,
	}
	if err := result.Validate(); err != nil {
		return Document{}, err
	}
	return Document{Result: result, Attributes: attributes}, nil
}
