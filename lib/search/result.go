// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/bureau-foundation/cmdsearch/lib/facet"
)

// ResultType is the entity kind a result points at.
type ResultType string

const (
	TypeFeedback     ResultType = "feedback"
	TypeArticle      ResultType = "article"
	TypeRoadmap      ResultType = "roadmap"
	TypeChangelog    ResultType = "changelog"
	TypeBoard        ResultType = "board"
	TypeOrganization ResultType = "organization"
	TypeWorkItem     ResultType = "work_item"
	TypeUser         ResultType = "user"
)

// ResultTypes lists every known type.
var ResultTypes = []ResultType{
	TypeFeedback, TypeArticle, TypeRoadmap, TypeChangelog,
	TypeBoard, TypeOrganization, TypeWorkItem, TypeUser,
}

// Valid reports whether t is a known result type.
func (t ResultType) Valid() bool {
	return slices.Contains(ResultTypes, t)
}

// Label is the section heading for the type.
func (t ResultType) Label() string {
	switch t {
	case TypeFeedback:
		return "Feedback"
	case TypeArticle:
		return "Articles"
	case TypeRoadmap:
		return "Roadmap"
	case TypeChangelog:
		return "Changelog"
	case TypeBoard:
		return "Boards"
	case TypeOrganization:
		return "Organizations"
	case TypeWorkItem:
		return "Work items"
	case TypeUser:
		return "People"
	default:
		return string(t)
	}
}

// Result is one ranked hit returned by a Gateway.
type Result struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Type           ResultType     `json:"type"`
	URL            string         `json:"url"`
	CreatedAt      time.Time      `json:"created_at"`
	RelevanceScore float64        `json:"relevance_score"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Response is the Gateway's answer: results in server-assigned order.
type Response struct {
	Results []Result `json:"results"`
}

// User is an entry in the directory backing the assignee and
// reporter pickers.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Gateway is the search backend. Implementations may be slow and may
// fail; callers treat every error, including context expiry, as a
// failed search rather than a fatal condition.
type Gateway interface {
	Search(ctx context.Context, query string, filters facet.Set, limit int) (Response, error)
}

// UserDirectory lists the people that can appear in user facets. The
// set changes slowly, so callers fetch it once and cache it.
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]User, error)
}

// Navigator acts on a selected result's URL. The palette never
// navigates by itself.
type Navigator interface {
	GoTo(url string)
}

// NavigatorFunc adapts a plain function to Navigator.
type NavigatorFunc func(url string)

// GoTo calls f(url).
func (f NavigatorFunc) GoTo(url string) { f(url) }

// GatewayFunc adapts a plain function to Gateway.
type GatewayFunc func(ctx context.Context, query string, filters facet.Set, limit int) (Response, error)

// Search calls f.
func (f GatewayFunc) Search(ctx context.Context, query string, filters facet.Set, limit int) (Response, error) {
	return f(ctx, query, filters, limit)
}

// Validate checks the fields every result must carry.
func (result Result) Validate() error {
	if result.ID == "" {
		return fmt.Errorf("search result: missing id")
	}
	if result.Title == "" {
		return fmt.Errorf("search result %s: missing title", result.ID)
	}
	if !result.Type.Valid() {
		return fmt.Errorf("search result %s: unknown type %q", result.ID, result.Type)
	}
	return nil
}
