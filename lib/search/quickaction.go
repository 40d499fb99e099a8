// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
	"github.com/tidwall/jsonc"
)

// QuickAction is a static shortcut offered while the query is empty.
type QuickAction struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`

	// Keystroke is a display hint only, e.g. "g f". The palette does
	// not bind it.
	Keystroke string `json:"keystroke,omitempty"`
}

// DefaultQuickActions is used when no catalog is configured.
var DefaultQuickActions = []QuickAction{
	{ID: "new-feedback", Title: "Create feedback", Description: "Open the feedback form", URL: "/feedback/new", Keystroke: "c f"},
	{ID: "roadmap", Title: "Go to roadmap", URL: "/roadmap", Keystroke: "g r"},
	{ID: "changelog", Title: "Go to changelog", URL: "/changelog", Keystroke: "g c"},
	{ID: "boards", Title: "Go to boards", URL: "/boards", Keystroke: "g b"},
	{ID: "settings", Title: "Open settings", URL: "/settings", Keystroke: "g s"},
}

// ParseQuickActions parses a JSONC catalog: a JSON array of actions
// that may contain comments and trailing commas.
func ParseQuickActions(data []byte) ([]QuickAction, error) {
	stripped := jsonc.ToJSON(data)

	var actions []QuickAction
	if err := json.Unmarshal(stripped, &actions); err != nil {
		return nil, fmt.Errorf("parsing quick actions: %w", err)
	}

	seen := make(map[string]bool, len(actions))
	for index, action := range actions {
		if action.ID == "" {
			return nil, fmt.Errorf("quick action %d: missing id", index)
		}
		if action.Title == "" || action.URL == "" {
			return nil, fmt.Errorf("quick action %q: title and url are required", action.ID)
		}
		if seen[action.ID] {
			return nil, fmt.Errorf("quick action %q: duplicate id", action.ID)
		}
		seen[action.ID] = true
	}
	return actions, nil
}

// LoadQuickActions reads and parses a catalog file.
func LoadQuickActions(path string) ([]QuickAction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading quick actions: %w", err)
	}
	return ParseQuickActions(data)
}

// initMatcher loads fzf's character class tables. Case folding in
// FuzzyMatchV2 reads them, so matching before Init never folds.
var initMatcher = sync.OnceFunc(func() {
	algo.Init("default")
})

// FilterQuickActions ranks actions against pattern with fzf's fuzzy
// matcher over "title description". Non-matching actions are dropped;
// ties keep catalog order. An empty or all-space pattern returns the
// catalog unchanged. Matching is case-insensitive unless pattern
// contains an upper-case letter (fzf's smart case).
func FilterQuickActions(actions []QuickAction, pattern string) []QuickAction {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return actions
	}

	caseSensitive := strings.IndexFunc(pattern, unicode.IsUpper) >= 0
	runes := []rune(pattern)
	if !caseSensitive {
		runes = []rune(strings.ToLower(pattern))
	}
	initMatcher()
	slab := util.MakeSlab(100*1024, 2048)

	type scored struct {
		action QuickAction
		score  int
	}
	var matches []scored
	for _, action := range actions {
		text := action.Title
		if action.Description != "" {
			text += " " + action.Description
		}
		chars := util.ToChars([]byte(text))
		result, _ := algo.FuzzyMatchV2(caseSensitive, false, true, &chars, runes, false, slab)
		if result.Start < 0 {
			continue
		}
		matches = append(matches, scored{action: action, score: result.Score})
	}

	slices.SortStableFunc(matches, func(a, b scored) int {
		return b.score - a.score
	})
	filtered := make([]QuickAction, len(matches))
	for index, match := range matches {
		filtered[index] = match.action
	}
	return filtered
}
