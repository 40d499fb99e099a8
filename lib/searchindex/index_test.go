// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package searchindex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bureau-foundation/cmdsearch/lib/clock"
	"github.com/bureau-foundation/cmdsearch/lib/facet"
	"github.com/bureau-foundation/cmdsearch/lib/metrics"
	"github.com/bureau-foundation/cmdsearch/lib/search"
	"github.com/bureau-foundation/cmdsearch/lib/testutil"
)

var now = time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)

const sampleCorpus = `
{"kind":"document","id":"fb-1","type":"feedback","title":"SSO login fails","description":"SAML authentication loops back to the login page","url":"/feedback/1","created_at":"2026-06-10T09:00:00Z","status":"open","priority":"high","assignee":"ana","reporter":"ben","project":"web"}
{"kind":"document","id":"fb-2","type":"feedback","title":"Dark mode","description":"Please add a dark theme","url":"/feedback/2","created_at":"2026-05-01T09:00:00Z","status":"done","priority":"low","assignee":"caio","project":"web"}
{"kind":"document","id":"ar-1","type":"article","title":"Authentication guide","description":"Configure SSO and SAML","url":"/articles/1","created_at":"2026-06-05T09:00:00Z","status":"published","project":"docs"}
{"kind":"document","id":"wi-1","type":"work_item","title":"Fix authentication timeout","description":"Session expires early","url":"/work/1","created_at":"2026-06-09T09:00:00Z","status":"open","priority":"urgent","assignee":"ben","project":"api","sprint":"s24"}

{"kind":"user","id":"ben","display_name":"Ben Okafor"}
{"kind":"user","id":"ana","display_name":"Ana Lima","avatar_url":"/avatars/ana.png"}
{"kind":"user","id":"caio"}
`

func sampleIndex(t *testing.T) *Index {
	t.Helper()
	corpus, err := ParseCorpus(strings.NewReader(sampleCorpus))
	if err != nil {
		t.Fatalf("ParseCorpus: %v", err)
	}
	return New(corpus, Options{Clock: clock.Fake(now)})
}

func ids(response search.Response) []string {
	var out []string
	for _, result := range response.Results {
		out = append(out, result.ID)
	}
	return out
}

func mustToggle(t *testing.T, set facet.Set, f facet.Facet, value string) facet.Set {
	t.Helper()
	next, err := set.Toggle(f, value)
	if err != nil {
		t.Fatalf("Toggle(%s, %s): %v", f, value, err)
	}
	return next
}

func TestParseCorpus(t *testing.T) {
	corpus, err := ParseCorpus(strings.NewReader(sampleCorpus))
	if err != nil {
		t.Fatalf("ParseCorpus: %v", err)
	}
	if len(corpus.Documents) != 4 || len(corpus.Users) != 3 {
		t.Fatalf("got %d documents and %d users, want 4 and 3", len(corpus.Documents), len(corpus.Users))
	}
	first := corpus.Documents[0]
	if first.Attribute(facet.Assignee) != "ana" || first.Attribute(facet.Sprint) != "" {
		t.Errorf("attributes = %v", first.Attributes)
	}
	if corpus.Users[2].DisplayName != "caio" {
		t.Errorf("user without display name = %+v, want id as display name", corpus.Users[2])
	}
}

func TestParseCorpusErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"malformed json", `{"kind":`, "line 1"},
		{"missing id", `{"kind":"user"}`, "missing id"},
		{"unknown kind", `{"kind":"team","id":"x"}`, "unknown kind"},
		{"unknown type", `{"kind":"document","id":"x","title":"t","type":"memo"}`, "unknown type"},
		{"duplicate document", "{\"kind\":\"document\",\"id\":\"x\",\"title\":\"t\",\"type\":\"board\"}\n{\"kind\":\"document\",\"id\":\"x\",\"title\":\"u\",\"type\":\"board\"}", "line 2: duplicate document"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseCorpus(strings.NewReader(test.input))
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("ParseCorpus error = %v, want containing %q", err, test.want)
			}
		})
	}
}

func TestSearchRanksAndScores(t *testing.T) {
	index := sampleIndex(t)
	response, err := index.Search(context.Background(), "authentication", facet.Set{}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	got := ids(response)
	if len(got) != 3 || !slices.Contains(got, "fb-1") {
		t.Fatalf("Search(authentication) = %v, want ar-1, wi-1 and fb-1", got)
	}
	if got[2] != "fb-1" {
		t.Errorf("description-only match ranked %v, want last", got)
	}
	for _, result := range response.Results {
		if result.RelevanceScore <= 0 {
			t.Errorf("%s has score %v, want positive", result.ID, result.RelevanceScore)
		}
	}
}

func TestSearchPrefixWhileTyping(t *testing.T) {
	index := sampleIndex(t)
	response, err := index.Search(context.Background(), "authen", facet.Set{}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(response.Results) != 3 {
		t.Errorf("Search(authen) = %v, want three prefix matches", ids(response))
	}
}

func TestSearchFacetSemantics(t *testing.T) {
	index := sampleIndex(t)
	ctx := context.Background()

	// OR within a facet.
	filters := mustToggle(t, facet.Set{}, facet.Status, "open")
	filters = mustToggle(t, filters, facet.Status, "published")
	response, _ := index.Search(ctx, "authentication", filters, 10)
	if got := ids(response); len(got) != 3 {
		t.Errorf("status open|published = %v, want all three", got)
	}

	// AND across facets.
	filters = mustToggle(t, filters, facet.Project, "api")
	response, _ = index.Search(ctx, "authentication", filters, 10)
	if got := ids(response); !slices.Equal(got, []string{"wi-1"}) {
		t.Errorf("status open|published AND project api = %v, want [wi-1]", got)
	}

	// A selected value no document carries excludes everything.
	filters = mustToggle(t, facet.Set{}, facet.Sprint, "s99")
	response, _ = index.Search(ctx, "authentication", filters, 10)
	if len(response.Results) != 0 {
		t.Errorf("unknown sprint = %v, want none", ids(response))
	}
}

func TestSearchDateRange(t *testing.T) {
	index := sampleIndex(t)
	filters, err := facet.Set{}.WithDateRange(facet.DateRangeToday)
	if err != nil {
		t.Fatalf("WithDateRange: %v", err)
	}
	response, _ := index.Search(context.Background(), "authentication", filters, 10)
	if got := ids(response); !slices.Equal(got, []string{"fb-1"}) {
		t.Errorf("today = %v, want [fb-1]", got)
	}

	filters, _ = facet.Set{}.WithDateRange(facet.DateRangeWeek)
	response, _ = index.Search(context.Background(), "authentication", filters, 10)
	if got := ids(response); len(got) != 3 {
		t.Errorf("week = %v, want all three", got)
	}
}

func TestSearchInlineTerms(t *testing.T) {
	index := sampleIndex(t)
	response, err := index.Search(context.Background(), "authentication assignee:@ben", facet.Set{}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := ids(response); !slices.Equal(got, []string{"wi-1"}) {
		t.Errorf("inline assignee = %v, want [wi-1]", got)
	}
}

func TestSearchFilterOnlyListsNewestFirst(t *testing.T) {
	index := sampleIndex(t)
	response, _ := index.Search(context.Background(), "project:web", facet.Set{}, 10)
	if got := ids(response); !slices.Equal(got, []string{"fb-1", "fb-2"}) {
		t.Errorf("filter-only listing = %v, want [fb-1 fb-2]", got)
	}

	response, _ = index.Search(context.Background(), "  ", facet.Set{}, 10)
	if response.Results == nil || len(response.Results) != 0 {
		t.Errorf("empty query with no filters = %#v, want empty non-nil", response.Results)
	}
}

func TestSearchLimitAppliesAfterFilters(t *testing.T) {
	index := sampleIndex(t)
	filters := mustToggle(t, facet.Set{}, facet.Project, "docs")
	response, _ := index.Search(context.Background(), "sso authentication", filters, 1)
	if got := ids(response); !slices.Equal(got, []string{"ar-1"}) {
		t.Errorf("limit 1 with project docs = %v, want [ar-1]", got)
	}
}

func TestSearchCancelledContext(t *testing.T) {
	index := sampleIndex(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := index.Search(ctx, "sso", facet.Set{}, 10); !errors.Is(err, context.Canceled) {
		t.Errorf("Search error = %v, want context.Canceled", err)
	}
	if _, err := index.ListUsers(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("ListUsers error = %v, want context.Canceled", err)
	}
}

func TestListUsersSortedByDisplayName(t *testing.T) {
	users, err := sampleIndex(t).ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	var names []string
	for _, user := range users {
		names = append(names, user.DisplayName)
	}
	if !slices.Equal(names, []string{"Ana Lima", "Ben Okafor", "caio"}) {
		t.Errorf("users = %v", names)
	}
}

func TestReplaceAndStatus(t *testing.T) {
	registry := prometheus.NewRegistry()
	indexMetrics := metrics.NewIndex(registry)
	fake := clock.Fake(now)
	index := New(Corpus{}, Options{Clock: fake, Metrics: indexMetrics})

	if status := index.Status(); status.Documents != 0 || !status.LoadedAt.Equal(now) {
		t.Errorf("empty status = %+v", status)
	}

	corpus, _ := ParseCorpus(strings.NewReader(sampleCorpus))
	fake.Advance(time.Minute)
	index.Replace(corpus)

	status := index.Status()
	if status.Documents != 4 || status.Users != 3 || !status.LoadedAt.Equal(now.Add(time.Minute)) {
		t.Errorf("status = %+v", status)
	}
	if got := promtest.ToFloat64(indexMetrics.Documents); got != 4 {
		t.Errorf("documents gauge = %v, want 4", got)
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "corpus.jsonl")
	writeCorpus(t, path, `{"kind":"user","id":"ana"}`)

	corpus, err := LoadCorpus(path)
	if err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	registry := prometheus.NewRegistry()
	indexMetrics := metrics.NewIndex(registry)
	index := New(corpus, Options{Metrics: indexMetrics})

	ctx, cancel := context.WithCancel(context.Background())
	reloads := make(chan error, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, index, WatchOptions{
			Delay:    10 * time.Millisecond,
			OnReload: func(err error) { reloads <- err },
		})
	}()
	t.Cleanup(func() {
		cancel()
		testutil.RequireReceive(t, done, 5*time.Second, "waiting for watcher to stop")
	})

	// The watcher may not be registered yet when the first write
	// lands, so keep rewriting until a reload is observed.
	replacement := sampleCorpus
	deadline := time.Now().Add(5 * time.Second)
	for index.Status().Documents != 4 {
		if time.Now().After(deadline) {
			t.Fatal("corpus was not reloaded")
		}
		writeCorpus(t, path, replacement)
		select {
		case err := <-reloads:
			if err != nil {
				t.Fatalf("reload error: %v", err)
			}
		case <-time.After(100 * time.Millisecond):
		}
	}

	// A broken file keeps the previous snapshot.
	writeCorpus(t, path, `{"kind":`)
	err = testutil.RequireReceiveMatching(t, reloads, 5*time.Second,
		func(err error) bool { return err != nil }, "waiting for failed reload")
	if !strings.Contains(err.Error(), "line 1") {
		t.Errorf("reload error = %v", err)
	}
	if index.Status().Documents != 4 {
		t.Errorf("failed reload replaced the corpus: %+v", index.Status())
	}
	if got := promtest.ToFloat64(indexMetrics.Reloads.WithLabelValues("error")); got < 1 {
		t.Errorf("error reloads = %v, want at least 1", got)
	}
}

func writeCorpus(t *testing.T, path, content string) {
	t.Helper()
	temporary := path + ".tmp"
	if err := os.WriteFile(temporary, []byte(content), 0o644); err != nil {
		t.Fatalf("writing corpus: %v", err)
	}
	if err := os.Rename(temporary, path); err != nil {
		t.Fatalf("renaming corpus: %v", err)
	}
}

func TestAttributesCopiedIntoMetadata(t *testing.T) {
	corpus, err := ParseCorpus(strings.NewReader(sampleCorpus))
	if err != nil {
		t.Fatalf("ParseCorpus: %v", err)
	}
	metadata := corpus.Documents[0].Result.Metadata
	if metadata["status"] != "open" || metadata["assignee"] != "ana" {
		t.Errorf("metadata = %v, want facet attributes", metadata)
	}
	if _, present := metadata["sprint"]; present {
		t.Errorf("empty sprint attribute copied: %v", metadata)
	}
}
