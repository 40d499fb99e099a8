// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package palette

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bureau-foundation/cmdsearch/lib/facet"
	"github.com/bureau-foundation/cmdsearch/lib/recency"
	"github.com/bureau-foundation/cmdsearch/lib/search"
	"github.com/bureau-foundation/cmdsearch/lib/shortcut"
)

const debounceWindow = 300 * time.Millisecond

func TestNewRequiresGateway(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrNoGateway) {
		t.Errorf("New without gateway: err = %v, want ErrNoGateway", err)
	}
}

func TestShortQueryNeverReachesGateway(t *testing.T) {
	h := newHarness(t, nil)
	h.controller.Open()

	h.controller.SetQuery("a")
	h.clock.Advance(time.Second)

	if got := promtest.ToFloat64(h.metrics.Dispatches); got != 0 {
		t.Fatalf("dispatches = %v after short query, want 0", got)
	}
	if got := promtest.ToFloat64(h.metrics.ShortQueries); got != 1 {
		t.Errorf("short queries = %v, want 1", got)
	}
	if calls := h.gateway.queries(); len(calls) != 0 {
		t.Fatalf("gateway called with %v", calls)
	}

	h.controller.SetQuery("ab")
	h.clock.Advance(debounceWindow - time.Millisecond)
	if got := promtest.ToFloat64(h.metrics.Dispatches); got != 0 {
		t.Fatalf("dispatched before the debounce window elapsed")
	}
	h.clock.Advance(time.Millisecond)
	h.waitCalled("ab")
	h.waitReady("ab")

	if call := h.gateway.lastCall(); call.limit != DefaultLimit {
		t.Errorf("limit = %d, want %d", call.limit, DefaultLimit)
	}
}

func TestShortQueryClearsResultsAndInvalidatesInFlight(t *testing.T) {
	h := newHarness(t, nil)
	h.gateway.set("login", results("login", search.TypeFeedback))
	h.controller.Open()
	h.controller.SetQuery("login")
	h.clock.Advance(debounceWindow)
	h.waitCalled("login")
	h.waitReady("login")

	release := h.gateway.hold("logout")
	h.controller.SetQuery("logout")
	h.clock.Advance(debounceWindow)
	h.waitCalled("logout")

	// Backspacing to one character drops the results and the call.
	h.controller.SetQuery("l")
	state := h.controller.Snapshot()
	if state.Status != StatusIdle || len(state.Results) != 0 {
		t.Errorf("after short query: status %s with %d results, want idle and empty", state.Status, len(state.Results))
	}

	close(release)
	h.controller.Shutdown()
	if got := promtest.ToFloat64(h.metrics.StaleDiscards); got != 1 {
		t.Errorf("stale discards = %v, want 1", got)
	}
	if state := h.controller.Snapshot(); state.Query != "l" || len(state.Results) != 0 {
		t.Errorf("stale response leaked into state: %+v", state)
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	h := newHarness(t, nil)
	h.gateway.set("first", results("first", search.TypeArticle))
	h.gateway.set("second", results("second", search.TypeBoard))
	releaseFirst := h.gateway.hold("first")
	releaseSecond := h.gateway.hold("second")

	h.controller.Open()
	h.controller.SetQuery("first")
	h.clock.Advance(debounceWindow)
	h.waitCalled("first")

	h.controller.SetQuery("second")
	h.clock.Advance(debounceWindow)
	h.waitCalled("second")

	close(releaseSecond)
	state := h.waitReady("second")
	if state.Results[0].ID != "second-a" {
		t.Fatalf("results = %v, want second's", state.Results)
	}

	close(releaseFirst)
	h.controller.Shutdown()

	if got := promtest.ToFloat64(h.metrics.StaleDiscards); got != 1 {
		t.Errorf("stale discards = %v, want 1", got)
	}
	final := h.controller.Snapshot()
	if final.Query != "second" || len(final.Results) != 1 || final.Results[0].ID != "second-a" {
		t.Errorf("final state = %+v, want second's results", final)
	}
	for _, observed := range h.historySnapshot() {
		for _, result := range observed.Results {
			if strings.HasPrefix(result.ID, "first") {
				t.Fatalf("revision %d displayed a stale result %s", observed.Revision, result.ID)
			}
		}
	}
}

func TestStaleFailureIsDiscarded(t *testing.T) {
	h := newHarness(t, nil)
	h.gateway.fail("first", errBackend)
	h.gateway.set("second", results("second", search.TypeBoard))
	releaseFirst := h.gateway.hold("first")

	h.controller.Open()
	h.controller.SetQuery("first")
	h.clock.Advance(debounceWindow)
	h.waitCalled("first")

	h.controller.SetQuery("second")
	h.clock.Advance(debounceWindow)
	h.waitCalled("second")
	h.waitReady("second")

	close(releaseFirst)
	h.controller.Shutdown()

	if got := promtest.ToFloat64(h.metrics.StaleDiscards); got != 1 {
		t.Errorf("stale discards = %v, want 1", got)
	}
	if got := promtest.ToFloat64(h.metrics.Failures); got != 0 {
		t.Errorf("failures = %v, want 0", got)
	}
	final := h.controller.Snapshot()
	if final.Status != StatusReady || final.Error != "" || final.Query != "second" {
		t.Errorf("final state = %+v, want second's results without error", final)
	}
	for _, observed := range h.historySnapshot() {
		if observed.Status == StatusFailed {
			t.Fatalf("revision %d showed a stale failure: %q", observed.Revision, observed.Error)
		}
	}
}

// Typing "auth" then "authentication" inside one debounce window sends
// only the second query.
func TestTypingBurstSendsOnlyLastQuery(t *testing.T) {
	h := newHarness(t, nil)
	h.gateway.set("auth", results("auth", search.TypeArticle))
	h.gateway.set("authentication", results("authn", search.TypeArticle, search.TypeFeedback))
	h.gateway.delay("auth", 500*time.Millisecond)
	h.gateway.delay("authentication", 100*time.Millisecond)

	h.controller.Open()
	h.controller.SetQuery("auth")
	h.clock.Advance(100 * time.Millisecond)
	h.controller.SetQuery("authentication")

	h.clock.Advance(debounceWindow)
	h.waitCalled("authentication")
	h.clock.WaitForTimers(1)
	h.clock.Advance(100 * time.Millisecond)
	state := h.waitReady("authentication")

	if len(state.Results) != 2 || state.Results[0].ID != "authn-a" {
		t.Errorf("results = %v, want authentication's", state.Results)
	}
	h.clock.Advance(time.Second)
	if queries := h.gateway.queries(); !slices.Equal(queries, []string{"authentication"}) {
		t.Errorf("gateway queries = %v, want only [authentication]", queries)
	}
}

// "auth" is already in flight (500ms) when "authentication" is sent
// (100ms). The later, faster answer wins and the slow one never
// appears, not even for one revision.
func TestSlowEarlierResponseNeverOverwritesLaterOne(t *testing.T) {
	h := newHarness(t, nil)
	h.gateway.set("auth", results("auth", search.TypeArticle))
	h.gateway.set("authentication", results("authn", search.TypeArticle, search.TypeFeedback))
	h.gateway.delay("auth", 500*time.Millisecond)
	h.gateway.delay("authentication", 100*time.Millisecond)

	h.controller.Open()
	h.controller.SetQuery("auth")
	h.clock.Advance(debounceWindow) // t=300: auth in flight until t=800
	h.waitCalled("auth")
	h.clock.WaitForTimers(1)

	h.controller.SetQuery("authentication")
	h.clock.Advance(debounceWindow) // t=600: authentication in flight until t=700
	h.waitCalled("authentication")
	h.clock.WaitForTimers(2)

	h.clock.Advance(100 * time.Millisecond) // t=700
	h.waitReady("authentication")

	h.clock.Advance(100 * time.Millisecond) // t=800: auth arrives
	h.controller.Shutdown()

	if got := promtest.ToFloat64(h.metrics.StaleDiscards); got != 1 {
		t.Errorf("stale discards = %v, want 1", got)
	}
	for _, observed := range h.historySnapshot() {
		for _, result := range observed.Results {
			if strings.HasPrefix(result.ID, "auth-") {
				t.Fatalf("revision %d displayed %s from the superseded query", observed.Revision, result.ID)
			}
		}
	}
	final := h.controller.Snapshot()
	if final.Query != "authentication" || final.Status != StatusReady || len(final.Results) != 2 {
		t.Errorf("final state: query %q status %s results %d", final.Query, final.Status, len(final.Results))
	}
}

func TestResultsAreGroupedWithoutResorting(t *testing.T) {
	h := newHarness(t, nil)
	h.gateway.set("roadmap", results("r", search.TypeRoadmap, search.TypeChangelog, search.TypeRoadmap))
	h.controller.Open()
	h.controller.SetQuery("roadmap")
	h.clock.Advance(debounceWindow)
	state := h.waitReady("roadmap")

	if len(state.Groups) != 2 || state.Groups[0].Type != search.TypeRoadmap {
		t.Fatalf("groups = %+v", state.Groups)
	}
	var ids []string
	for _, result := range state.Groups[0].Results {
		ids = append(ids, result.ID)
	}
	if !slices.Equal(ids, []string{"r-a", "r-c"}) {
		t.Errorf("roadmap group = %v, want [r-a r-c]", ids)
	}
	if state.Results[1].ID != "r-b" {
		t.Errorf("flat results re-sorted: %v", state.Results)
	}
}

func TestFilterChangesRerunCurrentQuery(t *testing.T) {
	h := newHarness(t, nil)
	h.controller.Open()
	h.controller.SetQuery("login")
	h.clock.Advance(debounceWindow)
	h.waitCalled("login")
	h.waitReady("login")

	if err := h.controller.ToggleFilter(facet.Status, "done"); err != nil {
		t.Fatalf("ToggleFilter: %v", err)
	}
	h.clock.Advance(debounceWindow)
	h.waitCalled("login")
	if call := h.gateway.lastCall(); !call.filters.Has(facet.Status, "done") {
		t.Errorf("filters sent = %q, want status:done", call.filters)
	}
	h.waitReady("login")

	// No actual change: nothing published, nothing scheduled.
	revision := h.controller.Snapshot().Revision
	if err := h.controller.SetDateRange(facet.DateRangeAll); err != nil {
		t.Fatal(err)
	}
	if h.controller.Snapshot().Revision != revision {
		t.Error("SetDateRange(all) on default range published a revision")
	}
	if h.controller.debouncer.Pending() {
		t.Error("equal filters scheduled a dispatch")
	}

	h.controller.ClearFilters()
	h.clock.Advance(debounceWindow)
	h.waitCalled("login")
	if call := h.gateway.lastCall(); !call.filters.IsDefault() {
		t.Errorf("filters after clear = %q, want default", call.filters)
	}
	h.waitReady("login")

	revision = h.controller.Snapshot().Revision
	h.controller.ClearFilters()
	if h.controller.Snapshot().Revision != revision {
		t.Error("ClearFilters on default filters published a revision")
	}

	if err := h.controller.ToggleFilter("color", "red"); !errors.Is(err, facet.ErrUnknownFacet) {
		t.Errorf("unknown facet error = %v", err)
	}
}

func TestFilterToggleBurstIsDebounced(t *testing.T) {
	h := newHarness(t, nil)
	h.controller.Open()
	h.controller.SetQuery("sso")
	for _, status := range []string{"open", "done", "blocked"} {
		h.clock.Advance(50 * time.Millisecond)
		if err := h.controller.ToggleFilter(facet.Status, status); err != nil {
			t.Fatal(err)
		}
	}
	h.clock.Advance(debounceWindow)
	h.waitCalled("sso")
	h.waitReady("sso")
	h.clock.Advance(time.Second)

	if got := promtest.ToFloat64(h.metrics.Dispatches); got != 1 {
		t.Errorf("dispatches = %v, want 1 for the burst", got)
	}
	if got := h.gateway.lastCall().filters.Values(facet.Status); !slices.Equal(got, []string{"blocked", "done", "open"}) {
		t.Errorf("status filter = %v", got)
	}
}

func TestGatewayFailureAndRetry(t *testing.T) {
	h := newHarness(t, nil)
	h.gateway.fail("billing", errBackend)
	h.controller.Open()
	h.controller.SetQuery("billing")
	h.clock.Advance(debounceWindow)

	state := h.waitState(func(s State) bool { return s.Status == StatusFailed }, "waiting for failure")
	if len(state.Results) != 0 || !strings.Contains(state.Error, "backend unavailable") {
		t.Errorf("failed state = %+v", state)
	}
	if !h.controller.IsOpen() {
		t.Error("failure closed the palette")
	}
	if got := promtest.ToFloat64(h.metrics.Failures); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}

	h.gateway.fail("billing", nil)
	h.gateway.set("billing", results("bill", search.TypeArticle))
	h.controller.Retry()
	state = h.waitReady("billing")
	if len(state.Results) != 1 || state.Error != "" {
		t.Errorf("after retry: %+v", state)
	}

	// Retry is a no-op unless the last search failed.
	dispatches := promtest.ToFloat64(h.metrics.Dispatches)
	h.controller.Retry()
	if promtest.ToFloat64(h.metrics.Dispatches) != dispatches {
		t.Error("Retry dispatched after a successful search")
	}
}

func TestRequestTimeoutIsAFailure(t *testing.T) {
	h := newHarness(t, func(options *Options) {
		options.RequestTimeout = 20 * time.Millisecond
	})
	h.gateway.hold("slow")
	h.controller.Open()
	h.controller.SetQuery("slow")
	h.clock.Advance(debounceWindow)

	state := h.waitState(func(s State) bool { return s.Status == StatusFailed }, "waiting for timeout")
	if !strings.Contains(state.Error, "timed out") {
		t.Errorf("error = %q, want a timeout message", state.Error)
	}
}

func TestSelectRecordsClosesAndNavigates(t *testing.T) {
	cache := recency.Open(context.Background(), nil, recency.Options{})
	h := newHarness(t, func(options *Options) {
		options.Recent = cache
	})
	found := results("fb", search.TypeFeedback, search.TypeFeedback)
	h.gateway.set("dark mode", found)
	h.controller.Open()
	h.controller.SetQuery("dark mode")
	h.clock.Advance(debounceWindow)
	h.waitReady("dark mode")

	h.controller.Select(found[1])

	if h.controller.IsOpen() {
		t.Error("palette still open after Select")
	}
	if got := h.navigations(); !slices.Equal(got, []string{found[1].URL}) {
		t.Errorf("navigated = %v, want [%s]", got, found[1].URL)
	}
	recent := cache.List()
	if len(recent) != 1 || recent[0].ID != found[1].ID || !recent[0].Timestamp.Equal(epoch.Add(debounceWindow)) {
		t.Errorf("recent = %+v", recent)
	}
	state := h.controller.Snapshot()
	if state.Query != "" || len(state.Results) != 0 {
		t.Errorf("state after select = %+v, want cleared", state)
	}

	queries := len(h.gateway.queries())
	h.clock.Advance(time.Second)
	if len(h.gateway.queries()) != queries {
		t.Error("search traffic after Select")
	}
	if got := promtest.ToFloat64(h.metrics.Selections); got != 1 {
		t.Errorf("selections = %v, want 1", got)
	}
}

func TestSelectDiscardsInFlightResponse(t *testing.T) {
	h := newHarness(t, nil)
	h.gateway.delay("pricing", 500*time.Millisecond)
	h.gateway.set("pricing", results("p", search.TypeArticle))
	h.controller.Open()
	h.controller.SetQuery("pricing")
	h.clock.Advance(debounceWindow)
	h.waitCalled("pricing")
	h.clock.WaitForTimers(1)

	h.controller.SelectQuickAction(search.QuickAction{ID: "roadmap", Title: "Roadmap", URL: "/roadmap"})
	h.clock.Advance(500 * time.Millisecond)
	h.controller.Shutdown()

	if got := promtest.ToFloat64(h.metrics.StaleDiscards); got != 1 {
		t.Errorf("stale discards = %v, want 1", got)
	}
	if state := h.controller.Snapshot(); state.Open || len(state.Results) != 0 {
		t.Errorf("state after select = %+v", state)
	}
	if got := h.navigations(); !slices.Equal(got, []string{"/roadmap"}) {
		t.Errorf("navigated = %v", got)
	}
}

func TestSelectRecentMovesToFront(t *testing.T) {
	cache := recency.Open(context.Background(), nil, recency.Options{})
	for _, id := range []string{"a", "b", "c"} {
		cache.Record(context.Background(), recency.Item{ID: id, Title: id, Type: search.TypeBoard, URL: "/boards/" + id})
	}
	h := newHarness(t, func(options *Options) { options.Recent = cache })

	h.controller.Open()
	state := h.controller.Snapshot()
	if len(state.Recent) != 3 || state.Recent[0].ID != "c" {
		t.Fatalf("recent = %+v", state.Recent)
	}
	h.controller.SelectRecent(state.Recent[2])

	var ids []string
	for _, item := range cache.List() {
		ids = append(ids, item.ID)
	}
	if !slices.Equal(ids, []string{"a", "c", "b"}) {
		t.Errorf("recent after reselect = %v, want [a c b]", ids)
	}
	if got := h.navigations(); !slices.Equal(got, []string{"/boards/a"}) {
		t.Errorf("navigated = %v", got)
	}
}

func TestEmptyQueryShowsRecentAndQuickActions(t *testing.T) {
	cache := recency.Open(context.Background(), nil, recency.Options{})
	for index := range 7 {
		cache.Record(context.Background(), recency.Item{ID: string(rune('a' + index)), Title: "x", Type: search.TypeArticle, URL: "/x"})
	}
	h := newHarness(t, func(options *Options) { options.Recent = cache })

	h.controller.Open()
	state := h.controller.Snapshot()
	if len(state.Recent) != DefaultRecentShown || state.Recent[0].ID != "g" {
		t.Errorf("recent = %+v, want the 5 newest starting with g", state.Recent)
	}
	if len(state.QuickActions) != len(search.DefaultQuickActions) {
		t.Errorf("quick actions = %d, want %d", len(state.QuickActions), len(search.DefaultQuickActions))
	}

	h.controller.SetQuery("xy")
	state = h.controller.Snapshot()
	if state.Recent != nil || state.QuickActions != nil {
		t.Error("recent and quick actions shown for a non-empty query")
	}

	h.controller.SetQuery("")
	state = h.controller.Snapshot()
	if len(state.Recent) != DefaultRecentShown {
		t.Error("clearing the query did not restore the recent list")
	}
	h.clock.Advance(time.Second)
	if len(h.gateway.queries()) != 0 {
		t.Errorf("gateway called: %v", h.gateway.queries())
	}
}

func TestForgetAndClearRecent(t *testing.T) {
	cache := recency.Open(context.Background(), nil, recency.Options{})
	for _, id := range []string{"a", "b", "c"} {
		cache.Record(context.Background(), recency.Item{ID: id, Title: id, Type: search.TypeBoard, URL: "/boards/" + id})
	}
	h := newHarness(t, func(options *Options) { options.Recent = cache })
	h.controller.Open()

	before := h.controller.Snapshot().Revision
	h.controller.ForgetRecent("b")
	state := h.controller.Snapshot()
	if state.Revision <= before {
		t.Error("forgetting a shown entry did not publish")
	}
	var ids []string
	for _, item := range state.Recent {
		ids = append(ids, item.ID)
	}
	if !slices.Equal(ids, []string{"c", "a"}) {
		t.Errorf("recent after forget = %v, want [c a]", ids)
	}

	revision := state.Revision
	h.controller.ForgetRecent("missing")
	if h.controller.Snapshot().Revision != revision {
		t.Error("forgetting an unknown entry published a state")
	}

	h.controller.ClearRecent()
	if state := h.controller.Snapshot(); len(state.Recent) != 0 || cache.Len() != 0 {
		t.Errorf("after clear: shown %d, cached %d; want 0 and 0", len(state.Recent), cache.Len())
	}
}

func TestCommandModeFiltersQuickActionsLocally(t *testing.T) {
	h := newHarness(t, nil)
	h.controller.Open()
	h.controller.SetQuery(">roadmap")
	h.clock.Advance(time.Second)

	state := h.controller.Snapshot()
	if !state.CommandMode() {
		t.Error("CommandMode = false for '>' query")
	}
	if len(state.QuickActions) != 1 || state.QuickActions[0].ID != "roadmap" {
		t.Errorf("quick actions = %+v, want [roadmap]", state.QuickActions)
	}
	if got := promtest.ToFloat64(h.metrics.Dispatches); got != 0 {
		t.Errorf("dispatches = %v, want 0 in command mode", got)
	}
}

func TestCommandModeMatchesAcrossCase(t *testing.T) {
	h := newHarness(t, nil)
	h.controller.Open()
	h.controller.SetQuery(">open")

	var ids []string
	for _, action := range h.controller.Snapshot().QuickActions {
		ids = append(ids, action.ID)
	}
	slices.Sort(ids)
	if !slices.Equal(ids, []string{"new-feedback", "settings"}) {
		t.Errorf("quick actions for '>open' = %v, want [new-feedback settings]", ids)
	}
}

func TestCloseResetsFiltersByDefault(t *testing.T) {
	h := newHarness(t, nil)
	h.controller.Open()
	if err := h.controller.ToggleFilter(facet.Priority, "high"); err != nil {
		t.Fatal(err)
	}
	h.controller.SetQuery("crash")
	h.controller.Close()

	state := h.controller.Snapshot()
	if state.Open || state.Query != "" || !state.Filters.IsDefault() {
		t.Errorf("after close: open=%v query=%q filters=%q", state.Open, state.Query, state.Filters)
	}
	if h.controller.debouncer.Pending() {
		t.Error("Close left a dispatch pending")
	}
	h.clock.Advance(time.Second)
	if len(h.gateway.queries()) != 0 {
		t.Error("dispatch fired after Close")
	}
}

func TestCloseRestorePolicy(t *testing.T) {
	h := newHarness(t, func(options *Options) { options.ClosePolicy = CloseRestoreFilters })

	if err := h.controller.ToggleFilter(facet.Status, "open"); err != nil {
		t.Fatal(err)
	}
	preOpen := h.controller.Snapshot().Filters

	h.controller.Open()
	if err := h.controller.ToggleFilter(facet.Priority, "high"); err != nil {
		t.Fatal(err)
	}
	h.controller.Close()
	if got := h.controller.Snapshot().Filters; !got.Equal(preOpen) {
		t.Errorf("filters after close without selection = %q, want %q", got, preOpen)
	}

	h.controller.Open()
	if err := h.controller.ToggleFilter(facet.Priority, "high"); err != nil {
		t.Fatal(err)
	}
	h.controller.Select(search.Result{ID: "x", Title: "x", Type: search.TypeArticle, URL: "/x"})
	got := h.controller.Snapshot().Filters
	if !got.Has(facet.Priority, "high") || !got.Has(facet.Status, "open") {
		t.Errorf("filters after selection = %q, want both kept", got)
	}
}

func TestUsersFetchedOnceAndRetriedAfterFailure(t *testing.T) {
	directory := &fakeDirectory{err: errBackend}
	h := newHarness(t, func(options *Options) { options.Users = directory })

	h.controller.Open()
	h.waitState(func(s State) bool { return s.UsersError != "" }, "waiting for directory failure")
	h.controller.Close()

	directory.mu.Lock()
	directory.err = nil
	directory.users = []search.User{{ID: "u1", DisplayName: "Ana"}}
	directory.mu.Unlock()

	h.controller.Open()
	state := h.waitState(func(s State) bool { return len(s.Users) == 1 }, "waiting for users")
	if state.UsersError != "" {
		t.Errorf("UsersError = %q after success", state.UsersError)
	}
	h.controller.Close()
	h.controller.Open()
	h.controller.Close()

	if got := directory.callCount(); got != 2 {
		t.Errorf("ListUsers calls = %d, want 2 (one failure, one success)", got)
	}
	if users := h.controller.Users(); len(users) != 1 || users[0].DisplayName != "Ana" {
		t.Errorf("Users = %+v", users)
	}
}

func TestRevisionsAreSequential(t *testing.T) {
	h := newHarness(t, nil)
	h.controller.Open()
	h.controller.SetQuery("abc")
	h.clock.Advance(debounceWindow)
	h.waitReady("abc")
	h.controller.Close()

	history := h.historySnapshot()
	if len(history) < 4 {
		t.Fatalf("only %d revisions observed", len(history))
	}
	for index, state := range history {
		if state.Revision != uint64(index+1) {
			t.Fatalf("revision[%d] = %d, want %d", index, state.Revision, index+1)
		}
	}
}

func TestShortcutsAttachedAndDetached(t *testing.T) {
	router := shortcut.NewRouter()
	manager := shortcut.NewManager(router, shortcut.DefaultKeyMap, nil)
	h := newHarness(t, func(options *Options) { options.Shortcuts = manager })

	if router.ListenerCount() != 2 {
		t.Fatalf("ListenerCount = %d, want 2", router.ListenerCount())
	}
	router.Dispatch(shortcut.Keystroke("ctrl+k"))
	if !h.controller.IsOpen() {
		t.Error("ctrl+k did not open the palette")
	}
	router.Dispatch(shortcut.Keystroke("esc"))
	if h.controller.IsOpen() {
		t.Error("esc did not close the palette")
	}

	h.controller.Shutdown()
	if router.ListenerCount() != 0 {
		t.Errorf("ListenerCount after Shutdown = %d, want 0", router.ListenerCount())
	}
	h.controller.Open()
	if h.controller.IsOpen() {
		t.Error("Open after Shutdown took effect")
	}
}

func TestSetQueryIgnoredWhileClosed(t *testing.T) {
	h := newHarness(t, nil)
	h.controller.SetQuery("hello")
	h.clock.Advance(time.Second)
	if state := h.controller.Snapshot(); state.Query != "" || state.Revision != 0 {
		t.Errorf("closed palette accepted a query: %+v", state)
	}
}
