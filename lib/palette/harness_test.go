// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package palette

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/cmdsearch/lib/clock"
	"github.com/bureau-foundation/cmdsearch/lib/facet"
	"github.com/bureau-foundation/cmdsearch/lib/metrics"
	"github.com/bureau-foundation/cmdsearch/lib/search"
	"github.com/bureau-foundation/cmdsearch/lib/testutil"
)

var epoch = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

const waitTimeout = 5 * time.Second

type gatewayCall struct {
	query   string
	filters facet.Set
	limit   int
}

// fakeGateway answers from per-query tables. A query with a delay
// waits on the injected clock; a query with a release channel waits
// for the test to close or send on it. Both honor ctx.
type fakeGateway struct {
	clock clock.Clock

	mu       sync.Mutex
	calls    []gatewayCall
	delays   map[string]time.Duration
	releases map[string]chan struct{}
	results  map[string][]search.Result
	failures map[string]error

	called chan string
}

func newFakeGateway(clk clock.Clock) *fakeGateway {
	return &fakeGateway{
		clock:    clk,
		delays:   make(map[string]time.Duration),
		releases: make(map[string]chan struct{}),
		results:  make(map[string][]search.Result),
		failures: make(map[string]error),
		called:   make(chan string, 64),
	}
}

func (g *fakeGateway) Search(ctx context.Context, query string, filters facet.Set, limit int) (search.Response, error) {
	g.mu.Lock()
	g.calls = append(g.calls, gatewayCall{query: query, filters: filters, limit: limit})
	delay := g.delays[query]
	release := g.releases[query]
	results := g.results[query]
	failure := g.failures[query]
	g.mu.Unlock()

	g.called <- query

	if delay > 0 {
		select {
		case <-g.clock.After(delay):
		case <-ctx.Done():
			return search.Response{}, ctx.Err()
		}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return search.Response{}, ctx.Err()
		}
	}
	if failure != nil {
		return search.Response{}, failure
	}
	return search.Response{Results: results}, nil
}

func (g *fakeGateway) set(query string, results []search.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.results[query] = results
}

func (g *fakeGateway) fail(query string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.failures, query)
		return
	}
	g.failures[query] = err
}

func (g *fakeGateway) delay(query string, d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delays[query] = d
}

func (g *fakeGateway) hold(query string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	release := make(chan struct{})
	g.releases[query] = release
	return release
}

func (g *fakeGateway) queries() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	queries := make([]string, len(g.calls))
	for index, call := range g.calls {
		queries[index] = call.query
	}
	return queries
}

func (g *fakeGateway) lastCall() gatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[len(g.calls)-1]
}

// fakeDirectory returns users or an error, switchable between calls.
type fakeDirectory struct {
	mu    sync.Mutex
	users []search.User
	err   error
	calls int
}

func (d *fakeDirectory) ListUsers(context.Context) ([]search.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.users, nil
}

func (d *fakeDirectory) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// harness wires a Controller to fakes and records every published
// state.
type harness struct {
	t          *testing.T
	clock      *clock.FakeClock
	gateway    *fakeGateway
	metrics    *metrics.Palette
	controller *Controller
	states     chan State

	mu        sync.Mutex
	history   []State
	navigated []string
}

func newHarness(t *testing.T, configure func(*Options)) *harness {
	t.Helper()
	fakeClock := clock.Fake(epoch)
	h := &harness{
		t:       t,
		clock:   fakeClock,
		gateway: newFakeGateway(fakeClock),
		metrics: metrics.NewPalette(nil),
		states:  make(chan State, 1024),
	}

	options := Options{
		Gateway: h.gateway,
		Clock:   fakeClock,
		Navigator: search.NavigatorFunc(func(url string) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.navigated = append(h.navigated, url)
		}),
		Metrics: h.metrics,
		Observer: func(state State) {
			h.mu.Lock()
			h.history = append(h.history, state)
			h.mu.Unlock()
			select {
			case h.states <- state:
			default:
				t.Errorf("state channel full at revision %d", state.Revision)
			}
		},
	}
	if configure != nil {
		configure(&options)
	}

	controller, err := New(options)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.controller = controller
	t.Cleanup(controller.Shutdown)
	return h
}

func (h *harness) waitState(match func(State) bool, message string) State {
	h.t.Helper()
	return testutil.RequireReceiveMatching(h.t, h.states, waitTimeout, match, message)
}

func (h *harness) waitReady(query string) State {
	h.t.Helper()
	return h.waitState(func(s State) bool {
		return s.Status == StatusReady && s.Query == query
	}, "waiting for results for "+query)
}

func (h *harness) waitCalled(query string) {
	h.t.Helper()
	got := testutil.RequireReceive(h.t, h.gateway.called, waitTimeout, "waiting for gateway call")
	if got != query {
		h.t.Fatalf("gateway called with %q, want %q", got, query)
	}
}

func (h *harness) historySnapshot() []State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]State(nil), h.history...)
}

func (h *harness) navigations() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.navigated...)
}

func results(prefix string, types ...search.ResultType) []search.Result {
	var out []search.Result
	for index, resultType := range types {
		id := prefix + "-" + string(rune('a'+index))
		out = append(out, search.Result{
			ID:             id,
			Title:          "Result " + id,
			Type:           resultType,
			URL:            "/" + string(resultType) + "/" + id,
			RelevanceScore: float64(len(types) - index),
		})
	}
	return out
}

var errBackend = errors.New("backend unavailable")
