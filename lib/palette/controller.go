// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package palette

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bureau-foundation/cmdsearch/lib/clock"
	"github.com/bureau-foundation/cmdsearch/lib/debounce"
	"github.com/bureau-foundation/cmdsearch/lib/facet"
	"github.com/bureau-foundation/cmdsearch/lib/metrics"
	"github.com/bureau-foundation/cmdsearch/lib/recency"
	"github.com/bureau-foundation/cmdsearch/lib/search"
	"github.com/bureau-foundation/cmdsearch/lib/shortcut"
)

const (
	DefaultMinQueryLength = 2
	DefaultLimit          = 50
	DefaultRecentShown    = 5
)

// commandPrefix switches the query into quick-action filtering.
const commandPrefix = ">"

// ErrNoGateway is returned by New when Options.Gateway is nil.
var ErrNoGateway = errors.New("palette: a search gateway is required")

// ClosePolicy decides what happens to the filters when the palette
// closes. The query is cleared in every case.
type ClosePolicy int

const (
	// CloseResetFilters clears every filter on close. This is the
	// default: facets from a previous search do not silently narrow
	// the next one.
	CloseResetFilters ClosePolicy = iota

	// CloseRestoreFilters puts back the filters that were active when
	// the palette opened, unless a selection was made during the
	// session, in which case the filters that led to it are kept.
	CloseRestoreFilters
)

// Options configures a Controller. Only Gateway is required.
type Options struct {
	Gateway   search.Gateway
	Users     search.UserDirectory
	Navigator search.Navigator

	// Recent receives selections and supplies the empty-query list.
	// Nil disables both.
	Recent *recency.Cache

	// QuickActions shown for an empty query. Nil means
	// search.DefaultQuickActions; an empty non-nil slice shows none.
	QuickActions []search.QuickAction

	// Shortcuts, when set, is attached to the controller in New and
	// detached by Shutdown.
	Shortcuts *shortcut.Manager

	Clock          clock.Clock
	Debounce       time.Duration
	MinQueryLength int
	Limit          int
	RecentShown    int

	// RequestTimeout bounds each gateway call. Zero means no bound
	// beyond Shutdown.
	RequestTimeout time.Duration

	ClosePolicy ClosePolicy

	// Observer is called with every new state. See the package
	// documentation for the constraints on it.
	Observer func(State)

	Logger  *slog.Logger
	Metrics *metrics.Palette
}

// Controller is the palette's state machine. All methods are safe for
// concurrent use.
type Controller struct {
	gateway      search.Gateway
	users        search.UserDirectory
	navigator    search.Navigator
	recent       *recency.Cache
	quickActions []search.QuickAction
	clock        clock.Clock
	debouncer    *debounce.Scheduler
	minQuery     int
	limit        int
	recentShown  int
	timeout      time.Duration
	closePolicy  ClosePolicy
	observer     func(State)
	logger       *slog.Logger
	metrics      *metrics.Palette

	// ctx is cancelled by Shutdown and parents every gateway call.
	ctx    context.Context
	cancel context.CancelFunc
	calls  sync.WaitGroup

	detachShortcuts func()

	mu    sync.Mutex
	state State

	// token is the latest dispatch token issued. Responses carrying
	// any other token are stale.
	token uint64

	preOpenFilters facet.Set
	selectedInOpen bool
	usersLoaded    bool
	usersLoading   bool
	shutdown       bool
}

// New returns a closed controller.
func New(options Options) (*Controller, error) {
	if options.Gateway == nil {
		return nil, ErrNoGateway
	}

	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	paletteMetrics := options.Metrics
	if paletteMetrics == nil {
		paletteMetrics = metrics.NewPalette(nil)
	}
	quickActions := options.QuickActions
	if quickActions == nil {
		quickActions = search.DefaultQuickActions
	}

	ctx, cancel := context.WithCancel(context.Background())
	controller := &Controller{
		gateway:      options.Gateway,
		users:        options.Users,
		navigator:    options.Navigator,
		recent:       options.Recent,
		quickActions: quickActions,
		clock:        clk,
		debouncer:    debounce.New(clk, options.Debounce),
		minQuery:     positiveOr(options.MinQueryLength, DefaultMinQueryLength),
		limit:        positiveOr(options.Limit, DefaultLimit),
		recentShown:  positiveOr(options.RecentShown, DefaultRecentShown),
		timeout:      options.RequestTimeout,
		closePolicy:  options.ClosePolicy,
		observer:     options.Observer,
		logger:       logger,
		metrics:      paletteMetrics,
		ctx:          ctx,
		cancel:       cancel,
	}

	if options.Shortcuts != nil {
		controller.detachShortcuts = options.Shortcuts.Attach(controller)
	}
	return controller, nil
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

// Open shows the palette. Opening an open palette does nothing. The
// first open (and every open after a failed fetch) loads the user
// directory in the background.
func (c *Controller) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shutdown || c.state.Open {
		return
	}
	c.state.Open = true
	c.preOpenFilters = c.state.Filters
	c.selectedInOpen = false
	c.showIdleLocked()
	c.publishLocked()

	if c.users != nil && !c.usersLoaded && !c.usersLoading {
		c.usersLoading = true
		c.calls.Add(1)
		go c.fetchUsers()
	}
}

// Close hides the palette, clears the query, applies the close
// policy to the filters and invalidates any pending or in-flight
// search.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Open {
		return
	}
	c.closeLocked()
	c.publishLocked()
}

// IsOpen reports whether the palette is visible.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Open
}

// SetQuery replaces the query text and reschedules the search. Text
// shorter than the minimum length clears the results without a
// gateway call. Ignored while closed or when the text is unchanged.
func (c *Controller) SetQuery(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Open || text == c.state.Query {
		return
	}
	c.state.Query = text
	if trimmed := strings.TrimSpace(text); trimmed != "" && !isCommand(text) && c.isShort(trimmed) {
		c.metrics.ShortQueries.Inc()
	}
	c.scheduleLocked()
}

// ToggleFilter flips value in facet and re-runs the current query.
func (c *Controller) ToggleFilter(name facet.Facet, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	filters, err := c.state.Filters.Toggle(name, value)
	if err != nil {
		return err
	}
	c.replaceFiltersLocked(filters)
	return nil
}

// SetDateRange replaces the date bucket and re-runs the current query
// if it changed.
func (c *Controller) SetDateRange(dateRange facet.DateRange) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	filters, err := c.state.Filters.WithDateRange(dateRange)
	if err != nil {
		return err
	}
	c.replaceFiltersLocked(filters)
	return nil
}

// ClearFilters resets every facet and re-runs the current query if
// anything was set.
func (c *Controller) ClearFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceFiltersLocked(c.state.Filters.Cleared())
}

// replaceFiltersLocked installs filters and reschedules, unless they
// are equal to the current ones.
func (c *Controller) replaceFiltersLocked(filters facet.Set) {
	if c.shutdown || filters.Equal(c.state.Filters) {
		return
	}
	c.state.Filters = filters
	if !c.state.Open {
		c.publishLocked()
		return
	}
	c.scheduleLocked()
}

// Select records result in the recent list, closes the palette and
// hands the result's URL to the navigator. No further searches are
// sent for the session.
func (c *Controller) Select(result search.Result) {
	if !c.beginSelection() {
		return
	}
	c.recordRecent(recency.FromResult(result, c.clock.Now()))
	c.navigate(result.URL)
}

// SelectRecent re-selects an entry from the recent list, moving it to
// the front.
func (c *Controller) SelectRecent(item recency.Item) {
	if !c.beginSelection() {
		return
	}
	item.Timestamp = c.clock.Now()
	c.recordRecent(item)
	c.navigate(item.URL)
}

// ForgetRecent drops one entry from the recent list.
func (c *Controller) ForgetRecent(id string) {
	if c.recent == nil || !c.recent.Remove(c.ctx, id) {
		return
	}
	c.refreshRecent()
}

// ClearRecent empties the recent list.
func (c *Controller) ClearRecent() {
	if c.recent == nil {
		return
	}
	c.recent.Clear(c.ctx)
	c.refreshRecent()
}

// refreshRecent republishes the recent entries if they are on screen.
func (c *Controller) refreshRecent() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Open || c.state.Query != "" {
		return
	}
	c.state.Recent = c.recent.Latest(c.recentShown)
	c.publishLocked()
}

// SelectQuickAction closes the palette and navigates to the action.
// Quick actions are not recorded in the recent list.
func (c *Controller) SelectQuickAction(action search.QuickAction) {
	if !c.beginSelection() {
		return
	}
	c.navigate(action.URL)
}

// beginSelection closes the palette as the result of a selection.
// Returns false if the palette was not open.
func (c *Controller) beginSelection() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Open {
		return false
	}
	c.selectedInOpen = true
	c.closeLocked()
	c.publishLocked()
	c.metrics.Selections.Inc()
	return true
}

func (c *Controller) recordRecent(item recency.Item) {
	if c.recent == nil {
		return
	}
	c.recent.Record(c.ctx, item)
}

func (c *Controller) navigate(url string) {
	if c.navigator == nil || url == "" {
		return
	}
	c.navigator.GoTo(url)
}

// Retry re-sends the current query immediately after a failure.
// Does nothing unless the last search failed.
func (c *Controller) Retry() {
	c.mu.Lock()
	if !c.state.Open || c.state.Status != StatusFailed {
		c.mu.Unlock()
		return
	}
	c.debouncer.Cancel()
	c.token++
	token := c.token
	text, filters := c.state.Query, c.state.Filters
	c.mu.Unlock()

	c.dispatch(text, filters, token)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Users returns the cached user directory.
func (c *Controller) Users() []search.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Users
}

// Shutdown detaches the shortcuts, invalidates pending and in-flight
// work, cancels gateway calls and waits for their goroutines to
// finish. The controller ignores every call afterwards.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return
	}
	c.shutdown = true
	c.token++
	c.debouncer.Cancel()
	detach := c.detachShortcuts
	c.mu.Unlock()

	if detach != nil {
		detach()
	}
	c.cancel()
	c.calls.Wait()
}

// closeLocked applies the close transition without publishing.
func (c *Controller) closeLocked() {
	c.token++
	c.debouncer.Cancel()

	c.state.Open = false
	c.state.Query = ""
	c.state.Status = StatusIdle
	c.state.Results = nil
	c.state.Groups = nil
	c.state.Error = ""
	c.state.Recent = nil
	c.state.QuickActions = nil

	switch c.closePolicy {
	case CloseRestoreFilters:
		if !c.selectedInOpen {
			c.state.Filters = c.preOpenFilters
		}
	default:
		c.state.Filters = facet.Set{}
	}
}

// scheduleLocked is the single path from "the question changed" to a
// gateway call. It issues a new token, which alone invalidates every
// earlier call, then either settles the state locally (empty, short
// or command query) or schedules the debounced dispatch.
func (c *Controller) scheduleLocked() {
	if c.shutdown {
		return
	}
	c.token++
	token := c.token
	text := c.state.Query
	trimmed := strings.TrimSpace(text)

	if trimmed == "" || isCommand(text) || c.isShort(trimmed) {
		c.debouncer.Cancel()
		c.showIdleLocked()
		c.publishLocked()
		return
	}

	// Previous results stay visible until the new answer arrives;
	// the empty-query lists do not.
	c.state.Recent = nil
	c.state.QuickActions = nil

	filters := c.state.Filters
	c.debouncer.Schedule(func() {
		c.dispatch(text, filters, token)
	})
	c.publishLocked()
}

// showIdleLocked clears server results and fills the locally derived
// lists for the current query.
func (c *Controller) showIdleLocked() {
	c.state.Status = StatusIdle
	c.state.Results = nil
	c.state.Groups = nil
	c.state.Error = ""
	c.state.Recent = nil
	c.state.QuickActions = nil

	switch {
	case c.state.Query == "":
		if c.recent != nil {
			c.state.Recent = c.recent.Latest(c.recentShown)
		}
		c.state.QuickActions = c.quickActions
	case isCommand(c.state.Query):
		pattern := strings.TrimPrefix(strings.TrimLeft(c.state.Query, " "), commandPrefix)
		c.state.QuickActions = search.FilterQuickActions(c.quickActions, pattern)
	}
}

// dispatch is the debounced closure body. It runs on a timer goroutine
// (or inside FakeClock.Advance) and hands the gateway call to its own
// goroutine so a slow backend never blocks the timer.
func (c *Controller) dispatch(text string, filters facet.Set, token uint64) {
	c.mu.Lock()
	if c.shutdown || token != c.token {
		c.mu.Unlock()
		return
	}
	if c.isShort(strings.TrimSpace(text)) {
		c.mu.Unlock()
		return
	}
	c.state.Status = StatusSearching
	c.state.Error = ""
	c.publishLocked()
	c.calls.Add(1)
	c.mu.Unlock()

	c.metrics.Dispatches.Inc()
	go c.call(text, filters, token)
}

func (c *Controller) call(text string, filters facet.Set, token uint64) {
	defer c.calls.Done()

	ctx := c.ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	started := c.clock.Now()
	response, err := c.gateway.Search(ctx, text, filters, c.limit)
	c.metrics.GatewayLatency.Observe(c.clock.Now().Sub(started).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.token {
		c.metrics.StaleDiscards.Inc()
		c.logger.Debug("discarding stale search response",
			"query", text,
			"token", token,
			"latest_token", c.token,
		)
		return
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("search timed out after %s: %w", c.timeout, err)
		}
		c.metrics.Failures.Inc()
		c.logger.Warn("search failed", "query", text, "error", err)
		c.state.Status = StatusFailed
		c.state.Results = nil
		c.state.Groups = nil
		c.state.Error = err.Error()
		c.publishLocked()
		return
	}

	c.state.Status = StatusReady
	c.state.Results = response.Results
	c.state.Groups = search.GroupByType(response.Results)
	c.state.Error = ""
	c.publishLocked()
}

func (c *Controller) fetchUsers() {
	defer c.calls.Done()

	users, err := c.users.ListUsers(c.ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.usersLoading = false
	if err != nil {
		c.logger.Warn("loading user directory failed, will retry on next open", "error", err)
		c.state.UsersError = err.Error()
		c.publishLocked()
		return
	}
	c.usersLoaded = true
	c.state.Users = users
	c.state.UsersError = ""
	c.publishLocked()
}

func (c *Controller) isShort(text string) bool {
	return utf8.RuneCountInString(text) < c.minQuery
}

func (c *Controller) publishLocked() {
	c.state.Revision++
	if c.observer != nil {
		c.observer(c.state)
	}
}

func isCommand(query string) bool {
	return strings.HasPrefix(strings.TrimLeft(query, " "), commandPrefix)
}
