// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package paletteui

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/cmdsearch/lib/facet"
	"github.com/bureau-foundation/cmdsearch/lib/palette"
	"github.com/bureau-foundation/cmdsearch/lib/recency"
	"github.com/bureau-foundation/cmdsearch/lib/search"
	"github.com/bureau-foundation/cmdsearch/lib/shortcut"
)

// Layout bounds.
const (
	maxBoxWidth     = 96
	minListHeight   = 4
	chromeHeight    = 8
	defaultWidth    = 80
	defaultHeight   = 24
	queryCharLimit  = 256
	previewMinWidth = 40
)

// Options wires a Model. Controller, Router and Notifier are required;
// the Notifier's Observe must be the controller's observer.
type Options struct {
	Controller *palette.Controller
	Router     *shortcut.Router
	Notifier   *Notifier

	// Navigator, when set, is listened to so the view can show the
	// last opened URL and QuitOnNavigate can end the program.
	Navigator      *Navigator
	QuitOnNavigate bool

	// Shortcuts is only used for help text.
	Shortcuts shortcut.KeyMap

	Keys  *KeyMap
	Theme *Theme
}

// rowKind distinguishes list rows.
type rowKind int

const (
	rowHeader rowKind = iota
	rowResult
	rowRecent
	rowAction
)

type row struct {
	kind   rowKind
	label  string
	result search.Result
	recent recency.Item
	action search.QuickAction
}

// id identifies a selectable row across state updates so the cursor
// stays on the same entry when results refresh.
func (r row) id() string {
	switch r.kind {
	case rowResult:
		return "result:" + r.result.ID
	case rowRecent:
		return "recent:" + r.recent.ID
	case rowAction:
		return "action:" + r.action.ID
	default:
		return ""
	}
}

// pickerOption is one toggleable facet value in the filter picker.
type pickerOption struct {
	facet facet.Facet
	value string
	label string
}

// Model is the bubbletea model hosting the palette.
type Model struct {
	controller *palette.Controller
	router     *shortcut.Router
	notifier   *Notifier
	navigator  *Navigator

	quitOnNavigate bool
	shortcuts      shortcut.KeyMap
	keys           KeyMap
	theme          Theme

	input textinput.Model
	state palette.State

	rows   []row
	cursor int

	picking       bool
	pickerOptions []pickerOption
	pickerCursor  int

	width  int
	height int

	lastURL    string
	logMessage string
	logLevel   slog.Level
}

// NewModel creates a model showing the controller's current state.
func NewModel(options Options) (Model, error) {
	if options.Controller == nil || options.Router == nil || options.Notifier == nil {
		return Model{}, errors.New("paletteui: controller, router and notifier are required")
	}
	keys := DefaultKeyMap
	if options.Keys != nil {
		keys = *options.Keys
	}
	theme := DefaultTheme
	if options.Theme != nil {
		theme = *options.Theme
	}
	shortcuts := options.Shortcuts
	if len(shortcuts.Open.Keys()) == 0 {
		shortcuts = shortcut.DefaultKeyMap
	}

	input := textinput.New()
	input.Placeholder = "Search feedback, articles, work items… (> for actions)"
	input.Prompt = "› "
	input.CharLimit = queryCharLimit
	input.Width = defaultWidth - 8

	model := Model{
		controller:     options.Controller,
		router:         options.Router,
		notifier:       options.Notifier,
		navigator:      options.Navigator,
		quitOnNavigate: options.QuitOnNavigate,
		shortcuts:      shortcuts,
		keys:           keys,
		theme:          theme,
		input:          input,
		cursor:         -1,
		width:          defaultWidth,
		height:         defaultHeight,
	}
	model.applyState(options.Controller.Snapshot())
	return model, nil
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	commands := []tea.Cmd{waitForState(model.notifier, model.controller), textinput.Blink}
	if model.navigator != nil {
		commands = append(commands, waitForNavigation(model.navigator))
	}
	return tea.Batch(commands...)
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return model.handleKey(message)

	case stateMsg:
		model.applyState(message.state)
		return model, waitForState(model.notifier, model.controller)

	case navigateMsg:
		model.lastURL = message.url
		if model.quitOnNavigate {
			return model, tea.Quit
		}
		return model, waitForNavigation(model.navigator)

	case logRecordMsg:
		model.logMessage = message.Summary
		model.logLevel = message.Level
		summary := message.Summary
		return model, tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
			return logRecordFadeMsg{summary: summary}
		})

	case logRecordFadeMsg:
		if message.summary == model.logMessage {
			model.logMessage = ""
		}

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.input.Width = max(10, model.boxWidth()-8)

	default:
		// Cursor blink.
		var command tea.Cmd
		model.input, command = model.input.Update(message)
		return model, command
	}
	return model, nil
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(message, model.keys.Quit) {
		return model, tea.Quit
	}
	if model.picking {
		return model.handlePickerKeys(message)
	}

	// Global shortcuts first, exactly as any other host would route
	// them.
	if model.router.Dispatch(message) {
		model.refresh()
		return model, nil
	}

	if !model.state.Open {
		if key.Matches(message, model.keys.QuitClosed) {
			return model, tea.Quit
		}
		return model, nil
	}

	switch {
	case key.Matches(message, model.keys.Up):
		model.moveCursor(-1)
	case key.Matches(message, model.keys.Down):
		model.moveCursor(1)
	case key.Matches(message, model.keys.Select):
		model.selectCurrent()
		model.refresh()
	case key.Matches(message, model.keys.Retry):
		model.controller.Retry()
		model.refresh()
	case key.Matches(message, model.keys.ForgetRecent):
		if current, ok := model.currentRow(); ok && current.kind == rowRecent {
			model.controller.ForgetRecent(current.recent.ID)
			model.refresh()
		}
	case key.Matches(message, model.keys.ClearRecent):
		if len(model.state.Recent) > 0 {
			model.controller.ClearRecent()
			model.refresh()
		}
	case key.Matches(message, model.keys.Filters):
		model.picking = true
		model.pickerOptions = buildPickerOptions(model.state)
		model.pickerCursor = 0
	default:
		var command tea.Cmd
		model.input, command = model.input.Update(message)
		model.controller.SetQuery(model.input.Value())
		model.refresh()
		return model, command
	}
	return model, nil
}

func (model Model) handlePickerKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.LeavePicker):
		model.picking = false
	case key.Matches(message, model.keys.Up):
		if model.pickerCursor > 0 {
			model.pickerCursor--
		}
	case key.Matches(message, model.keys.Down):
		if model.pickerCursor < len(model.pickerOptions)-1 {
			model.pickerCursor++
		}
	case key.Matches(message, model.keys.ToggleValue):
		if model.pickerCursor < len(model.pickerOptions) {
			option := model.pickerOptions[model.pickerCursor]
			if err := model.controller.ToggleFilter(option.facet, option.value); err != nil {
				model.logMessage = err.Error()
				model.logLevel = slog.LevelWarn
			}
			model.refresh()
		}
	case key.Matches(message, model.keys.CycleDate):
		if err := model.controller.SetDateRange(nextDateRange(model.state.Filters.DateRange())); err != nil {
			model.logMessage = err.Error()
			model.logLevel = slog.LevelWarn
		}
		model.refresh()
	case key.Matches(message, model.keys.ClearFilters):
		model.controller.ClearFilters()
		model.refresh()
	}
	return model, nil
}

// refresh pulls the controller's state after an action the model took
// itself, so the view never waits for the observer round trip.
func (model *Model) refresh() {
	model.applyState(model.controller.Snapshot())
}

// applyState adopts state unless it is older than the one shown.
func (model *Model) applyState(state palette.State) {
	if state.Revision < model.state.Revision {
		return
	}
	wasOpen := model.state.Open
	model.state = state

	switch {
	case !state.Open:
		model.input.Reset()
		model.input.Blur()
		model.picking = false
	case !wasOpen:
		model.input.SetValue(state.Query)
		model.input.Focus()
	}

	selected := ""
	if model.cursor >= 0 && model.cursor < len(model.rows) {
		selected = model.rows[model.cursor].id()
	}
	model.rows = buildRows(state)
	model.cursor = firstSelectable(model.rows)
	if selected != "" {
		for i, candidate := range model.rows {
			if candidate.kind != rowHeader && candidate.id() == selected {
				model.cursor = i
				break
			}
		}
	}
}

func buildRows(state palette.State) []row {
	var rows []row
	if len(state.Recent) > 0 || len(state.QuickActions) > 0 {
		if len(state.Recent) > 0 {
			rows = append(rows, row{kind: rowHeader, label: "Recent"})
			for _, item := range state.Recent {
				rows = append(rows, row{kind: rowRecent, recent: item})
			}
		}
		if len(state.QuickActions) > 0 {
			rows = append(rows, row{kind: rowHeader, label: "Quick actions"})
			for _, action := range state.QuickActions {
				rows = append(rows, row{kind: rowAction, action: action})
			}
		}
		return rows
	}
	for _, group := range state.Groups {
		rows = append(rows, row{kind: rowHeader, label: group.Type.Label()})
		for _, result := range group.Results {
			rows = append(rows, row{kind: rowResult, result: result})
		}
	}
	return rows
}

func firstSelectable(rows []row) int {
	for i, candidate := range rows {
		if candidate.kind != rowHeader {
			return i
		}
	}
	return -1
}

func (model *Model) moveCursor(delta int) {
	for next := model.cursor + delta; next >= 0 && next < len(model.rows); next += delta {
		if model.rows[next].kind != rowHeader {
			model.cursor = next
			return
		}
	}
}

func (model Model) currentRow() (row, bool) {
	if model.cursor < 0 || model.cursor >= len(model.rows) {
		return row{}, false
	}
	return model.rows[model.cursor], true
}

func (model *Model) selectCurrent() {
	selected, ok := model.currentRow()
	if !ok {
		return
	}
	switch selected.kind {
	case rowResult:
		model.controller.Select(selected.result)
	case rowRecent:
		model.controller.SelectRecent(selected.recent)
	case rowAction:
		model.controller.SelectQuickAction(selected.action)
	}
}

// buildPickerOptions offers users for the person facets and the
// values seen in the current results' metadata for the others. Values
// already selected are always offered so they can be turned off.
func buildPickerOptions(state palette.State) []pickerOption {
	values := make(map[facet.Facet]map[string]string)
	add := func(f facet.Facet, value, label string) {
		if value == "" {
			return
		}
		if values[f] == nil {
			values[f] = make(map[string]string)
		}
		if _, exists := values[f][value]; !exists || label != value {
			values[f][value] = label
		}
	}

	for _, user := range state.Users {
		add(facet.Assignee, user.ID, user.DisplayName)
		add(facet.Reporter, user.ID, user.DisplayName)
	}
	for _, result := range state.Results {
		for _, f := range facet.All {
			if value, ok := result.Metadata[string(f)].(string); ok {
				add(f, value, value)
			}
		}
	}
	for _, f := range facet.All {
		for _, value := range state.Filters.Values(f) {
			add(f, value, value)
		}
	}

	var options []pickerOption
	for _, f := range facet.All {
		for _, value := range slices.Sorted(maps.Keys(values[f])) {
			options = append(options, pickerOption{facet: f, value: value, label: values[f][value]})
		}
	}
	return options
}

func nextDateRange(current facet.DateRange) facet.DateRange {
	index := slices.Index(facet.DateRanges, current)
	return facet.DateRanges[(index+1)%len(facet.DateRanges)]
}

// LastURL returns the most recently opened URL.
func (model Model) LastURL() string {
	return model.lastURL
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.state.Open {
		return model.renderClosed()
	}

	width := model.boxWidth() - 4
	sections := []string{model.input.View()}
	if chips := model.renderFilterChips(); chips != "" {
		sections = append(sections, chips)
	}
	if model.picking {
		sections = append(sections, model.renderPicker(width))
	} else {
		if status := model.renderStatus(); status != "" {
			sections = append(sections, status)
		}
		preview := model.renderSelectedPreview(width)
		listHeight := max(minListHeight, model.height-chromeHeight-lineCount(preview))
		if list := model.renderRows(width, listHeight); list != "" {
			sections = append(sections, list)
		}
		if preview != "" {
			sections = append(sections, preview)
		}
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(model.theme.BorderColor).
		Padding(0, 1).
		Width(model.boxWidth() - 2).
		Render(strings.Join(sections, "\n"))
	return box + "\n" + model.renderHelp()
}

func (model Model) boxWidth() int {
	return min(model.width, maxBoxWidth)
}

func (model Model) renderClosed() string {
	var lines []string
	title := lipgloss.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground).Render("cmdsearch")
	hint := lipgloss.NewStyle().Foreground(model.theme.HelpText).Render(
		fmt.Sprintf("press %s to search, %s to quit", model.shortcuts.Open.Help().Key, model.keys.QuitClosed.Help().Key))
	lines = append(lines, title+"  "+hint)
	if model.lastURL != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("opened "+model.lastURL))
	}
	if model.logMessage != "" {
		lines = append(lines, model.renderLogMessage())
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderFilterChips() string {
	filters := model.state.Filters
	if filters.IsDefault() {
		return ""
	}
	chip := lipgloss.NewStyle().Foreground(model.theme.FilterChip)
	var chips []string
	for _, f := range facet.All {
		for _, value := range filters.Values(f) {
			chips = append(chips, chip.Render(fmt.Sprintf("%s:%s", f, value)))
		}
	}
	if filters.DateRange() != facet.DateRangeAll {
		chips = append(chips, chip.Render(fmt.Sprintf("date:%s", filters.DateRange())))
	}
	badge := lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(
		fmt.Sprintf("filters (%d)", model.state.ActiveFilters()))
	return badge + " " + strings.Join(chips, " ")
}

func (model Model) renderStatus() string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	switch model.state.Status {
	case palette.StatusSearching:
		return faint.Render("Searching…")
	case palette.StatusFailed:
		return lipgloss.NewStyle().Foreground(model.theme.ErrorText).Render(
			fmt.Sprintf("Search failed: %s (%s to retry)", model.state.Error, model.keys.Retry.Help().Key))
	case palette.StatusReady:
		if len(model.state.Results) == 0 {
			return faint.Render(fmt.Sprintf("No results for %q", model.state.Query))
		}
	}
	return ""
}

func (model Model) renderRows(width, height int) string {
	if len(model.rows) == 0 {
		return ""
	}
	start := 0
	if model.cursor >= height {
		start = model.cursor - height + 1
	}
	end := min(len(model.rows), start+height)

	var lines []string
	for i := start; i < end; i++ {
		lines = append(lines, model.renderRow(model.rows[i], i == model.cursor, width))
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderRow(r row, selected bool, width int) string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	var line string
	switch r.kind {
	case rowHeader:
		return lipgloss.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground).Render(r.label)
	case rowResult:
		marker := lipgloss.NewStyle().Foreground(model.theme.TypeColor(r.result.Type)).Render("●")
		line = marker + " " + r.result.Title + "  " + faint.Render(r.result.URL)
	case rowRecent:
		marker := lipgloss.NewStyle().Foreground(model.theme.TypeColor(r.recent.Type)).Render("↺")
		line = marker + " " + r.recent.Title + "  " + faint.Render(r.recent.Type.Label())
	case rowAction:
		line = "› " + r.action.Title
		if r.action.Description != "" {
			line += "  " + faint.Render(r.action.Description)
		}
		if r.action.Keystroke != "" {
			line += "  " + faint.Render("["+r.action.Keystroke+"]")
		}
	}

	line = ansi.Truncate("  "+line, width, "…")
	if selected {
		padded := line + strings.Repeat(" ", max(0, width-ansi.StringWidth(line)))
		return lipgloss.NewStyle().
			Background(model.theme.SelectedBackground).
			Foreground(model.theme.SelectedForeground).
			Render(padded)
	}
	return line
}

func (model Model) renderSelectedPreview(width int) string {
	if width < previewMinWidth || model.cursor < 0 || model.cursor >= len(model.rows) {
		return ""
	}
	selected := model.rows[model.cursor]
	if selected.kind != rowResult || selected.result.Description == "" {
		return ""
	}
	return renderPreview(selected.result.Description, model.theme, width)
}

func (model Model) renderPicker(width int) string {
	if len(model.pickerOptions) == 0 {
		return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(
			"No filter values yet. Search first, or wait for the user list.")
	}
	var lines []string
	lines = append(lines, lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(
		fmt.Sprintf("date range: %s", model.state.Filters.DateRange())))
	for i, option := range model.pickerOptions {
		check := "[ ]"
		if model.state.Filters.Has(option.facet, option.value) {
			check = "[x]"
		}
		line := ansi.Truncate(fmt.Sprintf("%s %s: %s", check, option.facet, option.label), width, "…")
		if i == model.pickerCursor {
			line = lipgloss.NewStyle().
				Background(model.theme.SelectedBackground).
				Foreground(model.theme.SelectedForeground).
				Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderHelp() string {
	if model.logMessage != "" {
		return model.renderLogMessage()
	}
	var bindings []key.Binding
	if model.picking {
		bindings = []key.Binding{model.keys.ToggleValue, model.keys.CycleDate, model.keys.ClearFilters, model.keys.LeavePicker}
	} else {
		bindings = []key.Binding{model.keys.Up, model.keys.Down, model.keys.Select, model.keys.Filters, model.shortcuts.Close}
		if current, ok := model.currentRow(); ok && current.kind == rowRecent {
			bindings = append(bindings, model.keys.ForgetRecent)
		}
	}
	var parts []string
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return lipgloss.NewStyle().Foreground(model.theme.HelpText).Render(strings.Join(parts, " · "))
}

func (model Model) renderLogMessage() string {
	color := model.theme.WarningText
	if model.logLevel >= slog.LevelError {
		color = model.theme.ErrorText
	}
	return lipgloss.NewStyle().Foreground(color).Render(model.logMessage)
}

func lineCount(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(text, "\n") + 1
}
