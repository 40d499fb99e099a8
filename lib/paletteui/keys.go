// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package paletteui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the host's own bindings. Opening and closing the
// palette belong to the shortcut Manager, not to this map.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Retry  key.Binding

	// Filters enters and leaves the filter picker.
	Filters key.Binding

	// On recent entries.
	ForgetRecent key.Binding
	ClearRecent  key.Binding

	// Inside the filter picker.
	ToggleValue  key.Binding
	CycleDate    key.Binding
	ClearFilters key.Binding
	LeavePicker  key.Binding

	// Quit works everywhere; QuitClosed only while the palette is
	// closed, where letters are not query input.
	Quit       key.Binding
	QuitClosed key.Binding
}

// DefaultKeyMap avoids the chords the query input already uses for
// editing (ctrl+a/e/b/f/d/u/w).
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+p"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+n"),
		key.WithHelp("↓", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	Retry: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("C-r", "retry"),
	),
	Filters: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("C-t", "filters"),
	),
	ForgetRecent: key.NewBinding(
		key.WithKeys("ctrl+x"),
		key.WithHelp("C-x", "forget"),
	),
	ClearRecent: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("C-l", "clear history"),
	),
	ToggleValue: key.NewBinding(
		key.WithKeys(" ", "space", "enter"),
		key.WithHelp("space", "toggle"),
	),
	CycleDate: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "date range"),
	),
	ClearFilters: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "clear"),
	),
	LeavePicker: key.NewBinding(
		key.WithKeys("esc", "ctrl+t"),
		key.WithHelp("esc", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("C-c", "quit"),
	),
	QuitClosed: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
}
