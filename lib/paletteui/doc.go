// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package paletteui is the terminal host for a palette.Controller,
// built on bubbletea.
//
// The model owns no search logic. Every keystroke is first offered to
// the shortcut Router (so Ctrl+K and Escape behave the same as in any
// other host), then handled as list navigation or forwarded to the
// query input, whose value is passed to Controller.SetQuery. State
// flows back two ways: the model re-reads Controller.Snapshot after
// each action it takes, and a [Notifier] wired as the controller's
// observer wakes the event loop when asynchronous results land. A
// snapshot whose revision is not newer than the one on screen is
// ignored, so late wake-ups never roll the view back.
//
// Navigation is reported through [Navigator], which the model also
// listens to; a host that only needs the chosen URL sets
// Options.QuitOnNavigate.
//
// Background log records reach the status bar through
// [TUILogHandler].
package paletteui
