// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package shortcut owns the palette's global key bindings.
//
// A [Router] is the process-wide dispatch point: the host event loop
// hands every keystroke to [Router.Dispatch], which runs the handlers
// of every listener whose binding matches. Listeners are added with
// [Router.Add] and removed with the function it returns.
//
// A [Manager] attaches a palette to a router. [Manager.Attach] adds
// exactly two listeners, one for the open chord (Ctrl+K by default)
// and one for Escape that only consumes the key while the palette is
// open, and returns a detach function. Attaching again while attached
// adds nothing and hands back the same detach function, so repeated
// mounts of a host view cannot stack listeners and fire the open
// handler twice per keypress. Detach may be called any number of
// times.
package shortcut
