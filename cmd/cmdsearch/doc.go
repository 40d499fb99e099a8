// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// cmdsearch is the interactive command palette. It opens a search box
// in the terminal, queries either a running cmdsearch-index service
// or a corpus loaded in process, and prints the URL of the chosen
// result on exit, so it composes with shell tools:
//
//	xdg-open "$(cmdsearch)"
//
// With --status it prints the index service's corpus summary instead.
package main
