// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli holds what the cmdsearch binaries share at the command
// line: categorized errors with optional hints, and the stderr logger.
package cli
