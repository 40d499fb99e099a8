// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the YAML configuration shared by the cmdsearch
// binaries.
//
// A file is read from the CMDSEARCH_CONFIG environment variable (via
// [Load]) or an explicit path (via [LoadFile]). There is no discovery
// of ~/.config or the working directory; a binary started without
// either runs on [Default].
//
// The file may carry development and production sections that
// override the search and service settings when [Config].Environment
// matches. After merging, ${CMDSEARCH_ROOT}, ${HOME} and
// ${VAR:-default} patterns in path fields are expanded.
//
// Durations are stored as strings ("300ms") and parsed by accessor
// methods, so a typo is reported by [Config.Validate] with the field
// name instead of as a YAML type error.
//
// This package depends on no other cmdsearch packages.
package config
