// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"io/fs"
	"os"

	"github.com/bureau-foundation/cmdsearch/lib/config"
)

// LoadConfig resolves the configuration for a binary: the --config
// path when given, else the file named by CMDSEARCH_CONFIG, else the
// built-in defaults. The result is validated and its root directory
// exists.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv(config.EnvironmentVariable)
	}

	var cfg *config.Config
	if path == "" {
		cfg = config.Default()
		cfg.ExpandVariables()
	} else {
		loaded, err := config.LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NotFound("config file %s does not exist", path).
				WithHint("Pass --config with an existing file, or unset " + config.EnvironmentVariable + " to use the defaults.")
		}
		if err != nil {
			return nil, Validation("loading config %s: %w", path, err)
		}
		cfg = loaded
	}

	if err := cfg.Validate(); err != nil {
		return nil, Validation("invalid configuration: %w", err)
	}
	if err := cfg.EnsureRoot(); err != nil {
		return nil, Internal("%w", err)
	}
	return cfg, nil
}
