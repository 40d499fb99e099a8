// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "CMDSEARCH_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Close policies.
const (
	ClosePolicyReset   = "reset"
	ClosePolicyRestore = "restore"
)

// Recent store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreSealed = "sealed"
	StoreMemory = "memory"
)

// Config is the complete configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	// Root is the base directory for state. Available to other paths
	// as ${CMDSEARCH_ROOT}.
	Root string `yaml:"root"`

	Search       SearchConfig       `yaml:"search"`
	Shortcuts    ShortcutsConfig    `yaml:"shortcuts"`
	Recent       RecentConfig       `yaml:"recent"`
	Service      ServiceConfig      `yaml:"service"`
	QuickActions QuickActionsConfig `yaml:"quick_actions"`

	Development *Overrides `yaml:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides holds the per-environment sections.
type Overrides struct {
	Search  *SearchConfig  `yaml:"search,omitempty"`
	Service *ServiceConfig `yaml:"service,omitempty"`
}

// SearchConfig tunes the palette controller.
type SearchConfig struct {
	// Debounce is the quiet period before a query is sent.
	// Default: 300ms
	Debounce string `yaml:"debounce"`

	// MinQueryLength is the shortest query, in characters, that is
	// sent to the backend. Default: 2
	MinQueryLength int `yaml:"min_query_length"`

	// Limit is the maximum number of results requested. Default: 50
	Limit int `yaml:"limit"`

	// RequestTimeout bounds one backend call. Default: 10s
	RequestTimeout string `yaml:"request_timeout"`

	// ClosePolicy is "reset" (clear filters on close) or "restore"
	// (put back the filters from before the palette opened).
	// Default: reset
	ClosePolicy string `yaml:"close_policy"`

	// RecentShown is how many recent items an empty query lists.
	// Default: 5
	RecentShown int `yaml:"recent_shown"`
}

// ShortcutsConfig lists the key chords, in bubbles/key notation.
type ShortcutsConfig struct {
	// Default: [ctrl+k]
	Open []string `yaml:"open"`

	// Default: [esc]
	Close []string `yaml:"close"`
}

// RecentConfig configures the recently-viewed cache.
type RecentConfig struct {
	// Capacity is the number of items kept. Default: 10
	Capacity int `yaml:"capacity"`

	// Store is one of file, sqlite, sealed or memory. Default: file
	Store string `yaml:"store"`

	// Path is the file or database path. Default: ${CMDSEARCH_ROOT}/recent.blob
	Path string `yaml:"path"`

	// Compression is none, lz4 or zstd. Default: lz4
	Compression string `yaml:"compression"`

	// IdentityFile holds the age identity for the sealed store,
	// created on first use. Default: ${CMDSEARCH_ROOT}/recent.key
	IdentityFile string `yaml:"identity_file"`
}

// ServiceConfig configures the index service and how the palette
// reaches it.
type ServiceConfig struct {
	// SocketPath is where the index service listens.
	// Default: ${CMDSEARCH_ROOT}/index.sock
	SocketPath string `yaml:"socket_path"`

	// Corpus is the JSONL corpus the service indexes. When set, the
	// palette may also load it in process instead of dialing the
	// socket.
	Corpus string `yaml:"corpus"`

	// Watch reloads the corpus when the file changes. Default: true
	Watch *bool `yaml:"watch,omitempty"`

	// MetricsListen is the address for the Prometheus endpoint.
	// Empty disables it.
	MetricsListen string `yaml:"metrics_listen"`
}

// QuickActionsConfig points at a quick-action catalog.
type QuickActionsConfig struct {
	// Catalog is a JSONC file. Empty uses the built-in list.
	Catalog string `yaml:"catalog"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	watch := true
	return &Config{
		Environment: Development,
		Root:        filepath.Join(homeDir, ".cache", "cmdsearch"),
		Search: SearchConfig{
			Debounce:       "300ms",
			MinQueryLength: 2,
			Limit:          50,
			RequestTimeout: "10s",
			ClosePolicy:    ClosePolicyReset,
			RecentShown:    5,
		},
		Shortcuts: ShortcutsConfig{
			Open:  []string{"ctrl+k"},
			Close: []string{"esc"},
		},
		Recent: RecentConfig{
			Capacity:     10,
			Store:        StoreFile,
			Path:         "${CMDSEARCH_ROOT}/recent.blob",
			Compression:  "lz4",
			IdentityFile: "${CMDSEARCH_ROOT}/recent.key",
		},
		Service: ServiceConfig{
			SocketPath: "${CMDSEARCH_ROOT}/index.sock",
			Watch:      &watch,
		},
	}
}

// Load reads the file named by CMDSEARCH_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your cmdsearch.yaml, or use --config", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile merges the file at path over Default, applies the
// environment section and expands path variables. The result is not
// validated; call Validate.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.applyEnvironmentOverrides()
	cfg.ExpandVariables()
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if search := overrides.Search; search != nil {
		if search.Debounce != "" {
			c.Search.Debounce = search.Debounce
		}
		if search.MinQueryLength != 0 {
			c.Search.MinQueryLength = search.MinQueryLength
		}
		if search.Limit != 0 {
			c.Search.Limit = search.Limit
		}
		if search.RequestTimeout != "" {
			c.Search.RequestTimeout = search.RequestTimeout
		}
		if search.ClosePolicy != "" {
			c.Search.ClosePolicy = search.ClosePolicy
		}
		if search.RecentShown != 0 {
			c.Search.RecentShown = search.RecentShown
		}
	}

	if service := overrides.Service; service != nil {
		if service.SocketPath != "" {
			c.Service.SocketPath = service.SocketPath
		}
		if service.Corpus != "" {
			c.Service.Corpus = service.Corpus
		}
		if service.Watch != nil {
			c.Service.Watch = service.Watch
		}
		if service.MetricsListen != "" {
			c.Service.MetricsListen = service.MetricsListen
		}
	}
}

// ExpandVariables expands ${CMDSEARCH_ROOT}, ${HOME} and
// ${VAR:-default} in path fields. LoadFile calls it; callers that
// start from Default call it themselves.
func (c *Config) ExpandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Root = expandVars(c.Root, vars)
	vars["CMDSEARCH_ROOT"] = c.Root

	c.Recent.Path = expandVars(c.Recent.Path, vars)
	c.Recent.IdentityFile = expandVars(c.Recent.IdentityFile, vars)
	c.Service.SocketPath = expandVars(c.Service.SocketPath, vars)
	c.Service.Corpus = expandVars(c.Service.Corpus, vars)
	c.QuickActions.Catalog = expandVars(c.QuickActions.Catalog, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces ${NAME} and ${NAME:-default}, looking in vars
// first and then the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// DebounceDelay parses Search.Debounce.
func (c *Config) DebounceDelay() (time.Duration, error) {
	return parseDuration("search.debounce", c.Search.Debounce)
}

// RequestTimeout parses Search.RequestTimeout. Empty means no bound.
func (c *Config) RequestTimeout() (time.Duration, error) {
	if c.Search.RequestTimeout == "" {
		return 0, nil
	}
	return parseDuration("search.request_timeout", c.Search.RequestTimeout)
}

// WatchCorpus reports whether the service should reload the corpus
// on change.
func (c *Config) WatchCorpus() bool {
	return c.Service.Watch == nil || *c.Service.Watch
}

func parseDuration(field, value string) (time.Duration, error) {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("%s: must not be negative", field)
	}
	return duration, nil
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if _, err := c.DebounceDelay(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.RequestTimeout(); err != nil {
		errs = append(errs, err)
	}
	if c.Search.MinQueryLength < 1 {
		errs = append(errs, errors.New("search.min_query_length must be at least 1"))
	}
	if c.Search.Limit < 1 {
		errs = append(errs, errors.New("search.limit must be at least 1"))
	}
	if c.Search.RecentShown < 0 {
		errs = append(errs, errors.New("search.recent_shown must not be negative"))
	}
	closePolicies := []string{ClosePolicyReset, ClosePolicyRestore}
	if !slices.Contains(closePolicies, c.Search.ClosePolicy) {
		errs = append(errs, fmt.Errorf("search.close_policy must be one of: %v", closePolicies))
	}

	if len(c.Shortcuts.Open) == 0 {
		errs = append(errs, errors.New("shortcuts.open needs at least one key"))
	}
	if len(c.Shortcuts.Close) == 0 {
		errs = append(errs, errors.New("shortcuts.close needs at least one key"))
	}

	if c.Recent.Capacity < 1 {
		errs = append(errs, errors.New("recent.capacity must be at least 1"))
	}
	stores := []string{StoreFile, StoreSQLite, StoreSealed, StoreMemory}
	if !slices.Contains(stores, c.Recent.Store) {
		errs = append(errs, fmt.Errorf("recent.store must be one of: %v", stores))
	}
	if c.Recent.Store != StoreMemory && c.Recent.Path == "" {
		errs = append(errs, errors.New("recent.path is required unless recent.store is memory"))
	}
	if c.Recent.Store == StoreSealed && c.Recent.IdentityFile == "" {
		errs = append(errs, errors.New("recent.identity_file is required for the sealed store"))
	}
	compressions := []string{"", "none", "lz4", "zstd"}
	if !slices.Contains(compressions, c.Recent.Compression) {
		errs = append(errs, fmt.Errorf("recent.compression must be one of: none, lz4, zstd"))
	}

	if c.Service.SocketPath == "" {
		errs = append(errs, errors.New("service.socket_path is required"))
	}

	return errors.Join(errs...)
}

// EnsureRoot creates the state directory.
func (c *Config) EnsureRoot() error {
	if c.Root == "" {
		return nil
	}
	if err := os.MkdirAll(c.Root, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", c.Root, err)
	}
	return nil
}
