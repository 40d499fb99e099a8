// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shortcut

import (
	"log/slog"
	"sync"

	"github.com/charmbracelet/bubbles/key"
)

// Target is what the shortcuts drive. The palette controller
// implements it.
type Target interface {
	Open()
	Close()
	IsOpen() bool
}

// KeyMap holds the two global bindings.
type KeyMap struct {
	Open  key.Binding
	Close key.Binding
}

// DefaultKeyMap binds Ctrl+K to open and Escape to close.
var DefaultKeyMap = KeyMap{
	Open: key.NewBinding(
		key.WithKeys("ctrl+k"),
		key.WithHelp("C-k", "search"),
	),
	Close: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close"),
	),
}

// NewKeyMap builds a KeyMap from key lists, falling back to the
// default for an empty list.
func NewKeyMap(openKeys, closeKeys []string) KeyMap {
	keyMap := DefaultKeyMap
	if len(openKeys) > 0 {
		keyMap.Open = key.NewBinding(key.WithKeys(openKeys...), key.WithHelp(openKeys[0], "search"))
	}
	if len(closeKeys) > 0 {
		keyMap.Close = key.NewBinding(key.WithKeys(closeKeys...), key.WithHelp(closeKeys[0], "close"))
	}
	return keyMap
}

// Manager attaches one Target's shortcuts to a Router at most once at
// a time.
type Manager struct {
	router *Router
	keys   KeyMap
	logger *slog.Logger

	mu     sync.Mutex
	target Target
	detach func()
}

// NewManager returns a detached manager. A nil logger discards.
func NewManager(router *Router, keys KeyMap, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{router: router, keys: keys, logger: logger}
}

// Attach registers the open and close listeners for target and
// returns the function that removes them. While attached, attaching
// the same target registers nothing and returns the same detach
// function. A different target is refused: it gets a detach that does
// nothing, so it can never remove the attached target's listeners.
func (m *Manager) Attach(target Target) (detach func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.target != nil {
		if m.target != target {
			m.logger.Warn("shortcuts already attached to another target, ignoring attach")
			return func() {}
		}
		m.logger.Debug("shortcuts already attached, ignoring duplicate attach")
		return m.detach
	}

	removeOpen := m.router.Add(m.keys.Open, func() bool {
		target.Open()
		return true
	})
	removeClose := m.router.Add(m.keys.Close, func() bool {
		if !target.IsOpen() {
			return false
		}
		target.Close()
		return true
	})

	var once sync.Once
	m.detach = func() {
		once.Do(func() {
			removeOpen()
			removeClose()

			m.mu.Lock()
			m.target = nil
			m.detach = nil
			m.mu.Unlock()
		})
	}
	m.target = target
	return m.detach
}

// Keys returns the bindings, for help text.
func (m *Manager) Keys() KeyMap {
	return m.keys
}
