// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shortcut

import (
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/bubbles/key"
)

// Keystroke is a key in bubbletea's string form ("ctrl+k", "esc").
// tea.KeyMsg satisfies fmt.Stringer the same way, so hosts can pass
// either.
type Keystroke string

func (k Keystroke) String() string { return string(k) }

// Handler reacts to a matched key. It returns whether the key was
// consumed; an unconsumed key falls through to the host.
type Handler func() bool

type listener struct {
	id      uint64
	binding key.Binding
	handler Handler
}

// Router dispatches keystrokes to registered listeners. It is safe
// for concurrent use. Handlers run without the router lock held and
// may add or remove listeners.
type Router struct {
	mu        sync.Mutex
	listeners []listener
	nextID    uint64
}

// NewRouter returns a router with no listeners.
func NewRouter() *Router {
	return &Router{}
}

// Add registers handler for binding. The returned function removes
// the listener; calling it more than once is a no-op.
func (r *Router) Add(binding key.Binding, handler Handler) (remove func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.listeners = append(r.listeners, listener{id: id, binding: binding, handler: handler})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.listeners = slices.DeleteFunc(r.listeners, func(entry listener) bool {
				return entry.id == id
			})
		})
	}
}

// Dispatch runs every listener whose binding matches keystroke, in
// registration order. Returns true if any handler consumed the key.
func (r *Router) Dispatch(keystroke fmt.Stringer) bool {
	r.mu.Lock()
	matched := make([]Handler, 0, 2)
	for _, entry := range r.listeners {
		if key.Matches(keystroke, entry.binding) {
			matched = append(matched, entry.handler)
		}
	}
	r.mu.Unlock()

	consumed := false
	for _, handler := range matched {
		if handler() {
			consumed = true
		}
	}
	return consumed
}

// ListenerCount returns the number of registered listeners.
func (r *Router) ListenerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}
