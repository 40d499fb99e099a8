// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package paletteui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/cmdsearch/lib/palette"
)

// Notifier turns controller observer calls into event-loop wake-ups.
// Its Observe method is the palette.Options.Observer. Observe never
// blocks: it runs under the controller's lock, so it only marks that a
// newer state exists and the model reads the snapshot itself.
type Notifier struct {
	wake chan struct{}
}

// NewNotifier returns a notifier with no pending wake-up.
func NewNotifier() *Notifier {
	return &Notifier{wake: make(chan struct{}, 1)}
}

// Observe records that the controller published a state.
func (notifier *Notifier) Observe(palette.State) {
	select {
	case notifier.wake <- struct{}{}:
	default:
	}
}

// stateMsg delivers a controller snapshot to the model.
type stateMsg struct {
	state palette.State
}

// waitForState blocks until the controller publishes, then reads its
// snapshot.
func waitForState(notifier *Notifier, controller *palette.Controller) tea.Cmd {
	return func() tea.Msg {
		<-notifier.wake
		return stateMsg{state: controller.Snapshot()}
	}
}

// Navigator records the URLs the controller navigates to. It is the
// palette.Options.Navigator for a terminal host.
type Navigator struct {
	mu      sync.Mutex
	last    string
	visited chan string
}

// NewNavigator returns an empty navigator.
func NewNavigator() *Navigator {
	return &Navigator{visited: make(chan string, 16)}
}

// GoTo implements search.Navigator.
func (navigator *Navigator) GoTo(url string) {
	navigator.mu.Lock()
	navigator.last = url
	navigator.mu.Unlock()

	select {
	case navigator.visited <- url:
	default:
	}
}

// Last returns the most recent URL, empty when nothing was chosen.
func (navigator *Navigator) Last() string {
	navigator.mu.Lock()
	defer navigator.mu.Unlock()
	return navigator.last
}

// navigateMsg reports one navigation.
type navigateMsg struct {
	url string
}

func waitForNavigation(navigator *Navigator) tea.Cmd {
	return func() tea.Msg {
		return navigateMsg{url: <-navigator.visited}
	}
}
