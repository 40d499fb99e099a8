// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package paletteui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg carries one log record to the status bar.
type logRecordMsg struct {
	Summary string
	Level   slog.Level
}

// logRecordFadeMsg clears the status bar message.
type logRecordFadeMsg struct {
	// summary is the message the fade was scheduled for; a newer
	// record keeps its full display time.
	summary string
}

// logRecordFadeDelay is how long a record stays in the status bar.
const logRecordFadeDelay = 5 * time.Second

// TUILogHandler is a slog.Handler that shows records in the palette's
// status bar. Writing to stderr would corrupt the alt screen.
//
// Create it before the program, then call SetProgram. Records that
// arrive before SetProgram are dropped. Handlers derived through
// WithAttrs and WithGroup share the program pointer.
type TUILogHandler struct {
	level   slog.Level
	program *atomic.Pointer[tea.Program]
	attrs   []slog.Attr
	groups  []string
}

// NewTUILogHandler returns a handler for records at or above level.
func NewTUILogHandler(level slog.Level) *TUILogHandler {
	return &TUILogHandler{
		level:   level,
		program: &atomic.Pointer[tea.Program]{},
	}
}

// SetProgram sets the program that receives records. Safe from any
// goroutine.
func (handler *TUILogHandler) SetProgram(program *tea.Program) {
	handler.program.Store(program)
}

// Enabled implements slog.Handler.
func (handler *TUILogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level
}

// Handle formats record as "message (key=value, ...)" and sends it to
// the program. The controller logs from inside Update (a failed
// recent-list save during Select, for example), and Program.Send
// blocks until the event loop is free, so the send happens on its own
// goroutine.
func (handler *TUILogHandler) Handle(_ context.Context, record slog.Record) error {
	program := handler.program.Load()
	if program == nil {
		return nil
	}
	go program.Send(logRecordMsg{
		Summary: handler.summarize(record),
		Level:   record.Level,
	})
	return nil
}

func (handler *TUILogHandler) summarize(record slog.Record) string {
	prefix := ""
	if len(handler.groups) > 0 {
		prefix = strings.Join(handler.groups, ".") + "."
	}

	var parts []string
	for _, attr := range handler.attrs {
		parts = append(parts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
	}
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, fmt.Sprintf("%s%s=%s", prefix, attr.Key, attr.Value))
		return true
	})

	if len(parts) == 0 {
		return record.Message
	}
	return record.Message + " (" + strings.Join(parts, ", ") + ")"
}

// WithAttrs implements slog.Handler.
func (handler *TUILogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TUILogHandler{
		level:   handler.level,
		program: handler.program,
		attrs:   append(sliceClone(handler.attrs), attrs...),
		groups:  sliceClone(handler.groups),
	}
}

// WithGroup implements slog.Handler.
func (handler *TUILogHandler) WithGroup(name string) slog.Handler {
	return &TUILogHandler{
		level:   handler.level,
		program: handler.program,
		attrs:   sliceClone(handler.attrs),
		groups:  append(sliceClone(handler.groups), name),
	}
}

func sliceClone[T any](source []T) []T {
	if source == nil {
		return nil
	}
	return append(make([]T, 0, len(source)), source...)
}

// FanoutHandler sends every record to each of its handlers, for
// logging to the status bar and a file at once.
type FanoutHandler []slog.Handler

// Enabled reports whether any handler wants the level.
func (handlers FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle passes record to every enabled handler and returns the first
// error.
func (handlers FanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var first error
	for _, handler := range handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// WithAttrs implements slog.Handler.
func (handlers FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make(FanoutHandler, len(handlers))
	for i, handler := range handlers {
		derived[i] = handler.WithAttrs(attrs)
	}
	return derived
}

// WithGroup implements slog.Handler.
func (handlers FanoutHandler) WithGroup(name string) slog.Handler {
	derived := make(FanoutHandler, len(handlers))
	for i, handler := range handlers {
		derived[i] = handler.WithGroup(name)
	}
	return derived
}
