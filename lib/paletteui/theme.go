// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package paletteui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/cmdsearch/lib/search"
)

// Theme is the palette's color scheme, in ANSI 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	ErrorText   lipgloss.Color
	WarningText lipgloss.Color

	// FilterChip colors active filters in the bar under the input.
	FilterChip lipgloss.Color

	TypeColors map[search.ResultType]lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal scheme.
var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("243"),
	SelectedBackground: lipgloss.Color("237"),
	SelectedForeground: lipgloss.Color("255"),
	HeaderForeground:   lipgloss.Color("75"),
	BorderColor:        lipgloss.Color("240"),
	HelpText:           lipgloss.Color("241"),
	ErrorText:          lipgloss.Color("203"),
	WarningText:        lipgloss.Color("214"),
	FilterChip:         lipgloss.Color("114"),
	TypeColors: map[search.ResultType]lipgloss.Color{
		search.TypeFeedback:     lipgloss.Color("215"),
		search.TypeArticle:      lipgloss.Color("111"),
		search.TypeRoadmap:      lipgloss.Color("141"),
		search.TypeChangelog:    lipgloss.Color("150"),
		search.TypeBoard:        lipgloss.Color("180"),
		search.TypeOrganization: lipgloss.Color("117"),
		search.TypeWorkItem:     lipgloss.Color("222"),
		search.TypeUser:         lipgloss.Color("218"),
	},
}

// TypeColor returns the accent for a result type, NormalText for an
// unknown one.
func (theme Theme) TypeColor(resultType search.ResultType) lipgloss.Color {
	if color, ok := theme.TypeColors[resultType]; ok {
		return color
	}
	return theme.NormalText
}
