// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taigaui

import "github.com/charmbracelet/lipgloss"

// Theme is the color palette. Colors are ANSI 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Tab bar.
	TabActive   lipgloss.Color
	TabInactive lipgloss.Color

	// Items by state.
	Open        lipgloss.Color
	Closed      lipgloss.Color
	Placeholder lipgloss.Color
	Failure     lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Background of characters matching the search query.
	SearchHighlightBackground lipgloss.Color

	// Status line levels.
	StatusInfo  lipgloss.Color
	StatusWarn  lipgloss.Color
	StatusError lipgloss.Color

	LinkForeground lipgloss.Color
}

// DefaultTheme suits a dark 256-color terminal.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	TabActive:   lipgloss.Color("75"),
	TabInactive: lipgloss.Color("241"),

	Open:        lipgloss.Color("114"),
	Closed:      lipgloss.Color("245"),
	Placeholder: lipgloss.Color("244"),
	Failure:     lipgloss.Color("196"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	SearchHighlightBackground: lipgloss.Color("58"),

	StatusInfo:  lipgloss.Color("114"),
	StatusWarn:  lipgloss.Color("220"),
	StatusError: lipgloss.Color("196"),

	LinkForeground: lipgloss.Color("75"),
}
