// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/gantry-foundation/gantry/lib/schema"
)

// Theme defines the color palette and visual properties for Gantry's
// terminal UIs. All colors use lipgloss ANSI 256-color codes for broad
// terminal compatibility.
//
// The fields cover both universal chrome (text, selection, borders)
// and semantic categories that recur across both dashboards: hardware
// utilization bands, workload states, and the spotlight tour's
// highlight and caption colors.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row or card.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Utilization bands (indexed 0-3: idle, light, busy, saturated).
	// Shared by CPU, GPU, VRAM, and RAM gauges so a glance reads the
	// same everywhere.
	UtilizationColors [4]lipgloss.Color

	// Temperature bands (cool, warm, hot) for GPU sensors.
	TemperatureCool lipgloss.Color
	TemperatureWarm lipgloss.Color
	TemperatureHot  lipgloss.Color

	// Workload state colors.
	StateRunning  lipgloss.Color
	StatePending  lipgloss.Color
	StateStopping lipgloss.Color
	StateExited   lipgloss.Color
	StateFailed   lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
	AccentColor      lipgloss.Color

	// Animation accents: background tint for recently-changed cards.
	// HotAccentPut is used for new/updated items; HotAccentRemove for
	// items that left the view.
	HotAccentPut    lipgloss.Color
	HotAccentRemove lipgloss.Color

	// Filter match highlighting.
	SearchHighlightBackground lipgloss.Color
	SearchCurrentBackground   lipgloss.Color

	// Spotlight tour: the highlighted card's border and the caption
	// box drawn near it.
	SpotlightBorder    lipgloss.Color
	CaptionForeground  lipgloss.Color
	CaptionBackground  lipgloss.Color
	CaptionTitleAccent lipgloss.Color
}

// UtilizationColor returns the band color for a 0-100 utilization
// percentage: idle below 25, light below 60, busy below 85, saturated
// at or above 85. Out-of-range values clamp to the nearest band.
func (theme Theme) UtilizationColor(percent float64) lipgloss.Color {
	switch {
	case percent < 25:
		return theme.UtilizationColors[0]
	case percent < 60:
		return theme.UtilizationColors[1]
	case percent < 85:
		return theme.UtilizationColors[2]
	default:
		return theme.UtilizationColors[3]
	}
}

// TemperatureColor returns the band color for a GPU temperature in
// degrees Celsius: cool below 60, warm below 80, hot at or above 80.
func (theme Theme) TemperatureColor(celsius int64) lipgloss.Color {
	switch {
	case celsius < 60:
		return theme.TemperatureCool
	case celsius < 80:
		return theme.TemperatureWarm
	default:
		return theme.TemperatureHot
	}
}

// StateColor returns the color for a workload state. Unknown states
// render as FaintText.
func (theme Theme) StateColor(state schema.WorkloadState) lipgloss.Color {
	switch state {
	case schema.StateRunning:
		return theme.StateRunning
	case schema.StatePending:
		return theme.StatePending
	case schema.StateStopping:
		return theme.StateStopping
	case schema.StateExited:
		return theme.StateExited
	case schema.StateFailed:
		return theme.StateFailed
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme. Designed for
// 256-color terminals with a dark background (the common case for
// development environments and tmux sessions).
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	UtilizationColors: [4]lipgloss.Color{
		lipgloss.Color("245"), // idle: gray
		lipgloss.Color("114"), // light: green
		lipgloss.Color("220"), // busy: amber
		lipgloss.Color("196"), // saturated: red
	},

	TemperatureCool: lipgloss.Color("114"), // green
	TemperatureWarm: lipgloss.Color("220"), // amber
	TemperatureHot:  lipgloss.Color("196"), // red

	StateRunning:  lipgloss.Color("114"), // green
	StatePending:  lipgloss.Color("220"), // amber
	StateStopping: lipgloss.Color("208"), // orange
	StateExited:   lipgloss.Color("245"), // gray
	StateFailed:   lipgloss.Color("196"), // red

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
	AccentColor:      lipgloss.Color("75"), // blue

	HotAccentPut:    lipgloss.Color("58"), // dark amber background tint
	HotAccentRemove: lipgloss.Color("52"), // dark red background tint

	SearchHighlightBackground: lipgloss.Color("58"),
	SearchCurrentBackground:   lipgloss.Color("100"),

	SpotlightBorder:    lipgloss.Color("220"), // amber ring around the toured card
	CaptionForeground:  lipgloss.Color("252"),
	CaptionBackground:  lipgloss.Color("237"),
	CaptionTitleAccent: lipgloss.Color("220"),
}
