// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package dashui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gantry-foundation/gantry/lib/schema"
	"github.com/gantry-foundation/gantry/lib/trend"
	"github.com/gantry-foundation/gantry/lib/tui"
)

// showcaseAdvanceInterval is how long each stat screen holds before
// the showcase moves to the next one.
const showcaseAdvanceInterval = 10 * time.Second

// showcaseTickMsg advances the showcase to its next screen.
type showcaseTickMsg struct{}

func scheduleShowcaseTick() tea.Cmd {
	return tea.Tick(showcaseAdvanceInterval, func(time.Time) tea.Msg {
		return showcaseTickMsg{}
	})
}

// ShowcaseModel is the full-screen cycling stats view: one metric
// per screen in large type, advancing on a timer. While active the
// tour is suppressed, so the two never fight over the display.
type ShowcaseModel struct {
	Active bool
	index  int
}

// Advance moves to the next screen.
func (s *ShowcaseModel) Advance(screenCount int) {
	if screenCount <= 0 {
		s.index = 0
		return
	}
	s.index = (s.index + 1) % screenCount
}

// Reset returns to the first screen. Called on activation.
func (s *ShowcaseModel) Reset() {
	s.index = 0
}

// showcaseScreen is one full-screen stat: a headline value, a label,
// and an optional trend window for the sparkline footer.
type showcaseScreen struct {
	label    string
	headline string
	detail   string
	window   *trend.Window
}

// buildShowcaseScreens assembles the screen rotation from the
// current state, mirroring the card order.
func buildShowcaseScreens(sample schema.MachineSample, workloads []schema.Workload, trends map[string]*trend.Window) []showcaseScreen {
	screens := []showcaseScreen{
		{
			label:    "CPU",
			headline: fmt.Sprintf("%.0f%%", sample.CPUPercent),
			detail:   fmt.Sprintf("load %.2f", sample.Load1),
			window:   trends["cpu"],
		},
		{
			label:    "Memory",
			headline: fmt.Sprintf("%.0f%%", sample.MemPercent()),
			detail: fmt.Sprintf("%s of %s",
				formatBytes(sample.MemUsedBytes), formatBytes(sample.MemTotalBytes)),
			window: trends["memory"],
		},
	}
	for index := range sample.GPUs {
		gpu := &sample.GPUs[index]
		label := gpu.Name
		if label == "" {
			label = "GPU " + gpu.PCISlot
		}
		screens = append(screens, showcaseScreen{
			label:    label,
			headline: fmt.Sprintf("%.0f%%", gpu.UtilizationPercent),
			detail: fmt.Sprintf("vram %s of %s",
				formatBytes(gpu.VRAMUsedBytes), formatBytes(gpu.VRAMTotalBytes)),
			window: trends["gpu-"+gpu.PCISlot],
		})
	}

	active := 0
	for index := range workloads {
		if workloads[index].Active() {
			active++
		}
	}
	screens = append(screens, showcaseScreen{
		label:    "Workloads",
		headline: fmt.Sprintf("%d", active),
		detail:   "active on this machine",
	})
	return screens
}

// View renders the current showcase screen centered in the window.
func (s ShowcaseModel) View(sample schema.MachineSample, workloads []schema.Workload, trends map[string]*trend.Window, theme tui.Theme, width, height int) string {
	screens := buildShowcaseScreens(sample, workloads, trends)
	if len(screens) == 0 || width <= 0 || height <= 0 {
		return ""
	}
	screen := screens[s.index%len(screens)]

	label := lipgloss.NewStyle().
		Foreground(theme.FaintText).
		Render(screen.label)
	headline := lipgloss.NewStyle().
		Foreground(theme.AccentColor).
		Bold(true).
		Render(bigDigits(screen.headline))
	detail := lipgloss.NewStyle().
		Foreground(theme.NormalText).
		Render(screen.detail)

	parts := []string{label, "", headline, "", detail}
	if screen.window != nil && screen.window.Len() > 1 {
		sparkWidth := width / 2
		if sparkWidth > 60 {
			sparkWidth = 60
		}
		values := screen.window.Downsample(sparkWidth)
		parts = append(parts, "", lipgloss.NewStyle().
			Foreground(theme.AccentColor).
			Render(tui.SparklinePercent(values)))
	}
	position := lipgloss.NewStyle().
		Foreground(theme.FaintText).
		Render(fmt.Sprintf("%d / %d", s.index%len(screens)+1, len(screens)))
	parts = append(parts, "", position)

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// bigDigits renders a short numeric string as 3-row block glyphs.
// Only digits and '%' get the large treatment; anything else falls
// back to the plain string.
func bigDigits(text string) string {
	rows := [3]strings.Builder{}
	for _, r := range text {
		glyph, ok := blockGlyphs[r]
		if !ok {
			return text
		}
		for row := 0; row < 3; row++ {
			if rows[row].Len() > 0 {
				rows[row].WriteString(" ")
			}
			rows[row].WriteString(glyph[row])
		}
	}
	return rows[0].String() + "\n" + rows[1].String() + "\n" + rows[2].String()
}

// blockGlyphs is a 3-row block font for the showcase headline.
var blockGlyphs = map[rune][3]string{
	'0': {"█▀█", "█ █", "▀▀▀"},
	'1': {" █ ", " █ ", " ▀ "},
	'2': {"▀▀█", "█▀▀", "▀▀▀"},
	'3': {"▀▀█", " ▀█", "▀▀▀"},
	'4': {"█ █", "▀▀█", "  ▀"},
	'5': {"█▀▀", "▀▀█", "▀▀▀"},
	'6': {"█▀▀", "█▀█", "▀▀▀"},
	'7': {"▀▀█", "  █", "  ▀"},
	'8': {"█▀█", "█▀█", "▀▀▀"},
	'9': {"█▀█", "▀▀█", "▀▀▀"},
	'%': {"▀ █", " █ ", "█ ▀"},
	'.': {"   ", "   ", " ▀ "},
}
