// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package dashui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/gantry-foundation/gantry/lib/schema"
	"github.com/gantry-foundation/gantry/lib/trend"
	"github.com/gantry-foundation/gantry/lib/tui"
)

// CardKind identifies what a card shows.
type CardKind int

const (
	// CardCPU is the aggregate CPU/load card.
	CardCPU CardKind = iota
	// CardMemory is the RAM and swap card.
	CardMemory
	// CardGPU is one physical GPU (one card per enumerated device).
	CardGPU
	// CardWorkloads lists the processes holding GPU memory.
	CardWorkloads
	// CardModels lists the installed-model registry.
	CardModels
)

// Card is one tile in the dashboard grid. IDs are stable across
// refreshes — "cpu", "memory", "gpu-<pci-slot>", "workloads",
// "models" — and double as spotlight candidate IDs and caption
// catalog keys.
type Card struct {
	ID    string
	Kind  CardKind
	Title string

	// Lines is the styled card body, built for a specific inner
	// width by buildCards.
	Lines []string
}

// Card geometry in terminal cells. The grid fits as many
// minCardWidth columns as the terminal allows and stretches them.
const (
	cardInnerHeight = 6
	cardOuterHeight = cardInnerHeight + 2 // border rows
	minCardWidth    = 38
	maxGridColumns  = 4
)

// gridColumns returns how many card columns fit in the given width.
func gridColumns(width int) int {
	columns := width / minCardWidth
	if columns < 1 {
		columns = 1
	}
	if columns > maxGridColumns {
		columns = maxGridColumns
	}
	return columns
}

// buildCards assembles the card list for the current state, in the
// fixed tour order: cpu, memory, each GPU by PCI slot, workloads,
// models. innerWidth is the usable width inside a card border.
// workloadCursor below is the index of the workload marked for the
// stop action, or -1 for none.
func buildCards(sample schema.MachineSample, workloads []schema.Workload, models []schema.ModelArtifact, trends map[string]*trend.Window, theme tui.Theme, innerWidth, workloadCursor int) []Card {
	cards := []Card{
		buildCPUCard(sample, trends["cpu"], theme, innerWidth),
		buildMemoryCard(sample, trends["memory"], theme, innerWidth),
	}
	for index := range sample.GPUs {
		gpu := &sample.GPUs[index]
		cards = append(cards, buildGPUCard(gpu, trends["gpu-"+gpu.PCISlot], theme, innerWidth))
	}
	cards = append(cards,
		buildWorkloadsCard(workloads, theme, innerWidth, workloadCursor),
		buildModelsCard(models, theme, innerWidth),
	)
	return cards
}

func buildCPUCard(sample schema.MachineSample, window *trend.Window, theme tui.Theme, width int) Card {
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	lines := []string{
		gaugeLine("util", sample.CPUPercent, theme, width),
		faint.Render(fmt.Sprintf("load %.2f  up %s", sample.Load1, formatUptime(sample.UptimeSeconds))),
		"",
		trendLine(window, theme, width),
	}
	return Card{ID: "cpu", Kind: CardCPU, Title: "CPU", Lines: padLines(lines, width, cardInnerHeight)}
}

func buildMemoryCard(sample schema.MachineSample, window *trend.Window, theme tui.Theme, width int) Card {
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	lines := []string{
		gaugeLine("ram", sample.MemPercent(), theme, width),
		faint.Render(fmt.Sprintf("%s / %s",
			formatBytes(sample.MemUsedBytes), formatBytes(sample.MemTotalBytes))),
	}
	if sample.SwapTotalBytes > 0 {
		lines = append(lines, faint.Render(fmt.Sprintf("swap %s / %s",
			formatBytes(sample.SwapUsedBytes), formatBytes(sample.SwapTotalBytes))))
	} else {
		lines = append(lines, "")
	}
	lines = append(lines, trendLine(window, theme, width))
	return Card{ID: "memory", Kind: CardMemory, Title: "Memory", Lines: padLines(lines, width, cardInnerHeight)}
}

func buildGPUCard(gpu *schema.GPUSample, window *trend.Window, theme tui.Theme, width int) Card {
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)

	title := gpu.Name
	if title == "" {
		title = "GPU " + gpu.PCISlot
	}

	sensorParts := []string{}
	if gpu.TemperatureMillidegrees != 0 {
		celsius := gpu.TemperatureCelsius()
		sensorParts = append(sensorParts, lipgloss.NewStyle().
			Foreground(theme.TemperatureColor(celsius)).
			Render(fmt.Sprintf("%d°C", celsius)))
	}
	if gpu.PowerDrawWatts > 0 {
		sensorParts = append(sensorParts, faint.Render(fmt.Sprintf("%.0fW", gpu.PowerDrawWatts)))
	}
	if gpu.ClockMHz > 0 {
		sensorParts = append(sensorParts, faint.Render(fmt.Sprintf("%dMHz", gpu.ClockMHz)))
	}

	lines := []string{
		gaugeLine("util", gpu.UtilizationPercent, theme, width),
		gaugeLine("vram", gpu.VRAMPercent(), theme, width),
		faint.Render(fmt.Sprintf("%s / %s",
			formatBytes(gpu.VRAMUsedBytes), formatBytes(gpu.VRAMTotalBytes))),
		strings.Join(sensorParts, "  "),
		trendLine(window, theme, width),
	}
	return Card{
		ID:    "gpu-" + gpu.PCISlot,
		Kind:  CardGPU,
		Title: title,
		Lines: padLines(lines, width, cardInnerHeight),
	}
}

func buildWorkloadsCard(workloads []schema.Workload, theme tui.Theme, width, cursor int) Card {
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)

	var lines []string
	if len(workloads) == 0 {
		lines = append(lines, faint.Render("no active workloads"))
	}
	for index := range workloads {
		if index >= cardInnerHeight {
			lines[cardInnerHeight-1] = faint.Render(
				fmt.Sprintf("… and %d more", len(workloads)-cardInnerHeight+1))
			break
		}
		workload := &workloads[index]
		marker := " "
		if index == cursor {
			marker = lipgloss.NewStyle().Foreground(theme.AccentColor).Render("▸")
		}
		dot := lipgloss.NewStyle().
			Foreground(theme.StateColor(workload.State)).
			Render("●")
		label := fmt.Sprintf(" %s %s", workload.Name, faint.Render(
			fmt.Sprintf("%s %s", workload.Kind, formatBytes(workload.VRAMReservedBytes))))
		lines = append(lines, ansi.Truncate(marker+dot+label, width, "…"))
	}
	return Card{
		ID:    "workloads",
		Kind:  CardWorkloads,
		Title: fmt.Sprintf("Workloads (%d)", len(workloads)),
		Lines: padLines(lines, width, cardInnerHeight),
	}
}

func buildModelsCard(models []schema.ModelArtifact, theme tui.Theme, width int) Card {
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)

	var lines []string
	if len(models) == 0 {
		lines = append(lines, faint.Render("no installed models"))
	}
	for index := range models {
		if index >= cardInnerHeight {
			lines[cardInnerHeight-1] = faint.Render(
				fmt.Sprintf("… and %d more", len(models)-cardInnerHeight+1))
			break
		}
		model := &models[index]
		detail := string(model.Format)
		if model.ParameterCount > 0 {
			detail = formatParameters(model.ParameterCount) + " " + detail
		}
		line := fmt.Sprintf("%s %s", model.Name,
			faint.Render(fmt.Sprintf("%s %s", detail, formatBytes(model.SizeBytes))))
		lines = append(lines, ansi.Truncate(line, width, "…"))
	}
	return Card{
		ID:    "models",
		Kind:  CardModels,
		Title: fmt.Sprintf("Models (%d)", len(models)),
		Lines: padLines(lines, width, cardInnerHeight),
	}
}

// gaugeLine renders "label ▮▮▮▮▯▯▯ 43%" with the bar colored by the
// utilization band.
func gaugeLine(label string, percent float64, theme tui.Theme, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	// label + space + bar + space + "100%"
	barWidth := width - len(label) - 6
	if barWidth < 4 {
		barWidth = 4
	}
	filled := int(percent * float64(barWidth) / 100)

	bar := lipgloss.NewStyle().
		Foreground(theme.UtilizationColor(percent)).
		Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().
			Foreground(theme.BorderColor).
			Render(strings.Repeat("░", barWidth-filled))

	return fmt.Sprintf("%s %s %3.0f%%",
		lipgloss.NewStyle().Foreground(theme.FaintText).Render(label), bar, percent)
}

// trendLine renders the card's utilization sparkline, or an empty
// line while the window has no samples yet.
func trendLine(window *trend.Window, theme tui.Theme, width int) string {
	if window == nil || window.Len() == 0 {
		return ""
	}
	values := window.Downsample(width)
	return lipgloss.NewStyle().
		Foreground(theme.AccentColor).
		Render(tui.SparklinePercent(values))
}

// padLines trims or pads a card body to exactly height lines, each
// truncated to width.
func padLines(lines []string, width, height int) []string {
	if len(lines) > height {
		lines = lines[:height]
	}
	for index, line := range lines {
		if ansi.StringWidth(line) > width {
			lines[index] = ansi.Truncate(line, width, "…")
		}
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines
}

// renderCard draws a card with its border. Highlight beats selection
// beats heat: the spotlight ring uses the spotlight color with the
// pulse phase driving its bold flash, selection uses the accent, and
// a recently changed card glows in the heat tint while it decays.
func renderCard(card Card, theme tui.Theme, innerWidth int, selected, highlighted bool, pulse, heat float64, heatKind tui.HeatKind) string {
	borderColor := theme.BorderColor
	titleColor := theme.HeaderForeground
	bold := false

	switch {
	case highlighted:
		borderColor = theme.SpotlightBorder
		titleColor = theme.SpotlightBorder
		bold = pulse > 0.7
	case selected:
		borderColor = theme.AccentColor
		titleColor = theme.AccentColor
	case heat > 0:
		borderColor = theme.HotAccentPut
		if heatKind == tui.HeatRemove {
			borderColor = theme.HotAccentRemove
		}
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(innerWidth).
		Height(cardInnerHeight)

	title := lipgloss.NewStyle().
		Foreground(titleColor).
		Bold(bold || selected || highlighted).
		Render(ansi.Truncate(card.Title, innerWidth, "…"))

	body := title + "\n" + strings.Join(card.Lines[:cardInnerHeight-1], "\n")
	return style.Render(body)
}

// formatBytes renders a byte count with a binary unit, one decimal
// for gigabytes and above.
func formatBytes(bytes uint64) string {
	switch {
	case bytes >= 1<<40:
		return fmt.Sprintf("%.1fTiB", float64(bytes)/float64(1<<40))
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1fGiB", float64(bytes)/float64(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%dMiB", bytes>>20)
	case bytes >= 1<<10:
		return fmt.Sprintf("%dKiB", bytes>>10)
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

// formatParameters renders a parameter count the way model names do:
// "70B", "7B", "350M".
func formatParameters(count uint64) string {
	switch {
	case count >= 1_000_000_000:
		return fmt.Sprintf("%.0fB", float64(count)/1e9)
	case count >= 1_000_000:
		return fmt.Sprintf("%.0fM", float64(count)/1e6)
	default:
		return fmt.Sprintf("%d", count)
	}
}

// formatUptime renders seconds-since-boot as "3d4h" / "4h12m" / "52m".
func formatUptime(seconds uint64) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd%dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh%dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
