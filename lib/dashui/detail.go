// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package dashui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/gantry-foundation/gantry/lib/schema"
	"github.com/gantry-foundation/gantry/lib/trend"
	"github.com/gantry-foundation/gantry/lib/tui"
)

// detailHeaderLines is the fixed header above the scrollable body.
const detailHeaderLines = 2

// DetailPane is the scrollable markdown pane describing the selected
// card. Content re-renders on resize so word wrap tracks the
// splitter.
type DetailPane struct {
	viewport viewport.Model
	theme    tui.Theme
	width    int
	height   int

	// Retained for re-rendering on resize.
	hasCard   bool
	card      Card
	sample    schema.MachineSample
	workloads []schema.Workload
	models    []schema.ModelArtifact
	window    *trend.Window

	header string
}

// NewDetailPane creates an empty detail pane.
func NewDetailPane(theme tui.Theme) DetailPane {
	return DetailPane{theme: theme}
}

func (pane DetailPane) bodyHeight() int {
	result := pane.height - detailHeaderLines
	if result < 1 {
		result = 1
	}
	return result
}

// contentWidth is the pane width minus the left padding column and
// the scrollbar column.
func (pane DetailPane) contentWidth() int {
	return pane.width - 2
}

// SetSize updates the pane dimensions, re-rendering the content when
// the width changed so markdown wrapping stays correct.
func (pane *DetailPane) SetSize(width, height int) {
	previousWidth := pane.width
	pane.width = width
	pane.height = height
	pane.viewport.Width = pane.contentWidth()
	pane.viewport.Height = pane.bodyHeight()

	if pane.hasCard && width != previousWidth {
		pane.rerender()
	}
}

// SetContent renders the detail document for a card against the
// current machine state. Scroll position resets when the displayed
// card changes and is kept on same-card refreshes.
func (pane *DetailPane) SetContent(card Card, sample schema.MachineSample, workloads []schema.Workload, models []schema.ModelArtifact, window *trend.Window) {
	cardChanged := card.ID != pane.card.ID || !pane.hasCard

	pane.hasCard = true
	pane.card = card
	pane.sample = sample
	pane.workloads = workloads
	pane.models = models
	pane.window = window

	pane.rerender()
	if cardChanged {
		pane.viewport.GotoTop()
	}
}

// Clear empties the pane.
func (pane *DetailPane) Clear() {
	pane.hasCard = false
	pane.card = Card{}
	pane.header = ""
	pane.viewport.SetContent("")
}

func (pane *DetailPane) rerender() {
	title := lipgloss.NewStyle().
		Foreground(pane.theme.HeaderForeground).
		Bold(true).
		Render(ansi.Truncate(pane.card.Title, pane.contentWidth(), "…"))
	pane.header = " " + title + "\n"

	document := buildDetailMarkdown(pane.card, pane.sample, pane.workloads, pane.models, pane.window)
	body := renderDetailMarkdown(document, pane.theme, pane.contentWidth())
	pane.viewport.SetContent(body)
}

// ScrollUp moves the body up by n lines.
func (pane *DetailPane) ScrollUp(n int) { pane.viewport.LineUp(n) }

// ScrollDown moves the body down by n lines.
func (pane *DetailPane) ScrollDown(n int) { pane.viewport.LineDown(n) }

// GotoTop scrolls to the beginning of the body.
func (pane *DetailPane) GotoTop() { pane.viewport.GotoTop() }

// GotoBottom scrolls to the end of the body.
func (pane *DetailPane) GotoBottom() { pane.viewport.GotoBottom() }

// View renders the pane: fixed header, scrollable body, and a
// scrollbar column when the body overflows.
func (pane DetailPane) View(focused bool) string {
	if !pane.hasCard {
		empty := lipgloss.NewStyle().Foreground(pane.theme.FaintText).Render("select a card")
		return " " + empty
	}

	body := pane.viewport.View()
	bar := tui.RenderScrollbar(
		pane.theme,
		pane.bodyHeight(),
		pane.viewport.TotalLineCount(),
		pane.viewport.Height,
		pane.viewport.YOffset,
		focused)
	bodyLines := strings.Split(body, "\n")
	barLines := strings.Split(bar, "\n")
	var joined strings.Builder
	for index, line := range bodyLines {
		joined.WriteString(" " + line)
		if index < len(barLines) {
			padding := pane.contentWidth() - ansi.StringWidth(line)
			if padding > 0 {
				joined.WriteString(strings.Repeat(" ", padding))
			}
			joined.WriteString(barLines[index])
		}
		if index < len(bodyLines)-1 {
			joined.WriteString("\n")
		}
	}

	return pane.header + joined.String()
}

// buildDetailMarkdown produces the markdown document for a card. The
// document is regenerated on every refresh, so it always reflects
// the latest sample.
func buildDetailMarkdown(card Card, sample schema.MachineSample, workloads []schema.Workload, models []schema.ModelArtifact, window *trend.Window) string {
	var doc strings.Builder

	switch card.Kind {
	case CardCPU:
		fmt.Fprintf(&doc, "## Processor\n\n")
		fmt.Fprintf(&doc, "- utilization: **%.1f%%**\n", sample.CPUPercent)
		fmt.Fprintf(&doc, "- load average: %.2f\n", sample.Load1)
		fmt.Fprintf(&doc, "- uptime: %s\n", formatUptime(sample.UptimeSeconds))
		writeTrendSection(&doc, window)

	case CardMemory:
		fmt.Fprintf(&doc, "## Memory\n\n")
		fmt.Fprintf(&doc, "- in use: **%s** of %s (%.1f%%)\n",
			formatBytes(sample.MemUsedBytes), formatBytes(sample.MemTotalBytes), sample.MemPercent())
		if sample.SwapTotalBytes > 0 {
			fmt.Fprintf(&doc, "- swap: %s of %s\n",
				formatBytes(sample.SwapUsedBytes), formatBytes(sample.SwapTotalBytes))
		}
		writeTrendSection(&doc, window)

	case CardGPU:
		slot := strings.TrimPrefix(card.ID, "gpu-")
		for index := range sample.GPUs {
			gpu := &sample.GPUs[index]
			if gpu.PCISlot != slot {
				continue
			}
			writeGPUDetail(&doc, gpu, workloads)
			break
		}
		writeTrendSection(&doc, window)

	case CardWorkloads:
		fmt.Fprintf(&doc, "## Workloads\n\n")
		if len(workloads) == 0 {
			doc.WriteString("Nothing is holding GPU memory right now.\n")
			break
		}
		for index := range workloads {
			workload := &workloads[index]
			fmt.Fprintf(&doc, "### %s\n\n", workload.Name)
			fmt.Fprintf(&doc, "- state: **%s**\n", workload.State)
			fmt.Fprintf(&doc, "- kind: %s\n", workload.Kind)
			if workload.PID > 0 {
				fmt.Fprintf(&doc, "- pid: `%d`\n", workload.PID)
			}
			if workload.ModelID != "" {
				fmt.Fprintf(&doc, "- model: `%s`\n", workload.ModelID)
			}
			if workload.VRAMReservedBytes > 0 {
				fmt.Fprintf(&doc, "- vram: %s\n", formatBytes(workload.VRAMReservedBytes))
			}
			if len(workload.GPUSlots) > 0 {
				fmt.Fprintf(&doc, "- devices: %s\n", strings.Join(workload.GPUSlots, ", "))
			}
			if !workload.StartedAt.IsZero() {
				fmt.Fprintf(&doc, "- started: %s\n", workload.StartedAt.Format(time.RFC3339))
			}
			doc.WriteString("\n")
		}

	case CardModels:
		fmt.Fprintf(&doc, "## Installed models\n\n")
		if len(models) == 0 {
			doc.WriteString("The model store is empty.\n")
			break
		}
		for index := range models {
			model := &models[index]
			fmt.Fprintf(&doc, "### %s\n\n", model.Name)
			fmt.Fprintf(&doc, "- format: `%s`\n", model.Format)
			if model.ParameterCount > 0 {
				fmt.Fprintf(&doc, "- parameters: %s\n", formatParameters(model.ParameterCount))
			}
			if model.QuantizationBits > 0 {
				fmt.Fprintf(&doc, "- quantization: %d-bit\n", model.QuantizationBits)
			}
			fmt.Fprintf(&doc, "- size: %s\n", formatBytes(model.SizeBytes))
			if model.Digest != "" {
				fmt.Fprintf(&doc, "- digest: `%s`\n", model.Digest)
			}
			fmt.Fprintf(&doc, "- path: `%s`\n", model.InstallPath)
			doc.WriteString("\n")
		}
	}

	writeSampleAppendix(&doc, sample)
	return doc.String()
}

func writeGPUDetail(doc *strings.Builder, gpu *schema.GPUSample, workloads []schema.Workload) {
	name := gpu.Name
	if name == "" {
		name = "GPU " + gpu.PCISlot
	}
	fmt.Fprintf(doc, "## %s\n\n", name)
	if gpu.Vendor != "" {
		fmt.Fprintf(doc, "- vendor: %s\n", gpu.Vendor)
	}
	fmt.Fprintf(doc, "- slot: `%s`\n", gpu.PCISlot)
	fmt.Fprintf(doc, "- utilization: **%.1f%%**\n", gpu.UtilizationPercent)
	fmt.Fprintf(doc, "- vram: %s of %s (%.1f%%)\n",
		formatBytes(gpu.VRAMUsedBytes), formatBytes(gpu.VRAMTotalBytes), gpu.VRAMPercent())
	if gpu.TemperatureMillidegrees != 0 {
		fmt.Fprintf(doc, "- temperature: %d°C\n", gpu.TemperatureCelsius())
	}
	if gpu.PowerDrawWatts > 0 {
		fmt.Fprintf(doc, "- power: %.0fW\n", gpu.PowerDrawWatts)
	}
	if gpu.ClockMHz > 0 {
		fmt.Fprintf(doc, "- clock: %dMHz", gpu.ClockMHz)
		if gpu.MemClockMHz > 0 {
			fmt.Fprintf(doc, " (mem %dMHz)", gpu.MemClockMHz)
		}
		doc.WriteString("\n")
	}

	var residents []string
	for index := range workloads {
		workload := &workloads[index]
		for _, slot := range workload.GPUSlots {
			if slot == gpu.PCISlot {
				residents = append(residents, workload.Name)
				break
			}
		}
	}
	if len(residents) > 0 {
		fmt.Fprintf(doc, "- workloads: %s\n", strings.Join(residents, ", "))
	}
}

func writeTrendSection(doc *strings.Builder, window *trend.Window) {
	if window == nil || window.Len() < 2 {
		return
	}
	summary := window.Summarize()
	fmt.Fprintf(doc, "\n### Recent trend\n\n")
	fmt.Fprintf(doc, "- mean: %.1f%%\n", summary.Mean)
	fmt.Fprintf(doc, "- min / max: %.1f%% / %.1f%%\n", summary.Min, summary.Max)
	fmt.Fprintf(doc, "- p95: %.1f%%\n", summary.P95)
	if summary.Slope > 0.05 {
		doc.WriteString("- direction: rising\n")
	} else if summary.Slope < -0.05 {
		doc.WriteString("- direction: falling\n")
	} else {
		doc.WriteString("- direction: steady\n")
	}
}

// writeSampleAppendix appends the raw sample as a fenced JSON block.
// Useful when eyeballing what the agent actually reported.
func writeSampleAppendix(doc *strings.Builder, sample schema.MachineSample) {
	encoded, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return
	}
	doc.WriteString("\n---\n\n### Raw sample\n\n")
	doc.WriteString("```json\n")
	doc.Write(encoded)
	doc.WriteString("\n```\n")
}
