// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package dashui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/gantry-foundation/gantry/lib/trend"
	"github.com/gantry-foundation/gantry/lib/tui"
)

func TestBuildDetailMarkdownGPU(t *testing.T) {
	sample := testSample()
	card := Card{ID: "gpu-0000:01:00.0", Kind: CardGPU, Title: "RTX 6000 Ada"}
	doc := buildDetailMarkdown(card, sample, testWorkloads(), nil, nil)

	for _, want := range []string{
		"## RTX 6000 Ada",
		"vendor: NVIDIA",
		"`0000:01:00.0`",
		"88.0%",
		"40.0GiB of 48.0GiB",
		"temperature: 71°C",
		"power: 280W",
		"workloads: llama-server",
		"### Raw sample",
		"```json",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("GPU detail missing %q:\n%s", want, doc)
		}
	}
}

func TestBuildDetailMarkdownWorkloads(t *testing.T) {
	card := Card{ID: "workloads", Kind: CardWorkloads, Title: "Workloads"}
	doc := buildDetailMarkdown(card, testSample(), testWorkloads(), nil, nil)

	for _, want := range []string{
		"### llama-server",
		"state: **running**",
		"pid: `4242`",
		"model: `llama-3.3-70b`",
		"### embed-batch",
		"state: **pending**",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("workloads detail missing %q:\n%s", want, doc)
		}
	}
}

func TestBuildDetailMarkdownModels(t *testing.T) {
	card := Card{ID: "models", Kind: CardModels, Title: "Models"}
	doc := buildDetailMarkdown(card, testSample(), nil, testModels(), nil)

	for _, want := range []string{
		"### llama-3.3-70b",
		"format: `gguf`",
		"parameters: 70B",
		"size: 39.0GiB",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("models detail missing %q:\n%s", want, doc)
		}
	}
}

func TestBuildDetailMarkdownTrendSection(t *testing.T) {
	window := trend.NewWindow(16)
	for _, value := range []float64{10, 20, 30, 40, 50} {
		window.Push(value)
	}
	card := Card{ID: "cpu", Kind: CardCPU, Title: "CPU"}
	doc := buildDetailMarkdown(card, testSample(), nil, nil, window)

	if !strings.Contains(doc, "### Recent trend") {
		t.Fatalf("trend section missing:\n%s", doc)
	}
	if !strings.Contains(doc, "direction: rising") {
		t.Errorf("rising series not reported as rising:\n%s", doc)
	}
}

func TestBuildDetailMarkdownEmptyWorkloads(t *testing.T) {
	card := Card{ID: "workloads", Kind: CardWorkloads, Title: "Workloads"}
	doc := buildDetailMarkdown(card, testSample(), nil, nil, nil)
	if !strings.Contains(doc, "Nothing is holding GPU memory") {
		t.Errorf("empty workloads message missing:\n%s", doc)
	}
}

func TestDetailPaneViewRendersContent(t *testing.T) {
	pane := NewDetailPane(tui.DefaultTheme)
	pane.SetSize(60, 30)
	card := Card{ID: "cpu", Kind: CardCPU, Title: "CPU"}
	pane.SetContent(card, testSample(), nil, nil, nil)

	view := ansi.Strip(pane.View(false))
	if !strings.Contains(view, "CPU") {
		t.Errorf("header missing from pane view:\n%s", view)
	}
	if !strings.Contains(view, "Processor") {
		t.Errorf("body heading missing from pane view:\n%s", view)
	}
}

func TestDetailPaneEmptyState(t *testing.T) {
	pane := NewDetailPane(tui.DefaultTheme)
	pane.SetSize(40, 20)
	view := ansi.Strip(pane.View(false))
	if !strings.Contains(view, "select a card") {
		t.Errorf("empty pane placeholder missing: %q", view)
	}
}

func TestDetailPaneScrollResetsOnCardChange(t *testing.T) {
	pane := NewDetailPane(tui.DefaultTheme)
	pane.SetSize(60, 10)
	pane.SetContent(Card{ID: "workloads", Kind: CardWorkloads, Title: "Workloads"},
		testSample(), testWorkloads(), nil, nil)
	pane.ScrollDown(5)
	if pane.viewport.YOffset == 0 {
		t.Fatal("scroll had no effect; content too short for test")
	}

	pane.SetContent(Card{ID: "cpu", Kind: CardCPU, Title: "CPU"},
		testSample(), nil, nil, nil)
	if pane.viewport.YOffset != 0 {
		t.Errorf("got YOffset %d after card change, want 0", pane.viewport.YOffset)
	}
}
