// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package dashui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/gantry-foundation/gantry/lib/clock"
	"github.com/gantry-foundation/gantry/lib/spotlight"
)

func testModel(t *testing.T) *Model {
	t.Helper()
	source := NewStaticSource(testSample(), testWorkloads(), testModels())
	model := NewModel(Options{
		Source: source,
		Clock:  clock.Fake(time.Unix(1_700_000_000, 0)),
	})
	t.Cleanup(model.Close)

	updated, _ := model.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return updated.(*Model)
}

func pressKey(t *testing.T, model *Model, r rune) *Model {
	t.Helper()
	updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return updated.(*Model)
}

func TestNewModelBuildsCardsFromSnapshot(t *testing.T) {
	model := testModel(t)
	if len(model.cards) != 6 {
		t.Fatalf("got %d cards, want 6", len(model.cards))
	}
	if model.selectedCardID() != "cpu" {
		t.Errorf("got initial selection %q, want %q", model.selectedCardID(), "cpu")
	}
}

func TestModelViewShowsHostname(t *testing.T) {
	model := testModel(t)
	view := ansi.Strip(model.View())
	if !strings.Contains(view, "forge") {
		t.Errorf("hostname missing from view:\n%s", view)
	}
}

func TestModelNavigation(t *testing.T) {
	model := testModel(t)

	model = pressKey(t, model, 'l')
	if model.selectedCardID() != "memory" {
		t.Errorf("after l: got %q, want %q", model.selectedCardID(), "memory")
	}

	model = pressKey(t, model, 'h')
	if model.selectedCardID() != "cpu" {
		t.Errorf("after h: got %q, want %q", model.selectedCardID(), "cpu")
	}

	model = pressKey(t, model, 'G')
	if model.selectedCardID() != "models" {
		t.Errorf("after G: got %q, want %q", model.selectedCardID(), "models")
	}

	model = pressKey(t, model, 'g')
	if model.selectedCardID() != "cpu" {
		t.Errorf("after g: got %q, want %q", model.selectedCardID(), "cpu")
	}
}

func TestModelQuit(t *testing.T) {
	model := testModel(t)
	_, command := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if command == nil {
		t.Fatal("q produced no command")
	}
	if msg := command(); msg != (tea.QuitMsg{}) {
		t.Errorf("got %T, want tea.QuitMsg", msg)
	}
}

func TestModelFilter(t *testing.T) {
	model := testModel(t)

	model = pressKey(t, model, '/')
	if !model.filter.Active {
		t.Fatal("filter not active after /")
	}
	for _, r := range "mem" {
		model = pressKey(t, model, r)
	}
	if len(model.visible) != 1 || model.visible[0].ID != "memory" {
		t.Fatalf("filter %q matched %d cards, want just memory", model.filter.Pattern(), len(model.visible))
	}

	updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	model = updated.(*Model)
	if model.filter.Active || !model.filter.Empty() {
		t.Error("escape did not clear the filter")
	}
	if len(model.visible) != len(model.cards) {
		t.Errorf("got %d visible cards after clear, want %d", len(model.visible), len(model.cards))
	}
}

func TestModelShowcaseToggle(t *testing.T) {
	model := testModel(t)

	model = pressKey(t, model, 's')
	if !model.showcase.Active {
		t.Fatal("showcase not active after s")
	}
	view := ansi.Strip(model.View())
	if !strings.Contains(view, "CPU") {
		t.Errorf("showcase view missing first screen label:\n%s", view)
	}

	// Any key other than quit exits the showcase.
	model = pressKey(t, model, 'j')
	if model.showcase.Active {
		t.Error("showcase still active after keypress")
	}
}

func TestModelShowcaseAdvance(t *testing.T) {
	model := testModel(t)
	model = pressKey(t, model, 's')

	updated, cmd := model.Update(showcaseTickMsg{})
	model = updated.(*Model)
	if model.showcase.index != 1 {
		t.Errorf("got showcase index %d after tick, want 1", model.showcase.index)
	}
	if cmd == nil {
		t.Error("showcase tick did not reschedule")
	}
}

func TestModelSpotlightOverlay(t *testing.T) {
	model := testModel(t)
	// Render once so the layout is published and placements make sense.
	model.View()

	updated, _ := model.Update(SpotlightUpdateMsg{Update: spotlight.Update{
		HighlightID: "cpu",
		Caption:     "Aggregate processor utilization.",
		Placement:   &spotlight.Placement{Top: 12, Left: 4, Anchor: spotlight.AnchorBelow},
	}})
	model = updated.(*Model)

	view := ansi.Strip(model.View())
	if !strings.Contains(view, "Aggregate processor") {
		t.Errorf("caption missing from view:\n%s", view)
	}
}

func TestModelActivityClearsHighlight(t *testing.T) {
	model := testModel(t)
	updated, _ := model.Update(SpotlightUpdateMsg{Update: spotlight.Update{
		HighlightID: "cpu",
		Caption:     "caption",
		Placement:   &spotlight.Placement{Top: 10, Left: 2, Anchor: spotlight.AnchorBelow},
	}})
	model = updated.(*Model)
	if model.spot.HighlightID != "cpu" {
		t.Fatal("highlight not applied")
	}

	model = pressKey(t, model, 'j')
	if model.spot.HighlightID != "" {
		t.Errorf("highlight %q survived activity", model.spot.HighlightID)
	}
}

func TestModelScrollRequestClampsToGrid(t *testing.T) {
	model := testModel(t)
	model.View()

	updated, _ := model.Update(ScrollRequestMsg{ID: "models"})
	model = updated.(*Model)
	if model.scrollRow < 0 || model.scrollRow > model.totalRows() {
		t.Errorf("scroll row %d out of range", model.scrollRow)
	}
}

func TestModelMouseClickSelectsCard(t *testing.T) {
	model := testModel(t)
	model.View()
	if len(model.regions) == 0 {
		t.Fatal("no card regions recorded by View")
	}

	target := model.regions[len(model.regions)-1]
	updated, _ := model.Update(tea.MouseMsg{
		X:      target.x + 1,
		Y:      target.y + 1,
		Button: tea.MouseButtonLeft,
		Action: tea.MouseActionPress,
	})
	model = updated.(*Model)
	if model.selectedCardID() != target.id {
		t.Errorf("click selected %q, want %q", model.selectedCardID(), target.id)
	}
}

func TestModelWorkloadCursor(t *testing.T) {
	model := testModel(t)

	// Select the workloads card, then move the cursor with l.
	for model.selectedCardID() != "workloads" {
		previous := model.selectedCardID()
		model = pressKey(t, model, 'l')
		if model.selectedCardID() == previous {
			t.Fatal("never reached the workloads card")
		}
	}
	model = pressKey(t, model, 'l')
	if model.workloadCursor != 0 {
		t.Errorf("got cursor %d after first l, want 0", model.workloadCursor)
	}
	model = pressKey(t, model, 'l')
	if model.workloadCursor != 1 {
		t.Errorf("got cursor %d after second l, want 1", model.workloadCursor)
	}
	// Cursor clamps at the end of the list.
	model = pressKey(t, model, 'l')
	if model.workloadCursor != 1 {
		t.Errorf("cursor %d ran past the list", model.workloadCursor)
	}
}

func TestModelSourceEventUpdatesSample(t *testing.T) {
	model := testModel(t)

	sample := testSample()
	sample.CPUPercent = 77
	model.applyEvent(Event{Kind: "sample", Sample: &sample})

	if model.sample.CPUPercent != 77 {
		t.Errorf("got cpu %.0f after event, want 77", model.sample.CPUPercent)
	}
	if model.trendWindow("cpu").Len() == 0 {
		t.Error("sample event did not feed the trend window")
	}
}

func TestModelWorkloadChangeIgnitesHeat(t *testing.T) {
	model := testModel(t)

	workloads := testWorkloads()[:1] // one workload left
	model.applyEvent(Event{Kind: "workloads", Workloads: workloads})

	if model.heat.Heat("workloads", time.Now()) <= 0 {
		t.Error("workload departure did not ignite the workloads card")
	}
}
