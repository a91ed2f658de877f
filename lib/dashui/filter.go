// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package dashui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/junegunn/fzf/src/util"

	"github.com/gantry-foundation/gantry/lib/tui"
)

// FilterModel is the incremental fuzzy filter over card titles.
// While active, typed runes append to the pattern and the grid shows
// only matching cards; Escape clears it.
type FilterModel struct {
	Active  bool
	pattern []rune
	slab    *util.Slab
}

// NewFilterModel returns an inactive filter.
func NewFilterModel() FilterModel {
	return FilterModel{slab: tui.NewSlab()}
}

// Pattern returns the current filter text.
func (f *FilterModel) Pattern() string {
	return string(f.pattern)
}

// Empty reports whether no pattern is entered.
func (f *FilterModel) Empty() bool {
	return len(f.pattern) == 0
}

// HandleRune appends a typed character to the pattern.
func (f *FilterModel) HandleRune(r rune) {
	f.pattern = append(f.pattern, r)
}

// HandleBackspace removes the last character. Returns false when the
// pattern was already empty, which deactivates the filter.
func (f *FilterModel) HandleBackspace() bool {
	if len(f.pattern) == 0 {
		return false
	}
	f.pattern = f.pattern[:len(f.pattern)-1]
	return true
}

// Clear resets the pattern and deactivates the filter.
func (f *FilterModel) Clear() {
	f.pattern = nil
	f.Active = false
}

// Match scores a card title against the current pattern. An empty
// pattern matches everything with a zero score.
func (f *FilterModel) Match(title string) tui.FuzzyResult {
	return tui.FuzzyMatch(title, f.pattern, f.slab)
}

// Apply returns the cards matching the current pattern, best score
// first, preserving grid order among equal scores.
func (f *FilterModel) Apply(cards []Card) []Card {
	if len(f.pattern) == 0 {
		return cards
	}
	type scored struct {
		card  Card
		score int
	}
	var matched []scored
	for _, card := range cards {
		result := f.Match(card.Title)
		if result.Score <= 0 {
			continue
		}
		matched = append(matched, scored{card: card, score: result.Score})
	}
	// Insertion sort by descending score; the list is a handful of
	// cards and stability matters.
	for i := 1; i < len(matched); i++ {
		for j := i; j > 0 && matched[j].score > matched[j-1].score; j-- {
			matched[j], matched[j-1] = matched[j-1], matched[j]
		}
	}
	filtered := make([]Card, len(matched))
	for index, entry := range matched {
		filtered[index] = entry.card
	}
	return filtered
}

// View renders the filter indicator for the status bar.
func (f *FilterModel) View(theme tui.Theme) string {
	if !f.Active && len(f.pattern) == 0 {
		return ""
	}
	prompt := lipgloss.NewStyle().Foreground(theme.AccentColor).Render(" / ")
	text := lipgloss.NewStyle().Foreground(theme.NormalText).Render(string(f.pattern))
	cursor := ""
	if f.Active {
		cursor = lipgloss.NewStyle().Foreground(theme.AccentColor).Render("▎")
	}
	return prompt + text + cursor
}
