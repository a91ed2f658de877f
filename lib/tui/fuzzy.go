// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// FuzzyResult holds the outcome of a fuzzy match: the fzf score (0
// means no match) and the rune positions in the text that matched the
// pattern, for highlighting.
type FuzzyResult struct {
	// Score is fzf's match quality score. Zero when the text does not
	// match the pattern at all; higher is better.
	Score int

	// Positions are rune indices into the text for each matched
	// pattern character, in ascending order. Empty when Score is zero.
	Positions []int
}

// NewSlab allocates a scratch slab for FuzzyMatch. A slab is reused
// across calls on the same goroutine to avoid per-match allocation;
// pass nil to allocate per call instead.
func NewSlab() *util.Slab {
	// Sizes follow fzf's own defaults for its matcher goroutines.
	return util.MakeSlab(100*1024, 2048)
}

// FuzzyMatch runs fzf's FuzzyMatchV2 algorithm case-insensitively
// against the text. The pattern is lowercased here so callers can pass
// user input as typed. A nil slab is allowed.
func FuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{}
	}

	lowered := []rune(strings.ToLower(string(pattern)))
	chars := util.ToChars([]byte(text))

	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, lowered, true, slab)
	if result.Score <= 0 {
		return FuzzyResult{}
	}

	matched := FuzzyResult{Score: result.Score}
	if positions != nil {
		matched.Positions = make([]int, len(*positions))
		copy(matched.Positions, *positions)
		// fzf reports positions in reverse order; highlighting wants
		// them ascending.
		for left, right := 0, len(matched.Positions)-1; left < right; left, right = left+1, right-1 {
			matched.Positions[left], matched.Positions[right] = matched.Positions[right], matched.Positions[left]
		}
	}
	return matched
}
