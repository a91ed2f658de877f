// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package spotlight

import "time"

// Params collects the tunable constants of one engine instance. The
// source views these defaults were lifted from disagreed on several of
// them (caption size estimates, settle delays), so every one is a
// parameter with a documented default rather than a literal in the
// state machine.
type Params struct {
	// IdleThreshold is the quiet period after which the tour is
	// eligible to start.
	IdleThreshold time.Duration

	// CycleDuration is how long each highlighted candidate stays on
	// screen before the tour advances.
	CycleDuration time.Duration

	// SettleDelay is the pause between clearing the previous
	// highlight and resolving the next one, long enough for the
	// view's exit animation to begin.
	SettleDelay time.Duration

	// CaptionSize is the assumed caption box size used for placement.
	// The view renders captions into a box of exactly this size.
	CaptionSize Size

	// Margins controls caption spacing against the viewport edges and
	// the anchor.
	Margins Margins
}

// DefaultParams returns the baseline tuning shared by the dashboard
// and hub views. Units are terminal cells.
func DefaultParams() Params {
	return Params{
		IdleThreshold: 30 * time.Second,
		CycleDuration: 8 * time.Second,
		SettleDelay:   400 * time.Millisecond,
		CaptionSize:   Size{Width: 44, Height: 5},
		Margins:       Margins{Edge: 1, Gap: 1},
	}
}
