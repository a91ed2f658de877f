// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package spotlight

// AnchorRect is the on-screen rectangle of a highlight target, in
// viewport coordinates. Produced by an AnchorLocator at call time; the
// unit (terminal cells, pixels) is whatever the host's layout uses.
type AnchorRect struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// Size is a width/height pair in the same units as AnchorRect.
type Size struct {
	Width  int
	Height int
}

// Margins controls caption spacing. Edge is the minimum distance kept
// between the caption box and every viewport edge; Gap is the distance
// kept between the caption box and its anchor.
type Margins struct {
	Edge int
	Gap  int
}

// Anchoring names the vertical reference a Placement was computed
// against, so the renderer knows which edge of the caption box Top
// refers to.
type Anchoring string

const (
	// AnchorAbove places the caption above the anchor; Placement.Top
	// is the caption's bottom edge.
	AnchorAbove Anchoring = "above"

	// AnchorBelow places the caption below the anchor; Placement.Top
	// is the caption's top edge.
	AnchorBelow Anchoring = "below"

	// AnchorClampedTop pins the caption near the top viewport edge
	// when it fits neither above nor below; Placement.Top is the
	// caption's top edge.
	AnchorClampedTop Anchoring = "clamped-top"
)

// Placement is a computed caption-box position. Computed fresh for
// every highlight, never persisted.
type Placement struct {
	Top    int
	Left   int
	Anchor Anchoring
}

// BoxTop returns the top edge of the caption box for a given caption
// height, resolving the Anchoring-dependent meaning of Top.
func (p Placement) BoxTop(captionHeight int) int {
	if p.Anchor == AnchorAbove {
		return p.Top - captionHeight
	}
	return p.Top
}

// Place computes where a caption box of the given size goes relative
// to an anchor, preferring above, then below, then a clamped position
// near the top edge, with a final clamp that keeps the box inside the
// viewport. Deterministic and total: every input, including anchors
// larger than the viewport and captions wider than the usable width,
// yields a placement; oversized captions get the least-bad clamped
// position with their top-left region kept visible.
func Place(anchor AnchorRect, viewport Size, caption Size, margins Margins) Placement {
	spaceAbove := anchor.Top
	spaceBelow := viewport.Height - (anchor.Top + anchor.Height)
	needed := caption.Height + margins.Gap

	var placement Placement
	switch {
	case spaceAbove >= needed:
		placement.Anchor = AnchorAbove
		placement.Top = anchor.Top - margins.Gap
	case spaceBelow >= needed:
		placement.Anchor = AnchorBelow
		placement.Top = anchor.Top + anchor.Height + margins.Gap
	default:
		placement.Anchor = AnchorClampedTop
		placement.Top = margins.Edge
	}

	// Final vertical clamp: the caption's bottom edge must not pass
	// viewport.Height - margins.Edge. The bottom edge is Top itself
	// for above-anchored placements and Top + height otherwise.
	bottomLimit := viewport.Height - margins.Edge
	if placement.Anchor == AnchorAbove {
		if placement.Top > bottomLimit {
			placement.Top = bottomLimit
		}
	} else {
		if placement.Top+caption.Height > bottomLimit {
			placement.Top = viewport.Height - caption.Height - margins.Edge
		}
	}

	// Horizontal: center on the anchor's midpoint, then clamp both
	// edges into [Edge, viewport.Width-Edge]. When the caption is too
	// wide for that interval the left clamp wins, keeping the left
	// edge visible.
	center := anchor.Left + anchor.Width/2
	placement.Left = center - caption.Width/2
	if placement.Left+caption.Width > viewport.Width-margins.Edge {
		placement.Left = viewport.Width - margins.Edge - caption.Width
	}
	if placement.Left < margins.Edge {
		placement.Left = margins.Edge
	}

	// Hard viewport clamp. The margin clamps above assume the caption
	// fits inside the margin frame; when it does not (anchor far off
	// screen, caption nearly viewport-sized) the box can still stick
	// out. Pin it into [0, viewport] on both axes, sacrificing the
	// margin rather than clipping, with the top-left corner winning
	// when the caption is larger than the viewport itself.
	boxTop := placement.BoxTop(caption.Height)
	boxTop = clamp(boxTop, 0, max(0, viewport.Height-caption.Height))
	if placement.Anchor == AnchorAbove {
		placement.Top = boxTop + caption.Height
	} else {
		placement.Top = boxTop
	}
	placement.Left = clamp(placement.Left, 0, max(0, viewport.Width-caption.Width))

	return placement
}

// clamp pins v into [low, high]. Assumes low <= high.
func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
