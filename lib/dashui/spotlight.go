// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package dashui

import (
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/gantry-foundation/gantry/lib/spotlight"
	"github.com/gantry-foundation/gantry/lib/tui"
)

// SpotlightUpdateMsg carries a tour emission into the bubbletea
// update loop. A zero HighlightID clears the overlay.
type SpotlightUpdateMsg struct {
	Update spotlight.Update
}

// ScrollRequestMsg asks the grid to scroll a card into view. Emitted
// by the tour after each highlight so off-screen cards become
// visible by the next cycle.
type ScrollRequestMsg struct {
	ID string
}

// spotlightBridge adapts the tour's collaborator interfaces to the
// bubbletea model. The tour runs on timer goroutines; the model runs
// on the program loop. The bridge carries tour output across as
// messages and serves tour reads from a mutex-guarded snapshot of
// the last rendered layout.
//
// Emissions queue without bound and deliver in order. send never
// blocks and never drops: the tour may emit from the program loop
// itself (a key press stops the tour mid-Update), so a channel send
// could deadlock the loop, and a dropped clear would strand the
// caption overlay on screen.
type spotlightBridge struct {
	mu sync.Mutex

	// Snapshot of the last View: candidate order, anchor rectangles
	// for the cards currently on screen, and the drawable area.
	candidates []string
	anchors    map[string]spotlight.AnchorRect
	viewport   spotlight.Size

	queue []tea.Msg
	wake  chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

func newSpotlightBridge() *spotlightBridge {
	return &spotlightBridge{
		anchors: make(map[string]spotlight.AnchorRect),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// close releases any listener blocked in next. Idempotent.
func (b *spotlightBridge) close() {
	b.closeOnce.Do(func() { close(b.done) })
}

// setLayout replaces the layout snapshot. Called by View after every
// render, under no other lock.
func (b *spotlightBridge) setLayout(candidates []string, anchors map[string]spotlight.AnchorRect, viewport spotlight.Size) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.candidates = candidates
	b.anchors = anchors
	b.viewport = viewport
}

// List implements spotlight.CandidateProvider.
func (b *spotlightBridge) List() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.candidates))
	copy(out, b.candidates)
	return out
}

// Locate implements spotlight.AnchorLocator.
func (b *spotlightBridge) Locate(id string) *spotlight.AnchorRect {
	b.mu.Lock()
	defer b.mu.Unlock()
	rect, ok := b.anchors[id]
	if !ok {
		return nil
	}
	return &rect
}

// Viewport implements spotlight.AnchorLocator.
func (b *spotlightBridge) Viewport() spotlight.Size {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewport
}

// ScrollIntoView implements spotlight.Scroller.
func (b *spotlightBridge) ScrollIntoView(id string) {
	b.send(ScrollRequestMsg{ID: id})
}

// onUpdate is the tour's OnUpdate callback.
func (b *spotlightBridge) onUpdate(update spotlight.Update) {
	b.send(SpotlightUpdateMsg{Update: update})
}

func (b *spotlightBridge) send(msg tea.Msg) {
	b.mu.Lock()
	b.queue = append(b.queue, msg)
	b.mu.Unlock()
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// next blocks until a queued message is available and pops it.
// Returns nil after close.
func (b *spotlightBridge) next() tea.Msg {
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			msg := b.queue[0]
			b.queue = b.queue[1:]
			b.mu.Unlock()
			return msg
		}
		b.mu.Unlock()
		select {
		case <-b.wake:
		case <-b.done:
			return nil
		}
	}
}

// listenForSpotlight returns a command that blocks until the bridge
// produces a message. Re-issued after every delivery.
func listenForSpotlight(bridge *spotlightBridge) tea.Cmd {
	return func() tea.Msg {
		return bridge.next()
	}
}

// renderCaptionBox builds the caption overlay lines: a rounded
// border in the spotlight color around the card's caption text,
// sized to the tour's caption budget.
func renderCaptionBox(caption string, theme tui.Theme, size spotlight.Size) []string {
	innerWidth := size.Width - 4 // border columns plus one cell padding each side
	maxLines := size.Height - 2  // border rows
	if innerWidth < 1 || maxLines < 1 {
		return nil
	}

	textStyle := lipgloss.NewStyle().
		Foreground(theme.CaptionForeground).
		Background(theme.CaptionBackground)
	borderStyle := lipgloss.NewStyle().
		Foreground(theme.SpotlightBorder).
		Background(theme.CaptionBackground)

	wrapped := tui.WrapCaption(caption, innerWidth, maxLines)

	lines := make([]string, 0, len(wrapped)+2)
	lines = append(lines, borderStyle.Render("╭"+strings.Repeat("─", innerWidth+2)+"╮"))
	for _, row := range wrapped {
		padding := innerWidth - ansi.StringWidth(row)
		if padding < 0 {
			padding = 0
		}
		lines = append(lines,
			borderStyle.Render("│")+
				textStyle.Render(" "+row+strings.Repeat(" ", padding)+" ")+
				borderStyle.Render("│"))
	}
	lines = append(lines, borderStyle.Render("╰"+strings.Repeat("─", innerWidth+2)+"╯"))
	return lines
}

// spliceCaption overlays the caption box onto the rendered frame at
// the tour's placement. The placement names the caption's anchor
// edge; BoxTop converts it to the box's first row for the actual
// rendered height.
func spliceCaption(frame string, update spotlight.Update, theme tui.Theme, size spotlight.Size) string {
	if update.HighlightID == "" || update.Placement == nil {
		return frame
	}
	box := renderCaptionBox(update.Caption, theme, size)
	if len(box) == 0 {
		return frame
	}
	top := update.Placement.BoxTop(len(box))
	return tui.SpliceOverlay(frame, box, update.Placement.Left, top)
}
