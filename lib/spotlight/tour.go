// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package spotlight

import (
	"sync"
	"time"

	"github.com/gantry-foundation/gantry/lib/clock"
)

// CandidateProvider supplies the ordered list of highlightable card
// ids. The tour re-reads the list on every cycle, so it may change
// between ticks (tab switch, cards appearing or vanishing).
type CandidateProvider interface {
	List() []string
}

// CaptionResolver maps a candidate id to its caption text. Resolve
// must return a usable fallback string for ids it has no text for,
// never an empty caption.
type CaptionResolver interface {
	Resolve(id string) string
}

// AnchorLocator reports where a candidate currently sits on screen.
// Locate returns nil when the candidate is not laid out right now
// (scrolled away, collapsed tab) — a normal outcome, not an error.
// Viewport reports the current drawable area in the same units.
type AnchorLocator interface {
	Locate(id string) *AnchorRect
	Viewport() Size
}

// Scroller brings a candidate's anchor into centered view. Called
// after each highlight emission so off-screen anchors become visible
// by the next cycle.
type Scroller interface {
	ScrollIntoView(id string)
}

// Hooks bundles the four host-supplied collaborators a Tour needs.
type Hooks struct {
	Candidates CandidateProvider
	Captions   CaptionResolver
	Anchors    AnchorLocator
	Scroll     Scroller
}

// Update is one highlight emission. A zero HighlightID with a nil
// Placement means "clear the current highlight".
type Update struct {
	HighlightID string
	Caption     string
	Placement   *Placement
}

// Tour is the cycle state machine. Dormant until Start, it walks the
// candidate list in order, one candidate per cycle, emitting an Update
// for each resolvable anchor and skipping the rest. Any Stop returns
// it to dormant and cancels every pending timer.
//
// Host collaborator calls (List, Resolve, Locate, ScrollIntoView) and
// the OnUpdate callback run without the tour's lock held, so they may
// call Start or Stop reentrantly. Results computed across such a call
// are tagged with a generation counter and discarded if the tour moved
// on in the meantime. Emissions go through an ordered queue, so the
// callback always observes state transitions in the order they were
// applied even when Start and Stop race with an in-flight cycle.
type Tour struct {
	mu       sync.Mutex
	clock    clock.Clock
	hooks    Hooks
	params   Params
	onUpdate func(Update)

	touring       bool
	cursor        int
	highlightedID string
	generation    uint64
	cycleDuration time.Duration
	cycleTimer    *clock.Timer
	settleTimer   *clock.Timer

	pending  []Update
	draining bool
}

// NewTour creates a dormant tour. The hooks' Candidates and Anchors
// fields must be non-nil; Captions and Scroll may be nil, in which
// case captions fall back to the id itself and no scrolling happens.
func NewTour(clk clock.Clock, hooks Hooks, params Params) *Tour {
	return &Tour{clock: clk, hooks: hooks, params: params}
}

// OnUpdate registers the callback receiving highlight emissions.
// Replaces any previous callback. The callback runs without the
// tour's lock held.
func (t *Tour) OnUpdate(fn func(Update)) {
	t.mu.Lock()
	t.onUpdate = fn
	t.mu.Unlock()
}

// Touring reports whether a tour is currently running.
func (t *Tour) Touring() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.touring
}

// HighlightedID returns the id of the currently highlighted candidate,
// or the empty string when nothing is highlighted.
func (t *Tour) HighlightedID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.highlightedID
}

// Start begins touring with the given candidate list and cycle
// period. No-op when already touring or when candidates is empty. The
// first highlight appears immediately; after that the tour advances
// every cycleDuration. The candidate list is re-read from the
// CandidateProvider on every cycle, so the argument only seeds the
// first one.
func (t *Tour) Start(candidates []string, cycleDuration time.Duration) {
	t.mu.Lock()
	if t.touring || len(candidates) == 0 {
		t.mu.Unlock()
		return
	}
	t.touring = true
	t.cursor = 0
	t.cycleDuration = cycleDuration
	t.generation++
	generation := t.generation
	t.mu.Unlock()

	// First cycle: no clear emission, no settle delay, no cursor
	// advance — candidate 0 lights up right away.
	t.resolveAndEmit(generation, candidates, 0)
}

// Stop cancels the tour and every pending timer, clears the current
// highlight, and returns to dormant. Idempotent; safe to call from
// any phase, including from inside collaborator callbacks mid-cycle.
func (t *Tour) Stop() {
	t.mu.Lock()
	if !t.touring {
		t.mu.Unlock()
		return
	}
	hadHighlight := t.highlightedID != ""
	t.stopLocked()
	if hadHighlight {
		t.pending = append(t.pending, Update{})
	}
	t.mu.Unlock()

	t.drain()
}

// Close is Stop under the name teardown paths expect.
func (t *Tour) Close() { t.Stop() }

// stopLocked cancels timers and resets to dormant. Caller holds t.mu.
// Bumping the generation strands any in-flight cycle work: when it
// reacquires the lock its tag no longer matches and it drops its
// result.
func (t *Tour) stopLocked() {
	t.touring = false
	t.highlightedID = ""
	t.generation++
	if t.cycleTimer != nil {
		t.cycleTimer.Stop()
		t.cycleTimer = nil
	}
	if t.settleTimer != nil {
		t.settleTimer.Stop()
		t.settleTimer = nil
	}
}

// drain delivers queued emissions in order. Updates are appended to
// t.pending under t.mu at the moment their state transition is
// applied, so queue order always matches state order. Only one caller
// drains at a time; concurrent or reentrant callers return
// immediately after enqueueing and the active drainer delivers their
// updates. A clear queued by Stop therefore cannot overtake a
// highlight whose state was applied first.
func (t *Tour) drain() {
	t.mu.Lock()
	if t.draining {
		t.mu.Unlock()
		return
	}
	t.draining = true
	for len(t.pending) > 0 {
		next := t.pending[0]
		t.pending = t.pending[1:]
		fn := t.onUpdate
		t.mu.Unlock()
		if fn != nil {
			fn(next)
		}
		t.mu.Lock()
	}
	t.draining = false
	t.mu.Unlock()
}

// armCycleLocked schedules the next cycle tick. Caller holds t.mu.
func (t *Tour) armCycleLocked(generation uint64) {
	t.cycleTimer = t.clock.AfterFunc(t.cycleDuration, func() {
		t.tick(generation)
	})
}

// tick runs at each cycle boundary: fade out the current highlight,
// wait the settle delay, then advance to the next candidate.
func (t *Tour) tick(generation uint64) {
	t.mu.Lock()
	if !t.touring || generation != t.generation {
		t.mu.Unlock()
		return
	}
	t.cycleTimer = nil
	hadHighlight := t.highlightedID != ""
	t.highlightedID = ""
	t.settleTimer = t.clock.AfterFunc(t.params.SettleDelay, func() {
		t.advance(generation)
	})
	if hadHighlight {
		t.pending = append(t.pending, Update{})
	}
	t.mu.Unlock()

	t.drain()
}

// advance re-reads the candidate list, moves the cursor forward one
// step, and resolves the new candidate. Runs after the settle delay.
func (t *Tour) advance(generation uint64) {
	t.mu.Lock()
	if !t.touring || generation != t.generation {
		t.mu.Unlock()
		return
	}
	t.settleTimer = nil
	t.mu.Unlock()

	// Host call, outside the lock.
	candidates := t.hooks.Candidates.List()

	t.mu.Lock()
	if !t.touring || generation != t.generation {
		t.mu.Unlock()
		return
	}
	if len(candidates) == 0 {
		// The list vanished mid-tour. Nothing left to highlight.
		t.stopLocked()
		t.mu.Unlock()
		return
	}
	// Clamp before advancing: the list may have shrunk below the
	// cursor since the last cycle.
	if t.cursor >= len(candidates) {
		t.cursor = t.cursor % len(candidates)
	}
	next := (t.cursor + 1) % len(candidates)
	t.mu.Unlock()

	t.resolveAndEmit(generation, candidates, next)
}

// resolveAndEmit walks the candidate list starting at startIndex
// looking for one whose anchor resolves, emits its highlight, and
// arms the next cycle. At most one full pass: if no anchor resolves,
// the cycle ends highlight-free and the tour retries after a normal
// cycle period.
//
// Collaborator calls happen outside the lock; the generation tag is
// re-checked before any state is applied, so a Stop or Start landing
// mid-resolution silently discards the late result.
func (t *Tour) resolveAndEmit(generation uint64, candidates []string, startIndex int) {
	index := startIndex
	for attempt := 0; attempt < len(candidates); attempt++ {
		id := candidates[index]
		rect := t.hooks.Anchors.Locate(id)
		if rect == nil {
			index = (index + 1) % len(candidates)
			continue
		}

		caption := id
		if t.hooks.Captions != nil {
			caption = t.hooks.Captions.Resolve(id)
		}
		viewport := t.hooks.Anchors.Viewport()
		placement := Place(*rect, viewport, t.params.CaptionSize, t.params.Margins)

		t.mu.Lock()
		if !t.touring || generation != t.generation {
			t.mu.Unlock()
			return
		}
		t.cursor = index
		t.highlightedID = id
		t.armCycleLocked(generation)
		t.pending = append(t.pending, Update{HighlightID: id, Caption: caption, Placement: &placement})
		t.mu.Unlock()

		t.drain()
		if t.hooks.Scroll != nil {
			t.hooks.Scroll.ScrollIntoView(id)
		}
		return
	}

	// Full pass, nothing laid out. Keep the cursor where it was and
	// retry next cycle.
	t.mu.Lock()
	if !t.touring || generation != t.generation {
		t.mu.Unlock()
		return
	}
	t.armCycleLocked(generation)
	t.mu.Unlock()
}
