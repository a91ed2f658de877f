// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package spotlight implements the idle-triggered attention tour shared
// by the dashboard and hub UIs: after a period of user inactivity, a
// highlight and an explanatory caption cycle across the visible cards,
// positioned to avoid clipping at the viewport edges, until the user
// interacts again or a competing full-screen mode takes over.
//
// The package has three parts. ActivityMonitor turns a stream of raw
// interaction signals into a single edge-triggered idle event per quiet
// period, with an external suppress switch for full-screen showcase
// mode. Tour owns the cycle state machine: it walks an ordered
// candidate list, resolves each candidate's caption and on-screen
// anchor through host-supplied interfaces, and emits highlight updates.
// Place is the pure placement calculator that positions a caption box
// relative to its anchor without clipping.
//
// The engine deals only in ids, rectangles, and strings. Everything it
// needs from the rendering layer arrives through the CandidateProvider,
// CaptionResolver, AnchorLocator, and Scroller interfaces, so a single
// engine serves any view and tests run against stubs on a fake clock.
// All timing goes through lib/clock.
package spotlight
