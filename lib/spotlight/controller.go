// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package spotlight

import "github.com/gantry-foundation/gantry/lib/clock"

// Controller wires an ActivityMonitor to a Tour the way every view
// uses them: the idle edge starts the tour over the provider's current
// candidates, any recorded activity stops it, and the view's showcase
// flag suppresses the monitor while also halting a running tour.
//
// Views create one Controller on mount and Close it on teardown.
type Controller struct {
	monitor *ActivityMonitor
	tour    *Tour
	params  Params
}

// NewController builds the monitor/tour pair for one view.
func NewController(clk clock.Clock, hooks Hooks, params Params) *Controller {
	c := &Controller{
		monitor: NewActivityMonitor(clk, params.IdleThreshold),
		tour:    NewTour(clk, hooks, params),
		params:  params,
	}
	c.monitor.OnIdle(func() {
		c.tour.Start(hooks.Candidates.List(), params.CycleDuration)
	})
	return c
}

// OnUpdate registers the view's highlight renderer.
func (c *Controller) OnUpdate(fn func(Update)) { c.tour.OnUpdate(fn) }

// RecordActivity halts any running tour and pushes the idle deadline
// out. Call it for every raw interaction event the view receives.
func (c *Controller) RecordActivity() {
	c.tour.Stop()
	c.monitor.RecordActivity()
}

// Suppress holds the engine off while a competing full-screen mode is
// live. A running tour stops immediately; no new tour starts until
// the hold is released and the idle threshold elapses again.
func (c *Controller) Suppress(active bool) {
	if active {
		c.tour.Stop()
	}
	c.monitor.Suppress(active)
}

// Touring reports whether the tour is currently cycling.
func (c *Controller) Touring() bool { return c.tour.Touring() }

// HighlightedID returns the currently highlighted candidate id, or
// the empty string.
func (c *Controller) HighlightedID() string { return c.tour.HighlightedID() }

// Close tears down both halves. Safe to call more than once.
func (c *Controller) Close() {
	c.tour.Stop()
	c.monitor.Close()
}
