// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui provides shared terminal user interface components for
// Gantry's dashboards. Built on bubbletea (Elm architecture), these
// components handle the patterns both dashboards need: theming with
// utilization/temperature semantics, ANSI-aware overlay splicing for
// tour captions, heat-decay change animation, sparklines, scrollbars,
// and fuzzy filtering.
//
// Domain-specific views (workstation dashboard, hub admin) import this
// package for consistent look and behavior: same theme, same keyboard
// conventions, same caption overlay mechanics. Each view owns its own
// data source, layout, and domain rendering.
package tui
