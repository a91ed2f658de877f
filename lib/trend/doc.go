// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package trend keeps fixed-size windows of recent metric samples and
// computes the summaries the dashboard renders: sparkline values,
// mean, quantiles, and a slope for the trend arrow.
package trend
