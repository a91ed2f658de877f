// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"
)

// sparkLevels are the eight block characters used for sparkline cells,
// from lowest to highest.
var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders a series of values as a single-line bar chart,
// one cell per value, scaled to [minimum, maximum]. Values outside the
// range clamp to the end cells. A flat series with minimum == maximum
// renders at the lowest level. NaN-free input is the caller's job
// (trend.Window never yields NaN for non-empty windows).
func Sparkline(values []float64, minimum, maximum float64) string {
	if len(values) == 0 {
		return ""
	}

	spread := maximum - minimum
	var builder strings.Builder
	builder.Grow(len(values) * 3)

	for _, value := range values {
		level := 0
		if spread > 0 {
			normalized := (value - minimum) / spread
			level = int(normalized * float64(len(sparkLevels)))
			if level < 0 {
				level = 0
			}
			if level >= len(sparkLevels) {
				level = len(sparkLevels) - 1
			}
		}
		builder.WriteRune(sparkLevels[level])
	}
	return builder.String()
}

// SparklinePercent renders a utilization series on the fixed 0-100
// scale so sparklines across cards are visually comparable.
func SparklinePercent(values []float64) string {
	return Sparkline(values, 0, 100)
}
