// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"testing"
)

func TestSparklineScales(t *testing.T) {
	line := Sparkline([]float64{0, 50, 100}, 0, 100)
	runes := []rune(line)
	if len(runes) != 3 {
		t.Fatalf("expected 3 cells, got %d (%q)", len(runes), line)
	}
	if runes[0] != '▁' {
		t.Errorf("minimum value should render lowest cell, got %q", runes[0])
	}
	if runes[2] != '█' {
		t.Errorf("maximum value should render highest cell, got %q", runes[2])
	}
}

func TestSparklineClampsOutOfRange(t *testing.T) {
	line := Sparkline([]float64{-50, 150}, 0, 100)
	runes := []rune(line)
	if runes[0] != '▁' || runes[1] != '█' {
		t.Errorf("out-of-range values should clamp to end cells, got %q", line)
	}
}

func TestSparklineFlatSeries(t *testing.T) {
	line := Sparkline([]float64{42, 42, 42}, 42, 42)
	for _, cell := range line {
		if cell != '▁' {
			t.Errorf("flat series should render lowest cell, got %q", line)
		}
	}
}

func TestSparklineEmpty(t *testing.T) {
	if line := Sparkline(nil, 0, 100); line != "" {
		t.Errorf("empty input should render empty string, got %q", line)
	}
}

func TestSparklinePercentMonotone(t *testing.T) {
	values := []float64{10, 30, 50, 70, 90}
	runes := []rune(SparklinePercent(values))
	for index := 1; index < len(runes); index++ {
		if runes[index] <= runes[index-1] {
			t.Errorf("cells should ascend for ascending values: %q", string(runes))
		}
	}
}
