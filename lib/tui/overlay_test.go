// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestSpliceOverlayReplacesRegion(t *testing.T) {
	view := strings.Join([]string{
		"aaaaaaaaaa",
		"bbbbbbbbbb",
		"cccccccccc",
	}, "\n")

	spliced := SpliceOverlay(view, []string{"XXX", "YYY"}, 3, 1)
	lines := strings.Split(spliced, "\n")

	if ansi.Strip(lines[0]) != "aaaaaaaaaa" {
		t.Errorf("line above overlay changed: %q", lines[0])
	}
	if got := ansi.Strip(lines[1]); got != "bbbXXXbbbb" {
		t.Errorf("overlay line 1 = %q, want bbbXXXbbbb", got)
	}
	if got := ansi.Strip(lines[2]); got != "cccYYYcccc" {
		t.Errorf("overlay line 2 = %q, want cccYYYcccc", got)
	}
}

func TestSpliceOverlayOutOfBoundsLinesSkipped(t *testing.T) {
	view := "only line"
	spliced := SpliceOverlay(view, []string{"AA", "BB", "CC"}, 0, -1)
	lines := strings.Split(spliced, "\n")
	if len(lines) != 1 {
		t.Fatalf("overlay must not add lines, got %d", len(lines))
	}
	if got := ansi.Strip(lines[0]); got != "BBly line" {
		t.Errorf("in-bounds overlay line = %q, want BBly line", got)
	}
}

func TestSpliceOverlayEmptyOverlay(t *testing.T) {
	view := "unchanged"
	if got := SpliceOverlay(view, nil, 2, 0); got != view {
		t.Errorf("empty overlay should return view unchanged, got %q", got)
	}
}

func TestOverlayBoldInsertsEscapes(t *testing.T) {
	view := "model card title"
	bolded := OverlayBold(view, 0, 6, 10)
	if !strings.Contains(bolded, "\x1b[1m") {
		t.Error("expected bold-on escape in output")
	}
	if !strings.Contains(bolded, "\x1b[22m") {
		t.Error("expected bold-off escape in output")
	}
	if got := ansi.Strip(bolded); got != view {
		t.Errorf("visible text changed: %q", got)
	}
}

func TestOverlayBoldOutOfRange(t *testing.T) {
	view := "short"
	if got := OverlayBold(view, 3, 0, 2); got != view {
		t.Errorf("out-of-range line should return view unchanged")
	}
	if got := OverlayBold(view, 0, 4, 4); got != view {
		t.Errorf("empty range should return view unchanged")
	}
}

func TestWrapCaption(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		width    int
		maxLines int
		want     []string
	}{
		{
			name:     "fits on one line",
			text:     "GPU utilization",
			width:    20,
			maxLines: 3,
			want:     []string{"GPU utilization"},
		},
		{
			name:     "wraps at word boundary",
			text:     "live VRAM usage per device",
			width:    14,
			maxLines: 3,
			want:     []string{"live VRAM", "usage per", "device"},
		},
		{
			name:     "hard breaks long word",
			text:     "abcdefghij",
			width:    4,
			maxLines: 5,
			want:     []string{"abcd", "efgh", "ij"},
		},
		{
			name:     "empty text",
			text:     "",
			width:    10,
			maxLines: 2,
			want:     nil,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := WrapCaption(test.text, test.width, test.maxLines)
			if len(got) != len(test.want) {
				t.Fatalf("got %d lines %v, want %d lines %v",
					len(got), got, len(test.want), test.want)
			}
			for index := range got {
				if got[index] != test.want[index] {
					t.Errorf("line %d = %q, want %q", index, got[index], test.want[index])
				}
			}
		})
	}
}

func TestWrapCaptionTruncatesAtMaxLines(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	lines := WrapCaption(text, 10, 2)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(lines), lines)
	}
	for _, line := range lines {
		if ansi.StringWidth(line) > 10 {
			t.Errorf("line %q exceeds width 10", line)
		}
	}
}

func TestExtractExcerpt(t *testing.T) {
	body := "\n\n  \nFirst real line\nSecond line that is quite long indeed\n\nThird"
	excerpt := ExtractExcerpt(body, 20, 2)
	if len(excerpt) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(excerpt), excerpt)
	}
	if excerpt[0] != "First real line" {
		t.Errorf("first excerpt line = %q", excerpt[0])
	}
	if ansi.StringWidth(excerpt[1]) > 20 {
		t.Errorf("second excerpt line not truncated: %q", excerpt[1])
	}
	if !strings.HasSuffix(excerpt[1], "…") {
		t.Errorf("truncated line should end with ellipsis: %q", excerpt[1])
	}
}
