// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package trend

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Window is a fixed-capacity ring of float64 samples. Pushing beyond
// capacity evicts the oldest sample. The zero value is unusable; use
// NewWindow.
//
// Window is not safe for concurrent use. The dashboard owns one
// window per metric and touches them only from its update loop.
type Window struct {
	samples []float64
	next    int
	full    bool
}

// NewWindow creates a window holding at most capacity samples.
// Capacity must be positive.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		panic("trend: window capacity must be positive")
	}
	return &Window{samples: make([]float64, 0, capacity)}
}

// Push appends a sample, evicting the oldest when full.
func (w *Window) Push(value float64) {
	if !w.full {
		w.samples = append(w.samples, value)
		if len(w.samples) == cap(w.samples) {
			w.full = true
		}
		return
	}
	w.samples[w.next] = value
	w.next = (w.next + 1) % len(w.samples)
}

// Len returns the number of samples currently held.
func (w *Window) Len() int {
	return len(w.samples)
}

// Last returns the most recent sample, or 0 when empty.
func (w *Window) Last() float64 {
	if len(w.samples) == 0 {
		return 0
	}
	if !w.full {
		return w.samples[len(w.samples)-1]
	}
	return w.samples[(w.next+len(w.samples)-1)%len(w.samples)]
}

// Values returns the samples in chronological order, oldest first.
// The returned slice is freshly allocated.
func (w *Window) Values() []float64 {
	if len(w.samples) == 0 {
		return nil
	}
	values := make([]float64, 0, len(w.samples))
	if w.full {
		values = append(values, w.samples[w.next:]...)
		values = append(values, w.samples[:w.next]...)
		return values
	}
	return append(values, w.samples...)
}

// Summary aggregates a window for display.
type Summary struct {
	Count int
	Mean  float64
	Min   float64
	Max   float64
	P50   float64
	P95   float64

	// Slope is the least-squares slope per sample index. Positive
	// means the metric is climbing over the window.
	Slope float64
}

// Summarize computes the summary over the window's current contents.
// An empty window yields a zero Summary.
func (w *Window) Summarize() Summary {
	values := w.Values()
	if len(values) == 0 {
		return Summary{}
	}

	summary := Summary{
		Count: len(values),
		Mean:  stat.Mean(values, nil),
		Min:   math.Inf(1),
		Max:   math.Inf(-1),
	}
	for _, value := range values {
		summary.Min = math.Min(summary.Min, value)
		summary.Max = math.Max(summary.Max, value)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	summary.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	summary.P95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)

	if len(values) >= 2 {
		indexes := make([]float64, len(values))
		for i := range indexes {
			indexes[i] = float64(i)
		}
		_, summary.Slope = stat.LinearRegression(indexes, values, nil, false)
	}
	return summary
}

// Downsample reduces the window to at most buckets values by
// averaging consecutive runs, for rendering into a sparkline narrower
// than the window. Returns Values() unchanged when it already fits.
func (w *Window) Downsample(buckets int) []float64 {
	values := w.Values()
	if buckets <= 0 || len(values) <= buckets {
		return values
	}

	result := make([]float64, buckets)
	per := float64(len(values)) / float64(buckets)
	for i := 0; i < buckets; i++ {
		start := int(float64(i) * per)
		end := int(float64(i+1) * per)
		if end > len(values) {
			end = len(values)
		}
		if end <= start {
			end = start + 1
		}
		result[i] = stat.Mean(values[start:end], nil)
	}
	return result
}
