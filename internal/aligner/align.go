// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package aligner

import "github.com/bmspipeline/core/pkg/schema"

// AlignLinear resamples s onto grid by linear interpolation between
// its two straddling finite samples, never extrapolating beyond the
// series' own first/last finite timestamp (spec §4.4 linear mode).
// Fewer than two finite points yields an all-missing series, since no
// line can be drawn through zero or one point.
func AlignLinear(s *schema.Series, grid *schema.TimeGrid) []schema.Float {
	t, y := finitePoints(s)
	out := make([]schema.Float, grid.Len())
	if len(t) < 2 {
		fillNaN(out)
		return out
	}
	linearInterp(t, y, grid.Points, out)
	return out
}

// AlignForwardFill resamples s onto grid by first replacing each
// missing value with the most recent preceding finite value (leading
// missing values, before any finite sample has been seen, are left
// unfilled) and then linearly interpolating the forward-filled series
// exactly as AlignLinear does (spec §4.4 forward-fill mode). Because
// interpolation runs on the already-filled series, a grid point
// between two samples that carry the same held value reads flat, and
// only the span leading into a genuinely new finite sample ramps.
// Grid points before the series' first finite sample remain missing;
// a series with exactly one finite sample degenerates to a step
// function that is missing before the sample and constant from it
// onward, since forward-fill has nothing to interpolate toward.
func AlignForwardFill(s *schema.Series, grid *schema.TimeGrid) []schema.Float {
	t, y := forwardFilledPoints(s)
	out := make([]schema.Float, grid.Len())

	switch len(t) {
	case 0:
		fillNaN(out)
	case 1:
		for i, gp := range grid.Points {
			if gp >= t[0] {
				out[i] = y[0]
			} else {
				out[i] = schema.NaN
			}
		}
	default:
		linearInterp(t, y, grid.Points, out)
	}
	return out
}

// finitePoints extracts the (time, value) pairs of s whose value is
// not the missing marker, in ascending time order (Series.Append
// already enforces monotonic, deduplicated timestamps).
func finitePoints(s *schema.Series) ([]schema.Instant, []schema.Float) {
	if s == nil {
		return nil, nil
	}
	t := make([]schema.Instant, 0, len(s.Times))
	y := make([]schema.Float, 0, len(s.Values))
	for i, v := range s.Values {
		if v.IsNaN() {
			continue
		}
		t = append(t, s.Times[i])
		y = append(y, v)
	}
	return t, y
}

// forwardFilledPoints returns the (time, value) pairs of s with every
// missing value replaced by the most recent preceding finite value,
// in ascending time order. Missing values before the first finite
// sample have nothing to carry and are dropped, same as finitePoints
// would drop them.
func forwardFilledPoints(s *schema.Series) ([]schema.Instant, []schema.Float) {
	if s == nil {
		return nil, nil
	}
	t := make([]schema.Instant, 0, len(s.Times))
	y := make([]schema.Float, 0, len(s.Values))
	var last schema.Float
	haveLast := false
	for i, v := range s.Values {
		if v.IsNaN() {
			if !haveLast {
				continue
			}
			v = last
		} else {
			last = v
			haveLast = true
		}
		t = append(t, s.Times[i])
		y = append(y, v)
	}
	return t, y
}

func fillNaN(out []schema.Float) {
	for i := range out {
		out[i] = schema.NaN
	}
}

// linearInterp walks t/y and grid with two monotonically advancing
// cursors (grid and t are both ascending), writing into out. Grid
// points outside [t[0], t[len(t)-1]] stay missing; a grid point that
// lands exactly on a sample timestamp gets that sample's value
// exactly, with no floating-point drift from interpolation.
func linearInterp(t []schema.Instant, y []schema.Float, grid []schema.Instant, out []schema.Float) {
	j := 0
	for i, gp := range grid {
		if gp < t[0] || gp > t[len(t)-1] {
			out[i] = schema.NaN
			continue
		}
		for j < len(t)-2 && t[j+1] <= gp {
			j++
		}
		if gp == t[j] {
			out[i] = y[j]
			continue
		}
		if gp == t[j+1] {
			out[i] = y[j+1]
			continue
		}
		span := float64(t[j+1] - t[j])
		frac := float64(gp-t[j]) / span
		out[i] = y[j] + schema.Float(frac)*(y[j+1]-y[j])
	}
}
