// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package aligner builds the uniform time grid for a job and
// resamples every input series onto it, linearly for voltages and
// summary scalars, forward-filled for temperatures (spec §4.4).
package aligner

import "github.com/bmspipeline/core/pkg/schema"

// BuildGrid computes tMin/tMax across the union of every input
// series' timestamps and emits tMin, tMin+step, ..., <=tMax. An empty
// union (no series, or every series empty) produces an empty grid
// (spec §3 TimeGrid, §7 EmptyGrid).
func BuildGrid(seriesList []*schema.Series, stepSec int64) *schema.TimeGrid {
	var tMin, tMax schema.Instant
	found := false

	for _, s := range seriesList {
		if s == nil {
			continue
		}
		mn, mx, ok := s.Bounds()
		if !ok {
			continue
		}
		if !found {
			tMin, tMax, found = mn, mx, true
			continue
		}
		if mn < tMin {
			tMin = mn
		}
		if mx > tMax {
			tMax = mx
		}
	}

	if !found || stepSec <= 0 {
		return &schema.TimeGrid{Step: stepSec}
	}

	grid := &schema.TimeGrid{Step: stepSec}
	for t := tMin; t <= tMax; t += schema.Instant(stepSec) {
		grid.Points = append(grid.Points, t)
	}
	return grid
}
