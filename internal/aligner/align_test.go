// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package aligner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bmspipeline/core/pkg/schema"
)

func mkSeries(pairs ...float64) *schema.Series {
	s := schema.NewSeries()
	for i := 0; i+1 < len(pairs); i += 2 {
		s.Append(schema.Instant(pairs[i]), schema.Float(pairs[i+1]))
	}
	return s
}

func mkGrid(points ...int64) *schema.TimeGrid {
	g := &schema.TimeGrid{Step: 1}
	for _, p := range points {
		g.Points = append(g.Points, schema.Instant(p))
	}
	return g
}

func TestAlignLinear_ExactAtSamples(t *testing.T) {
	s := mkSeries(0, 10, 10, 20, 20, 30)
	grid := mkGrid(0, 5, 10, 15, 20)
	out := AlignLinear(s, grid)

	assert.Equal(t, schema.Float(10), out[0])
	assert.Equal(t, schema.Float(15), out[1])
	assert.Equal(t, schema.Float(20), out[2])
	assert.Equal(t, schema.Float(25), out[3])
	assert.Equal(t, schema.Float(30), out[4])
}

func TestAlignLinear_NoExtrapolation(t *testing.T) {
	s := mkSeries(10, 1, 20, 2)
	grid := mkGrid(0, 10, 20, 30)
	out := AlignLinear(s, grid)

	assert.True(t, out[0].IsNaN())
	assert.Equal(t, schema.Float(1), out[1])
	assert.Equal(t, schema.Float(2), out[2])
	assert.True(t, out[3].IsNaN())
}

func TestAlignLinear_FewerThanTwoFinitePoints(t *testing.T) {
	grid := mkGrid(0, 1, 2)

	empty := schema.NewSeries()
	out := AlignLinear(empty, grid)
	for _, v := range out {
		assert.True(t, v.IsNaN())
	}

	one := mkSeries(1, 5)
	out = AlignLinear(one, grid)
	for _, v := range out {
		assert.True(t, v.IsNaN())
	}
}

func TestAlignForwardFill_CarriesLastSample(t *testing.T) {
	// Interior missing values at t=2,4 carry the value from t=0
	// forward; only the span leading into the next genuine sample at
	// t=6 ramps.
	s := mkSeries(0, 10, 2, math.NaN(), 4, math.NaN(), 6, 20)
	grid := mkGrid(0, 1, 2, 3, 4, 5, 6)
	out := AlignForwardFill(s, grid)

	assert.Equal(t, schema.Float(10), out[0])
	assert.Equal(t, schema.Float(10), out[1])
	assert.Equal(t, schema.Float(10), out[2])
	assert.Equal(t, schema.Float(10), out[3])
	assert.Equal(t, schema.Float(10), out[4])
	assert.Equal(t, schema.Float(15), out[5])
	assert.Equal(t, schema.Float(20), out[6])
}

func TestAlignForwardFill_LeadingMissingStaysUnfilled(t *testing.T) {
	s := mkSeries(0, math.NaN(), 1, 10, 2, 20)
	grid := mkGrid(0, 1, 2)
	out := AlignForwardFill(s, grid)

	assert.True(t, out[0].IsNaN())
	assert.Equal(t, schema.Float(10), out[1])
	assert.Equal(t, schema.Float(20), out[2])
}

func TestAlignForwardFill_SingleSampleIsStepFunction(t *testing.T) {
	s := mkSeries(5, 42)
	grid := mkGrid(0, 4, 5, 6, 100)
	out := AlignForwardFill(s, grid)

	assert.True(t, out[0].IsNaN())
	assert.True(t, out[1].IsNaN())
	assert.Equal(t, schema.Float(42), out[2])
	assert.Equal(t, schema.Float(42), out[3])
	assert.Equal(t, schema.Float(42), out[4])
}

func TestAlignForwardFill_Empty(t *testing.T) {
	grid := mkGrid(0, 1, 2)
	out := AlignForwardFill(schema.NewSeries(), grid)
	for _, v := range out {
		assert.True(t, v.IsNaN())
	}
}

func TestBuildGrid_UnionAndStep(t *testing.T) {
	a := mkSeries(0, 1, 30, 2)
	b := mkSeries(10, 1, 40, 2)
	grid := BuildGrid([]*schema.Series{a, b}, 10)

	assert.Equal(t, []schema.Instant{0, 10, 20, 30, 40}, grid.Points)
}

func TestBuildGrid_Empty(t *testing.T) {
	grid := BuildGrid(nil, 10)
	assert.Equal(t, 0, grid.Len())
}
