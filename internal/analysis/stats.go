// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analysis

import (
	"math"

	"github.com/bmspipeline/core/pkg/schema"
)

// nanMean, nanStd, nanMin, nanMax ignore missing values the way every
// plugin's numeric policy requires (spec §4.6 "missing propagates
// through nan-aware reductions"). All four return schema.NaN when
// every value in xs is missing.

func nanMean(xs []schema.Float) schema.Float {
	var sum schema.Float
	n := 0
	for _, v := range xs {
		if v.IsNaN() {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return schema.NaN
	}
	return sum / schema.Float(n)
}

func nanStd(xs []schema.Float) schema.Float {
	mean := nanMean(xs)
	if mean.IsNaN() {
		return schema.NaN
	}
	var sumSq schema.Float
	n := 0
	for _, v := range xs {
		if v.IsNaN() {
			continue
		}
		d := v - mean
		sumSq += d * d
		n++
	}
	if n == 0 {
		return schema.NaN
	}
	return schema.Float(math.Sqrt(float64(sumSq / schema.Float(n))))
}

func nanMin(xs []schema.Float) schema.Float {
	min := schema.NaN
	for _, v := range xs {
		if v.IsNaN() {
			continue
		}
		if min.IsNaN() || v < min {
			min = v
		}
	}
	return min
}

func nanMax(xs []schema.Float) schema.Float {
	max := schema.NaN
	for _, v := range xs {
		if v.IsNaN() {
			continue
		}
		if max.IsNaN() || v > max {
			max = v
		}
	}
	return max
}

// centralDiff computes dV/dt for one channel's time series using
// central differences in the interior and one-sided differences at
// the two endpoints, dt in seconds. A NaN operand propagates to a NaN
// derivative at that index (spec §4.6 CellFeatures "dynamic dV/dt via
// central differences").
func centralDiff(xs []schema.Float, dtSec int64) []schema.Float {
	n := len(xs)
	out := make([]schema.Float, n)
	if n == 0 {
		return out
	}
	dt := schema.Float(dtSec)
	if n == 1 {
		out[0] = schema.NaN
		return out
	}
	out[0] = safeDiv(xs[1]-xs[0], dt)
	out[n-1] = safeDiv(xs[n-1]-xs[n-2], dt)
	for i := 1; i < n-1; i++ {
		out[i] = safeDiv(xs[i+1]-xs[i-1], 2*dt)
	}
	return out
}

func safeDiv(num, den schema.Float) schema.Float {
	if num.IsNaN() || den.IsNaN() || den == 0 {
		return schema.NaN
	}
	return num / den
}
