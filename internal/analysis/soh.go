// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analysis

import (
	"math"

	"github.com/bmspipeline/core/pkg/schema"
)

func init() {
	Default.Register(&SOHProxy{})
}

// sohEpsilon guards every division the SOH proxy performs against a
// degenerate zero denominator (spec §8 "max = min in SOH capacity
// normalize -> bounded by epsilon").
const sohEpsilon = 1e-6

// ModuleSOH is the pair of state-of-health proxy scalars for one
// module.
type ModuleSOH struct {
	ModuleID      int          `json:"moduleId"`
	SOHCapacity   schema.Float `json:"sohCapacity"`
	SOHResistance schema.Float `json:"sohResistance"`
}

// SOHResult is rack -> ordered list of per-module SOH proxies.
type SOHResult map[string][]ModuleSOH

// SOHProxy derives two approximate state-of-health scalars per
// module from the module's mean-cell-voltage time series and its
// mean dV/dt time series (spec §4.6 SOHProxy plugin). The capacity
// proxy min/max-normalizes the mean-voltage series and reports the
// average of the normalized samples, an unusual capacity estimate
// that is kept as-is rather than replaced.
type SOHProxy struct{}

func (p *SOHProxy) Name() string { return "SOHProxy" }
func (p *SOHProxy) Kind() Kind   { return KindSOH }

func (p *SOHProxy) Run(aligned *schema.Aligned, cfg schema.ProgramConfig, topo *schema.Topology) (any, error) {
	result := make(SOHResult)

	for rackID, rack := range aligned.Racks {
		var modules []ModuleSOH
		for _, mod := range rack.Modules {
			modules = append(modules, computeModuleSOH(mod, aligned.Time.Step))
		}
		result[rackID] = modules
	}
	return result, nil
}

func computeModuleSOH(mod *schema.ModuleAligned, stepSec int64) ModuleSOH {
	rows := mod.Voltage.Rows
	vMean := make([]schema.Float, rows)
	for t := 0; t < rows; t++ {
		vMean[t] = nanMean(rowAt(mod.Voltage, t))
	}

	dvdtSum := make([]schema.Float, rows)
	finiteCounts := make([]int, rows)
	for c := 0; c < mod.Voltage.Cols; c++ {
		dvdt := centralDiff(mod.Voltage.Column(c), stepSec)
		for t := 0; t < rows; t++ {
			if dvdt[t].IsNaN() {
				continue
			}
			dvdtSum[t] += dvdt[t]
			finiteCounts[t]++
		}
	}
	dvdtMean := make([]schema.Float, rows)
	for t := 0; t < rows; t++ {
		if finiteCounts[t] == 0 {
			dvdtMean[t] = schema.NaN
		} else {
			dvdtMean[t] = dvdtSum[t] / schema.Float(finiteCounts[t])
		}
	}

	return ModuleSOH{
		ModuleID:      mod.ModuleID,
		SOHCapacity:   sohCapacity(vMean),
		SOHResistance: sohResistance(dvdtMean),
	}
}

// sohCapacity is mean over t of normalize(vMean), normalize(x) = (x -
// min(x)) / (max(x) - min(x) + epsilon) — every sample is normalized
// against the whole series' own min/max, and the normalized samples
// are then averaged (spec §4.6, preserved as specified).
func sohCapacity(vMean []schema.Float) schema.Float {
	min := nanMin(vMean)
	max := nanMax(vMean)
	if min.IsNaN() || max.IsNaN() {
		return schema.NaN
	}
	denom := max - min + sohEpsilon

	normalized := make([]schema.Float, len(vMean))
	for i, v := range vMean {
		if v.IsNaN() {
			normalized[i] = schema.NaN
			continue
		}
		normalized[i] = (v - min) / denom
	}
	return nanMean(normalized)
}

// sohResistance is mean over t of tanh(1 / (|dvdtMean(t)| + epsilon)).
func sohResistance(dvdtMean []schema.Float) schema.Float {
	out := make([]schema.Float, len(dvdtMean))
	for i, v := range dvdtMean {
		if v.IsNaN() {
			out[i] = schema.NaN
			continue
		}
		abs := float64(v)
		if abs < 0 {
			abs = -abs
		}
		out[i] = schema.Float(math.Tanh(1 / (abs + sohEpsilon)))
	}
	return nanMean(out)
}
