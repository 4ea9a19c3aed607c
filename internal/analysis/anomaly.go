// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analysis

import "github.com/bmspipeline/core/pkg/schema"

func init() {
	Default.Register(&AnomalyDetector{})
}

// ModuleAnomaly lists the grid indices, per module, where a
// temperature-spread or voltage-bound anomaly was observed. An empty
// slice (marshaled as an empty JSON array) means no anomaly of that
// kind occurred.
type ModuleAnomaly struct {
	ModuleID          int   `json:"moduleId"`
	HighTempSpreadIdx []int `json:"highTempSpreadIdx"`
	VoltLowIdx        []int `json:"voltLowIdx"`
	VoltHighIdx       []int `json:"voltHighIdx"`
}

// AnomalyResult is rack -> ordered list of per-module anomalies.
type AnomalyResult map[string][]ModuleAnomaly

// AnomalyDetector flags, per module, the time indices where the
// per-row temperature spread exceeds TempDiffThreshold, and
// independently the indices where any cell voltage falls outside
// [VoltDischargeCutoff, VoltChargeCutoff] (spec §4.6 AnomalyDetector
// plugin).
type AnomalyDetector struct{}

func (p *AnomalyDetector) Name() string { return "AnomalyDetector" }
func (p *AnomalyDetector) Kind() Kind   { return KindAnomaly }

func (p *AnomalyDetector) Run(aligned *schema.Aligned, cfg schema.ProgramConfig, topo *schema.Topology) (any, error) {
	result := make(AnomalyResult)

	for rackID, rack := range aligned.Racks {
		var modules []ModuleAnomaly
		for _, mod := range rack.Modules {
			modules = append(modules, detectModuleAnomaly(mod, cfg))
		}
		result[rackID] = modules
	}
	return result, nil
}

func detectModuleAnomaly(mod *schema.ModuleAligned, cfg schema.ProgramConfig) ModuleAnomaly {
	ma := ModuleAnomaly{
		ModuleID:          mod.ModuleID,
		HighTempSpreadIdx: []int{},
		VoltLowIdx:        []int{},
		VoltHighIdx:       []int{},
	}

	for t := 0; t < mod.Temp.Rows; t++ {
		row := rowAt(mod.Temp, t)
		spread := nanMax(row) - nanMin(row)
		if spread.IsNaN() {
			continue
		}
		if float64(spread) > cfg.TempDiffThreshold {
			ma.HighTempSpreadIdx = append(ma.HighTempSpreadIdx, t)
		}
	}

	for t := 0; t < mod.Voltage.Rows; t++ {
		row := rowAt(mod.Voltage, t)
		low, high := false, false
		for _, v := range row {
			if v.IsNaN() {
				continue
			}
			if float64(v) < cfg.VoltDischargeCutoff {
				low = true
			}
			if float64(v) > cfg.VoltChargeCutoff {
				high = true
			}
		}
		if low {
			ma.VoltLowIdx = append(ma.VoltLowIdx, t)
		}
		if high {
			ma.VoltHighIdx = append(ma.VoltHighIdx, t)
		}
	}

	return ma
}

// rowAt extracts row t of m without the allocation-per-column cost of
// repeated Matrix.Column calls in the inner time loop.
func rowAt(m *schema.Matrix, t int) []schema.Float {
	return m.Data[t*m.Cols : (t+1)*m.Cols]
}
