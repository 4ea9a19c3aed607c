// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analysis

import "github.com/bmspipeline/core/pkg/schema"

func init() {
	Default.Register(&CellFeatures{})
}

// ModuleFeatures is the per-channel array layout spec §4.6 calls for:
// one slice entry per voltage/temperature channel rather than one
// struct per channel duplicated across keys.
type ModuleFeatures struct {
	VMean    []schema.Float `json:"v_mean"`
	VStd     []schema.Float `json:"v_std"`
	VMin     []schema.Float `json:"v_min"`
	VMax     []schema.Float `json:"v_max"`
	TMean    []schema.Float `json:"t_mean"`
	TStd     []schema.Float `json:"t_std"`
	DVDTMean []schema.Float `json:"dvdt_mean"`
	DVDTStd  []schema.Float `json:"dvdt_std"`
}

// CellFeaturesResult is rack -> moduleId -> ModuleFeatures. A rack
// with no modules (missing voltage or temperature input) maps to an
// empty object rather than being omitted (spec §8 scenario 2).
type CellFeaturesResult map[string]map[int]*ModuleFeatures

// CellFeatures computes per-channel voltage/temperature summary
// statistics and dV/dt dynamics for every (rack, module) pair with
// both aligned voltage and temperature matrices (spec §4.6
// CellFeatures plugin).
type CellFeatures struct{}

func (p *CellFeatures) Name() string { return "CellFeatures" }
func (p *CellFeatures) Kind() Kind   { return KindCell }

func (p *CellFeatures) Run(aligned *schema.Aligned, cfg schema.ProgramConfig, topo *schema.Topology) (any, error) {
	result := make(CellFeaturesResult)

	for rackID, rack := range aligned.Racks {
		modules := make(map[int]*ModuleFeatures)
		for _, mod := range rack.Modules {
			modules[mod.ModuleID] = computeModuleFeatures(mod, aligned.Time.Step)
		}
		result[rackID] = modules
	}
	return result, nil
}

func computeModuleFeatures(mod *schema.ModuleAligned, stepSec int64) *ModuleFeatures {
	f := &ModuleFeatures{
		VMean:    make([]schema.Float, mod.Voltage.Cols),
		VStd:     make([]schema.Float, mod.Voltage.Cols),
		VMin:     make([]schema.Float, mod.Voltage.Cols),
		VMax:     make([]schema.Float, mod.Voltage.Cols),
		DVDTMean: make([]schema.Float, mod.Voltage.Cols),
		DVDTStd:  make([]schema.Float, mod.Voltage.Cols),
		TMean:    make([]schema.Float, mod.Temp.Cols),
		TStd:     make([]schema.Float, mod.Temp.Cols),
	}

	for c := 0; c < mod.Voltage.Cols; c++ {
		col := mod.Voltage.Column(c)
		f.VMean[c] = nanMean(col)
		f.VStd[c] = nanStd(col)
		f.VMin[c] = nanMin(col)
		f.VMax[c] = nanMax(col)

		dvdt := centralDiff(col, stepSec)
		f.DVDTMean[c] = nanMean(dvdt)
		f.DVDTStd[c] = nanStd(dvdt)
	}

	for c := 0; c < mod.Temp.Cols; c++ {
		col := mod.Temp.Column(c)
		f.TMean[c] = nanMean(col)
		f.TStd[c] = nanStd(col)
	}

	return f
}
