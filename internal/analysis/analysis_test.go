// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmspipeline/core/pkg/schema"
)

func mkModule(id int, volCols, tempCols, rows int) *schema.ModuleAligned {
	return &schema.ModuleAligned{
		ModuleID: id,
		Voltage:  schema.NewMatrix(rows, volCols),
		Temp:     schema.NewMatrix(rows, tempCols),
	}
}

func TestRegistry_LastWinsAndRunAll(t *testing.T) {
	r := NewRegistry()
	r.Register(&CellFeatures{})
	r.Register(&CellFeatures{})
	assert.Len(t, r.Names(), 1)

	aligned := schema.NewAligned()
	aligned.Time = &schema.TimeGrid{Step: 5}
	out, err := r.RunAll(aligned, schema.Defaults(), nil)
	require.NoError(t, err)
	assert.Contains(t, out, "CellFeatures")
}

func TestCellFeatures_MeanAndBounds(t *testing.T) {
	mod := mkModule(1, 2, 1, 3)
	mod.Voltage.Set(0, 0, 3.0)
	mod.Voltage.Set(1, 0, 3.2)
	mod.Voltage.Set(2, 0, 3.4)

	f := computeModuleFeatures(mod, 5)
	assert.InDelta(t, 3.2, float64(f.VMean[0]), 1e-9)
	assert.InDelta(t, 3.0, float64(f.VMin[0]), 1e-9)
	assert.InDelta(t, 3.4, float64(f.VMax[0]), 1e-9)
	assert.True(t, f.VMean[1].IsNaN())
}

func TestAnomalyDetector_VoltageAndTempSpread(t *testing.T) {
	mod := mkModule(1, 2, 2, 2)
	mod.Voltage.Set(0, 0, 3.0)
	mod.Voltage.Set(0, 1, 3.0)
	mod.Voltage.Set(1, 0, 3.8) // above charge cutoff
	mod.Voltage.Set(1, 1, 2.0) // below discharge cutoff

	mod.Temp.Set(0, 0, 20)
	mod.Temp.Set(0, 1, 21)
	mod.Temp.Set(1, 0, 20)
	mod.Temp.Set(1, 1, 30) // spread 10 > threshold 2.0

	cfg := schema.Defaults()
	ma := detectModuleAnomaly(mod, cfg)

	assert.Equal(t, []int{1}, ma.VoltHighIdx)
	assert.Equal(t, []int{1}, ma.VoltLowIdx)
	assert.Equal(t, []int{1}, ma.HighTempSpreadIdx)
}

func TestSOHProxy_BoundedWhenFlat(t *testing.T) {
	mod := mkModule(1, 2, 1, 4)
	for t := 0; t < 4; t++ {
		mod.Voltage.Set(t, 0, 3.3)
		mod.Voltage.Set(t, 1, 3.3)
	}

	soh := computeModuleSOH(mod, 5)
	assert.False(t, float64(soh.SOHCapacity) != float64(soh.SOHCapacity)) // not NaN
	assert.GreaterOrEqual(t, float64(soh.SOHResistance), 0.0)
}
