// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package aligner

import (
	"sort"
	"strconv"

	"github.com/bmspipeline/core/pkg/schema"
)

// channelColumns returns the columns of table whose name is prefix
// followed by a positive integer (V1, V2, ... or T1, T2, ...), sorted
// by that integer rather than lexically, so "V10" sorts after "V9".
// Columns that don't match the pattern are ignored, matching the
// parser's own channel-detection rule.
func channelColumns(table *schema.ColumnTable, prefix byte) []string {
	type named struct {
		name string
		idx  int
	}
	var found []named
	for name := range table.Columns {
		if len(name) < 2 || name[0] != prefix {
			continue
		}
		n, err := strconv.Atoi(name[1:])
		if err != nil {
			continue
		}
		found = append(found, named{name, n})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].idx < found[j].idx })

	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.name
	}
	return names
}

// projectModules partitions a rack's aligned voltage/temperature
// columns into contiguous per-module matrices, honoring the topology's
// row-major channel ordering: the first CellsPerModule voltage columns
// (by numeric suffix) form module 1, the next CellsPerModule form
// module 2, and so on; analogously for TempPerModule temperature
// columns. A trailing group of columns too short to fill one whole
// module is silently dropped rather than producing a partial matrix
// (spec §9 Open Question (a)) — the same policy the source topology
// builder applies when NRacks*NModulesPerRack doesn't consume every
// channel in an oversized file.
func projectModules(grid *schema.TimeGrid, rack *schema.RackRaw, topo *schema.Topology) []*schema.ModuleAligned {
	nVoltCols := 0
	if rack.BatVol != nil {
		nVoltCols = len(channelColumns(rack.BatVol, 'V'))
	}
	nTempCols := 0
	if rack.BatTemp != nil {
		nTempCols = len(channelColumns(rack.BatTemp, 'T'))
	}

	nModules := nVoltCols / topo.CellsPerModule
	if m := nTempCols / topo.TempPerModule; m < nModules {
		nModules = m
	}
	if nModules == 0 {
		return nil
	}

	volNames := channelColumns(rack.BatVol, 'V')
	tempNames := channelColumns(rack.BatTemp, 'T')

	modules := make([]*schema.ModuleAligned, nModules)
	for m := 0; m < nModules; m++ {
		vm := schema.NewMatrix(grid.Len(), topo.CellsPerModule)
		for c := 0; c < topo.CellsPerModule; c++ {
			col := rack.BatVol.Column(volNames[m*topo.CellsPerModule+c])
			out := AlignLinear(col, grid)
			for t, v := range out {
				vm.Set(t, c, v)
			}
		}

		tm := schema.NewMatrix(grid.Len(), topo.TempPerModule)
		for c := 0; c < topo.TempPerModule; c++ {
			col := rack.BatTemp.Column(tempNames[m*topo.TempPerModule+c])
			out := AlignForwardFill(col, grid)
			for t, v := range out {
				tm.Set(t, c, v)
			}
		}

		modules[m] = &schema.ModuleAligned{ModuleID: m + 1, Voltage: vm, Temp: tm}
	}
	return modules
}
