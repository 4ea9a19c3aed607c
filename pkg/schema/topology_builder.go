// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package schema

// TopologyConfig carries the dimensions a Topology is built from
// (spec §4.5): rack count, modules per rack, the cell grid within a
// module, and the number of temperature sensors per module.
type TopologyConfig struct {
	NRacks          int
	NModulesPerRack int
	ModuleRows      int
	ModuleCols      int
	TempPerModule   int
}

// BuildTopology constructs a Stack with deterministic 1-based,
// contiguous id assignment and the cell/temp lookup maps used by
// analyzers and the result store. Cells are assigned row-major within
// a module (row outer, col inner), matching the V1, V2, ... column
// order assumed by the aligner's contiguous-block partition.
func BuildTopology(stackID int, cfg TopologyConfig) *Topology {
	cellsPerModule := cfg.ModuleRows * cfg.ModuleCols

	stack := &Stack{StackID: stackID}
	cellByID := make(map[int]Cell)
	tempByID := make(map[int]TemperatureSensor)

	for r := 0; r < cfg.NRacks; r++ {
		rack := Rack{RackID: r + 1}
		globalCellID := 1
		globalTempID := 1

		for m := 0; m < cfg.NModulesPerRack; m++ {
			mod := Module{ModuleID: m + 1}

			for row := 0; row < cfg.ModuleRows; row++ {
				for col := 0; col < cfg.ModuleCols; col++ {
					c := Cell{
						GlobalCellID: globalCellID,
						ModuleID:     mod.ModuleID,
						Row:          row,
						Col:          col,
					}
					mod.Cells = append(mod.Cells, c)
					cellByID[globalCellID] = c
					globalCellID++
				}
			}

			for pos := 0; pos < cfg.TempPerModule; pos++ {
				s := TemperatureSensor{
					GlobalTempID: globalTempID,
					ModuleID:     mod.ModuleID,
					Position:     pos,
				}
				mod.Temps = append(mod.Temps, s)
				tempByID[globalTempID] = s
				globalTempID++
			}

			rack.Modules = append(rack.Modules, mod)
		}

		stack.Racks = append(stack.Racks, rack)
	}

	return &Topology{
		Stack:          stack,
		CellsPerModule: cellsPerModule,
		TempPerModule:  cfg.TempPerModule,
		ModuleRows:     cfg.ModuleRows,
		ModuleCols:     cfg.ModuleCols,
		cellByID:       cellByID,
		tempByID:       tempByID,
	}
}
