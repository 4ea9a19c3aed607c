// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package schema

// Cell is one voltage-monitored cell inside a module. GlobalCellID is
// 1-based and contiguous within a rack; Row/Col locate it inside the
// module's MODULE_ROWS x MODULE_COLS grid.
type Cell struct {
	GlobalCellID int
	ModuleID     int
	Row, Col     int
}

// TemperatureSensor is one temperature probe inside a module.
type TemperatureSensor struct {
	GlobalTempID int
	ModuleID     int
	Position     int
}

// Module owns a fixed grid of cells and a fixed number of temperature
// sensors.
type Module struct {
	ModuleID int
	Cells    []Cell
	Temps    []TemperatureSensor
}

// Rack owns Modules.
type Rack struct {
	RackID  int
	Modules []Module
}

// Stack owns Racks: the root of the physical hierarchy.
type Stack struct {
	StackID int
	Racks   []Rack
}

// Topology is a built Stack plus lookup maps from global cell id and
// global temperature-sensor id to position (spec §4.5). The maps go
// one way only: there is no position-to-id lookup, and since ids
// restart at 1 in every rack, a lookup result carries no rack. It is
// immutable once built and shared read-only by every analyzer within
// a job.
type Topology struct {
	Stack *Stack

	CellsPerModule int
	TempPerModule  int
	ModuleRows     int
	ModuleCols     int

	cellByID map[int]Cell
	tempByID map[int]TemperatureSensor
}

// CellPosition looks up a cell by its global id within a rack.
func (t *Topology) CellPosition(globalCellID int) (Cell, bool) {
	c, ok := t.cellByID[globalCellID]
	return c, ok
}

// TempPosition looks up a temperature sensor by its global id within
// a rack.
func (t *Topology) TempPosition(globalTempID int) (TemperatureSensor, bool) {
	s, ok := t.tempByID[globalTempID]
	return s, ok
}
