// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package schema holds the data model shared across every pipeline
// stage: the NaN-as-missing Float type, Instant/Series/ColumnTable,
// the DayRaw and Aligned trees, the physical Topology, and the Job
// state machine. Types here are pure data — no I/O, no concurrency —
// so every other package can depend on schema without creating
// import cycles.
package schema

// Matrix is a contiguous row-major 2-D buffer, time on axis 0
// (rows), channel on axis 1 (columns), indexed by (t,c) -> t*Cols+c.
// Using one flat []Float instead of [][]Float keeps per-channel
// reductions cache-friendly and avoids one allocation per row.
type Matrix struct {
	Rows, Cols int
	Data       []Float
}

func NewMatrix(rows, cols int) *Matrix {
	data := make([]Float, rows*cols)
	for i := range data {
		data[i] = NaN
	}
	return &Matrix{Rows: rows, Cols: cols, Data: data}
}

func (m *Matrix) At(t, c int) Float {
	return m.Data[t*m.Cols+c]
}

func (m *Matrix) Set(t, c int, v Float) {
	m.Data[t*m.Cols+c] = v
}

// Column returns a copy of column c across all rows.
func (m *Matrix) Column(c int) []Float {
	out := make([]Float, m.Rows)
	for t := 0; t < m.Rows; t++ {
		out[t] = m.Data[t*m.Cols+c]
	}
	return out
}

// TimeGrid is an ordered sequence of instants at a fixed step.
type TimeGrid struct {
	Step   int64 // seconds
	Points []Instant
}

func (g *TimeGrid) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Points)
}

// ModuleAligned holds one module's aligned voltage and temperature
// matrices, shape (|time|, CELLS_PER_MODULE) and (|time|,
// TEMP_PER_MODULE) respectively.
type ModuleAligned struct {
	ModuleID int
	Voltage  *Matrix
	Temp     *Matrix
}

// RackAligned is one rack's aligned summary series plus, when both
// voltage and temperature columns were present, its per-module
// matrices. A rack missing either input produces Modules == nil
// (spec §4.4 "Edge cases").
type RackAligned struct {
	RackID  string
	Summary *ColumnTable
	Modules []*ModuleAligned
}

// Aligned is the tree produced by the timeline aligner for one job:
// a uniform TimeGrid plus, per rack, a resampled summary and (when
// available) per-module voltage/temperature matrices. The optional
// Bank subtree is present only if a bank summary stream was parsed.
type Aligned struct {
	Time  *TimeGrid
	Bank  *ColumnTable
	Racks map[string]*RackAligned
}

func NewAligned() *Aligned {
	return &Aligned{Racks: make(map[string]*RackAligned)}
}
