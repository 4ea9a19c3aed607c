// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package aligner

import "github.com/bmspipeline/core/pkg/schema"

// Align builds the job-wide time grid from every series in day, then
// resamples the bank summary, each rack's summary, and (where both
// voltage and temperature streams exist) each rack's per-module
// matrices onto it. Summary scalars use linear interpolation;
// per-cell voltages use linear interpolation; per-cell temperatures
// use forward-fill (spec §4.4).
func Align(day *schema.DayRaw, topo *schema.Topology, stepSec int64) *schema.Aligned {
	grid := BuildGrid(allSeries(day), stepSec)

	out := schema.NewAligned()
	out.Time = grid

	if day.BankSummary != nil {
		out.Bank = alignTable(day.BankSummary, grid)
	}

	for _, rackID := range day.RackIDs() {
		raw := day.Rack(rackID)
		aligned := &schema.RackAligned{RackID: rackID}

		if raw.Summary != nil {
			aligned.Summary = alignTable(raw.Summary, grid)
		}

		if raw.BatVol != nil && raw.BatTemp != nil {
			aligned.Modules = projectModules(grid, raw, topo)
		}

		out.Racks[rackID] = aligned
	}

	return out
}

// alignTable linearly resamples every column of a scalar summary
// table onto grid, preserving column names.
func alignTable(table *schema.ColumnTable, grid *schema.TimeGrid) *schema.ColumnTable {
	out := schema.NewColumnTable()
	for _, name := range table.SortedNames() {
		src := table.Columns[name]
		vals := AlignLinear(src, grid)
		dst := out.Column(name)
		dst.Times = grid.Points
		dst.Values = vals
	}
	return out
}

// allSeries flattens every series across a DayRaw into one slice, the
// union BuildGrid needs to compute the job's tMin/tMax.
func allSeries(day *schema.DayRaw) []*schema.Series {
	var all []*schema.Series
	if day.BankSummary != nil {
		for _, s := range day.BankSummary.Columns {
			all = append(all, s)
		}
	}
	for _, rackID := range day.RackIDs() {
		r := day.Rack(rackID)
		for _, t := range []*schema.ColumnTable{r.Summary, r.BatVol, r.BatTemp} {
			if t == nil {
				continue
			}
			for _, s := range t.Columns {
				all = append(all, s)
			}
		}
	}
	return all
}
