// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package schema

import "sort"

// RackRaw groups the three streams that can appear for one rack id
// before alignment: its scalar summary, per-cell voltages, and
// per-cell temperatures. Any of the three may be absent.
type RackRaw struct {
	Summary *ColumnTable
	BatVol  *ColumnTable
	BatTemp *ColumnTable
}

func newRackRaw() *RackRaw {
	return &RackRaw{}
}

// DayRaw is the loose, per-job aggregate every parsed CSV member is
// merged into before alignment (spec §3 "DayRaw"). It is owned by a
// single worker for the worker's entire lifetime; no locking is
// needed.
type DayRaw struct {
	BankSummary *ColumnTable
	Racks       map[string]*RackRaw
}

func NewDayRaw() *DayRaw {
	return &DayRaw{Racks: make(map[string]*RackRaw)}
}

// Rack returns the RackRaw for rackID, creating it on first use.
func (d *DayRaw) Rack(rackID string) *RackRaw {
	r, ok := d.Racks[rackID]
	if !ok {
		r = newRackRaw()
		d.Racks[rackID] = r
	}
	return r
}

// BankSummaryTable lazily creates the bank summary table. Later
// writers overwrite earlier ones for the bank slot, matching the
// tolerated "last writer wins" merge rule in spec §4.7.
func (d *DayRaw) BankSummaryTable() *ColumnTable {
	if d.BankSummary == nil {
		d.BankSummary = NewColumnTable()
	}
	return d.BankSummary
}

// RackIDs returns the set of rack ids present, sorted, for
// deterministic iteration order.
func (d *DayRaw) RackIDs() []string {
	ids := make([]string, 0, len(d.Racks))
	for id := range d.Racks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
