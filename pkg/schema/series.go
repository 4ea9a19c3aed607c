// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package schema

import "sort"

// Series is a pair (times, values) of equal length. Times are
// monotonically nondecreasing instants; values are real numbers or
// NaN (missing). Duplicate timestamps are removed on Append, keeping
// the first occurrence.
type Series struct {
	Times  []Instant
	Values []Float
}

// NewSeries returns an empty series ready for streaming Append calls.
func NewSeries() *Series {
	return &Series{}
}

// Append adds one sample, deduplicating by timestamp (keep-first) and
// preserving the invariant that Times never regresses. A row whose
// timestamp is strictly less than the last-seen timestamp indicates
// an out-of-order source row; it is dropped rather than breaking the
// monotonic-nondecreasing invariant.
func (s *Series) Append(t Instant, v Float) {
	n := len(s.Times)
	if n == 0 {
		s.Times = append(s.Times, t)
		s.Values = append(s.Values, v)
		return
	}

	last := s.Times[n-1]
	if t < last {
		return
	}
	if t == last {
		// keep-first: duplicate timestamp, discard this sample
		return
	}
	s.Times = append(s.Times, t)
	s.Values = append(s.Values, v)
}

func (s *Series) Len() int {
	return len(s.Times)
}

// Bounds returns the first and last timestamp. ok is false for an
// empty series.
func (s *Series) Bounds() (min, max Instant, ok bool) {
	if len(s.Times) == 0 {
		return 0, 0, false
	}
	return s.Times[0], s.Times[len(s.Times)-1], true
}

// ColumnTable maps column name to Series. Columns in a ColumnTable do
// not necessarily share one time vector until they pass through the
// aligner: a parser gives every column a sample (NaN when the field is
// unparseable) for each row it keeps, but columns merged in from
// another archive member keep their own timestamps.
type ColumnTable struct {
	Columns map[string]*Series
}

func NewColumnTable() *ColumnTable {
	return &ColumnTable{Columns: make(map[string]*Series)}
}

// Column returns the named series, creating it if absent.
func (c *ColumnTable) Column(name string) *Series {
	s, ok := c.Columns[name]
	if !ok {
		s = NewSeries()
		c.Columns[name] = s
	}
	return s
}

// SortedNames returns the column table's keys in a deterministic
// order, used wherever output document key order must be stable
// (spec §8 scenario 3, §9 "stable key ordering for reproducibility").
func (c *ColumnTable) SortedNames() []string {
	names := make([]string, 0, len(c.Columns))
	for n := range c.Columns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
