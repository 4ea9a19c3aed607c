// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package ingest

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/bmspipeline/core/pkg/schema"
)

// TimeColumn is the name of the required timestamp column in every
// schema.
const TimeColumn = "time"

// columnSpec decides, for one header name, whether the column is kept
// and what scale factor to apply (spec §4.3's unit-normalization
// table). Returning ok=false drops the column entirely (neither an
// error nor a missing-filled series — it is simply not part of the
// parsed table).
type columnSpec func(header string) (scale float64, ok bool)

// fastParseFloat mirrors the "fast, tolerant float conversion" the
// original parsers rely on: unparseable input becomes the missing
// marker, never zero, and never a hard error.
func fastParseFloat(s string) (schema.Float, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return schema.NaN, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return schema.NaN, false
	}
	return schema.Float(v), true
}

// streamCSV is the common frame every parser builds on: stream rows
// one at a time (memory usage O(rows parsed so far), never O(file
// bytes)), parse the time column, skip rows whose time fails to
// parse, and accumulate the columns columnSpec selects, scaled.
// Malformed numeric fields become schema.NaN rather than aborting the
// row; only an unparseable time drops the whole row (spec §4.3,
// §7 MalformedRow).
func streamCSV(r io.Reader, spec columnSpec) (*schema.ColumnTable, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return schema.NewColumnTable(), 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	timeIdx := -1
	type col struct {
		idx   int
		name  string
		scale float64
	}
	var cols []col
	for i, h := range header {
		h = strings.TrimSpace(h)
		if strings.EqualFold(h, TimeColumn) {
			timeIdx = i
			continue
		}
		if scale, ok := spec(h); ok {
			cols = append(cols, col{idx: i, name: h, scale: scale})
		}
	}

	table := schema.NewColumnTable()
	if timeIdx < 0 {
		return table, 0, nil
	}

	series := make([]*schema.Series, len(cols))
	for i, c := range cols {
		series[i] = table.Column(c.name)
	}

	dropped := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			dropped++
			continue
		}
		if timeIdx >= len(record) {
			dropped++
			continue
		}

		t, ok := schema.ParseInstant(strings.TrimSpace(record[timeIdx]))
		if !ok {
			dropped++
			continue
		}

		for i, c := range cols {
			var v schema.Float
			if c.idx < len(record) {
				if raw, ok := fastParseFloat(record[c.idx]); ok {
					v = raw * schema.Float(c.scale)
				} else {
					v = schema.NaN
				}
			} else {
				v = schema.NaN
			}
			series[i].Append(t, v)
		}
	}

	return table, dropped, nil
}
