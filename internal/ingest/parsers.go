// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package ingest

import (
	"io"
	"strings"

	"github.com/bmspipeline/core/pkg/schema"
)

// ParseBankSummary parses a bank-level summary CSV (spec §6:
// time, totalVol, totalCur, soc, soh; other columns are allowed and
// ignored). totalVol/totalCur/soc/soh are scaled x0.1 per spec §4.3.
func ParseBankSummary(r io.Reader) (*schema.ColumnTable, int, error) {
	return streamCSV(r, func(h string) (float64, bool) {
		switch h {
		case "totalVol", "totalCur", "soc", "soh":
			return 0.1, true
		default:
			return 0, false
		}
	})
}

// ParseRackSummary parses a rack-level summary CSV (spec §6: time,
// totalVol, totalCurrent, soc, soh, maxSingleVoltageValue,
// minSingleVoltageValue, maxSingleTempValue, minSingleTempValue).
// totalVol/totalCurrent/soc/soh/maxSingleTemp*/minSingleTemp* scale
// x0.1; maxSingleVoltage*/minSingleVoltage* scale x0.001 (spec §4.3).
func ParseRackSummary(r io.Reader) (*schema.ColumnTable, int, error) {
	return streamCSV(r, func(h string) (float64, bool) {
		switch {
		case h == "totalVol", h == "totalCurrent", h == "soc", h == "soh":
			return 0.1, true
		case strings.HasPrefix(h, "maxSingleTemp"), strings.HasPrefix(h, "minSingleTemp"):
			return 0.1, true
		case strings.HasPrefix(h, "maxSingleVoltage"), strings.HasPrefix(h, "minSingleVoltage"):
			return 0.001, true
		default:
			return 0, false
		}
	})
}

// ParseBatVol parses a per-cell voltage CSV (time, V1..Vn), scaling
// mV -> V (x0.001, spec §4.3).
func ParseBatVol(r io.Reader) (*schema.ColumnTable, int, error) {
	return streamCSV(r, func(h string) (float64, bool) {
		if isChannelColumn(h, 'V') {
			return 0.001, true
		}
		return 0, false
	})
}

// ParseBatTemp parses a per-cell temperature CSV (time, T1..Tm),
// scaling 0.1 degC steps -> degC (x0.1, spec §4.3).
func ParseBatTemp(r io.Reader) (*schema.ColumnTable, int, error) {
	return streamCSV(r, func(h string) (float64, bool) {
		if isChannelColumn(h, 'T') {
			return 0.1, true
		}
		return 0, false
	})
}

// isChannelColumn reports whether h is prefix followed by one or more
// digits (V1, V23, T140, ...), rejecting names that merely start with
// the same letter (e.g. "Vendor" would not match "V").
func isChannelColumn(h string, prefix byte) bool {
	if len(h) < 2 || h[0] != prefix {
		return false
	}
	for i := 1; i < len(h); i++ {
		if h[i] < '0' || h[i] > '9' {
			return false
		}
	}
	return true
}
