// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ingest maps tar member names to the CSV parser responsible
// for them (spec §4.2) and implements the three streaming CSV parsers
// themselves (spec §4.3).
package ingest

import "strings"

// Kind identifies which parser a tar member routes to.
type Kind int

const (
	None Kind = iota
	Summary
	BatVol
	BatTemp
)

// Classify chooses a Kind for a member name by case-insensitive
// substring match, in priority order: summary, batvol/bat_vol,
// battemp/bat_temp. When both "bank" and "summary" or "rack<N>" and
// "summary" appear, Classify still only returns Summary — whether the
// stream is bank-level or rack-level, and which rack, is resolved by
// RackID/IsBank below, since a single file may plausibly carry both
// tokens and the spec treats them as the same parser family sharing
// one streaming frame (spec §4.3).
func Classify(memberName string) Kind {
	n := strings.ToLower(memberName)
	switch {
	case strings.Contains(n, "summary"):
		return Summary
	case strings.Contains(n, "batvol") || strings.Contains(n, "bat_vol"):
		return BatVol
	case strings.Contains(n, "battemp") || strings.Contains(n, "bat_temp"):
		return BatTemp
	default:
		return None
	}
}

// IsBank reports whether a member name carries the "bank" token (spec
// §4.2, §6).
func IsBank(memberName string) bool {
	return strings.Contains(strings.ToLower(memberName), "bank")
}

// RackID extracts the rack id from "rack<digits>" in memberName,
// returning ("", false) when absent — the caller groups such streams
// under "rack_unknown" per spec §4.7.
func RackID(memberName string) (string, bool) {
	n := strings.ToLower(memberName)
	idx := strings.Index(n, "rack")
	if idx < 0 {
		return "", false
	}
	i := idx + len("rack")
	start := i
	for i < len(n) && n[i] >= '0' && n[i] <= '9' {
		i++
	}
	if i == start {
		return "", false
	}
	return n[start:i], true
}
