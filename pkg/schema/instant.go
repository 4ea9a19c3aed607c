// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package schema

import (
	"regexp"
	"strconv"
	"time"
)

// Instant is a wall-clock timestamp truncated to whole-second
// resolution. Equality and ordering are total (unlike time.Time,
// which carries a monotonic reading that does not round-trip through
// Unix()).
type Instant int64

// Time converts back to a time.Time in UTC.
func (i Instant) Time() time.Time {
	return time.Unix(int64(i), 0).UTC()
}

func InstantFromTime(t time.Time) Instant {
	return Instant(t.Unix())
}

// timeRe matches "YYYY/M/D H:M:S" or "YYYY-MM-DD H:M:S", the two
// formats spec §4.3/§6 require. It is compiled once at package init
// and reused across every row so parsing never allocates a
// time.Parse layout string per call.
var timeRe = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})[ T](\d{1,2}):(\d{1,2}):(\d{1,2})$`)

// ParseInstant parses the two accepted wall-clock formats without
// allocating a format string per row. Returns ok=false (no error
// value) so callers can silently drop the row per spec's MalformedRow
// policy.
func ParseInstant(s string) (Instant, bool) {
	m := timeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	year, err1 := strconv.Atoi(m[1])
	month, err2 := strconv.Atoi(m[2])
	day, err3 := strconv.Atoi(m[3])
	hour, err4 := strconv.Atoi(m[4])
	min, err5 := strconv.Atoi(m[5])
	sec, err6 := strconv.Atoi(m[6])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil {
		return 0, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || min > 59 || sec > 59 {
		return 0, false
	}

	t := time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
	return Instant(t.Unix()), true
}
