// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package worker implements the bounded-admission job pool, the
// per-worker resource guard, and the ingest-align-analyze-export
// orchestration for one job (spec §4.7, §5).
package worker

import (
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/bmspipeline/core/pkg/bmserr"
	"github.com/bmspipeline/core/pkg/log"
)

// GuardAction is what a ResourceGuard does when a sample exceeds the
// configured threshold.
type GuardAction string

const (
	GuardGC    GuardAction = "gc"
	GuardWarn  GuardAction = "warn"
	GuardRaise GuardAction = "raise"
)

// ResourceGuard samples a worker's resident memory no more often than
// once per interval and takes the configured action when the sample
// exceeds maxRssBytes. Check is cheap on the common path: a single
// atomic load and a time comparison, no allocation, until the
// interval has actually elapsed.
type ResourceGuard struct {
	intervalNano int64
	maxRssBytes  uint64
	action       GuardAction
	lastCheck    atomic.Int64
}

// NewResourceGuard builds a guard from the job's configured interval
// and limit. A zero or negative intervalSec disables sampling
// (Check always returns nil).
func NewResourceGuard(intervalSec int64, maxRssMB int64, action string) *ResourceGuard {
	g := &ResourceGuard{
		intervalNano: intervalSec * int64(time.Second),
		maxRssBytes:  uint64(maxRssMB) * 1024 * 1024,
		action:       GuardAction(action),
	}
	g.lastCheck.Store(time.Now().UnixNano())
	return g
}

// Check samples memory if the configured interval has elapsed since
// the last sample and applies the configured action if the sample
// exceeds the limit. It returns a KindMemoryLimitExceeded error only
// when the action is "raise" and the limit was exceeded; callers must
// treat that as fatal to the current job.
func (g *ResourceGuard) Check() error {
	if g.intervalNano <= 0 {
		return nil
	}
	now := time.Now().UnixNano()
	last := g.lastCheck.Load()
	if now-last < g.intervalNano {
		return nil
	}
	if !g.lastCheck.CompareAndSwap(last, now) {
		return nil
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	if mem.Sys < g.maxRssBytes {
		return nil
	}

	switch g.action {
	case GuardGC:
		debug.FreeOSMemory()
	case GuardWarn:
		log.Warnf("worker resident memory %d exceeds limit %d", mem.Sys, g.maxRssBytes)
	case GuardRaise:
		return bmserr.Wrap(bmserr.KindMemoryLimitExceeded, "resident memory over limit", nil)
	}
	return nil
}
