// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics holds a private prometheus.Registry for the pool's
// own operational counters (jobs submitted/succeeded/failed/cancelled,
// in-flight gauge, job duration histogram, process memory gauge).
// Nothing here starts an
// HTTP server; `bmspipeline metrics` dumps the registry's current
// values to stdout in the Prometheus text exposition format instead,
// the way codefang's own PrometheusHandler feeds a registry but this
// module stops short of exposing it over promhttp (spec's HTTP
// surface is a Non-goal).
package metrics

import (
	"fmt"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bmspipeline/core/pkg/log"
)

// Registry is the process-wide collector set. It is private (not
// prometheus.DefaultRegisterer) so tests can construct an isolated
// one without colliding with other packages' default-registry metrics.
var Registry = prometheus.NewRegistry()

var (
	JobsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bmspipeline_jobs_submitted_total",
		Help: "Total number of jobs admitted by the worker pool.",
	})
	JobsSucceeded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bmspipeline_jobs_succeeded_total",
		Help: "Total number of jobs that completed the EXPORT stage successfully.",
	})
	JobsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bmspipeline_jobs_failed_total",
		Help: "Total number of jobs that ended in FAILED.",
	})
	JobsCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bmspipeline_jobs_cancelled_total",
		Help: "Total number of jobs that ended in CANCELLED.",
	})
	JobsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bmspipeline_jobs_in_flight",
		Help: "Number of jobs currently RUNNING.",
	})
	JobDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bmspipeline_job_duration_seconds",
		Help:    "Wall-clock duration of a successful job from RUNNING to SUCCESS.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
	ProcessRSSBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bmspipeline_process_rss_bytes",
		Help: "Process resident memory as of the last background sample.",
	})
)

func init() {
	Registry.MustRegister(JobsSubmitted, JobsSucceeded, JobsFailed, JobsCancelled, JobsInFlight, JobDurationSeconds, ProcessRSSBytes)
}

// StartSampler schedules a background heartbeat, independent of any
// per-job ResourceGuard, that samples process memory every interval
// and both updates ProcessRSSBytes and logs a human-readable figure —
// the same heartbeat-and-log pattern the source repository's
// taskManager registers its periodic maintenance jobs with, applied
// here to whole-process observability rather than per-job archiving.
// The returned scheduler is already started; callers Shutdown() it
// when the process is ending.
func StartSampler(interval time.Duration) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create metrics sampler scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(sampleProcessMemory),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule metrics sampler: %w", err)
	}
	s.Start()
	return s, nil
}

func sampleProcessMemory() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	ProcessRSSBytes.Set(float64(mem.Sys))
	log.Debugf("process memory: %s", humanize.Bytes(mem.Sys))
}
