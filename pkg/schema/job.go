// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package schema

import (
	"sync"
	"time"
)

// JobStatus is the outer state of the job state machine (spec §3,
// §4.7): PENDING -> QUEUED -> RUNNING -> (SUCCESS | FAILED |
// CANCELLED). Transitions out of RUNNING are terminal.
type JobStatus string

const (
	StatusPending   JobStatus = "PENDING"
	StatusQueued    JobStatus = "QUEUED"
	StatusRunning   JobStatus = "RUNNING"
	StatusSuccess   JobStatus = "SUCCESS"
	StatusFailed    JobStatus = "FAILED"
	StatusCancelled JobStatus = "CANCELLED"
)

// IsTerminal reports whether status has no further transitions.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Stage is the auxiliary stage marker that advances monotonically
// while a job is RUNNING.
type Stage string

const (
	StageIngest  Stage = "INGEST"
	StageAlign   Stage = "ALIGN"
	StageAnalyze Stage = "ANALYZE"
	StageExport  Stage = "EXPORT"
)

// stageOrder gives Stage a total order so progress subscribers can
// detect (and the pool can assert against) stage regression.
var stageOrder = map[Stage]int{
	StageIngest:  0,
	StageAlign:   1,
	StageAnalyze: 2,
	StageExport:  3,
}

// Before reports whether s precedes other in the fixed stage order.
func (s Stage) Before(other Stage) bool {
	return stageOrder[s] < stageOrder[other]
}

// Job is a job's immutable identity plus mutable status/stage,
// guarded by its own mutex so the pool, the worker goroutine, and a
// status() caller can all touch it concurrently without a data race.
// A Job exclusively owns its DayRaw and Aligned until they are
// persisted and released.
type Job struct {
	ID        string
	Files     []string
	SubmitAt  time.Time
	StartedAt time.Time
	EndedAt   time.Time

	mu         sync.Mutex
	status     JobStatus
	stage      Stage
	cancelled  bool
	errMessage string
}

func NewJob(id string, files []string) *Job {
	return &Job{
		ID:       id,
		Files:    files,
		SubmitAt: time.Now(),
		status:   StatusPending,
	}
}

func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

func (j *Job) Stage() Stage {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stage
}

func (j *Job) Error() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.errMessage
}

// SetStatus transitions status unconditionally. Callers are
// responsible for only calling it with a legal next state (the pool
// is the sole caller).
func (j *Job) SetStatus(s JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = s
}

// SetStage advances the stage marker. It is a no-op once the job has
// reached a terminal status, so a late checkpoint from a goroutine
// racing job completion can never resurrect stage progress.
func (j *Job) SetStage(s Stage) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.IsTerminal() {
		return
	}
	j.stage = s
}

func (j *Job) SetError(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errMessage = msg
}

// Cancel marks the job cancelled. It is idempotent and safe to call
// from any goroutine, any number of times, at any job status.
func (j *Job) Cancel() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancelled = true
}

// Cancelled reports whether Cancel has been called. The worker
// consults this at every checkpoint (spec §5 "Cancellation
// semantics").
func (j *Job) Cancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

// ProgressUpdate is the payload the Progress Bus fans out (spec
// §4.8).
type ProgressUpdate struct {
	JobID   string    `json:"jobId"`
	Status  JobStatus `json:"status"`
	Stage   Stage     `json:"stage"`
	Percent int       `json:"percent"`
	Detail  string    `json:"detail"`
	Error   string    `json:"error,omitempty"`
}
