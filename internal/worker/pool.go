// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package worker

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/bmspipeline/core/internal/aligner"
	"github.com/bmspipeline/core/internal/analysis"
	"github.com/bmspipeline/core/internal/ingest"
	"github.com/bmspipeline/core/internal/metrics"
	"github.com/bmspipeline/core/pkg/bmserr"
	"github.com/bmspipeline/core/pkg/log"
	"github.com/bmspipeline/core/pkg/schema"
	"github.com/bmspipeline/core/pkg/tarstream"
)

// Pool is the bounded-admission worker pool: a fixed number of
// worker goroutines draining a capacity-Q channel, one job per
// worker for the job's entire lifetime (spec §4.7 Admission).
type Pool struct {
	cfg      schema.ProgramConfig
	registry *analysis.Registry
	store    ResultWriter
	bus      ProgressPublisher

	queue   chan *schema.Job
	limiter *rate.Limiter

	mu   sync.Mutex
	jobs map[string]*schema.Job

	wg sync.WaitGroup
}

// NewPool constructs a pool from cfg's worker count and queue depth.
// A MaxWorkers of 0 resolves to max(1, NumCPU-1), matching the source
// repo's historical default for CPU-bound worker counts.
func NewPool(cfg schema.ProgramConfig, registry *analysis.Registry, store ResultWriter, bus ProgressPublisher) *Pool {
	n := cfg.MaxWorkers
	if n <= 0 {
		n = runtime.NumCPU() - 1
		if n < 1 {
			n = 1
		}
	}
	qsize := cfg.WorkerQueueSize
	if qsize <= 0 {
		qsize = 32
	}

	p := &Pool{
		cfg:      cfg,
		registry: registry,
		store:    store,
		bus:      bus,
		queue:    make(chan *schema.Job, qsize),
		// One admission per 10ms ceiling, burst sized to the queue depth:
		// smooths a thundering herd of Submit calls without adding
		// meaningful latency to a single submitter (golang.org/x/time/rate
		// was otherwise unused in the source repo's dependency set).
		limiter: rate.NewLimiter(rate.Limit(100), qsize),
		jobs:    make(map[string]*schema.Job),
	}

	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go p.runWorker()
	}
	return p
}

// Submit admits a new job for the given input archive paths. It
// blocks until the rate limiter and the bounded queue both have room,
// providing the backpressure spec §4.7/§5 requires of a full queue.
func (p *Pool) Submit(ctx context.Context, files []string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}

	job := schema.NewJob(uuid.NewString(), files)
	p.mu.Lock()
	p.jobs[job.ID] = job
	p.mu.Unlock()

	job.SetStatus(schema.StatusQueued)
	p.publish(job, 0, "queued")
	metrics.JobsSubmitted.Inc()

	select {
	case p.queue <- job:
		return job.ID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Status returns a snapshot of a known job's current state.
func (p *Pool) Status(jobID string) (status schema.JobStatus, stage schema.Stage, errMsg string, ok bool) {
	p.mu.Lock()
	job, ok := p.jobs[jobID]
	p.mu.Unlock()
	if !ok {
		return "", "", "", false
	}
	return job.Status(), job.Stage(), job.Error(), true
}

// Cancel is idempotent (spec §5 "Cancellation semantics"). A QUEUED
// or PENDING job transitions to CANCELLED immediately; a RUNNING job
// is flagged and transitions at its worker's next checkpoint.
func (p *Pool) Cancel(jobID string) error {
	p.mu.Lock()
	job, ok := p.jobs[jobID]
	p.mu.Unlock()
	if !ok {
		return bmserr.New(bmserr.KindInputNotFound, fmt.Sprintf("unknown job %s", jobID))
	}

	switch job.Status() {
	case schema.StatusPending, schema.StatusQueued:
		job.SetStatus(schema.StatusCancelled)
		metrics.JobsCancelled.Inc()
		p.publish(job, 100, "cancelled before running")
	default:
		job.Cancel()
	}
	return nil
}

// Shutdown closes the admission queue and waits for in-flight workers
// to drain it. Submit must not be called after Shutdown.
func (p *Pool) Shutdown() {
	close(p.queue)
	p.wg.Wait()
}

func (p *Pool) runWorker() {
	defer p.wg.Done()
	for job := range p.queue {
		if job.Status() == schema.StatusCancelled {
			continue
		}
		p.runJob(job)
	}
}

// runJob executes the full INGEST -> ALIGN -> ANALYZE -> EXPORT
// pipeline for one job, checking for cancellation and resource limits
// at every checkpoint between stages and between parsed archive
// members (spec §4.7 Worker loop, §5).
func (p *Pool) runJob(job *schema.Job) {
	if cs, ok := p.bus.(CancelSubscriber); ok {
		if sub, err := cs.SubscribeCancel(job.ID, job.Cancel); err == nil {
			defer sub.Close()
		}
	}

	job.SetStatus(schema.StatusRunning)
	job.StartedAt = time.Now()
	metrics.JobsInFlight.Inc()
	defer metrics.JobsInFlight.Dec()
	guard := NewResourceGuard(p.cfg.GuardIntervalSec, p.cfg.MemoryHardLimitMB, p.cfg.GuardAction)

	job.SetStage(schema.StageIngest)
	p.publish(job, 5, "ingest starting")

	day, err := p.ingest(job, guard)
	if err != nil {
		if bmserr.Is(err, bmserr.KindCancelled) {
			p.checkpoint(job)
			return
		}
		p.fail(job, err)
		return
	}
	if p.checkpoint(job) {
		return
	}

	job.SetStage(schema.StageAlign)
	p.publish(job, 40, "aligning")

	topo := schema.BuildTopology(1, p.cfg.Topology(len(day.RackIDs()), discoverModuleCount(day, p.cfg)))
	aligned := aligner.Align(day, topo, p.cfg.TimeStepSec)
	if p.checkpoint(job) {
		return
	}

	job.SetStage(schema.StageAnalyze)
	p.publish(job, 70, "analyzing")

	results, err := p.registry.RunAll(aligned, p.cfg, topo)
	if err != nil {
		p.fail(job, err)
		return
	}
	if p.checkpoint(job) {
		return
	}

	job.SetStage(schema.StageExport)
	p.publish(job, 90, "exporting")

	if err := p.export(job, aligned, results); err != nil {
		p.fail(job, err)
		return
	}

	job.EndedAt = time.Now()
	job.SetStatus(schema.StatusSuccess)
	metrics.JobsSucceeded.Inc()
	metrics.JobDurationSeconds.Observe(job.EndedAt.Sub(job.StartedAt).Seconds())
	p.publish(job, 100, fmt.Sprintf("done in %s", job.EndedAt.Sub(job.StartedAt)))
}

// ingest streams every archive, routes each member to its parser, and
// merges the result into one DayRaw. A missing archive is logged and
// skipped (spec §7 InputNotFound); a corrupt archive aborts only that
// archive. The guard is checked after every parsed member.
func (p *Pool) ingest(job *schema.Job, guard *ResourceGuard) (*schema.DayRaw, error) {
	day := schema.NewDayRaw()
	membersSeen := 0

	for _, path := range job.Files {
		if job.Cancelled() {
			return day, bmserr.ErrCancelled
		}

		r, err := tarstream.Open(path)
		if err != nil {
			log.Warnf("skipping input %s: %s", path, err)
			continue
		}

		for {
			name, body, err := r.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				if bmserr.Is(err, bmserr.KindCorruptArchive) {
					log.Warnf("corrupt archive %s: %s", path, err)
				}
				break
			}

			if mergeErr := mergeMember(day, name, body); mergeErr != nil {
				log.Warnf("dropping member %s in %s: %s", name, path, mergeErr)
			}
			membersSeen++

			if err := guard.Check(); err != nil {
				r.Close()
				return day, err
			}
			if job.Cancelled() {
				r.Close()
				return day, bmserr.ErrCancelled
			}
		}
		r.Close()
	}

	if membersSeen == 0 && len(job.Files) > 0 {
		return day, bmserr.New(bmserr.KindInputNotFound, "no archive yielded any member")
	}
	return day, nil
}

// mergeMember classifies one tar member and parses it into the
// correct DayRaw slot, matching spec §4.2's routing rules.
func mergeMember(day *schema.DayRaw, name string, body io.Reader) error {
	kind := ingest.Classify(name)
	if kind == ingest.None {
		return nil
	}

	switch kind {
	case ingest.Summary:
		if ingest.IsBank(name) {
			table, _, err := ingest.ParseBankSummary(body)
			if err != nil {
				return err
			}
			mergeColumns(day.BankSummaryTable(), table)
			return nil
		}
		rackID, ok := ingest.RackID(name)
		if !ok {
			rackID = "rack_unknown"
		}
		table, _, err := ingest.ParseRackSummary(body)
		if err != nil {
			return err
		}
		rack := day.Rack(rackID)
		if rack.Summary == nil {
			rack.Summary = table
		} else {
			mergeColumns(rack.Summary, table)
		}

	case ingest.BatVol:
		rackID, ok := ingest.RackID(name)
		if !ok {
			rackID = "rack_unknown"
		}
		table, _, err := ingest.ParseBatVol(body)
		if err != nil {
			return err
		}
		day.Rack(rackID).BatVol = table

	case ingest.BatTemp:
		rackID, ok := ingest.RackID(name)
		if !ok {
			rackID = "rack_unknown"
		}
		table, _, err := ingest.ParseBatTemp(body)
		if err != nil {
			return err
		}
		day.Rack(rackID).BatTemp = table
	}
	return nil
}

// mergeColumns folds src's columns into dst, last writer wins per
// column name (spec §4.7 Merge rules).
func mergeColumns(dst, src *schema.ColumnTable) {
	for name, series := range src.Columns {
		dst.Columns[name] = series
	}
}

// checkpoint reports whether job has been cancelled or has already
// reached a terminal state, transitioning it to CANCELLED and
// publishing a terminal update exactly once if so.
func (p *Pool) checkpoint(job *schema.Job) bool {
	if job.Status().IsTerminal() {
		return true
	}
	if job.Cancelled() {
		job.EndedAt = time.Now()
		job.SetStatus(schema.StatusCancelled)
		metrics.JobsCancelled.Inc()
		p.publish(job, 100, "cancelled")
		return true
	}
	return false
}

func (p *Pool) fail(job *schema.Job, err error) {
	job.EndedAt = time.Now()
	job.SetError(err.Error())
	job.SetStatus(schema.StatusFailed)
	metrics.JobsFailed.Inc()
	p.publish(job, 100, "failed")
}

// publish fans update out over the progress bus (if any) and, since a
// CLI invocation of `status` runs in a separate process with no
// access to this Pool's in-memory job map, also persists it as
// OUTPUT_ROOT/<jobId>/status.json so status reads are possible
// without a live connection to this process.
func (p *Pool) publish(job *schema.Job, percent int, detail string) {
	update := schema.ProgressUpdate{
		JobID:   job.ID,
		Status:  job.Status(),
		Stage:   job.Stage(),
		Percent: percent,
		Detail:  detail,
		Error:   job.Error(),
	}
	if p.bus != nil {
		p.bus.Publish(update)
	}
	if p.store != nil {
		if err := p.store.SaveDocument(job.ID, "status", update); err != nil {
			log.Warnf("job %s: failed to persist status document: %s", job.ID, err)
		}
	}
}

// discoverModuleCount finds the largest per-rack module count implied
// by the parsed voltage channel counts, so BuildTopology is given a
// NModulesPerRack wide enough to cover every rack's cells; racks with
// fewer modules simply leave the surplus module slots in the shared
// topology unused by that rack's own Aligned.Modules slice.
func discoverModuleCount(day *schema.DayRaw, cfg schema.ProgramConfig) int {
	max := 0
	for _, rackID := range day.RackIDs() {
		rack := day.Rack(rackID)
		if rack.BatVol == nil {
			continue
		}
		n := len(rack.BatVol.Columns) / cfg.CellsPerModule
		if n > max {
			max = n
		}
	}
	if max == 0 {
		max = 1
	}
	return max
}
