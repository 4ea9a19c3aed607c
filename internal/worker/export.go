// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package worker

import (
	"time"

	"github.com/bmspipeline/core/pkg/schema"
)

// report is the fourth emitted document (spec §4.9): a small
// run summary alongside the three analyzer outputs, letting a
// consumer learn a job's shape without re-reading the aligned
// matrices.
type report struct {
	JobID       string   `json:"jobId"`
	SubmitAt    string   `json:"submitAt"`
	StartedAt   string   `json:"startedAt"`
	EndedAt     string   `json:"endedAt"`
	DurationSec float64  `json:"durationSec"`
	RackIDs     []string `json:"rackIds"`
	GridPoints  int      `json:"gridPoints"`
	GridStepSec int64    `json:"gridStepSec"`
	Plugins     []string `json:"plugins"`
}

// export persists the aligned matrices and the four result documents
// this job's analysis stage produced. Writes are delegated to the
// result store, which is responsible for atomicity and serializing
// concurrent writers (spec §4.9).
func (p *Pool) export(job *schema.Job, aligned *schema.Aligned, results map[string]any) error {
	if err := p.store.SaveAligned(job.ID, aligned); err != nil {
		return err
	}

	if v, ok := results["CellFeatures"]; ok {
		if err := p.store.SaveDocument(job.ID, "features", v); err != nil {
			return err
		}
	}
	if v, ok := results["AnomalyDetector"]; ok {
		if err := p.store.SaveDocument(job.ID, "anomalies", v); err != nil {
			return err
		}
	}
	if v, ok := results["SOHProxy"]; ok {
		if err := p.store.SaveDocument(job.ID, "soh", v); err != nil {
			return err
		}
	}

	rackIDs := make([]string, 0, len(aligned.Racks))
	for id := range aligned.Racks {
		rackIDs = append(rackIDs, id)
	}

	plugins := make([]string, 0, len(results))
	for name := range results {
		plugins = append(plugins, name)
	}

	rep := report{
		JobID:       job.ID,
		SubmitAt:    job.SubmitAt.Format(time.RFC3339),
		StartedAt:   job.StartedAt.Format(time.RFC3339),
		EndedAt:     time.Now().Format(time.RFC3339),
		DurationSec: time.Since(job.StartedAt).Seconds(),
		RackIDs:     rackIDs,
		GridPoints:  aligned.Time.Len(),
		GridStepSec: aligned.Time.Step,
		Plugins:     plugins,
	}
	return p.store.SaveDocument(job.ID, "report", rep)
}
