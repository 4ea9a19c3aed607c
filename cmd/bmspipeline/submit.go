// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bmspipeline/core/internal/metrics"
	"github.com/bmspipeline/core/pkg/log"
	"github.com/bmspipeline/core/pkg/schema"
)

var flagSubmitWait bool

func newSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <archive> [archive...]",
		Short: "Submit one day's worth of rack archives for ingest and analysis",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			bus, err := connectProgress()
			if err != nil {
				return err
			}
			defer bus.Close()

			pool := newPool(cfg, bus)

			sampler, err := metrics.StartSampler(5 * time.Second)
			if err != nil {
				log.Warnf("metrics sampler not started: %s", err)
			} else {
				defer sampler.Shutdown()
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			jobID, err := pool.Submit(ctx, args)
			if err != nil {
				return fmt.Errorf("submit: %w", err)
			}
			fmt.Println(jobID)

			if !flagSubmitWait {
				return nil
			}
			return awaitTerminal(pool, jobID)
		},
	}
	cmd.Flags().BoolVar(&flagSubmitWait, "wait", true, "Block until the job reaches a terminal state, printing a summary table")
	return cmd
}

// awaitTerminal polls the pool's own in-memory job map until jobID
// reaches a terminal status, then renders a one-row summary table.
// Polling rather than subscribing keeps the common single-process
// invocation independent of whether a progress broker is configured.
func awaitTerminal(pool poolStatus, jobID string) error {
	var last schema.JobStatus
	for {
		status, stage, errMsg, ok := pool.Status(jobID)
		if !ok {
			return fmt.Errorf("job %s vanished from the pool", jobID)
		}
		if status != last {
			last = status
		}
		if status.IsTerminal() {
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Job", "Status", "Stage", "Error"})
			t.AppendRow(table.Row{jobID, string(status), string(stage), errMsg})
			t.Render()
			if status == schema.StatusFailed {
				return fmt.Errorf("job %s failed: %s", jobID, errMsg)
			}
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// poolStatus is the narrow slice of *worker.Pool awaitTerminal needs,
// kept as an interface so it can also be used against a future remote
// status source without change.
type poolStatus interface {
	Status(jobID string) (schema.JobStatus, schema.Stage, string, bool)
}
