// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bmspipeline/core/pkg/schema"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <jobId>",
		Short: "Print a job's last known status, read from its persisted status document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			update, err := readStatus(cfg.OutputRoot, args[0])
			if err != nil {
				return err
			}
			renderStatus(update)
			return nil
		},
	}
}

// readStatus reads OUTPUT_ROOT/<jobId>/status.json, the document the
// pool rewrites atomically at every progress checkpoint (see
// internal/worker.Pool.publish). Separate processes have no other way
// to learn a job's state without a running progress broker.
func readStatus(outputRoot, jobID string) (schema.ProgressUpdate, error) {
	path := filepath.Join(outputRoot, jobID, "status.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return schema.ProgressUpdate{}, fmt.Errorf("no status recorded for job %s: %w", jobID, err)
	}
	var update schema.ProgressUpdate
	if err := json.Unmarshal(raw, &update); err != nil {
		return schema.ProgressUpdate{}, fmt.Errorf("malformed status document for job %s: %w", jobID, err)
	}
	return update, nil
}

func renderStatus(update schema.ProgressUpdate) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Job", "Status", "Stage", "Percent", "Detail", "Error"})
	t.AppendRow(table.Row{update.JobID, string(update.Status), string(update.Stage), update.Percent, update.Detail, update.Error})
	t.Render()
}
