// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bmspipeline/core/pkg/schema"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <jobId>",
		Short: "Stream a job's progress updates from the broker until it reaches a terminal state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagProgressAddr == "" {
				return fmt.Errorf("watch requires --progress-addr pointing at the broker the job's process connected to")
			}
			bus, err := connectProgress()
			if err != nil {
				return err
			}
			defer bus.Close()

			jobID := args[0]
			done := make(chan schema.ProgressUpdate, 1)
			sub, err := bus.Subscribe(jobID, func(update schema.ProgressUpdate) {
				renderStatus(update)
				if update.Status.IsTerminal() {
					select {
					case done <- update:
					default:
					}
				}
			})
			if err != nil {
				return fmt.Errorf("watch %s: %w", jobID, err)
			}
			defer sub.Unsubscribe()

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

			select {
			case update := <-done:
				if update.Status == schema.StatusFailed {
					return fmt.Errorf("job %s failed: %s", jobID, update.Error)
				}
				return nil
			case <-interrupt:
				return fmt.Errorf("watch interrupted before job %s reached a terminal state", jobID)
			}
		},
	}
}
