// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <jobId>",
		Short: "Request cancellation of a running job over the progress broker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagProgressAddr == "" {
				return fmt.Errorf("cancel requires --progress-addr pointing at the broker the job's process connected to")
			}
			bus, err := connectProgress()
			if err != nil {
				return err
			}
			defer bus.Close()

			if err := bus.PublishCancel(args[0]); err != nil {
				return fmt.Errorf("cancel %s: %w", args[0], err)
			}
			fmt.Printf("cancel request sent for job %s\n", args[0])
			return nil
		},
	}
}
