// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"fmt"
	"os"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/bmspipeline/core/internal/metrics"
)

func newMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Dump the pool's operational counters in Prometheus text exposition format",
		RunE: func(cmd *cobra.Command, args []string) error {
			families, err := metrics.Registry.Gather()
			if err != nil {
				return fmt.Errorf("gather metrics: %w", err)
			}
			enc := expfmt.NewEncoder(os.Stdout, expfmt.NewFormat(expfmt.TypeTextPlain))
			for _, mf := range families {
				if err := enc.Encode(mf); err != nil {
					return fmt.Errorf("encode metric family %s: %w", mf.GetName(), err)
				}
			}
			return nil
		},
	}
}
