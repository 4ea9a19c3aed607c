// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"github.com/google/gops/agent"
	"github.com/spf13/cobra"

	"github.com/bmspipeline/core/internal/analysis"
	"github.com/bmspipeline/core/internal/config"
	"github.com/bmspipeline/core/internal/progress"
	"github.com/bmspipeline/core/internal/resultstore"
	"github.com/bmspipeline/core/internal/worker"
	"github.com/bmspipeline/core/pkg/log"
	"github.com/bmspipeline/core/pkg/schema"
)

var (
	flagConfigFile    string
	flagLogLevel      string
	flagLogDateTime   bool
	flagGops          bool
	flagProgressAddr  string
	flagOutputRootOvr string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bmspipeline",
		Short:         "Battery rack archive ingest and analysis pipeline",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log.SetLogLevel(flagLogLevel)
			log.SetLogDateTime(flagLogDateTime)

			if flagGops {
				if err := agent.Listen(agent.Options{}); err != nil {
					return err
				}
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flagConfigFile, "config", "", "Path to a config file (yaml/json/toml); unset uses defaults+env only")
	root.PersistentFlags().StringVar(&flagLogLevel, "loglevel", "warn", "Logging level: debug, info, warn, err, fatal")
	root.PersistentFlags().BoolVar(&flagLogDateTime, "logdate", false, "Add date and time to log output")
	root.PersistentFlags().BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	root.PersistentFlags().StringVar(&flagProgressAddr, "progress-addr", "", "NATS address for progress fanout and cross-process cancel; unset runs without a broker")
	root.PersistentFlags().StringVar(&flagOutputRootOvr, "output-root", "", "Override OUTPUT_ROOT from config")

	root.AddCommand(newSubmitCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newCancelCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newMetricsCmd())
	return root
}

// loadConfig resolves the program configuration shared by every
// subcommand, applying the --output-root override after viper/schema
// resolution so a caller can redirect results without editing a file.
func loadConfig() (schema.ProgramConfig, error) {
	cfg, err := config.Load(flagConfigFile)
	if err != nil {
		return cfg, err
	}
	if flagOutputRootOvr != "" {
		cfg.OutputRoot = flagOutputRootOvr
	}
	return cfg, nil
}

// connectProgress dials the optional NATS broker; an empty addr is
// not an error, it just yields a no-op bus.
func connectProgress() (*progress.Bus, error) {
	return progress.Connect(flagProgressAddr)
}

func newPool(cfg schema.ProgramConfig, bus *progress.Bus) *worker.Pool {
	store := resultstore.NewStore(cfg.OutputRoot)
	return worker.NewPool(cfg, analysis.Default, store, bus)
}
