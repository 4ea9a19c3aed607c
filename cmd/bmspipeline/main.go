// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command bmspipeline is the only caller-facing surface this module
// exposes for job lifecycle operations (spec §6): submit, status,
// cancel, watch and metrics, each a thin cobra subcommand over the
// internal/worker pool, internal/progress bus and internal/resultstore
// store. There is deliberately no HTTP/WebSocket/GraphQL layer here.
package main

import (
	"os"

	"github.com/bmspipeline/core/pkg/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
