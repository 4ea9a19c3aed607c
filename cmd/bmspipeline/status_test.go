// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmspipeline/core/pkg/schema"
)

func TestReadStatus_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	jobDir := filepath.Join(dir, "job-1")
	require.NoError(t, os.MkdirAll(jobDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(jobDir, "status.json"),
		[]byte(`{"jobId":"job-1","status":"RUNNING","stage":"ALIGN","percent":40,"detail":"aligning"}`), 0o644))

	update, err := readStatus(dir, "job-1")
	require.NoError(t, err)
	assert.Equal(t, schema.StatusRunning, update.Status)
	assert.Equal(t, schema.StageAlign, update.Stage)
	assert.Equal(t, 40, update.Percent)
}

func TestReadStatus_MissingJobErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := readStatus(dir, "does-not-exist")
	assert.Error(t, err)
}
