// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(5), cfg.TimeStepSec)
	assert.Equal(t, 32, cfg.CellsPerModule)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("TIME_STEP_SEC: 10\nGUARD_ACTION: warn\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(10), cfg.TimeStepSec)
	assert.Equal(t, "warn", cfg.GuardAction)
}

func TestLoad_InvalidGuardActionFailsSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("GUARD_ACTION: nonsense\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
