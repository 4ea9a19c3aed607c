// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package resultstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmspipeline/core/pkg/schema"
)

func TestStore_SaveDocumentIsAtomicAndReadable(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	doc := map[string]any{"rack1": map[string]any{"1": 42}}
	require.NoError(t, s.SaveDocument("job-1", "features", doc))

	raw, err := os.ReadFile(filepath.Join(dir, "job-1", "features.json"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "rack1")

	entries, err := os.ReadDir(filepath.Join(dir, "job-1"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestStore_SaveAlignedRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	aligned := schema.NewAligned()
	aligned.Time = &schema.TimeGrid{Step: 5, Points: []schema.Instant{0, 5, 10}}
	bank := schema.NewColumnTable()
	bank.Column("totalVol").Values = []schema.Float{3.3, 3.4, 3.5}
	aligned.Bank = bank

	mod := &schema.ModuleAligned{
		ModuleID: 1,
		Voltage:  schema.NewMatrix(3, 2),
		Temp:     schema.NewMatrix(3, 1),
	}
	aligned.Racks["rack1"] = &schema.RackAligned{RackID: "rack1", Modules: []*schema.ModuleAligned{mod}}

	require.NoError(t, s.SaveAligned("job-2", aligned))

	native, err := LoadAligned(filepath.Join(dir, "job-2", "aligned.avro.lz4"))
	require.NoError(t, err)
	assert.Equal(t, "job-2", native["jobId"])
	assert.Equal(t, int64(5), native["stepSec"])
}
