// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package resultstore

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/linkedin/goavro/v2"
	"github.com/pierrec/lz4/v4"

	"github.com/bmspipeline/core/pkg/schema"
)

// alignedAvroSchema describes one job's aligned tree as a single Avro
// record: the time grid, the optional bank summary, and per-rack
// summaries plus flattened (row-major) per-module voltage/temperature
// matrices. Matrices are carried as flat double arrays with their
// column count alongside, since Avro has no native 2-D array type.
const alignedAvroSchema = `{
  "type": "record",
  "name": "AlignedSnapshot",
  "fields": [
    {"name": "jobId", "type": "string"},
    {"name": "stepSec", "type": "long"},
    {"name": "points", "type": {"type": "array", "items": "long"}},
    {"name": "bank", "type": {"type": "map", "values": {"type": "array", "items": "double"}}},
    {"name": "racks", "type": {"type": "map", "values": {
      "type": "record",
      "name": "RackAligned",
      "fields": [
        {"name": "summary", "type": {"type": "map", "values": {"type": "array", "items": "double"}}},
        {"name": "modules", "type": {"type": "array", "items": {
          "type": "record",
          "name": "ModuleMatrix",
          "fields": [
            {"name": "moduleId", "type": "int"},
            {"name": "voltageCols", "type": "int"},
            {"name": "voltage", "type": {"type": "array", "items": "double"}},
            {"name": "tempCols", "type": "int"},
            {"name": "temp", "type": {"type": "array", "items": "double"}}
          ]
        }}}
      ]
    }}}
  ]
}`

var alignedCodec = mustCompileAlignedCodec()

func mustCompileAlignedCodec() *goavro.Codec {
	codec, err := goavro.NewCodec(alignedAvroSchema)
	if err != nil {
		panic("resultstore: invalid embedded avro schema: " + err.Error())
	}
	return codec
}

// SaveAligned encodes aligned as a single Avro record and writes it
// lz4-compressed to OUTPUT_ROOT/<jobId>/aligned.avro.lz4, atomically.
// This is a supplementary artifact alongside the four JSON documents:
// consumers that want the full resampled matrices (rather than the
// derived feature/anomaly/SOH summaries) read this file instead of
// re-running alignment themselves.
func (s *Store) SaveAligned(jobID string, aligned *schema.Aligned) error {
	unlock := s.lockFor(jobID)
	defer unlock()

	native := map[string]any{
		"jobId":   jobID,
		"stepSec": aligned.Time.Step,
		"points":  instantsToLongs(aligned.Time.Points),
		"bank":    columnTableToNative(aligned.Bank),
		"racks":   racksToNative(aligned.Racks),
	}

	binary, err := alignedCodec.BinaryFromNative(nil, native)
	if err != nil {
		return fmt.Errorf("encode aligned snapshot for %s: %w", jobID, err)
	}

	var compressed bytes.Buffer
	lw := lz4.NewWriter(&compressed)
	if _, err := lw.Write(binary); err != nil {
		return fmt.Errorf("compress aligned snapshot for %s: %w", jobID, err)
	}
	if err := lw.Close(); err != nil {
		return fmt.Errorf("flush compressed aligned snapshot for %s: %w", jobID, err)
	}

	dir := filepath.Join(s.root, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return atomicWrite(filepath.Join(dir, "aligned.avro.lz4"), compressed.Bytes())
}

// LoadAligned is the inverse of SaveAligned, used by tests and any
// in-process consumer that wants the raw matrices back without
// shelling out to a separate reader.
func LoadAligned(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lr := lz4.NewReader(f)
	binary, err := io.ReadAll(lr)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}

	native, _, err := alignedCodec.NativeFromBinary(binary)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return native.(map[string]any), nil
}

func instantsToLongs(points []schema.Instant) []any {
	out := make([]any, len(points))
	for i, p := range points {
		out[i] = int64(p)
	}
	return out
}

// seriesValuesToDoubles carries schema.Float straight through as
// float64 — goavro's "double" type round-trips NaN bit patterns fine,
// so missing values need no separate sentinel encoding here.
func seriesValuesToDoubles(values []schema.Float) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

func columnTableToNative(table *schema.ColumnTable) map[string]any {
	out := make(map[string]any)
	if table == nil {
		return out
	}
	for _, name := range table.SortedNames() {
		out[name] = seriesValuesToDoubles(table.Columns[name].Values)
	}
	return out
}

func matrixToDoubles(m *schema.Matrix) []any {
	if m == nil {
		return nil
	}
	out := make([]any, len(m.Data))
	for i, v := range m.Data {
		out[i] = float64(v)
	}
	return out
}

func racksToNative(racks map[string]*schema.RackAligned) map[string]any {
	out := make(map[string]any, len(racks))
	for id, rack := range racks {
		modules := make([]any, len(rack.Modules))
		for i, mod := range rack.Modules {
			modules[i] = map[string]any{
				"moduleId":    int32(mod.ModuleID),
				"voltageCols": int32(mod.Voltage.Cols),
				"voltage":     matrixToDoubles(mod.Voltage),
				"tempCols":    int32(mod.Temp.Cols),
				"temp":        matrixToDoubles(mod.Temp),
			}
		}
		out[id] = map[string]any{
			"summary": columnTableToNative(rack.Summary),
			"modules": modules,
		}
	}
	return out
}
