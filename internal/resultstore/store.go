// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package resultstore is the emit side of the pipeline: it persists,
// per job id, the four analyzer documents (features, anomalies, soh,
// report) plus a compact binary encoding of the aligned matrices
// (spec §4.9). Every document write is atomic (temp file + rename)
// and the store serializes concurrent writers to the same job
// internally, the way the source repo's checkpoint writer serializes
// concurrent flushes to the same on-disk level.
package resultstore

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/bmspipeline/core/pkg/log"
)

//go:embed schemas/document.schema.json
var schemaFS embed.FS

var documentSchema = compileDocumentSchema()

func compileDocumentSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	raw, err := schemaFS.ReadFile("schemas/document.schema.json")
	if err != nil {
		log.Fatal("resultstore: embedded schema missing: " + err.Error())
	}
	if err := c.AddResource("document.schema.json", bytes.NewReader(raw)); err != nil {
		log.Fatal("resultstore: embedded schema invalid: " + err.Error())
	}
	sch, err := c.Compile("document.schema.json")
	if err != nil {
		log.Fatal("resultstore: embedded schema failed to compile: " + err.Error())
	}
	return sch
}

// Store writes result documents under OUTPUT_ROOT/<jobId>/<name>.json
// (and the aligned artifact under OUTPUT_ROOT/<jobId>/aligned.avro.lz4),
// one mutex per job id so concurrent document writes for the same job
// serialize without blocking unrelated jobs.
type Store struct {
	root string

	mu     sync.Mutex
	perJob map[string]*sync.Mutex
}

func NewStore(outputRoot string) *Store {
	return &Store{root: outputRoot, perJob: make(map[string]*sync.Mutex)}
}

func (s *Store) lockFor(jobID string) func() {
	s.mu.Lock()
	l, ok := s.perJob[jobID]
	if !ok {
		l = &sync.Mutex{}
		s.perJob[jobID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// SaveDocument atomically writes one JSON document for jobID, after
// validating it matches the generic result-document envelope (a JSON
// object at the root).
func (s *Store) SaveDocument(jobID, name string, doc any) error {
	unlock := s.lockFor(jobID)
	defer unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", jobID, name, err)
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("re-decode %s/%s: %w", jobID, name, err)
	}
	if err := documentSchema.Validate(decoded); err != nil {
		return fmt.Errorf("document %s/%s failed schema validation: %w", jobID, name, err)
	}

	dir := filepath.Join(s.root, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return atomicWrite(filepath.Join(dir, name+".json"), data)
}

// atomicWrite writes data to a temp file in path's directory and
// renames it into place, so a reader never observes a partially
// written document (spec §4.9 "temp file + rename or equivalent").
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file into %s: %w", path, err)
	}
	return nil
}
