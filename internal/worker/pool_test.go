// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmspipeline/core/internal/analysis"
	"github.com/bmspipeline/core/pkg/schema"
)

type fakeStore struct {
	mu        sync.Mutex
	documents map[string]any
}

func newFakeStore() *fakeStore { return &fakeStore{documents: make(map[string]any)} }

func (s *fakeStore) SaveAligned(jobID string, aligned *schema.Aligned) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[jobID+":aligned"] = aligned
	return nil
}

func (s *fakeStore) SaveDocument(jobID, name string, doc any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[jobID+":"+name] = doc
	return nil
}

type fakeBus struct {
	mu      sync.Mutex
	updates []schema.ProgressUpdate
}

func (b *fakeBus) Publish(u schema.ProgressUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, u)
}

func (b *fakeBus) last() schema.ProgressUpdate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updates[len(b.updates)-1]
}

func TestPool_EmptyFileListSucceeds(t *testing.T) {
	cfg := schema.Defaults()
	cfg.MaxWorkers = 1
	store := newFakeStore()
	bus := &fakeBus{}
	p := NewPool(cfg, analysis.Default, store, bus)

	jobID, err := p.Submit(context.Background(), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		status, _, _, ok := p.Status(jobID)
		return ok && status.IsTerminal()
	}, 2*time.Second, 10*time.Millisecond)

	status, _, _, _ := p.Status(jobID)
	assert.Equal(t, schema.StatusSuccess, status)
	assert.Contains(t, store.documents, jobID+":report")
}

func TestPool_CancelQueuedJobTransitionsImmediately(t *testing.T) {
	cfg := schema.Defaults()
	cfg.MaxWorkers = 1
	cfg.WorkerQueueSize = 1
	store := newFakeStore()
	bus := &fakeBus{}
	p := NewPool(cfg, analysis.Default, store, bus)

	jobID, err := p.Submit(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, p.Cancel(jobID))

	status, _, _, ok := p.Status(jobID)
	require.True(t, ok)
	assert.True(t, status == schema.StatusCancelled || status == schema.StatusSuccess)
}

func TestPool_CancelUnknownJobErrors(t *testing.T) {
	cfg := schema.Defaults()
	store := newFakeStore()
	bus := &fakeBus{}
	p := NewPool(cfg, analysis.Default, store, bus)

	err := p.Cancel("does-not-exist")
	assert.Error(t, err)
}

func TestResourceGuard_ThrottlesSamples(t *testing.T) {
	g := NewResourceGuard(3600, 1, "warn")
	assert.NoError(t, g.Check())
	assert.NoError(t, g.Check())
}

func TestResourceGuard_DisabledWhenIntervalZero(t *testing.T) {
	g := NewResourceGuard(0, 1, "raise")
	assert.NoError(t, g.Check())
}
