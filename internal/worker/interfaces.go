// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package worker

import (
	"io"

	"github.com/bmspipeline/core/pkg/schema"
)

// ProgressPublisher is the narrow slice of the progress bus a worker
// needs; keeping it an interface here (rather than importing
// internal/progress directly) avoids a dependency cycle between the
// two packages and lets tests substitute a recording stub.
type ProgressPublisher interface {
	Publish(update schema.ProgressUpdate)
}

// CancelSubscriber is implemented by progress buses that can relay a
// cancel request from another process (progress.Bus, over NATS). A
// progress.Bus without broker connectivity still implements it but
// returns an error from SubscribeCancel; the pool then relies on
// in-process Cancel calls only.
type CancelSubscriber interface {
	SubscribeCancel(jobID string, onCancel func()) (io.Closer, error)
}

// ResultWriter is the narrow slice of the result store a worker
// needs to persist one job's output documents.
type ResultWriter interface {
	SaveAligned(jobID string, aligned *schema.Aligned) error
	SaveDocument(jobID, name string, doc any) error
}
