// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package progress implements the per-job, push-only progress fanout
// (spec §4.8) on top of NATS core publish/subscribe: a slow or absent
// subscriber never blocks, and never observes a state sequence that
// regresses, because subjects are JSON snapshots of the job's current
// stage/status, not a diff stream.
package progress

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"

	"github.com/bmspipeline/core/pkg/log"
	"github.com/bmspipeline/core/pkg/schema"
)

// subjectPrefix namespaces every job's progress subject so a wildcard
// subscription ("bms.progress.>") can watch every job at once.
const subjectPrefix = "bms.progress."

// cancelPrefix namespaces cancel-request subjects, letting a separate
// CLI invocation ask a running pool to cancel a job it does not share
// memory with, over the same broker used for progress fanout.
const cancelPrefix = "bms.cancel."

// Bus publishes ProgressUpdate snapshots over a NATS connection. A nil
// connection makes Bus a no-op publisher/subscriber, matching the
// "subscribers that fail to receive are disconnected without
// affecting the producer" rule degenerately for the no-broker case.
type Bus struct {
	conn *nats.Conn
}

// NewBus wraps an existing NATS connection. Pass nil to run without a
// broker (Publish becomes a no-op, Subscribe always returns an error).
func NewBus(conn *nats.Conn) *Bus {
	return &Bus{conn: conn}
}

// Connect dials addr and returns a Bus around the connection. Core
// NATS publish/subscribe is unacknowledged and drops messages to slow
// consumers by design, which is exactly the lossy-fanout semantics
// spec §4.8 calls for — no JetStream, no persistence needed.
func Connect(addr string) (*Bus, error) {
	if addr == "" {
		return NewBus(nil), nil
	}
	nc, err := nats.Connect(addr,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("progress bus disconnected: %s", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("progress bus reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("progress bus connect failed: %w", err)
	}
	return NewBus(nc), nil
}

// Publish fans out one update. Encoding errors are logged and
// swallowed rather than returned, since a producer must never block
// or fail on a slow/broken subscriber (spec §4.8, §5 "never blocks a
// producer").
func (b *Bus) Publish(update schema.ProgressUpdate) {
	if b.conn == nil {
		return
	}
	data, err := json.Marshal(update)
	if err != nil {
		log.Errorf("progress bus: marshal failed for job %s: %s", update.JobID, err)
		return
	}
	if err := b.conn.Publish(subjectPrefix+update.JobID, data); err != nil {
		log.Warnf("progress bus: publish failed for job %s: %s", update.JobID, err)
	}
}

// Subscribe delivers every update published for jobID to handler,
// opportunistically: a handler that cannot keep up simply misses
// updates, it is never blocked on.
func (b *Bus) Subscribe(jobID string, handler func(schema.ProgressUpdate)) (*nats.Subscription, error) {
	if b.conn == nil {
		return nil, fmt.Errorf("progress bus: not connected")
	}
	return b.conn.Subscribe(subjectPrefix+jobID, func(msg *nats.Msg) {
		var update schema.ProgressUpdate
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			log.Warnf("progress bus: malformed update for job %s: %s", jobID, err)
			return
		}
		handler(update)
	})
}

// Close releases the underlying NATS connection, if any.
func (b *Bus) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
}

// PublishCancel asks whichever pool owns jobID to cancel it. It is
// the cross-process counterpart to Pool.Cancel: a CLI invocation that
// does not share memory with the process running the job reaches it
// this way instead.
func (b *Bus) PublishCancel(jobID string) error {
	if b.conn == nil {
		return fmt.Errorf("progress bus: not connected")
	}
	return b.conn.Publish(cancelPrefix+jobID, nil)
}

// SubscribeCancel invokes onCancel whenever a cancel request for
// jobID arrives. The returned io.Closer unsubscribes; callers should
// close it once the job reaches a terminal state.
func (b *Bus) SubscribeCancel(jobID string, onCancel func()) (io.Closer, error) {
	if b.conn == nil {
		return nil, fmt.Errorf("progress bus: not connected")
	}
	sub, err := b.conn.Subscribe(cancelPrefix+jobID, func(*nats.Msg) {
		onCancel()
	})
	if err != nil {
		return nil, err
	}
	return cancelSubscription{sub}, nil
}

// cancelSubscription adapts *nats.Subscription's Unsubscribe to
// io.Closer so callers outside this package don't need to import
// nats.go themselves.
type cancelSubscription struct {
	sub *nats.Subscription
}

func (c cancelSubscription) Close() error {
	return c.sub.Unsubscribe()
}
