// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bmserr defines the pipeline's error taxonomy (spec §7) as
// typed, errors.Is/errors.As-compatible values instead of
// string-matched messages.
package bmserr

import "errors"

// Kind classifies a pipeline error. Use errors.Is against the
// exported sentinels below, not string comparison.
type Kind int

const (
	KindInputNotFound Kind = iota + 1
	KindCorruptArchive
	KindMalformedRow
	KindEmptyGrid
	KindMemoryLimitExceeded
	KindPluginFailure
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindInputNotFound:
		return "InputNotFound"
	case KindCorruptArchive:
		return "CorruptArchive"
	case KindMalformedRow:
		return "MalformedRow"
	case KindEmptyGrid:
		return "EmptyGrid"
	case KindMemoryLimitExceeded:
		return "MemoryLimitExceeded"
	case KindPluginFailure:
		return "PluginFailure"
	case KindCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error wraps a Kind with context and, optionally, an underlying
// cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is match any *Error of the same Kind, so a wrapped
// error compares equal to the sentinel of its kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is a *Error of the given kind, unwrapping as
// needed.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Sentinels for errors.Is comparisons against a bare Kind, used by
// callers that only need to check "was this cancelled" without a
// message.
var (
	ErrNotFound            = New(KindInputNotFound, "input not found")
	ErrCorruptArchive      = New(KindCorruptArchive, "corrupt archive")
	ErrEmptyGrid           = New(KindEmptyGrid, "empty time grid")
	ErrMemoryLimitExceeded = New(KindMemoryLimitExceeded, "memory limit exceeded")
	ErrCancelled           = New(KindCancelled, "job cancelled")
)
