// Copyright (C) 2026 The bmspipeline Authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tarstream iterates the regular-file members of a
// gzip-compressed tar archive without ever materializing the archive
// to disk. It is the lowest layer of the ingest pipeline (spec §4.1).
package tarstream

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"io"
	"os"

	"github.com/bmspipeline/core/pkg/bmserr"
)

// Reader lazily yields (name, byte-stream) pairs for regular file
// members. Each returned io.Reader is only valid until the next call
// to Next; callers must fully consume it (or explicitly skip it via
// Next) before advancing.
type Reader struct {
	f   *os.File
	gz  *gzip.Reader
	tr  *tar.Reader
	cur io.Reader
}

// Open starts streaming path. Returns bmserr KindInputNotFound if the
// path does not exist, KindCorruptArchive if the gzip header cannot
// be read.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, bmserr.Wrap(bmserr.KindInputNotFound, path, err)
		}
		return nil, bmserr.Wrap(bmserr.KindInputNotFound, path, err)
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, bmserr.Wrap(bmserr.KindCorruptArchive, path, err)
	}

	return &Reader{f: f, gz: gz, tr: tar.NewReader(gz)}, nil
}

// Next advances to the next regular-file member, skipping directories,
// symlinks, and anything else that is not tar.TypeReg. It returns
// io.EOF when the archive is exhausted, and a KindCorruptArchive error
// if a header cannot be decoded mid-stream.
func (r *Reader) Next() (name string, body io.Reader, err error) {
	for {
		hdr, err := r.tr.Next()
		if err == io.EOF {
			return "", nil, io.EOF
		}
		if err != nil {
			return "", nil, bmserr.Wrap(bmserr.KindCorruptArchive, "tar header", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		r.cur = r.tr
		return hdr.Name, r.tr, nil
	}
}

// Close releases the underlying gzip and file handles.
func (r *Reader) Close() error {
	gzErr := r.gz.Close()
	fErr := r.f.Close()
	if gzErr != nil {
		return gzErr
	}
	return fErr
}
