/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package shadow

import (
	"io"

	hsqlerrors "hsqlcore/internal/errors"
	"hsqlcore/internal/storage/rfile"
)

// Reader streams the durable prefix of a shadow backend — bytes
// [0, limit) — for backup export. It implements io.Reader.
type Reader struct {
	backend rfile.Backend
	pos     int64
	limit   int64
}

// NewReader returns a streaming view over backend bounded by limit,
// normally the Log's SynchLength at the moment the backup is taken.
func NewReader(backend rfile.Backend, limit int64) *Reader {
	return &Reader{backend: backend, limit: limit}
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.pos >= r.limit {
		return 0, io.EOF
	}
	remaining := r.limit - r.pos
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	if err := r.backend.Seek(r.pos); err != nil {
		return 0, err
	}
	n, err := r.backend.Read(p)
	r.pos += int64(n)
	if err != nil {
		if fdbErr, ok := err.(*hsqlerrors.FlyDBError); ok && fdbErr.Code == hsqlerrors.ErrCodeEndOfFile {
			if n > 0 {
				return n, nil
			}
			return 0, io.EOF
		}
		return n, err
	}
	return n, nil
}

// InputStream opens a Reader over the Log's durably-restorable prefix
// as of the last Synch.
func (l *Log) InputStream() *Reader {
	l.mu.Lock()
	defer l.mu.Unlock()
	return NewReader(l.dest, l.synchLength)
}
