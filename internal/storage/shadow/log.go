/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package shadow implements the before-image backup log: before any
// page of the data file is first overwritten within a backup window,
// its prior contents are appended here so the window can be replayed
// forward over a crashed file to restore it to a consistent state.
package shadow

import (
	"sync"

	hsqlerrors "hsqlcore/internal/errors"
	"hsqlcore/internal/storage/rfile"

	"github.com/zeebo/xxh3"
)

// DefaultPageSize is the before-image granularity used unless the
// caller overrides it.
const DefaultPageSize = 16 * 1024

// recordHeaderSize is {u32 pageSize, u64 originalOffset}.
const recordHeaderSize = 4 + 8

// Log appends before-images of data-file pages to dest as they are
// first touched within the current backup window. A Log is not safe
// for concurrent use without external synchronization beyond what its
// own mutex provides for Copy/Synch/Close ordering.
type Log struct {
	mu sync.Mutex

	dest     rfile.Backend
	pageSize int64
	maxSize  int64

	bitmap      map[int64]struct{}
	destLength  int64 // end of the last record appended
	synchLength int64 // durable prefix as of the last Synch
	firstCopy   bool
}

// NewLog opens a backup window against dest, an empty or freshly
// truncated shadow backend. maxSize bounds the page range Copy will
// ever consider (normally the data file's length at window start).
func NewLog(dest rfile.Backend, pageSize, maxSize int64) (*Log, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	length, err := dest.Length()
	if err != nil {
		return nil, err
	}
	return &Log{
		dest:       dest,
		pageSize:   pageSize,
		maxSize:    maxSize,
		bitmap:     make(map[int64]struct{}),
		destLength: length,
		firstCopy:  true,
	}, nil
}

// Copy preserves the before-image of every page touched by
// [fileOffset, fileOffset+size) that has not already been preserved in
// this window, reading the current contents from source. It returns
// the number of pages newly written. The very first call of a window
// always includes page 0, regardless of the requested range.
func (l *Log) Copy(source rfile.Backend, fileOffset, size int64) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if size <= 0 {
		return 0, nil
	}
	end := fileOffset + size
	if end > l.maxSize {
		end = l.maxSize
	}
	if end <= fileOffset {
		return 0, nil
	}

	firstPage := fileOffset / l.pageSize
	lastPage := (end - 1) / l.pageSize
	if l.firstCopy {
		l.firstCopy = false
		if firstPage > 0 {
			firstPage = 0
		}
	}

	written := 0
	for page := firstPage; page <= lastPage; page++ {
		if _, ok := l.bitmap[page]; ok {
			continue
		}
		if err := l.writePage(source, page); err != nil {
			return written, err
		}
		l.bitmap[page] = struct{}{}
		written++
	}
	return written, nil
}

// writePage reads one page's current contents from source and appends
// its before-image record to dest, rolling back dest on any failure.
func (l *Log) writePage(source rfile.Backend, page int64) error {
	pageOffset := page * l.pageSize
	buf := make([]byte, l.pageSize)

	if err := source.Seek(pageOffset); err != nil {
		return err
	}
	n, err := source.Read(buf)
	if err != nil {
		fdbErr, ok := err.(*hsqlerrors.FlyDBError)
		if !ok || fdbErr.Code != hsqlerrors.ErrCodeEndOfFile {
			return err
		}
		n = 0
	}
	buf = buf[:n]

	savedLength := l.destLength
	if err := l.appendRecord(pageOffset, buf); err != nil {
		if _, setErr := l.dest.SetLength(savedLength); setErr == nil {
			l.destLength = savedLength
		}
		l.dest.Close()
		return err
	}
	return nil
}

func (l *Log) appendRecord(pageOffset int64, page []byte) error {
	if err := l.dest.Seek(l.destLength); err != nil {
		return err
	}
	if err := l.dest.WriteInt(int32(len(page))); err != nil {
		return err
	}
	if err := l.dest.WriteLong(pageOffset); err != nil {
		return err
	}
	if _, err := l.dest.Write(page); err != nil {
		return err
	}
	l.destLength += recordHeaderSize + int64(len(page))
	return nil
}

// Synch forces the destination backend to stable storage and advances
// the durably-restorable prefix to everything appended so far.
func (l *Log) Synch() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.dest.Sync(); err != nil {
		return err
	}
	l.synchLength = l.destLength
	return nil
}

// Close synchs and closes the destination backend.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.dest.Sync(); err != nil {
		l.dest.Close()
		return err
	}
	return l.dest.Close()
}

// SynchLength returns the durable prefix length as of the last Synch.
func (l *Log) SynchLength() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.synchLength
}

// PageChecksum returns an xxh3 checksum of a page's before-image, used
// by callers that want to verify a restored page against the one
// captured at Copy time without re-reading the whole record.
func PageChecksum(page []byte) uint64 {
	return xxh3.Hash(page)
}
