/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package rfile

import (
	"io"
	"os"
	"sync"

	hsqlerrors "hsqlcore/internal/errors"
)

// bufferSize is the aligned window size mirrored in memory.
const bufferSize = 1 << 13

// Buffered is a random-access backend over a plain *os.File, caching a
// single aligned window of the file so that sequential access (the
// common case for row scans) avoids a syscall per read.
type Buffered struct {
	mu       sync.Mutex
	file     *os.File
	readOnly bool

	pos    int64 // current logical file pointer
	length int64 // cached file length; re-measured after any error

	bufOffset int64 // file offset the buffer mirrors, or -1 if empty
	buf       [bufferSize]byte
	bufLen    int // valid bytes in buf
}

// OpenBuffered opens path with the buffered backend. readOnly rejects
// all mutating operations regardless of the underlying file's mode.
func OpenBuffered(path string, readOnly bool) (*Buffered, error) {
	flag := os.O_RDWR | os.O_CREATE
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, hsqlerrors.IoFailure("open", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, hsqlerrors.IoFailure("stat", err)
	}
	return &Buffered{
		file:      f,
		readOnly:  readOnly,
		length:    info.Size(),
		bufOffset: -1,
	}, nil
}

func (b *Buffered) Length() (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.length, nil
}

func (b *Buffered) Seek(pos int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pos = pos
	return nil
}

func (b *Buffered) FilePointer() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos
}

func (b *Buffered) IsReadOnly() bool { return b.readOnly }

// invalidate drops the cached buffer and re-measures length, the
// recovery step specifies for any I/O error.
func (b *Buffered) invalidate() {
	b.bufOffset = -1
	b.bufLen = 0
	if info, err := b.file.Stat(); err == nil {
		b.length = info.Size()
	}
}

// fill loads the window starting at pos into buf.
func (b *Buffered) fill(pos int64) error {
	n, err := b.file.ReadAt(b.buf[:], pos)
	if err != nil && err != io.EOF {
		b.invalidate()
		return hsqlerrors.IoFailure("read", err)
	}
	b.bufOffset = pos
	b.bufLen = n
	return nil
}

func (b *Buffered) ReadByte() (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pos >= b.length {
		return 0, hsqlerrors.EndOfFile(b.pos)
	}
	if b.bufOffset < 0 || b.pos < b.bufOffset || b.pos >= b.bufOffset+int64(b.bufLen) {
		if err := b.fill(b.pos); err != nil {
			return 0, err
		}
	}
	off := b.pos - b.bufOffset
	if off >= int64(b.bufLen) {
		return 0, hsqlerrors.EndOfFile(b.pos)
	}
	v := b.buf[off]
	b.pos++
	return v, nil
}

func (b *Buffered) Read(out []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pos >= b.length {
		return 0, hsqlerrors.EndOfFile(b.pos)
	}
	total := 0
	for total < len(out) && b.pos < b.length {
		if b.bufOffset < 0 || b.pos < b.bufOffset || b.pos >= b.bufOffset+int64(b.bufLen) {
			if err := b.fill(b.pos); err != nil {
				return total, err
			}
			if b.bufLen == 0 {
				break
			}
		}
		off := b.pos - b.bufOffset
		n := copy(out[total:], b.buf[off:b.bufLen])
		if n == 0 {
			break
		}
		total += n
		b.pos += int64(n)
	}
	if total == 0 {
		return 0, hsqlerrors.EndOfFile(b.pos)
	}
	return total, nil
}

func (b *Buffered) ReadInt() (int32, error) {
	var tmp [4]byte
	if _, err := b.Read(tmp[:]); err != nil {
		return 0, err
	}
	return decodeInt32(tmp[:]), nil
}

func (b *Buffered) ReadLong() (int64, error) {
	var tmp [8]byte
	if _, err := b.Read(tmp[:]); err != nil {
		return 0, err
	}
	return decodeInt64(tmp[:]), nil
}

func (b *Buffered) Write(data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.readOnly {
		return 0, errReadOnly
	}
	n, err := b.file.WriteAt(data, b.pos)
	if err != nil {
		b.invalidate()
		return n, hsqlerrors.IoFailure("write", err)
	}

	// Patch the cached window in place if the write overlaps it, so a
	// subsequent read through the buffer sees the new bytes.
	if b.bufOffset >= 0 {
		start := b.pos
		end := b.pos + int64(n)
		winStart := b.bufOffset
		winEnd := b.bufOffset + int64(bufferSize)
		if start < winEnd && end > winStart {
			srcStart := start
			if srcStart < winStart {
				srcStart = winStart
			}
			srcEnd := end
			if srcEnd > winEnd {
				srcEnd = winEnd
			}
			copy(b.buf[srcStart-winStart:srcEnd-winStart], data[srcStart-start:srcEnd-start])
			if srcEnd-winStart > int64(b.bufLen) {
				b.bufLen = int(srcEnd - winStart)
			}
		}
	}

	b.pos += int64(n)
	if b.pos > b.length {
		b.length = b.pos
	}
	return n, nil
}

func (b *Buffered) WriteInt(v int32) error {
	var tmp [4]byte
	encodeInt32(v, tmp[:])
	_, err := b.Write(tmp[:])
	return err
}

func (b *Buffered) WriteLong(v int64) error {
	var tmp [8]byte
	encodeInt64(v, tmp[:])
	_, err := b.Write(tmp[:])
	return err
}

// EnsureLength extends the file to at least pos using growthBucket,
// returning whether an extension actually happened.
func (b *Buffered) EnsureLength(pos int64) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.readOnly {
		return false, errReadOnly
	}
	if pos <= b.length {
		return false, nil
	}
	target := growthBucket(pos)
	if err := b.file.Truncate(target); err != nil {
		b.invalidate()
		return false, hsqlerrors.IoFailure("ensureLength", err)
	}
	b.length = target
	return true, nil
}

// SetLength truncates or extends the file to exactly pos.
func (b *Buffered) SetLength(pos int64) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.readOnly {
		return false, errReadOnly
	}
	if err := b.file.Truncate(pos); err != nil {
		b.invalidate()
		return false, hsqlerrors.IoFailure("setLength", err)
	}
	b.length = pos
	if b.bufOffset >= 0 && b.bufOffset+int64(b.bufLen) > pos {
		b.invalidate()
	}
	return true, nil
}

func (b *Buffered) Sync() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.readOnly {
		return nil
	}
	if err := b.file.Sync(); err != nil {
		return hsqlerrors.IoFailure("sync", err)
	}
	return nil
}

func (b *Buffered) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.file.Close(); err != nil {
		return hsqlerrors.IoFailure("close", err)
	}
	return nil
}
