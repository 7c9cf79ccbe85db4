/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package shadow

import (
	hsqlerrors "hsqlcore/internal/errors"
	"hsqlcore/internal/storage/rfile"
)

// RestoreFile replays every complete {pageSize, offset, page} record in
// source, writing each page back into dest at its original offset. A
// trailing record left incomplete by a crash mid-write is silently
// dropped rather than treated as corruption: an incomplete record can
// only belong to a window that never called Synch, so a complete
// replay up to that point already restores a consistent file.
func RestoreFile(source, dest rfile.Backend) (int, error) {
	length, err := source.Length()
	if err != nil {
		return 0, err
	}
	if err := source.Seek(0); err != nil {
		return 0, err
	}

	applied := 0
	pos := int64(0)
	for pos+recordHeaderSize <= length {
		pageSize, err := source.ReadInt()
		if err != nil {
			break
		}
		pageOffset, err := source.ReadLong()
		if err != nil {
			break
		}
		if pageSize < 0 || pos+recordHeaderSize+int64(pageSize) > length {
			break
		}
		page := make([]byte, pageSize)
		n, err := readFull(source, page)
		if err != nil || n != int(pageSize) {
			break
		}

		if err := dest.Seek(pageOffset); err != nil {
			return applied, err
		}
		if _, err := dest.Write(page); err != nil {
			return applied, err
		}
		applied++
		pos += recordHeaderSize + int64(pageSize)
	}

	if applied > 0 {
		if err := dest.Sync(); err != nil {
			return applied, err
		}
	}
	return applied, nil
}

// readFull reads exactly len(buf) bytes from b, stopping short (without
// error) only at end of file — the caller treats a short read as an
// incomplete trailing record, not a hard failure.
func readFull(b rfile.Backend, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := b.Read(buf[total:])
		total += n
		if err != nil {
			fdbErr, ok := err.(*hsqlerrors.FlyDBError)
			if ok && fdbErr.Code == hsqlerrors.ErrCodeEndOfFile {
				return total, nil
			}
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}
