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

package storage

import (
	"encoding/binary"
	"fmt"

	hsqlerrors "hsqlcore/internal/errors"
	"hsqlcore/internal/storage/rfile"
	"hsqlcore/internal/storage/rowcodec"

	"github.com/zeebo/xxh3"
)

// headerSize is the fixed prefix reserved at the start of every table
// data file; GetFileBlocks never allocates inside it.
const headerSize = 256

const headerMagic = "HSQLCORE"
const headerVersion = 1

// maxHeaderIndexRoots bounds how many index accessor roots the 256-byte
// header can carry directly. A table with more indexes than this still
// works — SetAccessor is driven from the catalog above this package,
// which knows every index, not just the ones that fit here — but only
// the first maxHeaderIndexRoots roots survive a clean reopen without
// the catalog re-supplying them.
const maxHeaderIndexRoots = 16

const (
	// headerFlagModified marks a file as having an in-flight write that
	// has not yet been checkpointed by a clean Sync/Close. A table whose
	// header still carries this flag on open was not shut down cleanly
	// and its shadow log (if any) must be replayed before use.
	headerFlagModified uint32 = 1 << 0
)

// Byte layout (256 bytes total):
//
//	[0,8)    magic     "HSQLCORE"
//	[8,12)   version   u32
//	[12,16)  scale     u32
//	[16,20)  flags     u32
//	[20,28)  fileFreePosition  u64
//	[28,28+8*maxHeaderIndexRoots)  indexRoots[]  u64 each, NoPosition-filled
//	[...,+8) checksum  u64 (xxh3 of everything before it)
//	[...,256) reserved, zero-filled
const (
	offMagic      = 0
	offVersion    = 8
	offScale      = 12
	offFlags      = 16
	offFreePos    = 20
	offIndexRoots = 28
	indexRootsLen = maxHeaderIndexRoots * 8
	offChecksum   = offIndexRoots + indexRootsLen
)

// fileHeader is the decoded form of a table data file's 256-byte
// prefix.
type fileHeader struct {
	Scale            rowcodec.Scale
	Flags            uint32
	FileFreePosition int64
	IndexRoots       [maxHeaderIndexRoots]int64
}

// newFileHeader returns a freshly initialized header for a table about
// to be created: free position right after the header, every index
// root unset, and the modified flag set (cleared by the next clean
// checkpoint).
func newFileHeader(scale rowcodec.Scale) *fileHeader {
	h := &fileHeader{
		Scale:            scale,
		Flags:            headerFlagModified,
		FileFreePosition: headerSize,
	}
	for i := range h.IndexRoots {
		h.IndexRoots[i] = rowcodec.NoPosition
	}
	return h
}

// modified reports whether the dirty bit is set.
func (h *fileHeader) modified() bool { return h.Flags&headerFlagModified != 0 }

// setModified sets or clears the dirty bit.
func (h *fileHeader) setModified(m bool) {
	if m {
		h.Flags |= headerFlagModified
	} else {
		h.Flags &^= headerFlagModified
	}
}

// setRoots records every index's current accessor root, truncating
// silently to maxHeaderIndexRoots (the catalog above this package
// remains the source of truth for a table with more indexes than fit).
func (h *fileHeader) setRoots(roots []int64) {
	for i := range h.IndexRoots {
		h.IndexRoots[i] = rowcodec.NoPosition
	}
	for i, r := range roots {
		if i >= maxHeaderIndexRoots {
			break
		}
		h.IndexRoots[i] = r
	}
}

// encode renders h as the 256-byte on-disk image, magic and checksum
// included.
func (h *fileHeader) encode() []byte {
	buf := make([]byte, headerSize)
	copy(buf[offMagic:offMagic+8], headerMagic)
	binary.BigEndian.PutUint32(buf[offVersion:offVersion+4], headerVersion)
	binary.BigEndian.PutUint32(buf[offScale:offScale+4], uint32(h.Scale))
	binary.BigEndian.PutUint32(buf[offFlags:offFlags+4], h.Flags)
	binary.BigEndian.PutUint64(buf[offFreePos:offFreePos+8], uint64(h.FileFreePosition))
	for i, r := range h.IndexRoots {
		off := offIndexRoots + i*8
		binary.BigEndian.PutUint64(buf[off:off+8], uint64(r))
	}
	checksum := xxh3.Hash(buf[:offChecksum])
	binary.BigEndian.PutUint64(buf[offChecksum:offChecksum+8], checksum)
	return buf
}

// decodeFileHeader parses and validates a 256-byte header image,
// rejecting a bad magic, an unsupported version, or a checksum
// mismatch (any of which mean the file is not one of ours, or was
// torn mid-write without a usable shadow log to recover it).
func decodeFileHeader(buf []byte) (*fileHeader, error) {
	if len(buf) < headerSize {
		return nil, hsqlerrors.CorruptHeader(fmt.Sprintf("header short: got %d bytes, want %d", len(buf), headerSize))
	}
	if string(buf[offMagic:offMagic+8]) != headerMagic {
		return nil, hsqlerrors.CorruptHeader("bad magic")
	}
	version := binary.BigEndian.Uint32(buf[offVersion : offVersion+4])
	if version != headerVersion {
		return nil, hsqlerrors.CorruptHeader(fmt.Sprintf("unsupported header version %d", version))
	}
	wantChecksum := binary.BigEndian.Uint64(buf[offChecksum : offChecksum+8])
	gotChecksum := xxh3.Hash(buf[:offChecksum])
	if wantChecksum != gotChecksum {
		return nil, hsqlerrors.CorruptHeader("checksum mismatch")
	}

	h := &fileHeader{
		Scale:            rowcodec.Scale(binary.BigEndian.Uint32(buf[offScale : offScale+4])),
		Flags:            binary.BigEndian.Uint32(buf[offFlags : offFlags+4]),
		FileFreePosition: int64(binary.BigEndian.Uint64(buf[offFreePos : offFreePos+8])),
	}
	for i := range h.IndexRoots {
		off := offIndexRoots + i*8
		h.IndexRoots[i] = int64(binary.BigEndian.Uint64(buf[off : off+8]))
	}
	return h, nil
}

// readFileHeader reads and decodes the header from the front of
// backend.
func readFileHeader(backend rfile.Backend) (*fileHeader, error) {
	if err := backend.Seek(0); err != nil {
		return nil, hsqlerrors.IoFailure("seek to header", err)
	}
	buf := make([]byte, headerSize)
	if _, err := backend.Read(buf); err != nil {
		return nil, hsqlerrors.IoFailure("read header", err)
	}
	return decodeFileHeader(buf)
}

// writeFileHeader writes h's encoded image to the front of backend.
// Callers that want it durable still must Sync the backend themselves.
func writeFileHeader(backend rfile.Backend, h *fileHeader) error {
	if err := backend.Seek(0); err != nil {
		return hsqlerrors.IoFailure("seek to header", err)
	}
	if _, err := backend.Write(h.encode()); err != nil {
		return hsqlerrors.IoFailure("write header", err)
	}
	return nil
}
