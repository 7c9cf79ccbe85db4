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

/*
Package rfile implements the random-access file backend:
the lowest layer the cache, shadow log, and defragmenter build on.

Two implementations share the Backend interface: Buffered, a single
aligned window over a plain *os.File, and Mapped, a set of independent
16 MiB memory-mapped slabs. A ReadOnly wrapper rejects every mutating
call, for opening a data file that must not be touched (a read-only
mount, or a file under active shadow-restore).
*/
package rfile

import (
	"encoding/binary"

	hsqlerrors "hsqlcore/internal/errors"
)

// Backend is the random-access file contract every storage component
// above it is built on.
type Backend interface {
	Length() (int64, error)
	Seek(pos int64) error
	FilePointer() int64

	ReadByte() (byte, error)
	Read(buf []byte) (int, error)
	ReadInt() (int32, error)
	ReadLong() (int64, error)

	Write(buf []byte) (int, error)
	WriteInt(v int32) error
	WriteLong(v int64) error

	EnsureLength(pos int64) (bool, error)
	SetLength(pos int64) (bool, error)

	Sync() error
	Close() error
	IsReadOnly() bool
}

// growthBucket implements the file-growth heuristic: round an
// extension target up to 2^(13+k), with k chosen by position bucket.
func growthBucket(p int64) int64 {
	const (
		kib = 1024
		mib = 1024 * kib
	)
	var k uint
	switch {
	case p < 256*kib:
		k = 2
	case p < mib:
		k = 6
	case p < 32*mib:
		k = 8
	default:
		k = 12
	}
	unit := int64(1) << (13 + k)
	if r := p % unit; r != 0 {
		p += unit - r
	}
	return p
}

// decodeInt32 / encodeInt32 / decodeInt64 / encodeInt64 are shared by both
// backend implementations to decode/encode the big-endian integers the
// data-file header and row codec expect.
func decodeInt32(buf []byte) int32 {
	return int32(binary.BigEndian.Uint32(buf))
}

func encodeInt32(v int32, buf []byte) {
	binary.BigEndian.PutUint32(buf, uint32(v))
}

func decodeInt64(buf []byte) int64 {
	return int64(binary.BigEndian.Uint64(buf))
}

func encodeInt64(v int64, buf []byte) {
	binary.BigEndian.PutUint64(buf, uint64(v))
}

var errReadOnly = hsqlerrors.ReadOnly()
