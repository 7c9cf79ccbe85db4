/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package rfile

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"

	hsqlerrors "hsqlcore/internal/errors"
)

// slabSize is the fixed mapping granularity of the memory-mapped
// backend: the file is divided into independent 16 MiB slabs so that
// extending the file never requires remapping already-mapped full slabs
// (only a tail slab mapped short is dropped and mapped again).
const slabSize = 16 * 1024 * 1024

// slab is one independently mmap'd region of the file.
type slab struct {
	data []byte // nil once unmapped
}

// Mapped is a random-access backend splitting the file into fixed
// slabSize slabs, each independently memory-mapped. It is intended for
// files below a configurable size threshold; above that the engine
// should fall back to Buffered (the size check is the caller's
// responsibility — Mapped itself has no ceiling).
type Mapped struct {
	mu       sync.Mutex
	file     *os.File
	readOnly bool

	pos    int64
	length int64
	slabs  []*slab
}

// OpenMapped opens path, mapping slabs lazily as they are first
// touched by Seek/Read/Write.
func OpenMapped(path string, readOnly bool) (*Mapped, error) {
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
	m := &Mapped{file: f, readOnly: readOnly, length: info.Size()}
	m.slabs = make([]*slab, m.numSlabs())
	return m, nil
}

func (m *Mapped) numSlabs() int {
	if m.length == 0 {
		return 0
	}
	return int((m.length + slabSize - 1) / slabSize)
}

// slabFor returns the mapped slab containing file offset pos,
// memory-mapping it on first touch.
func (m *Mapped) slabFor(pos int64) (*slab, int64, error) {
	idx := int(pos / slabSize)
	if idx >= len(m.slabs) {
		return nil, 0, hsqlerrors.EndOfFile(pos)
	}
	s := m.slabs[idx]
	if s == nil {
		base := int64(idx) * slabSize
		size := slabSize
		if base+int64(size) > m.length {
			size = int(m.length - base)
		}
		prot := unix.PROT_READ
		if !m.readOnly {
			prot |= unix.PROT_WRITE
		}
		data, err := unix.Mmap(int(m.file.Fd()), base, size, prot, unix.MAP_SHARED)
		if err != nil {
			return nil, 0, hsqlerrors.IoFailure("mmap", err)
		}
		s = &slab{data: data}
		m.slabs[idx] = s
	}
	offsetInSlab := pos - int64(idx)*slabSize
	return s, offsetInSlab, nil
}

func (m *Mapped) Length() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.length, nil
}

func (m *Mapped) Seek(pos int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pos = pos
	return nil
}

func (m *Mapped) FilePointer() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos
}

func (m *Mapped) IsReadOnly() bool { return m.readOnly }

func (m *Mapped) ReadByte() (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pos >= m.length {
		return 0, hsqlerrors.EndOfFile(m.pos)
	}
	s, off, err := m.slabFor(m.pos)
	if err != nil {
		return 0, err
	}
	v := s.data[off]
	m.pos++
	return v, nil
}

func (m *Mapped) Read(out []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pos >= m.length {
		return 0, hsqlerrors.EndOfFile(m.pos)
	}
	total := 0
	for total < len(out) && m.pos < m.length {
		s, off, err := m.slabFor(m.pos)
		if err != nil {
			return total, err
		}
		n := copy(out[total:], s.data[off:])
		if int64(n) > m.length-m.pos {
			n = int(m.length - m.pos)
		}
		if n == 0 {
			break
		}
		total += n
		m.pos += int64(n)
	}
	return total, nil
}

func (m *Mapped) ReadInt() (int32, error) {
	var tmp [4]byte
	if _, err := m.Read(tmp[:]); err != nil {
		return 0, err
	}
	return decodeInt32(tmp[:]), nil
}

func (m *Mapped) ReadLong() (int64, error) {
	var tmp [8]byte
	if _, err := m.Read(tmp[:]); err != nil {
		return 0, err
	}
	return decodeInt64(tmp[:]), nil
}

func (m *Mapped) Write(data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readOnly {
		return 0, errReadOnly
	}
	if m.pos+int64(len(data)) > m.length {
		if _, err := m.ensureLengthLocked(m.pos + int64(len(data))); err != nil {
			return 0, err
		}
	}
	total := 0
	for total < len(data) {
		s, off, err := m.slabFor(m.pos)
		if err != nil {
			return total, err
		}
		n := copy(s.data[off:], data[total:])
		total += n
		m.pos += int64(n)
	}
	return total, nil
}

func (m *Mapped) WriteInt(v int32) error {
	var tmp [4]byte
	encodeInt32(v, tmp[:])
	_, err := m.Write(tmp[:])
	return err
}

func (m *Mapped) WriteLong(v int64) error {
	var tmp [8]byte
	encodeInt64(v, tmp[:])
	_, err := m.Write(tmp[:])
	return err
}

// EnsureLength extends the file to at least pos, appending new slabs
// as needed. The file is extended by writing a single zero byte at
// newSize-1.
func (m *Mapped) EnsureLength(pos int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLengthLocked(pos)
}

func (m *Mapped) ensureLengthLocked(pos int64) (bool, error) {
	if m.readOnly {
		return false, errReadOnly
	}
	if pos <= m.length {
		return false, nil
	}
	target := growthBucket(pos)
	if _, err := m.file.WriteAt([]byte{0}, target-1); err != nil {
		return false, hsqlerrors.IoFailure("ensureLength", err)
	}
	// A tail slab mapped while the file was shorter covers only the old
	// length; unmap it so the next touch maps it at its new size.
	if n := len(m.slabs); n > 0 && m.slabs[n-1] != nil && len(m.slabs[n-1].data) < slabSize {
		m.unmapSlab(n - 1)
	}
	m.length = target
	for len(m.slabs) < m.numSlabs() {
		m.slabs = append(m.slabs, nil)
	}
	return true, nil
}

// SetLength truncates the file to pos, unmapping any slab that now
// falls fully or partially beyond the new length.
func (m *Mapped) SetLength(pos int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readOnly {
		return false, errReadOnly
	}
	if err := m.file.Truncate(pos); err != nil {
		return false, hsqlerrors.IoFailure("setLength", err)
	}
	firstAffected := int(pos / slabSize)
	for i := firstAffected; i < len(m.slabs); i++ {
		m.unmapSlab(i)
	}
	m.length = pos
	n := m.numSlabs()
	if n < len(m.slabs) {
		m.slabs = m.slabs[:n]
	}
	return true, nil
}

// unmapSlab best-effort unmaps slab i.
func (m *Mapped) unmapSlab(i int) {
	if i < 0 || i >= len(m.slabs) || m.slabs[i] == nil {
		return
	}
	_ = unix.Munmap(m.slabs[i].data)
	m.slabs[i] = nil
}

func (m *Mapped) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readOnly {
		return nil
	}
	for _, s := range m.slabs {
		if s != nil {
			_ = unix.Msync(s.data, unix.MS_SYNC)
		}
	}
	if err := m.file.Sync(); err != nil {
		return hsqlerrors.IoFailure("sync", err)
	}
	return nil
}

func (m *Mapped) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.slabs {
		m.unmapSlab(i)
	}
	if err := m.file.Close(); err != nil {
		return hsqlerrors.IoFailure("close", err)
	}
	return nil
}
