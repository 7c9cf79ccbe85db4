/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package freespace

import (
	"encoding/binary"

	"hsqlcore/internal/storage/cache"
)

// directoryBlockSize is the on-disk footprint of one directory block
// (4 KiB); each entry occupies 32 bytes, so a block holds up to 128
// segment records.
const directoryBlockSize = 4096
const directoryEntrySize = 32
const entriesPerBlock = directoryBlockSize / directoryEntrySize

// DirectoryBlock is a cached, on-disk page of dirEntry records — the
// MultiSpace directory is itself stored as a sequence of these,
// cached through the data-file cache like any other object.
type DirectoryBlock struct {
	position int64
	dirty    bool
	entries  [entriesPerBlock]dirEntry
}

var _ cache.CachedObject = (*DirectoryBlock)(nil)

func (d *DirectoryBlock) Position() int64     { return d.position }
func (d *DirectoryBlock) SetPosition(p int64) { d.position = p }
func (d *DirectoryBlock) StorageSize() int64  { return directoryBlockSize }
func (d *DirectoryBlock) IsDirty() bool       { return d.dirty }
func (d *DirectoryBlock) SetDirty(v bool)     { d.dirty = v }

func (d *DirectoryBlock) Encode() ([]byte, error) {
	buf := make([]byte, directoryBlockSize)
	for i, e := range d.entries {
		off := i * directoryEntrySize
		binary.BigEndian.PutUint64(buf[off:], uint64(e.spaceID))
		binary.BigEndian.PutUint64(buf[off+8:], uint64(e.usedItems))
		binary.BigEndian.PutUint64(buf[off+16:], uint64(e.freeItems))
		binary.BigEndian.PutUint64(buf[off+24:], uint64(e.freeItemCount))
	}
	return buf, nil
}

// DecodeDirectoryBlock parses a directoryBlockSize-byte image back
// into a DirectoryBlock at position.
func DecodeDirectoryBlock(position int64, buf []byte) *DirectoryBlock {
	d := &DirectoryBlock{position: position}
	for i := range d.entries {
		off := i * directoryEntrySize
		if off+directoryEntrySize > len(buf) {
			break
		}
		d.entries[i] = dirEntry{
			spaceID:       int64(binary.BigEndian.Uint64(buf[off:])),
			usedItems:     int64(binary.BigEndian.Uint64(buf[off+8:])),
			freeItems:     int64(binary.BigEndian.Uint64(buf[off+16:])),
			freeItemCount: int64(binary.BigEndian.Uint64(buf[off+24:])),
		}
	}
	return d
}

// Snapshot packs the directory's current in-memory entries into a
// sequence of DirectoryBlocks starting at position basePosition, for
// persisting through the cache.
func (m *MultiSpace) Snapshot(basePosition int64) []*DirectoryBlock {
	m.mu.Lock()
	defer m.mu.Unlock()

	var blocks []*DirectoryBlock
	for i := 0; i < len(m.directory); i += entriesPerBlock {
		b := &DirectoryBlock{position: basePosition + int64(len(blocks))*directoryBlockSize, dirty: true}
		for j := 0; j < entriesPerBlock && i+j < len(m.directory); j++ {
			b.entries[j] = m.directory[i+j]
		}
		blocks = append(blocks, b)
	}
	return blocks
}
