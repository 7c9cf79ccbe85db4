/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package freespace

import "sync"

// segmentMiB is the file-block chunking unit: segments are carved at
// 1 MiB·scale/16 byte granularity per table space.
const segmentMiB = 1024 * 1024

type freeSpan struct {
	offset int64
	length int64
}

type spaceState struct {
	id int64

	currentSegment int64 // offset of the segment now being filled, -1 if none
	currentUsed    int64 // bytes used within currentSegment

	freeList []freeSpan // bounded to maxFreeBlocks entries
}

// dirEntry mirrors, per file block, which space owns it and its
// item accounting — the directory-block record.
type dirEntry struct {
	spaceID       int64
	usedItems     int64
	freeItems     int64
	freeItemCount int64
}

// MultiSpace is the directory-block free-space manager: the file is
// carved into fixed-size segments, each owned by exactly one table
// space; each space keeps a bounded free list and extends its current
// segment (or requests a new one) on allocation.
type MultiSpace struct {
	mu sync.Mutex

	headerSize    int64
	unitSize      int64 // allocation granularity (the row-storage scale)
	segmentSize   int64
	maxFreeBlocks int

	nextSpaceID       int64
	nextSegmentOffset int64

	spaces    map[int64]*spaceState
	directory []dirEntry

	lostBlocksSize int64
}

// NewMultiSpace creates a MultiSpace manager. scale is the data
// file's row-alignment scale S; segments are sized at
// 1 MiB·S/16 bytes.
func NewMultiSpace(headerSize, scale int64, maxFreeBlocks int) *MultiSpace {
	return &MultiSpace{
		headerSize:        headerSize,
		unitSize:          scale,
		segmentSize:       segmentMiB * scale / 16,
		maxFreeBlocks:     maxFreeBlocks,
		nextSpaceID:       1,
		nextSegmentOffset: headerSize,
		spaces:            make(map[int64]*spaceState),
	}
}

func (m *MultiSpace) space(id int64) *spaceState {
	s, ok := m.spaces[id]
	if !ok {
		s = &spaceState{id: id, currentSegment: -1}
		m.spaces[id] = s
	}
	return s
}

func (m *MultiSpace) DefaultTableSpace() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.space(DefaultSpaceID)
	return DefaultSpaceID
}

func (m *MultiSpace) TableSpace(id int64) TableSpace {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.space(id)
	return simpleSpace{id: id}
}

func (m *MultiSpace) NewTableSpaceID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSpaceID
	m.nextSpaceID++
	m.space(id)
	return id
}

// GetFileBlocks allocates blockCount·unitSize bytes for spaceID,
// satisfying from that space's free list first, then its current
// segment, then a freshly carved segment from the directory.
func (m *MultiSpace) GetFileBlocks(spaceID int64, blockCount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	size := blockCount * m.unitSize
	sp := m.space(spaceID)

	if offset, ok := m.takeFromFreeList(sp, size); ok {
		return offset, nil
	}

	if sp.currentSegment >= 0 && sp.currentUsed+size <= m.segmentSize {
		offset := sp.currentSegment + sp.currentUsed
		sp.currentUsed += size
		m.markUsed(sp.currentSegment, size)
		return offset, nil
	}

	// Current segment (if any) can no longer satisfy this request;
	// whatever remains unused in it is tracked as lost until defrag.
	if sp.currentSegment >= 0 {
		m.lostBlocksSize += m.segmentSize - sp.currentUsed
	}

	segment := m.nextSegmentOffset
	m.nextSegmentOffset += m.segmentSize
	m.directory = append(m.directory, dirEntry{spaceID: spaceID})
	sp.currentSegment = segment
	sp.currentUsed = size
	m.markUsed(segment, size)
	return segment, nil
}

// takeFromFreeList first-fits size against sp's free list.
func (m *MultiSpace) takeFromFreeList(sp *spaceState, size int64) (int64, bool) {
	for i, span := range sp.freeList {
		if span.length < size {
			continue
		}
		offset := span.offset
		if span.length == size {
			sp.freeList = append(sp.freeList[:i], sp.freeList[i+1:]...)
		} else {
			sp.freeList[i] = freeSpan{offset: offset + size, length: span.length - size}
		}
		return offset, true
	}
	return 0, false
}

func (m *MultiSpace) dirIndex(offset int64) int {
	return int((offset - m.headerSize) / m.segmentSize)
}

func (m *MultiSpace) markUsed(segmentOffset, size int64) {
	idx := m.dirIndex(segmentOffset)
	if idx >= 0 && idx < len(m.directory) {
		m.directory[idx].usedItems++
	}
	_ = size
}

// FreeTableSpace returns [offset, offset+limit) to spaceID's free
// list, or to lost-block accounting once the free list is at capacity.
func (m *MultiSpace) FreeTableSpace(spaceID int64, offset, limit int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sp := m.space(spaceID)
	if m.maxFreeBlocks > 0 && len(sp.freeList) >= m.maxFreeBlocks {
		m.lostBlocksSize += limit
		return
	}
	sp.freeList = append(sp.freeList, freeSpan{offset: offset, length: limit})

	idx := m.dirIndex(offset)
	if idx >= 0 && idx < len(m.directory) {
		m.directory[idx].freeItems++
		m.directory[idx].freeItemCount++
	}
}

func (m *MultiSpace) LostBlocksSize() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := m.lostBlocksSize
	for _, sp := range m.spaces {
		for _, span := range sp.freeList {
			_ = span // free-list spans are reusable, not lost
		}
	}
	return total
}

// InitialiseSpaces drops each space's in-memory current-segment cursor
// so the next allocation for that space requests a fresh segment;
// free lists and directory accounting survive.
func (m *MultiSpace) InitialiseSpaces() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sp := range m.spaces {
		sp.currentSegment = -1
		sp.currentUsed = 0
	}
}

func (m *MultiSpace) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spaces = make(map[int64]*spaceState)
	m.directory = nil
	m.nextSegmentOffset = m.headerSize
	m.nextSpaceID = 1
	m.lostBlocksSize = 0
}

func (m *MultiSpace) IsMultiSpace() bool { return true }

// DirectoryLen reports the number of directory entries (segments)
// carved so far, for diagnostics and tests.
func (m *MultiSpace) DirectoryLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.directory)
}
