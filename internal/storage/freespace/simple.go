/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package freespace

import "sync"

// DefaultSpaceID is the single space Simple ever allocates from.
const DefaultSpaceID = int64(0)

// lostSpan is one entry of the lost-block lookup: a freed span in the
// middle of the file that Simple never reuses.
type lostSpan struct {
	offset int64
	length int64
}

// Simple is the single-space free-space manager: fileFreePosition
// advances monotonically on every allocation. A freed span abutting
// the current end shrinks fileFreePosition; any other freed span is
// recorded as lost and is reclaimed only by defrag.
type Simple struct {
	mu sync.Mutex

	headerSize       int64
	fileBlockSize    int64
	fileFreePosition int64

	lost []lostSpan // kept sorted by offset
}

// NewSimple creates a Simple manager whose first allocation begins at
// headerSize (the data-file header occupies [0, headerSize)).
func NewSimple(headerSize, fileBlockSize int64) *Simple {
	return &Simple{
		headerSize:       headerSize,
		fileBlockSize:    fileBlockSize,
		fileFreePosition: headerSize,
	}
}

func (s *Simple) DefaultTableSpace() int64 { return DefaultSpaceID }

func (s *Simple) TableSpace(id int64) TableSpace { return simpleSpace{id: id} }

func (s *Simple) NewTableSpaceID() int64 { return DefaultSpaceID }

// GetFileBlocks extends fileFreePosition by blockCount blocks and
// returns the offset of the first one. spaceID is ignored: Simple has
// exactly one space.
func (s *Simple) GetFileBlocks(_ int64, blockCount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offset := s.fileFreePosition
	s.fileFreePosition += blockCount * s.fileBlockSize
	return offset, nil
}

// FreeTableSpace returns [offset, offset+limit) to the allocator. A
// span ending exactly at fileFreePosition shrinks it (and any lost
// span now newly abutting the shrunk end is folded in); any other span
// is recorded as lost.
func (s *Simple) FreeTableSpace(_ int64, offset, limit int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	end := offset + limit
	if end == s.fileFreePosition {
		s.fileFreePosition = offset
		s.reclaimTrailingLost()
		return
	}
	s.insertLost(offset, limit)
}

// reclaimTrailingLost folds any lost span now abutting the shrunk
// fileFreePosition back into it, repeating until no further span
// qualifies. Must be called with s.mu held.
func (s *Simple) reclaimTrailingLost() {
	for {
		idx := -1
		for i, sp := range s.lost {
			if sp.offset+sp.length == s.fileFreePosition {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}
		s.fileFreePosition = s.lost[idx].offset
		s.lost = append(s.lost[:idx], s.lost[idx+1:]...)
	}
}

func (s *Simple) insertLost(offset, length int64) {
	i := 0
	for i < len(s.lost) && s.lost[i].offset < offset {
		i++
	}
	s.lost = append(s.lost, lostSpan{})
	copy(s.lost[i+1:], s.lost[i:])
	s.lost[i] = lostSpan{offset: offset, length: length}
}

func (s *Simple) LostBlocksSize() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, sp := range s.lost {
		total += sp.length
	}
	return total
}

// InitialiseSpaces resets the lost-block lookup, matching the "one
// compact pass at next startup" lifecycle: lost spans are not expected
// to survive a restart as reusable, only as accounting until the next
// defrag compacts them away.
func (s *Simple) InitialiseSpaces() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lost = nil
}

func (s *Simple) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileFreePosition = s.headerSize
	s.lost = nil
}

// SeedFreePosition reinitialises fileFreePosition to pos and drops any
// lost-span accounting, matching the end of a file that was just
// written compactly by defrag: nothing before pos is free, and there
// is no fragmentation left to track until the next round of deletes.
func (s *Simple) SeedFreePosition(pos int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileFreePosition = pos
	s.lost = nil
}

func (s *Simple) IsMultiSpace() bool { return false }

// FileFreePosition reports the current end of allocated space.
func (s *Simple) FileFreePosition() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileFreePosition
}

type simpleSpace struct{ id int64 }

func (s simpleSpace) ID() int64 { return s.id }
