/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

// Package defrag rewrites a table's data file compactly: every live
// row is relocated to a fresh, contiguous position, its AVL node
// links are translated to match, and the result atomically replaces
// the original file.
package defrag

import "hsqlcore/internal/storage/rowcodec"

// PositionLookup maps a row's old file position to where defrag wrote
// it in the compacted file. Lookup of rowcodec.NoPosition always
// succeeds and returns rowcodec.NoPosition — an absent AVL neighbor
// has nothing to translate.
type PositionLookup interface {
	Put(oldPos, newPos int64)
	Lookup(oldPos int64) (int64, bool)
	Len() int
}

// DoubleIntIndex is a PositionLookup backed by 32-bit keys and values,
// used when the data file never grows past 4-byte addressing range.
type DoubleIntIndex struct {
	m map[int32]int32
}

// NewDoubleIntIndex creates an empty lookup sized for capacity entries.
func NewDoubleIntIndex(capacity int) *DoubleIntIndex {
	return &DoubleIntIndex{m: make(map[int32]int32, capacity)}
}

func (d *DoubleIntIndex) Put(oldPos, newPos int64) {
	d.m[int32(oldPos)] = int32(newPos)
}

func (d *DoubleIntIndex) Lookup(oldPos int64) (int64, bool) {
	if oldPos == rowcodec.NoPosition {
		return rowcodec.NoPosition, true
	}
	v, ok := d.m[int32(oldPos)]
	return int64(v), ok
}

func (d *DoubleIntIndex) Len() int { return len(d.m) }

// DoubleLongIndex is a PositionLookup backed by 64-bit keys and
// values, used once the data file's positions exceed 32-bit range.
type DoubleLongIndex struct {
	m map[int64]int64
}

// NewDoubleLongIndex creates an empty lookup sized for capacity entries.
func NewDoubleLongIndex(capacity int) *DoubleLongIndex {
	return &DoubleLongIndex{m: make(map[int64]int64, capacity)}
}

func (d *DoubleLongIndex) Put(oldPos, newPos int64) {
	d.m[oldPos] = newPos
}

func (d *DoubleLongIndex) Lookup(oldPos int64) (int64, bool) {
	if oldPos == rowcodec.NoPosition {
		return rowcodec.NoPosition, true
	}
	v, ok := d.m[oldPos]
	return v, ok
}

func (d *DoubleLongIndex) Len() int { return len(d.m) }
