/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package cache

// CachedObject is anything the data-file cache can hold: a row image
// or a free-space directory block. Position addresses the object's
// slot in the backing file; -1 means the object has not yet been
// assigned a slot (a brand-new, not-yet-flushed object).
type CachedObject interface {
	Position() int64
	SetPosition(pos int64)

	// StorageSize is the on-disk footprint, already rounded to the
	// file's scale, used both for allocation and for shadow-log
	// before-image sizing.
	StorageSize() int64

	IsDirty() bool
	SetDirty(dirty bool)

	// Encode renders the object's current in-memory state to its
	// on-disk byte image, exactly StorageSize() bytes long.
	Encode() ([]byte, error)
}

// Loader materializes a CachedObject from its on-disk image at
// position, for a cache miss.
type Loader func(position int64) (CachedObject, error)
