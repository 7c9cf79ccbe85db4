/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package rowstore

import (
	"encoding/binary"
	"fmt"

	hsqlerrors "hsqlcore/internal/errors"
	"hsqlcore/internal/storage/avl"
	"hsqlcore/internal/storage/cache"
	"hsqlcore/internal/storage/collate"
	"hsqlcore/internal/storage/freespace"
	"hsqlcore/internal/storage/rfile"
	"hsqlcore/internal/storage/rowcodec"
	"hsqlcore/internal/storage/sqltype"
)

// rowCachedObject adapts a *rowcodec.Row to cache.CachedObject so the
// data-file cache can track, evict, and write it through exactly like
// any other cached page.
type rowCachedObject struct {
	row        *rowcodec.Row
	codec      *rowcodec.BinaryCodec
	numIndexes int
}

func (o *rowCachedObject) Position() int64        { return o.row.Position }
func (o *rowCachedObject) SetPosition(pos int64)   { o.row.Position = pos }
func (o *rowCachedObject) StorageSize() int64      { return int64(o.row.StorageSize) }
func (o *rowCachedObject) IsDirty() bool           { return o.row.HasDataChanged || o.row.HasNodesChanged }
func (o *rowCachedObject) SetDirty(dirty bool) {
	if !dirty {
		o.row.HasDataChanged, o.row.HasNodesChanged = false, false
	} else {
		o.row.HasDataChanged = true
	}
}
func (o *rowCachedObject) Encode() ([]byte, error) {
	return o.codec.EncodeRow(o.row, o.numIndexes)
}

// Disk is the full-time disk row store variant: every row lives on
// the backing file, reached through the data-file cache, with storage
// reclaimed through the free-space manager on delete.
type Disk struct {
	backend rfile.Backend
	cache   *cache.Cache
	space   freespace.Manager
	spaceID int64
	codec   *rowcodec.BinaryCodec

	numIndexes int
	numColumns int

	trees []*avl.Tree
}

// NewDisk creates a disk-backed store for a table with the given
// indexes and column count, persisting through c and allocating
// storage from space.
func NewDisk(backend rfile.Backend, c *cache.Cache, space freespace.Manager, codec *rowcodec.BinaryCodec, indexes []rowcodec.IndexDef, numColumns int, colCollations []collate.Collation, locale string) *Disk {
	d := &Disk{
		backend:    backend,
		cache:      c,
		space:      space,
		spaceID:    space.DefaultTableSpace(),
		codec:      codec,
		numIndexes: len(indexes),
		numColumns: numColumns,
	}
	adapter := &nodeStoreAdapter{get: d.fetch}
	d.trees = make([]*avl.Tree, len(indexes))
	for i, idx := range indexes {
		cmp := BuildComparator(idx, d.fetch, colCollations, locale)
		d.trees[i] = avl.NewTree(idx.ID, idx.Unique, adapter, cmp)
	}
	return d
}

// fetch resolves position to its row, going through the cache (which
// loads from the backend on a miss).
func (d *Disk) fetch(position int64) (*rowcodec.Row, error) {
	obj, err := d.cache.Get(position, false, d.load)
	if err != nil {
		return nil, err
	}
	return obj.(*rowCachedObject).row, nil
}

// load is the cache.Loader backing fetch: it reads the u32 size
// prefix, then the rest of the declared image, and decodes it.
func (d *Disk) load(position int64) (cache.CachedObject, error) {
	if err := d.backend.Seek(position); err != nil {
		return nil, hsqlerrors.IoFailure("seek row", err)
	}
	size, err := d.backend.ReadInt()
	if err != nil {
		return nil, hsqlerrors.IoFailure("read row size", err)
	}
	if size < 8 {
		return nil, hsqlerrors.CorruptRow(fmt.Sprintf("row at %d declares size %d", position, size))
	}

	buf := make([]byte, size)
	binary.BigEndian.PutUint32(buf[0:4], uint32(size))
	if _, err := d.backend.Read(buf[4:]); err != nil {
		return nil, hsqlerrors.IoFailure("read row body", err)
	}

	row, err := d.codec.DecodeRow(buf, d.numIndexes, d.numColumns)
	if err != nil {
		return nil, hsqlerrors.CorruptRow(err.Error())
	}
	row.Position = position
	row.IsInMemory = false
	return &rowCachedObject{row: row, codec: d.codec, numIndexes: d.numIndexes}, nil
}

// Add allocates storage for row (if it doesn't already have a
// position) and links it into every index. A failed link (a
// unique-index violation) unwinds every index already linked and
// returns the row's storage to the free-space manager.
func (d *Disk) Add(row *rowcodec.Row) error {
	encoded, err := d.codec.EncodeRow(row, d.numIndexes)
	if err != nil {
		return err
	}

	if row.Position == rowcodec.NoPosition {
		blocks := int64(len(encoded)) / int64(d.codec.Scale)
		if blocks == 0 {
			blocks = 1
		}
		offset, err := d.space.GetFileBlocks(d.spaceID, blocks)
		if err != nil {
			return err
		}
		row.Position = offset
	}
	row.IsInMemory = false

	obj := &rowCachedObject{row: row, codec: d.codec, numIndexes: d.numIndexes}
	d.cache.Add(obj, false)

	for i, tree := range d.trees {
		if err := tree.Insert(row.Position); err != nil {
			for j := 0; j < i; j++ {
				_ = d.trees[j].Delete(row.Position)
			}
			d.cache.Remove(obj)
			d.space.FreeTableSpace(d.spaceID, row.Position, int64(len(encoded)))
			return err
		}
	}
	return nil
}

// Delete unlinks row from every index, drops it from the cache, and
// returns its storage to the free-space manager.
func (d *Disk) Delete(row *rowcodec.Row) error {
	for _, tree := range d.trees {
		if err := tree.Delete(row.Position); err != nil {
			return err
		}
	}
	obj := &rowCachedObject{row: row, codec: d.codec, numIndexes: d.numIndexes}
	d.cache.Remove(obj)
	d.space.FreeTableSpace(d.spaceID, row.Position, int64(row.StorageSize))
	return nil
}

// IndexRow re-links row (already holding a valid position and already
// present in the cache or loadable from the backend) into every index.
func (d *Disk) IndexRow(row *rowcodec.Row) error {
	obj := &rowCachedObject{row: row, codec: d.codec, numIndexes: d.numIndexes}
	d.cache.Add(obj, false)
	for _, tree := range d.trees {
		if err := tree.Insert(row.Position); err != nil {
			return err
		}
	}
	return nil
}

// IndexRows calls IndexRow for every row in rows, in order.
func (d *Disk) IndexRows(rows []*rowcodec.Row) error {
	for _, row := range rows {
		if err := d.IndexRow(row); err != nil {
			return err
		}
	}
	return nil
}

// CommitRow forces row durably to the backend once its owning
// transaction has committed.
func (d *Disk) CommitRow(row *rowcodec.Row, action Action) error {
	row.IsNew = false
	obj := &rowCachedObject{row: row, codec: d.codec, numIndexes: d.numIndexes}
	return d.cache.CommitPersistence(obj)
}

// RollbackRow undoes the effect of a prior Add (by deleting row again)
// or Delete (by re-adding it at its original position) whose owning
// transaction aborted. Rollback must run before any other writer
// could have claimed the freed position; this store does not itself
// enforce that ordering — the transaction manager does.
func (d *Disk) RollbackRow(row *rowcodec.Row, action Action) error {
	switch action {
	case ActionInsert:
		return d.Delete(row)
	case ActionDelete:
		return d.Add(row)
	default:
		return nil
	}
}

// Get returns the row at position.
func (d *Disk) Get(position int64) (*rowcodec.Row, error) {
	return d.fetch(position)
}

// RowIterator yields rows in primary-key order (index 0's in-order
// traversal).
func (d *Disk) RowIterator() RowIterator {
	return &diskIterator{d: d, tree: d.trees[0]}
}

type diskIterator struct {
	d       *Disk
	tree    *avl.Tree
	pos     int64
	started bool
}

func (it *diskIterator) Next() (*rowcodec.Row, error) {
	var next int64
	var err error
	if !it.started {
		next, err = it.tree.First()
		it.started = true
	} else {
		next, err = it.tree.Next(it.pos)
	}
	if err != nil {
		return nil, err
	}
	if next == avl.NoPosition {
		return nil, nil
	}
	it.pos = next
	return it.d.fetch(next)
}

// SearchCost estimates the cost of a lookup against indexID expected
// to match rowCount rows.
func (d *Disk) SearchCost(indexID int, rowCount int64) float64 {
	return estimateSearchCost(indexID, rowCount)
}

// SetAccessor installs position as indexID's tree root directly, used
// during catalog bootstrap when the data file is being reopened and
// roots are read back from the header.
func (d *Disk) SetAccessor(indexID int, position int64) {
	for _, tree := range d.trees {
		if tree.IndexID == indexID {
			tree.SetRoot(position)
			return
		}
	}
}

// Backend returns the random-access file backend this store persists
// through. The defragmenter needs this to copy the header region and
// read row images that fall outside the cache.
func (d *Disk) Backend() rfile.Backend { return d.backend }

// Roots returns every index's current tree root, in index-ID order,
// matching the order indexes were passed to NewDisk.
func (d *Disk) Roots() []int64 {
	roots := make([]int64, len(d.trees))
	for i, tree := range d.trees {
		roots[i] = tree.Root()
	}
	return roots
}

// Codec returns the BinaryCodec this store encodes and decodes rows
// with, so the defragmenter can re-encode translated row images using
// the same scale and layout.
func (d *Disk) Codec() *rowcodec.BinaryCodec { return d.codec }

// NumIndexes returns the number of indexes (and therefore AVL node
// slots) every row in this store carries.
func (d *Disk) NumIndexes() int { return d.numIndexes }

// MoveData copies every row from other into d, translating columns
// through colMap.
func (d *Disk) MoveData(other Store, colMap []int, adjust func(values []sqltype.Value) error) error {
	return moveData(d, d.numIndexes, other, colMap, adjust)
}

// Reindex rebuilds indexID's tree from scratch.
func (d *Disk) Reindex(indexID int, useIndex bool) error {
	var positions []int64
	if !useIndex {
		var err error
		positions, err = collectTreeOrder(d.trees[0])
		if err != nil {
			return err
		}
	}
	return reindexTree(d.trees, indexID, useIndex, positions)
}

var _ Store = (*Disk)(nil)
