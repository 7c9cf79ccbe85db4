/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package rowstore

import (
	"sync"

	"hsqlcore/internal/storage/cache"
	"hsqlcore/internal/storage/collate"
	"hsqlcore/internal/storage/freespace"
	"hsqlcore/internal/storage/rfile"
	"hsqlcore/internal/storage/rowcodec"
	"hsqlcore/internal/storage/sqltype"
)

// DiskFactory builds the Disk store a Hybrid switches over to once its
// in-memory row count crosses the configured threshold. It is supplied
// by the table layer (not part of this package) since only it knows
// which backend/cache/free-space manager the table's data file uses.
type DiskFactory func() *Disk

// Hybrid starts out as a Memory store and switches permanently to a
// Disk store once the row count reaches threshold, mirroring how a
// TEXT TABLE or a table created under a memory-favoring setting is
// promoted to full disk residency once it outgrows its cache budget.
// The switch re-serializes every row, in primary-key order, through a
// freshly built Disk store; callers observe no interface difference.
type Hybrid struct {
	mu sync.Mutex

	threshold int
	newDisk   DiskFactory

	mem  *Memory
	disk *Disk // nil until the switch-over happens
}

// NewHybrid creates a store that behaves as mem until its row count
// reaches threshold, at which point it switches to the store newDisk
// builds.
func NewHybrid(mem *Memory, threshold int, newDisk DiskFactory) *Hybrid {
	return &Hybrid{mem: mem, threshold: threshold, newDisk: newDisk}
}

// NewHybridMemory is a convenience constructor building the initial
// Memory half directly, mirroring NewMemory's signature.
func NewHybridMemory(indexes []rowcodec.IndexDef, colCollations []collate.Collation, locale string, threshold int, newDisk DiskFactory) *Hybrid {
	return NewHybrid(NewMemory(indexes, colCollations, locale), threshold, newDisk)
}

func (h *Hybrid) active() Store {
	if h.disk != nil {
		return h.disk
	}
	return h.mem
}

// switchOverLocked migrates every row currently in mem into a freshly
// built Disk store, in primary-key order, then makes that store
// active. Called with h.mu held.
func (h *Hybrid) switchOverLocked() error {
	disk := h.newDisk()
	it := h.mem.RowIterator()
	for {
		row, err := it.Next()
		if err != nil {
			return err
		}
		if row == nil {
			break
		}
		row.Position = rowcodec.NoPosition
		row.IsInMemory = false
		row.HasDataChanged = true
		row.HasNodesChanged = true
		for i := range row.Nodes {
			row.Nodes[i] = rowcodec.AVLNode{Parent: rowcodec.NoPosition, Left: rowcodec.NoPosition, Right: rowcodec.NoPosition}
		}
		if err := disk.Add(row); err != nil {
			return err
		}
	}
	h.disk = disk
	h.mem = nil
	return nil
}

func (h *Hybrid) Add(row *rowcodec.Row) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.active().Add(row); err != nil {
		return err
	}
	if h.disk == nil && h.mem.RowCount() >= h.threshold {
		return h.switchOverLocked()
	}
	return nil
}

func (h *Hybrid) Delete(row *rowcodec.Row) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active().Delete(row)
}

func (h *Hybrid) IndexRow(row *rowcodec.Row) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active().IndexRow(row)
}

func (h *Hybrid) IndexRows(rows []*rowcodec.Row) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active().IndexRows(rows)
}

func (h *Hybrid) CommitRow(row *rowcodec.Row, action Action) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active().CommitRow(row, action)
}

func (h *Hybrid) RollbackRow(row *rowcodec.Row, action Action) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active().RollbackRow(row, action)
}

func (h *Hybrid) Get(position int64) (*rowcodec.Row, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active().Get(position)
}

func (h *Hybrid) RowIterator() RowIterator {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active().RowIterator()
}

func (h *Hybrid) SearchCost(indexID int, rowCount int64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active().SearchCost(indexID, rowCount)
}

func (h *Hybrid) SetAccessor(indexID int, position int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active().SetAccessor(indexID, position)
}

// numIndexesLocked returns the live row's index count, called with
// h.mu held.
func (h *Hybrid) numIndexesLocked() int {
	if h.disk != nil {
		return h.disk.numIndexes
	}
	return len(h.mem.trees)
}

// MoveData copies every row from other into h, translating columns
// through colMap. Rows are added through h itself (not the bare active
// store) so the memory/disk promotion threshold is still observed.
func (h *Hybrid) MoveData(other Store, colMap []int, adjust func(values []sqltype.Value) error) error {
	h.mu.Lock()
	n := h.numIndexesLocked()
	h.mu.Unlock()
	return moveData(h, n, other, colMap, adjust)
}

// Reindex rebuilds indexID's tree from scratch on whichever store is
// currently active.
func (h *Hybrid) Reindex(indexID int, useIndex bool) error {
	h.mu.Lock()
	active := h.active()
	h.mu.Unlock()
	return active.Reindex(indexID, useIndex)
}

// AsDisk returns the underlying Disk store and true once switch-over
// has happened, or (nil, false) while rows still live in memory.
func (h *Hybrid) AsDisk() (*Disk, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disk, h.disk != nil
}

var _ Store = (*Hybrid)(nil)

// AsDisk unwraps s to the Disk store actually holding its rows, useful
// for operations (like defragmentation) that only make sense against
// disk residency. It returns false for a Memory store, and for a
// Hybrid store that has not yet switched over.
func AsDisk(s Store) (*Disk, bool) {
	switch v := s.(type) {
	case *Disk:
		return v, true
	case *Hybrid:
		return v.AsDisk()
	default:
		return nil, false
	}
}

// NewDiskBackend is a convenience DiskFactory builder: it closes over
// the backend/cache/free-space manager a table's data file already
// has open, deferring only the index definitions and collation that
// switch-over needs.
func NewDiskBackend(backend rfile.Backend, c *cache.Cache, space freespace.Manager, codec *rowcodec.BinaryCodec, indexes []rowcodec.IndexDef, numColumns int, colCollations []collate.Collation, locale string) DiskFactory {
	return func() *Disk {
		return NewDisk(backend, c, space, codec, indexes, numColumns, colCollations, locale)
	}
}
