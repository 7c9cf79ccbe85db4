/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package rowstore

import (
	"fmt"
	"sync"

	hsqlerrors "hsqlcore/internal/errors"
	"hsqlcore/internal/storage/avl"
	"hsqlcore/internal/storage/collate"
	"hsqlcore/internal/storage/rowcodec"
	"hsqlcore/internal/storage/sqltype"
)

// Memory is the in-process row store variant: rows live as ordinary
// Go structures keyed by a synthetic, monotonically assigned position.
type Memory struct {
	mu sync.Mutex

	colCollations []collate.Collation
	locale        string

	rows         map[int64]*rowcodec.Row
	nextPosition int64
	trees        []*avl.Tree
}

// NewMemory creates an empty store over indexes, whose CHAR/VARCHAR
// columns compare under colCollations (indexed by column position)
// resolved against locale.
func NewMemory(indexes []rowcodec.IndexDef, colCollations []collate.Collation, locale string) *Memory {
	m := &Memory{
		colCollations: colCollations,
		locale:        locale,
		rows:          make(map[int64]*rowcodec.Row),
	}
	adapter := &nodeStoreAdapter{get: m.lookup}
	m.trees = make([]*avl.Tree, len(indexes))
	for i, idx := range indexes {
		cmp := BuildComparator(idx, m.lookup, colCollations, locale)
		m.trees[i] = avl.NewTree(idx.ID, idx.Unique, adapter, cmp)
	}
	return m
}

func (m *Memory) lookup(position int64) (*rowcodec.Row, error) {
	row, ok := m.rows[position]
	if !ok {
		return nil, hsqlerrors.CorruptRow(fmt.Sprintf("no row at position %d", position))
	}
	return row, nil
}

// Add assigns row a position if it doesn't already have one, then
// links it into every index. If linking fails partway (a unique-index
// violation), every index already linked is unwound and row is left
// entirely absent from the store.
func (m *Memory) Add(row *rowcodec.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if row.Position == rowcodec.NoPosition {
		row.Position = m.nextPosition
		m.nextPosition++
	}
	m.rows[row.Position] = row
	row.IsInMemory = true

	for i, tree := range m.trees {
		if err := tree.Insert(row.Position); err != nil {
			for j := 0; j < i; j++ {
				_ = m.trees[j].Delete(row.Position)
			}
			delete(m.rows, row.Position)
			return err
		}
	}
	return nil
}

// Delete unlinks row from every index and removes it from the store.
func (m *Memory) Delete(row *rowcodec.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unlinkLocked(row)
}

func (m *Memory) unlinkLocked(row *rowcodec.Row) error {
	for _, tree := range m.trees {
		if err := tree.Delete(row.Position); err != nil {
			return err
		}
	}
	delete(m.rows, row.Position)
	return nil
}

// IndexRow re-links row (already holding a valid position) into every
// index, used after a bulk table rewrite.
func (m *Memory) IndexRow(row *rowcodec.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[row.Position] = row
	for _, tree := range m.trees {
		if err := tree.Insert(row.Position); err != nil {
			return err
		}
	}
	return nil
}

// IndexRows calls IndexRow for every row in rows, in order.
func (m *Memory) IndexRows(rows []*rowcodec.Row) error {
	for _, row := range rows {
		if err := m.IndexRow(row); err != nil {
			return err
		}
	}
	return nil
}

// CommitRow clears row's dirty/new bits once its owning transaction
// has committed. The index linkage itself was already established by
// Add/Delete; there is nothing left to finalize structurally.
func (m *Memory) CommitRow(row *rowcodec.Row, action Action) error {
	row.IsNew = false
	row.HasDataChanged = false
	row.HasNodesChanged = false
	return nil
}

// RollbackRow undoes the effect of a prior Add (by unlinking row
// again) or Delete (by relinking it) whose owning transaction aborted.
func (m *Memory) RollbackRow(row *rowcodec.Row, action Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch action {
	case ActionInsert:
		return m.unlinkLocked(row)
	case ActionDelete:
		m.rows[row.Position] = row
		for _, tree := range m.trees {
			if err := tree.Insert(row.Position); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// Get returns the row at position.
func (m *Memory) Get(position int64) (*rowcodec.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(position)
}

// RowIterator yields rows in primary-key order (index 0's in-order
// traversal).
func (m *Memory) RowIterator() RowIterator {
	return &memoryIterator{m: m, tree: m.trees[0]}
}

type memoryIterator struct {
	m       *Memory
	tree    *avl.Tree
	pos     int64
	started bool
}

func (it *memoryIterator) Next() (*rowcodec.Row, error) {
	it.m.mu.Lock()
	defer it.m.mu.Unlock()

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
	return it.m.lookup(next)
}

// RowCount returns the number of rows currently held, used by Hybrid
// to decide when to switch over to a Disk store.
func (m *Memory) RowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// SearchCost estimates the cost of a lookup against indexID expected
// to match rowCount rows.
func (m *Memory) SearchCost(indexID int, rowCount int64) float64 {
	return estimateSearchCost(indexID, rowCount)
}

// SetAccessor installs position as indexID's tree root directly, used
// during catalog bootstrap when rows are already known to be linked.
func (m *Memory) SetAccessor(indexID int, position int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tree := range m.trees {
		if tree.IndexID == indexID {
			tree.SetRoot(position)
			return
		}
	}
}

// MoveData copies every row from other into m, translating columns
// through colMap.
func (m *Memory) MoveData(other Store, colMap []int, adjust func(values []sqltype.Value) error) error {
	return moveData(m, len(m.trees), other, colMap, adjust)
}

// Reindex rebuilds indexID's tree from scratch.
func (m *Memory) Reindex(indexID int, useIndex bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var positions []int64
	if !useIndex {
		var err error
		positions, err = collectTreeOrder(m.trees[0])
		if err != nil {
			return err
		}
	}
	return reindexTree(m.trees, indexID, useIndex, positions)
}

var _ Store = (*Memory)(nil)
