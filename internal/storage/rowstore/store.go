/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package rowstore

import (
	"fmt"
	"math"

	hsqlerrors "hsqlcore/internal/errors"
	"hsqlcore/internal/storage/avl"
	"hsqlcore/internal/storage/rowcodec"
	"hsqlcore/internal/storage/sqltype"
)

// Action identifies which half of a two-phase operation CommitRow or
// RollbackRow is finalizing or undoing.
type Action int

const (
	ActionInsert Action = iota
	ActionDelete
)

// RowIterator yields rows in some store-defined order. Next returns
// (nil, nil) once exhausted.
type RowIterator interface {
	Next() (*rowcodec.Row, error)
}

// Store is the per-table row and index manager the SQL executor (not
// part of this module) drives directly. Add/Delete install or unlink
// a row from every index; CommitRow/RollbackRow finalize or undo the
// MVCC-visible effect of a prior Add/Delete once the owning
// transaction resolves.
type Store interface {
	Add(row *rowcodec.Row) error
	Delete(row *rowcodec.Row) error
	IndexRow(row *rowcodec.Row) error
	IndexRows(rows []*rowcodec.Row) error
	CommitRow(row *rowcodec.Row, action Action) error
	RollbackRow(row *rowcodec.Row, action Action) error
	Get(position int64) (*rowcodec.Row, error)
	RowIterator() RowIterator
	SearchCost(indexID int, rowCount int64) float64
	SetAccessor(indexID int, position int64)

	// MoveData copies every row from other into this store, translating
	// columns through colMap: colMap[i] is the column in other that
	// becomes column i here, or -1 if column i has no counterpart in
	// other and must be filled by adjust. adjust, if non-nil, runs
	// against each translated row's values before it is added, for
	// filling in a newly added column's default. Used by ALTER TABLE
	// to rebuild a table's storage when columns are added, dropped, or
	// reordered.
	MoveData(other Store, colMap []int, adjust func(values []sqltype.Value) error) error

	// Reindex rebuilds indexID's tree from scratch: every live row is
	// collected in key order (by walking the index's own current tree
	// if useIndex, otherwise by a full primary-key scan) and relinked
	// in a fresh tree built over that order. Used to repair an index
	// whose own tree may no longer be trustworthy to traverse directly,
	// and to rebuild an index after a bulk load left it un-populated.
	Reindex(indexID int, useIndex bool) error
}

// nodeStoreAdapter implements avl.NodeStore by dereferencing a
// position through get, then reading or writing the AVLNode that row
// carries for a particular index. persist, when set, is invoked after a
// mutation; neither the Memory nor the Disk store sets it (the Disk
// store relies on the row's HasNodesChanged flag to write the linkage
// back from its cache).
type nodeStoreAdapter struct {
	get     RowAccessor
	persist func(row *rowcodec.Row) error
}

func (n *nodeStoreAdapter) GetNode(position int64, indexID int) (avl.AVLNode, error) {
	row, err := n.get(position)
	if err != nil {
		return avl.AVLNode{}, err
	}
	return *row.Node(indexID), nil
}

func (n *nodeStoreAdapter) SetNode(position int64, indexID int, node avl.AVLNode) error {
	row, err := n.get(position)
	if err != nil {
		return err
	}
	*row.Node(indexID) = node
	row.HasNodesChanged = true
	if n.persist != nil {
		return n.persist(row)
	}
	return nil
}

// estimateSearchCost is the planner estimator shared by every store
// variant: an equality/range lookup through a balanced tree of
// rowCount entries costs about log2(rowCount), a full scan costs
// rowCount itself. Non-indexed access (indexID < 0) always costs a
// full scan.
func estimateSearchCost(indexID int, rowCount int64) float64 {
	if rowCount <= 0 {
		return 0
	}
	if indexID < 0 {
		return float64(rowCount)
	}
	return math.Log2(float64(rowCount)) + 1
}

// moveData is the shared MoveData body for every Store variant: it
// traverses other in whatever order its RowIterator yields, translates
// each row's values through colMap, runs adjust over the result, and
// adds the translated row to dst via the Store interface (so a Hybrid
// destination still observes its own memory/disk promotion threshold).
func moveData(dst Store, dstNumIndexes int, other Store, colMap []int, adjust func(values []sqltype.Value) error) error {
	it := other.RowIterator()
	for {
		row, err := it.Next()
		if err != nil {
			return err
		}
		if row == nil {
			return nil
		}

		values := make([]sqltype.Value, len(colMap))
		for i, src := range colMap {
			if src >= 0 && src < len(row.Values) {
				values[i] = row.Values[src]
			} else {
				values[i] = sqltype.Null()
			}
		}
		if adjust != nil {
			if err := adjust(values); err != nil {
				return err
			}
		}

		newRow := rowcodec.NewRow(values, dstNumIndexes)
		if err := dst.Add(newRow); err != nil {
			return err
		}
	}
}

// reindexTree rebuilds tree (one of trees, matched by indexID) from
// scratch. If useIndex, the reinsertion order is read by walking
// tree's own current structure; otherwise positions (typically
// collected by the caller from the primary-key index, under whatever
// locking that store needs) supplies the order directly.
func reindexTree(trees []*avl.Tree, indexID int, useIndex bool, positions []int64) error {
	var tree *avl.Tree
	for _, t := range trees {
		if t.IndexID == indexID {
			tree = t
			break
		}
	}
	if tree == nil {
		return hsqlerrors.CorruptIndex(fmt.Sprintf("reindex: no index with id %d", indexID))
	}

	if useIndex {
		var err error
		positions, err = collectTreeOrder(tree)
		if err != nil {
			return err
		}
	}

	tree.SetRoot(avl.NoPosition)
	for _, pos := range positions {
		if err := tree.Insert(pos); err != nil {
			return err
		}
	}
	return nil
}

// collectTreeOrder walks tree's in-order traversal, returning every
// position it currently holds.
func collectTreeOrder(tree *avl.Tree) ([]int64, error) {
	var positions []int64
	pos, err := tree.First()
	if err != nil {
		return nil, err
	}
	for pos != avl.NoPosition {
		positions = append(positions, pos)
		pos, err = tree.Next(pos)
		if err != nil {
			return nil, err
		}
	}
	return positions, nil
}
