/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package defrag

import (
	"math"

	"github.com/google/renameio"

	hsqlerrors "hsqlcore/internal/errors"
	"hsqlcore/internal/logging"
	"hsqlcore/internal/storage/rfile"
	"hsqlcore/internal/storage/rowcodec"
	"hsqlcore/internal/storage/rowstore"
)

var log = logging.NewLogger("storage.defrag")

// Source is what Defragment needs from a live disk row store: its
// backend and codec to copy the header and re-encode rows, its
// current index roots, and a primary-key-ordered traversal to relocate
// every live row.
type Source interface {
	Backend() rfile.Backend
	Roots() []int64
	Codec() *rowcodec.BinaryCodec
	NumIndexes() int
	RowIterator() rowstore.RowIterator
}

// Result reports what a Defragment run accomplished, for logging and
// for the caller to install as the reopened table's new index roots.
type Result struct {
	RowCount int
	OldSize  int64
	NewSize  int64
	NewRoots []int64
}

// Defragment rewrites d's data file compactly into destPath: every
// live row (reached through d's primary-key index) is relocated to a
// freshly allocated, contiguous position, its AVL node links are
// translated to match, and the result is installed at destPath by
// atomic rename. It requires no concurrent readers or writers against
// d — the caller must quiesce the table first.
//
// headerSize bytes are copied verbatim from the front of d's backend;
// this package does not interpret them.
func Defragment(d Source, headerSize int64, destPath string) (Result, error) {
	backend := d.Backend()
	oldSize, err := backend.Length()
	if err != nil {
		return Result{}, err
	}

	var lookup PositionLookup
	if oldSize > math.MaxInt32 {
		lookup = NewDoubleLongIndex(1024)
	} else {
		lookup = NewDoubleIntIndex(1024)
	}

	numIndexes := d.NumIndexes()

	type entry struct {
		row    *rowcodec.Row
		oldPos int64
		newPos int64
	}

	// Pass 1: traverse the primary-key index in order, assigning each
	// live row a fresh, contiguous position and recording the
	// old->new mapping. Rows stay decoded in memory between passes;
	// nothing is written to destPath yet.
	var entries []entry
	next := headerSize
	it := d.RowIterator()
	for {
		row, err := it.Next()
		if err != nil {
			return Result{}, err
		}
		if row == nil {
			break
		}
		oldPos := row.Position
		newPos := next
		next += int64(row.StorageSize)
		lookup.Put(oldPos, newPos)
		entries = append(entries, entry{row: row, oldPos: oldPos, newPos: newPos})
	}

	if lookup.Len() != len(entries) {
		log.Error("defrag lookup size mismatch", "traversed", len(entries), "lookup", lookup.Len())
		return Result{}, hsqlerrors.CorruptIndex("defrag: row count from traversal does not match lookup population")
	}

	f, err := renameio.TempFile("", destPath)
	if err != nil {
		return Result{}, hsqlerrors.IoFailure("create defrag output file", err)
	}
	defer f.Cleanup()

	header := make([]byte, headerSize)
	if err := backend.Seek(0); err != nil {
		return Result{}, hsqlerrors.IoFailure("seek to header", err)
	}
	if _, err := backend.Read(header); err != nil {
		return Result{}, hsqlerrors.IoFailure("read header", err)
	}
	if _, err := f.Write(header); err != nil {
		return Result{}, hsqlerrors.IoFailure("write defrag header", err)
	}

	// Pass 2: translate every row's AVL node links through the
	// lookup, then write the re-encoded image at its new, already
	// assigned position. Because positions were handed out in the
	// same traversal order above, writing sequentially here lands
	// every row exactly where pass 1 said it would.
	codec := d.Codec()
	for _, e := range entries {
		for i := 0; i < numIndexes && i < len(e.row.Nodes); i++ {
			n := &e.row.Nodes[i]
			newParent, ok := lookup.Lookup(n.Parent)
			if !ok {
				return Result{}, hsqlerrors.CorruptIndex("defrag: no translation for parent link")
			}
			newLeft, ok := lookup.Lookup(n.Left)
			if !ok {
				return Result{}, hsqlerrors.CorruptIndex("defrag: no translation for left link")
			}
			newRight, ok := lookup.Lookup(n.Right)
			if !ok {
				return Result{}, hsqlerrors.CorruptIndex("defrag: no translation for right link")
			}
			n.Parent, n.Left, n.Right = newParent, newLeft, newRight
		}
		e.row.Position = e.newPos
		e.row.HasDataChanged = true
		e.row.HasNodesChanged = true

		buf, err := codec.EncodeRow(e.row, numIndexes)
		if err != nil {
			return Result{}, err
		}
		if _, err := f.Write(buf); err != nil {
			return Result{}, hsqlerrors.IoFailure("write defragged row", err)
		}
	}

	oldRoots := d.Roots()
	newRoots := make([]int64, len(oldRoots))
	for i, r := range oldRoots {
		translated, ok := lookup.Lookup(r)
		if !ok {
			return Result{}, hsqlerrors.CorruptIndex("defrag: no translation for index accessor root")
		}
		newRoots[i] = translated
	}

	if err := f.CloseAtomicallyReplace(); err != nil {
		return Result{}, hsqlerrors.IoFailure("install defragged file", err)
	}

	result := Result{
		RowCount: len(entries),
		OldSize:  oldSize,
		NewSize:  next,
		NewRoots: newRoots,
	}
	log.Info("defrag complete", "rows", result.RowCount, "oldSize", result.OldSize, "newSize", result.NewSize)
	return result, nil
}

var _ Source = (*rowstore.Disk)(nil)
