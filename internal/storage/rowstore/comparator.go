/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

// Package rowstore ties the row codec, AVL index, data-file cache, and
// free-space manager together into the Memory/Hybrid/Disk stores a
// table's rows and indexes live in.
package rowstore

import (
	"hsqlcore/internal/storage/avl"
	"hsqlcore/internal/storage/collate"
	"hsqlcore/internal/storage/rowcodec"
	"hsqlcore/internal/storage/sqltype"
)

// RowAccessor resolves a position to the row stored there.
type RowAccessor func(position int64) (*rowcodec.Row, error)

// BuildComparator returns the avl.Comparator for idx: rows are
// compared column by column in idx.Columns order, honoring each
// column's direction (idx.Ascending) and null placement
// (idx.NullsLast). CHAR/VARCHAR columns compare under the collation
// named in colCollations (indexed by column position in the table, not
// by position within idx.Columns); every other type uses its natural
// ordering.
func BuildComparator(idx rowcodec.IndexDef, get RowAccessor, colCollations []collate.Collation, locale string) avl.Comparator {
	return func(a, b int64) (int, error) {
		ra, err := get(a)
		if err != nil {
			return 0, err
		}
		rb, err := get(b)
		if err != nil {
			return 0, err
		}

		for i, col := range idx.Columns {
			va, vb := ra.Values[col], rb.Values[col]
			nullsLast := true
			if i < len(idx.NullsLast) {
				nullsLast = idx.NullsLast[i]
			}

			var c int
			switch {
			case va.IsNull() || vb.IsNull():
				c = sqltype.Compare(va, vb, nullsLast)
			case va.Kind == sqltype.KindChar || va.Kind == sqltype.KindVarchar:
				coll := collate.CollationBinary
				if col < len(colCollations) {
					coll = colCollations[col]
				}
				c = collate.GetCollator(coll, locale).Compare(va.Str, vb.Str)
			default:
				c = sqltype.Compare(va, vb, nullsLast)
			}

			if i < len(idx.Ascending) && !idx.Ascending[i] {
				c = -c
			}
			if c != 0 {
				return c, nil
			}
		}
		return 0, nil
	}
}
